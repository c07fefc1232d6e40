package config

import "time"

const (
	// Room
	MaxPlayers       = 2
	ChatHistoryLimit = 100

	// Identity
	DefaultDisplayName = "Anonymous"
	UnknownDisplayName = "Unknown"

	// Transport
	SendBufferSize = 256
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 8 << 10

	// Tokens
	GuestTokenTTL = 72 * time.Hour
	TokenIssuer   = "chess-relay"
)
