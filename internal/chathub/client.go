package chathub

import "chessrelay/backend/internal/models"

// Client is one browser connection as the hub sees it.
type Client interface {
	// GetConnID returns the identifier of this live connection, unique per socket.
	GetConnID() string
	// GetUserID returns the external user id from the handshake, or "".
	GetUserID() string
	// GetUsername returns the display name from the handshake, or "".
	GetUsername() string

	// GetSendChannel returns the queue the hub writes outbound frames to.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the write pump; it is called by the hub exactly once.
	Close()
}
