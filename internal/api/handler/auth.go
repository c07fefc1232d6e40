package handler

import (
	"chessrelay/backend/internal/config"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

// identity is who a handshake claims to be.
type identity struct {
	UserID   string
	Username string
}

// generateJWT signs a guest token carrying the user id and display name.
func generateJWT(secret []byte, id identity, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  id.UserID,
		"username": id.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(config.GuestTokenTTL).Unix(),
		"iss":      config.TokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseToken validates an HS256 token from this service and returns its identity.
func parseToken(secret []byte, raw string) (identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return identity{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, errors.New("unexpected claims type")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return identity{}, errors.New("token has no user_id")
	}
	username, _ := claims["username"].(string)
	return identity{UserID: userID, Username: username}, nil
}

// GetGuestToken issues a token for a fresh guest user id.
func (h *Handler) GetGuestToken(c *gin.Context) {
	guestID, err := uuid.NewRandom()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user id"})
		return
	}
	id := identity{UserID: guestID.String(), Username: c.Query("username")}
	if id.Username == "" {
		id.Username = config.DefaultDisplayName
	}

	token, err := generateJWT([]byte(h.Cfg.JWTSecret), id, time.Now())
	if err != nil {
		h.log.Error("token.sign", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": id.UserID, "username": id.Username})
}
