package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoIdentity = errors.New("session carries no user id")

// DefaultCookieName is the cookie the job-board backend issues at login.
const DefaultCookieName = "session"

// Session is the identity of the signed-in user and the credential attached to
// every REST call and channel handshake.
type Session struct {
	UserID     int
	Token      string
	CookieName string
}

// Claims mirrors the fields the auth service puts in the session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   any    `json:"user_id"`
	Username string `json:"username"`
}

// New builds a session for a known user id.
func New(userID int, token string) Session {
	return Session{UserID: userID, Token: token, CookieName: DefaultCookieName}
}

// FromToken reads the user id out of the session token. The signature is not
// checked here: the backend validates the cookie on every call.
func FromToken(token string) (Session, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("parse session token: %w", err)
	}

	userID, err := claimUserID(claims)
	if err != nil {
		return Session{}, err
	}
	return New(userID, token), nil
}

func claimUserID(claims *Claims) (int, error) {
	switch v := claims.UserID.(type) {
	case float64:
		if v > 0 {
			return int(v), nil
		}
	case string:
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			return id, nil
		}
	}
	if id, err := strconv.Atoi(claims.Subject); err == nil && id > 0 {
		return id, nil
	}
	return 0, ErrNoIdentity
}

// Valid reports whether the session identifies a user.
func (s Session) Valid() bool {
	return s.UserID > 0
}

// Cookie returns the cookie name, defaulting when unset.
func (s Session) Cookie() string {
	if s.CookieName == "" {
		return DefaultCookieName
	}
	return s.CookieName
}
