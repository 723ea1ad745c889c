// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the cookie that carries the signed session token.
const SessionCookie = "memoria_session"

const sessionTTL = 30 * 24 * time.Hour

// ErrInvalidSession reports a missing, expired, or tampered session token.
var ErrInvalidSession = errors.New("invalid session")

// Session is the acting identity attached to moderation requests.
type Session struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// IsOwner reports whether this identity is the board owner.
func (s *Session) IsOwner(ownerUID string) bool {
	return ownerUID != "" && s.UID == ownerUID
}

type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Auth issues and verifies session tokens. Sign-in is a shared board secret
// plus a display name; the uid assigned at sign-in is what moderation checks
// compare against record owners and comment authors.
type Auth struct {
	signingSecret []byte
	boardSecret   string
	ownerUID      string
}

// NewAuth creates the session layer. An empty board secret disables sign-in
// entirely (read-only board).
func NewAuth(signingSecret, boardSecret, ownerUID string) *Auth {
	return &Auth{
		signingSecret: []byte(signingSecret),
		boardSecret:   boardSecret,
		ownerUID:      ownerUID,
	}
}

// OwnerUID returns the configured board owner identity, empty when unset.
func (a *Auth) OwnerUID() string {
	return a.ownerUID
}

// SignIn exchanges the board secret and a display name for a session and its
// signed token.
func (a *Auth) SignIn(secret, name string) (*Session, string, error) {
	if a.boardSecret == "" {
		return nil, "", errors.New("sign-in is disabled")
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.boardSecret)) != 1 {
		return nil, "", errors.New("wrong board secret")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errors.New("name can't be empty")
	}

	session := &Session{UID: uuid.NewString(), Name: name}

	now := time.Now()
	claims := &sessionClaims{
		Name: session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingSecret)
	if err != nil {
		return nil, "", fmt.Errorf("signing session token: %w", err)
	}

	return session, token, nil
}

// Verify parses and validates a session token.
func (a *Auth) Verify(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.signingSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return &Session{UID: claims.Subject, Name: claims.Name}, nil
}

// canModerate reports whether the acting identity may edit or delete a
// record owned by ownerUID. Records written before ownership tracking have
// no owner; only the board owner may touch those.
func (a *Auth) canModerate(session *Session, ownerUID string) bool {
	if session == nil {
		return false
	}

	if session.IsOwner(a.ownerUID) {
		return true
	}

	return ownerUID != "" && session.UID == ownerUID
}
