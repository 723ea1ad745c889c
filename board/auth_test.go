// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInAndVerify(t *testing.T) {
	auth := NewAuth("signing-secret", "board-secret", "")

	session, token, err := auth.SignIn("board-secret", "ada")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "ada", session.Name)
	assert.NotEmpty(t, session.UID)

	verified, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.UID, verified.UID)
	assert.Equal(t, "ada", verified.Name)
}

func TestSignInRejections(t *testing.T) {
	auth := NewAuth("signing-secret", "board-secret", "")

	_, _, err := auth.SignIn("wrong", "ada")
	assert.ErrorContains(t, err, "secret")

	_, _, err = auth.SignIn("board-secret", "   ")
	assert.ErrorContains(t, err, "name")

	disabled := NewAuth("signing-secret", "", "")
	_, _, err = disabled.SignIn("", "ada")
	assert.ErrorContains(t, err, "disabled")
}

func TestVerifyRejectsTamperedTokens(t *testing.T) {
	auth := NewAuth("signing-secret", "board-secret", "")

	_, token, err := auth.SignIn("board-secret", "ada")
	require.NoError(t, err)

	_, err = auth.Verify(token + "x")
	assert.ErrorIs(t, err, ErrInvalidSession)

	other := NewAuth("different-signing-secret", "board-secret", "")
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = auth.Verify("")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestCanModerate(t *testing.T) {
	auth := NewAuth("signing-secret", "board-secret", "owner-uid")

	owner := &Session{UID: "owner-uid", Name: "boss"}
	author := &Session{UID: "author-uid", Name: "ada"}
	stranger := &Session{UID: "other-uid", Name: "bob"}

	assert.True(t, auth.canModerate(owner, "author-uid"), "board owner moderates everything")
	assert.True(t, auth.canModerate(author, "author-uid"), "authors moderate their own records")
	assert.False(t, auth.canModerate(stranger, "author-uid"))
	assert.False(t, auth.canModerate(nil, "author-uid"))

	// Records without an owner predate ownership tracking.
	assert.True(t, auth.canModerate(owner, ""))
	assert.False(t, auth.canModerate(author, ""))
}
