package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "regular password", password: "mySecurePassword123"},
		{name: "special characters", password: "P@ssw0rd!#$%"},
		{name: "empty password is hashed", password: ""},
		{name: "72 bytes", password: strings.Repeat("a", 72)},
		{name: "73 bytes", password: strings.Repeat("a", 73), wantErr: bcrypt.ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, "$2a$"), "bcrypt prefix, got %s", hash)
			assert.NotEqual(t, tt.password, hash)
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correctPassword123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
		wantErr  bool
	}{
		{name: "correct password", hash: hash, password: "correctPassword123", want: true},
		{name: "wrong password", hash: hash, password: "wrongPassword"},
		{name: "empty password", hash: hash, password: ""},
		{name: "not a bcrypt hash", hash: "pbkdf2:sha256:150000$abc$def", password: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.hash, tt.password)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
		})
	}
}
