// AngelaMos | 2026
// security_test.go

package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Tr0ub4dor&3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

	ok, err := VerifyPassword("Tr0ub4dor&3", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("tr0ub4dor&3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	a, err := HashPassword("same-password1!")
	require.NoError(t, err)
	b, err := HashPassword("same-password1!")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func werkzeugPBKDF2(password, salt string, iter int) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iter, 32, sha256.New)
	return "pbkdf2:sha256:" + strconv.Itoa(iter) + "$" + salt + "$" + hex.EncodeToString(key)
}

func TestVerifyLegacyPBKDF2Hash(t *testing.T) {
	legacy := werkzeugPBKDF2("a234567!", "Xy9s1kQ2", 1000)

	ok, err := VerifyPassword("a234567!", legacy)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("b234567!", legacy)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyLegacyScryptHash(t *testing.T) {
	key, err := scrypt.Key([]byte("a234567!"), []byte("pepperpot"), 1024, 8, 1, 64)
	require.NoError(t, err)
	legacy := "scrypt:1024:8:1$pepperpot$" + hex.EncodeToString(key)

	ok, err := VerifyPassword("a234567!", legacy)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, h := range []string{
		"",
		"plaintext",
		"md5$salt$abcd",
		"pbkdf2:sha1:1000$salt$abcd",
		"pbkdf2:sha256:many$salt$abcd",
		"pbkdf2:sha256:1000$salt$not-hex",
		"$argon2id$v=19$m=65536,t=1,p=4$onlysalt",
		"$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$a2V5",
	} {
		_, err := VerifyPassword("whatever1!", h)
		assert.ErrorIs(t, err, ErrMalformedHash, h)
	}
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	current, err := HashPassword("a234567!")
	require.NoError(t, err)

	weak, err := HashParams{Memory: 8 * 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}.
		Hash("a234567!")
	require.NoError(t, err)

	legacy := werkzeugPBKDF2("a234567!", "saltsalt", 1000)

	tests := []struct {
		name       string
		password   string
		hash       *string
		wantValid  bool
		wantRehash bool
	}{
		{"unknown user", "a234567!", nil, false, false},
		{"current params", "a234567!", &current, true, false},
		{"wrong password", "nope1234!", &current, false, false},
		{"weaker argon params", "a234567!", &weak, true, true},
		{"legacy werkzeug hash", "a234567!", &legacy, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, fresh, err := VerifyPasswordTimingSafe(tt.password, tt.hash)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, valid)

			if !tt.wantRehash {
				assert.Empty(t, fresh)
				return
			}
			assert.True(t, strings.HasPrefix(fresh, "$argon2id$"))
			ok, err := VerifyPassword(tt.password, fresh)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
