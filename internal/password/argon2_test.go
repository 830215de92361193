package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2_HashAndVerify(t *testing.T) {
	hasher := NewArgon2()

	encoded, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := hasher.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong secret", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2_HashIsSalted(t *testing.T) {
	hasher := NewArgon2()

	first, err := hasher.Hash("same secret")
	require.NoError(t, err)
	second, err := hasher.Hash("same secret")
	require.NoError(t, err)

	// Fresh salt per hash: identical inputs must not produce identical output.
	assert.NotEqual(t, first, second)

	for _, encoded := range []string{first, second} {
		ok, verifyErr := hasher.Verify("same secret", encoded)
		require.NoError(t, verifyErr)
		assert.True(t, ok)
	}
}

func TestArgon2_HashRejectsBadInput(t *testing.T) {
	hasher := NewArgon2()

	_, err := hasher.Hash("")
	assert.Error(t, err)

	_, err = hasher.Hash(strings.Repeat("x", maxSecretBytes+1))
	assert.Error(t, err)
}

func TestArgon2_VerifyRejectsMalformedHash(t *testing.T) {
	hasher := NewArgon2()

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not phc", "plainly-not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=2,p=2$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5"},
		{"bad version", "$argon2id$v=1$m=65536,t=2,p=2$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5"},
		{"missing params", "$argon2id$v=19$m=65536$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5"},
		{"bad salt", "$argon2id$v=19$m=65536,t=2,p=2$!!!$a2V5a2V5a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hasher.Verify("whatever", tt.encoded)
			assert.Error(t, err)
		})
	}
}

func TestArgon2_VerifyOversizedSecret(t *testing.T) {
	hasher := NewArgon2()

	encoded, err := hasher.Hash("a real secret")
	require.NoError(t, err)

	// Oversized input is a mismatch, not an error.
	ok, err := hasher.Verify(strings.Repeat("x", maxSecretBytes+1), encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}
