package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	for _, pw := range []string{"a", "Secr3t!pass", strings.Repeat("x", MaxPasswordBytes), "päss wörd ✓"} {
		h, err := HashPassword(pw, bcrypt.MinCost)
		require.NoError(t, err)
		require.True(t, IsBcryptHash(h))
		require.True(t, VerifyPassword(h, pw), pw)
		require.False(t, VerifyPassword(h, pw+"!"), pw)
	}
}

func TestHashPasswordTruncatesAtCap(t *testing.T) {
	prefix := strings.Repeat("k", MaxPasswordBytes)
	h, err := HashPassword(prefix+"tail-one", bcrypt.MinCost)
	require.NoError(t, err)

	require.True(t, VerifyPassword(h, prefix))
	require.True(t, VerifyPassword(h, prefix+"tail-two"))
	require.False(t, VerifyPassword(h, prefix[:MaxPasswordBytes-1]))
}

func TestTruncatePasswordCutsBytesNotRunes(t *testing.T) {
	// 36 two-byte runes fill the cap exactly; the 37th is dropped.
	pw := strings.Repeat("é", 37)
	require.Len(t, TruncatePassword(pw), MaxPasswordBytes)
	require.Equal(t, []byte(strings.Repeat("é", 36)), TruncatePassword(pw))
}

func TestIsBcryptHashRejectsLegacyDigest(t *testing.T) {
	require.False(t, IsBcryptHash("5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"))
	require.False(t, IsBcryptHash(""))
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTempPassword()
		require.NoError(t, err)
		require.Len(t, pw, TempPasswordLength)
		require.True(t, strings.ContainsAny(pw, lowerChars), pw)
		require.True(t, strings.ContainsAny(pw, upperChars), pw)
		require.True(t, strings.ContainsAny(pw, digitChars), pw)
		for _, r := range pw {
			require.True(t, strings.ContainsRune(lowerChars+upperChars+digitChars+specialChars, r), pw)
		}
	}
}
