package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Vendor#Pass2024"))

	rejected := map[string]string{
		"Ab1!":            "at least 12 characters",
		"vendorpass#2024": "uppercase letter",
		"VENDORPASS#2024": "lowercase letter",
		"VendorPass#Abcd": "one number",
		"VendorPass20240": "special character",
	}
	for password, want := range rejected {
		err := ValidatePassword(password)
		if assert.Error(t, err, password) {
			assert.Contains(t, err.Error(), want, password)
		}
	}
}

func TestGeneratePasswordSatisfiesPolicy(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword(14)
		require.NoError(t, err)
		assert.Len(t, pw, 14)
		assert.NoError(t, ValidatePassword(pw), pw)
		assert.False(t, strings.ContainsAny(pw, "0O1lI"), "ambiguous characters in %q", pw)
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestGeneratePasswordMinimumLength(t *testing.T) {
	pw, err := GeneratePassword(4)
	require.NoError(t, err)
	assert.Len(t, pw, MinPasswordLength)
}
