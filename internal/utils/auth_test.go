package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
)

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name string
		in   RegistrationInput
		msg  string
	}{
		{"ok", RegistrationInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"}, ""},
		{"missing name", RegistrationInput{Email: "ada@example.com", Password: "secret1"}, "Please provide all required fields"},
		{"missing password", RegistrationInput{Name: "Ada", Email: "ada@example.com"}, "Please provide all required fields"},
		{"bad email", RegistrationInput{Name: "Ada", Email: "not-an-email", Password: "secret1"}, "Please provide a valid email address"},
		{"short password", RegistrationInput{Name: "Ada", Email: "ada@example.com", Password: "12345"}, "Password must be at least 6 characters long"},
		{"long password", RegistrationInput{Name: "Ada", Email: "ada@example.com", Password: strings.Repeat("x", 80)}, "Password is too long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRegistration(tc.in)
			if tc.msg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errordata.KindValidation, errordata.KindOf(err))
			assert.Equal(t, tc.msg, errordata.PublicMessage(err))
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin(LoginInput{Email: "a@b.co", Password: "x"}))
	err := ValidateLogin(LoginInput{Email: "a@b.co"})
	assert.Equal(t, "Please provide email and password", errordata.PublicMessage(err))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
