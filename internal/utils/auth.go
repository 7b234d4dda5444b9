package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
)

const MinPasswordLength = 6

var validate = validator.New(validator.WithRequiredStructEnabled())

type RegistrationInput struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// ValidateRegistration expects name and email already normalized.
func ValidateRegistration(in RegistrationInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errordata.Validation("Please provide all required fields")
	}
	fe := verrs[0]
	switch {
	case fe.Tag() == "required":
		return errordata.Validation("Please provide all required fields")
	case fe.Field() == "Email":
		return errordata.Validation("Please provide a valid email address")
	case fe.Field() == "Password" && fe.Tag() == "min":
		return errordata.Validation("Password must be at least 6 characters long")
	case fe.Field() == "Password":
		return errordata.Validation("Password is too long")
	default:
		return errordata.Validation("Name is too long")
	}
}

func ValidateLogin(in LoginInput) error {
	if err := validate.Struct(in); err != nil {
		return errordata.Validation("Please provide email and password")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
