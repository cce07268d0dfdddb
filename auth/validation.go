package auth

import (
	"fmt"
	"strings"
	"time"
)

// Validator checks sign-in and sign-up requests before they are sent.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSignIn validates login credentials
func (v *Validator) ValidateSignIn(req SignInRequest) error {
	if err := v.validateEmail(req.Email); err != nil {
		return err
	}
	if req.Password == "" {
		return PasswordRequiredErr
	}
	return nil
}

// ValidateSignUp validates a registration request
func (v *Validator) ValidateSignUp(req SignUpRequest) error {
	if err := v.ValidateSignIn(SignInRequest{Email: req.Email, Password: req.Password}); err != nil {
		return err
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return NameRequiredErr
	}
	if strings.TrimSpace(req.Country) == "" {
		return CountryRequiredErr
	}

	switch req.Gender {
	case "", GenderMale, GenderFemale, GenderOther:
	default:
		return fmt.Errorf("%w: %q", InvalidGenderErr, req.Gender)
	}

	if req.DateOfBirth != "" {
		if _, err := time.Parse(time.DateOnly, req.DateOfBirth); err != nil {
			return InvalidDateOfBirthErr
		}
	}
	return nil
}

func (v *Validator) validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return EmailRequiredErr
	}

	// Basic email format validation
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at:], ".") {
		return InvalidEmailErr
	}
	return nil
}
