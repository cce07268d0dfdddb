package auth

import "errors"

var (
	EmailRequiredErr      = errors.New("email is required")
	InvalidEmailErr       = errors.New("invalid email format")
	PasswordRequiredErr   = errors.New("password is required")
	NameRequiredErr       = errors.New("first and last name are required")
	CountryRequiredErr    = errors.New("country is required")
	InvalidGenderErr      = errors.New("gender must be Male, Female or Other")
	InvalidDateOfBirthErr = errors.New("date of birth must be YYYY-MM-DD")
	MissingTokensErr      = errors.New("response carried no tokens")
)
