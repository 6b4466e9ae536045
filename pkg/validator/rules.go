package validator

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// PhoneRegion is the default region used to parse national phone numbers.
	PhoneRegion = "VN"
	// PasswordSpecialChars lists the characters accepted as a password's special character.
	PasswordSpecialChars = "!@#$%^&*()"
	MinPasswordLength    = 8
)

// Now is the clock used by date rules.
var Now = time.Now

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func notFuture(fl validator.FieldLevel) bool {
	switch value := fl.Field().Interface().(type) {
	case time.Time:
		return !IsFutureDate(value)
	case string:
		if value == "" {
			return true
		}
		date, err := time.Parse(DateLayout, value)
		if err != nil {
			// format errors belong to the datetime rule
			return true
		}
		return !IsFutureDate(date)
	default:
		return false
	}
}

// IsFutureDate reports whether the calendar date of t is after today.
func IsFutureDate(t time.Time) bool {
	now := Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return date.After(today)
}

func vnPhone(fl validator.FieldLevel) bool {
	_, err := NormalizePhone(fl.Field().String())
	return err == nil
}

// NormalizePhone parses a phone number (national numbers are read as Vietnamese)
// and returns it in E.164 form.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), PhoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func strongPassword(fl validator.FieldLevel) bool {
	return PasswordProblem(fl.Field().String()) == ""
}

// PasswordProblem returns the first strength rule the password breaks, or "".
func PasswordProblem(password string) string {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "must be at least 8 characters"
	}

	var hasDigit, hasLetter, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		}
		if strings.ContainsRune(PasswordSpecialChars, r) {
			hasSpecial = true
		}
	}

	switch {
	case !hasDigit:
		return "must contain at least one digit"
	case !hasLetter:
		return "must contain at least one letter"
	case !hasSpecial:
		return "must contain at least one special character (" + PasswordSpecialChars + ")"
	}
	return ""
}
