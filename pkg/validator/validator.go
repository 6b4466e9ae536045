package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"anoa.com/studentmanager/pkg/apperror"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator reading `validate` tags with the custom rules installed.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterRules(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterRules installs the custom tags and reports fields by their wire name.
// It is used both for entity validation and for gin's binding engine.
func RegisterRules(v *validator.Validate) error {
	v.RegisterTagNameFunc(wireName)

	rules := map[string]validator.Func{
		"notblank":       notBlank,
		"notfuture":      notFuture,
		"vnphone":        vnPhone,
		"strongpassword": strongPassword,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// ToValidationError converts validator output into a field-keyed apperror.ValidationError.
// Other errors are returned unchanged.
func ToValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	verr := apperror.NewValidationError()
	for _, fieldError := range validationErrors {
		verr.Add(fieldError.Field(), getFieldErrorMessage(fieldError))
	}
	return verr
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.StructField())

	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s must not be empty", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, getFieldName(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "notfuture":
		return fmt.Sprintf("%s cannot be in the future", field)
	case "vnphone":
		return fmt.Sprintf("%s is not a valid phone number", field)
	case "strongpassword":
		if value, ok := fe.Value().(string); ok {
			if problem := PasswordProblem(value); problem != "" {
				return fmt.Sprintf("%s %s", field, problem)
			}
		}
		return fmt.Sprintf("%s is too weak", field)
	case "numeric":
		return fmt.Sprintf("%s must be a number", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"FullName":        "Full name",
		"DateOfBirth":     "Date of birth",
		"Gender":          "Gender",
		"PhoneNumber":     "Phone number",
		"Email":           "Email",
		"Address":         "Address",
		"Username":        "Username",
		"Password":        "Password",
		"PasswordHash":    "Password",
		"Name":            "Class name",
		"MaxStudents":     "Maximum students",
		"CurrentStudents": "Current students",
		"Title":           "Title",
		"Author":          "Author",
		"ISBN":            "ISBN",
		"Quantity":        "Quantity",
		"CoverType":       "Cover type",
		"Price":           "Price",
		"PublishDate":     "Publish date",
		"StudentClass":    "Class",
		"Description":     "Description",
		"Page":            "Page",
		"Limit":           "Limit",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}

func wireName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}
