package entity

import (
	"anoa.com/studentmanager/pkg/validator"
)

var entityValidator = validator.NewValidator()

// validateEntity is the persistence-boundary check run from BeforeSave hooks.
func validateEntity(v any) error {
	if err := entityValidator.Struct(v); err != nil {
		return validator.ToValidationError(err)
	}
	return nil
}
