package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
	"jdpanel/pkg/sanitizer"
)

// minPhoneDigits accepts landlines without area code; anything shorter is a typo.
const minPhoneDigits = 8

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ContactValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewContactValidator(log *logger.Logger) *ContactValidator {
	v := validator.New()

	if err := v.RegisterValidation("phonedigits", validatePhoneDigits); err != nil {
		log.Fatal("Failed to register 'phonedigits' validator", "error", err)
	}

	log.Info("Contact validator initialized successfully")

	return &ContactValidator{
		validate: v,
		logger:   log,
	}
}

func validatePhoneDigits(fl validator.FieldLevel) bool {
	return len(sanitizer.Digits(fl.Field().String())) >= minPhoneDigits
}

func (v *ContactValidator) ValidateNew(input *model.NewContactInput) error {
	if err := v.validateStruct(input); err != nil {
		return err
	}
	if err := v.validate.Var(input.Phone, "phonedigits"); err != nil {
		return ValidationErrors{{
			Field:   "Phone",
			Message: fmt.Sprintf("Phone must contain at least %d digits", minPhoneDigits),
		}}
	}
	return nil
}

func (v *ContactValidator) ValidateUpdateName(input *model.UpdateNameInput) error {
	return v.validateStruct(input)
}

func (v *ContactValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ContactValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
