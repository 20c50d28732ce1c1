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

type ProfileValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProfileValidator(log *logger.Logger) *ProfileValidator {
	log.Info("Profile validator initialized successfully")

	return &ProfileValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ProfileValidator) ValidateInfo(input *model.ProfileInfoInput) error {
	if err := v.validateStruct(input); err != nil {
		return err
	}
	return validateURLs(map[string]string{"LogoURL": input.LogoURL})
}

func (v *ProfileValidator) ValidateIntegrations(input *model.IntegrationsInput) error {
	if err := v.validateStruct(input); err != nil {
		return err
	}
	if input.CustomStoreURL == nil {
		return nil
	}
	return validateURLs(map[string]string{"CustomStoreURL": *input.CustomStoreURL})
}

// validateURLs rejects non-empty values the URL sanitizer cannot repair.
func validateURLs(fields map[string]string) error {
	var errs ValidationErrors
	for field, raw := range fields {
		if strings.TrimSpace(raw) != "" && sanitizer.SanitizeURL(raw) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s must be a valid URL", field),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ProfileValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ProfileValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()
		if err.Tag() == "max" {
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
