package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

const isoDateLayout = "2006-01-02"

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

type AgendaValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAgendaValidator(log *logger.Logger) *AgendaValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		log.Fatal("Failed to register 'hhmm' validator", "error", err)
	}
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		log.Fatal("Failed to register 'isodate' validator", "error", err)
	}

	log.Info("Agenda validator initialized successfully")

	return &AgendaValidator{
		validate: v,
		logger:   log,
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(isoDateLayout, fl.Field().String())
	return err == nil
}

func (v *AgendaValidator) ValidateCreate(input *model.CreateBookingInput) error {
	return v.validateStruct(input)
}

func (v *AgendaValidator) ValidateReschedule(input *model.RescheduleInput) error {
	return v.validateStruct(input)
}

func (v *AgendaValidator) ValidateSlotQuery(query *model.SlotQuery) error {
	return v.validateStruct(query)
}

func (v *AgendaValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *AgendaValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24h time like 14:30", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a date like 2024-03-15", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
