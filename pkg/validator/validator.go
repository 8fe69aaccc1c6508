package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"anoa.com/poemhub/pkg/apperror"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the dd/MM/yyyy format the API uses for poem and comment dates.
const DateLayout = "02/01/2006"

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("ddmmyyyy", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Struct validates v and returns an apperror.ErrInvalidInput wrapped error
// whose message lists every failed field.
func Struct(v interface{}) error {
	if err := instance().Struct(v); err != nil {
		return apperror.New(0, FormatValidationError(err), apperror.ErrInvalidInput)
	}
	return nil
}

// Var validates a single value against tag, naming it field in the message.
func Var(field string, value interface{}, tag string) error {
	if err := instance().Var(value, tag); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return apperror.New(0, fieldMessage(field, validationErrors[0]), apperror.ErrInvalidInput)
		}
		return apperror.New(0, err.Error(), apperror.ErrInvalidInput)
	}
	return nil
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, fieldMessage(getFieldName(fieldError.Field()), fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "ddmmyyyy":
		return fmt.Sprintf("%s must be a date in dd/MM/yyyy format", field)
	case "eqfield":
		return fmt.Sprintf("%s does not match", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is not valid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Username":        "Username",
		"Email":           "Email",
		"Password":        "Password",
		"ConfirmPassword": "Password confirmation",
		"Role":            "Role",
		"Title":           "Title",
		"Author":          "Author",
		"Text":            "Text",
		"ImageURL":        "Image URL",
		"PostDate":        "Date",
		"Content":         "Comment",
		"FirstName":       "First name",
		"LastName":        "Last name",
		"Phone":           "Phone",
		"UserEmail":       "Email",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
