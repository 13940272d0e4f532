package app

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"hunt-event-service/internal/domain"
)

var validate = validator.New()

// validateCommand runs struct tag validation. Field-specific reasons win over
// fallback; the first failing field decides.
func validateCommand(cmd any, fallback string, reasons map[string]string) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if reason, ok := reasons[fieldErrs[0].Field()]; ok {
			return domain.Invalid(reason)
		}
	}
	return domain.Invalid(fallback)
}
