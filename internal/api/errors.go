package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/service/economy"
	"github.com/phrazzld/studyquest/internal/service/study"
	"github.com/phrazzld/studyquest/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	var fieldErr *domain.ValidationError

	switch {
	// Authentication errors
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, economy.ErrTopicNotFound),
		errors.Is(err, study.ErrTopicNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, economy.ErrAlreadyPurchased):
		return http.StatusConflict

	// Business rule violations
	case errors.Is(err, economy.ErrNotEligible),
		errors.Is(err, study.ErrNotStudyable),
		errors.Is(err, study.ErrStageNotAllowed):
		return http.StatusUnprocessableEntity

	case errors.Is(err, economy.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	// Bad request errors
	case errors.Is(err, study.ErrInvalidScore),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidStage),
		errors.Is(err, domain.ErrInvalidLevel),
		errors.Is(err, domain.ErrInvalidGem),
		errors.Is(err, domain.ErrValidation),
		errors.As(err, &validationErrs),
		errors.As(err, &fieldErr):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	var fieldErr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, economy.ErrTopicNotFound),
		errors.Is(err, study.ErrTopicNotFound),
		errors.Is(err, store.ErrTopicNotFound):
		return "Topic not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, economy.ErrAlreadyPurchased):
		return "Topic already purchased"

	case errors.Is(err, economy.ErrNotEligible):
		return "Only mastered topics can be purchased"

	case errors.Is(err, economy.ErrInsufficientFunds):
		return "Insufficient gems"

	case errors.Is(err, study.ErrNotStudyable):
		return "Topic cannot be studied"

	case errors.Is(err, study.ErrStageNotAllowed):
		return "Stage change not allowed"

	case errors.Is(err, study.ErrInvalidScore):
		return "Score must be between 1 and 5"

	case errors.As(err, &validationErrs), errors.As(err, &fieldErr):
		return SanitizeValidationError(err)

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, domain.ErrInvalidStage):
		return "Invalid stage"

	case errors.Is(err, domain.ErrValidation):
		return "Validation failed"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message naming the first invalid field.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag(), fe.Param()))
	}

	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) {
		return fmt.Sprintf("Invalid %s: %s", fieldErr.Field, fieldErr.Message)
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "must be at least " + param
	case "max", "lte":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + param
	default:
		return "validation failed"
	}
}

// InsufficientFundsDetails is attached to 402 responses.
type InsufficientFundsDetails struct {
	Short   []domain.Gem `json:"short"`
	Cost    domain.Gems  `json:"cost"`
	Balance domain.Gems  `json:"balance"`
}

// HandleAPIError writes the error response for err. Clients get the safe
// message for known errors, and defaultMsg for unexpected ones when it is
// not empty. The full error is logged redacted.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	switch status {
	case http.StatusUnauthorized:
		opts = append(opts, shared.WithElevatedLogLevel())
	case http.StatusPaymentRequired:
		var funds *economy.InsufficientFundsError
		if errors.As(err, &funds) {
			opts = append(opts, shared.WithDetails(InsufficientFundsDetails{
				Short:   funds.Short,
				Cost:    funds.Cost,
				Balance: funds.Balance,
			}))
		}
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
