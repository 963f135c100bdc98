package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/covline/covline/internal/contract"
	"github.com/covline/covline/internal/emailvalidation"
	paymentdomain "github.com/covline/covline/internal/payment/domain"
	policydomain "github.com/covline/covline/internal/policy/domain"
	signaturedomain "github.com/covline/covline/internal/signature/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var transitionErr *policydomain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, errorPayload{
			Type:    "invalid_transition",
			Message: transitionErr.Error(),
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrUnauthenticatedEvent),
		errors.Is(err, signaturedomain.ErrUnauthenticatedEvent):
		return http.StatusForbidden, errorPayload{
			Type:    "unauthenticated_event",
			Message: "event authentication failed",
		}
	case errors.Is(err, signaturedomain.ErrSignatureEventValidation):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "event validation failed",
		}
	case errors.Is(err, emailvalidation.ErrBadEmailValidationToken):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "bad_validation_token",
			Message: "validation token is invalid",
		}
	case errors.Is(err, emailvalidation.ErrExpiredEmailValidationToken):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "expired_validation_token",
			Message: "validation token has expired",
		}
	case errors.Is(err, emailvalidation.ErrInvalidStartRequest),
		errors.Is(err, paymentdomain.ErrInvalidEvent),
		errors.Is(err, signaturedomain.ErrInvalidEvent):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid request",
		}
	case errors.Is(err, policydomain.ErrPolicyNotFound),
		errors.Is(err, policydomain.ErrQuoteNotFound),
		errors.Is(err, contract.ErrSignedContractNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
