package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Error is the API error type carried through services up to the handlers.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)

	InActiveUserError = errors.New("user inactive")
)

// GetUniqueContraintError maps a postgres unique-violation to a 409 the client
// can pattern-match ("already taken", "already pending"). Anything else stays
// an internal error.
func GetUniqueContraintError(err error) *Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "idx_production_companies_slug"), strings.Contains(msg, "slug"):
		return New("slug already taken", http.StatusConflict)
	case strings.Contains(msg, "idx_company_invitations_pending"):
		return New("invitation already pending", http.StatusConflict)
	case strings.Contains(msg, "idx_job_applications_applicant"):
		return New("application already submitted", http.StatusConflict)
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "23505"):
		return New("record already exists", http.StatusConflict)
	}
	return ErrInternalServerError
}

// FromDB maps repository errors onto API errors, keeping "no row" distinct
// from hard failures.
func FromDB(err error, notFoundMsg string) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if notFoundMsg == "" {
			return ErrNotFound
		}
		return New(notFoundMsg, http.StatusNotFound)
	}
	if apiErr := GetUniqueContraintError(err); apiErr.Status == http.StatusConflict {
		return apiErr
	}
	return ErrInternalServerError
}

// IsDuplicate reports whether err is a unique-violation from postgres.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

// ErrorHandler is plugged into the rate-limit middleware.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message": "too many requests, try again later",
		"errors":  []string{"rate limit exceeded"},
	})
}
