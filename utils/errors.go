package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKind classifies an APIError so the boundary responder can pick the
// status code without string matching.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindInternal
)

// APIError is the one error type handlers raise. Data carries structured
// payload fields (e.g. accountLocked: true) that callers can branch on
// without parsing the message.
type APIError struct {
	Kind    ErrorKind
	Message string
	Data    gin.H
}

func (e *APIError) Error() string { return e.Message }

func ValidationError(msg string) *APIError {
	return &APIError{Kind: KindValidation, Message: msg}
}

func AuthenticationError(msg string) *APIError {
	return &APIError{Kind: KindAuthentication, Message: msg}
}

func AuthorizationError(msg string) *APIError {
	return &APIError{Kind: KindAuthorization, Message: msg}
}

func AuthorizationErrorWithData(msg string, data gin.H) *APIError {
	return &APIError{Kind: KindAuthorization, Message: msg, Data: data}
}

func NotFoundError(msg string) *APIError {
	return &APIError{Kind: KindNotFound, Message: msg}
}

func ConflictError(msg string) *APIError {
	return &APIError{Kind: KindConflict, Message: msg}
}

func statusFor(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps an error to its status code and a safe JSON body.
// Anything that is not an APIError is logged and reported as a bare 500.
func RespondError(c *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"error": apiErr.Message}
	for k, v := range apiErr.Data {
		body[k] = v
	}
	c.JSON(statusFor(apiErr.Kind), body)
}

// AbortWithError is RespondError for middleware chains.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
