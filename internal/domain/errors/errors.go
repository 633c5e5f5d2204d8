// Package errors holds the failures the use cases report and the HTTP status each maps to.
package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError is implemented by every error the HTTP layer renders with its own status and code.
type AppError interface {
	error
	HTTPCode() int
	ErrorCode() string
	Message() string // shown to the client
	Details() string // optional, hidden for 401, 403 and 5xx
}

// Error is a domain failure. Values are shared sentinels, so WithDetails returns a copy.
type Error struct {
	status  int
	code    string
	message string
	details string
	scope   scope
}

// scope widens errors.Is for sentinels naming a whole family of errors.
type scope uint8

const (
	scopeExact  scope = iota // status, code and message
	scopeCode                // status and code
	scopeStatus              // status only
)

func define(status int, code, message string) *Error {
	return &Error{status: status, code: code, message: message}
}

func family(status int, code, message string, s scope) *Error {
	e := define(status, code, message)
	e.scope = s

	return e
}

func (e *Error) Error() string {
	if e.details == "" {
		return e.message
	}

	return e.message + ": " + e.details
}

// Is reports whether e belongs to target. Copies made by WithDetails still match the
// sentinel they came from, and family sentinels such as ErrNotFound match all their members.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.status != t.status {
		return false
	}

	switch t.scope {
	case scopeStatus:
		return true
	case scopeCode:
		return e.code == t.code
	default:
		return e.code == t.code && e.message == t.message
	}
}

func (e *Error) HTTPCode() int { return e.status }
func (e *Error) ErrorCode() string { return e.code }
func (e *Error) Message() string { return e.message }
func (e *Error) Details() string { return e.details }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details string) *Error {
	c := *e
	c.details = details

	return &c
}

const (
	codeDuplicateValue = "DUPLICATE_VALUE"
	codeInvalidValue   = "INVALID_VALUE"
)

// Families, matched by errors.Is against any member.
var (
	ErrDuplicateValue = family(http.StatusConflict, codeDuplicateValue, "Value already exists", scopeCode)
	ErrNotFound       = family(http.StatusNotFound, "NOT_FOUND", "Resource not found", scopeStatus)
	ErrInvalidValue   = family(http.StatusBadRequest, codeInvalidValue, "Invalid value", scopeCode)
)

var (
	ErrUserNameTaken = define(http.StatusConflict, codeDuplicateValue, "Username already exist!")
	ErrEmailTaken    = define(http.StatusConflict, codeDuplicateValue, "Email already exist!")

	ErrUserNotFound              = define(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrPostNotFound              = define(http.StatusNotFound, "POST_NOT_FOUND", "Post not found")
	ErrVerificationTokenNotFound = define(http.StatusNotFound, "VERIFICATION_TOKEN_NOT_FOUND", "Verification token not found")

	ErrVerificationTokenExpired = define(http.StatusBadRequest, codeInvalidValue, "Token is expired!")
	ErrIncorrectPassword        = define(http.StatusBadRequest, codeInvalidValue, "Old Password is incorrect!")
	ErrInvalidRole              = define(http.StatusBadRequest, codeInvalidValue, "Role is not valid")
	ErrValidationFailed         = define(http.StatusBadRequest, "VALIDATION_FAILED", "Input validation failed")
	ErrPasswordStrength         = define(http.StatusBadRequest, "PASSWORD_STRENGTH", "Password is too weak")
	ErrPasswordHashFailed       = define(http.StatusInternalServerError, "PASSWORD_HASH_FAILED", "Password processing failed")

	ErrAuthenticationFailed = define(http.StatusUnauthorized, "AUTHENTICATION_FAILED", "Bad credentials")
	ErrAccountDisabled      = define(http.StatusUnauthorized, "ACCOUNT_DISABLED", "User account is disabled")
	ErrUnauthorized         = define(http.StatusUnauthorized, "UNAUTHORIZED", "Full authentication is required to access this resource")
	ErrForbidden            = define(http.StatusForbidden, "FORBIDDEN", "Access denied")

	// Mail failures are logged, never returned to a request.
	ErrNotificationDelivery = define(http.StatusNotFound, "MAIL_DELIVERY_FAILED", "Exception occurred when sending mail")
)

// StorageError reports a failed database call. The cause reaches the logs, never the client.
type StorageError struct {
	cause   error
	details string
}

func NewStorageError(cause error, details string) *StorageError {
	return &StorageError{cause: cause, details: details}
}

func (e *StorageError) Error() string {
	return errors.Wrap(e.cause, "database execution failed").Error()
}

func (e *StorageError) Unwrap() error { return e.cause }
func (e *StorageError) HTTPCode() int { return http.StatusInternalServerError }
func (e *StorageError) ErrorCode() string { return "DATABASE_EXECUTE_FAILED" }
func (e *StorageError) Message() string { return "Database execution failed" }
func (e *StorageError) Details() string { return e.details }
