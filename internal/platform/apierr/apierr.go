// Package apierr is the shared error model for every API surface.
// Validation codes are expected, user-facing failures: the caller re-prompts
// and nothing is retried. Everything else is an infrastructure failure and
// surfaces as INTERNAL after a clean rollback.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeDuplicateCode      Code = "DUPLICATE_CODE"
	CodeItemNotAvailable   Code = "ITEM_NOT_AVAILABLE"
	CodeAlreadyClosed      Code = "ALREADY_CLOSED"
	CodeBeneficiaryInvalid Code = "BENEFICIARY_INVALID"
	CodeConflict           Code = "CONFLICT"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInternal           Code = "INTERNAL"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func Invalid(msg string) *Error            { return &Error{Code: CodeInvalidArgument, Message: msg} }
func NotFound(msg string) *Error           { return &Error{Code: CodeNotFound, Message: msg} }
func DuplicateCode(msg string) *Error      { return &Error{Code: CodeDuplicateCode, Message: msg} }
func ItemNotAvailable(msg string) *Error   { return &Error{Code: CodeItemNotAvailable, Message: msg} }
func AlreadyClosed(msg string) *Error      { return &Error{Code: CodeAlreadyClosed, Message: msg} }
func BeneficiaryInvalid(msg string) *Error { return &Error{Code: CodeBeneficiaryInvalid, Message: msg} }
func Conflict(msg string) *Error           { return &Error{Code: CodeConflict, Message: msg} }
func Internal(msg string) *Error           { return &Error{Code: CodeInternal, Message: msg} }

// IsValidation reports whether err is one of the expected user-facing
// failures; callers can branch without string matching.
func IsValidation(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case CodeInvalidArgument, CodeNotFound, CodeDuplicateCode,
		CodeItemNotAvailable, CodeAlreadyClosed, CodeBeneficiaryInvalid:
		return true
	}
	return false
}

func ToHTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeInvalidArgument, CodeBeneficiaryInvalid:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateCode, CodeItemNotAvailable, CodeAlreadyClosed, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Body renders the response envelope used by every handler.
func Body(err error) any {
	var dto errorDTO
	var e *Error
	if errors.As(err, &e) {
		dto.Error.Code = e.Code
		dto.Error.Message = e.Message
	} else {
		dto.Error.Code = CodeInternal
		dto.Error.Message = err.Error()
	}
	return dto
}
