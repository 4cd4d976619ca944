package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) HTTPStatus() int {
	return e.Status
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
	}
}

func UnknownResourceError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_RESOURCE",
		Status:  404,
		Message: fmt.Sprintf("Unknown resource: %s", name),
	}
}

func InvalidScopeError(err error) *AppError {
	return &AppError{
		Code:    "INVALID_SCOPE",
		Status:  400,
		Message: err.Error(),
	}
}

func InvalidPayloadError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "INVALID_PAYLOAD",
		Status:  400,
		Message: "Invalid payload",
		Details: details,
	}
}

func ConflictError(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

// MissingScopeError is returned when a handler runs without the scope
// middleware in front of it.
func MissingScopeError() *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  500,
		Message: "request scope not configured",
	}
}

// ErrorHandler is the fiber error handler. AppErrors are written as-is;
// anything else is logged and reported as an internal error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error: &AppError{Code: codeForStatus(fiberErr.Code), Message: fiberErr.Message},
		})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: &AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	}
	return "INTERNAL_ERROR"
}
