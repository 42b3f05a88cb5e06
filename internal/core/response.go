// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
}

type dataBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

type PaginationLinks struct {
	Self string  `json:"self"`
	Next *string `json:"next"`
	Prev *string `json:"prev"`
}

type paginatedBody struct {
	Success bool             `json:"success"`
	Data    any              `json:"data"`
	Meta    PaginationMeta   `json:"_meta"`
	Links   *PaginationLinks `json:"_links,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, dataBody{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, dataBody{Success: true, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func NewPaginationMeta(page, perPage, total int) PaginationMeta {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	return PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

func Paginated(
	w http.ResponseWriter,
	data any,
	meta PaginationMeta,
	links *PaginationLinks,
) {
	JSON(w, http.StatusOK, paginatedBody{
		Success: true,
		Data:    data,
		Meta:    meta,
		Links:   links,
	})
}

func JSONError(w http.ResponseWriter, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = NewAppError(
			err,
			"internal server error",
			http.StatusInternalServerError,
			"INTERNAL_ERROR",
		)
	}

	if appErr.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="Authentication Required"`)
	}

	JSON(w, appErr.StatusCode, errorBody{Success: false, Error: appErr})
}

// Error writes err as an AppError response, falling back to a generic
// 500 for anything the service layer did not classify.
func Error(w http.ResponseWriter, err error) {
	if IsAppError(err) {
		JSONError(w, err)
		return
	}

	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, err)
		return
	}

	JSONError(w, NewAppError(err, err.Error(), status, statusCode(status)))
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	JSONError(w, NewAppError(
		err,
		"internal server error",
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
	))
}

func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}

	return strings.Join(msgs, "; ")
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusBadGateway:
		return "BAD_GATEWAY"
	default:
		return "INTERNAL_ERROR"
	}
}
