package complianceerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"from must be before or equal to and at most 366 days before to",
		http.StatusBadRequest,
	)
	ErrFutureDate = apperror.New(
		apperror.CodeInvalidInput,
		"compliance data is not available for future dates",
		http.StatusBadRequest,
	)
	ErrSourceNotConfigured = apperror.New(
		apperror.CodeServiceUnavailable,
		"compliance source is not configured",
		http.StatusServiceUnavailable,
	)
	ErrSourceUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"compliance source unavailable",
		http.StatusServiceUnavailable,
	)
	ErrComplianceUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"compliance user not found",
		http.StatusNotFound,
	)
)
