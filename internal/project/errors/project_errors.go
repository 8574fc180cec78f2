package projecterrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrProjectNotFound = apperror.New(
		apperror.CodeNotFound,
		"Project not found",
		http.StatusNotFound,
	)

	ErrInvalidProjectID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid project ID",
		http.StatusBadRequest,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid user ID",
		http.StatusBadRequest,
	)

	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"Status must be one of ACTIVE, COMPLETED, ON_HOLD",
		http.StatusBadRequest,
	)

	ErrLeadNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"Project lead does not exist",
		http.StatusBadRequest,
	)

	ErrLeadNotEligible = apperror.New(
		apperror.CodeInvalidInput,
		"Project lead must be a manager or HR",
		http.StatusBadRequest,
	)

	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrMemberAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"User is already a member of this project",
		http.StatusConflict,
	)

	ErrMemberNotFound = apperror.New(
		apperror.CodeNotFound,
		"User is not a member of this project",
		http.StatusNotFound,
	)
)
