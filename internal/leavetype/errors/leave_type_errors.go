package leavetypeerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave type not found",
		http.StatusNotFound,
	)

	ErrInvalidLeaveTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid leave type ID",
		http.StatusBadRequest,
	)

	ErrLeaveTypeNameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Leave type name is required",
		http.StatusBadRequest,
	)

	ErrInvalidYearlyLimit = apperror.New(
		apperror.CodeInvalidInput,
		"Yearly limit must be between 0 and 366",
		http.StatusBadRequest,
	)

	ErrLeaveTypeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Leave type with the same name already exists",
		http.StatusConflict,
	)
)
