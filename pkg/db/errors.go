package db

import (
	"errors"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
)

var (
	// ErrNotFound is returned when an id matches no row.
	ErrNotFound = sheet.ErrRowNotFound
	// ErrInvalidInput wraps every validation failure; nothing is written when it is returned.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is the single login failure, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotConfirmed is returned by destructive operations called without confirmation.
	ErrNotConfirmed = errors.New("operation requires confirmation")
)
