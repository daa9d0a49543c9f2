package session

import "errors"

var (
	// ErrNoDocument is returned by edits when no document is open.
	ErrNoDocument = errors.New("no document is open")
	// ErrEditorAccessDenied is returned when the access gate refuses the user.
	ErrEditorAccessDenied = errors.New("editor access denied")
	// ErrRestoreNotConfirmed is returned when the user declined a restore.
	ErrRestoreNotConfirmed = errors.New("restore not confirmed")
	// ErrStaleResponse is returned when the open document changed while a
	// request was in flight.
	ErrStaleResponse = errors.New("stale response")
	// ErrSessionClosed is returned by every call after Close.
	ErrSessionClosed = errors.New("session is closed")
	// ErrInvalidCitationID is returned for ids that cannot form a token.
	ErrInvalidCitationID = errors.New("invalid citation id")
	// ErrCitationNotFound is returned when the citation store does not know
	// an id.
	ErrCitationNotFound = errors.New("citation not found")
)
