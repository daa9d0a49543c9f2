package service

import "errors"

var (
	// ErrDocumentNotFound is returned when a document does not exist or
	// belongs to another user.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCheckpointNotFound is returned when a checkpoint does not exist for the document.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrCheckpointsNotConfigured is returned when the backend keeps no checkpoints.
	ErrCheckpointsNotConfigured = errors.New("checkpoints are not configured")
	// ErrTooManyCitations is returned when a document references more than
	// MaxCitationsPerDocument citations.
	ErrTooManyCitations = errors.New("too many citations attached")
	// ErrInvalidCitationReferences is returned when a document references
	// citations the owner does not have.
	ErrInvalidCitationReferences = errors.New("invalid citation references")
	// ErrTooManyIDs is returned when a lookup asks for more than MaxIDsPerLookup ids.
	ErrTooManyIDs = errors.New("too many ids requested")
	// ErrInvalidRequest wraps payload validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnsupportedExportFormat is returned for formats other than txt and html.
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
	// ErrContentCorrupted is returned when stored content cannot be decoded.
	ErrContentCorrupted = errors.New("document content is corrupted")
)
