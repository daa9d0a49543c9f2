package service

import (
	"encoding/json"
	"errors"
	"fmt"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tidwall/gjson"
)

const (
	DefaultTitle   = "Untitled"
	MaxTitleLength = 300

	MaxCitationsPerDocument = 200
	MaxIDsPerLookup         = 100

	DefaultCitationLimit = 5
	MaxCitationLimit     = 100

	DefaultCheckpointLimit = 10
	MaxCheckpointLimit     = 20
)

var deltaRule = validation.By(func(value interface{}) error {
	raw, _ := value.(json.RawMessage)
	if len(raw) == 0 {
		return nil
	}
	if !gjson.ValidBytes(raw) || !gjson.GetBytes(raw, "ops").IsArray() {
		return errors.New("must be an object with an ops array")
	}
	return nil
})

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

func validateCreateDocument(req *v1.CreateDocumentRequest) error {
	return invalid(validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(0, MaxTitleLength)),
	))
}

func validateUpdateDocument(req *v1.UpdateDocumentRequest) error {
	return invalid(validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(0, MaxTitleLength)),
		validation.Field(&req.ContentDelta, deltaRule),
	))
}

func validateCreateCheckpoint(req *v1.CreateCheckpointRequest) error {
	return invalid(validation.ValidateStruct(req,
		validation.Field(&req.ContentDelta, validation.Required, deltaRule),
	))
}

func validateRestore(req *v1.RestoreRequest) error {
	return invalid(validation.ValidateStruct(req,
		validation.Field(&req.CheckpointID, validation.Required),
	))
}

func validateCreateCitation(req *v1.CreateCitationRequest) error {
	return invalid(validation.ValidateStruct(req,
		validation.Field(&req.URL, validation.Required, validation.Length(1, 2048)),
		validation.Field(&req.Format, validation.Length(0, 32)),
	))
}

// clamp returns def for non-positive limits and max for larger ones.
func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
