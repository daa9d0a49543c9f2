// Package document is the public entry point for programs that edit
// documents against a running document server.
package document

import (
	"context"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/client"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/session"
)

// Client talks to the document REST api.
type Client = client.Client

// Session is one editor bound to a Client.
type Session = session.Session

// SessionConfig tunes autosave and checkpoint scheduling of a Session.
type SessionConfig = session.Config

var (
	ErrNetworkFailure           = client.ErrNetworkFailure
	ErrRejectedByServer         = client.ErrRejectedByServer
	ErrCheckpointsNotConfigured = client.ErrCheckpointsNotConfigured
	ErrEditorAccessDenied       = session.ErrEditorAccessDenied
)

// NewClient returns a client for the server at baseURL authenticating with
// token. An empty token sends no Authorization header.
func NewClient(baseURL, token string) *Client {
	return client.NewClient(baseURL, client.WithToken(token))
}

// NewSession checks editor access and returns a session with no document
// open.
func NewSession(ctx context.Context, c *Client, cfg SessionConfig) (*Session, error) {
	return session.New(ctx, c, cfg)
}

// DefaultSessionConfig returns the default autosave and checkpoint settings.
func DefaultSessionConfig() SessionConfig {
	return session.DefaultConfig()
}
