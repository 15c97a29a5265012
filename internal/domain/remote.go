package domain

import "errors"

// Credential modes for the remote session.
const (
	ModePassword = "password"
	ModeToken    = "token"
	ModeNone     = "none"
)

// RemoteSession is the slice of the DAV client the dispatcher needs for its
// precondition check.
type RemoteSession interface {
	Initialized() bool
	CredentialMode() string
}

// Typed failure variants returned by the DAV client. The error translator
// matches on these instead of inspecting message text.
var (
	// ErrNotConfigured means the remote session was never initialized:
	// no server URL or no credentials were supplied at startup.
	ErrNotConfigured = errors.New("remote server not configured")

	// ErrAuthFailed means the remote server rejected the credentials.
	ErrAuthFailed = errors.New("remote authentication failed")

	// ErrObjectNotFound means a calendar object, contact, or task with the
	// requested UID does not exist in the given collection.
	ErrObjectNotFound = errors.New("object not found")
)
