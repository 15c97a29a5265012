package mcp

import (
	"errors"
	"strings"

	"davmcp/internal/domain"
)

// User-facing messages for the re-categorized failure classes. They carry no
// credentials and no stack detail.
const (
	msgNotConfigured = "CalDAV server is not configured. Set remote.serverUrl and credentials " +
		"(username with a password, or a refresh token) in the config file and restart the server."
	msgAuthFailed = "The CalDAV server rejected the credentials. Check remote.username and the " +
		"configured password or token, then restart the server."
)

// Translate maps an error from tool execution onto the protocol taxonomy.
// It prefers the typed variants raised by the DAV facade and falls back to
// message-text patterns only for errors escaping the webdav library
// untyped. Translate never fails; anything unrecognized is INTERNAL with
// the original message preserved.
func Translate(err error) (code int, message string) {
	if err == nil {
		return CodeInternal, "unknown error"
	}

	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return CodeRemoteNotConfigured, msgNotConfigured
	case errors.Is(err, domain.ErrAuthFailed):
		return CodeAuthFailed, msgAuthFailed
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "caldav") || strings.Contains(msg, "carddav") || strings.Contains(msg, "webdav"):
		return CodeRemoteNotConfigured, msgNotConfigured
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return CodeAuthFailed, msgAuthFailed
	}

	return CodeInternal, err.Error()
}
