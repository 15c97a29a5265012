package mcp

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"davmcp/internal/domain"
)

func TestTranslateTypedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not configured", domain.ErrNotConfigured, CodeRemoteNotConfigured},
		{"wrapped not configured", fmt.Errorf("list calendars: %w", domain.ErrNotConfigured), CodeRemoteNotConfigured},
		{"auth failed", domain.ErrAuthFailed, CodeAuthFailed},
		{"wrapped auth failed", fmt.Errorf("find principal: %w", domain.ErrAuthFailed), CodeAuthFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := Translate(tc.err)
			if code != tc.wantCode {
				t.Errorf("code = %d, want %d", code, tc.wantCode)
			}
			if msg == "" {
				t.Error("message is empty")
			}
			if strings.Contains(msg, "%!") {
				t.Errorf("message looks malformed: %q", msg)
			}
		})
	}
}

func TestTranslateTextFallback(t *testing.T) {
	code, msg := Translate(errors.New("caldav: multistatus parse failed"))
	if code != CodeRemoteNotConfigured {
		t.Errorf("caldav text error: code = %d, want %d", code, CodeRemoteNotConfigured)
	}
	if !strings.Contains(msg, "remote.serverUrl") {
		t.Errorf("message should point at the config file, got %q", msg)
	}

	code, _ = Translate(errors.New("HTTP 401 Unauthorized"))
	if code != CodeAuthFailed {
		t.Errorf("401 text error: code = %d, want %d", code, CodeAuthFailed)
	}
}

func TestTranslateMessagesCarryNoCredentialAdvice(t *testing.T) {
	// Guidance must work for both password and token credentials.
	_, msg := Translate(domain.ErrNotConfigured)
	if !strings.Contains(msg, "password") || !strings.Contains(msg, "token") {
		t.Errorf("guidance should mention both credential modes, got %q", msg)
	}
}

func TestTranslateUnknown(t *testing.T) {
	code, msg := Translate(errors.New("disk full"))
	if code != CodeInternal {
		t.Errorf("code = %d, want %d", code, CodeInternal)
	}
	if msg != "disk full" {
		t.Errorf("message = %q, want original error text", msg)
	}

	code, msg = Translate(nil)
	if code != CodeInternal || msg != "unknown error" {
		t.Errorf("Translate(nil) = (%d, %q)", code, msg)
	}
}
