// Package dav wraps authenticated CalDAV/CardDAV sessions behind a small
// facade. All methods return typed errors from internal/domain so callers
// never have to inspect message text.
package dav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/emersion/go-webdav/carddav"
	"golang.org/x/oauth2"

	"davmcp/internal/config"
	"davmcp/internal/domain"
)

// Client is the remote client facade. It is created uninitialized; domain
// operations fail with domain.ErrNotConfigured until Initialize succeeds.
// Initialization happens once at startup, before the request loop runs, so
// no locking guards the session fields.
type Client struct {
	cfg    config.RemoteConfig
	logger *slog.Logger

	mode        string
	initialized bool

	cal      *caldav.Client
	card     *carddav.Client
	calHome  string
	cardHome string
}

func NewClient(cfg config.RemoteConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		mode:   cfg.CredentialMode(),
	}
}

// Initialized reports whether the remote session is usable.
func (c *Client) Initialized() bool { return c.initialized }

// CredentialMode returns "password", "token", or "none".
func (c *Client) CredentialMode() string { return c.mode }

// Initialize builds the authenticated HTTP client, resolves the current
// user principal and the calendar/address-book home sets.
func (c *Client) Initialize(ctx context.Context) error {
	if c.mode == domain.ModeNone {
		return fmt.Errorf("no server URL or credentials supplied: %w", domain.ErrNotConfigured)
	}

	hc, err := c.httpClient(ctx)
	if err != nil {
		return err
	}

	cal, err := caldav.NewClient(hc, c.cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("caldav client: %w", err)
	}
	card, err := carddav.NewClient(hc, c.cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("carddav client: %w", err)
	}

	principal, err := cal.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return classify("find current user principal", err)
	}

	calHome, err := cal.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return classify("find calendar home set", err)
	}

	// Contacts are optional: some servers only speak CalDAV.
	cardHome, err := card.FindAddressBookHomeSet(ctx, principal)
	if err != nil {
		c.logger.Warn("address book home set unavailable, contact tools disabled", "err", err)
		cardHome = ""
	}

	c.cal = cal
	c.card = card
	c.calHome = calHome
	c.cardHome = cardHome
	c.initialized = true

	c.logger.Info("remote session initialized",
		"server", c.cfg.ServerURL,
		"mode", c.mode,
		"calendarHome", calHome,
		"addressBookHome", cardHome)
	return nil
}

func (c *Client) httpClient(ctx context.Context) (webdav.HTTPClient, error) {
	base := &http.Client{Timeout: 30 * time.Second}

	switch c.mode {
	case domain.ModePassword:
		return webdav.HTTPClientWithBasicAuth(base, c.cfg.Username, c.cfg.Password), nil
	case domain.ModeToken:
		oc := oauth2.Config{
			ClientID:     c.cfg.ClientID,
			ClientSecret: c.cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: c.cfg.TokenURL},
		}
		ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: c.cfg.RefreshToken})
		return oauth2.NewClient(ctx, ts), nil
	default:
		return nil, fmt.Errorf("unsupported credential mode %q: %w", c.mode, domain.ErrNotConfigured)
	}
}

// ensure raises on use-before-initialize.
func (c *Client) ensure() error {
	if !c.initialized {
		return fmt.Errorf("remote session not initialized: %w", domain.ErrNotConfigured)
	}
	return nil
}

// Ping probes the remote server by re-fetching the current user principal.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ensure(); err != nil {
		return err
	}
	_, err := c.cal.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return classify("ping", err)
	}
	return nil
}

// Keepalive periodically probes the remote session until ctx is cancelled.
func (c *Client) Keepalive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("keepalive stopped")
			return
		case <-ticker.C:
			if err := c.Ping(ctx); err != nil {
				c.logger.Warn("keepalive probe failed", "err", err)
			} else {
				c.logger.Debug("keepalive probe ok")
			}
		}
	}
}

// classify wraps errors from the webdav library with the matching typed
// variant. The library reports HTTP failures as text, so status detection
// falls back to substring matching here, at the source, keeping the rest of
// the process free of it.
func classify(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(strings.ToLower(msg), "unauthorized"):
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrAuthFailed)
	case strings.Contains(msg, "404"):
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrObjectNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
