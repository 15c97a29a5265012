package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode"

	"davmcp/internal/config"
	"davmcp/internal/dav"
	"davmcp/internal/domain"
)

func uninitializedClient() *dav.Client {
	return dav.NewClient(config.RemoteConfig{}, testLogger())
}

func TestCreateEventTool_ValidatesArguments(t *testing.T) {
	tool := NewCreateEventTool(uninitializedClient())
	ctx := context.Background()

	_, err := tool.Execute(ctx, map[string]any{"calendar_path": "/cal/"})
	if err == nil || !strings.Contains(err.Error(), "summary") {
		t.Fatalf("expected missing-summary error, got %v", err)
	}

	_, err = tool.Execute(ctx, map[string]any{
		"calendar_path": "/cal/",
		"summary":       "standup",
		"start":         "2026-08-26T11:00:00Z",
		"end":           "2026-08-26T10:00:00Z",
	})
	if err == nil || !strings.Contains(err.Error(), "end must be after start") {
		t.Fatalf("expected ordering error, got %v", err)
	}

	_, err = tool.Execute(ctx, map[string]any{
		"calendar_path": "/cal/",
		"summary":       "standup",
		"start":         "not-a-time",
		"end":           "2026-08-26T10:00:00Z",
	})
	if err == nil || !strings.Contains(err.Error(), "RFC3339") {
		t.Fatalf("expected timestamp error, got %v", err)
	}
}

func TestRemoteTools_UseBeforeInitializeRaisesNotConfigured(t *testing.T) {
	client := uninitializedClient()
	ctx := context.Background()

	cases := []struct {
		tool domain.Tool
		args map[string]any
	}{
		{NewListCalendarsTool(client), map[string]any{}},
		{NewDeleteEventTool(client), map[string]any{"calendar_path": "/cal/", "uid": "u1"}},
		{NewListTasksTool(client), map[string]any{"calendar_path": "/cal/"}},
		{NewListAddressBooksTool(client), map[string]any{}},
	}
	for _, tc := range cases {
		_, err := tc.tool.Execute(ctx, tc.args)
		if !errors.Is(err, domain.ErrNotConfigured) {
			t.Errorf("%s: expected ErrNotConfigured, got %v", tc.tool.Name(), err)
		}
	}
}

func TestToolGroups_CategoriesAndRemoteFlags(t *testing.T) {
	client := uninitializedClient()

	for _, tl := range CalendarTools(client) {
		if tl.Category() != domain.CategoryCalendar {
			t.Errorf("%s: expected calendar category, got %q", tl.Name(), tl.Category())
		}
	}
	for _, tl := range ContactTools(client) {
		if tl.Category() != domain.CategoryContact {
			t.Errorf("%s: expected contact category, got %q", tl.Name(), tl.Category())
		}
	}
	for _, tl := range TaskTools(client) {
		if tl.Category() != domain.CategoryTask {
			t.Errorf("%s: expected task category, got %q", tl.Name(), tl.Category())
		}
	}

	// Only list operations skip the remote-session precondition.
	all := append(CalendarTools(client), append(ContactTools(client), TaskTools(client)...)...)
	for _, tl := range all {
		isList := strings.HasPrefix(tl.Name(), "list_")
		if isList && tl.RequiresRemote() {
			t.Errorf("%s: list tools must not require a remote session", tl.Name())
		}
		if !isList && !tl.RequiresRemote() {
			t.Errorf("%s: mutating tools must require a remote session", tl.Name())
		}
	}
}

func TestListFormattingIsPlainASCII(t *testing.T) {
	start := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	outputs := map[string]string{
		"calendars": formatCalendars([]dav.CalendarInfo{{
			Path:        "/cal/work/",
			Name:        "Work",
			Description: "team calendar",
			Components:  []string{"VEVENT", "VTODO"},
		}}),
		"events": formatEvents([]dav.Event{{
			UID:      "u1",
			Summary:  "standup",
			Location: "room 4",
			Start:    start,
			End:      start.Add(time.Hour),
		}}),
		"address books": formatAddressBooks([]dav.AddressBookInfo{{
			Path:        "/card/default/",
			Name:        "Default",
			Description: "shared contacts",
		}}),
	}

	for name, out := range outputs {
		for _, r := range out {
			if r > unicode.MaxASCII {
				t.Errorf("%s output contains non-ASCII rune %q:\n%s", name, r, out)
				break
			}
		}
	}

	if !strings.Contains(outputs["calendars"], "(path: /cal/work/, components: VEVENT,VTODO): team calendar") {
		t.Errorf("unexpected calendar line:\n%s", outputs["calendars"])
	}
	if !strings.Contains(outputs["events"], "2026-08-26T10:00:00Z .. 2026-08-26T11:00:00Z @ room 4") {
		t.Errorf("unexpected event line:\n%s", outputs["events"])
	}
	if !strings.Contains(outputs["address books"], "(path: /card/default/): shared contacts") {
		t.Errorf("unexpected address book line:\n%s", outputs["address books"])
	}
}

type stubSession struct {
	initialized bool
	mode        string
}

func (s stubSession) Initialized() bool      { return s.initialized }
func (s stubSession) CredentialMode() string { return s.mode }

func TestServerInfoTool(t *testing.T) {
	info := NewServerInfoTool("1.2.3", stubSession{initialized: true, mode: domain.ModePassword},
		func() map[string]int {
			return map[string]int{domain.CategoryCalendar: 5, domain.CategorySystem: 1}
		})

	if info.RequiresRemote() {
		t.Fatal("server_info must not require a remote session")
	}

	out, err := info.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"v1.2.3", "initialized=true", "mode=password", "calendar=5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
