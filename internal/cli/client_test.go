package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"spindoctor/internal/api"
	"spindoctor/internal/config"
	"spindoctor/internal/session"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := session.NewService(nil, logger, session.Options{MaxTurns: 8, Seed: 3})
	srv := httptest.NewServer(api.New(config.APIConfig{}, logger, svc).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClientPlaysSession(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	view, err := c.NewSession(ctx, "pepe")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	res, err := c.Act(ctx, view.ID, "fundraise")
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if res.Session.State.Turn != 1 {
		t.Fatalf("got turn %d want 1", res.Session.State.Turn)
	}
	run, err := c.Run(ctx, view.ID)
	if err != nil || len(run.Snapshots) != 2 {
		t.Fatalf("got %d snapshots, %v", len(run.Snapshots), err)
	}
	actions, err := c.Actions(ctx)
	if err != nil || len(actions) != 11 {
		t.Fatalf("got %d actions, %v", len(actions), err)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Act(context.Background(), "missing", "fundraise")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T %v want *APIError", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message == "" {
		t.Fatalf("got %+v", apiErr)
	}
}

func TestSessionFile(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	if _, err := LoadSession(); err == nil {
		t.Fatalf("expected error with no session saved")
	}
	if err := SaveSession(Session{SessionID: "abc", Player: "pepe"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err := LoadSession()
	if err != nil || s.SessionID != "abc" {
		t.Fatalf("got %+v, %v", s, err)
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := LoadSession(); err == nil {
		t.Fatalf("expected error after clear")
	}
}
