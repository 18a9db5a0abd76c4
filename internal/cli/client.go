package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
	"spindoctor/internal/ghoststore"
	"spindoctor/internal/session"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) NewSession(ctx context.Context, player string) (session.View, error) {
	var out session.View
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions", map[string]any{"player": player}, &out)
	return out, err
}

func (c *Client) Session(ctx context.Context, id string) (session.View, error) {
	var out session.View
	err := c.jsonRequest(ctx, http.MethodGet, sessionPath(id, ""), nil, &out)
	return out, err
}

func (c *Client) Act(ctx context.Context, id, action string) (session.ActResult, error) {
	var out session.ActResult
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(id, "/actions/"+url.PathEscape(action)), nil, &out)
	return out, err
}

func (c *Client) DrawEvent(ctx context.Context, id string) (session.EventResult, error) {
	var out session.EventResult
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(id, "/events"), nil, &out)
	return out, err
}

func (c *Client) Choose(ctx context.Context, id string, option int) (session.ChoiceResult, error) {
	var out session.ChoiceResult
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(id, "/choices"), map[string]any{"option": option}, &out)
	return out, err
}

func (c *Client) Mood(ctx context.Context, id string) ([]game.FactionMood, error) {
	var out struct {
		Factions []game.FactionMood `json:"factions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, sessionPath(id, "/mood"), nil, &out)
	return out.Factions, err
}

func (c *Client) Run(ctx context.Context, id string) (ghost.Run, error) {
	var out ghost.Run
	err := c.jsonRequest(ctx, http.MethodGet, sessionPath(id, "/run"), nil, &out)
	return out, err
}

func (c *Client) Publish(ctx context.Context, id string) (ghost.Run, error) {
	var out ghost.Run
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(id, "/publish"), nil, &out)
	return out, err
}

func (c *Client) Battle(ctx context.Context, id, ghostID string) (ghost.BattleComparison, error) {
	var out ghost.BattleComparison
	err := c.jsonRequest(ctx, http.MethodPost, sessionPath(id, "/battles/"+url.PathEscape(ghostID)), nil, &out)
	return out, err
}

func (c *Client) Ghosts(ctx context.Context, limit int) ([]ghoststore.Summary, error) {
	path := "/v1/ghosts"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Ghosts []ghoststore.Summary `json:"ghosts"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Ghosts, err
}

func (c *Client) Ghost(ctx context.Context, id string) (ghost.Run, error) {
	var out ghost.Run
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/ghosts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Actions(ctx context.Context) ([]ActionInfo, error) {
	var out struct {
		Actions []ActionInfo `json:"actions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/actions", nil, &out)
	return out.Actions, err
}

func (c *Client) Advisors(ctx context.Context) ([]game.Advisor, error) {
	var out struct {
		Advisors []game.Advisor `json:"advisors"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/advisors", nil, &out)
	return out.Advisors, err
}

func (c *Client) Tweets(ctx context.Context, action string) ([]game.Tweet, error) {
	var out struct {
		Tweets []game.Tweet `json:"tweets"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/tweets", map[string]any{"action": action}, &out)
	return out.Tweets, err
}

func (c *Client) Season(ctx context.Context) (game.SeasonalEvent, error) {
	var out game.SeasonalEvent
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/season", nil, &out)
	return out, err
}

// ActionInfo is the catalog entry as listed by the server.
type ActionInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cost        game.Cost `json:"cost"`
}

func sessionPath(id, suffix string) string {
	return "/v1/sessions/" + url.PathEscape(id) + suffix
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
