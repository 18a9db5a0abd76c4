// Package session owns live games. Each session holds its authoritative
// GameState and the snapshots recorded at every turn boundary, and admits one
// state-changing call at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
	"spindoctor/internal/ghoststore"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrStoreUnavailable = errors.New("ghost store unavailable")
	ErrRunNotFound      = ghoststore.ErrNotFound
	ErrRunInProgress    = fmt.Errorf("%w: campaign still in progress", game.ErrInvalidState)
	ErrAlreadyPublished = ghoststore.ErrRunExists
)

const maxPlayerName = 32

type Options struct {
	MaxTurns int
	Seed     int64
	Now      func() time.Time
}

type Service struct {
	log      *slog.Logger
	store    ghoststore.Store
	rng      game.Source
	maxTurns int
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	mu           sync.Mutex
	id           string
	player       string
	createdAt    time.Time
	state        *game.GameState
	snapshots    []game.Snapshot
	prevFactions map[game.Faction]float64
	publishedRun string
}

// View is a detached copy of a session; mutating it never touches the service.
type View struct {
	ID           string          `json:"id"`
	Player       string          `json:"player"`
	CreatedAt    time.Time       `json:"createdAt"`
	State        *game.GameState `json:"state"`
	Turns        int             `json:"turns"`
	PublishedRun string          `json:"publishedRun,omitempty"`
}

type ActResult struct {
	Result  game.TurnResult `json:"result"`
	Session View            `json:"session"`
}

type EventResult struct {
	Event           game.Event `json:"event"`
	NewAchievements []string   `json:"newAchievements,omitempty"`
	Session         View       `json:"session"`
}

type ChoiceResult struct {
	Outcome         game.Outcome `json:"outcome"`
	NewAchievements []string     `json:"newAchievements,omitempty"`
	Session         View         `json:"session"`
}

// NewService builds the session service. store may be nil, in which case
// publishing and battles fail with ErrStoreUnavailable.
func NewService(store ghoststore.Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = game.DefaultMaxTurns
	}
	return &Service{
		log:      logger,
		store:    store,
		rng:      game.NewLockedSource(game.NewSource(opts.Seed)),
		maxTurns: maxTurns,
		now:      now,
		sessions: map[string]*entry{},
	}
}

// Source exposes the shared random source for stateless endpoints.
func (s *Service) Source() game.Source {
	return s.rng
}

func (s *Service) MaxTurns() int {
	return s.maxTurns
}

func (s *Service) NewSession(ctx context.Context, player string) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	player = strings.TrimSpace(player)
	if player == "" {
		player = "anonymous"
	}
	if len(player) > maxPlayerName {
		return View{}, fmt.Errorf("%w: player name longer than %d characters", game.ErrInvalidState, maxPlayerName)
	}
	state, err := game.NewGameState(s.rng, s.maxTurns)
	if err != nil {
		return View{}, err
	}
	e := &entry{
		id:           uuid.NewString(),
		player:       player,
		createdAt:    s.now().UTC(),
		state:        state,
		snapshots:    []game.Snapshot{state.Snapshot()},
		prevFactions: copyFactions(state.FactionSupport),
	}

	s.mu.Lock()
	s.sessions[e.id] = e
	s.mu.Unlock()

	s.log.Info("session created", "session_id", e.id, "player", player)
	return e.view(), nil
}

func (s *Service) State(id string) (View, error) {
	e, err := s.get(id)
	if err != nil {
		return View{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view(), nil
}

// Act runs one action against the session. On error the session is unchanged.
func (s *Service) Act(ctx context.Context, id, actionID string) (ActResult, error) {
	if err := ctx.Err(); err != nil {
		return ActResult{}, err
	}
	e, err := s.get(id)
	if err != nil {
		return ActResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	prev := copyFactions(work.FactionSupport)
	res, err := game.Act(work, actionID, s.rng)
	if err != nil {
		s.log.Debug("action rejected", "session_id", id, "action", actionID, "err", err)
		return ActResult{}, err
	}
	e.state = work
	e.prevFactions = prev
	e.record()

	s.log.Info("action applied",
		"session_id", id,
		"action", res.ActionID,
		"turn", work.Turn,
		"critical", res.Critical,
		"support", res.Snapshot.Support,
		"risk", work.Risk,
	)
	if work.Terminal() {
		s.log.Info("campaign finished", "session_id", id, "victory", work.Victory, "turn", work.Turn)
	}
	return ActResult{Result: res, Session: e.view()}, nil
}

// DrawEvent generates a random event for the session and triggers it.
func (s *Service) DrawEvent(ctx context.Context, id string) (EventResult, error) {
	if err := ctx.Err(); err != nil {
		return EventResult{}, err
	}
	e, err := s.get(id)
	if err != nil {
		return EventResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	ev, err := game.GenerateEvent(work, s.rng)
	if err != nil {
		return EventResult{}, err
	}
	unlocked, err := game.TriggerEvent(work, ev)
	if err != nil {
		return EventResult{}, err
	}
	e.state = work
	e.record()
	s.log.Info("event triggered", "session_id", id, "event", ev.ID, "kind", ev.Kind)
	return EventResult{Event: ev, NewAchievements: unlocked, Session: e.view()}, nil
}

// Choose resolves the session's pending interactive event.
func (s *Service) Choose(ctx context.Context, id string, option int) (ChoiceResult, error) {
	if err := ctx.Err(); err != nil {
		return ChoiceResult{}, err
	}
	e, err := s.get(id)
	if err != nil {
		return ChoiceResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.state.Clone()
	var eventID string
	if work.PendingEvent != nil {
		eventID = work.PendingEvent.ID
	}
	outcome, unlocked, err := game.ChooseOption(work, option)
	if err != nil {
		return ChoiceResult{}, err
	}
	e.state = work
	e.record()
	s.log.Info("event resolved", "session_id", id, "event", eventID, "option", option)
	return ChoiceResult{Outcome: outcome, NewAchievements: unlocked, Session: e.view()}, nil
}

// Mood reports faction moods, with trends measured against the state before
// the most recent action.
func (s *Service) Mood(id string) ([]game.FactionMood, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return game.FactionMoods(e.state.FactionSupport, e.prevFactions), nil
}

// Run returns the session's recorded snapshots as an unpublished run.
func (s *Service) Run(id string) (ghost.Run, error) {
	e, err := s.get(id)
	if err != nil {
		return ghost.Run{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run(e.id, time.Time{}), nil
}

// Publish stores a finished session as a ghost run other players can battle.
func (s *Service) Publish(ctx context.Context, id string) (ghost.Run, error) {
	if s.store == nil {
		return ghost.Run{}, ErrStoreUnavailable
	}
	e, err := s.get(id)
	if err != nil {
		return ghost.Run{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Terminal() {
		return ghost.Run{}, ErrRunInProgress
	}
	if e.publishedRun != "" {
		return ghost.Run{}, fmt.Errorf("%w: %s", ErrAlreadyPublished, e.publishedRun)
	}
	run := e.run(uuid.NewString(), s.now().UTC())
	if err := s.store.SaveRun(ctx, run); err != nil {
		s.log.Error("publish ghost run", "session_id", id, "run_id", run.ID, "err", err)
		return ghost.Run{}, fmt.Errorf("publish run: %w", err)
	}
	e.publishedRun = run.ID
	s.log.Info("ghost run published", "session_id", id, "run_id", run.ID, "turns", len(run.Snapshots))
	return run, nil
}

// Battle compares the session's run so far against a stored ghost.
func (s *Service) Battle(ctx context.Context, id, ghostID string) (ghost.BattleComparison, error) {
	if s.store == nil {
		return ghost.BattleComparison{}, ErrStoreUnavailable
	}
	player, err := s.Run(id)
	if err != nil {
		return ghost.BattleComparison{}, err
	}
	opponent, err := s.store.LoadRun(ctx, ghostID)
	if err != nil {
		return ghost.BattleComparison{}, err
	}
	cmp, err := ghost.CompareRuns(player, opponent)
	if err != nil {
		return ghost.BattleComparison{}, err
	}
	s.log.Info("ghost battle",
		"session_id", id,
		"run_id", ghostID,
		"verdict", cmp.Verdict,
		"reason", cmp.Reason,
		"score", cmp.Score,
	)
	return cmp, nil
}

func (s *Service) ListGhosts(ctx context.Context, limit int) ([]ghoststore.Summary, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	return s.store.ListRuns(ctx, limit)
}

func (s *Service) Ghost(ctx context.Context, id string) (ghost.Run, error) {
	if s.store == nil {
		return ghost.Run{}, ErrStoreUnavailable
	}
	return s.store.LoadRun(ctx, id)
}

// Sessions lists live session views ordered by creation time.
func (s *Service) Sessions() []View {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]View, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.view())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Service) get(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// record appends the current turn-boundary snapshot. Events and choices do not
// advance the turn, so they replace the snapshot for the current turn.
func (e *entry) record() {
	snap := e.state.Snapshot()
	if n := len(e.snapshots); n > 0 && e.snapshots[n-1].Turn == snap.Turn {
		e.snapshots[n-1] = snap
		return
	}
	e.snapshots = append(e.snapshots, snap)
}

func (e *entry) view() View {
	return View{
		ID:           e.id,
		Player:       e.player,
		CreatedAt:    e.createdAt,
		State:        e.state.Clone(),
		Turns:        len(e.snapshots),
		PublishedRun: e.publishedRun,
	}
}

func (e *entry) run(id string, finishedAt time.Time) ghost.Run {
	return ghost.Run{
		ID:         id,
		Player:     e.player,
		Snapshots:  append([]game.Snapshot(nil), e.snapshots...),
		FinishedAt: finishedAt,
	}
}

func copyFactions(in map[game.Faction]float64) map[game.Faction]float64 {
	if in == nil {
		return nil
	}
	out := make(map[game.Faction]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
