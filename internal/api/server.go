package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spindoctor/internal/config"
	"spindoctor/internal/game"
	"spindoctor/internal/ghost"
	"spindoctor/internal/ghoststore"
	"spindoctor/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	sessions *session.Service
	now      func() time.Time
	mux      *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, sessions *session.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		sessions: sessions,
		now:      time.Now,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/state/initial", s.handleInitialState)
		r.Get("/advisors", s.handleAdvisors)
		r.Get("/actions", s.handleActions)
		r.Get("/achievements", s.handleAchievements)
		r.Post("/events", s.handleEvent)
		r.Post("/tweets", s.handleTweets)
		r.Post("/resolve", s.handleResolve)
		r.Get("/season", s.handleSeason)
		r.Post("/community-goal", s.handleCommunityGoal)
		r.Post("/battles/compare", s.handleCompare)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.Post("/actions/{action}", s.handleSessionAct)
			r.Post("/events", s.handleSessionEvent)
			r.Post("/choices", s.handleSessionChoice)
			r.Get("/mood", s.handleSessionMood)
			r.Get("/run", s.handleSessionRun)
			r.Post("/publish", s.handleSessionPublish)
			r.Post("/battles/{ghost_id}", s.handleSessionBattle)
		})

		r.Get("/ghosts", s.handleGhostsList)
		r.Get("/ghosts/{id}", s.handleGhostDetail)
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleInitialState(w http.ResponseWriter, _ *http.Request) {
	state, err := game.NewGameState(s.sessions.Source(), s.sessions.MaxTurns())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAdvisors(w http.ResponseWriter, _ *http.Request) {
	advisors, err := game.GenerateAdvisors(s.sessions.Source())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"advisors": advisors})
}

func (s *Server) handleActions(w http.ResponseWriter, _ *http.Request) {
	type actionView struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Cost        game.Cost `json:"cost"`
	}
	actions := game.Actions()
	out := make([]actionView, 0, len(actions))
	for _, a := range actions {
		out = append(out, actionView{ID: a.ID, Name: a.Name, Description: a.Description, Cost: a.Cost})
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": out})
}

func (s *Server) handleAchievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"achievements": game.Achievements()})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		State *game.GameState `json:"state"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := game.GenerateEvent(in.State, s.sessions.Source())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleTweets(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tweets, err := game.GenerateTweets(in.Action, s.sessions.Source())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tweets": tweets})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var in struct {
		State  *game.GameState `json:"state"`
		Action string          `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcome, err := game.Resolve(in.State, strings.TrimSpace(in.Action), s.sessions.Source())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome})
}

func (s *Server) handleSeason(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, game.ActiveSeason(s.now()))
}

func (s *Server) handleCommunityGoal(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Label   string  `json:"label"`
		Target  float64 `json:"target"`
		Current float64 `json:"current"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	progress, err := game.GoalProgress(game.CommunityGoal{Label: in.Label, Target: in.Target}, in.Current)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Player   json.RawMessage `json:"player"`
		Opponent json.RawMessage `json:"opponent"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(in.Player) == 0 || len(in.Opponent) == 0 {
		writeError(w, http.StatusBadRequest, "player and opponent runs are required")
		return
	}
	player, err := ghost.DecodeRun(in.Player)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	opponent, err := ghost.DecodeRun(in.Opponent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cmp, err := ghost.CompareRuns(player, opponent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Player string `json:"player"`
	}
	if err := decodeJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.sessions.NewSession(r.Context(), in.Player)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.State(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSessionAct(w http.ResponseWriter, r *http.Request) {
	res, err := s.sessions.Act(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	res, err := s.sessions.DrawEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSessionChoice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Option *int `json:"option"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Option == nil {
		writeError(w, http.StatusBadRequest, "option is required")
		return
	}
	res, err := s.sessions.Choose(r.Context(), chi.URLParam(r, "id"), *in.Option)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSessionMood(w http.ResponseWriter, r *http.Request) {
	moods, err := s.sessions.Mood(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"factions": moods})
}

func (s *Server) handleSessionRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.sessions.Run(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleSessionPublish(w http.ResponseWriter, r *http.Request) {
	run, err := s.sessions.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleSessionBattle(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.sessions.Battle(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "ghost_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleGhostsList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	ghosts, err := s.sessions.ListGhosts(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ghosts": ghosts})
}

func (s *Server) handleGhostDetail(w http.ResponseWriter, r *http.Request) {
	run, err := s.sessions.Ghost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, game.ErrUnknownAction),
		errors.Is(err, ghoststore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrGameFinished),
		errors.Is(err, session.ErrRunInProgress),
		errors.Is(err, game.ErrInsufficientResources),
		errors.Is(err, game.ErrEventPending),
		errors.Is(err, game.ErrNoPendingEvent),
		errors.Is(err, ghoststore.ErrRunExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ghost.ErrMalformedSnapshot), errors.Is(err, ghost.ErrIncomparableRun):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrInvalidState), errors.Is(err, game.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
