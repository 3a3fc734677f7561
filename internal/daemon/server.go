package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/account"
	"github.com/eliseekajingu/codequest/internal/catalog"
	"github.com/eliseekajingu/codequest/internal/config"
	"github.com/eliseekajingu/codequest/internal/domain"
	"github.com/eliseekajingu/codequest/internal/game"
	"github.com/eliseekajingu/codequest/internal/leaderboard"
	"github.com/eliseekajingu/codequest/internal/llm"
	"github.com/eliseekajingu/codequest/internal/profile"
	"github.com/eliseekajingu/codequest/internal/queue"
	"github.com/eliseekajingu/codequest/internal/sandbox"
	"github.com/eliseekajingu/codequest/internal/session"
	"github.com/eliseekajingu/codequest/internal/storage/postgres"
	"github.com/eliseekajingu/codequest/internal/storage/sqlite"
)

// Server is the codequest daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux
	logger *slog.Logger

	db         *sqlite.DB
	boardStore *sqlite.LeaderboardStore
	pgBoard    *postgres.LeaderboardStore
	dispatcher *domain.EventDispatcher

	// Services
	llmRegistry    *llm.Registry
	generator      *llm.Generator
	catalog        *catalog.Registry
	sandboxService *sandbox.Service
	sessionService *session.Service
	profileService *profile.Service
	accountService *account.Service
	boardService   *leaderboard.Service

	// Remote run queue (optional)
	queueConn      *queue.Connection
	queueProducer  *queue.Producer
	queueConsumer  *queue.Consumer
	resultConsumer *queue.ResultConsumer
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config        *config.LocalConfig
	HomeDir       string // data directory; defaults to the codequest home
	ChallengesDir string // optional extra challenge packs
	QueueURL      string // optional RabbitMQ URL for distributed runs
	QueueWorkers  int    // run workers when the queue is up; 0 means default
	PostgresURL   string // optional shared leaderboard database
	RedisAddr     string // optional leaderboard cache
	RedisPassword string
	SessionTTL    time.Duration // auth token lifetime; 0 means default
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	s := &Server{
		cfg:        cfg.Config,
		router:     http.NewServeMux(),
		logger:     logger,
		dispatcher: domain.NewEventDispatcher(),
	}

	home := cfg.HomeDir
	if home == "" {
		var err error
		home, err = config.EnsureHomeDir()
		if err != nil {
			return nil, fmt.Errorf("ensure home dir: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(config.DatabasePath(home)), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// SQLite backs accounts and the local leaderboard
	db, err := sqlite.Open(config.DatabasePath(home))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	s.db = db

	accountCfg := account.DefaultConfig()
	if cfg.SessionTTL > 0 {
		accountCfg.SessionTTL = cfg.SessionTTL
	}
	s.accountService = account.NewService(sqlite.NewAccountStore(db), accountCfg, logger)

	boardStore := sqlite.NewLeaderboardStore(db)
	s.boardStore = boardStore

	// A shared PostgreSQL store replaces the embedded one for rankings
	// when configured. Completion records stay local either way.
	var rankStore leaderboard.Store = boardStore
	if cfg.PostgresURL != "" {
		pgStore, err := postgres.NewLeaderboardStore(ctx, postgres.Config{DSN: cfg.PostgresURL})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect shared leaderboard: %w", err)
		}
		s.pgBoard = pgStore
		rankStore = pgStore
	}

	var boardCache leaderboard.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := leaderboard.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			logger.Warn("leaderboard cache unavailable", "error", err)
		} else {
			boardCache = redisCache
		}
	}

	s.boardService = leaderboard.NewService(rankStore, boardCache, logger)

	// Profiles live as JSON snapshots on disk
	profileStore, err := profile.NewStore(config.ProfilesDir(home))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create profile store: %w", err)
	}
	s.profileService = profile.NewService(profileStore, logger)

	sessionCfg := session.Config{AutosaveInterval: cfg.Config.Session.AutosaveInterval()}
	s.sessionService = session.NewService(sessionCfg, s.profileService, s.dispatcher, logger)
	s.sessionService.SetStatsRecorder(s.boardService)

	// Challenge completions feed the per-profile completion table
	s.dispatcher.Subscribe(domain.EventTypeChallengeCompleted, func(e domain.Event) {
		ce, ok := e.(domain.ChallengeCompletedEvent)
		if !ok {
			return
		}
		if err := boardStore.RecordChallenge(ce.AggregateID().String(), ce.Challenge); err != nil {
			logger.Warn("failed to record challenge completion", "error", err)
		}
	})

	// Challenge catalog
	registry, err := catalog.NewDefaultRegistry(cfg.ChallengesDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load challenge catalog: %w", err)
	}
	s.catalog = registry

	// Sandbox runner
	var executor sandbox.Executor
	if cfg.Config.Runner.Executor == "docker" {
		dockerExec, err := sandbox.NewDockerExecutor(sandbox.DockerConfig{
			MemoryMB:   cfg.Config.Runner.Docker.MemoryMB,
			CPULimit:   cfg.Config.Runner.Docker.CPULimit,
			NetworkOff: cfg.Config.Runner.Docker.NetworkOff,
		})
		if err != nil {
			logger.Warn("Docker executor not available, using process executor", "error", err)
			executor = sandbox.NewLocalExecutor()
		} else {
			executor = dockerExec
		}
	} else {
		executor = sandbox.NewLocalExecutor()
	}
	sandboxCfg := sandbox.Config{
		Timeout: time.Duration(cfg.Config.Runner.Docker.TimeoutSeconds) * time.Second,
	}
	s.sandboxService = sandbox.NewService(sandboxCfg, executor, logger)

	// LLM providers
	s.llmRegistry = llm.NewRegistry()
	s.setupLLMProviders()
	s.generator = llm.NewGenerator(s.llmRegistry, logger)

	// Distributed runs over RabbitMQ when configured
	if cfg.QueueURL != "" {
		if err := s.setupQueue(ctx, cfg.QueueURL, cfg.QueueWorkers); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup run queue: %w", err)
		}
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupLLMProviders registers configured providers. Challenge generation and
// feedback degrade gracefully when no provider has an API key.
func (s *Server) setupLLMProviders() {
	for name, providerCfg := range s.cfg.LLM.Providers {
		if !providerCfg.Enabled {
			continue
		}
		if name != "openai" {
			continue
		}
		if providerCfg.APIKey == "" {
			s.logger.Debug("openai provider enabled but no API key set")
			continue
		}
		provider := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  providerCfg.APIKey,
			BaseURL: providerCfg.URL,
			Model:   providerCfg.Model,
		})
		s.llmRegistry.Register(name, llm.NewResilientProvider(provider, llm.DefaultResilientConfig()))
		s.logger.Info("registered LLM provider", "name", name, "model", providerCfg.Model)
	}
	if def := s.cfg.LLM.DefaultProvider; def != "" {
		s.llmRegistry.SetDefault(def)
	}
}

// setupQueue connects to RabbitMQ and starts the run worker plus the
// result listener. Playground runs are distributed when the queue is up.
func (s *Server) setupQueue(ctx context.Context, url string, workers int) error {
	conn, err := queue.NewConnection(url)
	if err != nil {
		return err
	}
	s.queueConn = conn
	s.queueProducer = queue.NewProducer(conn)

	handler := func(ctx context.Context, job *queue.RunJob) (*queue.RunResult, error) {
		run, err := s.sandboxService.Execute(ctx, sandbox.ExecuteRequest{
			RunID:    job.ID,
			Language: job.Language,
			Code:     job.Code,
			Tests:    job.Tests,
		})
		if err != nil {
			return nil, err
		}
		return &queue.RunResult{Status: "completed", Run: run}, nil
	}
	consumerCfg := queue.DefaultConsumerConfig()
	if workers > 0 {
		consumerCfg.Workers = workers
	}
	s.queueConsumer = queue.NewConsumer(conn, handler, consumerCfg)
	if err := s.queueConsumer.Start(ctx); err != nil {
		return err
	}

	s.resultConsumer = queue.NewResultConsumer(conn)
	return s.resultConsumer.Start(ctx)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Config
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)

	// Accounts
	s.router.HandleFunc("POST /v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /v1/auth/logout", s.handleAuthLogout)
	s.router.HandleFunc("GET /v1/auth/me", s.handleMe)

	// Profiles
	s.router.HandleFunc("GET /v1/profiles", s.handleListProfiles)
	s.router.HandleFunc("POST /v1/profiles", s.handleCreateProfile)
	s.router.HandleFunc("GET /v1/profiles/{id}", s.handleGetProfile)
	s.router.HandleFunc("DELETE /v1/profiles/{id}", s.handleDeleteProfile)
	s.router.HandleFunc("GET /v1/profiles/{id}/challenges", s.handleProfileChallenges)

	// Play session
	s.router.HandleFunc("POST /v1/session/start", s.handleSessionStart)
	s.router.HandleFunc("POST /v1/session/logout", s.handleSessionLogout)
	s.router.HandleFunc("GET /v1/session", s.handleSessionState)
	s.router.HandleFunc("POST /v1/session/save", s.handleSessionSave)
	s.router.HandleFunc("GET /v1/session/notifications", s.handleNotifications)
	s.router.HandleFunc("GET /v1/session/gates", s.handleQuestGates)
	s.router.HandleFunc("POST /v1/session/scene", s.handleGoToScene)
	s.router.HandleFunc("POST /v1/session/skills", s.handleIncrementSkill)
	s.router.HandleFunc("POST /v1/session/inventory", s.handleAddItem)
	s.router.HandleFunc("POST /v1/session/theme", s.handleSetTheme)

	// Challenges
	s.router.HandleFunc("GET /v1/challenges", s.handleListChallenges)
	s.router.HandleFunc("GET /v1/challenges/categories", s.handleChallengeCategories)
	s.router.HandleFunc("GET /v1/challenges/{id}", s.handleGetChallenge)
	s.router.HandleFunc("POST /v1/challenges/generate", s.handleGenerateChallenge)

	// Playground
	s.router.HandleFunc("POST /v1/playground/run", s.handlePlaygroundRun)
	s.router.HandleFunc("POST /v1/playground/feedback", s.handleCodeFeedback)

	// Leaderboard
	s.router.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting codequest daemon",
		"addr", s.server.Addr,
		"challenges", s.catalog.Len(),
		"llm_providers", s.llmRegistry.List(),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server, saving the active session first
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon")

	if err := s.sessionService.Shutdown(ctx); err != nil && !errors.Is(err, domain.ErrNoActiveProfile) {
		s.logger.Warn("failed to save session on shutdown", "error", err)
	}

	if s.queueConsumer != nil {
		s.queueConsumer.Stop()
	}
	if s.resultConsumer != nil {
		s.resultConsumer.Stop()
	}
	if s.queueConn != nil {
		s.queueConn.Close()
	}

	err := s.server.Shutdown(ctx)

	if s.pgBoard != nil {
		s.pgBoard.Close()
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.logger.Warn("failed to close database", "error", cerr)
		}
	}
	return err
}

// Health & status handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_, active := s.sessionService.ActiveProfile()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "running",
		"version":        "0.1.0",
		"challenges":     s.catalog.Len(),
		"llm_providers":  s.llmRegistry.List(),
		"runner":         s.cfg.Runner.Executor,
		"queue":          s.queueConn != nil && s.queueConn.IsConnected(),
		"session_active": active,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// Secrets never leave the daemon
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"daemon":           s.cfg.Daemon,
		"session":          s.cfg.Session,
		"runner":           s.cfg.Runner,
		"default_provider": s.cfg.LLM.DefaultProvider,
	})
}

// Account handlers

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	user, err := s.accountService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			s.jsonError(w, http.StatusConflict, "user already exists", nil)
		case errors.Is(err, domain.ErrInvalidEmail),
			errors.Is(err, domain.ErrPasswordTooShort),
			errors.Is(err, domain.ErrTermsNotAgreed),
			errors.Is(err, domain.ErrInvalidInput):
			s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			s.jsonError(w, http.StatusInternalServerError, "registration failed", err)
		}
		return
	}

	s.jsonResponse(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.accountService.SignIn(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPassword) {
			s.jsonError(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "sign in failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"user":       result.User,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	})
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.jsonError(w, http.StatusUnauthorized, "missing token", nil)
		return
	}
	if err := s.accountService.SignOut(r.Context(), token); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "sign out failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"signed_out": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.jsonError(w, http.StatusUnauthorized, "missing token", nil)
		return
	}

	user, err := s.accountService.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrAuthSessionNotFound) || errors.Is(err, domain.ErrAuthSessionExpired) {
			s.jsonError(w, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "authentication failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, user)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// Profile handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profileService.List(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list profiles", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := s.profileService.Create(r.Context(), req.PlayerName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			s.jsonError(w, http.StatusBadRequest, "player name is required", nil)
		case errors.Is(err, domain.ErrDuplicateProfileName):
			s.jsonError(w, http.StatusConflict, "profile name already in use", nil)
		default:
			s.jsonError(w, http.StatusInternalServerError, "failed to create profile", err)
		}
		return
	}

	s.jsonResponse(w, http.StatusCreated, snap)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := s.profileService.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			s.jsonError(w, http.StatusNotFound, "profile not found", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Drop the leaderboard row too; a deleted profile should not linger
	if err := s.boardService.Remove(r.Context(), id); err != nil {
		s.logger.Warn("failed to remove leaderboard entry", "profile_id", id, "error", err)
	}

	if err := s.profileService.Delete(r.Context(), id); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to delete profile", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleProfileChallenges lists a profile's completion records in the
// order they were earned
func (s *Server) handleProfileChallenges(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ids, err := s.boardStore.CompletedChallenges(id)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load completions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"challenges": ids})
}

// Session handlers

// stateView is the wire form of the play state
type stateView struct {
	ProfileID           string         `json:"profileId"`
	PlayerName          string         `json:"playerName"`
	Experience          int            `json:"experience"`
	Level               int            `json:"level"`
	SkillPoints         int            `json:"skillPoints"`
	Skills              map[string]int `json:"skills"`
	Inventory           []string       `json:"inventory"`
	CompletedQuests     []string       `json:"completedQuests"`
	CompletedChallenges []string       `json:"completedChallenges"`
	CurrentScene        string         `json:"currentScene"`
	Theme               string         `json:"theme"`
	ProgressDone        int            `json:"progressDone"`
	ProgressTotal       int            `json:"progressTotal"`
}

func viewOf(st game.State) stateView {
	skills := make(map[string]int, len(st.Skills))
	for k, v := range st.Skills {
		skills[string(k)] = v
	}
	quests := make([]string, 0, len(st.CompletedQuests))
	for _, q := range st.CompletedQuests {
		quests = append(quests, string(q))
	}
	done, total := st.Progress()
	return stateView{
		ProfileID:           st.ProfileID.String(),
		PlayerName:          st.PlayerName,
		Experience:          st.Experience,
		Level:               st.Level,
		SkillPoints:         st.SkillPoints,
		Skills:              skills,
		Inventory:           append([]string{}, st.Inventory...),
		CompletedQuests:     quests,
		CompletedChallenges: append([]string{}, st.CompletedChallenges...),
		CurrentScene:        string(st.CurrentScene),
		Theme:               string(st.Theme),
		ProgressDone:        done,
		ProgressTotal:       total,
	}
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"profileId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ProfileID == "" {
		s.jsonError(w, http.StatusBadRequest, "profileId is required", nil)
		return
	}

	st, err := s.sessionService.Start(r.Context(), req.ProfileID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			s.jsonError(w, http.StatusNotFound, "profile not found", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to start session", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleSessionLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Logout(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNoActiveProfile) {
			s.jsonError(w, http.StatusConflict, "no active session", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "logout failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"logged_out": true})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessionService.State(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveProfile) {
			s.jsonError(w, http.StatusConflict, "no active session", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to get state", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleSessionSave(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Save(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNoActiveProfile) {
			s.jsonError(w, http.StatusConflict, "no active session", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "save failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"saved": true})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": s.sessionService.DrainNotifications(),
	})
}

// questGateView reports one quest's unlock and completion state
type questGateView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Skill     string `json:"skill"`
	Scene     string `json:"scene"`
	Unlocked  bool   `json:"unlocked"`
	Completed bool   `json:"completed"`
}

func (s *Server) handleQuestGates(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessionService.State(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveProfile) {
			s.jsonError(w, http.StatusConflict, "no active session", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "failed to get state", err)
		return
	}

	completed := make(map[domain.QuestID]bool, len(st.CompletedQuests))
	for _, q := range st.CompletedQuests {
		completed[q] = true
	}

	gates := make([]questGateView, 0, len(domain.AllQuests))
	for i := range domain.AllQuests {
		q := &domain.AllQuests[i]
		gates = append(gates, questGateView{
			ID:        string(q.ID),
			Name:      q.Name,
			Skill:     string(q.Skill),
			Scene:     string(q.Scene),
			Unlocked:  q.Unlocked(st.Skills),
			Completed: completed[q.ID],
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"quests": gates})
}

// dispatch runs a game action through the session and writes the new state
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, action game.Action) {
	st, effects, err := s.sessionService.Dispatch(r.Context(), action)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveProfile) {
			s.jsonError(w, http.StatusConflict, "no active session", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "action failed", err)
		return
	}

	messages := make([]string, 0)
	for _, e := range effects {
		if n, ok := e.(game.NotifyEffect); ok {
			messages = append(messages, n.Message)
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"state":         viewOf(st),
		"notifications": messages,
	})
}

func (s *Server) handleGoToScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scene string `json:"scene"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.dispatch(w, r, game.GoToScene{Scene: domain.SceneID(req.Scene)})
}

func (s *Server) handleIncrementSkill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Skill string `json:"skill"`
		Delta int    `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}
	s.dispatch(w, r, game.IncrementSkill{Skill: domain.SkillID(req.Skill), Delta: req.Delta})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item string `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Item == "" {
		s.jsonError(w, http.StatusBadRequest, "item is required", nil)
		return
	}
	s.dispatch(w, r, game.AddItem{Item: req.Item})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.dispatch(w, r, game.SetTheme{Theme: domain.ThemeID(req.Theme)})
}

// Challenge handlers

// challengeView is the wire form of a challenge. The solution is only
// included when requested explicitly.
type challengeView struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  string            `json:"difficulty"`
	Category    string            `json:"category"`
	Language    string            `json:"language"`
	StarterCode string            `json:"starterCode,omitempty"`
	Hints       []string          `json:"hints,omitempty"`
	Tests       []testCaseView    `json:"tests,omitempty"`
	Solution    string            `json:"solution,omitempty"`
}

type testCaseView struct {
	Description string `json:"description"`
}

func challengeViewOf(c *domain.Challenge, includeSolution bool) challengeView {
	tests := make([]testCaseView, 0, len(c.Tests))
	for _, tc := range c.Tests {
		tests = append(tests, testCaseView{Description: tc.Description})
	}
	v := challengeView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Difficulty:  string(c.Difficulty),
		Category:    c.Category,
		Language:    string(c.Language),
		StarterCode: c.StarterCode,
		Hints:       c.Hints,
		Tests:       tests,
	}
	if includeSolution {
		v.Solution = c.Solution
	}
	return v
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Language:   domain.Language(q.Get("language")),
		Category:   q.Get("category"),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
	}

	challenges := s.catalog.List(filter)
	result := make([]challengeView, 0, len(challenges))
	for _, c := range challenges {
		result = append(result, challengeViewOf(c, false))
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"challenges": result})
}

func (s *Server) handleChallengeCategories(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"categories": s.catalog.Categories(),
	})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	c, err := s.catalog.Get(id)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "challenge not found", nil)
		return
	}

	includeSolution := r.URL.Query().Get("solution") == "true"
	s.jsonResponse(w, http.StatusOK, challengeViewOf(c, includeSolution))
}

func (s *Server) handleGenerateChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language   string `json:"language"`
		Difficulty string `json:"difficulty"`
		SkillLevel int    `json:"skillLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	lang := domain.Language(req.Language)
	if !lang.IsValid() {
		s.jsonError(w, http.StatusBadRequest, "unsupported language", nil)
		return
	}
	diff := domain.Difficulty(req.Difficulty)
	if !diff.IsValid() {
		diff = domain.DifficultyBeginner
	}

	c, err := s.generator.GenerateChallenge(r.Context(), lang, diff, req.SkillLevel)
	if err != nil {
		if errors.Is(err, llm.ErrNoDefaultProvider) || errors.Is(err, llm.ErrProviderNotFound) {
			s.jsonError(w, http.StatusServiceUnavailable, "no LLM provider configured", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "challenge generation failed", err)
		return
	}

	// Generated challenges join the catalog so they can be run and completed
	if err := s.catalog.Add(*c); err != nil {
		s.logger.Warn("failed to register generated challenge", "id", c.ID, "error", err)
	}

	s.jsonResponse(w, http.StatusCreated, challengeViewOf(c, false))
}

// Playground handlers

func (s *Server) handlePlaygroundRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language    string `json:"language"`
		Code        string `json:"code"`
		ChallengeID string `json:"challengeId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Code == "" {
		s.jsonError(w, http.StatusBadRequest, "code is required", nil)
		return
	}

	lang := domain.Language(req.Language)
	var tests []domain.TestCase
	if req.ChallengeID != "" {
		c, err := s.catalog.Get(req.ChallengeID)
		if err != nil {
			s.jsonError(w, http.StatusNotFound, "challenge not found", nil)
			return
		}
		tests = c.Tests
		if req.Language == "" {
			lang = c.Language
		}
	}
	if !lang.IsValid() {
		s.jsonError(w, http.StatusBadRequest, "unsupported language", nil)
		return
	}

	result, err := s.runCode(r.Context(), lang, req.Code, tests)
	if err != nil && !errors.Is(err, domain.ErrRunTimeout) {
		s.jsonError(w, http.StatusInternalServerError, "run failed", err)
		return
	}

	completed := false
	if req.ChallengeID != "" && result != nil && result.Passed() {
		if _, active := s.sessionService.ActiveProfile(); active {
			if _, _, derr := s.sessionService.Dispatch(r.Context(), game.CompleteChallenge{Challenge: req.ChallengeID}); derr != nil {
				s.logger.Warn("failed to record challenge completion", "error", derr)
			} else {
				completed = true
			}
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"result":    result,
		"completed": completed,
	})
}

// runCode executes a submission locally, or through the run queue when one
// is connected.
func (s *Server) runCode(ctx context.Context, lang domain.Language, code string, tests []domain.TestCase) (*sandbox.RunResult, error) {
	if s.queueProducer == nil || !s.queueConn.IsConnected() {
		return s.sandboxService.Execute(ctx, sandbox.ExecuteRequest{
			RunID:    uuid.New(),
			Language: lang,
			Code:     code,
			Tests:    tests,
		})
	}

	timeout := time.Duration(s.cfg.Runner.Docker.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	job := queue.CreateRunJob(s.activeProfileUUID(), "", lang, code, tests, int(timeout.Seconds()))
	resultCh := s.resultConsumer.Subscribe(job.ID.String())

	if err := s.queueProducer.PublishRunJob(ctx, job); err != nil {
		s.resultConsumer.Unsubscribe(job.ID.String())
		return nil, err
	}

	select {
	case res := <-resultCh:
		if res.Status == "timeout" {
			return res.Run, domain.ErrRunTimeout
		}
		if res.Status == "failed" {
			return nil, fmt.Errorf("remote run failed: %s", res.Error)
		}
		return res.Run, nil
	case <-time.After(timeout + 10*time.Second):
		s.resultConsumer.Unsubscribe(job.ID.String())
		return nil, domain.ErrRunTimeout
	case <-ctx.Done():
		s.resultConsumer.Unsubscribe(job.ID.String())
		return nil, ctx.Err()
	}
}

func (s *Server) activeProfileUUID() uuid.UUID {
	id, ok := s.sessionService.ActiveProfile()
	if !ok {
		return uuid.Nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

func (s *Server) handleCodeFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		ChallengeID string `json:"challengeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Code == "" || req.ChallengeID == "" {
		s.jsonError(w, http.StatusBadRequest, "code and challengeId are required", nil)
		return
	}

	c, err := s.catalog.Get(req.ChallengeID)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "challenge not found", nil)
		return
	}

	feedback, err := s.generator.CodeFeedback(r.Context(), req.Code, c)
	if err != nil {
		if errors.Is(err, llm.ErrNoDefaultProvider) || errors.Is(err, llm.ErrProviderNotFound) {
			s.jsonError(w, http.StatusServiceUnavailable, "no LLM provider configured", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "feedback failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"feedback": feedback})
}

// Leaderboard handlers

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order := leaderboard.Order(q.Get("order"))
	n := 10
	if raw := q.Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}

	entries, err := s.boardService.Top(r.Context(), order, n)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load leaderboard", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"entries": entries})
}

// Helpers

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
