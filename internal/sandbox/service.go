// Package sandbox executes untrusted playground submissions in isolated
// subprocesses (or containers) with a hard wall-clock timeout.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// Config holds sandbox service configuration
type Config struct {
	Timeout time.Duration
}

// DefaultConfig returns default sandbox configuration
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
	}
}

// Service coordinates playground executions
type Service struct {
	config   Config
	executor Executor
	logger   *slog.Logger

	mu      sync.Mutex
	running map[uuid.UUID]*runState
}

type runState struct {
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewService creates a sandbox service
func NewService(cfg Config, executor Executor, logger *slog.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Service{
		config:   cfg,
		executor: executor,
		logger:   logger,
		running:  make(map[uuid.UUID]*runState),
	}
}

// ExecuteRequest contains data for one playground run
type ExecuteRequest struct {
	RunID    uuid.UUID
	Language domain.Language
	Code     string
	Tests    []domain.TestCase
}

// Execute runs a submission and its assertions. Each assertion runs in its
// own process so one failure never blocks the rest. On timeout the partial
// result is returned together with domain.ErrRunTimeout.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*RunResult, error) {
	rt, err := RuntimeFor(req.Language)
	if err != nil {
		return nil, err
	}

	if rt.Markup {
		// Markup is rendered client-side with scripting disabled, never
		// executed.
		return &RunResult{OK: true, Preview: req.Code}, nil
	}

	if req.RunID == uuid.Nil {
		req.RunID = uuid.New()
	}

	ctx, cancel := context.WithCancel(ctx)
	state := &runState{cancel: cancel, doneCh: make(chan struct{})}

	s.mu.Lock()
	s.running[req.RunID] = state
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.running, req.RunID)
		s.mu.Unlock()
		close(state.doneCh)
	}()

	s.logger.Debug("executing run",
		"run_id", req.RunID,
		"language", req.Language,
		"tests", len(req.Tests))

	result, err := s.runProgram(ctx, rt, req.Code)
	if err != nil {
		return nil, err
	}

	for _, tc := range req.Tests {
		result.Tests = append(result.Tests, s.runTest(ctx, rt, req.Code, tc))
	}

	if result.TimedOut {
		return result, fmt.Errorf("run %s: %w", req.RunID, domain.ErrRunTimeout)
	}
	return result, nil
}

// Cancel stops a running execution
func (s *Service) Cancel(runID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.running[runID]
	s.mu.Unlock()

	if !ok {
		return domain.ErrRunNotFound
	}
	state.cancel()
	<-state.doneCh
	return nil
}

// IsRunning reports whether the run is still executing
func (s *Service) IsRunning(runID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[runID]
	return ok
}

func (s *Service) runProgram(ctx context.Context, rt Runtime, code string) (*RunResult, error) {
	spec := s.runSpec(rt, code)
	out, err := s.executor.Exec(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", rt.Language, err)
	}

	result := &RunResult{Duration: out.Duration}
	switch rt.Language {
	case domain.LangJavaScript:
		result.OK, result.Lines = parseRunReport(out.Stdout, out.Stderr)
	default:
		result.Lines = pythonLines(out.Stdout, out.Stderr)
		result.OK = out.ExitCode == 0
	}

	if out.TimedOut {
		result.OK = false
		result.TimedOut = true
		result.Lines = append(result.Lines, OutputLine{
			Channel: ChannelError,
			Text:    "Error: Execution timed out",
		})
	}
	return result, nil
}

func (s *Service) runTest(ctx context.Context, rt Runtime, code string, tc domain.TestCase) TestResult {
	spec := s.testSpec(rt, code, tc)
	out, err := s.executor.Exec(ctx, spec)
	if err != nil {
		return TestResult{Description: tc.Description, Message: err.Error()}
	}
	if out.TimedOut {
		return TestResult{Description: tc.Description, Message: "Execution timed out"}
	}

	switch rt.Language {
	case domain.LangJavaScript:
		passed, message := parseTestReport(out.Stdout)
		return TestResult{Description: tc.Description, Passed: passed, Message: message}
	default:
		if out.ExitCode == 0 {
			return TestResult{Description: tc.Description, Passed: true}
		}
		return TestResult{Description: tc.Description, Message: pythonFailureMessage(out.Stderr)}
	}
}

func (s *Service) runSpec(rt Runtime, code string) ExecSpec {
	spec := ExecSpec{
		Image:   rt.DockerImage,
		Timeout: s.config.Timeout,
	}
	switch rt.Language {
	case domain.LangJavaScript:
		spec.Files = map[string]string{
			"program.js": code,
			"harness.js": jsRunHarness,
		}
		spec.Command = append(rt.Command, "harness.js")
	default:
		spec.Files = map[string]string{rt.EntryFile: code}
		spec.Command = append(rt.Command, rt.EntryFile)
	}
	return spec
}

func (s *Service) testSpec(rt Runtime, code string, tc domain.TestCase) ExecSpec {
	spec := ExecSpec{
		Image:   rt.DockerImage,
		Timeout: s.config.Timeout,
	}
	switch rt.Language {
	case domain.LangJavaScript:
		spec.Files = map[string]string{
			"program.js": code,
			"test.js":    tc.Expression,
			"harness.js": jsTestHarness,
		}
		spec.Command = append(rt.Command, "harness.js")
	default:
		spec.Files = map[string]string{
			rt.EntryFile: code + "\n\n" + tc.Expression + "\n",
		}
		spec.Command = append(rt.Command, rt.EntryFile)
	}
	return spec
}
