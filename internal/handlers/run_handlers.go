package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/verify"
)

// Run statuses
const (
	RunStatusQueued   = "queued"
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// RunFunc executes a full scenario run. onStep is invoked with the label of
// each scenario as it starts.
type RunFunc func(ctx context.Context, onStep func(label string)) (*verify.Report, error)

// Run tracks a single scenario run through its lifecycle.
type Run struct {
	ID       string         `json:"id"`
	Object   string         `json:"object"`
	Status   string         `json:"status"`
	Step     string         `json:"step,omitempty"`
	Error    string         `json:"error,omitempty"`
	Report   *verify.Report `json:"report,omitempty"`
	Created  int64          `json:"created"`
	Finished int64          `json:"finished,omitempty"`
}

// RunStore is an in-memory registry of runs. Only one run may be active at a
// time; scenario runs are strictly sequential and share signer-side state.
type RunStore struct {
	mu     sync.Mutex
	runs   map[string]*Run
	active string
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// Begin registers a new queued run. It fails if another run is still active.
func (s *RunStore) Begin() (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != "" {
		return nil, false
	}
	run := &Run{
		ID:      uuid.NewString(),
		Object:  "run",
		Status:  RunStatusQueued,
		Created: time.Now().Unix(),
	}
	s.runs[run.ID] = run
	s.active = run.ID
	return s.snapshot(run), true
}

// Get returns a copy of the run with the given ID.
func (s *RunStore) Get(id string) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	return s.snapshot(run), true
}

// SetStep marks the run as running and records the current scenario label.
func (s *RunStore) SetStep(id, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Status = RunStatusRunning
		run.Step = label
	}
}

// Finish records the terminal state of the run and releases the active slot.
func (s *RunStore) Finish(id string, report *verify.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return
	}
	run.Step = ""
	run.Finished = time.Now().Unix()
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = RunStatusComplete
		run.Report = report
	}
	if s.active == id {
		s.active = ""
	}
}

func (s *RunStore) snapshot(run *Run) *Run {
	cp := *run
	return &cp
}

// RunHandler exposes scenario runs over HTTP.
type RunHandler struct {
	common *CommonServices
	runFn  RunFunc
}

func NewRunHandler(common *CommonServices, runFn RunFunc) *RunHandler {
	return &RunHandler{common: common, runFn: runFn}
}

// CreateRun starts a new scenario run in the background and returns its ID.
func (h *RunHandler) CreateRun(c *gin.Context) {
	run, ok := h.common.runs.Begin()
	if !ok {
		sendError(c, http.StatusConflict, "A run is already in progress", nil)
		return
	}

	go func(id string) {
		ctx := context.Background()
		report, err := h.runFn(ctx, func(label string) {
			h.common.runs.SetStep(id, label)
		})
		h.common.runs.Finish(id, report, err)
		if err != nil {
			logger.Error("Run failed", zap.String("run_id", id), zap.Error(err))
			return
		}
		logger.Info("Run complete",
			zap.String("run_id", id),
			zap.Int("passed", report.Passed),
			zap.Int("failed", report.Failed),
			zap.Int("inconclusive", report.Inconclusive),
		)
	}(run.ID)

	sendSuccess(c, http.StatusAccepted, run)
}

// GetRun returns the current state of a run.
func (h *RunHandler) GetRun(c *gin.Context) {
	id := c.Param("run_id")
	run, ok := h.common.runs.Get(id)
	if !ok {
		sendError(c, http.StatusNotFound, "Run not found", nil)
		return
	}
	sendSuccess(c, http.StatusOK, run)
}
