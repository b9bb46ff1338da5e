// Package orchestrator runs a resume analysis end to end: the analysis
// request, the session that allows refinement, and the consent-gated market
// lookup that feeds the job board.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-radar/internal/analysis"
	"github.com/spigell/resume-radar/internal/api"
	"github.com/spigell/resume-radar/internal/consent"
	"github.com/spigell/resume-radar/internal/jobs"
	"github.com/spigell/resume-radar/internal/logger"
	"github.com/spigell/resume-radar/internal/market"
	"github.com/spigell/resume-radar/internal/metrics"
	"github.com/spigell/resume-radar/internal/session"
)

// Backend is the analysis side of the API.
type Backend interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Envelope, error)
	Health(ctx context.Context) (*api.Health, error)
	Authenticated() bool
}

type Deps struct {
	Backend  Backend
	Sessions session.Remote
	Consent  *consent.Store
	Market   *market.Cache
	Board    *jobs.Board
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type Config struct {
	AnalysisType string `mapstructure:"type"`
	IncludeJobs  bool   `mapstructure:"include-jobs"`
}

type Input struct {
	ResumeText     string
	JobDescription string
	Preferences    map[string]any
	Progress       ProgressFunc
}

type Orchestrator struct {
	backend  Backend
	sessions session.Remote
	consent  *consent.Store
	market   *market.Cache
	board    *jobs.Board
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      Config

	mu           sync.Mutex
	generation   uint64
	marketSeq    uint64
	inProgress   bool
	aiHealthy    bool
	result       *analysis.Result
	intelligence *market.Intelligence
	machine      *session.Machine
	sessionReady chan struct{}
	progress     ProgressFunc

	wg sync.WaitGroup
}

func New(deps Deps, cfg Config) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.AnalysisType) == "" {
		cfg.AnalysisType = analysis.DefaultAnalysisType
	}
	board := deps.Board
	if board == nil {
		board = jobs.NewBoard(jobs.DefaultCriteria(), false)
	}

	return &Orchestrator{
		backend:  deps.Backend,
		sessions: deps.Sessions,
		consent:  deps.Consent,
		market:   deps.Market,
		board:    board,
		metrics:  deps.Metrics,
		logger:   log,
		cfg:      cfg,
	}
}

// CheckHealth refreshes the AI availability flag used as a run precondition.
func (o *Orchestrator) CheckHealth(ctx context.Context) (bool, error) {
	health, err := o.backend.Health(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		o.aiHealthy = false
		return false, fmt.Errorf("check ai health: %w", err)
	}
	o.aiHealthy = health.Healthy()
	return o.aiHealthy, nil
}

func (o *Orchestrator) validate(in Input) error {
	if strings.TrimSpace(in.ResumeText) == "" {
		return &ValidationError{Reason: "resume text is empty"}
	}

	o.mu.Lock()
	healthy := o.aiHealthy
	o.mu.Unlock()
	if !healthy {
		return &ValidationError{Reason: "AI service is not available"}
	}

	if !o.backend.Authenticated() {
		return &ValidationError{Reason: "not authenticated"}
	}
	return nil
}

// Run performs one analysis. Session creation and the market lookup run in
// the background and never delay or fail the analysis itself. A run that
// completes after a newer one started returns ErrSuperseded.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*analysis.Result, error) {
	if err := o.validate(in); err != nil {
		return nil, err
	}

	started := time.Now()
	machine := session.NewMachine(o.sessions, o.logger)
	ready := make(chan struct{})

	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.inProgress = true
	o.machine = machine
	o.sessionReady = ready
	o.progress = in.Progress
	o.intelligence = nil
	o.board.Reset()
	o.mu.Unlock()

	log := logger.WithRun(o.logger, gen)
	log.Info("analysis started", zap.Int("resume_chars", len(in.ResumeText)), zap.Bool("job_description", in.JobDescription != ""))
	in.Progress.emit(StageStarted, gen)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(ready)
		o.createSession(ctx, gen, machine, in, log)
	}()

	in.Progress.emit(StageRequestSent, gen)
	env, err := o.backend.Analyze(ctx, analysis.Request{
		ResumeText:     in.ResumeText,
		JobDescription: in.JobDescription,
		AnalysisType:   o.cfg.AnalysisType,
	})
	if err == nil {
		in.Progress.emit(StageResponseReceived, gen)
	}

	var result *analysis.Result
	if err == nil {
		result, err = analysis.Merge(env)
	}

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		log.Info("discarding superseded analysis result")
		o.metrics.RecordRun(metrics.StatusSuperseded, time.Since(started))
		return nil, ErrSuperseded
	}
	o.inProgress = false
	if err != nil {
		o.mu.Unlock()
		in.Progress.emit(StageFailed, gen)
		log.Warn("analysis failed", zap.Error(err))
		o.metrics.RecordRun(metrics.StatusFailed, time.Since(started))
		return nil, fmt.Errorf("run analysis: %w", err)
	}
	o.result = result
	o.mu.Unlock()

	in.Progress.emit(StageResultsMerged, gen)
	o.metrics.RecordRun(metrics.StatusSuccess, time.Since(started))
	log.Info("analysis finished",
		zap.Float64("overall_score", result.FinalAssessment.ExecutiveSummary.OverallScore),
		zap.Float64("confidence", result.Metadata.Confidence),
	)

	o.startMarketLoad(ctx, gen, result.SkillNames())

	return result, nil
}

func (o *Orchestrator) createSession(ctx context.Context, gen uint64, machine *session.Machine, in Input, log *zap.Logger) {
	persist := o.consent != nil && o.consent.IsGranted(consent.KindResumeStorage)

	created, err := machine.Create(ctx, session.CreateRequest{
		ResumeText:     in.ResumeText,
		JobDescription: in.JobDescription,
		Preferences:    in.Preferences,
		PersistResume:  persist,
	})
	if err != nil {
		log.Warn("session creation failed, continuing without refinement", zap.Error(err))
		return
	}

	if o.isStale(gen) {
		log.Debug("closing session of a superseded run", logger.SessionFields(created.ID, created.CurrentIteration)...)
		if err := machine.Complete(ctx); err != nil {
			log.Debug("closing superseded session failed", zap.Error(err))
		}
		return
	}

	o.metrics.SetIteration(created.CurrentIteration)
	in.Progress.emit(StageSessionReady, gen)
}

func (o *Orchestrator) isStale(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen != o.generation
}

// startMarketLoad runs the consent-gated market lookup in the background.
// Failures are logged only.
func (o *Orchestrator) startMarketLoad(ctx context.Context, gen uint64, skills []string) {
	if !o.marketAllowed() || len(skills) == 0 {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.loadMarket(ctx, gen, skills, false); err != nil {
			logger.WithRun(o.logger, gen).Warn("market data load failed", zap.Error(err))
		}
	}()
}

func (o *Orchestrator) marketAllowed() bool {
	return o.market != nil && o.consent != nil && o.consent.IsGranted(consent.KindMarketAnalysis)
}

func (o *Orchestrator) loadMarket(ctx context.Context, gen uint64, skills []string, forced bool) error {
	top := market.TopSkills(skills, market.MaxSkills)
	if len(top) == 0 {
		return market.ErrNoSkills
	}

	o.mu.Lock()
	o.marketSeq++
	seq := o.marketSeq
	progress := o.progress
	o.mu.Unlock()

	progress.emit(StageMarketRequested, gen)
	started := time.Now()

	var (
		intel *market.Intelligence
		err   error
	)
	if forced {
		intel, err = o.market.ForceRefresh(ctx, top, o.cfg.IncludeJobs)
	} else {
		intel, err = o.market.Load(ctx, top, o.cfg.IncludeJobs)
	}
	if err != nil {
		o.metrics.RecordMarketFetch(forced, metrics.StatusFailed, time.Since(started))
		return err
	}

	o.mu.Lock()
	if gen != o.generation || seq != o.marketSeq {
		o.mu.Unlock()
		o.metrics.RecordMarketFetch(forced, metrics.StatusSuperseded, time.Since(started))
		return ErrSuperseded
	}
	o.intelligence = intel
	o.board.SetPostings(jobs.Ingest(intel))
	o.mu.Unlock()

	stats := o.board.Stats()
	o.metrics.RecordMarketFetch(forced, metrics.StatusSuccess, time.Since(started))
	o.metrics.RecordPostings(stats.Total, stats.Filtered)
	logger.WithRun(o.logger, gen).Info("market data loaded",
		zap.Strings("skills", top),
		zap.Bool("forced", forced),
		zap.Int("postings", stats.Total),
		zap.Int("filtered", stats.Filtered),
	)
	progress.emit(StageMarketLoaded, gen)

	return nil
}

// LoadJobs fetches market data for explicit skills and waits for it. Without
// market consent it does nothing.
func (o *Orchestrator) LoadJobs(ctx context.Context, skills []string, forced bool) error {
	if !o.marketAllowed() {
		o.logger.Debug("market consent not granted, skipping job load")
		return nil
	}

	o.mu.Lock()
	gen := o.generation
	o.mu.Unlock()

	if err := o.loadMarket(ctx, gen, skills, forced); err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	return nil
}

// RefreshJobs bypasses the server cache for the skills of the current
// result. Without market consent or a result it does nothing.
func (o *Orchestrator) RefreshJobs(ctx context.Context) error {
	skills := o.Result().SkillNames()
	if len(skills) == 0 {
		return nil
	}
	return o.LoadJobs(ctx, skills, true)
}

// Refine submits feedback and replaces the current result with the refined
// one. Refinement waits for a session still being created.
func (o *Orchestrator) Refine(ctx context.Context, feedback session.Feedback) (*analysis.Result, error) {
	o.mu.Lock()
	gen := o.generation
	machine := o.machine
	ready := o.sessionReady
	o.mu.Unlock()

	if machine == nil {
		return nil, session.ErrRefinementUnavailable
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	result, err := machine.Refine(ctx, feedback)
	snapshot := machine.Snapshot()
	iteration := 0
	if snapshot != nil {
		iteration = snapshot.CurrentIteration
	}
	if err != nil {
		o.metrics.RecordRefinement(metrics.StatusFailed, iteration)
		return nil, err
	}

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.metrics.RecordRefinement(metrics.StatusSuperseded, iteration)
		return nil, ErrSuperseded
	}
	o.result = result
	o.mu.Unlock()

	o.metrics.RecordRefinement(metrics.StatusSuccess, iteration)
	logger.WithFields(logger.WithRun(o.logger, gen), logger.SessionFields(snapshot.ID, iteration)...).Info("refined result applied")

	o.startMarketLoad(ctx, gen, result.SkillNames())

	return result, nil
}

// SetConsent grants or revokes a consent. Granting market analysis while a
// result exists starts the market lookup; revoking it clears the postings.
func (o *Orchestrator) SetConsent(ctx context.Context, kind consent.Kind, granted bool) error {
	if o.consent == nil {
		return fmt.Errorf("consent store is not configured")
	}
	if err := o.consent.SetGrant(ctx, kind, granted); err != nil {
		return err
	}

	if kind != consent.KindMarketAnalysis {
		return nil
	}

	if !granted {
		// Loads still in flight must not repopulate the board.
		o.mu.Lock()
		o.marketSeq++
		o.intelligence = nil
		o.board.Reset()
		o.mu.Unlock()
		o.logger.Info("market consent revoked, job postings cleared")
		return nil
	}

	o.mu.Lock()
	gen := o.generation
	result := o.result
	o.mu.Unlock()
	if result != nil {
		o.startMarketLoad(ctx, gen, result.SkillNames())
	}
	return nil
}

func (o *Orchestrator) Result() *analysis.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

func (o *Orchestrator) Intelligence() *market.Intelligence {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.intelligence
}

func (o *Orchestrator) Jobs() *jobs.Board {
	return o.board
}

// Session returns a copy of the current session, or nil in degraded mode.
func (o *Orchestrator) Session() *session.Session {
	o.mu.Lock()
	machine := o.machine
	o.mu.Unlock()
	if machine == nil {
		return nil
	}
	return machine.Snapshot()
}

func (o *Orchestrator) SessionState() session.State {
	o.mu.Lock()
	machine := o.machine
	o.mu.Unlock()
	if machine == nil {
		return session.StateUncreated
	}
	return machine.State()
}

func (o *Orchestrator) CanRefine() bool {
	o.mu.Lock()
	machine := o.machine
	o.mu.Unlock()
	return machine != nil && machine.CanRefine()
}

func (o *Orchestrator) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inProgress
}

// Wait blocks until background session and market work has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close waits for background work and completes the session.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.Wait()

	o.mu.Lock()
	machine := o.machine
	o.mu.Unlock()
	if machine == nil {
		return nil
	}
	return machine.Complete(ctx)
}
