// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/surveyguard/internal/behavior"
	"github.com/tomtom215/surveyguard/internal/composite"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/history"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/quality"
)

// ErrMissingSession is returned when a request carries no session ID.
var ErrMissingSession = errors.New("session_id is required")

// Report error keys.
const (
	PartBehavior  = "behavior"
	PartFraud     = "fraud"
	PartGrid      = "grid"
	PartTiming    = "timing"
	PartComposite = "composite"
	PartHistory   = "history"
	PartPublish   = "publish"
)

// Request is everything known about one session at scoring time.
type Request struct {
	Session models.SessionContext     `json:"session" validate:"required"`
	Events  []models.InteractionEvent `json:"events,omitempty" validate:"dive"`
	Grid    []models.GridResponse     `json:"grid,omitempty" validate:"dive"`
	Timings []models.QuestionTiming   `json:"timings,omitempty" validate:"dive"`
	Quality []models.QualityInput     `json:"quality,omitempty" validate:"dive"`
}

// Publisher delivers finished reports.
type Publisher interface {
	PublishReport(ctx context.Context, report *models.SessionReport) error
}

// Engine orchestrates the detectors.
type Engine struct {
	behavior  *behavior.Engine
	fraud     *fraud.Engine
	grid      *quality.GridDetector
	timing    *quality.TimingDetector
	composite *composite.Calculator

	recorder  history.Recorder
	publisher Publisher
	quality   composite.QualitySource
	verdicts  *logging.VerdictLogger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecorder records every scored session.
func WithRecorder(r history.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithPublisher publishes every report.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithQualitySource fetches text quality when a request carries none.
func WithQualitySource(src composite.QualitySource) Option {
	return func(e *Engine) { e.quality = src }
}

// WithVerdictLogger replaces the default verdict logger.
func WithVerdictLogger(v *logging.VerdictLogger) Option {
	return func(e *Engine) { e.verdicts = v }
}

// NewEngine assembles an engine from configured components.
func NewEngine(b *behavior.Engine, f *fraud.Engine, grid *quality.GridDetector,
	timing *quality.TimingDetector, calc *composite.Calculator, opts ...Option) *Engine {
	e := &Engine{
		behavior:  b,
		fraud:     f,
		grid:      grid,
		timing:    timing,
		composite: calc,
		verdicts:  logging.NewVerdictLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Behavior returns the behavioral engine.
func (e *Engine) Behavior() *behavior.Engine { return e.behavior }

// Fraud returns the fraud engine.
func (e *Engine) Fraud() *fraud.Engine { return e.fraud }

// Grid returns the grid detector.
func (e *Engine) Grid() *quality.GridDetector { return e.grid }

// Timing returns the timing detector.
func (e *Engine) Timing() *quality.TimingDetector { return e.timing }

// Composite returns the composite calculator.
func (e *Engine) Composite() *composite.Calculator { return e.composite }

// ScoreSession scores one session end to end.
func (e *Engine) ScoreSession(ctx context.Context, req *Request) (*models.SessionReport, error) {
	if req == nil || req.Session.SessionID == "" {
		return nil, ErrMissingSession
	}

	start := time.Now()
	ctx = logging.ContextWithSessionID(ctx, req.Session.SessionID)

	session := req.Session
	fillDevice(&session, req.Events)

	report := &models.SessionReport{
		ID:        uuid.New().String(),
		SessionID: session.SessionID,
		Errors:    make(map[string]string),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(req.Events) == 0 {
			report.Errors[PartBehavior] = behavior.ErrNoBehaviorData.Error()
			return nil
		}
		result, err := e.behavior.Analyze(gctx, session.SessionID, req.Events)
		if err != nil {
			if gctx.Err() != nil {
				return err
			}
			report.Errors[PartBehavior] = err.Error()
			return nil
		}
		report.Behavior = result
		return nil
	})

	var fraudResult *models.FraudIndicator
	g.Go(func() error {
		ind, err := e.fraud.Analyze(gctx, &session)
		if err != nil {
			return err
		}
		fraudResult = ind
		return nil
	})

	// report.Errors is written by the behavior goroutine only until Wait returns.
	if err := g.Wait(); err != nil {
		metrics.RecordAnalysis("session", time.Since(start), err)
		return nil, fmt.Errorf("score session %s: %w", session.SessionID, err)
	}
	report.Fraud = fraudResult
	if report.Fraud != nil && report.Fraud.Fingerprint != "" && session.Fingerprint == "" {
		session.Fingerprint = report.Fraud.Fingerprint
	}

	e.scoreQuality(req, report)
	e.scoreComposite(ctx, req, report)

	e.record(ctx, &session, report)
	report.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	report.CreatedAt = time.Now().UTC()
	e.publish(ctx, report)

	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	metrics.RecordAnalysis("session", time.Since(start), nil)
	e.logVerdict(&session, report)

	return report, nil
}

func (e *Engine) scoreQuality(req *Request, report *models.SessionReport) {
	if len(req.Grid) > 0 {
		grid, err := e.grid.AnalyzeAll(req.Grid)
		if err != nil {
			report.Errors[PartGrid] = err.Error()
		} else {
			report.Grid = grid
		}
	}

	if len(req.Timings) > 0 {
		timing, err := e.timing.Analyze(req.Timings)
		if err != nil {
			report.Errors[PartTiming] = err.Error()
		} else {
			report.Timing = timing
		}
	}
}

func (e *Engine) scoreComposite(ctx context.Context, req *Request, report *models.SessionReport) {
	if report.Behavior == nil {
		report.Errors[PartComposite] = "behavioral score unavailable"
		return
	}

	var score models.CompositeScore
	switch {
	case len(req.Quality) > 0 || e.quality == nil:
		score = e.composite.Calculate(report.Behavior.ConfidenceScore, req.Quality)
	default:
		score = e.composite.CalculateFromSource(ctx, report.Behavior.ConfidenceScore, req.Session.SessionID, e.quality)
	}
	report.Composite = &score
}

func (e *Engine) record(ctx context.Context, session *models.SessionContext, report *models.SessionReport) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordSession(ctx, session); err != nil {
		report.Errors[PartHistory] = err.Error()
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to record scored session")
	}
}

func (e *Engine) publish(ctx context.Context, report *models.SessionReport) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishReport(ctx, report); err != nil {
		report.Errors[PartPublish] = err.Error()
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish session report")
	}
}

func (e *Engine) logVerdict(session *models.SessionContext, report *models.SessionReport) {
	if e.verdicts == nil {
		return
	}

	ev := &logging.VerdictEvent{
		Event:        "session_scored",
		SessionID:    session.SessionID,
		SurveyID:     session.SurveyID,
		RespondentID: session.RespondentID,
		IPAddress:    session.IPAddress,
		Fingerprint:  session.Fingerprint,
		Details:      map[string]string{},
	}

	switch {
	case report.Composite != nil:
		ev.Score = report.Composite.CompositeScore
		ev.RiskLevel = string(report.Composite.RiskLevel)
		if report.Composite.IsBot {
			ev.Reasons = append(ev.Reasons, "composite_bot")
		}
	case report.Fraud != nil:
		ev.Score = report.Fraud.OverallFraudScore
		ev.RiskLevel = string(report.Fraud.RiskLevel)
	}

	if report.Behavior != nil && report.Behavior.IsBot {
		ev.Reasons = append(ev.Reasons, "behavioral_bot")
	}
	if report.Fraud != nil {
		if report.Fraud.IsDuplicate {
			ev.Reasons = append(ev.Reasons, "duplicate_respondent")
		}
		for _, signal := range fraud.AllSignals {
			if _, ok := report.Fraud.FlagReasons[signal]; ok {
				ev.Reasons = append(ev.Reasons, signal)
			}
		}
		if report.Fraud.Country != "" {
			ev.Details["country"] = report.Fraud.Country
		}
	}
	for _, g := range report.Grid {
		if g.IsStraightLined {
			ev.Reasons = append(ev.Reasons, "straight_lined")
			break
		}
	}
	for _, t := range report.Timing {
		if t.AnomalyType != models.AnomalyNone {
			ev.Reasons = append(ev.Reasons, string(t.AnomalyType))
			break
		}
	}

	ev.Flagged = Flagged(report)
	e.verdicts.LogVerdict(ev)
}

// Flagged reports whether any verdict in the report marks the session as a
// bot or duplicate respondent.
func Flagged(report *models.SessionReport) bool {
	if report == nil {
		return false
	}
	if report.Composite != nil && report.Composite.IsBot {
		return true
	}
	if report.Behavior != nil && report.Behavior.IsBot {
		return true
	}
	return report.Fraud != nil && report.Fraud.IsDuplicate
}

// fillDevice copies screen and viewport sizes from the first event that
// reports them when the session context leaves them empty.
func fillDevice(session *models.SessionContext, events []models.InteractionEvent) {
	for i := range events {
		if session.ScreenSize != "" && session.ViewportSize != "" {
			return
		}
		if session.ScreenSize == "" {
			session.ScreenSize = events[i].ScreenSize()
		}
		if session.ViewportSize == "" {
			session.ViewportSize = events[i].ViewportSize()
		}
	}
}
