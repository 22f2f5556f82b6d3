// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/scoring"
)

const (
	gridQuestions   = 3
	gridRows        = 6
	timedQuestions  = 8
	botPoolSize     = 4
	botKeyInterval  = 50 * time.Millisecond
	botResponseText = "good survey i like it very much"
)

// Generator produces synthetic scoring requests. It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	faker    *gofakeit.Faker
	surveyID string
	botIPs   []string
	botPrint []string
	start    time.Time
}

// NewGenerator seeds a generator for surveyID.
func NewGenerator(seed uint64, surveyID string) *Generator {
	faker := gofakeit.New(seed)
	g := &Generator{
		faker:    faker,
		surveyID: surveyID,
		start:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	for i := 0; i < botPoolSize; i++ {
		g.botIPs = append(g.botIPs, faker.IPv4Address())
		g.botPrint = append(g.botPrint, faker.LetterN(32))
	}
	return g
}

// Session returns the i-th request, a bot session when bot is true.
func (g *Generator) Session(i int, bot bool) *scoring.Request {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bot {
		return g.botSession(i)
	}
	return g.humanSession(i)
}

func (g *Generator) sessionContext(i int) models.SessionContext {
	return models.SessionContext{
		SessionID:      fmt.Sprintf("loadgen-%06d-%s", i, g.faker.LetterN(6)),
		SurveyID:       g.surveyID,
		RespondentID:   g.faker.UUID(),
		StartedAt:      g.start.Add(time.Duration(i) * time.Second),
		UserAgent:      g.faker.UserAgent(),
		Timezone:       g.faker.TimeZoneRegion(),
		Language:       g.faker.LanguageAbbreviation(),
		ColorDepth:     24,
		HardwareConcur: g.faker.IntRange(2, 16),
	}
}

func (g *Generator) humanSession(i int) *scoring.Request {
	session := g.sessionContext(i)
	session.IPAddress = g.faker.IPv4Address()
	session.Fingerprint = g.faker.LetterN(32)
	session.Responses = []string{g.faker.Sentence(g.faker.IntRange(6, 18))}

	ts := session.StartedAt
	events := make([]models.InteractionEvent, 0, 64)
	events = append(events, models.InteractionEvent{
		Type: models.EventTypeFocus, Timestamp: ts,
		ScreenWidth: 1920, ScreenHeight: 1080,
		ViewportWidth: g.faker.IntRange(1100, 1900), ViewportHeight: g.faker.IntRange(650, 1000),
	})

	for k := 0; k < g.faker.IntRange(15, 30); k++ {
		ts = ts.Add(time.Duration(g.faker.Float64Range(70, 380)) * time.Millisecond)
		events = append(events, models.InteractionEvent{Type: models.EventTypeKeystroke, Timestamp: ts, Key: "x"})
	}

	x, y := g.faker.Float64Range(100, 900), g.faker.Float64Range(100, 600)
	for k := 0; k < g.faker.IntRange(10, 25); k++ {
		ts = ts.Add(time.Duration(g.faker.Float64Range(16, 120)) * time.Millisecond)
		x += g.faker.Float64Range(-40, 60)
		y += g.faker.Float64Range(-30, 45)
		events = append(events, models.InteractionEvent{
			Type: models.EventTypeMouse, Timestamp: ts,
			X: ptr(x), Y: ptr(y),
			MovementType: "curved",
			Speed:        ptr(g.faker.Float64Range(150, 900)),
			Precision:    ptr(g.faker.Float64Range(0.55, 0.9)),
			Distance:     ptr(g.faker.Float64Range(5, 80)),
		})
	}
	ts = ts.Add(time.Duration(g.faker.Float64Range(200, 900)) * time.Millisecond)
	events = append(events,
		models.InteractionEvent{Type: models.EventTypeClick, Timestamp: ts, X: ptr(x), Y: ptr(y)},
		models.InteractionEvent{Type: models.EventTypeScroll, Timestamp: ts.Add(400 * time.Millisecond), ScrollDeltaY: ptr(g.faker.Float64Range(40, 300))},
	)

	grid := make([]models.GridResponse, gridQuestions)
	for q := range grid {
		values := make([]interface{}, gridRows)
		for r := range values {
			values[r] = g.faker.IntRange(1, 5)
		}
		grid[q] = models.GridResponse{QuestionID: fmt.Sprintf("grid-%d", q+1), Values: values}
	}

	timings := make([]models.QuestionTiming, timedQuestions)
	for q := range timings {
		timings[q] = models.QuestionTiming{
			QuestionID:     fmt.Sprintf("q%d", q+1),
			ResponseTimeMs: g.faker.Float64Range(2500, 25000),
		}
	}

	return &scoring.Request{
		Session: session,
		Events:  events,
		Grid:    grid,
		Timings: timings,
		Quality: []models.QualityInput{{Score: g.faker.Float64Range(55, 95)}},
	}
}

func (g *Generator) botSession(i int) *scoring.Request {
	session := g.sessionContext(i)
	session.IPAddress = g.botIPs[i%len(g.botIPs)]
	session.Fingerprint = g.botPrint[i%len(g.botPrint)]
	session.Responses = []string{botResponseText}

	ts := session.StartedAt
	events := make([]models.InteractionEvent, 0, 48)
	events = append(events, models.InteractionEvent{
		Type: models.EventTypeFocus, Timestamp: ts,
		ScreenWidth: 800, ScreenHeight: 600,
	})
	for k := 0; k < 24; k++ {
		ts = ts.Add(botKeyInterval)
		events = append(events, models.InteractionEvent{Type: models.EventTypeKeystroke, Timestamp: ts, Key: "x"})
	}
	for k := 0; k < 12; k++ {
		ts = ts.Add(10 * time.Millisecond)
		events = append(events, models.InteractionEvent{
			Type: models.EventTypeMouse, Timestamp: ts,
			X: ptr(float64(100 + 20*k)), Y: ptr(float64(100 + 10*k)),
			MovementType: models.MovementTypeLinear,
			Speed:        ptr(2000),
			Precision:    ptr(1),
			Distance:     ptr(22.36),
		})
	}
	events = append(events, models.InteractionEvent{Type: models.EventTypeClick, Timestamp: ts.Add(10 * time.Millisecond), X: ptr(320), Y: ptr(210)})

	grid := make([]models.GridResponse, gridQuestions)
	for q := range grid {
		values := make([]interface{}, gridRows)
		for r := range values {
			values[r] = 3
		}
		grid[q] = models.GridResponse{QuestionID: fmt.Sprintf("grid-%d", q+1), Values: values}
	}

	timings := make([]models.QuestionTiming, timedQuestions)
	for q := range timings {
		timings[q] = models.QuestionTiming{QuestionID: fmt.Sprintf("q%d", q+1), ResponseTimeMs: 400}
	}

	return &scoring.Request{
		Session: session,
		Events:  events,
		Grid:    grid,
		Timings: timings,
		Quality: []models.QualityInput{{Score: 12, Flags: []string{"low_effort"}}},
	}
}

func ptr(v float64) *float64 { return &v }
