// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"sort"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/surveyguard/internal/logging"
)

// WatermillLogger adapts zerolog to watermill.LoggerAdapter so Watermill and
// NATS internals log through the application logger.
type WatermillLogger struct {
	logger zerolog.Logger
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)

// NewWatermillLogger returns an adapter writing to the "events" component logger.
func NewWatermillLogger() *WatermillLogger {
	return NewWatermillLoggerWithLogger(logging.WithComponent("events"))
}

// NewWatermillLoggerWithLogger returns an adapter writing to l.
func NewWatermillLoggerWithLogger(l zerolog.Logger) *WatermillLogger {
	return &WatermillLogger{logger: l}
}

// Error logs at error level.
func (w *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.emit(w.logger.Error().Err(err), msg, fields)
}

// Info logs at info level.
func (w *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	w.emit(w.logger.Info(), msg, fields)
}

// Debug logs at debug level.
func (w *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.emit(w.logger.Debug(), msg, fields)
}

// Trace logs at trace level.
func (w *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.emit(w.logger.Trace(), msg, fields)
}

// With returns an adapter that adds fields to every entry.
func (w *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{
		logger: w.logger,
		fields: w.fields.Add(fields),
	}
}

func (w *WatermillLogger) emit(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	if ev == nil {
		return
	}
	all := w.fields.Add(fields)
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev = ev.Interface(k, all[k])
	}
	ev.Msg(msg)
}
