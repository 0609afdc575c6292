// Copyright 2024 The Ksck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package log provides leveled, formatted logging with a verbosity gate.
// All logging methods accept a context so that callers keep a uniform call
// shape; the context is currently unused but reserved for log tags.
package log

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var verbosity int32

var logger atomic.Value // *zap.SugaredLogger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	logger.Store(l.Sugar())
}

func get() *zap.SugaredLogger {
	return logger.Load().(*zap.SugaredLogger)
}

// SetLogger replaces the process-wide logger. Intended for tests and for
// binaries that want a custom zap configuration.
func SetLogger(l *zap.Logger) {
	logger.Store(l.Sugar())
}

// SetVerbosity sets the threshold used by V. Messages logged under
// `if log.V(n)` are emitted only when n <= the configured verbosity.
func SetVerbosity(v int) {
	atomic.StoreInt32(&verbosity, int32(v))
}

// V returns whether logging has been enabled for the given verbosity level.
func V(level int) bool {
	return int32(level) <= atomic.LoadInt32(&verbosity)
}

// Infof logs to the INFO level.
func Infof(_ context.Context, format string, args ...interface{}) {
	get().Infof(format, args...)
}

// Warningf logs to the WARNING level.
func Warningf(_ context.Context, format string, args ...interface{}) {
	get().Warnf(format, args...)
}

// Errorf logs to the ERROR level.
func Errorf(_ context.Context, format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Flush flushes any buffered log entries.
func Flush() {
	_ = get().Sync()
}
