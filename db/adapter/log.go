// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package adapter

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// A Phase tags one of the four trace points every operation passes
// through.
type Phase string

// Trace phases, in emission order.
const (
	PhaseUnsafeInput  Phase = "unsafe-input"
	PhaseParsedInput  Phase = "parsed-input"
	PhaseDBResult     Phase = "db-result"
	PhaseParsedResult Phase = "parsed-result"
)

// A LogEntry is one buffered trace record.
type LogEntry struct {
	Instance string
	TxID     uint64
	Phase    Phase
	Method   string
	Model    string
	Data     any
}

// The trace buffer is process-global so that conformance tests can
// print a full trace on failure. Entries are tagged with a per-factory
// instance id to keep concurrent factories separable.
const bufferCap = 1024

var debugBuf = struct {
	sync.Mutex
	entries []LogEntry
}{}

type debugLogger struct {
	enabled  bool
	instance string
	logger   *slog.Logger
	counter  atomic.Uint64
}

func newDebugLogger(enabled bool, logger *slog.Logger) *debugLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &debugLogger{enabled: enabled, instance: randomID(4), logger: logger}
}

// begin allocates the transaction counter for one operation.
func (l *debugLogger) begin() uint64 { return l.counter.Add(1) }

func (l *debugLogger) log(txID uint64, phase Phase, method, model string, data any) {
	if !l.enabled {
		return
	}
	e := LogEntry{Instance: l.instance, TxID: txID, Phase: phase, Method: method, Model: model, Data: data}
	debugBuf.Lock()
	if len(debugBuf.entries) == bufferCap {
		debugBuf.entries = append(debugBuf.entries[:0], debugBuf.entries[1:]...)
	}
	debugBuf.entries = append(debugBuf.entries, e)
	debugBuf.Unlock()
	l.logger.Debug("db",
		slog.String("instance", l.instance),
		slog.Uint64("tx", txID),
		slog.String("phase", string(phase)),
		slog.String("method", method),
		slog.String("model", model),
		slog.Any("data", data),
	)
}

// Trace returns the buffered entries of this factory instance.
func (a *Adapter) Trace() []LogEntry {
	debugBuf.Lock()
	defer debugBuf.Unlock()
	var out []LogEntry
	for _, e := range debugBuf.entries {
		if e.Instance == a.log.instance {
			out = append(out, e)
		}
	}
	return out
}
