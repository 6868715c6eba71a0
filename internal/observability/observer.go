// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// StandardObserver implements observability for all components
type StandardObserver struct {
	level         ObservabilityLevel
	writer        io.Writer
	mu            sync.Mutex
	DebugObserver *DebugObserver // Reference to debug observer when in debug mode
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		writer: writer,
	}
}

// New returns a debug-level observer wired to a DebugObserver when debug is
// set, and a metrics-level observer otherwise.
func New(debug bool, writer io.Writer) *StandardObserver {
	if debug {
		debugObs := NewDebugObserver(writer)
		debugObs.StandardObserver.DebugObserver = debugObs
		return debugObs.StandardObserver
	}
	return NewStandardObserver(ObservabilityMetrics, writer)
}

// Nop returns an observer that records nothing
func Nop() *StandardObserver {
	return NewStandardObserver(ObservabilityOff, io.Discard)
}

// Debug reports whether step-by-step logging is active
func (o *StandardObserver) Debug() bool {
	return o != nil && o.level == ObservabilityDebug
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, filePath string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		data := StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			FilePath:   filePath,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		}
		if errValue, ok := metadata["error"]; ok {
			if err, isErr := errValue.(error); isErr && err != nil {
				data.Error = err.Error()
				delete(metadata, "error")
			}
		}
		if count, ok := metadata["match_count"].(int); ok {
			data.MatchCount = count
			delete(metadata, "match_count")
		}

		o.LogOperation(data)
	}
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o == nil || o.level == ObservabilityOff {
		return
	}

	data.RequestID = "req-" + time.Now().Format("20060102-150405")

	// Only log JSON in debug mode
	if o.level == ObservabilityDebug {
		o.mu.Lock()
		defer o.mu.Unlock()
		json.NewEncoder(o.writer).Encode(data)
	}
}

// LogDetail forwards to the debug observer when one is attached
func (o *StandardObserver) LogDetail(component, detail string) {
	if o != nil && o.DebugObserver != nil {
		o.DebugObserver.LogDetail(component, detail)
	}
}

// StartStep opens an indented debug step; without a debug observer the
// returned function does nothing.
func (o *StandardObserver) StartStep(component, step, target string) func(success bool, details string) {
	if o == nil || o.DebugObserver == nil {
		return func(bool, string) {}
	}
	return o.DebugObserver.StartStep(component, step, target)
}

// LogMetric forwards a named value to the debug observer
func (o *StandardObserver) LogMetric(component, metric string, value interface{}) {
	if o != nil && o.DebugObserver != nil {
		o.DebugObserver.LogMetric(component, metric, value)
	}
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation"`
	RequestID     string                 `json:"request_id"`
	FilePath      string                 `json:"file_path,omitempty"`
	DurationMs    int64                  `json:"duration_ms,omitempty"`
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	ContentLength int                    `json:"content_length,omitempty"`
	MatchCount    int                    `json:"match_count,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
