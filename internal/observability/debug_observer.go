// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DebugObserver prints nested, human-readable progress for --debug runs.
// Archive scans open a step per control and workbook updates one per
// finding; worker goroutines log details into whichever step is open.
type DebugObserver struct {
	*StandardObserver
	depth int
}

// NewDebugObserver creates a debug observer with step-by-step logging
func NewDebugObserver(writer io.Writer) *DebugObserver {
	return &DebugObserver{
		StandardObserver: NewStandardObserver(ObservabilityDebug, writer),
	}
}

// line writes one entry at the current depth; the caller holds mu
func (d *DebugObserver) line(marker, format string, args ...interface{}) {
	fmt.Fprintf(d.writer, "%s%s %s\n", strings.Repeat("  ", d.depth), marker, fmt.Sprintf(format, args...))
}

// StartStep begins a processing step; entries logged before the returned
// function is called are indented beneath it.
func (d *DebugObserver) StartStep(component, step, target string) func(success bool, details string) {
	start := time.Now()

	d.mu.Lock()
	d.line("🔄", "%s: %s (%s)", component, step, target)
	d.depth++
	d.mu.Unlock()

	return func(success bool, details string) {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.depth > 0 {
			d.depth--
		}
		elapsed := time.Since(start).Milliseconds()
		if success {
			d.line("✅", "%s: %s completed (%dms) %s", component, step, elapsed, details)
			return
		}
		d.line("❌", "%s: %s failed (%dms) %s", component, step, elapsed, details)
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line("   →", "%s: %s", component, detail)
}

// LogMetric logs a named count or size, e.g. members selected for scanning
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line("   📊", "%s: %s = %v", component, metric, value)
}
