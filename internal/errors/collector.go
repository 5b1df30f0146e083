package errors

import (
	"fmt"
	"sync"
	"time"
)

// CompileWarning records a recoverable defect found while compiling a document.
// Warnings are surfaced in the run summary; they never abort the batch.
type CompileWarning struct {
	Document  string
	Message   string
	Timestamp time.Time
}

// String formats the warning for display.
func (w CompileWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Document, w.Message)
}

// WarningCollector collects compile warnings across a run.
type WarningCollector struct {
	warnings []CompileWarning
	mutex    sync.RWMutex
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector() *WarningCollector {
	return &WarningCollector{
		warnings: make([]CompileWarning, 0),
	}
}

// Add records a warning against a document.
func (wc *WarningCollector) Add(document, message string) {
	wc.mutex.Lock()
	defer wc.mutex.Unlock()
	wc.warnings = append(wc.warnings, CompileWarning{
		Document:  document,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Warnings returns a copy of all collected warnings.
func (wc *WarningCollector) Warnings() []CompileWarning {
	wc.mutex.RLock()
	defer wc.mutex.RUnlock()
	result := make([]CompileWarning, len(wc.warnings))
	copy(result, wc.warnings)
	return result
}

// HasWarnings returns true if any warnings were collected.
func (wc *WarningCollector) HasWarnings() bool {
	wc.mutex.RLock()
	defer wc.mutex.RUnlock()
	return len(wc.warnings) > 0
}

// Clear drops all collected warnings.
func (wc *WarningCollector) Clear() {
	wc.mutex.Lock()
	defer wc.mutex.Unlock()
	wc.warnings = wc.warnings[:0]
}
