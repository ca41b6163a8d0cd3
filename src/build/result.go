package build

import "time"

// StepResult captures the outcome of a single build invocation.
type StepResult struct {
	Name     string
	Status   string   // "success", "failed"
	Images   []string // image refs produced
	Duration time.Duration
	Error    error
}
