package index

import "time"

// RunMode distinguishes the two indexing entry points.
type RunMode string

const (
	RunModeFull   RunMode = "full"
	RunModeUpdate RunMode = "update"
)

// RunState is the per-run state machine:
// idle -> running -> (completed | noop | error).
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunNoop      RunState = "noop"
	RunError     RunState = "error"
)

// Run records one indexing run's lifecycle for the registry. Immutable
// value object; transitions produce copies.
type Run struct {
	mode           RunMode
	state          RunState
	errorMessage   string
	startedAt      time.Time
	finishedAt     time.Time
	totalFiles     int
	processedFiles int
	currentFile    string
}

// NewRun starts a run in the running state.
func NewRun(mode RunMode) Run {
	return Run{mode: mode, state: RunRunning, startedAt: time.Now().UTC()}
}

// ReconstructRun recreates a Run from persistence.
func ReconstructRun(
	mode RunMode, state RunState, errorMessage string,
	startedAt, finishedAt time.Time,
	totalFiles, processedFiles int, currentFile string,
) Run {
	return Run{
		mode:           mode,
		state:          state,
		errorMessage:   errorMessage,
		startedAt:      startedAt,
		finishedAt:     finishedAt,
		totalFiles:     totalFiles,
		processedFiles: processedFiles,
		currentFile:    currentFile,
	}
}

// Mode returns the run mode.
func (r Run) Mode() RunMode { return r.mode }

// State returns the current run state. A zero Run reports idle.
func (r Run) State() RunState {
	if r.state == "" {
		return RunIdle
	}
	return r.state
}

// ErrorMessage returns the failure message for error runs.
func (r Run) ErrorMessage() string { return r.errorMessage }

// StartedAt returns when the run began.
func (r Run) StartedAt() time.Time { return r.startedAt }

// FinishedAt returns when the run reached a terminal state, zero otherwise.
func (r Run) FinishedAt() time.Time { return r.finishedAt }

// TotalFiles returns the run's file count, when known.
func (r Run) TotalFiles() int { return r.totalFiles }

// ProcessedFiles returns the number of files handled so far.
func (r Run) ProcessedFiles() int { return r.processedFiles }

// CurrentFile returns the file being processed. Advisory.
func (r Run) CurrentFile() string { return r.currentFile }

// WithProgress returns a copy carrying updated progress counters.
func (r Run) WithProgress(currentFile string, processedFiles, totalFiles int) Run {
	r.currentFile = currentFile
	r.processedFiles = processedFiles
	r.totalFiles = totalFiles
	return r
}

// Completed returns a copy in the completed state.
func (r Run) Completed() Run {
	r.state = RunCompleted
	r.finishedAt = time.Now().UTC()
	return r
}

// Noop returns a copy in the noop state.
func (r Run) Noop() Run {
	r.state = RunNoop
	r.finishedAt = time.Now().UTC()
	return r
}

// Failed returns a copy in the error state with the failure message.
func (r Run) Failed(message string) Run {
	r.state = RunError
	r.errorMessage = message
	r.finishedAt = time.Now().UTC()
	return r
}
