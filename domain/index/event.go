package index

// EventStatus is the terminal or progress state carried by one stream event.
type EventStatus string

const (
	StatusStarted    EventStatus = "started"
	StatusProcessing EventStatus = "processing"
	StatusCompleted  EventStatus = "completed"
	StatusNoop       EventStatus = "noop"
	StatusError      EventStatus = "error"
)

// Event is one newline-delimited JSON progress record emitted by an indexing
// run. Count fields are pointers so events that carry no counts omit them.
type Event struct {
	Status         EventStatus `json:"status"`
	Message        string      `json:"message,omitempty"`
	File           string      `json:"file,omitempty"`
	TotalFiles     *int        `json:"total_files,omitempty"`
	ProcessedFiles *int        `json:"processed_files,omitempty"`
	LastCommit     string      `json:"last_commit,omitempty"`
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool {
	switch e.Status {
	case StatusCompleted, StatusNoop, StatusError:
		return true
	}
	return false
}

// StartedEvent begins a run's stream.
func StartedEvent(message string, totalFiles int, lastCommit string) Event {
	zero := 0
	return Event{
		Status:         StatusStarted,
		Message:        message,
		TotalFiles:     &totalFiles,
		ProcessedFiles: &zero,
		LastCommit:     lastCommit,
	}
}

// ProcessingEvent reports per-file progress.
func ProcessingEvent(message, file string, totalFiles, processedFiles int, lastCommit string) Event {
	return Event{
		Status:         StatusProcessing,
		Message:        message,
		File:           file,
		TotalFiles:     &totalFiles,
		ProcessedFiles: &processedFiles,
		LastCommit:     lastCommit,
	}
}

// CompletedEvent terminates a run that changed the index.
func CompletedEvent(message string, totalFiles, processedFiles int, lastCommit string) Event {
	return Event{
		Status:         StatusCompleted,
		Message:        message,
		TotalFiles:     &totalFiles,
		ProcessedFiles: &processedFiles,
		LastCommit:     lastCommit,
	}
}

// NoopEvent terminates a run that found nothing to do.
func NoopEvent(message, lastCommit string) Event {
	return Event{Status: StatusNoop, Message: message, LastCommit: lastCommit}
}

// ErrorEvent terminates a failed run.
func ErrorEvent(message, lastCommit string) Event {
	return Event{Status: StatusError, Message: message, LastCommit: lastCommit}
}
