package domain

// RunState represents the state of a batch runner
type RunState string

const (
	RunStateIdle    RunState = "idle"
	RunStateRunning RunState = "running"
)

// FileState represents the state of a single file within a run
type FileState string

const (
	FileStatePending    FileState = "pending"
	FileStateSubmitting FileState = "submitting"
	FileStateSucceeded  FileState = "succeeded"
	FileStateFailed     FileState = "failed"
)

// Terminal reports whether no further transition is possible
func (s FileState) Terminal() bool {
	return s == FileStateSucceeded || s == FileStateFailed
}

// Progress is a read-only snapshot of a run
type Progress struct {
	State   RunState
	Total   int
	Files   []FileState
	Records []OutcomeRecord
}

// Done returns the number of files that reached a terminal state
func (p Progress) Done() int {
	return len(p.Records)
}
