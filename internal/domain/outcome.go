package domain

// OutcomeStatus represents the terminal status of a single file's submission
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "error"
)

// OutcomeRecord is the per-file result of a batch run.
// IssueID is set only on success and ErrorMessage only on failure.
type OutcomeRecord struct {
	FileName     string        `json:"file"`
	Status       OutcomeStatus `json:"status"`
	IssueID      string        `json:"issue_id,omitempty"`
	ErrorMessage string        `json:"error,omitempty"`
}

// Succeeded creates a success record
func Succeeded(fileName, issueID string) OutcomeRecord {
	return OutcomeRecord{
		FileName: fileName,
		Status:   OutcomeSuccess,
		IssueID:  issueID,
	}
}

// Failed creates a failure record
func Failed(fileName, message string) OutcomeRecord {
	return OutcomeRecord{
		FileName:     fileName,
		Status:       OutcomeFailure,
		ErrorMessage: message,
	}
}

// OK reports whether the record is a success
func (r OutcomeRecord) OK() bool {
	return r.Status == OutcomeSuccess
}

// BatchResult is the ordered collection of outcome records for one run
type BatchResult struct {
	Records []OutcomeRecord `json:"results"`
}

// Len returns the number of records
func (b BatchResult) Len() int {
	return len(b.Records)
}

// Succeeded returns the number of successful records
func (b BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Records {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed records
func (b BatchResult) Failed() int {
	return len(b.Records) - b.Succeeded()
}

// FailedRecords returns only the failed records
func (b BatchResult) FailedRecords() []OutcomeRecord {
	var failed []OutcomeRecord
	for _, r := range b.Records {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}
