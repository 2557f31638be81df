package domain

import "time"

// Issue is an ingested file as recorded by the ingestion service
type Issue struct {
	ID          string
	FileName    string
	Size        int64
	SHA256      string
	ExternalRef string // issue reference in the external tracker, if any
	CreatedAt   time.Time
}
