package domain

import "time"

// Worker is a credential record in the QR library. Records created locally
// after a generate call carry an ID of 0 until the next full refresh.
type Worker struct {
	// HistoryKey uniquely identifies the row in the local list, including
	// optimistic entries that have no backend id yet.
	HistoryKey string

	ID         int64
	FullName   string
	QRCode     string // opaque image reference (data URI or URL)
	Status     string
	Department string

	CreatedAt time.Time
	// CreatedAtText preserves the backend's original value when it does not
	// parse as a timestamp.
	CreatedAtText string
}

// CreatedLabel renders the creation timestamp for display, falling back to
// the raw backend value when parsing failed.
func (w Worker) CreatedLabel() string {
	if !w.CreatedAt.IsZero() {
		return w.CreatedAt.Format("01/02/2006, 15:04:05")
	}
	if w.CreatedAtText != "" {
		return w.CreatedAtText
	}
	return "-"
}
