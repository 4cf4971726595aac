package domain

import "time"

// ScanType classifies an attendance event.
type ScanType string

const (
	ScanEntry   ScanType = "entry"
	ScanExit    ScanType = "exit"
	ScanUnknown ScanType = ""
)

// ScanRecord is one row of the attendance log. The record is display-only:
// the backend owns entry/exit pairing, this program just renders what it got.
type ScanRecord struct {
	ID   int64
	Name string
	Type ScanType

	ScannedAt time.Time
	// ScannedAtText preserves the raw backend value when it does not parse.
	ScannedAtText string
	// RawTime is the backend's preformatted clock field, shown verbatim
	// when present.
	RawTime string
}

// DeriveScanType falls back to the populated timestamp field when the backend
// did not label the record explicitly.
func DeriveScanType(explicit string, entryTime, exitTime string) ScanType {
	switch explicit {
	case string(ScanEntry):
		return ScanEntry
	case string(ScanExit):
		return ScanExit
	}
	if explicit != "" {
		return ScanType(explicit)
	}
	if entryTime != "" {
		return ScanEntry
	}
	if exitTime != "" {
		return ScanExit
	}
	return ScanUnknown
}

// DateLabel renders the scan date for the log table.
func (s ScanRecord) DateLabel() string {
	if !s.ScannedAt.IsZero() {
		return s.ScannedAt.Format("01/02/2006")
	}
	if s.ScannedAtText != "" {
		return s.ScannedAtText
	}
	return "-"
}

// TimeLabel renders the scan clock time, preferring the backend's
// preformatted field.
func (s ScanRecord) TimeLabel() string {
	if s.RawTime != "" {
		return s.RawTime
	}
	if !s.ScannedAt.IsZero() {
		return s.ScannedAt.Format("15:04:05")
	}
	return "-"
}
