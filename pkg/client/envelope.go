package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/atlasops/atlas/pkg/domain"
)

// The backend is not consistent about envelope shape or field names, so all
// duck typing is concentrated here: one adapter per target shape, each with a
// fixed priority order over the candidate source fields.

// listEnvelope accepts a bare array, {results: [...]}, or {data: [...]},
// plus whichever pagination counters the response happens to carry.
type listEnvelope struct {
	items       []json.RawMessage
	total       int
	totalKnown  bool
	pageSize    int
	pageSizeSet bool
}

type envelopeCounts struct {
	Count        *int              `json:"count"`
	Total        *int              `json:"total"`
	TotalResults *int              `json:"total_results"`
	TotalCount   *int              `json:"totalCount"`
	PageSize     *int              `json:"page_size"`
	PageSizeAlt  *int              `json:"pageSize"`
	Results      []json.RawMessage `json:"results"`
	Data         []json.RawMessage `json:"data"`
}

func decodeListEnvelope(body []byte) (listEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return listEnvelope{}, fmt.Errorf("decode list: %w", err)
		}
		return listEnvelope{items: items}, nil
	}

	var counts envelopeCounts
	if err := json.Unmarshal(trimmed, &counts); err != nil {
		return listEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	env := listEnvelope{items: counts.Results}
	if env.items == nil {
		env.items = counts.Data
	}
	for _, candidate := range []*int{counts.Count, counts.Total, counts.TotalResults, counts.TotalCount} {
		if candidate != nil {
			env.total = *candidate
			env.totalKnown = true
			break
		}
	}
	for _, candidate := range []*int{counts.PageSize, counts.PageSizeAlt} {
		if candidate != nil {
			env.pageSize = *candidate
			env.pageSizeSet = true
			break
		}
	}
	return env, nil
}

// cursor finalizes the envelope's counters against what was requested:
// unknown page size falls back to the requested one, unknown total to the
// fetched list's length.
func (e listEnvelope) cursor(page, requestedPageSize int) domain.Cursor {
	pageSize := requestedPageSize
	if e.pageSizeSet && e.pageSize > 0 {
		pageSize = e.pageSize
	}
	total := len(e.items)
	if e.totalKnown {
		total = e.total
	}
	return domain.ResolveCursor(page, pageSize, total, e.totalKnown)
}

// looseID tolerates numeric ids arriving as JSON numbers or strings.
type looseID int64

func (l *looseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil // non-numeric string id, keep zero
		}
		*l = looseID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = looseID(n)
	return nil
}

// workerPayload carries every field name the backend has been seen using for
// a credential record.
type workerPayload struct {
	ID       looseID `json:"id"`
	WorkerID looseID `json:"worker_id"`
	UUID     string  `json:"uuid"`

	FullName string `json:"full_name"`
	Name     string `json:"name"`

	QRCode    string `json:"qr_code"`
	QRCodeAlt string `json:"qrCode"`

	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	LastActive   string `json:"last_active"`
	LastActivity string `json:"last_activity"`
	CreatedAtAlt string `json:"createdAt"`
	UpdatedAtAlt string `json:"updatedAt"`

	Status         string `json:"status"`
	EmployeeStatus string `json:"employee_status"`

	Department     string `json:"department"`
	Dept           string `json:"dept"`
	DepartmentName string `json:"department_name"`
}

func (p workerPayload) toDomain(index int) domain.Worker {
	id := int64(p.ID)
	if id == 0 {
		id = int64(p.WorkerID)
	}

	name := firstNonEmpty(p.FullName, p.Name)
	if name == "" {
		name = "Unknown employee"
	}

	created := firstNonEmpty(p.CreatedAt, p.UpdatedAt, p.LastActive, p.LastActivity, p.CreatedAtAlt, p.UpdatedAtAlt)
	createdAt, createdText := parseWhen(created)

	key := firstNonEmpty(p.UUID, strconv.Itoa(index))
	if id != 0 {
		key = strconv.FormatInt(id, 10)
	} else if name != "Unknown employee" && p.UUID == "" {
		key = name
	}

	return domain.Worker{
		HistoryKey:    "remote-" + key,
		ID:            id,
		FullName:      name,
		QRCode:        firstNonEmpty(p.QRCode, p.QRCodeAlt),
		Status:        firstNonEmpty(p.Status, p.EmployeeStatus),
		Department:    firstNonEmpty(p.Department, p.Dept, p.DepartmentName),
		CreatedAt:     createdAt,
		CreatedAtText: createdText,
	}
}

// scanPayload carries every field name seen on an attendance log row.
type scanPayload struct {
	ID     looseID `json:"id"`
	ScanID looseID `json:"scan_id"`

	WorkerName string `json:"worker_name"`
	FullName   string `json:"full_name"`
	Name       string `json:"name"`

	ScanType     string `json:"scan_type"`
	ScannedAt    string `json:"scanned_at"`
	EntryTime    string `json:"entry_time"`
	ExitTime     string `json:"exit_time"`
	CreatedAt    string `json:"created_at"`
	CreatedAtAlt string `json:"createdAt"`

	Time string `json:"time"`
}

func (p scanPayload) toDomain(index int) domain.ScanRecord {
	id := int64(p.ID)
	if id == 0 {
		id = int64(p.ScanID)
	}
	if id == 0 {
		id = int64(index)
	}

	name := firstNonEmpty(p.WorkerName, p.FullName, p.Name)
	if name == "" {
		name = "Unknown employee"
	}

	when := firstNonEmpty(p.ScannedAt, p.EntryTime, p.CreatedAt, p.CreatedAtAlt)
	scannedAt, scannedText := parseWhen(when)

	return domain.ScanRecord{
		ID:            id,
		Name:          name,
		Type:          domain.DeriveScanType(p.ScanType, p.EntryTime, p.ExitTime),
		ScannedAt:     scannedAt,
		ScannedAtText: scannedText,
		RawTime:       p.Time,
	}
}

// scanResponsePayload is the submit-scan acknowledgement; the employee name
// may be flat or nested one level down.
type scanResponsePayload struct {
	FullName   string `json:"full_name"`
	WorkerName string `json:"worker_name"`
	Name       string `json:"name"`
	Worker     struct {
		FullName string `json:"full_name"`
	} `json:"worker"`
	Employee struct {
		FullName string `json:"full_name"`
	} `json:"employee"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (p scanResponsePayload) workerName() string {
	return firstNonEmpty(p.FullName, p.WorkerName, p.Worker.FullName, p.Employee.FullName, p.Name)
}

func (p scanResponsePayload) feedback() string {
	return firstNonEmpty(p.Message, p.Detail, "Scan successful.")
}

// loginPayload checks the sign-in response for a token under every key name
// the backend has used.
type loginPayload struct {
	Token       string `json:"token"`
	Access      string `json:"access"`
	AccessToken string `json:"access_token"`
	Key         string `json:"key"`
}

func (p loginPayload) token() string {
	return firstNonEmpty(p.Token, p.Access, p.AccessToken, p.Key)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var whenLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseWhen attempts the known timestamp layouts; on failure the raw text is
// preserved for display instead.
func parseWhen(raw string) (time.Time, string) {
	if raw == "" {
		return time.Time{}, ""
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, ""
		}
	}
	return time.Time{}, raw
}
