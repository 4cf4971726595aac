package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/atlasops/atlas/pkg/domain"
)

func staticToken(tok string) func() string {
	return func() string { return tok }
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login request carried Authorization header %q", r.Header.Get("Authorization"))
		}
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds) //nolint:errcheck
		if creds["username"] != "admin" || creds["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "abc123"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken(""))
	token, err := c.Login(context.Background(), "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want %q", token, "abc123")
	}
}

func TestLoginAlternateTokenKeys(t *testing.T) {
	for _, key := range []string{"token", "access", "access_token", "key"} {
		t.Run(key, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{key: "tok-" + key}) //nolint:errcheck
			}))
			defer srv.Close()

			c := New(srv.URL, staticToken(""))
			token, err := c.Login(context.Background(), "u", "p")
			if err != nil {
				t.Fatalf("Login() error: %v", err)
			}
			if token != "tok-"+key {
				t.Errorf("token = %q, want %q", token, "tok-"+key)
			}
		})
	}
}

func TestLoginMissingTokenIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken(""))
	if _, err := c.Login(context.Background(), "u", "p"); err == nil {
		t.Fatal("expected error when response has no token")
	}
}

func TestAuthorizationHeaderSentVerbatim(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]any{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer abc123"))
	if _, err := c.ListWorkers(context.Background(), 1, 10); err != nil {
		t.Fatalf("ListWorkers() error: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer abc123")
	}
}

func TestListWorkersEnvelopeShapes(t *testing.T) {
	record := `{"id": 7, "full_name": "Ada Wong", "qr_code": "data:image/png;base64,xyz", "status": "active", "created_at": "2026-03-01T08:00:00Z"}`

	tests := []struct {
		name      string
		body      string
		wantTotal int
		wantNext  bool
	}{
		{"bare array", `[` + record + `]`, 1, false},
		{"results envelope with count", `{"results": [` + record + `], "count": 23}`, 23, true},
		{"data envelope with total", `{"data": [` + record + `], "total": 5}`, 5, false},
		{"results without counters", `{"results": [` + record + `]}`, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/workers/" {
					http.NotFound(w, r)
					return
				}
				if r.URL.Query().Get("page") != "1" || r.URL.Query().Get("page_size") != "10" {
					t.Errorf("query = %q, want page=1&page_size=10", r.URL.RawQuery)
				}
				w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer srv.Close()

			c := New(srv.URL, staticToken("Bearer tok"))
			page, err := c.ListWorkers(context.Background(), 1, 10)
			if err != nil {
				t.Fatalf("ListWorkers() error: %v", err)
			}
			if len(page.Workers) != 1 {
				t.Fatalf("len(Workers) = %d, want 1", len(page.Workers))
			}
			w := page.Workers[0]
			if w.FullName != "Ada Wong" {
				t.Errorf("FullName = %q", w.FullName)
			}
			if w.ID != 7 {
				t.Errorf("ID = %d, want 7", w.ID)
			}
			if page.Cursor.Total != tc.wantTotal {
				t.Errorf("Cursor.Total = %d, want %d", page.Cursor.Total, tc.wantTotal)
			}
			if page.Cursor.HasNext != tc.wantNext {
				t.Errorf("Cursor.HasNext = %v, want %v", page.Cursor.HasNext, tc.wantNext)
			}
		})
	}
}

func TestListWorkersFieldFallbacks(t *testing.T) {
	body := `{"results": [
		{"worker_id": "42", "name": "Lee Chen", "qrCode": "ref-1", "employee_status": "active"},
		{"full_name": "No ID Person", "qr_code": "ref-2"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	page, err := c.ListWorkers(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListWorkers() error: %v", err)
	}
	if len(page.Workers) != 2 {
		t.Fatalf("len(Workers) = %d, want 2", len(page.Workers))
	}

	first := page.Workers[0]
	if first.ID != 42 {
		t.Errorf("ID from string worker_id = %d, want 42", first.ID)
	}
	if first.FullName != "Lee Chen" {
		t.Errorf("FullName from name = %q", first.FullName)
	}
	if first.QRCode != "ref-1" {
		t.Errorf("QRCode from qrCode = %q", first.QRCode)
	}
	if first.Status != "active" {
		t.Errorf("Status from employee_status = %q", first.Status)
	}

	second := page.Workers[1]
	if second.ID != 0 {
		t.Errorf("missing id should stay 0, got %d", second.ID)
	}
	if second.FullName != "No ID Person" {
		t.Errorf("FullName = %q", second.FullName)
	}
}

func TestGenerateQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-qr/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req["full_name"] != "New Hire" {
			t.Errorf("full_name = %q", req["full_name"])
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id": 99, "full_name": "New Hire", "qr_code": "data:image/png;base64,abc",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	w, err := c.GenerateQR(context.Background(), "New Hire")
	if err != nil {
		t.Fatalf("GenerateQR() error: %v", err)
	}
	if w.ID != 99 || w.FullName != "New Hire" || w.QRCode != "data:image/png;base64,abc" {
		t.Errorf("worker = %+v", w)
	}
	if w.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped locally")
	}
}

func TestGenerateQRNestedData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"data": map[string]any{"id": 5, "full_name": "Nested Person", "qr_code": "ref"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	w, err := c.GenerateQR(context.Background(), "Nested Person")
	if err != nil {
		t.Fatalf("GenerateQR() error: %v", err)
	}
	if w.ID != 5 || w.QRCode != "ref" {
		t.Errorf("worker = %+v", w)
	}
}

func TestGenerateQRSparseResponseFallsBackToRequestName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"qr_code": "only-a-ref"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	w, err := c.GenerateQR(context.Background(), "Requested Name")
	if err != nil {
		t.Fatalf("GenerateQR() error: %v", err)
	}
	if w.FullName != "Requested Name" {
		t.Errorf("FullName = %q, want the requested name", w.FullName)
	}
}

func TestListScans(t *testing.T) {
	body := `{"results": [
		{"id": 1, "worker_name": "Ada Wong", "scan_type": "entry", "scanned_at": "2026-03-09T08:15:30Z", "time": "8:15 AM"},
		{"id": 2, "full_name": "Lee Chen", "exit_time": "17:01:00"}
	], "count": 2}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scanned-users/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	page, err := c.ListScans(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListScans() error: %v", err)
	}
	if len(page.Scans) != 2 {
		t.Fatalf("len(Scans) = %d, want 2", len(page.Scans))
	}
	if page.Scans[0].Type != domain.ScanEntry {
		t.Errorf("first Type = %q, want entry", page.Scans[0].Type)
	}
	if page.Scans[0].RawTime != "8:15 AM" {
		t.Errorf("first RawTime = %q", page.Scans[0].RawTime)
	}
	// No explicit label, only exit_time populated.
	if page.Scans[1].Type != domain.ScanExit {
		t.Errorf("second Type = %q, want exit", page.Scans[1].Type)
	}
}

func TestDeleteLogEntry(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	if err := c.DeleteLogEntry(context.Background(), 42); err != nil {
		t.Fatalf("DeleteLogEntry() error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotPath != "/log/delete/42/" {
		t.Errorf("path = %q, want /log/delete/42/", gotPath)
	}
}

func TestExportExcelReturnsRawBytes(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0xde, 0xad} // xlsx files are zip archives
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export-excel/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(payload) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	data, err := c.ExportExcel(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("ExportExcel() error: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("export bytes altered in transit")
	}
}

func TestSubmitScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scan/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req["qr_text"] != "badge-payload" {
			t.Errorf("qr_text = %q", req["qr_text"])
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"worker": map[string]string{"full_name": "Ada Wong"},
			"message": "Entry recorded",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer tok"))
	result, err := c.SubmitScan(context.Background(), "badge-payload")
	if err != nil {
		t.Fatalf("SubmitScan() error: %v", err)
	}
	if result.WorkerName != "Ada Wong" {
		t.Errorf("WorkerName = %q", result.WorkerName)
	}
	if result.Message != "Entry recorded" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestSubmitScanUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("Bearer dead"))
	_, err := c.SubmitScan(context.Background(), "payload")
	if err == nil {
		t.Fatal("expected error for expired token")
	}
	if !IsStatus(err, 401) {
		t.Errorf("IsStatus(err, 401) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "token expired") {
		t.Errorf("error = %q, want backend detail included", err.Error())
	}
}

func TestPreconditionsSkipNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode([]any{}) //nolint:errcheck
	}))
	defer srv.Close()

	// No base URL: every operation fails up front.
	c := New("", staticToken("Bearer tok"))
	if _, err := c.ListWorkers(context.Background(), 1, 10); err == nil || !strings.Contains(err.Error(), "base URL") {
		t.Errorf("missing base URL error = %v", err)
	}
	if _, err := c.Login(context.Background(), "u", "p"); err == nil {
		t.Error("Login without base URL should fail")
	}

	// No credential: authed operations fail up front, against a live server.
	c = New(srv.URL, staticToken(""))
	if _, err := c.SubmitScan(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Errorf("missing credential error = %v", err)
	}
	if err := c.DeleteLogEntry(context.Background(), 1); err == nil {
		t.Error("DeleteLogEntry without credential should fail")
	}

	if hits.Load() != 0 {
		t.Errorf("server was hit %d times, want 0", hits.Load())
	}
}

func TestHTTPErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare json string", `"plain failure"`, "plain failure"},
		{"detail field", `{"detail": "no such record"}`, "no such record"},
		{"message field", `{"message": "try later"}`, "try later"},
		{"error field", `{"error": "broken"}`, "broken"},
		{"plain text", `gateway timeout`, "gateway timeout"},
		{"empty body", ``, http.StatusText(http.StatusBadRequest)},
		{"unrecognized json", `{"weird": true}`, http.StatusText(http.StatusBadRequest)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := newHTTPError(http.StatusBadRequest, []byte(tc.body))
			if err.Message != tc.want {
				t.Errorf("Message = %q, want %q", err.Message, tc.want)
			}
		})
	}
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]any{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL+"/", staticToken("Bearer tok"))
	if _, err := c.ListWorkers(context.Background(), 1, 10); err != nil {
		t.Fatalf("ListWorkers() error: %v", err)
	}
	if gotPath != "/workers/" {
		t.Errorf("path = %q, want /workers/", gotPath)
	}
}
