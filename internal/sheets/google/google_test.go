package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Export")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("inline json wins", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/does/not/exist")
		b, err := loadCredentials()
		if err != nil || string(b) != `{"type":"service_account"}` {
			t.Fatalf("unexpected: %q %v", b, err)
		}
	})

	t.Run("application credentials fallback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sa.json")
		if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
		b, err := loadCredentials()
		if err != nil || string(b) != `{}` {
			t.Fatalf("unexpected: %q %v", b, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", filepath.Join(t.TempDir(), "missing.json"))
		if _, err := loadCredentials(); err == nil || !strings.Contains(err.Error(), "read service account file") {
			t.Fatalf("expected read error, got %v", err)
		}
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		if _, err := loadCredentials(); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
			t.Fatalf("expected missing credentials error, got %v", err)
		}
	})
}

func TestClient_ExportRows(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123","updates":{"updatedRange":"'2024 Export'!A1:E4","updatedRows":4}}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	c := newWithService(svc, "sheet-123", "2024 Export")

	rows := []export.Row{
		{Date: "2024-03-02", Category: "Food", Description: "lunch", Amount: core.Money{Cents: 1250}, PaymentMethod: "card"},
		{Date: "2024-03-01", Category: "Unknown", Description: "bus", Amount: core.Money{Cents: 300}},
	}
	ref, err := c.ExportRows(context.Background(), "Expense Report: 2024-03-01 to 2024-03-31", rows)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if ref != "'2024 Export'!A1:E4" {
		t.Errorf("unexpected ref: %q", ref)
	}
	if !strings.Contains(gotPath, "sheet-123") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Errorf("unexpected query: %s", gotQuery)
	}
	if len(gotBody.Values) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(gotBody.Values))
	}
	if gotBody.Values[0][0] != "Expense Report: 2024-03-01 to 2024-03-31" {
		t.Errorf("unexpected title: %v", gotBody.Values[0])
	}
	if gotBody.Values[1][4] != "Payment Method" {
		t.Errorf("unexpected header: %v", gotBody.Values[1])
	}
	if gotBody.Values[2][3] != 12.5 {
		t.Errorf("unexpected amount: %v", gotBody.Values[2][3])
	}
}

func TestClient_ExportRows_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.ExportRows(context.Background(), "t", nil); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestQuoteSheetName(t *testing.T) {
	tests := map[string]string{
		"Export":      "Export",
		"2024 Export": "'2024 Export'",
		"Bob's":       "'Bob''s'",
	}
	for in, want := range tests {
		if got := quoteSheetName(in); got != want {
			t.Errorf("quoteSheetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Export", 2024, "2024 Export"},
		{"  Export  ", 2024, "2024 Export"},
		{"2023 Export", 2024, "2023 Export"},
		{"", 2024, ""},
		{"123 Export", 2024, "2024 123 Export"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
