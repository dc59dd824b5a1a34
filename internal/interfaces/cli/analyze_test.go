package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.txt")
	if err := os.WriteFile(path, []byte("This agreement is made between..."), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var gotFileName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotFileName = header.Filename
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id":"rec-1","file_name":"contract.txt",
			"analysis":{
				"summary":"A services agreement.",
				"document_type":"Services Agreement",
				"risks":[{"level":"high","description":"Unlimited liability","recommendation":"Cap liability at fees paid"}],
				"deadlines":[{"description":"Renewal notice","date":"2027-01-01","consequence":"Auto-renews"}]
			}
		}`))
	}))
	defer server.Close()

	out, err := runCommand(t, server, "analyze", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if gotFileName != "contract.txt" {
		t.Errorf("uploaded file name = %q", gotFileName)
	}
	for _, want := range []string{
		"Document: contract.txt (ID: rec-1)",
		"Type:     Services Agreement",
		"[HIGH] Unlimited liability",
		"Cap liability at fees paid",
		"2027-01-01  Renewal notice",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeCommandMissingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	_, err := runCommand(t, server, "analyze", "/nonexistent/contract.pdf")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAnalyzeCommandDegradedWarning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id":"rec-2","file_name":"scan.pdf","low_confidence":true,
			"degraded_reason":"document analysis timed out",
			"analysis":{"summary":"Could not fully analyse."}
		}`))
	}))
	defer server.Close()

	out, err := runCommand(t, server, "analyze", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "analysis degraded (document analysis timed out)") {
		t.Errorf("output missing degraded warning:\n%s", out)
	}
	if !strings.Contains(out, "low confidence") {
		t.Errorf("output missing low-confidence warning:\n%s", out)
	}
}
