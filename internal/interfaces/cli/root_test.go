package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// runCommand executes the CLI against the given test server and returns the
// captured stdout.
func runCommand(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--server", server.URL))

	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	expected := []string{"analyze", "documents", "insight", "compare"}
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[strings.Fields(sub.Use)[0]] = true
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestNewRootCommandGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"server", "output", "timeout", "verbose"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("flag %q should exist", name)
		}
	}

	serverFlag := cmd.PersistentFlags().Lookup("server")
	if serverFlag.DefValue != "http://localhost:8080" {
		t.Errorf("server flag default = %q", serverFlag.DefValue)
	}
}

func TestRootCommandRejectsBadServerAddr(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"documents", "list", "--server", "not-a-url"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for invalid server address")
	}
}

func TestFormatTable(t *testing.T) {
	out := FormatTable(
		[]string{"ID", "FILE"},
		[][]string{
			{"a1", "nda.pdf"},
			{"b2", "lease_agreement.pdf"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "--") {
		t.Errorf("separator = %q", lines[1])
	}
	// Columns align on the widest cell.
	if !strings.Contains(lines[2], "a1  nda.pdf") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestFormatTableEmptyHeaders(t *testing.T) {
	if out := FormatTable(nil, nil); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestDocumentsListCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"documents":[{"id":"rec-1","file_name":"nda.pdf","analysis":{"document_type":"NDA","risks":[{"level":"high","description":"x"}]}}],"count":1}`))
	}))
	defer server.Close()

	out, err := runCommand(t, server, "documents", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "rec-1") || !strings.Contains(out, "nda.pdf") {
		t.Errorf("output = %q", out)
	}
}

func TestDocumentsGetCommandJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rec-1","file_name":"nda.pdf","analysis":{"summary":"An NDA."}}`))
	}))
	defer server.Close()

	out, err := runCommand(t, server, "documents", "get", "rec-1", "-o", "json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"summary": "An NDA."`) {
		t.Errorf("output = %q", out)
	}
}

func TestInsightHealthCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/health") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"overall":85,"categories":{"legal":85,"financial":100,"compliance":100,"operational":100}}`))
	}))
	defer server.Close()

	out, err := runCommand(t, server, "insight", "health", "rec-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Overall health: 85/100") {
		t.Errorf("output = %q", out)
	}
}

func TestCompareCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"similarities":["Both are NDAs"],"recommendations":["Prefer document 2"]}`))
	}))
	defer server.Close()

	out, err := runCommand(t, server, "compare", "rec-1", "rec-2")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Both are NDAs") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "1. Prefer document 2") {
		t.Errorf("output = %q", out)
	}
}

func TestCompareCommandAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"COMMON_002","message":"cannot compare a document to itself"}`))
	}))
	defer server.Close()

	_, err := runCommand(t, server, "compare", "rec-1", "rec-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "cannot compare a document to itself") {
		t.Errorf("error = %v", err)
	}
}
