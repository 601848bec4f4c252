package execute

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fakePiston(t *testing.T, respond func(req pistonRequest) pistonResponse) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pistonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad sandbox request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(respond(req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSuccess(t *testing.T) {
	srv := fakePiston(t, func(req pistonRequest) pistonResponse {
		if req.Language != "python" || req.Version != "3.10" {
			t.Errorf("sandbox got language %s/%s", req.Language, req.Version)
		}
		if len(req.Files) != 1 || req.Files[0].Name != "main.py" {
			t.Errorf("sandbox got files %+v", req.Files)
		}
		return pistonResponse{Run: pistonStage{Stdout: "hello\n"}}
	})

	r := NewRunner(srv.URL, 5*time.Second, nil)
	res, err := r.Run(context.Background(), "print('hello')", "python")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != "hello" {
		t.Errorf("output = %q", res.Output)
	}
	if res.Error != "" {
		t.Errorf("error = %q", res.Error)
	}
	if res.ExecutionTime < 0 {
		t.Errorf("executionTime = %f", res.ExecutionTime)
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	r := NewRunner("http://invalid.example", time.Second, nil)
	_, err := r.Run(context.Background(), "x", "brainfuck")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
	if !strings.Contains(err.Error(), "python") {
		t.Errorf("error should list supported languages: %v", err)
	}
}

func TestRunCombinesCompileAndRuntimeErrors(t *testing.T) {
	srv := fakePiston(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{
			Run:     pistonStage{Stdout: "partial", Stderr: "boom"},
			Compile: &pistonStage{Stdout: "linking", Stderr: "warning: unused"},
		}
	})

	r := NewRunner(srv.URL, 5*time.Second, nil)
	res, err := r.Run(context.Background(), "broken", "cpp")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Output, "Compile Output:\nlinking") || !strings.Contains(res.Output, "partial") {
		t.Errorf("output = %q", res.Output)
	}
	if !strings.Contains(res.Error, "Compile Error:\nwarning: unused") {
		t.Errorf("error missing compile stderr: %q", res.Error)
	}
	if !strings.Contains(res.Error, "Runtime Error:\nboom") {
		t.Errorf("error missing runtime stderr: %q", res.Error)
	}
}

func TestRunNoOutput(t *testing.T) {
	srv := fakePiston(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{}
	})

	r := NewRunner(srv.URL, 5*time.Second, nil)
	res, err := r.Run(context.Background(), "pass", "python")
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != "(No output)" {
		t.Errorf("output = %q", res.Output)
	}
}

func TestRunServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sandbox on fire", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRunner(srv.URL, 5*time.Second, nil)
	res, err := r.Run(context.Background(), "x", "python")
	if err != nil {
		t.Fatalf("service errors should come back inside the result: %v", err)
	}
	if !strings.Contains(res.Error, "Execution service error") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestRunTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	r := NewRunner(srv.URL, 50*time.Millisecond, nil)
	res, err := r.Run(context.Background(), "while True: pass", "python")
	if err != nil {
		t.Fatalf("timeouts should come back inside the result: %v", err)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestSupportedLanguagesSorted(t *testing.T) {
	langs := SupportedLanguages()
	if len(langs) != len(languageMap) {
		t.Fatalf("got %d languages, want %d", len(langs), len(languageMap))
	}
	for i := 1; i < len(langs); i++ {
		if langs[i-1] >= langs[i] {
			t.Fatalf("languages not sorted: %v", langs)
		}
	}
}
