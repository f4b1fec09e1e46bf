package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/SteveDakota/xfory/internal/config"
)

func TestVersionOutput(t *testing.T) {
	cfg = config.DefaultConfig()

	output := captureOutput(t, func() {
		versionCmd.Run(versionCmd, nil)
	})

	if !strings.Contains(output, "xfory 1.0.0") {
		t.Fatalf("expected version line, got: %s", output)
	}
}

func TestRunGenerateNotConfigured(t *testing.T) {
	cfg = config.DefaultConfig()
	logger = zap.NewNop()

	err := runGenerate(generateCmd, nil)
	if err == nil {
		t.Fatal("expected a configuration error with no API key set")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected the error to name the missing key, got: %v", err)
	}
}

func TestRunGenerateOneShot(t *testing.T) {
	// Stand in for an OpenAI-compatible endpoint.
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"content":"{\"summary\":\"Uber for dog grooming.\",\"quip\":\"Sit. Stay. Invoice.\"}"}}]}`)
	}))
	defer backendSrv.Close()

	cfg = config.DefaultConfig()
	cfg.Backend.Provider = "openai"
	cfg.Backend.APIKey = "test-key"
	cfg.Backend.BaseURL = backendSrv.URL
	cfg.Backend.Model = "gpt-4o-mini"
	logger = zap.NewNop()

	generateCmd.Flags().Set("app", "Uber")
	generateCmd.Flags().Set("niche", "dog grooming")
	generateCmd.Flags().Set("quip", "true")

	output := captureOutput(t, func() {
		if err := runGenerate(generateCmd, nil); err != nil {
			t.Errorf("runGenerate returned error: %v", err)
		}
	})

	var pitch struct {
		Summary string `json:"summary"`
		Quip    string `json:"quip"`
	}
	if err := json.Unmarshal([]byte(output), &pitch); err != nil {
		t.Fatalf("output is not JSON: %v\noutput: %s", err, output)
	}
	if pitch.Summary != "Uber for dog grooming." {
		t.Fatalf("summary = %q", pitch.Summary)
	}
	if pitch.Quip != "Sit. Stay. Invoice." {
		t.Fatalf("quip = %q", pitch.Quip)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	rOut, wOut, _ := os.Pipe()
	os.Stdout = wOut

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	os.Stdout = origOut
	return <-done
}
