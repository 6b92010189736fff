package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "czar/internal/core/app"
	"czar/internal/core/config"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func runIn(t *testing.T, dir string, args ...string) (int, string, string) {
	t.Helper()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestValidateOptions(t *testing.T) {
	if err := validateOptions(cliOptions{}); err == nil || !strings.Contains(err.Error(), "no input files") {
		t.Fatalf("expected missing input error, got %v", err)
	}
	if err := validateOptions(cliOptions{ui: true, args: []string{"a.cz"}}); err == nil || !strings.Contains(err.Error(), "-ui requires -watch") {
		t.Fatalf("expected -ui error, got %v", err)
	}
	if err := validateOptions(cliOptions{watch: true}); err != nil {
		t.Fatalf("watch without paths should default to cwd: %v", err)
	}
}

func TestParseOptions(t *testing.T) {
	var out bytes.Buffer
	opts, err := parseOptions([]string{"-no-cache", "-verbose", "a.cz", "b.cz"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.noCache || !opts.verbose || len(opts.args) != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := parseOptions([]string{"-bogus"}, &out); err == nil {
		t.Fatal("expected unknown flag error")
	}
	if !strings.Contains(out.String(), "usage: cz") {
		t.Fatalf("expected usage output, got %q", out.String())
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runIn(t, t.TempDir(), "-version")
	if code != 0 || stdout != "cz v"+versionString+"\n" {
		t.Fatalf("unexpected version output: %d %q", code, stdout)
	}
}

func TestRun_TranslatesInputs(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "foo.cz", "int x = 1;\n")

	code, stdout, stderr := runIn(t, dir, "foo.cz")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	if !strings.Contains(stdout, "foo.cz.h foo.cz.c\n") {
		t.Fatalf("expected output names, got %q", stdout)
	}
	for _, name := range []string{"foo.cz.h", "foo.cz.c"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRun_ReportsWarningsOnStdout(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "warn.cz", "i32 f() {\n    return 1;\n}\n")

	code, stdout, _ := runIn(t, dir, "warn.cz")
	if code != 0 {
		t.Fatalf("warnings must not fail the build, got %d", code)
	}
	want := "[CZAR] WARNING at warn.cz:1: empty parameter list in 'f'; use 'f(void)'\n    > i32 f() {\n"
	if !strings.Contains(stdout, want) {
		t.Fatalf("expected warning %q in %q", want, stdout)
	}
	if !strings.Contains(stdout, "warn.cz.h warn.cz.c\n") {
		t.Fatalf("expected output names, got %q", stdout)
	}
}

func TestRun_FatalErrorExitsOneAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "bad.cz", "u8 x;\n")
	writeInput(t, dir, "good.cz", "int y = 2;\n")

	code, stdout, stderr := runIn(t, dir, "bad.cz", "good.cz")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "[CZAR] ERROR at bad.cz:1: ") || !strings.Contains(stderr, "must be explicitly initialized") {
		t.Fatalf("expected fatal diagnostic on stderr, got %q", stderr)
	}
	if !strings.Contains(stderr, "\n    > u8 x;\n") {
		t.Fatalf("expected source echo, got %q", stderr)
	}
	if !strings.Contains(stdout, "good.cz.h good.cz.c\n") {
		t.Fatalf("expected remaining input translated, got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.cz.h")); !os.IsNotExist(err) {
		t.Fatalf("no output expected for failed input, stat err %v", err)
	}
}

func TestRun_MissingInput(t *testing.T) {
	code, _, stderr := runIn(t, t.TempDir(), "nope.cz")
	if code != 1 || !strings.Contains(stderr, "input not found") {
		t.Fatalf("unexpected result: %d %q", code, stderr)
	}
}

func TestRun_UsesConfigOutputDir(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "foo.cz", "int x = 1;\n")
	writeInput(t, dir, "cz.toml", "version = 1\n[output]\ndir = \"gen\"\n")

	code, stdout, stderr := runIn(t, dir, "foo.cz")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (%q)", code, stderr)
	}
	want := filepath.Join("gen", "foo.cz.h") + " " + filepath.Join("gen", "foo.cz.c") + "\n"
	if !strings.Contains(stdout, want) {
		t.Fatalf("expected %q, got %q", want, stdout)
	}
}

func TestHealthEndpoint(t *testing.T) {
	a, err := coreapp.New(config.DefaultConfig())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(NewObservabilityServer("", coreapp.NewHealthService(a)).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status coreapp.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Components["translator"] != "ok" {
		t.Fatalf("unexpected components: %v", status.Components)
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", metrics.StatusCode)
	}

	if err := NewObservabilityServer("", nil).Stop(context.Background()); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
}

func TestResolveLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := resolveLogPath(); got != filepath.Join("/tmp/state", "czar", "cz.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}
