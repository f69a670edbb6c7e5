package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/1broseidon/xveil/internal/auth"
	"github.com/1broseidon/xveil/internal/config"
	"github.com/1broseidon/xveil/internal/filter"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		debug, verbose int
		want           slog.Level
	}{
		{0, 0, slog.LevelWarn},
		{0, 1, slog.LevelInfo},
		{0, -1, slog.LevelError},
		{1, -1, slog.LevelDebug},
		{2, 0, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := logLevel(tt.debug, tt.verbose); got != tt.want {
			t.Fatalf("logLevel(%d, %d) = %v, want %v", tt.debug, tt.verbose, got, tt.want)
		}
	}
}

func TestBuildVerifier_ConfiguredHash(t *testing.T) {
	hash, err := auth.GenerateHash([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateHash: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Hash = hash

	lookup := func(int) (auth.Account, error) {
		t.Fatalf("lookup called although a hash is configured")
		return auth.Account{}, nil
	}
	v, err := buildVerifier(cfg, lookup, discardLogger())
	if err != nil {
		t.Fatalf("buildVerifier: %v", err)
	}
	if !v.Verify([]byte("hunter2")) {
		t.Fatalf("expected the configured password to verify")
	}
	if v.Verify([]byte("hunter3")) {
		t.Fatalf("expected a wrong password to fail")
	}
}

func TestBuildVerifier_AccountHash(t *testing.T) {
	hash, err := auth.GenerateCryptHash([]byte("swordfish"), "saltsalt")
	if err != nil {
		t.Fatalf("GenerateCryptHash: %v", err)
	}
	lookup := func(uid int) (auth.Account, error) {
		return auth.Account{Name: "alice", UID: uid, Hash: hash}, nil
	}
	v, err := buildVerifier(config.DefaultConfig(), lookup, discardLogger())
	if err != nil {
		t.Fatalf("buildVerifier: %v", err)
	}
	if !v.Verify([]byte("swordfish")) {
		t.Fatalf("expected the account password to verify")
	}
}

func TestBuildVerifier_NoPassword(t *testing.T) {
	lookup := func(int) (auth.Account, error) {
		return auth.Account{}, auth.ErrNoPassword
	}

	cfg := config.DefaultConfig()
	if _, err := buildVerifier(cfg, lookup, discardLogger()); !errors.Is(err, auth.ErrNoPassword) {
		t.Fatalf("expected ErrNoPassword, got %v", err)
	}

	cfg.Debug = 1
	v, err := buildVerifier(cfg, lookup, discardLogger())
	if err != nil {
		t.Fatalf("debug buildVerifier: %v", err)
	}
	if v.Verify([]byte("anything")) {
		t.Fatalf("expected the debug fallback to deny every password")
	}
}

func TestBuildVerifier_UnsupportedHash(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Hash = "$y$j9T$abc$def"
	if _, err := buildVerifier(cfg, nil, discardLogger()); !errors.Is(err, auth.ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	t.Setenv("DISPLAY", ":7")
	cfg := config.DefaultConfig()
	if got := displayName(cfg); got != ":7" {
		t.Fatalf("displayName = %q, want :7", got)
	}
	cfg.Display = ":1"
	if got := displayName(cfg); got != ":1" {
		t.Fatalf("displayName = %q, want :1", got)
	}
}

func TestResolveConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("timeout: 400\nborder: 8\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.LogFileEnv, filepath.Join(dir, "xveil.log"))

	o, err := config.ParseFlags("xveil", []string{"-config", path, "-B", "3", "-G"}, io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	res, err := resolveConfig(o)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	cfg := res.Config
	if cfg.Timeout != 400 {
		t.Fatalf("timeout = %d, want 400 from file", cfg.Timeout)
	}
	if cfg.Border != 3 {
		t.Fatalf("border = %d, want 3 from flag", cfg.Border)
	}
	if cfg.Journal.File != filepath.Join(dir, "xveil.log") {
		t.Fatalf("journal.file = %q, want env value", cfg.Journal.File)
	}
	if len(cfg.Filters) != 1 || cfg.Filters[0] != "grey" {
		t.Fatalf("filters = %v, want [grey]", cfg.Filters)
	}
}

func TestResolveConfig_FlagValidation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	o, err := config.ParseFlags("xveil", []string{"-T", "-5"}, io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	_, err = resolveConfig(o)
	if err == nil || !strings.Contains(err.Error(), "flag timeout") {
		t.Fatalf("expected an error naming the timeout flag, got %v", err)
	}
}

func TestMakeHash(t *testing.T) {
	hash, err := makeHash([]byte("secret"), hashOptions{cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("makeHash bcrypt: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")) != nil {
		t.Fatalf("bcrypt hash does not match its password")
	}

	hash, err = makeHash([]byte("secret"), hashOptions{crypt: true, salt: "abcdefgh"})
	if err != nil {
		t.Fatalf("makeHash crypt: %v", err)
	}
	if !strings.HasPrefix(hash, "$6$abcdefgh$") {
		t.Fatalf("crypt hash = %q, want $6$abcdefgh$ prefix", hash)
	}

	if _, err := makeHash(nil, hashOptions{}); err == nil {
		t.Fatalf("expected an error for an empty password")
	}
	if _, err := makeHash(bytes.Repeat([]byte("x"), auth.SecretSize), hashOptions{}); err == nil {
		t.Fatalf("expected an error for an overlong password")
	}
	if _, err := makeHash([]byte("secret"), hashOptions{salt: "abc"}); err == nil {
		t.Fatalf("expected -salt without -crypt to fail")
	}
}

func TestReadPasswordLine(t *testing.T) {
	got, err := readPasswordLine(strings.NewReader("pa ss\r\nignored\n"))
	if err != nil {
		t.Fatalf("readPasswordLine: %v", err)
	}
	if string(got) != "pa ss" {
		t.Fatalf("got %q, want %q", got, "pa ss")
	}
	if _, err := readPasswordLine(strings.NewReader("")); err == nil {
		t.Fatalf("expected an error for empty input")
	}
}

func TestPreview_AppliesPipeline(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("encode input: %v", err)
	}

	pipeline, err := filter.ParsePipeline([]string{"invert"})
	if err != nil {
		t.Fatalf("ParsePipeline: %v", err)
	}
	var out bytes.Buffer
	if err := preview(&in, &out, pipeline); err != nil {
		t.Fatalf("preview: %v", err)
	}

	got, err := png.Decode(&out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("output bounds = %v, want 4x2", b)
	}
	r, g, b, _ := got.At(1, 1).RGBA()
	if r>>8 != 245 || g>>8 != 235 || b>>8 != 225 {
		t.Fatalf("pixel = (%d,%d,%d), want inverted (245,235,225)", r>>8, g>>8, b>>8)
	}
}

func TestPreview_RejectsGarbage(t *testing.T) {
	err := preview(strings.NewReader("not an image"), io.Discard, nil)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestRunConfig_PrintDefaults(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runConfigTo(&stdout, &stderr, []string{"print", "--defaults"}); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "timeout: 250") {
		t.Fatalf("yaml output missing timeout:\n%s", stdout.String())
	}

	stdout.Reset()
	if code := runConfigTo(&stdout, &stderr, []string{"print", "--defaults", "--format", "toml"}); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "timeout = 250") {
		t.Fatalf("toml output missing timeout:\n%s", stdout.String())
	}
}

func TestRunConfig_Explain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("border: 9\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := runConfigTo(&stdout, &stderr, []string{"explain", "--config", path, "border"}); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, ":1:9") || !strings.Contains(out, "9\n") {
		t.Fatalf("unexpected explain output:\n%s", out)
	}
}

func TestRunConfig_Errors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runConfigTo(&stdout, &stderr, nil); code != 2 {
		t.Fatalf("no subcommand: exit %d, want 2", code)
	}
	if code := runConfigTo(&stdout, &stderr, []string{"frobnicate"}); code != 2 {
		t.Fatalf("unknown subcommand: exit %d, want 2", code)
	}
	if code := runConfigTo(&stdout, &stderr, []string{"explain"}); code != 2 {
		t.Fatalf("explain without path: exit %d, want 2", code)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("border: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	stderr.Reset()
	if code := runConfigTo(&stdout, &stderr, []string{"validate", "--config", path}); code != 1 {
		t.Fatalf("invalid config: exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "border") {
		t.Fatalf("expected the error to name border, got %q", stderr.String())
	}
}
