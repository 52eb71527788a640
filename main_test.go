package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	badScene := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(badScene, []byte(`<Tracer><Options><Width>8</Width></Options></Tracer>`), 0644); err != nil {
		t.Fatal(err)
	}
	badProfile := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badProfile, []byte(`{"samples": 0}`), 0644); err != nil {
		t.Fatal(err)
	}
	brokenProfile := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(brokenProfile, []byte(`{"samples": `), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"no arguments", nil, exitParseError},
		{"two scenes", []string{"builtin:shadow", "builtin:cornell"}, exitParseError},
		{"unknown flag", []string{"-frobnicate", "builtin:shadow"}, exitParseError},
		{"help", []string{"-h"}, exitOK},
		{"unknown builtin", []string{"builtin:teapot", "-o", filepath.Join(dir, "x.png")}, exitParseError},
		{"malformed scene", []string{badScene, "-o", filepath.Join(dir, "x.png")}, exitParseError},
		{"missing scene file", []string{filepath.Join(dir, "missing.xml")}, exitIOError},
		{"unsupported output", []string{"builtin:shadow", "-o", filepath.Join(dir, "x.gif")}, exitParseError},
		{"invalid profile option", []string{"builtin:shadow", "-config", badProfile, "-o", filepath.Join(dir, "x.png")}, exitParseError},
		{"malformed profile", []string{"builtin:shadow", "-config", brokenProfile, "-o", filepath.Join(dir, "x.png")}, exitParseError},
		{"missing profile", []string{"builtin:shadow", "-config", filepath.Join(dir, "none.json")}, exitIOError},
		{"unwritable output", []string{"builtin:shadow", "-s", "1", "-o", filepath.Join(dir, "no", "such", "dir.png")}, exitIOError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d\nstderr: %s", tt.wantCode, code, stderr.String())
			}
		})
	}
}

func TestRunRendersImage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "shadow.png")

	profile := filepath.Join(dir, "small.json")
	if err := os.WriteFile(profile, []byte(`{"width": 32, "height": 24, "seed": 3}`), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	args := []string{"builtin:shadow", "-o", out, "-s", "1", "-j", "2", "-config", profile}
	if code := run(context.Background(), args, &stdout, &stderr); code != exitOK {
		t.Fatalf("Expected success, got exit code %d\nstderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), out) {
		t.Errorf("Expected the output path to be reported, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "sampler seed 3") {
		t.Errorf("Expected worker seeds to be logged, got %q", stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("Decode output: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 24 {
		t.Errorf("Expected a 32x24 png, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestRunSceneFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.ppm")
	scenePath := filepath.Join("scenes", "shadow.xml")

	var stdout, stderr bytes.Buffer
	args := []string{scenePath, "-o", out, "-s", "1", "-config", writeProfile(t, `{"width": 16, "height": 12}`)}
	if code := run(context.Background(), args, &stdout, &stderr); code != exitOK {
		t.Fatalf("Expected success, got exit code %d\nstderr: %s", code, stderr.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	header := "P6\n16 12\n255\n"
	if !strings.HasPrefix(string(data), header) || len(data) != len(header)+16*12*3 {
		t.Errorf("Unexpected PPM output: %d bytes, header %q", len(data), string(data[:min(len(data), len(header))]))
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "out.png")
	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{"builtin:shadow", "-o", out}, &stdout, &stderr); code != exitParseError {
		t.Errorf("Expected exit code %d for a cancelled render, got %d", exitParseError, code)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("Expected no output for a cancelled render")
	}
}

func TestRunList(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-list"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("Expected success, got %d", code)
	}
	for _, name := range []string{"builtin:cornell", "builtin:shadow", "builtin:spheres"} {
		if !strings.Contains(stdout.String(), name) {
			t.Errorf("Expected %s in the listing, got %q", name, stdout.String())
		}
	}
}

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
