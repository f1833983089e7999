package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/graphcrm/graphcrm/internal/auth"
)

const sampleKey = "crm_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

func TestRun_HashArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(strings.NewReader(""), &stdout, &stderr, false, "env", []string{sampleKey}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	line := strings.TrimSpace(stdout.String())
	if !strings.HasPrefix(line, "API_KEY_HASH='$argon2id$") || !strings.HasSuffix(line, "'") {
		t.Fatalf("unexpected output %q", line)
	}
	hash := strings.TrimSuffix(strings.TrimPrefix(line, "API_KEY_HASH='"), "'")

	ok, err := auth.VerifyKey(sampleKey, hash)
	if err != nil || !ok {
		t.Errorf("VerifyKey() = %v, %v; want true", ok, err)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected warning %q", stderr.String())
	}
}

func TestRun_HashStdinWarnsOnUnusualFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(strings.NewReader("  my-own-key\n"), &stdout, &stderr, false, "json", nil); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var out output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Key != "" {
		t.Errorf("key echoed back: %q", out.Key)
	}
	if ok, _ := auth.VerifyKey("my-own-key", out.Hash); !ok {
		t.Error("hash does not verify trimmed stdin key")
	}
	if !strings.Contains(stderr.String(), "warning") {
		t.Errorf("expected format warning, got %q", stderr.String())
	}
}

func TestRun_Generate(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(strings.NewReader(""), &stdout, &bytes.Buffer{}, true, "env", nil); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", stdout.String())
	}
	key := strings.TrimPrefix(lines[0], "API_KEY=")
	if !auth.ValidateKeyFormat(key) {
		t.Errorf("generated key %q has wrong format", key)
	}
	hash := strings.Trim(strings.TrimPrefix(lines[1], "API_KEY_HASH="), "'")
	if ok, _ := auth.VerifyKey(key, hash); !ok {
		t.Error("generated hash does not verify generated key")
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		stdin  string
		format string
		args   []string
	}{
		{"no key", "", "env", nil},
		{"blank stdin", "   \n", "env", nil},
		{"two args", "", "env", []string{"a", "b"}},
		{"bad format", "", "yaml", []string{sampleKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(strings.NewReader(tt.stdin), &bytes.Buffer{}, &bytes.Buffer{}, false, tt.format, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
