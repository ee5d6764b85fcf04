package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/stack-verifier/types"
	"github.com/wippyai/stack-verifier/verify"
)

func TestParseConfig_EnvDefaults(t *testing.T) {
	t.Setenv("STACKCHECK_COLOR", "never")
	t.Setenv("STACKCHECK_LOG", "debug")

	cfg, err := parseConfig([]string{"-program", "x.yaml"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.color != "never" || cfg.logLevel != "debug" {
		t.Errorf("color = %q, log = %q", cfg.color, cfg.logLevel)
	}
}

func TestParseConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("STACKCHECK_COLOR", "never")

	cfg, err := parseConfig([]string{"-wasm", "f.wat", "-color", "always", "-params", "i32"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.color != "always" {
		t.Errorf("color = %q", cfg.color)
	}
	if cfg.wasmFile != "f.wat" || cfg.params != "i32" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	t.Setenv("STACKCHECK_COLOR", "")
	t.Setenv("STACKCHECK_LOG", "")

	cfg, err := parseConfig([]string{"-program", "x.yaml"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.color != "auto" || cfg.logLevel != "warn" {
		t.Errorf("color = %q, log = %q", cfg.color, cfg.logLevel)
	}
}

func TestParseConfig_Source(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-program", "a.yaml", "-wasm", "b.wat"},
	} {
		if _, err := parseConfig(args, io.Discard); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestColorEnabled(t *testing.T) {
	tty := func() bool { return true }
	pipe := func() bool { return false }

	tests := []struct {
		mode   string
		isTerm func() bool
		want   bool
	}{
		{"always", pipe, true},
		{"never", tty, false},
		{"auto", tty, true},
		{"auto", pipe, false},
		{"", tty, true},
		{"NEVER", tty, false},
	}
	for _, tt := range tests {
		got, err := colorEnabled(tt.mode, tt.isTerm)
		if err != nil {
			t.Errorf("%q: %v", tt.mode, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.mode, got, tt.want)
		}
	}

	if _, err := colorEnabled("sometimes", tty); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func runWith(t *testing.T, cfg config) (int, string, string) {
	t.Helper()
	if cfg.logLevel == "" {
		cfg.logLevel = "error"
	}
	var stdout, stderr bytes.Buffer
	code := run(cfg, false, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Program(t *testing.T) {
	code, out, _ := runWith(t, config{programFile: filepath.Join("testdata", "ok.yaml")})
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	if out != "Identity: ok (1 instructions, max stack depth 1)\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_ProgramFailure(t *testing.T) {
	code, out, _ := runWith(t, config{programFile: filepath.Join("testdata", "underflow.yaml")})
	if code != exitFailed {
		t.Fatalf("exit = %d", code)
	}
	if !strings.HasPrefix(out, "Add expects 2 values on the stack\n") {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(out, "add      // relevant instruction") {
		t.Errorf("missing annotation:\n%s", out)
	}
}

func TestRun_MethodOverride(t *testing.T) {
	_, out, _ := runWith(t, config{programFile: filepath.Join("testdata", "underflow.yaml"), method: "Sum"})
	if !strings.HasPrefix(out, "Sum expects 2 values") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_Wasm(t *testing.T) {
	cfg := config{
		wasmFile: filepath.Join("testdata", "add.wat"),
		params:   "i32,i32",
		results:  "i32",
		trace:    true,
	}
	code, out, _ := runWith(t, cfg)
	if code != exitOK {
		t.Fatalf("exit = %d\n%s", code, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 4 trace lines and a summary, got:\n%s", out)
	}
	if !strings.Contains(lines[2], "i32.add") || !strings.Contains(lines[2], "[i32, i32] -> [i32]") {
		t.Errorf("trace line = %q", lines[2])
	}
	if lines[4] != "add: ok (4 instructions, max stack depth 2)" {
		t.Errorf("summary = %q", lines[4])
	}
}

func TestRun_WasmMissingResult(t *testing.T) {
	code, out, _ := runWith(t, config{wasmFile: filepath.Join("testdata", "add.wat"), params: "i32,i32"})
	if code != exitFailed {
		t.Fatalf("exit = %d", code)
	}
	if !strings.HasPrefix(out, "add expected the stack to be empty\n") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_OperationalErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config
	}{
		{"missing file", config{programFile: filepath.Join("testdata", "missing.yaml")}},
		{"bad wasm", config{wasmFile: filepath.Join("testdata", "broken.wat")}},
		{"bad params", config{wasmFile: filepath.Join("testdata", "add.wat"), params: "i33"}},
		{"bad log level", config{programFile: filepath.Join("testdata", "ok.yaml"), logLevel: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runWith(t, tt.cfg)
			if code != exitBadUsage {
				t.Errorf("exit = %d", code)
			}
			if !strings.Contains(errOut, "Error:") {
				t.Errorf("stderr = %q", errOut)
			}
		})
	}
}

func TestInteractiveModel_Steps(t *testing.T) {
	effects := verify.Effects{
		verify.Op(nil, "int32"),
		verify.Op(nil, "int32"),
		verify.Op([]types.Type{"int32", "int32"}, "int32"),
	}
	res, v, err := verify.Verify(effects, verify.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	m := newInteractiveModel("Sum", res, v.Trace(), []string{"ldc 1", "ldc 2", "add"})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if got := m.currentInstruction(); got != 0 {
		t.Fatalf("start at %d", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.currentInstruction(); got != 2 {
		t.Errorf("after three steps at %d", got)
	}

	view := m.View()
	for _, part := range []string{"Sum", "3/3", "[int32, int32]", "Sum: verified"} {
		if !strings.Contains(view, part) {
			t.Errorf("view missing %q:\n%s", part, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.currentInstruction(); got != 1 {
		t.Errorf("after step back at %d", got)
	}
}
