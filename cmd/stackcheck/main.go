package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/xyproto/env/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	stackverifier "github.com/wippyai/stack-verifier"
	"github.com/wippyai/stack-verifier/diag"
	"github.com/wippyai/stack-verifier/program"
	"github.com/wippyai/stack-verifier/verify"
	"github.com/wippyai/stack-verifier/wasmfx"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitBadUsage = 2
)

type config struct {
	programFile string
	wasmFile    string
	params      string
	results     string
	method      string
	color       string
	logLevel    string
	trace       bool
	interactive bool
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(exitOK)
	}
	if err != nil {
		os.Exit(exitBadUsage)
	}

	color, err := colorEnabled(cfg.color, func() bool { return term.IsTerminal(int(os.Stdout.Fd())) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitBadUsage)
	}

	os.Exit(run(cfg, color, os.Stdout, os.Stderr))
}

// parseConfig reads flags. STACKCHECK_COLOR and STACKCHECK_LOG supply the
// defaults for -color and -log.
func parseConfig(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("stackcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.programFile, "program", "", "Path to a YAML instruction stream")
	fs.StringVar(&cfg.wasmFile, "wasm", "", "Path to a flat WebAssembly text function body")
	fs.StringVar(&cfg.params, "params", "", "Function params for -wasm (e.g. i32,i64)")
	fs.StringVar(&cfg.results, "results", "", "Function results for -wasm")
	fs.StringVar(&cfg.method, "method", "", "Name used in messages (defaults to the program's method or file name)")
	fs.StringVar(&cfg.color, "color", env.Str("STACKCHECK_COLOR", "auto"), "Color output: auto, always, never")
	fs.StringVar(&cfg.logLevel, "log", env.Str("STACKCHECK_LOG", "warn"), "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.trace, "trace", false, "Print every transition")
	fs.BoolVar(&cfg.interactive, "i", false, "Interactive mode with TUI")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: stackcheck -program <file.yaml> [-method name] [-trace] [-i]")
		fmt.Fprintln(stderr, "       stackcheck -wasm <file.wat> [-params i32,...] [-results i32,...] [-trace] [-i]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if (cfg.programFile == "") == (cfg.wasmFile == "") {
		fs.Usage()
		return cfg, fmt.Errorf("exactly one of -program and -wasm is required")
	}
	return cfg, nil
}

func colorEnabled(mode string, isTerminal func() bool) (bool, error) {
	switch strings.ToLower(mode) {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return isTerminal(), nil
	}
	return false, fmt.Errorf("unknown color mode %q", mode)
}

func newLogger(level, runID string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("run_id", runID)), nil
}

func loadSource(cfg config) (stackverifier.Source, string, error) {
	if cfg.programFile != "" {
		p, err := program.Load(cfg.programFile)
		if err != nil {
			return nil, "", err
		}
		method := cfg.method
		if method == "" {
			method = p.Method
		}
		return p, method, nil
	}

	params, err := wasmfx.ParseValueTypes(cfg.params)
	if err != nil {
		return nil, "", err
	}
	results, err := wasmfx.ParseValueTypes(cfg.results)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(cfg.wasmFile)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	method := cfg.method
	if method == "" {
		method = strings.TrimSuffix(filepath.Base(cfg.wasmFile), filepath.Ext(cfg.wasmFile))
	}
	fn, err := wasmfx.Compile(method, wasmfx.Signature{Params: params, Results: results}, string(data))
	if err != nil {
		return nil, "", err
	}
	return fn, method, nil
}

func run(cfg config, color bool, stdout, stderr io.Writer) int {
	runID := uuid.New().String()
	logger, err := newLogger(cfg.logLevel, runID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitBadUsage
	}
	defer logger.Sync()

	src, method, err := loadSource(cfg)
	if err != nil {
		logger.Error("load failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitBadUsage
	}
	logger.Info("verifying",
		zap.String("method", method),
		zap.Int("instructions", src.Len()))

	opts := src.Options()
	opts.Logger = logger
	res, v, err := verify.Verify(src, opts)
	if err != nil {
		logger.Error("verification aborted", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitBadUsage
	}

	listing := src.Listing()
	if cfg.trace {
		printTrace(stdout, v.Trace(), listing)
	}

	if cfg.interactive {
		if err := runInteractive(method, res, v.Trace(), listing); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitBadUsage
		}
	}

	if verify.IsSuccess(res) {
		fmt.Fprintf(stdout, "%s: ok (%d instructions, max stack depth %d)\n",
			method, src.Len(), v.MaxStackDepth())
		if unreached := v.Unreached(); len(unreached) > 0 {
			logger.Warn("unreachable instructions", zap.Ints("instructions", unreached))
		}
		return exitOK
	}

	de := diag.NewError(method, res, listing)
	if color {
		de.Renderer.Style = diag.Colored()
	}
	logger.Info("verification failed",
		zap.String("kind", string(de.Kind())),
		zap.Int("instruction", de.Instruction()))
	fmt.Fprintln(stdout, de.Error())
	fmt.Fprintln(stdout)
	fmt.Fprint(stdout, de.Details())
	return exitFailed
}

// printTrace writes one line per transition: its index, the instruction
// and the stack before and after.
func printTrace(w io.Writer, trace *verify.Trace, listing []string) {
	width := 0
	for _, l := range listing {
		if n := runewidth.StringWidth(l); n > width {
			width = n
		}
	}
	for _, tr := range trace.Transitions() {
		text := ""
		if tr.Instruction < len(listing) {
			text = listing[tr.Instruction]
		}
		fmt.Fprintf(w, "%4d  %4d  %s  %s -> %s\n",
			tr.Index, tr.Instruction, runewidth.FillRight(text, width), tr.Before, tr.After)
	}
}
