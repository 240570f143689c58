package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
	"github.com/funvibe/concepts/internal/metrics"
	"github.com/funvibe/concepts/internal/pipeline"
	"github.com/funvibe/concepts/internal/server"
)

// Exit codes
const (
	exitOK          = 0
	exitUnsatisfied = 1
	exitError       = 2
)

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) int
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"eval":    {"evaluate concept queries", (*app).eval},
		"explain": {"show why a query holds or fails", (*app).explain},
		"list":    {"list the concepts of the library", (*app).list},
		"demo":    {"run the demonstration battery", (*app).demo},
		"check":   {"validate or instantiate configured algorithms", (*app).check},
		"gotype":  {"evaluate a concept over Go package types", (*app).gotype},
		"serve":   {"run the HTTP and gRPC servers", (*app).serve},
	}
}

type app struct {
	stdout, stderr io.Writer
	lookupEnv      func(string) (string, bool)

	configPath string
	remote     string
	logLevel   string
	json       bool
	color      bool

	runID  string
	logger *slog.Logger
}

func run(ctx context.Context, args []string, lookupEnv func(string) (string, bool), stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, lookupEnv: lookupEnv, runID: uuid.NewString()}

	fs := flag.NewFlagSet("conceptcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&a.configPath, "config", "", "configuration file (default: discover "+config.ConfigFileName+")")
	fs.StringVar(&a.remote, "remote", "", "evaluate against a conceptcheck gRPC server at this address")
	fs.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&a.json, "json", false, "print results as JSON")
	noColor := fs.Bool("no-color", false, "disable coloured output")
	fs.Usage = func() { a.usage(fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	_, noColorEnv := lookupEnv("NO_COLOR")
	config.NoColor = *noColor || noColorEnv
	a.color = !config.NoColor && isTerminal(stdout)

	if fs.NArg() == 0 {
		a.usage(fs)
		return exitError
	}
	name := fs.Arg(0)
	if name == "help" {
		a.usage(fs)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		a.usage(fs)
		return exitError
	}
	return cmd.run(a, ctx, fs.Args()[1:])
}

func (a *app) usage(fs *flag.FlagSet) {
	fmt.Fprintln(a.stderr, "Usage: conceptcheck [flags] <command> [args]")
	fmt.Fprintln(a.stderr, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.stderr, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(a.stderr, "\nFlags:")
	fs.PrintDefaults()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadConfig reads the configuration file, or discovers one from the
// working directory, and applies the environment.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(a.lookupEnv); err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return nil, err
		}
		cfg.LogLevel = a.logLevel
	}
	return cfg, nil
}

func (a *app) newLogger(cfg *config.Config, jsonFormat bool) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(a.stderr, opts)
	} else {
		h = slog.NewTextHandler(a.stderr, opts)
	}
	return slog.New(h).With("run", a.runID)
}

// setup runs the configuration pipeline. The caller closes the result.
func (a *app) setup(ctx context.Context, m *metrics.Metrics, jsonLogs bool) (*pipeline.PipelineContext, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	a.logger = a.newLogger(cfg, jsonLogs)

	pctx := pipeline.NewContext(ctx, cfg, a.logger)
	pctx.Metrics = m
	pctx = pipeline.Default().Run(pctx)
	if err := pctx.Err(); err != nil {
		pctx.Close()
		return nil, err
	}
	a.logger.Debug("environment ready", "fingerprint", pctx.Universe.Fingerprint(), "concepts", pctx.Library.Len())
	return pctx, nil
}

// backend answers queries in process or through a remote server.
type backend interface {
	EvaluateQueries(ctx context.Context, queries []string) ([]concepts.Verdict, error)
	ListConcepts(ctx context.Context, hidden bool) ([]server.ConceptInfo, error)
	Instantiate(ctx context.Context, algorithm string, args ...string) (server.InstanceInfo, error)
	Close() error
}

type localBackend struct {
	svc  *server.Service
	pctx *pipeline.PipelineContext
}

func (b *localBackend) EvaluateQueries(ctx context.Context, queries []string) ([]concepts.Verdict, error) {
	return b.svc.EvaluateQueries(ctx, queries)
}

func (b *localBackend) ListConcepts(_ context.Context, hidden bool) ([]server.ConceptInfo, error) {
	return b.svc.Concepts(hidden), nil
}

func (b *localBackend) Instantiate(ctx context.Context, algorithm string, args ...string) (server.InstanceInfo, error) {
	return b.svc.Instantiate(ctx, algorithm, args)
}

func (b *localBackend) Close() error { return b.pctx.Close() }

type remoteBackend struct {
	*server.Client
	conn *grpc.ClientConn
}

func (b *remoteBackend) EvaluateQueries(ctx context.Context, queries []string) ([]concepts.Verdict, error) {
	return b.EvaluateBatch(ctx, queries)
}

func (b *remoteBackend) Close() error { return b.conn.Close() }

func (a *app) backend(ctx context.Context) (backend, error) {
	if a.remote != "" {
		conn, err := grpc.NewClient(a.remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", a.remote, err)
		}
		return &remoteBackend{Client: server.NewClient(conn), conn: conn}, nil
	}
	pctx, err := a.setup(ctx, nil, false)
	if err != nil {
		return nil, err
	}
	svc := server.NewService(pctx.Engine, pctx.Checker, pctx.Module, server.WithLogger(a.logger))
	return &localBackend{svc: svc, pctx: pctx}, nil
}

// fail reports err and returns the error exit code.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "%s %s\n", a.paint(red, "error:"), err)
	return exitError
}

func (a *app) writeJSON(v interface{}) int {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return a.fail(err)
	}
	return exitOK
}

// ANSI colours
const (
	red   = "31"
	green = "32"
	dim   = "2"
	bold  = "1"
)

func (a *app) paint(color, s string) string {
	if !a.color {
		return s
	}
	return "\x1b[" + color + "m" + s + "\x1b[0m"
}

func (a *app) mark(ok bool) string {
	if ok {
		return a.paint(green, "✓")
	}
	return a.paint(red, "✗")
}

func (a *app) printVerdict(v concepts.Verdict) {
	if v.Satisfied || v.Failure == nil {
		fmt.Fprintf(a.stdout, "%s %s\n", a.mark(v.Satisfied), v.Query())
		return
	}
	fmt.Fprintf(a.stdout, "%s %s %s\n", a.mark(false), v.Query(), a.paint(dim, "("+v.Failure.String()+")"))
}

// printFailure renders the failure chain as an indented tree.
func (a *app) printFailure(f *concepts.Failure, depth int) {
	for cur := f; cur != nil; cur = cur.Cause {
		line := strings.Repeat("  ", depth) + cur.Subject
		if cur.Cause == nil && cur.Reason != "" {
			line += ": " + a.paint(red, cur.Reason)
		}
		fmt.Fprintln(a.stdout, line)
		depth++
	}
}
