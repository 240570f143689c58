package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	gotoken "go/token"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/constraints"
	"github.com/funvibe/concepts/internal/gotypes"
	"github.com/funvibe/concepts/internal/metrics"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/server"
	"github.com/funvibe/concepts/internal/store"
	"github.com/funvibe/concepts/internal/typesystem"
	"github.com/funvibe/concepts/pkg/generic"
)

func (a *app) flags(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: conceptcheck %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags returns false with the exit code when parsing stops the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitError, false
	}
	return exitOK, true
}

func (a *app) eval(ctx context.Context, args []string) int {
	fs := a.flags("eval", "QUERY...")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitError
	}

	b, err := a.backend(ctx)
	if err != nil {
		return a.fail(err)
	}
	defer b.Close()

	verdicts, err := b.EvaluateQueries(ctx, fs.Args())
	if err != nil {
		return a.fail(err)
	}
	code := exitOK
	for _, v := range verdicts {
		if !v.Satisfied {
			code = exitUnsatisfied
		}
	}
	if a.json {
		if c := a.writeJSON(verdicts); c != exitOK {
			return c
		}
		return code
	}
	for _, v := range verdicts {
		a.printVerdict(v)
	}
	return code
}

func (a *app) explain(ctx context.Context, args []string) int {
	fs := a.flags("explain", "QUERY")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitError
	}

	b, err := a.backend(ctx)
	if err != nil {
		return a.fail(err)
	}
	defer b.Close()

	verdicts, err := b.EvaluateQueries(ctx, fs.Args())
	if err != nil {
		return a.fail(err)
	}
	v := verdicts[0]
	all, err := b.ListConcepts(ctx, true)
	if err != nil {
		return a.fail(err)
	}
	var info server.ConceptInfo
	for _, c := range all {
		if c.Name == v.Concept {
			info = c
		}
	}

	goName := goConstraint(v.Concept)
	if a.json {
		return a.writeJSON(struct {
			Concept      server.ConceptInfo `json:"concept"`
			GoConstraint string             `json:"go_constraint,omitempty"`
			Verdict      concepts.Verdict   `json:"verdict"`
		}{info, goName, v})
	}

	state := a.paint(green, "satisfied")
	if !v.Satisfied {
		state = a.paint(red, "not satisfied")
	}
	fmt.Fprintf(a.stdout, "%s %s\n", a.paint(bold, v.Query()), state)
	fmt.Fprintf(a.stdout, "  %s\n", info.Signature)
	if info.Doc != "" {
		fmt.Fprintf(a.stdout, "  %s\n", a.paint(dim, info.Doc))
	}
	if goName != "" {
		fmt.Fprintf(a.stdout, "  Go constraint: %s\n", goName)
	}
	if v.Failure != nil {
		fmt.Fprintln(a.stdout, "because:")
		a.printFailure(v.Failure, 1)
		return exitUnsatisfied
	}
	return exitOK
}

func (a *app) list(ctx context.Context, args []string) int {
	fs := a.flags("list", "[-hidden]")
	hidden := fs.Bool("hidden", false, "include helper concepts")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	b, err := a.backend(ctx)
	if err != nil {
		return a.fail(err)
	}
	defer b.Close()

	infos, err := b.ListConcepts(ctx, *hidden)
	if err != nil {
		return a.fail(err)
	}
	if a.json {
		return a.writeJSON(infos)
	}
	for _, c := range infos {
		line := fmt.Sprintf("%-40s %s", c.Head, a.paint(dim, c.Layer))
		if goName := goConstraint(c.Name); goName != "" {
			line += "  " + goName
		}
		fmt.Fprintln(a.stdout, line)
	}
	return exitOK
}

// goConstraint names the pkg/generic constraint admitting the same Go
// types as concept, or "" when there is none.
func goConstraint(concept string) string {
	name, ok := generic.Counterparts[concept]
	if !ok {
		return ""
	}
	if gotoken.IsExported(name) {
		return "generic." + name
	}
	return name
}

func (a *app) demo(ctx context.Context, args []string) int {
	fs := a.flags("demo", "")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	b, err := a.backend(ctx)
	if err != nil {
		return a.fail(err)
	}
	defer b.Close()

	queries := make([]string, len(battery))
	for i, c := range battery {
		queries[i] = c.query
	}
	verdicts, err := b.EvaluateQueries(ctx, queries)
	if err != nil {
		return a.fail(err)
	}

	code := exitOK
	section := ""
	for i, v := range verdicts {
		c := battery[i]
		if c.section != section {
			section = c.section
			fmt.Fprintf(a.stdout, "\n%s\n", a.paint(bold, section))
		}
		a.printVerdict(v)
		if v.Satisfied != c.want {
			fmt.Fprintf(a.stdout, "  %s expected %t\n", a.paint(red, "unexpected:"), c.want)
			code = exitUnsatisfied
		}
	}
	return code
}

func (a *app) check(ctx context.Context, args []string) int {
	fs := a.flags("check", "[ALGORITHM TYPE...]")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 1 {
		fs.Usage()
		return exitError
	}
	if fs.NArg() > 1 {
		return a.instantiate(ctx, fs.Arg(0), fs.Args()[1:])
	}

	if a.remote != "" {
		return a.fail(errors.New("check without arguments validates local algorithm files; drop -remote"))
	}
	pctx, err := a.setup(ctx, nil, false)
	if err != nil {
		return a.fail(err)
	}
	defer pctx.Close()

	if len(pctx.Module.Algorithms) == 0 {
		fmt.Fprintln(a.stdout, "no algorithms configured")
		return exitOK
	}
	code := exitOK
	for _, alg := range pctx.Module.Algorithms {
		if err := pctx.Checker.Validate(alg); err != nil {
			fmt.Fprintf(a.stdout, "%s %s\n", a.mark(false), err)
			code = exitError
			continue
		}
		fmt.Fprintf(a.stdout, "%s %s: %s\n", a.mark(true), alg.Name, alg.Signature)
	}
	return code
}

func (a *app) instantiate(ctx context.Context, name string, args []string) int {
	b, err := a.backend(ctx)
	if err != nil {
		return a.fail(err)
	}
	defer b.Close()

	inst, err := b.Instantiate(ctx, name, args...)
	var unmet *constraints.UnmetConstraintError
	switch {
	case errors.As(err, &unmet):
		fmt.Fprintf(a.stdout, "%s %s\n", a.mark(false), unmet)
		if unmet.Verdict.Failure != nil {
			a.printFailure(unmet.Verdict.Failure, 1)
		}
		return exitUnsatisfied
	case status.Code(err) == codes.FailedPrecondition:
		fmt.Fprintf(a.stdout, "%s %s\n", a.mark(false), status.Convert(err).Message())
		return exitUnsatisfied
	case err != nil:
		return a.fail(err)
	}
	if a.json {
		return a.writeJSON(inst)
	}
	fmt.Fprintf(a.stdout, "%s %s<%s>: %s\n", a.mark(true), inst.Algorithm, strings.Join(inst.Args, ", "), inst.Signature)
	for _, v := range inst.Verdicts {
		fmt.Fprintf(a.stdout, "  %s\n", v.Query())
	}
	return exitOK
}

func (a *app) gotype(ctx context.Context, args []string) int {
	fs := a.flags("gotype", "PATTERN [CONCEPT TYPE...]")
	dir := fs.String("dir", ".", "directory the package pattern is relative to")
	showYAML := fs.Bool("yaml", false, "print the imported catalog instead of evaluating")
	verbose := fs.Bool("v", false, "list declarations that were not imported")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 || (!*showYAML && fs.NArg() < 3) {
		fs.Usage()
		return exitError
	}

	imports, err := gotypes.Load(ctx, *dir, fs.Arg(0))
	if err != nil {
		return a.fail(err)
	}
	if *verbose {
		for _, imp := range imports {
			for _, s := range imp.Skipped {
				fmt.Fprintf(a.stderr, "%s: skipped %s\n", imp.Path, s)
			}
		}
	}
	if *showYAML {
		for _, imp := range imports {
			data, err := imp.YAML()
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.stdout, "# %s\n%s", imp.Path, data)
		}
		return exitOK
	}

	pctx, err := a.setup(ctx, nil, false)
	if err != nil {
		return a.fail(err)
	}
	defer pctx.Close()

	u, err := gotypes.InstallAll(pctx.Universe, imports)
	if err != nil {
		return a.fail(err)
	}
	opts := []concepts.Option{concepts.WithLogger(a.logger)}
	if pctx.Store != nil {
		opts = append(opts, concepts.WithStore(pctx.Store))
	}
	engine := concepts.NewEngine(pctx.Library, u, opts...)

	types := make([]typesystem.Type, 0, fs.NArg()-2)
	for _, arg := range fs.Args()[2:] {
		t, err := parser.ParseType(arg)
		if err != nil {
			return a.fail(err)
		}
		types = append(types, t)
	}
	v, err := engine.EvaluateContext(ctx, fs.Arg(1), types...)
	if err != nil {
		return a.fail(err)
	}
	if a.json {
		if c := a.writeJSON(v); c != exitOK {
			return c
		}
	} else {
		a.printVerdict(v)
	}
	if !v.Satisfied {
		return exitUnsatisfied
	}
	return exitOK
}

func (a *app) serve(ctx context.Context, args []string) int {
	fs := a.flags("serve", "[-http ADDR] [-grpc ADDR]")
	httpAddr := fs.String("http", "", "HTTP listen address, overriding the configuration")
	grpcAddr := fs.String("grpc", "", "gRPC listen address, overriding the configuration")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	pctx, err := a.setup(ctx, m, true)
	if err != nil {
		return a.fail(err)
	}
	defer pctx.Close()

	cfg := pctx.Config.Server
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *grpcAddr != "" {
		cfg.GRPCAddr = *grpcAddr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcOpts := []server.Option{server.WithMetrics(m), server.WithLogger(a.logger)}
	if hc, ok := pctx.Store.(store.HealthChecker); ok {
		svcOpts = append(svcOpts, server.WithHealthCheck("store", hc.Health))
	}
	svc := server.NewService(pctx.Engine, pctx.Checker, pctx.Module, svcOpts...)
	a.logger.Info("serving", "concepts", pctx.Library.Len(), "algorithms", len(pctx.Module.Algorithms), "store", pctx.Config.Store.Kind)
	if err := svc.Serve(ctx, cfg, reg); err != nil {
		return a.fail(err)
	}
	a.logger.Info("stopped")
	return exitOK
}
