// Command coursegen generates courses from the command line and writes them
// as JSON, YAML or Excel workbooks. With -briefs it generates one course per
// brief file found under a directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/KartikyaSokhal/CourseCraft/internal/app"
	"github.com/KartikyaSokhal/CourseCraft/internal/brief"
	"github.com/KartikyaSokhal/CourseCraft/internal/coursegen"
	"github.com/KartikyaSokhal/CourseCraft/internal/export"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("coursegen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		prompt  = fs.String("prompt", "", "what the course should teach (required unless -briefs is set)")
		lessons = fs.Int("lessons", coursegen.DefaultLessons, "number of lessons")
		days    = fs.Int("days", coursegen.DefaultDurationDays, "course duration in days")
		format  = fs.String("format", "json", "output format: json, yaml or xlsx")
		out     = fs.String("out", "", "output file (default stdout)")
		envFile = fs.String("env", "", "env file to load before reading COURSECRAFT_ variables")
		user    = fs.String("as", "cli", "requester name used for token budgets")
		briefs  = fs.String("briefs", "", "directory of course briefs to generate in bulk; -out names the output directory")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	req := coursegen.Request{Prompt: *prompt, Lessons: *lessons, DurationDays: *days, RequestedBy: *user}
	if *briefs == "" {
		if err := req.Validate(); err != nil {
			fmt.Fprintln(stderr, err)
			fs.Usage()
			return 2
		}
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	slog.SetDefault(app.NewLogger(cfg.Log, stderr))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return 1
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		return 1
	}
	defer a.Close()

	if *briefs != "" {
		return runBriefs(ctx, a.Pipeline, *briefs, *out, *user, f, stderr)
	}

	res, err := a.Pipeline.Generate(ctx, req)
	if err != nil {
		reportError(stderr, "", err)
		return 1
	}

	if err := writeResult(*out, stdout, f, res); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	slog.Info("course generated",
		"run_id", res.RunID,
		"title", res.Course.Title,
		"lessons", len(res.Course.Lessons),
		"used_fallback", res.UsedFallback,
	)
	return 0
}

// runBriefs generates every brief under dir, writing <out>/<id>.<ext>. A failed
// brief is reported and the rest still run.
func runBriefs(ctx context.Context, p *coursegen.Pipeline, dir, out, user string, f export.Format, stderr io.Writer) int {
	loader, err := brief.NewLoader(dir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if out == "" {
		out = "."
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	failed := 0
	for _, b := range loader.All() {
		if ctx.Err() != nil {
			fmt.Fprintln(stderr, ctx.Err())
			return 1
		}
		req := b.Request()
		if req.RequestedBy == "" {
			req.RequestedBy = user
		}
		res, err := p.Generate(ctx, req)
		if err != nil {
			reportError(stderr, b.ID, err)
			failed++
			continue
		}
		path := filepath.Join(out, b.ID+"."+f.Extension())
		if err := writeResult(path, nil, f, res); err != nil {
			reportError(stderr, b.ID, err)
			failed++
			continue
		}
		slog.Info("course generated", "brief", b.ID, "run_id", res.RunID, "path", path, "used_fallback", res.UsedFallback)
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d brief(s) failed\n", failed)
		return 1
	}
	return 0
}

func reportError(w io.Writer, id string, err error) {
	if id != "" {
		fmt.Fprintf(w, "%s: ", id)
	}
	var genErr *coursegen.GenerationError
	if errors.As(err, &genErr) && genErr.RawArtifactRef != "" {
		fmt.Fprintf(w, "%s (raw response: %s)\n", genErr.Message, genErr.RawArtifactRef)
		return
	}
	fmt.Fprintln(w, err)
}

func writeResult(path string, stdout io.Writer, f export.Format, res *coursegen.Result) error {
	if path == "" {
		return export.Write(stdout, f, res)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := export.Write(file, f, res); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
