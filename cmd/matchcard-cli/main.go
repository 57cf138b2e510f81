package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-matchcard/internal/app"
	"github.com/goliatone/go-matchcard/pkg/config"
	"github.com/goliatone/go-matchcard/pkg/logging"
	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/registration"
	"github.com/goliatone/go-matchcard/pkg/render"
	"github.com/goliatone/go-matchcard/pkg/renderers/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (defaults to matchcard.yaml in . or ./config)")
	locale := flag.String("locale", "", "prompt language (defaults to app.locale)")
	outDir := flag.String("out", "", "directory for the PNG card (asked when empty)")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configPath, *locale, *outDir, *verbose); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "matchcard-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, locale, outDir string, verbose bool) error {
	var options []config.Option
	if configPath != "" {
		options = append(options, config.WithConfigFile(configPath))
	}
	cfg, err := config.Load(options...)
	if err != nil {
		return err
	}

	logger := logging.OrNop(nil)
	if verbose {
		if logger, err = logging.New("development", cfg.Log.Level); err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	stack, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	path, err := session(ctx, stack, tui.NewSurveyDriver(os.Stdout), locale, outDir)
	if err != nil {
		return err
	}
	opts := stack.Service.RenderOptions(locale)
	fmt.Fprintln(os.Stdout, render.Translate(opts, "tui.saved", "saved: %s", path))
	return nil
}

// session prompts for every field, submits the answers and writes the card.
// It returns the written path.
func session(ctx context.Context, stack *app.App, driver tui.PromptDriver, locale, outDir string) (string, error) {
	svc := stack.Service
	photoOptions := svc.PhotoOptions()

	renderer, err := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithFieldValidator(svc.Validator()),
		tui.WithPhotoCheck(func(ctx context.Context, path string) error {
			_, err := readPhoto(ctx, path, photoOptions)
			return err
		}),
		tui.WithConfirmation(true),
		tui.WithOutputFormat(tui.OutputFormatJSON),
	)
	if err != nil {
		return "", err
	}

	form, err := stack.Orchestrator.Form(ctx)
	if err != nil {
		return "", err
	}
	opts := svc.RenderOptions(locale)
	opts.Values = make(map[string]any)
	for key, value := range registrant.Defaults() {
		opts.Values[key] = value
	}

	raw, err := renderer.Render(ctx, form, opts)
	if err != nil {
		return "", err
	}
	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		return "", fmt.Errorf("decode answers: %w", err)
	}

	portrait, photoErr := readPhoto(ctx, values[registrant.FieldPhoto], photoOptions)
	outcome, err := svc.Submit(ctx, registration.Submission{
		Locale:   opts.Locale,
		Values:   values,
		Photo:    portrait,
		PhotoErr: photoErr,
	})
	if err != nil {
		return "", err
	}
	if !outcome.Valid {
		var problems []string
		for _, issue := range outcome.Issues {
			problems = append(problems, issue.Field+": "+issue.Message)
		}
		return "", fmt.Errorf("registration rejected: %s", strings.Join(problems, "; "))
	}

	if outDir == "" {
		outDir, err = driver.Input(ctx, tui.InputConfig{
			Message: render.Translate(opts, "tui.outputPath", "Save the image to"),
			Default: ".",
		})
		if err != nil {
			return "", err
		}
	}

	exp, err := svc.Export(ctx, registration.ExportRequest{
		Locale:       opts.Locale,
		Registrant:   outcome.Registrant,
		Photo:        outcome.Photo,
		RegisteredAt: outcome.RegisteredAt,
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(strings.TrimSpace(outDir), exp.Filename)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return "", fmt.Errorf("write card: %w", err)
	}
	return path, nil
}

func readPhoto(ctx context.Context, path string, options []photo.Option) (photo.Photo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return photo.Photo{}, photo.ErrMissing
	}
	f, err := os.Open(path)
	if err != nil {
		return photo.Photo{}, fmt.Errorf("%w: %v", photo.ErrInvalid, err)
	}
	defer f.Close()
	return photo.Decode(ctx, f, options...)
}
