// Package generator runs one conversion end to end: decode, optional strict
// validation, filtering and redaction, conversion, rendering, and history.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/oas2postman/internal/config"
	"github.com/yourorg/oas2postman/internal/convert"
	"github.com/yourorg/oas2postman/internal/filter"
	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
	"github.com/yourorg/oas2postman/internal/store"
	"github.com/yourorg/oas2postman/pkg/types"
)

// ProgressFunc reports generation progress.
type ProgressFunc func(stage string)

// Request describes one conversion.
type Request struct {
	// Source is types.SourceCLI or types.SourceHTTP.
	Source string
	// Input labels the document in errors and history.
	Input string
	Data  []byte
	// Output is the file to write. Empty means the caller handles the bytes.
	Output string
	// BaseURL and Format override the config when set.
	BaseURL string
	Format  string
	Strict  bool
}

// Outcome is a finished conversion.
type Outcome struct {
	Run    *types.Run
	Result *convert.Result
	// Data is the rendered collection.
	Data []byte
}

// Options carries the collaborators of Generate. All fields are optional.
type Options struct {
	Store      store.Store
	Logger     *slog.Logger
	OnProgress ProgressFunc
}

// Generate converts req.Data into a collection. When a store is given the
// run is recorded, failed runs included.
func Generate(ctx context.Context, req Request, cfg *config.Config, opts Options) (*Outcome, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	format := req.Format
	if format == "" {
		format = cfg.Convert.OutputFormat
	}
	format, err := postman.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	run := &types.Run{Source: req.Source, Input: req.Input, Output: req.Output, Format: format}
	out, err := generate(ctx, req, cfg, format, run, opts)
	if err != nil {
		run.Status = types.StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = types.StatusOK
	}

	if opts.Store != nil {
		var data []byte
		if out != nil {
			data = out.Data
		}
		if serr := opts.Store.CreateRun(run, data); serr != nil {
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("record run: %w", serr)
		}
		logDebug(opts.Logger, "run recorded", "id", run.ID, "status", run.Status)
	}
	if err != nil {
		return nil, err
	}
	out.Run = run
	return out, nil
}

func generate(ctx context.Context, req Request, cfg *config.Config, format string, run *types.Run, opts Options) (*Outcome, error) {
	report(opts.OnProgress, "parsing "+req.Input)
	doc, err := openapi.Parse(req.Data, req.Input)
	if err != nil {
		return nil, err
	}
	if doc.Info != nil {
		run.Title = doc.Info.Title
	}
	run.OpenAPIVersion = doc.OpenAPI

	if req.Strict || cfg.Convert.Strict {
		report(opts.OnProgress, "validating")
		if err := openapi.ValidateStrict(ctx, req.Data, req.Input); err != nil {
			return nil, err
		}
	}

	rules, err := filter.NewRules(cfg.Filter)
	if err != nil {
		return nil, err
	}
	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = cfg.Convert.BaseURL
	}
	convOpts := []convert.Option{
		convert.WithBaseURL(baseURL),
		convert.WithLogger(opts.Logger),
		convert.WithStableID(cfg.Convert.StableID),
		convert.WithExporterID(cfg.Convert.ExporterID),
	}
	if !rules.Empty() {
		convOpts = append(convOpts, convert.WithFilter(rules))
	}
	if s := filter.NewSanitizer(cfg.Sanitize); s != nil {
		convOpts = append(convOpts, convert.WithRedactor(s))
	}

	report(opts.OnProgress, "converting")
	res, err := convert.New(convOpts...).Convert(doc)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		report(opts.OnProgress, "warning: "+w)
	}
	run.BaseURL = res.BaseURL
	run.CollectionID = res.Collection.Info.PostmanID
	run.FolderCount = res.Stats.Folders
	run.RequestCount = res.Stats.Requests
	run.ItemCount = res.Stats.Items
	run.SkippedCount = res.Stats.Skipped
	run.Warnings = res.Warnings

	data, err := postman.Marshal(res.Collection, format, cfg.Convert.Indent)
	if err != nil {
		return nil, fmt.Errorf("render collection: %w", err)
	}
	if req.Output != "" {
		report(opts.OnProgress, "writing "+req.Output)
		if err := postman.Write(req.Output, data); err != nil {
			return nil, fmt.Errorf("write %s: %w", req.Output, err)
		}
	}
	logInfo(opts.Logger, "collection generated",
		"input", req.Input, "folders", res.Stats.Folders, "requests", res.Stats.Requests, "skipped", res.Stats.Skipped)
	return &Outcome{Result: res, Data: data}, nil
}

func report(fn ProgressFunc, msg string) {
	if fn != nil {
		fn(msg)
	}
}

func logInfo(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Info(msg, args...)
	}
}

func logDebug(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Debug(msg, args...)
	}
}
