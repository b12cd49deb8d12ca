package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bdtdharvest/internal/config"
	"bdtdharvest/internal/export"
	"bdtdharvest/internal/extract"
	"bdtdharvest/internal/fetch"
	"bdtdharvest/internal/harvest"
	"bdtdharvest/internal/logging"
	"bdtdharvest/internal/ports"
	"bdtdharvest/internal/progress"
	"bdtdharvest/internal/usecase"
)

// Application wires config into the pipeline and output writers.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	csv      ports.TableWriter
	excel    ports.TableWriter
}

// New builds a runnable application instance. The output directory
// tree is created here so every worker can assume it exists.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = fmt.Sprintf("BDTD (%s)", cfg.SearchTerm)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	pdfDir := filepath.Join(cfg.OutputDir, "pdf")
	if cfg.GetPDFs {
		if err := os.MkdirAll(pdfDir, 0o755); err != nil {
			return nil, fmt.Errorf("create pdf dir: %w", err)
		}
	}

	fetcher := fetch.New(fetch.Options{
		Headers:       cfg.Headers(),
		Timeout:       cfg.Timeout.Std(),
		MaxRetries:    cfg.MaxRetries,
		Interval:      cfg.Interval.Std(),
		RetryInterval: cfg.RetryInterval.Std(),
		Insecure:      cfg.Insecure,
	}, baseLogger.With("component", "fetcher"))

	search, err := extract.NewSearchExtractor(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	pipeline := usecase.NewPipeline(cfg, usecase.Deps{
		Fetcher:   fetcher,
		Search:    search,
		Details:   extract.NewDetailExtractor(),
		Harvester: harvest.New(fetcher, pdfDir, baseLogger.With("component", "harvester")),
		Observers: func(message string) ports.Observer { return progress.NewBar(message) },
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger.With("component", "app"),
		pipeline: pipeline,
		csv:      export.CSVWriter{Dir: cfg.OutputDir},
		excel:    export.ExcelWriter{Dir: cfg.OutputDir},
	}, nil
}

// Run executes the pipeline and persists its tables.
func (a *Application) Run(ctx context.Context) error {
	result, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if err := a.csv.Write("data-search", result.Search); err != nil {
		return err
	}
	if a.cfg.GetDetails {
		if err := a.csv.Write("data-records", result.Details); err != nil {
			return err
		}
	}
	if a.cfg.GetPDFs {
		if err := a.csv.Write("data-pdfs", result.PDFs); err != nil {
			return err
		}
	}

	merged := a.csv
	if a.cfg.Excel {
		merged = a.excel
	}
	if err := merged.Write("data", result.Merged); err != nil {
		return err
	}

	export.Preview(os.Stdout, result.Merged, 10)
	a.logger.Info("harvest complete",
		"records", len(result.Merged.Rows), "output", a.cfg.OutputDir)
	return nil
}
