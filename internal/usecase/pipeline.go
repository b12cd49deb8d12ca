package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bdtdharvest/internal/config"
	"bdtdharvest/internal/domain"
	"bdtdharvest/internal/extract"
	"bdtdharvest/internal/harvest"
	"bdtdharvest/internal/pool"
	"bdtdharvest/internal/ports"
)

// ObserverFactory creates one progress observer per batch, labeled
// with the batch description.
type ObserverFactory func(message string) ports.Observer

// Deps wires all collaborators into the pipeline.
type Deps struct {
	Fetcher   ports.Fetcher
	Search    *extract.SearchExtractor
	Details   *extract.DetailExtractor
	Harvester *harvest.Harvester
	Observers ObserverFactory
	Logger    *slog.Logger
}

// Result carries the pipeline's logical tables. Merged is the outer
// join of the other three on record ID, missing cells filled with "".
type Result struct {
	Search  domain.Table
	Details domain.Table
	PDFs    domain.Table
	Merged  domain.Table
}

// Pipeline sequences page discovery, result fetching, detail fetching,
// and document harvesting into one merged table.
type Pipeline struct {
	cfg       config.Config
	fetcher   ports.Fetcher
	search    *extract.SearchExtractor
	details   *extract.DetailExtractor
	harvester *harvest.Harvester
	observers ObserverFactory
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(cfg config.Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observers := deps.Observers
	if observers == nil {
		observers = func(string) ports.Observer { return pool.NopObserver{} }
	}
	return &Pipeline{
		cfg:       cfg,
		fetcher:   deps.Fetcher,
		search:    deps.Search,
		details:   deps.Details,
		harvester: deps.Harvester,
		observers: observers,
		logger:    logger,
	}
}

// Run executes the full harvest. Per-page and per-record failures are
// logged and skipped; only failing to reach the repository at all (no
// first page, no page-count override) aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	pages, err := p.discoverPages(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Info("search pages resolved", "pages", pages, "term", p.cfg.SearchTerm)

	records, err := p.fetchSearchPages(ctx, pages)
	if err != nil {
		return nil, err
	}
	p.logger.Info("search records extracted", "records", len(records))

	result := &Result{Search: domain.SearchTable(records)}

	if p.cfg.GetDetails {
		details := p.fetchDetails(ctx, records)
		result.Details = domain.DetailTable(details, "Detalhes_")
		p.logger.Info("record details extracted", "records", len(details))
	}

	if p.cfg.GetPDFs {
		manifest, order := p.harvestDocuments(ctx, records)
		result.PDFs = domain.ManifestTable(manifest, order)
		p.logger.Info("documents harvested", "records_with_files", len(manifest))
	}

	result.Merged = domain.OuterJoin(result.Search, result.Details, result.PDFs)
	return result, nil
}

// discoverPages honors an explicit page cap; otherwise it fetches page
// 1 and reads the pagination control, falling back to a single page
// when the control is absent (zero-result or single-page searches).
func (p *Pipeline) discoverPages(ctx context.Context) (int, error) {
	if p.cfg.MaxPages > 0 {
		return p.cfg.MaxPages, nil
	}

	firstURL, err := extract.BuildSearchURL(p.cfg.BaseURL, p.cfg.SearchTerm, p.cfg.SearchType, 1)
	if err != nil {
		return 0, err
	}

	res := p.fetcher.Get(ctx, firstURL)
	if !res.OK() {
		return 0, fmt.Errorf("fetch first results page: %w", res.Err)
	}

	pages, err := extract.MaxSearchPages(res.Body)
	if errors.Is(err, extract.ErrNoPagination) {
		p.logger.Warn("no pagination control, assuming single page", "url", firstURL)
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("discover page count: %w", err)
	}
	return pages, nil
}

func (p *Pipeline) fetchSearchPages(ctx context.Context, pages int) ([]domain.SearchRecord, error) {
	urls := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		u, err := extract.BuildSearchURL(p.cfg.BaseURL, p.cfg.SearchTerm, p.cfg.SearchType, page)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}

	responses := pool.Map(ctx, p.cfg.Workers, urls, p.fetcher.Get,
		p.observers("Requisitando dados de busca"))

	var records []domain.SearchRecord
	for i, res := range responses {
		if !res.OK() {
			p.logger.Warn("results page skipped", "url", urls[i], "error", res.Err)
			continue
		}
		pageRecords, err := p.search.Extract(res.Body)
		if err != nil {
			p.logger.Warn("results page extraction failed", "url", urls[i], "error", err)
			continue
		}
		records = append(records, pageRecords...)
	}
	return records, nil
}

func (p *Pipeline) fetchDetails(ctx context.Context, records []domain.SearchRecord) []domain.RecordDetail {
	urls := make([]string, 0, len(records))
	for _, rec := range records {
		u, err := extract.BuildRecordURL(p.cfg.BaseURL, rec.ID)
		if err != nil {
			p.logger.Warn("record url skipped", "record", rec.ID, "error", err)
			continue
		}
		urls = append(urls, u)
	}

	responses := pool.Map(ctx, p.cfg.Workers, urls, p.fetcher.Get,
		p.observers("Requisitando detalhes dos registros"))

	var details []domain.RecordDetail
	for i, res := range responses {
		if !res.OK() {
			p.logger.Warn("detail page skipped", "url", urls[i], "error", res.Err)
			continue
		}
		detail, err := p.details.Extract(res.Body, res.FinalURL)
		if err != nil {
			p.logger.Warn("detail extraction failed", "url", urls[i], "error", err)
			continue
		}
		details = append(details, detail)
	}
	return details
}

// harvestDocuments runs the per-record harvest through the pool and
// merges the positional results into one manifest afterwards, so no
// shared state is touched from worker goroutines.
func (p *Pipeline) harvestDocuments(ctx context.Context, records []domain.SearchRecord) (domain.DocumentManifest, []string) {
	inputs := make([]harvest.Input, len(records))
	order := make([]string, len(records))
	for i, rec := range records {
		inputs[i] = harvest.Input{RecordID: rec.ID, FulltextURL: rec.FulltextURL}
		order[i] = rec.ID
	}

	files := pool.Map(ctx, p.cfg.Workers, inputs, p.harvester.HarvestRecord,
		p.observers("Requisitando arquivos PDF"))

	manifest := domain.DocumentManifest{}
	for i, names := range files {
		if len(names) > 0 {
			manifest[inputs[i].RecordID] = names
		}
	}
	return manifest, order
}
