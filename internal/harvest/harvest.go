// Package harvest downloads the documents linked from a record's
// full-text page into the output directory.
package harvest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bdtdharvest/internal/extract"
	"bdtdharvest/internal/ports"
)

// Input pairs a record with its full-text page.
type Input struct {
	RecordID    string
	FulltextURL string
}

// Harvester fetches a record's full-text page, collects PDF links, and
// saves each reachable document. The output directory must exist
// before any batch starts; concurrent records never collide because
// filenames derive from the record ID.
type Harvester struct {
	fetcher ports.Fetcher
	dir     string
	logger  *slog.Logger
}

// New wires the fetcher and target directory.
func New(fetcher ports.Fetcher, dir string, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{fetcher: fetcher, dir: dir, logger: logger}
}

// HarvestRecord returns the filenames saved for one record. Every
// failure along the way is logged and skipped; the result is simply
// shorter. A failed page fetch yields no files at all.
func (h *Harvester) HarvestRecord(ctx context.Context, in Input) []string {
	page := h.fetcher.Get(ctx, in.FulltextURL)
	if !page.OK() {
		h.logger.Warn("full-text page fetch failed",
			"record", in.RecordID, "url", in.FulltextURL, "error", page.Err)
		return nil
	}

	links, err := ScanLinks(page.Body, page.FinalURL)
	if err != nil {
		h.logger.Warn("full-text page scan failed",
			"record", in.RecordID, "url", in.FulltextURL, "error", err)
		return nil
	}

	var saved []string
	for i, link := range links {
		res := h.fetcher.Get(ctx, link)
		if !res.OK() || res.StatusCode != http.StatusOK || len(res.Body) == 0 {
			h.logger.Warn("document fetch failed",
				"record", in.RecordID, "url", link, "error", res.Err)
			continue
		}

		name := fmt.Sprintf("%s_%d.pdf", in.RecordID, i)
		if err := os.WriteFile(filepath.Join(h.dir, name), res.Body, 0o644); err != nil {
			h.logger.Warn("document write failed",
				"record", in.RecordID, "file", name, "error", err)
			continue
		}
		saved = append(saved, name)
	}

	return saved
}

// ScanLinks collects every hyperlink whose target contains ".pdf"
// case-insensitively. Root-relative targets are resolved against the
// origin of finalURL, which after redirects may differ from the host
// the record page was requested from.
func ScanLinks(body []byte, finalURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse full-text page: %w", err)
	}

	origin, err := extract.Origin(finalURL)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		target, ok := a.Attr("href")
		if !ok || !strings.Contains(strings.ToLower(target), ".pdf") {
			return
		}
		if strings.HasPrefix(target, "/") {
			target = origin + target
		}
		links = append(links, target)
	})

	return links, nil
}
