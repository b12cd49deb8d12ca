package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bdtdharvest/internal/domain"
)

// ErrNoPagination signals a page-1 response without the pagination
// control, which happens on zero-result and single-page searches. The
// caller decides the fallback.
var ErrNoPagination = errors.New("pagination control not found")

// authorSeparator is the run of spaces the repository renders between
// the author name and trailing role annotations.
const authorSeparator = "     "

// SearchExtractor turns results-page markup into search records.
// Extraction per page is all-or-nothing: one malformed entry fails the
// page, so a silently half-parsed result list can never propagate.
type SearchExtractor struct {
	origin string
	rules  []FieldRule
}

// NewSearchExtractor derives the origin used to absolutize record and
// author links from the configured base URL.
func NewSearchExtractor(baseURL string) (*SearchExtractor, error) {
	origin, err := Origin(baseURL)
	if err != nil {
		return nil, fmt.Errorf("search extractor: %w", err)
	}
	e := &SearchExtractor{origin: origin}
	e.rules = []FieldRule{
		{Name: "Tipo", Selector: "span.format2", Value: text},
		{Name: "Título", Selector: "a.title.getFull", Value: text},
		{Name: "Autoria", Selector: "div#rowAutor", Value: authorName},
		{Name: "Data de defesa", Selector: "div#datePublish", Value: defenseDate},
		{Name: "URL", Selector: "a.title.getFull", Value: e.absoluteHref},
		{Name: "URL (Autoria)", Selector: "div#rowAutor", Value: e.authorHref},
		{Name: "URL (Texto)", Selector: "a.fulltext", Value: href},
	}
	return e, nil
}

// Extract parses one results page. It returns one record per
// `div.media` entry block, or an error naming the first field whose
// landmark is missing.
func (e *SearchExtractor) Extract(body []byte) ([]domain.SearchRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	order := newDocOrder(doc)
	var records []domain.SearchRecord

	entries := doc.Find("div.media")
	for i := range entries.Nodes {
		entry := entries.Eq(i)
		fields, err := order.apply(doc, entry, e.rules)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		rec := domain.SearchRecord{
			Type:        fields["Tipo"],
			Title:       fields["Título"],
			Author:      fields["Autoria"],
			DefenseDate: fields["Data de defesa"],
			RecordURL:   fields["URL"],
			AuthorURL:   fields["URL (Autoria)"],
			FulltextURL: fields["URL (Texto)"],
		}
		if rec.RecordURL == "" || rec.FulltextURL == "" {
			return nil, fmt.Errorf("entry %d: record or full-text URL empty", i)
		}
		rec.ID = domain.RecordID(rec.RecordURL)
		records = append(records, rec)
	}

	return records, nil
}

// MaxSearchPages reads the page number of the last pagination link on
// a page-1 response.
func MaxSearchPages(body []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse results page: %w", err)
	}

	last := doc.Find("ul.pagination a").Last()
	if last.Length() == 0 {
		return 0, ErrNoPagination
	}
	rawHref, ok := last.Attr("href")
	if !ok {
		return 0, fmt.Errorf("%w: last link has no href", ErrNoPagination)
	}

	parsed, err := url.Parse(rawHref)
	if err != nil {
		return 0, fmt.Errorf("pagination href %q: %w", rawHref, err)
	}
	pages, err := strconv.Atoi(parsed.Query().Get("page"))
	if err != nil {
		return 0, fmt.Errorf("pagination href %q: %w", rawHref, err)
	}
	return pages, nil
}

// BuildSearchURL composes a results-page URL for the given query.
func BuildSearchURL(baseURL, term, searchType string, page int) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}
	parsed = parsed.JoinPath("Search", "Results")

	query := parsed.Query()
	query.Set("lookfor", term)
	query.Set("type", searchType)
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// BuildRecordURL composes a record detail-page URL.
func BuildRecordURL(baseURL, recordID string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}
	return parsed.JoinPath("Record", recordID).String(), nil
}

// Origin reduces a URL to its scheme://host prefix.
func Origin(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url %s has no scheme or host", rawURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

func text(sel *goquery.Selection) (string, error) {
	return strings.TrimSpace(sel.Text()), nil
}

func href(sel *goquery.Selection) (string, error) {
	value, ok := sel.Attr("href")
	if !ok {
		return "", errors.New("missing href")
	}
	return value, nil
}

// authorName keeps the segment after the separator run inside the
// author row's first inner div; the leading part repeats the label.
func authorName(sel *goquery.Selection) (string, error) {
	inner := sel.Find("div").First()
	if inner.Length() == 0 {
		return "", errors.New("author row has no inner div")
	}
	raw := strings.TrimSpace(inner.Text())
	parts := strings.Split(raw, authorSeparator)
	return strings.TrimSpace(parts[len(parts)-1]), nil
}

func defenseDate(sel *goquery.Selection) (string, error) {
	raw := strings.TrimSpace(sel.Text())
	_, after, found := strings.Cut(raw, "Data de Defesa")
	if !found {
		return strings.TrimSpace(raw), nil
	}
	return strings.TrimSpace(after), nil
}

func (e *SearchExtractor) absoluteHref(sel *goquery.Selection) (string, error) {
	value, err := href(sel)
	if err != nil {
		return "", err
	}
	return e.absolutize(value), nil
}

// authorHref pulls the profile link out of the author row.
func (e *SearchExtractor) authorHref(sel *goquery.Selection) (string, error) {
	link := sel.Find("div").First().Find("a").First()
	if link.Length() == 0 {
		return "", errors.New("author row has no profile link")
	}
	value, err := href(link)
	if err != nil {
		return "", err
	}
	return e.absolutize(value), nil
}

func (e *SearchExtractor) absolutize(rawHref string) string {
	if strings.HasPrefix(rawHref, "/") {
		return e.origin + rawHref
	}
	return rawHref
}
