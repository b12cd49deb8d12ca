package domain

import (
	"net/http"
	"strings"
)

// SearchRecord is one bibliographic entry extracted from a results page.
type SearchRecord struct {
	ID          string
	Type        string
	Title       string
	Author      string
	DefenseDate string
	RecordURL   string
	AuthorURL   string
	FulltextURL string
}

// RecordDetail carries the dynamic field set scraped from a record's
// detail page. Fields always contains "Título" and "Resumo".
type RecordDetail struct {
	ID     string
	Fields map[string]string
}

// DocumentManifest maps record IDs to the filenames saved for them.
// Records with zero saved documents have no entry.
type DocumentManifest map[string][]string

// FetchResult is the outcome of one fetch task, success or failure.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
	FinalURL   string
	Header     http.Header
	Attempts   int
	Err        error
}

// OK reports whether the fetch produced a usable response.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// RecordID derives the repository identifier from a record URL: the
// path segment immediately following "Record/".
func RecordID(recordURL string) string {
	_, after, found := strings.Cut(recordURL, "Record/")
	if !found {
		return recordURL
	}
	id, _, _ := strings.Cut(after, "/")
	return id
}
