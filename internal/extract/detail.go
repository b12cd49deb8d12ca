package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bdtdharvest/internal/domain"
)

// NoAbstract is the literal shown when a record page carries no
// abstract paragraph.
const NoAbstract = "Resumo não disponível."

// ErrNoRecordBody signals a detail page without the main record block.
var ErrNoRecordBody = errors.New("record body not found")

// ErrNoDescription signals a detail page without a description table.
var ErrNoDescription = errors.New("description table not found")

// DetailExtractor turns a record detail page into one flat field map.
type DetailExtractor struct{}

// NewDetailExtractor builds the detail-page extractor.
func NewDetailExtractor() *DetailExtractor {
	return &DetailExtractor{}
}

// Extract reads title, abstract, and the description table from the
// detail page. finalURL must be the post-redirect response URL; its
// last path segment keys the result.
func (e *DetailExtractor) Extract(body []byte, finalURL string) (domain.RecordDetail, error) {
	detail := domain.RecordDetail{Fields: map[string]string{}}

	id, err := recordIDFromURL(finalURL)
	if err != nil {
		return detail, err
	}
	detail.ID = id

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return detail, fmt.Errorf("parse detail page %s: %w", id, err)
	}

	main := doc.Find("div.mainbody.right").First()
	if main.Length() == 0 {
		return detail, fmt.Errorf("record %s: %w", id, ErrNoRecordBody)
	}

	title := strings.TrimSpace(main.Find(`h3[property="name"]`).First().Text())
	if title == "" {
		return detail, fmt.Errorf("record %s: title heading not found", id)
	}
	detail.Fields["Título"] = title

	abstract := main.Find("div.col-sm-12 p").First()
	if abstract.Length() > 0 {
		detail.Fields["Resumo"] = strings.TrimSpace(abstract.Text())
	} else {
		detail.Fields["Resumo"] = NoAbstract
	}

	table := main.Find("table").Last()
	if table.Length() == 0 {
		return detail, fmt.Errorf("record %s: %w", id, ErrNoDescription)
	}
	detail.Fields["Descrição"] = strings.TrimSpace(table.Text())

	// Two-column tables collapse into key/value pairs; anything wider
	// stays as the raw text captured above.
	if pairs, ok := tablePairs(table); ok {
		for _, p := range pairs {
			detail.Fields[p[0]] = p[1]
		}
	}

	return detail, nil
}

// tablePairs returns the table rows as {key, value} pairs when, and
// only when, every row has exactly two cells.
func tablePairs(table *goquery.Selection) ([][2]string, bool) {
	var pairs [][2]string
	uniform := true

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			uniform = false
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		key = strings.TrimRight(key, ":")
		value := strings.TrimSpace(cells.Eq(1).Text())
		pairs = append(pairs, [2]string{key, value})
	})

	if !uniform || len(pairs) == 0 {
		return nil, false
	}
	return pairs, true
}

func recordIDFromURL(finalURL string) (string, error) {
	parsed, err := url.Parse(finalURL)
	if err != nil {
		return "", fmt.Errorf("invalid record url %s: %w", finalURL, err)
	}
	id := path.Base(parsed.Path)
	if id == "." || id == "/" || id == "" {
		return "", fmt.Errorf("record url %s has no identifier segment", finalURL)
	}
	return id, nil
}
