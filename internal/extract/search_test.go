package extract

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const baseURL = "https://bdtd.ibict.br/vufind"

func resultEntry(id, title, fulltext string) string {
	return fmt.Sprintf(`
	<div class="media">
	  <span class="format2">Tese</span>
	  <a class="title getFull" href="/vufind/Record/%s">%s</a>
	  <div id="rowAutor">
	    <div>Autor principal:      <a href="/vufind/Author/Home?author=Doe%%2C+Jane">Doe, Jane</a></div>
	  </div>
	  <div id="datePublish">Data de Defesa 2020-03-11</div>
	  <a class="fulltext" href="%s">Texto completo</a>
	</div>`, id, title, fulltext)
}

func TestSearchExtract(t *testing.T) {
	t.Parallel()

	page := "<html><body>" +
		resultEntry("UFPE_111", "Primeira Tese", "http://repositorio.ufpe.br/handle/1") +
		resultEntry("USP_222", "Segunda Tese", "/text/USP_222") +
		"</body></html>"

	extractor, err := NewSearchExtractor(baseURL)
	require.NoError(t, err)

	records, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "UFPE_111", first.ID)
	require.Equal(t, "Tese", first.Type)
	require.Equal(t, "Primeira Tese", first.Title)
	require.Equal(t, "Doe, Jane", first.Author)
	require.Equal(t, "2020-03-11", first.DefenseDate)
	require.Equal(t, "https://bdtd.ibict.br/vufind/Record/UFPE_111", first.RecordURL)
	require.Equal(t, "https://bdtd.ibict.br/vufind/Author/Home?author=Doe%2C+Jane", first.AuthorURL)
	require.Equal(t, "http://repositorio.ufpe.br/handle/1", first.FulltextURL)

	second := records[1]
	require.Equal(t, "USP_222", second.ID)
	// root-relative full-text links are left as served, so the
	// harvester can resolve them against the redirected host later
	require.Equal(t, "/text/USP_222", second.FulltextURL)
}

func TestSearchExtractAllFieldsNonEmpty(t *testing.T) {
	t.Parallel()

	page := "<html><body>" + resultEntry("X_1", "Tese X", "/text/X_1") + "</body></html>"

	extractor, err := NewSearchExtractor(baseURL)
	require.NoError(t, err)

	records, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	for name, value := range map[string]string{
		"Tipo": r.Type, "Título": r.Title, "Autoria": r.Author,
		"Data de defesa": r.DefenseDate, "URL": r.RecordURL,
		"URL (Autoria)": r.AuthorURL, "URL (Texto)": r.FulltextURL,
	} {
		require.NotEmpty(t, value, "field %s", name)
	}
}

func TestSearchExtractMissingMarkerFailsPage(t *testing.T) {
	t.Parallel()

	good := resultEntry("A_1", "Tese A", "/text/A_1")
	broken := strings.Replace(
		resultEntry("B_2", "Tese B", "/text/B_2"),
		`class="fulltext"`, `class="other"`, 1)
	page := "<html><body>" + good + broken + "</body></html>"

	extractor, err := NewSearchExtractor(baseURL)
	require.NoError(t, err)

	_, err = extractor.Extract([]byte(page))
	require.Error(t, err)
	require.Contains(t, err.Error(), "URL (Texto)")
}

func TestSearchExtractProximityReachesTrailingMarkers(t *testing.T) {
	t.Parallel()

	// the full-text anchor sits after the entry block, not inside it
	page := `<html><body>
	<div class="media">
	  <span class="format2">Dissertação</span>
	  <a class="title getFull" href="/vufind/Record/UFMG_333">Tese Solta</a>
	  <div id="rowAutor"><div>Autor:      <a href="/vufind/Author/1">Silva, João</a></div></div>
	  <div id="datePublish">Data de Defesa 2019</div>
	</div>
	<a class="fulltext" href="/text/UFMG_333">Texto completo</a>
	</body></html>`

	extractor, err := NewSearchExtractor(baseURL)
	require.NoError(t, err)

	records, err := extractor.Extract([]byte(page))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "/text/UFMG_333", records[0].FulltextURL)
}

func TestSearchExtractEmptyPage(t *testing.T) {
	t.Parallel()

	extractor, err := NewSearchExtractor(baseURL)
	require.NoError(t, err)

	records, err := extractor.Extract([]byte("<html><body><p>Nenhum resultado.</p></body></html>"))
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestMaxSearchPages(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	<ul class="pagination">
	  <li><a href="/vufind/Search/Results?lookfor=x&page=2">2</a></li>
	  <li><a href="/vufind/Search/Results?lookfor=x&page=3">3</a></li>
	  <li><a href="/vufind/Search/Results?lookfor=x&page=17">[17]</a></li>
	</ul>
	</body></html>`

	pages, err := MaxSearchPages([]byte(page))
	require.NoError(t, err)
	require.Equal(t, 17, pages)
}

func TestMaxSearchPagesMissingControl(t *testing.T) {
	t.Parallel()

	_, err := MaxSearchPages([]byte("<html><body><div>sem resultados</div></body></html>"))
	require.ErrorIs(t, err, ErrNoPagination)
}

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()

	raw, err := BuildSearchURL(baseURL, "mudança climática", "AllFields", 3)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "bdtd.ibict.br", parsed.Host)
	require.Equal(t, "/vufind/Search/Results", parsed.Path)

	q := parsed.Query()
	require.Equal(t, "mudança climática", q.Get("lookfor"))
	require.Equal(t, "AllFields", q.Get("type"))
	require.Equal(t, "3", q.Get("page"))
}

func TestBuildRecordURL(t *testing.T) {
	t.Parallel()

	raw, err := BuildRecordURL(baseURL, "UFPE_111")
	require.NoError(t, err)
	require.Equal(t, "https://bdtd.ibict.br/vufind/Record/UFPE_111", raw)
}
