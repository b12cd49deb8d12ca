package domain

import (
	"sort"
	"strings"
)

// Table is an ordered tabular view keyed by its first column ("ID").
// Rows keep insertion order; cells align with Columns positionally.
type Table struct {
	Columns []string
	Rows    [][]string
}

// SearchTable flattens search records into the search-results table.
func SearchTable(records []SearchRecord) Table {
	t := Table{Columns: []string{"ID", "Tipo", "Título", "Autoria", "Data de defesa", "URL", "URL (Autoria)", "URL (Texto)"}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.ID, r.Type, r.Title, r.Author, r.DefenseDate, r.RecordURL, r.AuthorURL, r.FulltextURL})
	}
	return t
}

// DetailTable flattens record details into one table whose columns are
// the union of all field names, each prefixed so merged output keeps
// search and detail titles apart.
func DetailTable(details []RecordDetail, prefix string) Table {
	seen := map[string]bool{}
	var names []string
	for _, d := range details {
		for name := range d.Fields {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	t := Table{Columns: []string{"ID"}}
	for _, name := range names {
		t.Columns = append(t.Columns, prefix+name)
	}
	for _, d := range details {
		row := []string{d.ID}
		for _, name := range names {
			row = append(row, d.Fields[name])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ManifestTable exposes a document manifest as an ID → "PDF" table,
// filenames joined with "; ". Iteration follows the given ID order so
// output stays deterministic.
func ManifestTable(manifest DocumentManifest, order []string) Table {
	t := Table{Columns: []string{"ID", "PDF"}}
	for _, id := range order {
		files, ok := manifest[id]
		if !ok {
			continue
		}
		t.Rows = append(t.Rows, []string{id, strings.Join(files, "; ")})
	}
	return t
}

// OuterJoin merges tables on their first column. The row set is the
// union of IDs in first-appearance order, missing cells filled with "".
// When the same ID appears more than once inside one table, the last
// occurrence wins.
func OuterJoin(tables ...Table) Table {
	merged := Table{Columns: []string{"ID"}}

	type cellKey struct{ id, col string }
	cells := map[cellKey]string{}
	seenID := map[string]bool{}
	var ids []string

	for _, t := range tables {
		if len(t.Columns) == 0 || t.Columns[0] != "ID" {
			continue
		}
		merged.Columns = append(merged.Columns, t.Columns[1:]...)
		for _, row := range t.Rows {
			if len(row) == 0 {
				continue
			}
			id := row[0]
			if !seenID[id] {
				seenID[id] = true
				ids = append(ids, id)
			}
			for i, col := range t.Columns[1:] {
				if i+1 < len(row) {
					cells[cellKey{id, col}] = row[i+1]
				}
			}
		}
	}

	for _, id := range ids {
		row := []string{id}
		for _, col := range merged.Columns[1:] {
			row = append(row, cells[cellKey{id, col}])
		}
		merged.Rows = append(merged.Rows, row)
	}
	return merged
}

// Column returns all values of the named column, "" where absent.
func (t Table) Column(name string) []string {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	values := make([]string, len(t.Rows))
	if idx < 0 {
		return values
	}
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}
