package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FieldRule locates one record field by its landmark selector and
// turns the landmark selection into a string value. Rules are applied
// by document-order proximity from the entry block, because the result
// markup nests fields inconsistently between records.
type FieldRule struct {
	Name     string
	Selector string
	Value    func(sel *goquery.Selection) (string, error)
}

// docOrder assigns each node its position in a depth-first pre-order
// walk, the same order a reader sees the document in.
type docOrder map[*html.Node]int

func newDocOrder(doc *goquery.Document) docOrder {
	order := docOrder{}
	i := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		order[n] = i
		i++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Selection.Nodes {
		walk(root)
	}
	return order
}

// findNext returns the first node matching selector that follows the
// entry node in document order (descendants of the entry included).
func (o docOrder) findNext(doc *goquery.Document, entry *goquery.Selection, selector string) (*goquery.Selection, error) {
	if len(entry.Nodes) == 0 {
		return nil, fmt.Errorf("empty entry selection")
	}
	start := o[entry.Nodes[0]]

	var (
		best     *html.Node
		bestRank int
	)
	for _, n := range doc.Find(selector).Nodes {
		rank, ok := o[n]
		if !ok || rank <= start {
			continue
		}
		if best == nil || rank < bestRank {
			best = n
			bestRank = rank
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no %q after entry", selector)
	}
	return doc.FindNodes(best), nil
}

// apply evaluates every rule for one entry; a single missing landmark
// fails the entry.
func (o docOrder) apply(doc *goquery.Document, entry *goquery.Selection, rules []FieldRule) (map[string]string, error) {
	fields := make(map[string]string, len(rules))
	for _, rule := range rules {
		landmark, err := o.findNext(doc, entry, rule.Selector)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", rule.Name, err)
		}
		value, err := rule.Value(landmark)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", rule.Name, err)
		}
		fields[rule.Name] = value
	}
	return fields, nil
}
