// Package discovery turns keyword/category/location inputs into SERP
// queries, classifies the organic results by intent, and stores new
// prospects.
package discovery

import "strings"

// maxQueriesPerJob bounds provider spend for a single discovery job.
const maxQueriesPerJob = 50

// Query is one generated search: a term (keyword or category) paired with a
// location.
type Query struct {
	Term     string
	Location string
	Category string
}

// SearchString is the text submitted to the SERP provider.
func (q Query) SearchString() string {
	return q.Term + " " + q.Location
}

// GenerateQueries builds the (category union keyword) x location product,
// deduplicates the resulting search strings, and caps the set at limit.
// A limit of zero or less applies the package default.
func GenerateQueries(keywords, categories, locations []string, limit int) []Query {
	if limit <= 0 || limit > maxQueriesPerJob {
		limit = maxQueriesPerJob
	}

	type term struct {
		text     string
		category string
	}
	var terms []term
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			terms = append(terms, term{text: c, category: c})
		}
	}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			terms = append(terms, term{text: k})
		}
	}

	seen := make(map[string]bool)
	var out []Query
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		for _, t := range terms {
			q := Query{Term: t.text, Location: loc, Category: t.category}
			key := strings.ToLower(q.SearchString())
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, q)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
