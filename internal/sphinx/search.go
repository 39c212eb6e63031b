package sphinx

import "sort"

// Scores mirror the weights the documentation search front-end assigns:
// a title hit outweighs a body hit, and a prominent inventory object
// outweighs both.
const (
	scoreTermHit   = 5.0
	scoreTitleHit  = 15.0
	scoreObjectHit = 20.0
)

// Result is one page matched by a query, resolved through docnames/titles.
type Result struct {
	DocIndex int
	Docname  string
	Title    string
	Score    float64
}

// LookupTerm resolves a single term to its posting, normalizing the input
// the way the builder normalized the table keys. The second return reports
// whether the term exists in either the terms or titleterms table.
func (ix *Index) LookupTerm(word string) (Posting, bool) {
	term := NormalizeTerm(word)
	if term == "" {
		return NewPosting(), false
	}

	body, inBody := ix.Terms[term]
	title, inTitle := ix.Titleterms[term]
	if !inBody && !inTitle {
		// Exact keys for terms the stemmer would mangle (dotted names).
		body, inBody = ix.Terms[word]
		title, inTitle = ix.Titleterms[word]
	}
	if !inBody && !inTitle {
		return NewPosting(), false
	}
	return body.Or(title), true
}

// Search resolves free-form query text against the record: each query word
// is normalized and looked up, the per-word postings are intersected (every
// word must match), and surviving pages are scored with title and object
// boosts. Results are ordered by descending score, ties broken by docname.
func (ix *Index) Search(query string) []Result {
	terms := QueryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var matched Posting
	for i, term := range terms {
		body := ix.Terms[term]
		title := ix.Titleterms[term]
		posting := body.Or(title)
		if posting.Len() == 0 {
			return nil
		}
		if i == 0 {
			matched = posting
		} else {
			matched = matched.And(posting)
		}
	}
	if matched.Len() == 0 {
		return nil
	}

	objectDocs := ix.objectDocIndices(terms)

	results := make([]Result, 0, matched.Len())
	for _, docIndex := range matched.Indices() {
		score := 0.0
		for _, term := range terms {
			if ix.Terms[term].Contains(docIndex) {
				score += scoreTermHit
			}
			if ix.Titleterms[term].Contains(docIndex) {
				score += scoreTitleHit
			}
		}
		if objectDocs[docIndex] {
			score += scoreObjectHit
		}

		results = append(results, Result{
			DocIndex: docIndex,
			Docname:  ix.Docnames[docIndex],
			Title:    ix.Title(docIndex),
			Score:    score,
		})
	}

	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].Docname < results[b].Docname
	})

	return results
}

// objectDocIndices returns the pages holding inventory objects whose last
// name segment matches one of the query terms.
func (ix *Index) objectDocIndices(terms []string) map[int]bool {
	if len(ix.Objects) == 0 {
		return nil
	}

	wanted := make(map[string]bool, len(terms))
	for _, term := range terms {
		wanted[term] = true
	}

	docs := make(map[int]bool)
	for _, objects := range ix.Objects {
		for name, entry := range objects {
			if wanted[NormalizeTerm(lastSegment(name))] {
				docs[entry.DocIndex] = true
			}
		}
	}
	return docs
}
