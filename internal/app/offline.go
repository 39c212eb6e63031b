package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docdex/mcp-docdex-server/internal/sphinx"
)

// ErrValidationFailed is returned by RunValidate when the index record
// violates one or more structural invariants.
var ErrValidationFailed = errors.New("index validation failed")

// RunValidate decodes the search index artifact at path, validates it and
// writes a human-readable report to w.
func RunValidate(path string, w io.Writer) error {
	record, err := sphinx.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	fmt.Fprintf(w, "Artifact: %s\n", path)
	fmt.Fprintf(w, "Pages:    %d\n", record.PageCount())
	fmt.Fprintf(w, "Terms:    %d\n", record.TermCount())
	fmt.Fprintf(w, "Objects:  %d\n", len(record.AllObjects()))

	if err := record.Validate(); err != nil {
		fmt.Fprintln(w, "Status:   INVALID")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(w, "  - %s\n", line)
		}
		return ErrValidationFailed
	}

	fmt.Fprintln(w, "Status:   OK")
	return nil
}

// RunLookup decodes the search index artifact at path and answers a one-shot
// query against it, writing matching pages to w.
func RunLookup(path, query string, w io.Writer) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query must not be empty")
	}

	record, err := sphinx.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	results := record.Search(query)
	if len(results) == 0 {
		fmt.Fprintf(w, "No pages match %q\n", query)
		return nil
	}

	fmt.Fprintf(w, "%d page(s) match %q:\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(w, "  %-30s %s (score %.1f)\n", r.Docname, r.Title, r.Score)
	}
	return nil
}
