package sphinx

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrLengthMismatch indicates docnames, titles, or filenames disagree in length.
	ErrLengthMismatch = errors.New("positional sequences have mismatched lengths")

	// ErrDuplicateDocname indicates the same page identifier appears twice.
	ErrDuplicateDocname = errors.New("duplicate docname")

	// ErrPostingOutOfRange indicates a posting references a nonexistent page.
	ErrPostingOutOfRange = errors.New("posting references document index out of range")

	// ErrUnknownObjectType indicates an object references an undefined type id.
	ErrUnknownObjectType = errors.New("object references unknown type id")
)

// Validate checks the structural consistency of the record and returns all
// violations joined into a single error, or nil if the record is sound.
//
// The checks are exactly the invariants a consumer relies on: positional
// alignment of docnames/titles/filenames, posting indices in range,
// docname uniqueness, and a resolvable type for every inventory object.
func (ix *Index) Validate() error {
	var errs []error

	if len(ix.Titles) != len(ix.Docnames) {
		errs = append(errs, fmt.Errorf("%w: %d docnames vs %d titles",
			ErrLengthMismatch, len(ix.Docnames), len(ix.Titles)))
	}
	if len(ix.Filenames) > 0 && len(ix.Filenames) != len(ix.Docnames) {
		errs = append(errs, fmt.Errorf("%w: %d docnames vs %d filenames",
			ErrLengthMismatch, len(ix.Docnames), len(ix.Filenames)))
	}

	seen := make(map[string]bool, len(ix.Docnames))
	for _, name := range ix.Docnames {
		if seen[name] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateDocname, name))
		}
		seen[name] = true
	}

	pageCount := len(ix.Docnames)
	errs = append(errs, validatePostings("terms", ix.Terms, pageCount)...)
	errs = append(errs, validatePostings("titleterms", ix.Titleterms, pageCount)...)

	for module, objects := range ix.Objects {
		for name, entry := range objects {
			if entry.DocIndex < 0 || entry.DocIndex >= pageCount {
				errs = append(errs, fmt.Errorf("%w: object %s in %q points at %d of %d pages",
					ErrPostingOutOfRange, name, module, entry.DocIndex, pageCount))
			}
			typeKey := strconv.Itoa(entry.TypeID)
			if _, ok := ix.Objtypes[typeKey]; !ok {
				errs = append(errs, fmt.Errorf("%w: object %s in %q has type id %d",
					ErrUnknownObjectType, name, module, entry.TypeID))
			} else if _, ok := ix.Objnames[typeKey]; !ok {
				errs = append(errs, fmt.Errorf("%w: type id %d has no objname descriptor",
					ErrUnknownObjectType, entry.TypeID))
			}
		}
	}

	return errors.Join(errs...)
}

func validatePostings(table string, postings map[string]Posting, pageCount int) []error {
	var errs []error
	for term, posting := range postings {
		if m := posting.MaxIndex(); m >= pageCount {
			errs = append(errs, fmt.Errorf("%w: %s[%q] includes %d of %d pages",
				ErrPostingOutOfRange, table, term, m, pageCount))
		}
	}
	return errs
}
