// Package sphinx decodes, validates, and queries the search-index records
// emitted by documentation builders (the searchindex.js artifact). A record
// is a single associative structure: an ordered list of page identifiers,
// positionally aligned titles, term and title-term posting tables, and an
// inventory of API objects.
package sphinx

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Index is a documentation search-index record.
//
// The docnames and titles sequences are positionally aligned: titles[i] is
// the display title of the page identified by docnames[i]. Every posting in
// terms and titleterms refers to pages by index into docnames. The record is
// write-once: it is produced by a documentation build and only read after
// that.
type Index struct {
	// Docnames is the ordered list of page identifiers, e.g. "hydrophone".
	Docnames []string `json:"docnames"`

	// Envversion maps a builder subsystem to the schema version it wrote,
	// used by the builder to decide whether a rebuild is required.
	Envversion map[string]int `json:"envversion"`

	// Filenames holds the source file behind each page, aligned with Docnames.
	Filenames []string `json:"filenames"`

	// Objects is the API object inventory: module path -> object name -> entry.
	Objects map[string]map[string]ObjectEntry `json:"objects"`

	// Objnames maps an object type id (decimal string key) to its descriptor.
	Objnames map[string]ObjectName `json:"objnames"`

	// Objtypes maps an object type id (decimal string key) to "domain:type".
	Objtypes map[string]string `json:"objtypes"`

	// Terms maps a stemmed search term to the pages mentioning it.
	Terms map[string]Posting `json:"terms"`

	// Titles is the ordered list of page titles, aligned with Docnames.
	Titles []string `json:"titles"`

	// Titleterms maps a stemmed term to the pages whose title contains it.
	Titleterms map[string]Posting `json:"titleterms"`
}

// ObjectName describes an object type: the domain it belongs to, the short
// type name within that domain, and a human-readable display string.
// Wire format: a three-element array ["py", "method", "Python method"].
type ObjectName struct {
	Domain  string
	Type    string
	Display string
}

// UnmarshalJSON decodes the three-element array form.
func (o *ObjectName) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("objname must be an array of strings: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("objname must have 3 elements, got %d", len(parts))
	}
	o.Domain, o.Type, o.Display = parts[0], parts[1], parts[2]
	return nil
}

// MarshalJSON emits the three-element array form.
func (o ObjectName) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{o.Domain, o.Type, o.Display})
}

// ObjectEntry locates one API object in the documentation.
// Wire format: a four-element array [docindex, objtype id, priority, anchor].
// An anchor of "-" means the object name itself is the page anchor.
type ObjectEntry struct {
	DocIndex int
	TypeID   int
	Priority int
	Anchor   string
}

// UnmarshalJSON decodes the four-element heterogeneous array form.
func (e *ObjectEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("object entry must be an array: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("object entry must have 4 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.DocIndex); err != nil {
		return fmt.Errorf("object entry doc index: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.TypeID); err != nil {
		return fmt.Errorf("object entry type id: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Priority); err != nil {
		return fmt.Errorf("object entry priority: %w", err)
	}
	if err := json.Unmarshal(raw[3], &e.Anchor); err != nil {
		return fmt.Errorf("object entry anchor: %w", err)
	}
	return nil
}

// MarshalJSON emits the four-element array form.
func (e ObjectEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.DocIndex, e.TypeID, e.Priority, e.Anchor})
}

// PageCount returns the number of documentation pages in the record.
func (ix *Index) PageCount() int {
	return len(ix.Docnames)
}

// TermCount returns the number of distinct terms in the posting table.
func (ix *Index) TermCount() int {
	return len(ix.Terms)
}

// Title returns the display title for a page index, falling back to the
// docname when titles are missing or misaligned.
func (ix *Index) Title(index int) string {
	if index >= 0 && index < len(ix.Titles) && ix.Titles[index] != "" {
		return ix.Titles[index]
	}
	if index >= 0 && index < len(ix.Docnames) {
		return ix.Docnames[index]
	}
	return ""
}

// ObjectTypeName resolves an object type id to its descriptor.
func (ix *Index) ObjectTypeName(typeID int) (ObjectName, bool) {
	name, ok := ix.Objnames[strconv.Itoa(typeID)]
	return name, ok
}
