package domain

// PageDocument represents one documentation page as stored in the full-text
// search index. It is derived from a docset's search-index record: the page
// identity comes from docnames/titles and the vocabulary field is the set of
// terms whose postings include the page.
type PageDocument struct {
	// ID is a unique identifier combining docset ID and docname.
	// Format: "docs.example.org_ooipy/hydrophone"
	ID string `json:"id"`

	// Docset is the human-readable docset identifier.
	// Format: "docs.example.org/ooipy"
	Docset string `json:"docset"`

	// Docname is the stable page identifier, independent of its title.
	// Example: "hydrophone"
	Docname string `json:"docname"`

	// Title is the display title of the page.
	Title string `json:"title"`

	// Filename is the documentation source behind the page, when known.
	// Example: "hydrophone.rst"
	Filename string `json:"filename"`

	// Vocabulary is the space-joined set of index terms posting to this
	// page, used for free-text matching.
	Vocabulary string `json:"vocabulary"`

	// Objects is the space-joined set of API object names documented on
	// this page.
	Objects string `json:"objects"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	PageFieldID         = "id"
	PageFieldDocset     = "docset"
	PageFieldDocname    = "docname"
	PageFieldTitle      = "title"
	PageFieldFilename   = "filename"
	PageFieldVocabulary = "vocabulary"
	PageFieldObjects    = "objects"
)
