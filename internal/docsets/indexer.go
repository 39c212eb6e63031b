package docsets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/docdex/mcp-docdex-server/internal/domain"
	"github.com/docdex/mcp-docdex-server/internal/sphinx"
)

const (
	// IndexSuffix is the suffix for index directories
	IndexSuffix = ".bleve"

	// MaxBatchSize is the maximum number of page documents per batch
	MaxBatchSize = 500
)

// Indexer manages the per-docset Bleve indexes built from search-index
// records.
type Indexer struct {
	baseDir string
}

// NewIndexer creates a new indexer rooted at the given base directory.
func NewIndexer(baseDir string) *Indexer {
	return &Indexer{baseDir: baseDir}
}

// indexPath returns the path to the index for a given docset ID.
func (i *Indexer) indexPath(docsetID string) string {
	return filepath.Join(i.baseDir, "indexes", docsetID+IndexSuffix)
}

// CreateIndexMapping creates the Bleve index mapping for page documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Title - analyzed, stored, term vectors for highlighting
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.PageFieldTitle, titleField)

	// Vocabulary - analyzed for full-text search, not worth storing
	vocabField := bleve.NewTextFieldMapping()
	vocabField.Analyzer = standard.Name
	vocabField.Store = false
	docMapping.AddFieldMappingsAt(domain.PageFieldVocabulary, vocabField)

	// Objects - analyzed so dotted names split into searchable parts
	objectsField := bleve.NewTextFieldMapping()
	objectsField.Analyzer = standard.Name
	objectsField.Store = true
	docMapping.AddFieldMappingsAt(domain.PageFieldObjects, objectsField)

	// Docset - keyword (not analyzed), stored for retrieval and filtering
	docsetField := bleve.NewTextFieldMapping()
	docsetField.Analyzer = keyword.Name
	docsetField.Store = true
	docMapping.AddFieldMappingsAt(domain.PageFieldDocset, docsetField)

	// Docname - keyword, stored
	docnameField := bleve.NewTextFieldMapping()
	docnameField.Analyzer = keyword.Name
	docnameField.Store = true
	docMapping.AddFieldMappingsAt(domain.PageFieldDocname, docnameField)

	// Filename - keyword, stored
	filenameField := bleve.NewTextFieldMapping()
	filenameField.Analyzer = keyword.Name
	filenameField.Store = true
	docMapping.AddFieldMappingsAt(domain.PageFieldFilename, filenameField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.PageFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Rebuild replaces the index for a docset with one built from the given
// record. The display name is stored on every page document, so search
// filters match what list_docsets reports. Returns the number of pages
// indexed.
func (i *Indexer) Rebuild(docsetID, display string, record *sphinx.Index) (count int, err error) {
	// A rebuild is cheap relative to a fetch, so replace wholesale rather
	// than diffing against the previous record.
	if err := i.DeleteIndex(docsetID); err != nil {
		return 0, fmt.Errorf("failed to remove previous index: %w", err)
	}

	index, err := bleve.New(i.indexPath(docsetID), CreateIndexMapping())
	if err != nil {
		return 0, fmt.Errorf("failed to create index: %w", err)
	}
	defer func() {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	vocabulary := pageVocabulary(record)
	objects := pageObjects(record)

	batch := index.NewBatch()
	batchSize := 0

	for docIndex, docname := range record.Docnames {
		doc := domain.PageDocument{
			ID:         docsetID + "/" + docname,
			Docset:     display,
			Docname:    docname,
			Title:      record.Title(docIndex),
			Vocabulary: vocabulary[docIndex],
			Objects:    objects[docIndex],
		}
		if docIndex < len(record.Filenames) {
			doc.Filename = record.Filenames[docIndex]
		}

		if err := batch.Index(doc.ID, doc); err != nil {
			return count, fmt.Errorf("failed to index page %s: %w", doc.ID, err)
		}
		batchSize++

		if batchSize >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				return count, fmt.Errorf("batch index failed: %w", err)
			}
			count += batchSize
			batch = index.NewBatch()
			batchSize = 0
		}
	}

	if batchSize > 0 {
		if err := index.Batch(batch); err != nil {
			return count, fmt.Errorf("final batch index failed: %w", err)
		}
		count += batchSize
	}

	return count, nil
}

// OpenForRead opens an existing index for reading.
func (i *Indexer) OpenForRead(docsetID string) (bleve.Index, error) {
	index, err := bleve.Open(i.indexPath(docsetID))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return index, nil
}

// IndexExists checks if an index exists for the given docset ID.
func (i *Indexer) IndexExists(docsetID string) bool {
	_, err := os.Stat(i.indexPath(docsetID))
	return err == nil
}

// DeleteIndex removes an index from disk.
func (i *Indexer) DeleteIndex(docsetID string) error {
	return os.RemoveAll(i.indexPath(docsetID))
}

// CreateAlias creates an IndexAlias combining the indexes of the given
// docsets. The underlying indexes are returned as well: closing the alias
// does not close them, so the caller owns their lifecycle.
func (i *Indexer) CreateAlias(docsetIDs []string) (bleve.IndexAlias, []bleve.Index, error) {
	indexes := make([]bleve.Index, 0, len(docsetIDs))

	for _, docsetID := range docsetIDs {
		index, err := i.OpenForRead(docsetID)
		if err != nil {
			for _, idx := range indexes {
				_ = idx.Close()
			}
			return nil, nil, fmt.Errorf("failed to open index for %s: %w", docsetID, err)
		}
		indexes = append(indexes, index)
	}

	if len(indexes) == 0 {
		return nil, nil, fmt.Errorf("no indexes to combine")
	}

	return bleve.NewIndexAlias(indexes...), indexes, nil
}

// pageVocabulary inverts the terms table: for each page, the terms whose
// postings include it, joined into one searchable string.
func pageVocabulary(record *sphinx.Index) []string {
	words := make([][]string, record.PageCount())
	for term, posting := range record.Terms {
		for _, docIndex := range posting.Indices() {
			if docIndex < len(words) {
				words[docIndex] = append(words[docIndex], term)
			}
		}
	}

	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.Join(w, " ")
	}
	return out
}

// pageObjects collects the qualified object names documented on each page.
func pageObjects(record *sphinx.Index) []string {
	byDocname := make(map[string]int, record.PageCount())
	for docIndex, docname := range record.Docnames {
		byDocname[docname] = docIndex
	}

	names := make([][]string, record.PageCount())
	for _, obj := range record.AllObjects() {
		if docIndex, ok := byDocname[obj.Docname]; ok {
			names[docIndex] = append(names[docIndex], obj.Name)
		}
	}

	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.Join(n, " ")
	}
	return out
}
