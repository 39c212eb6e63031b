package docsets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// ManifestVersion is the current schema version
	ManifestVersion = 1

	// ManifestFilename is the default manifest filename
	ManifestFilename = "manifest.json"
)

// Manifest stores the refresh state for all docsets.
type Manifest struct {
	Version     int                    `json:"version"`
	LastRefresh time.Time              `json:"last_refresh"`
	Docsets     map[string]DocsetState `json:"docsets"`
	mu          sync.RWMutex           `json:"-"`
}

// DocsetState stores the refresh state for a single docset.
type DocsetState struct {
	Source       string    `json:"source"`
	FetchedAt    time.Time `json:"fetched_at"`
	IndexedAt    time.Time `json:"indexed_at"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Checksum     string    `json:"checksum,omitempty"`
	PageCount    int       `json:"page_count"`
	TermCount    int       `json:"term_count"`
	Error        string    `json:"error,omitempty"`
}

// NewManifest creates a new empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		Docsets: make(map[string]DocsetState),
	}
}

// LoadManifest reads a manifest from disk, or creates a new one if it doesn't exist.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	// Initialize docsets map if nil (for backwards compatibility)
	if manifest.Docsets == nil {
		manifest.Docsets = make(map[string]DocsetState)
	}

	return &manifest, nil
}

// Save writes the manifest to disk atomically.
// Uses write-to-temp + rename pattern to prevent corruption.
func (m *Manifest) Save(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return nil
}

// GetDocsetState returns the state for a docset, or a zero state if unknown.
func (m *Manifest) GetDocsetState(docsetID string) DocsetState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Docsets[docsetID]
}

// SetDocsetState updates the state for a docset.
func (m *Manifest) SetDocsetState(docsetID string, state DocsetState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Docsets[docsetID] = state
}

// HasDocset returns true if the docset exists in the manifest.
func (m *Manifest) HasDocset(docsetID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Docsets[docsetID]
	return ok
}

// DocsetIDs returns a list of all docset IDs in the manifest.
func (m *Manifest) DocsetIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.Docsets))
	for id := range m.Docsets {
		ids = append(ids, id)
	}
	return ids
}

// RemoveStaleDocsets removes docsets not derived from the given source list.
// Returns the list of removed docset IDs.
func (m *Manifest) RemoveStaleDocsets(sources []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := make(map[string]bool, len(sources))
	for _, source := range sources {
		expected[SourceToDocsetID(source)] = true
	}

	var removed []string
	for docsetID := range m.Docsets {
		if !expected[docsetID] {
			removed = append(removed, docsetID)
		}
	}
	for _, docsetID := range removed {
		delete(m.Docsets, docsetID)
	}

	return removed
}

// UpdateLastRefresh updates the last refresh timestamp.
func (m *Manifest) UpdateLastRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRefresh = time.Now()
}

// NeedsRefresh returns true if enough time has passed since the last refresh.
func (m *Manifest) NeedsRefresh(interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LastRefresh.IsZero() {
		return true
	}
	return time.Since(m.LastRefresh) >= interval
}

// DocsetsWithErrors returns the docsets whose last refresh failed.
func (m *Manifest) DocsetsWithErrors() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string)
	for docsetID, state := range m.Docsets {
		if state.Error != "" {
			result[docsetID] = state.Error
		}
	}
	return result
}

// SetDocsetError records a refresh failure for a docset.
func (m *Manifest) SetDocsetError(docsetID, source, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.Docsets[docsetID]
	state.Source = source
	state.Error = errMsg
	m.Docsets[docsetID] = state
}

// ClearDocsetError clears the error for a docset.
func (m *Manifest) ClearDocsetError(docsetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.Docsets[docsetID]; ok {
		state.Error = ""
		m.Docsets[docsetID] = state
	}
}
