package docsets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docdex/mcp-docdex-server/internal/config"
	"github.com/docdex/mcp-docdex-server/internal/metrics"
	"github.com/docdex/mcp-docdex-server/internal/sphinx"
)

const (
	// LockFilename is the name of the refresh lock file
	LockFilename = "refresh.lock"

	// MaxParallelRefreshes is the maximum number of concurrent source fetches
	MaxParallelRefreshes = 4
)

// Service coordinates artifact fetching, validation, indexing, and search
// across all configured docsets.
type Service struct {
	settings *config.DocsetSettings
	fetcher  *Fetcher
	indexer  *Indexer
	manifest *Manifest
	lock     *RefreshLock
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	alias    bleve.IndexAlias
	indexes  []bleve.Index
	records  map[string]*sphinx.Index
	displays map[string]string
	ready    bool
}

// NewService creates a new docsets service.
func NewService(settings *config.DocsetSettings, m *metrics.Metrics) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	for _, dir := range []string{
		settings.BaseDir,
		filepath.Join(settings.BaseDir, "docsets"),
		filepath.Join(settings.BaseDir, "indexes"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	manifest, err := LoadManifest(filepath.Join(settings.BaseDir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	return &Service{
		settings: settings,
		fetcher:  NewFetcher(settings.FetchTimeout, settings.MaxFetchSize),
		indexer:  NewIndexer(settings.BaseDir),
		manifest: manifest,
		lock:     NewRefreshLock(filepath.Join(settings.BaseDir, LockFilename)),
		metrics:  m,
		records:  make(map[string]*sphinx.Index),
		displays: make(map[string]string),
	}, nil
}

// Initialize prepares the service with leader/follower refresh logic: the
// process that wins the lock refreshes all sources, the others wait for it
// and then open whatever indexes exist.
func (s *Service) Initialize(ctx context.Context) error {
	acquired, err := s.lock.TryAcquire()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		if s.manifest.NeedsRefresh(s.settings.RefreshInterval) || s.hasNewSources() {
			slog.Info("Acquired refresh leader lock, refreshing docsets")
			if err := s.RefreshAll(ctx); err != nil {
				slog.Error("Refresh failed", "error", err)
				// Continue to open indexes anyway
			}
			if err := s.saveManifest(); err != nil {
				slog.Error("Failed to save manifest", "error", err)
			}
		} else {
			slog.Info("Docsets refreshed recently, using existing indexes",
				"last_refresh", s.manifest.LastRefresh)
		}
		if err := s.lock.Release(); err != nil {
			slog.Error("Failed to release lock", "error", err)
		}
	} else {
		slog.Info("Another instance is refreshing, waiting for completion")
		if err := s.lock.Await(s.settings.FetchTimeout); err != nil {
			slog.Warn("Timeout waiting for refresh, using existing indexes", "error", err)
		} else if err := s.lock.Release(); err != nil {
			slog.Error("Failed to release lock", "error", err)
		}
	}

	return s.openIndexes()
}

// hasNewSources reports whether any configured source has no docset entry
// yet, which forces a refresh even inside the interval.
func (s *Service) hasNewSources() bool {
	for _, source := range s.settings.Sources {
		if !s.manifest.HasDocset(SourceToDocsetID(source)) {
			return true
		}
	}
	return false
}

// RefreshAll refreshes every configured source, in parallel with bounded
// concurrency. Per-source failures are recorded in the manifest; the
// returned error summarizes how many sources failed.
func (s *Service) RefreshAll(ctx context.Context) error {
	sources := s.settings.Sources
	if len(sources) == 0 {
		return nil
	}

	started := time.Now()
	defer func() { s.metrics.ObserveRefreshPass(time.Since(started)) }()

	for _, docsetID := range s.manifest.RemoveStaleDocsets(sources) {
		slog.Info("Removing stale docset", "docset_id", docsetID)
		if err := s.indexer.DeleteIndex(docsetID); err != nil {
			slog.Error("Failed to delete index for stale docset", "docset_id", docsetID, "error", err)
		}
		if err := os.RemoveAll(filepath.Join(s.settings.BaseDir, "docsets", docsetID)); err != nil {
			slog.Error("Failed to remove stale docset directory", "docset_id", docsetID, "error", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelRefreshes)
	var failed sync.Map

	for _, source := range sources {
		docsetID := SourceToDocsetID(source)
		g.Go(func() error {
			if err := s.refreshDocset(ctx, docsetID, source); err != nil {
				slog.Error("Failed to refresh docset", "docset_id", docsetID, "error", err)
				s.manifest.SetDocsetError(docsetID, source, err.Error())
				s.metrics.ObserveRefresh(metrics.RefreshOutcomeError)
				failed.Store(docsetID, err)
			} else {
				s.manifest.ClearDocsetError(docsetID)
			}
			// Never abort sibling refreshes.
			return nil
		})
	}

	_ = g.Wait()
	s.manifest.UpdateLastRefresh()

	failures := 0
	failed.Range(func(_, _ any) bool {
		failures++
		return true
	})
	if failures > 0 {
		return fmt.Errorf("%d docset refresh(es) failed", failures)
	}
	return nil
}

// refreshDocset fetches, validates, caches, and indexes a single source.
func (s *Service) refreshDocset(ctx context.Context, docsetID, source string) error {
	state := s.manifest.GetDocsetState(docsetID)

	result, err := s.fetcher.Fetch(ctx, source, state.ETag, state.LastModified)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if result.NotModified {
		if s.indexer.IndexExists(docsetID) {
			slog.Info("Docset unchanged", "docset_id", docsetID)
			s.metrics.ObserveRefresh(metrics.RefreshOutcomeUnchanged)
			return nil
		}
		// The index is gone but the source still honors our validators;
		// refetch unconditionally.
		result, err = s.fetcher.Fetch(ctx, source, "", "")
		if err != nil {
			return fmt.Errorf("unconditional fetch failed: %w", err)
		}
	}

	if !result.NotModified && result.Checksum == state.Checksum && s.indexer.IndexExists(docsetID) {
		// Source had no validators but the content is byte-identical.
		slog.Info("Docset content unchanged", "docset_id", docsetID)
		s.metrics.ObserveRefresh(metrics.RefreshOutcomeUnchanged)
		state.FetchedAt = time.Now()
		s.manifest.SetDocsetState(docsetID, state)
		return nil
	}

	record, err := sphinx.DecodeBytes(result.Data)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("record is structurally invalid: %w", err)
	}

	// Cache the artifact so followers and restarts can load it without
	// refetching.
	if err := s.cacheArtifact(docsetID, result.Data); err != nil {
		return err
	}

	slog.Info("Indexing docset", "docset_id", docsetID, "pages", record.PageCount())
	pageCount, err := s.indexer.Rebuild(docsetID, SourceToDisplay(source), record)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}

	now := time.Now()
	state.Source = source
	state.FetchedAt = now
	state.IndexedAt = now
	state.ETag = result.ETag
	state.LastModified = result.LastModified
	state.Checksum = result.Checksum
	state.PageCount = pageCount
	state.TermCount = record.TermCount()
	s.manifest.SetDocsetState(docsetID, state)

	s.metrics.ObserveRefresh(metrics.RefreshOutcomeUpdated)
	s.metrics.SetPagesIndexed(SourceToDisplay(source), pageCount)
	slog.Info("Docset indexed", "docset_id", docsetID, "pages", pageCount, "terms", record.TermCount())
	return nil
}

// cacheArtifact stores the raw artifact under the docset's directory.
func (s *Service) cacheArtifact(docsetID string, data []byte) error {
	dir := filepath.Join(s.settings.BaseDir, "docsets", docsetID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create docset directory: %w", err)
	}

	path := filepath.Join(dir, artifactFilename)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact cache: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename artifact cache: %w", err)
	}
	return nil
}

// openIndexes loads cached records into memory and creates the search alias.
// Cached records are re-validated: the cache can hold an artifact written by
// an older build or tampered with on disk, and a record with out-of-range
// postings must never reach the lookup path.
func (s *Service) openIndexes() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var available []string
	for _, source := range s.settings.Sources {
		docsetID := SourceToDocsetID(source)
		if !s.indexer.IndexExists(docsetID) {
			continue
		}

		record, err := sphinx.DecodeFile(filepath.Join(s.settings.BaseDir, "docsets", docsetID, artifactFilename))
		if err != nil {
			slog.Error("Failed to load cached record", "docset_id", docsetID, "error", err)
			continue
		}
		if err := record.Validate(); err != nil {
			slog.Error("Cached record failed validation, skipping docset", "docset_id", docsetID, "error", err)
			continue
		}

		s.records[docsetID] = record
		s.displays[docsetID] = SourceToDisplay(source)
		available = append(available, docsetID)
	}

	if len(available) == 0 {
		slog.Warn("No docset indexes available")
		s.ready = false
		return nil
	}

	alias, indexes, err := s.indexer.CreateAlias(available)
	if err != nil {
		return fmt.Errorf("failed to create index alias: %w", err)
	}

	s.alias = alias
	s.indexes = indexes
	s.ready = true
	slog.Info("Docsets ready", "count", len(available))
	return nil
}

// saveManifest saves the manifest to disk.
func (s *Service) saveManifest() error {
	return s.manifest.Save(filepath.Join(s.settings.BaseDir, ManifestFilename))
}

// IsReady returns true if at least one docset is loaded and searchable.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// GetIndexAlias returns the combined full-text index for searching.
func (s *Service) GetIndexAlias() (bleve.IndexAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.alias == nil {
		return nil, fmt.Errorf("docsets not ready")
	}
	return s.alias, nil
}

// Record returns the parsed search-index record for a docset ID.
func (s *Service) Record(docsetID string) (*sphinx.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[docsetID]
	return record, ok
}

// DocsetIDs returns the IDs of all loaded docsets, in configuration order.
func (s *Service) DocsetIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for _, source := range s.settings.Sources {
		docsetID := SourceToDocsetID(source)
		if _, ok := s.records[docsetID]; ok {
			ids = append(ids, docsetID)
		}
	}
	return ids
}

// State returns the manifest state for a docset ID.
func (s *Service) State(docsetID string) DocsetState {
	return s.manifest.GetDocsetState(docsetID)
}

// DisplayName returns the client-facing name of a loaded docset. Names come
// from the configured source, never from undoing the ID sanitization, which
// is lossy for paths containing underscores.
func (s *Service) DisplayName(docsetID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if display, ok := s.displays[docsetID]; ok {
		return display
	}
	if state := s.manifest.GetDocsetState(docsetID); state.Source != "" {
		return SourceToDisplay(state.Source)
	}
	return docsetID
}

// ResolveDisplay maps a docset name given by a client onto the loaded
// docset's ID. Raw docset IDs are accepted too.
func (s *Service) ResolveDisplay(display string) (string, bool) {
	for _, docsetID := range s.DocsetIDs() {
		if docsetID == display || s.DisplayName(docsetID) == display {
			return docsetID, true
		}
	}
	return "", false
}

// GetSettings returns the service settings.
func (s *Service) GetSettings() *config.DocsetSettings {
	return s.settings
}

// Metrics returns the service's metrics collectors (may be nil).
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// SetFetcher allows injecting a custom fetcher for testing.
func (s *Service) SetFetcher(f *Fetcher) {
	s.fetcher = f
}

// Close releases all resources. The alias does not own the wrapped indexes,
// so each per-docset index is closed explicitly; otherwise their goroutines
// and file locks outlive the service and block any later open of the same
// index path.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if s.alias != nil {
		if err := s.alias.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close alias: %w", err))
		}
		s.alias = nil
	}

	for _, index := range s.indexes {
		if err := index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index: %w", err))
		}
	}
	s.indexes = nil

	s.records = make(map[string]*sphinx.Index)
	s.displays = make(map[string]string)
	s.ready = false
	return errors.Join(errs...)
}
