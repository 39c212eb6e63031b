package sphinx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Encode writes the record as strict JSON. Map keys are emitted in sorted
// order and postings in compact form, so the output is deterministic and a
// decode of it yields an identical mapping.
func (ix *Index) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ix); err != nil {
		return fmt.Errorf("failed to encode search-index record: %w", err)
	}
	return nil
}

// EncodeJS writes the record wrapped in the Search.setIndex(...) call,
// matching the artifact form documentation builders publish.
func (ix *Index) EncodeJS(w io.Writer) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("failed to encode search-index record: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s%s)", setIndexPrefix, data); err != nil {
		return fmt.Errorf("failed to write search-index artifact: %w", err)
	}
	return nil
}

// EncodeFile writes the JS artifact form to disk atomically.
func (ix *Index) EncodeFile(path string) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}

	if err := ix.EncodeJS(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close artifact file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename artifact file: %w", err)
	}
	return nil
}
