// Package mapping manages the ticker mapping file: an ordered JSON array of
// id/name/ticker entries. Order is significant for re-sequencing but not for
// lookup. The file is a single-writer resource; callers must serialize
// AddTicker and FixIDs.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tickerlab/internal/domain"
)

// Load reads and strictly parses the mapping file. Any malformed entry fails
// the whole load; use Validate for error collection.
func Load(path string) ([]domain.MappingEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("mapping file not found: %s", path)
		}
		return nil, fmt.Errorf("read mapping file: %w", err)
	}

	var entries []domain.MappingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("mapping file must contain a JSON array of entries: %w", err)
	}
	return entries, nil
}

// Save writes entries to the mapping file, creating parent directories. The
// on-disk format stores ids as strings.
func Save(path string, entries []domain.MappingEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}
	if entries == nil {
		entries = []domain.MappingEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write mapping file: %w", err)
	}
	return nil
}

// AddTicker inserts a new entry for ticker, assigning the next free id. If
// the ticker already exists the existing entry is returned unmodified
// (dedup-on-insert). A missing mapping file is created.
func AddTicker(path, ticker, name string) (domain.MappingEntry, error) {
	var entries []domain.MappingEntry
	if _, err := os.Stat(path); err == nil {
		entries, err = Load(path)
		if err != nil {
			return domain.MappingEntry{}, err
		}
	}

	normalized := domain.NormalizeTicker(ticker)
	if normalized == "" {
		return domain.MappingEntry{}, fmt.Errorf("ticker must not be empty")
	}
	for _, e := range entries {
		if e.Ticker == normalized {
			return e, nil
		}
	}

	var maxID int64
	for _, e := range entries {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	if name == "" {
		name = normalized
	}
	entry := domain.MappingEntry{ID: maxID + 1, Name: name, Ticker: normalized}
	entries = append(entries, entry)

	if err := Save(path, entries); err != nil {
		return domain.MappingEntry{}, err
	}
	return entry, nil
}

// Validate schema-checks every entry and reports duplicate id and ticker
// values (one error per duplicate occurrence after the first). Validation
// does not stop at the first error; the returned count is the number of
// entries that parsed.
func Validate(path string) (int, []string) {
	var errs []string

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, []string{fmt.Sprintf("mapping file not found: %s", path)}
		}
		return 0, []string{fmt.Sprintf("read mapping file: %v", err)}
	}

	var rawEntries []json.RawMessage
	if err := json.Unmarshal(data, &rawEntries); err != nil {
		return 0, []string{fmt.Sprintf("mapping file must contain a JSON array: %v", err)}
	}

	var entries []domain.MappingEntry
	for i, raw := range rawEntries {
		var e domain.MappingEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			errs = append(errs, fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}
		if e.Ticker == "" {
			errs = append(errs, fmt.Sprintf("entry %d: ticker must not be empty", i+1))
			continue
		}
		entries = append(entries, e)
	}

	seenIDs := make(map[int64]struct{})
	seenTickers := make(map[string]struct{})
	for _, e := range entries {
		if _, dup := seenIDs[e.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate id detected: %d", e.ID))
		}
		seenIDs[e.ID] = struct{}{}
		if _, dup := seenTickers[e.Ticker]; dup {
			errs = append(errs, fmt.Sprintf("duplicate ticker detected: %s", e.Ticker))
		}
		seenTickers[e.Ticker] = struct{}{}
	}

	return len(entries), errs
}

// FixIDs re-sequences entry ids to 1..N in file order. When backupPath is
// non-empty the pre-call file content is copied there byte-for-byte first.
// The rewrite is in place and not reversible without the backup. Returns the
// total entry count.
func FixIDs(path, backupPath string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("mapping file not found: %s", path)
		}
		return 0, fmt.Errorf("read mapping file: %w", err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("mapping file must contain a JSON array: %w", err)
	}

	if backupPath != "" {
		if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
			return 0, fmt.Errorf("create backup dir: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return 0, fmt.Errorf("write mapping backup: %w", err)
		}
	}

	for i := range entries {
		entries[i]["id"] = fmt.Sprintf("%d", i+1)
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode mapping: %w", err)
	}
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, fmt.Errorf("write mapping file: %w", err)
	}
	return len(entries), nil
}
