package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MappingEntry is one row of the ticker mapping file: the id/name/ticker
// triple that seeds a fetch request and anchors output file naming.
type MappingEntry struct {
	ID     int64
	Name   string
	Ticker string
}

// NormalizeTicker canonicalizes a ticker symbol: trimmed and uppercased.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// UnmarshalJSON accepts the on-disk mapping format, where id is stored as a
// JSON string, as well as a plain numeric id.
func (e *MappingEntry) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID     any    `json:"id"`
		Name   string `json:"name"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch id := aux.ID.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return fmt.Errorf("mapping entry id %q is not an integer", id)
		}
		e.ID = parsed
	case float64:
		if id != float64(int64(id)) {
			return fmt.Errorf("mapping entry id %v is not an integer", id)
		}
		e.ID = int64(id)
	case nil:
		return fmt.Errorf("mapping entry is missing id")
	default:
		return fmt.Errorf("mapping entry id has unsupported type %T", aux.ID)
	}

	e.Name = aux.Name
	e.Ticker = NormalizeTicker(aux.Ticker)
	return nil
}

// MarshalJSON writes the on-disk format: id serialized as a string.
func (e MappingEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Ticker string `json:"ticker"`
	}{
		ID:     strconv.FormatInt(e.ID, 10),
		Name:   e.Name,
		Ticker: e.Ticker,
	})
}
