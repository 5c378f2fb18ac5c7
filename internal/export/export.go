// Package export turns a station category into a downloadable JSON document
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hydromonitoring/wain-terminal/internal/catalog"
	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// FootprintKey is the entry holding the station footprint in overview exports
const FootprintKey = "GeoJSON"

// Entry is one exported key/value pair
type Entry struct {
	Key   string
	Value json.Marshaler
}

// Payload is an ordered JSON object
type Payload struct {
	Entries []Entry
}

// Len returns the number of entries
func (p Payload) Len() int {
	return len(p.Entries)
}

// Get returns the entry value stored under key
func (p Payload) Get(key string) (json.Marshaler, bool) {
	for _, e := range p.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the entries in order
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the payload with two-space indentation
func (p Payload) Encode() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Build collects the category attributes the station carries, in category
// order. Null cells are left out. Overview exports also carry the
// footprint when one is loaded.
func Build(st models.Station, cat catalog.Category, footprint models.GeoJSON) Payload {
	p := Payload{Entries: make([]Entry, 0, len(cat.Attributes)+1)}
	for _, a := range cat.Attributes {
		v, ok := st.Get(a.Key)
		if !ok || v.Kind == models.KindAbsent {
			continue
		}
		p.Entries = append(p.Entries, Entry{Key: string(a.Key), Value: v})
	}

	if cat.IsOverview() && len(footprint) > 0 {
		p.Entries = append(p.Entries, Entry{Key: FootprintKey, Value: json.RawMessage(footprint)})
	}
	return p
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName returns the download name for a station category export
func FileName(st models.Station, cat catalog.Category) string {
	name, ok := st.Name()
	if !ok {
		name = "dam"
	}
	return fmt.Sprintf("%s-%s.json",
		unsafeChars.ReplaceAllString(name, "_"),
		strings.ReplaceAll(cat.Label, " ", "_"))
}

// WriteFile encodes the export and stores it under dir, returning its path
func WriteFile(dir string, st models.Station, cat catalog.Category, footprint models.GeoJSON) (string, error) {
	data, err := Build(st, cat, footprint).Encode()
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, FileName(st, cat))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

// ReportURL links to the published station report
func ReportURL(base string, st models.Station) string {
	name, _ := st.Name()
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(base, "/"),
		url.PathEscape(strings.ReplaceAll(st.Basin(), " ", "_")),
		url.PathEscape(strings.ReplaceAll(name, " ", "_")))
}
