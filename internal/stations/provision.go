// Package stations caches the station dataset in the local sqlite database
package stations

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hydromonitoring/wain-terminal/internal/catalog"
	"github.com/hydromonitoring/wain-terminal/internal/database"
	"github.com/hydromonitoring/wain-terminal/internal/models"
)

var provisionMu sync.Mutex

// ErrEmptyDataset is returned when the source holds a header but no rows
var ErrEmptyDataset = errors.New("station dataset has no rows")

// Record is one dataset row keyed by registry attribute
type Record struct {
	ID    string
	Name  string
	Basin string
	Cells map[models.AttributeKey]string
}

// NeedsProvisioning reports whether the stations table is missing or empty
func NeedsProvisioning(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return true, nil
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='stations'").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for stations table: %w", err)
	}
	if count == 0 {
		return true, nil
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM stations").Scan(&count); err != nil {
		return false, fmt.Errorf("counting stations: %w", err)
	}
	return count == 0, nil
}

// Provision loads the station CSV from source (an http(s) URL or a local
// path) into the database at dbPath. It does nothing when the table is
// already populated. Progress messages go to progress when it is non-nil.
func Provision(ctx context.Context, dbPath, source string, progress chan<- string) error {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	needs, err := NeedsProvisioning(dbPath)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	sendProgress := func(msg string) {
		if progress != nil {
			progress <- msg
		} else {
			slog.Info(msg)
		}
	}

	sendProgress(fmt.Sprintf("Loading station dataset from %s...", source))
	rc, err := openSource(ctx, source)
	if err != nil {
		return fmt.Errorf("opening station dataset: %w", err)
	}
	defer rc.Close()

	records, err := ReadCSV(rc)
	if err != nil {
		return fmt.Errorf("reading station dataset: %w", err)
	}
	if len(records) == 0 {
		return ErrEmptyDataset
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sendProgress("Building stations database...")
	count, err := buildStationsDatabase(ctx, db, records, progress)
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	sendProgress(fmt.Sprintf("Provisioned %d stations at %s", count, dbPath))
	return nil
}

func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("dataset server returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ReadCSV parses the station dataset. Columns are matched against the
// attribute registry; unknown columns are ignored. When an id repeats, the
// first row carrying it is kept.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]models.AttributeKey, len(header))
	seen := make(map[models.AttributeKey]bool, len(header))
	for i, h := range header {
		key, ok := catalog.Lookup(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if !ok {
			slog.Debug("ignoring unknown dataset column", "column", h)
			continue
		}
		columns[i] = key
		seen[key] = true
	}
	for _, c := range catalog.ListCategories() {
		for _, k := range c.Keys() {
			if !seen[k] {
				slog.Debug("dataset column missing", "category", c.Label, "key", k)
			}
		}
	}

	var (
		records []Record
		ids     = make(map[string]bool)
		line    = 1
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			slog.Warn("skipping malformed dataset row", "line", line, "error", err)
			continue
		}

		rec := Record{Cells: make(map[models.AttributeKey]string, len(row))}
		for i, cell := range row {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			rec.Cells[columns[i]] = cell
		}

		st := rec.station()
		rec.ID = st.ID()
		rec.Name, _ = st.Name()
		rec.Basin = st.Basin()

		if rec.ID != "" {
			if ids[rec.ID] {
				slog.Warn("dropping duplicate station id", "id", rec.ID, "line", line)
				continue
			}
			ids[rec.ID] = true
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r Record) station() models.Station {
	attrs := make(map[models.AttributeKey]models.Value, len(r.Cells))
	for k, raw := range r.Cells {
		attrs[k] = models.ParseAttribute(k, raw)
	}
	return models.NewStation(attrs)
}

func buildStationsDatabase(ctx context.Context, db *sql.DB, records []Record, progress chan<- string) (int, error) {
	if err := database.CreateTables(db); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO stations (station_id, name, basin, attributes) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, rec := range records {
		cells := make(map[string]string, len(rec.Cells))
		for k, v := range rec.Cells {
			cells[string(k)] = v
		}
		attrs, err := json.Marshal(cells)
		if err != nil {
			return 0, fmt.Errorf("encoding station %s: %w", rec.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Name, rec.Basin, string(attrs)); err != nil {
			return 0, fmt.Errorf("inserting station %s: %w", rec.ID, err)
		}
		count++
		if count%500 == 0 && progress != nil {
			progress <- fmt.Sprintf("Inserted %d stations...", count)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}
