package stations

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hydromonitoring/wain-terminal/internal/database"
	"github.com/hydromonitoring/wain-terminal/internal/models"
)

// ErrNotFound is returned when no cached station has the requested id
var ErrNotFound = errors.New("station not found")

// LoadAll returns every cached station in dataset order. An unprovisioned
// database yields no stations.
func LoadAll(dbPath string) ([]models.Station, error) {
	db, err := openCache(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT station_id, attributes FROM stations ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	var out []models.Station
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		st, err := decodeStation(raw)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", id, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stations: %w", err)
	}
	return out, nil
}

// GetStationByID retrieves a single cached station
func GetStationByID(dbPath, stationID string) (models.Station, error) {
	db, err := openCache(dbPath)
	if err != nil {
		return models.Station{}, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRow(
		"SELECT attributes FROM stations WHERE station_id = ? ORDER BY seq LIMIT 1",
		stationID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.Station{}, fmt.Errorf("%w: %s", ErrNotFound, stationID)
	}
	if err != nil {
		return models.Station{}, fmt.Errorf("querying station by ID: %w", err)
	}
	return decodeStation(raw)
}

// openCache makes sure the stations table exists before handing out a handle
func openCache(dbPath string) (*sql.DB, error) {
	if err := database.EnsureSchema(dbPath); err != nil {
		return nil, fmt.Errorf("preparing station cache: %w", err)
	}
	return database.Open(dbPath)
}

func decodeStation(raw string) (models.Station, error) {
	var cells map[string]string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return models.Station{}, fmt.Errorf("decoding attributes: %w", err)
	}
	attrs := make(map[models.AttributeKey]models.Value, len(cells))
	for k, v := range cells {
		attrs[models.AttributeKey(k)] = models.ParseAttribute(models.AttributeKey(k), v)
	}
	return models.NewStation(attrs), nil
}
