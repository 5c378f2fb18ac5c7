package stations

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hydromonitoring/wain-terminal/internal/models"
	_ "modernc.org/sqlite"
)

const sampleCSV = `Station id,Station name,River basin name,latitude,longitude,Area (km²),Baseflow Index,Notes
1023,Bhakra Nangal,Indus,31.41,76.43,56876,0.61,ignored
2044,Hirakud,Mahanadi,21.52,83.87,83400,,ignored
1023,Bhakra Duplicate,Indus,0,0,1,1,ignored
3001,Krishnaraja Sagar,Kaveri,12.42,76.57,10619,null,ignored
`

func TestNeedsProvisioning(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Case 1: DB file does not exist
	needs, err := NeedsProvisioning(dbPath)
	if err != nil || !needs {
		t.Errorf("Case 1: Expected needs=true, err=nil; got needs=%v, err=%v", needs, err)
	}

	// Case 2: DB file exists, but table does not
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to create empty db file: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to create empty db file: %v", err)
	}
	db.Close()
	needs, err = NeedsProvisioning(dbPath)
	if err != nil || !needs {
		t.Errorf("Case 2: Expected needs=true, err=nil; got needs=%v, err=%v", needs, err)
	}

	// Case 3: table exists but is empty
	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if _, err = db.Exec(`CREATE TABLE stations (seq INTEGER PRIMARY KEY, station_id TEXT)`); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	needs, err = NeedsProvisioning(dbPath)
	if err != nil || !needs {
		t.Errorf("Case 3: Expected needs=true, err=nil; got needs=%v, err=%v", needs, err)
	}

	// Case 4: table holds rows
	if _, err = db.Exec(`INSERT INTO stations (station_id) VALUES ('1')`); err != nil {
		t.Fatalf("Failed to insert row: %v", err)
	}
	db.Close()
	needs, err = NeedsProvisioning(dbPath)
	if err != nil || needs {
		t.Errorf("Case 4: Expected needs=false, err=nil; got needs=%v, err=%v", needs, err)
	}
}

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records after dropping the duplicate id, got %d", len(records))
	}

	first := records[0]
	if first.ID != "1023" || first.Name != "Bhakra Nangal" || first.Basin != "Indus" {
		t.Errorf("First record = %+v", first)
	}
	if got := first.Cells[models.KeyLatitude]; got != "31.41" {
		t.Errorf("Latitude cell = %q, want 31.41 under the canonical key", got)
	}
	if _, ok := first.Cells["Notes"]; ok {
		t.Error("Unknown columns should be ignored")
	}

	wantIDs := []string{"1023", "2044", "3001"}
	for i, rec := range records {
		if rec.ID != wantIDs[i] {
			t.Errorf("records[%d].ID = %s, want %s", i, rec.ID, wantIDs[i])
		}
	}
}

func TestReadCSV_StationsWithoutIDAreKept(t *testing.T) {
	csvData := "Station ID,Station Name\n,First\n,Second\n"
	records, err := ReadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records without ids, got %d", len(records))
	}
}

func TestProvision_LocalFile(t *testing.T) {
	tempDir := t.TempDir()
	csvPath := filepath.Join(tempDir, "stations.csv")
	if err := os.WriteFile(csvPath, []byte(sampleCSV), 0644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	dbPath := filepath.Join(tempDir, "data", "wain-terminal.db")

	progress := make(chan string, 16)
	if err := Provision(context.Background(), dbPath, csvPath, progress); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	close(progress)

	var messages []string
	for msg := range progress {
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		t.Error("Expected progress messages")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open db after provisioning: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM stations").Scan(&count); err != nil || count != 3 {
		t.Errorf("Expected 3 stations in DB, got %d (err: %v)", count, err)
	}

	// Second call should not re-provision
	if err := Provision(context.Background(), dbPath, csvPath, nil); err != nil {
		t.Fatalf("Second Provision() error = %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM stations").Scan(&count); err != nil || count != 3 {
		t.Errorf("Expected 3 stations after second call, got %d (err: %v)", count, err)
	}
}

func TestProvision_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stations.csv" {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, sampleCSV)
	}))
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := Provision(context.Background(), dbPath, server.URL+"/stations.csv", nil); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	stations, err := LoadAll(dbPath)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(stations) != 3 {
		t.Errorf("Expected 3 stations, got %d", len(stations))
	}

	missing := filepath.Join(t.TempDir(), "other.db")
	if err := Provision(context.Background(), missing, server.URL+"/missing.csv", nil); err == nil {
		t.Error("Expected error for a 404 dataset")
	}
}

func TestProvision_EmptyDataset(t *testing.T) {
	tempDir := t.TempDir()
	csvPath := filepath.Join(tempDir, "stations.csv")
	if err := os.WriteFile(csvPath, []byte("Station id,Station name\n"), 0644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}

	err := Provision(context.Background(), filepath.Join(tempDir, "test.db"), csvPath, nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Provision() error = %v, want ErrEmptyDataset", err)
	}
}
