// Command exporter runs alongside an engine data directory and serves its
// pkg/metrics counters over HTTP, matching the teacher's standalone
// metrics_exporter.go (monitoring/exporter) rather than folding metrics
// serving into cmd/reldb itself.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"reldb/pkg/database"
	"reldb/pkg/metrics"
)

// renderWithTableStats appends a point-in-time table/row count gauge to the
// process-wide counters, since those two numbers depend on which database
// this exporter instance was pointed at.
func renderWithTableStats(db *database.Database) string {
	names := db.TableNames()
	var rowCount int64
	for _, name := range names {
		t, err := db.Table(name)
		if err != nil {
			continue
		}
		n, err := t.NumberOfRows()
		if err != nil {
			continue
		}
		rowCount += int64(n)
	}

	return metrics.Render() + fmt.Sprintf(
		"# HELP reldb_table_count Number of tables in the database\n# TYPE reldb_table_count gauge\nreldb_table_count %d\n\n"+
			"# HELP reldb_row_count Total rows across all tables, including tombstoned\n# TYPE reldb_row_count gauge\nreldb_row_count %d\n",
		len(names), rowCount,
	)
}

func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "/app/data"
	}

	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		metricsPort = "8080"
	}

	log.Printf("Starting reldb metrics exporter...")
	log.Printf("Data directory: %s", dataDir)
	log.Printf("Metrics port: %s", metricsPort)

	db, err := database.Open(dataDir)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, renderWithTableStats(db))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	srv := &http.Server{
		Addr:         ":" + metricsPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Metrics available at http://localhost:%s/metrics", metricsPort)
	log.Fatal(srv.ListenAndServe())
}
