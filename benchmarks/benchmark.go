// Command benchmark spins up a database directory, runs batches of
// transactional inserts and updates plus two relational-algebra scenarios
// (a select, and a join followed by a select), and reports throughput. Grounded
// in the teacher's own benchmarks/benchmark.go: same BenchmarkResult shape,
// percentile math, and JSON/HTML report output, with each iteration's
// closure calling directly into the engine API instead of a SQL string.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/ra"
	"reldb/pkg/table"
	"reldb/pkg/txn"
)

// BenchmarkResult captures timing statistics for one benchmark case.
type BenchmarkResult struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Iterations        int           `json:"iterations"`
	TotalDuration     time.Duration `json:"total_duration_ns"`
	AvgDuration       time.Duration `json:"avg_duration_ns"`
	MinDuration       time.Duration `json:"min_duration_ns"`
	MaxDuration       time.Duration `json:"max_duration_ns"`
	MedianDuration    time.Duration `json:"median_duration_ns"`
	P95Duration       time.Duration `json:"p95_duration_ns"`
	P99Duration       time.Duration `json:"p99_duration_ns"`
	OpsPerSecond      float64       `json:"ops_per_second"`
	ConcurrentWorkers int           `json:"concurrent_workers"`
	SuccessCount      int           `json:"success_count"`
	ErrorCount        int           `json:"error_count"`
	ErrorSamples      []string      `json:"error_samples"`
	Timestamp         time.Time     `json:"timestamp"`
}

// BenchmarkReport aggregates every case run in one suite invocation.
type BenchmarkReport struct {
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	TotalDuration time.Duration     `json:"total_duration"`
	Results       []BenchmarkResult `json:"results"`
	DataDir       string            `json:"data_dir"`
}

func main() {
	outputDir := filepath.Clean(os.Getenv("BENCHMARK_OUTPUT"))
	if outputDir == "." {
		outputDir = "./benchmark-results"
	}

	iterations := 500
	if iter := os.Getenv("BENCHMARK_ITERATIONS"); iter != "" {
		fmt.Sscanf(iter, "%d", &iterations)
	}

	concurrentWorkers := 10
	if conc := os.Getenv("BENCHMARK_CONCURRENT_WORKERS"); conc != "" {
		fmt.Sscanf(conc, "%d", &concurrentWorkers)
	}

	dataDir := filepath.Clean(os.Getenv("DATA_DIR"))
	if dataDir == "." {
		dataDir = "./benchmark-data"
	}

	os.MkdirAll(outputDir, 0o750)
	os.MkdirAll(dataDir, 0o750)

	log.Printf("Starting benchmark suite...")
	log.Printf("Data directory: %s", dataDir)
	log.Printf("Iterations: %d, Concurrent workers: %d", iterations, concurrentWorkers)

	db, err := database.Open(dataDir)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	users, contacts, err := setupBenchmarkData(db)
	if err != nil {
		log.Fatalf("failed to set up benchmark data: %v", err)
	}

	report := BenchmarkReport{
		StartTime: time.Now(),
		DataDir:   dataDir,
		Results:   []BenchmarkResult{},
	}

	cases := benchmarkCases(db, users, contacts)
	for _, c := range cases {
		log.Printf("%s", "\n"+strings.Repeat("=", 80))
		log.Printf("CASE: %s", c.name)
		log.Printf("%s", strings.Repeat("=", 80))
		log.Printf("%s", c.description)

		log.Printf("→ sequential (%d iterations)...", iterations)
		seq := runBenchmark(c.name, c.description, c.fn, iterations, 1)
		report.Results = append(report.Results, seq)
		printBenchmarkResult(seq)

		if c.concurrencySafe {
			log.Printf("→ concurrent (%d workers, %d iterations)...", concurrentWorkers, iterations)
			conc := runBenchmark(c.name+" (concurrent)", c.description, c.fn, iterations, concurrentWorkers)
			report.Results = append(report.Results, conc)
			printBenchmarkResult(conc)
		}
	}

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	timestamp := time.Now().Format("20060102_150405")
	jsonFile := fmt.Sprintf("%s/benchmark_report_%s.json", outputDir, timestamp)
	htmlFile := fmt.Sprintf("%s/benchmark_report_%s.html", outputDir, timestamp)

	log.Printf("%s", "\n"+strings.Repeat("=", 80))
	log.Printf("BENCHMARK SUITE COMPLETE")
	log.Printf("  Total Duration: %s", formatDuration(report.TotalDuration))
	log.Printf("  Cases run:      %d", len(report.Results))

	saveJSONReport(report, jsonFile)
	saveHTMLReport(report, htmlFile)
}

type benchmarkCase struct {
	name            string
	description     string
	fn              func() error
	concurrencySafe bool
}

// setupBenchmarkData creates the FRIEND/CONTACT tables from spec.md's
// worked scenarios and populates them with 1000/500 rows respectively.
func setupBenchmarkData(db *database.Database) (friend, contact *table.Table, err error) {
	friend, err = db.Table("friend")
	if err != nil {
		friend, err = db.NewTable("friend")
		if err != nil {
			return nil, nil, err
		}
		if err := friend.AddColumn("name", 20); err != nil {
			return nil, nil, err
		}
		if err := friend.AddColumn("age", 3); err != nil {
			return nil, nil, err
		}
	}

	contact, err = db.Table("contact")
	if err != nil {
		contact, err = db.NewTable("contact")
		if err != nil {
			return nil, nil, err
		}
		if err := contact.AddColumn("name", 20); err != nil {
			return nil, nil, err
		}
		if err := contact.AddColumn("web", 10); err != nil {
			return nil, nil, err
		}
	}

	if n, _ := friend.NumberOfRows(); n > 0 {
		return friend, contact, nil
	}

	for i := 1; i <= 1000; i++ {
		name := fmt.Sprintf("user%d", i)
		friend.Insert(table.Row{"name": name, "age": fmt.Sprintf("%d", 20+i%60)})
		if i <= 500 {
			web := "FB"
			if i%2 == 0 {
				web = "Twitter"
			}
			contact.Insert(table.Row{"name": name, "web": web})
		}
	}
	return friend, contact, nil
}

func benchmarkCases(db *database.Database, friend, contact *table.Table) []benchmarkCase {
	return []benchmarkCase{
		{
			name:        "transactional insert",
			description: "Transaction.insert on FRIEND, one row per call",
			fn: func() error {
				tx := txn.New(db)
				if _, err := tx.Insert(friend, table.Row{"name": "bench", "age": "1"}); err != nil {
					tx.Rollback()
					return err
				}
				return tx.Commit()
			},
			concurrencySafe: false,
		},
		{
			name:        "transactional update",
			description: "Transaction.update on FRIEND row 0",
			fn: func() error {
				tx := txn.New(db)
				if err := tx.Update(friend, 0, table.Row{"age": "42"}); err != nil {
					tx.Rollback()
					return err
				}
				return tx.Commit()
			},
			concurrencySafe: false,
		},
		{
			name:        "algebra select",
			description: "scenario 4: RA().prepare_table(CONTACT).select('web', equals, 'FB')",
			fn: func() error {
				v := ra.New(db)
				if err := v.PrepareTable("contact"); err != nil {
					return err
				}
				return v.Select("web", cell.Equals, "FB")
			},
			concurrencySafe: true,
		},
		{
			name:        "join-filter",
			description: "scenario 6: CONTACT.nl_join(FRIEND).select('web', equals, 'FB')",
			fn: func() error {
				v := ra.New(db)
				if err := v.PrepareTable("contact"); err != nil {
					return err
				}
				if err := v.NLJoin("name", "friend", "name"); err != nil {
					return err
				}
				return v.Select("web", cell.Equals, "FB")
			},
			concurrencySafe: true,
		},
	}
}

// runBenchmark executes fn iterations times (optionally concurrently) and
// computes timing statistics over the observed durations.
func runBenchmark(name, description string, fn func() error, iterations, concurrent int) BenchmarkResult {
	durations := make([]time.Duration, 0, iterations)
	var mu sync.Mutex
	var wg sync.WaitGroup

	successCount := 0
	errorCount := 0
	errorSamples := make([]string, 0, 5)
	startTime := time.Now()

	sem := make(chan struct{}, concurrent)

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			opStart := time.Now()
			err := fn()
			duration := time.Since(opStart)

			mu.Lock()
			durations = append(durations, duration)
			if err != nil {
				errorCount++
				if len(errorSamples) < 5 {
					errorSamples = append(errorSamples, err.Error())
				}
			} else {
				successCount++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	totalDuration := time.Since(startTime)

	slices.Sort(durations)

	var sum time.Duration
	minDur := durations[0]
	maxDur := durations[0]
	for _, d := range durations {
		sum += d
		if d < minDur {
			minDur = d
		}
		if d > maxDur {
			maxDur = d
		}
	}

	return BenchmarkResult{
		Name:              name,
		Description:       description,
		Iterations:        iterations,
		TotalDuration:     totalDuration,
		AvgDuration:       sum / time.Duration(len(durations)),
		MinDuration:       minDur,
		MaxDuration:       maxDur,
		MedianDuration:    durations[len(durations)/2],
		P95Duration:       durations[int(float64(len(durations))*0.95)],
		P99Duration:       durations[int(float64(len(durations))*0.99)],
		OpsPerSecond:      float64(iterations) / totalDuration.Seconds(),
		ConcurrentWorkers: concurrent,
		SuccessCount:      successCount,
		ErrorCount:        errorCount,
		ErrorSamples:      errorSamples,
		Timestamp:         time.Now(),
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func printBenchmarkResult(result BenchmarkResult) {
	successRate := float64(result.SuccessCount) / float64(result.Iterations) * 100

	log.Printf("  Total:    %s", formatDuration(result.TotalDuration))
	log.Printf("  Avg:      %s", formatDuration(result.AvgDuration))
	log.Printf("  Min/Max:  %s / %s", formatDuration(result.MinDuration), formatDuration(result.MaxDuration))
	log.Printf("  P50/P95/P99: %s / %s / %s", formatDuration(result.MedianDuration), formatDuration(result.P95Duration), formatDuration(result.P99Duration))
	log.Printf("  Throughput: %.0f ops/sec", result.OpsPerSecond)
	log.Printf("  Success: %.1f%% (%d/%d)", successRate, result.SuccessCount, result.Iterations)

	if result.ErrorCount > 0 && len(result.ErrorSamples) > 0 {
		log.Printf("  Errors (%d):", result.ErrorCount)
		for _, errMsg := range result.ErrorSamples {
			log.Printf("    %s", strings.NewReplacer("\n", " ", "\r", " ").Replace(errMsg))
		}
	}
}

func saveJSONReport(report BenchmarkReport, filename string) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("error marshaling report: %v", err)
		return
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		log.Printf("error writing JSON report: %v", err)
		return
	}
	log.Printf("JSON report saved: %s", filename)
}

func saveHTMLReport(report BenchmarkReport, filename string) {
	var rows strings.Builder
	for _, result := range report.Results {
		successRate := float64(result.SuccessCount) / float64(result.Iterations) * 100
		fmt.Fprintf(&rows, `
					<tr class="hover:bg-gray-50 transition-colors">
						<td class="px-4 py-3 font-bold text-gray-800">%s</td>
						<td class="px-4 py-3 text-sm text-gray-700 max-w-md truncate">%s</td>
						<td class="px-4 py-3 text-gray-700">%d</td>
						<td class="px-4 py-3 text-gray-700">%d</td>
						<td class="px-4 py-3 text-gray-700">%v</td>
						<td class="px-4 py-3 text-green-600 font-semibold">%.2f</td>
						<td class="px-4 py-3 text-green-600 font-semibold">%.1f%%</td>
					</tr>`,
			result.Name, result.Description, result.Iterations, result.ConcurrentWorkers,
			result.AvgDuration, result.OpsPerSecond, successRate)
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>reldb Benchmark Report</title>
	<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100 p-6">
	<div class="max-w-7xl mx-auto bg-white rounded-lg shadow-lg p-8">
		<h1 class="text-4xl font-bold text-gray-800 border-b-4 border-green-500 pb-3 mb-6">reldb Benchmark Report</h1>
		<div class="bg-green-50 rounded-lg p-6 mb-8 grid grid-cols-2 md:grid-cols-4 gap-4">
			<div><div class="text-sm font-semibold text-gray-600">Start</div><div class="text-lg text-green-600 font-bold">%s</div></div>
			<div><div class="text-sm font-semibold text-gray-600">End</div><div class="text-lg text-green-600 font-bold">%s</div></div>
			<div><div class="text-sm font-semibold text-gray-600">Duration</div><div class="text-lg text-green-600 font-bold">%v</div></div>
			<div><div class="text-sm font-semibold text-gray-600">Data dir</div><div class="text-lg text-green-600 font-bold">%s</div></div>
		</div>
		<table class="min-w-full border-collapse">
			<thead><tr class="bg-green-500 text-white">
				<th class="px-4 py-3 text-left font-bold">Case</th>
				<th class="px-4 py-3 text-left font-bold">Description</th>
				<th class="px-4 py-3 text-left font-bold">Iterations</th>
				<th class="px-4 py-3 text-left font-bold">Workers</th>
				<th class="px-4 py-3 text-left font-bold">Avg</th>
				<th class="px-4 py-3 text-left font-bold">Ops/sec</th>
				<th class="px-4 py-3 text-left font-bold">Success</th>
			</tr></thead>
			<tbody class="divide-y divide-gray-200">%s</tbody>
		</table>
	</div>
</body>
</html>
`, report.StartTime.Format("2006-01-02 15:04:05"), report.EndTime.Format("2006-01-02 15:04:05"),
		report.TotalDuration, report.DataDir, rows.String())

	if err := os.WriteFile(filename, []byte(html), 0o600); err != nil {
		log.Printf("error writing HTML report: %v", err)
		return
	}
	log.Printf("HTML report saved: %s", filename)
}
