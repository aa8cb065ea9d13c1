// Command reldb is the engine's command-line entry point: it opens (or
// creates) a data directory, optionally seeds it with demo data or an
// import script, then launches the interactive inspector. Adapted from the
// teacher's root main.go, with the demo/import flow rebuilt on the engine's
// native table/transaction API instead of db.ExecuteQuery(sqlString) — this
// engine has no SQL layer (spec.md §1 Non-goals).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"reldb/cmd/reldb/internal/inspector"
	"reldb/pkg/config"
	"reldb/pkg/database"
	"reldb/pkg/dblog"
	"reldb/pkg/table"
	"reldb/pkg/txn"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Configuration holds the flags that shape one run of the CLI.
type Configuration struct {
	DataDir     string
	LockTimeout time.Duration
	LogLevel    string
	DemoMode    bool
	ImportFile  string
}

func main() {
	cfg := parseArguments()
	showSplashScreen()

	eng := config.Default()
	eng.DataDir = cfg.DataDir
	if cfg.LockTimeout > 0 {
		eng.LockTimeout = cfg.LockTimeout
	}
	eng.LogLevel = parseLogLevel(cfg.LogLevel)
	if err := eng.InitLogging(); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	eng.Apply()

	db, err := initializeDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	if cfg.DemoMode {
		if err := runDemoMode(db); err != nil {
			log.Fatalf("demo mode failed: %v", err)
		}
	}

	if cfg.ImportFile != "" {
		if err := importData(db, cfg.ImportFile); err != nil {
			log.Fatalf("failed to import data: %v", err)
		}
	}

	if err := startInteractiveMode(db); err != nil {
		log.Fatalf("failed to start inspector: %v", err)
	}
}

func parseArguments() Configuration {
	var cfg Configuration
	var lockTimeoutSeconds int

	flag.StringVar(&cfg.DataDir, "data", "./data", "Data directory path")
	flag.IntVar(&lockTimeoutSeconds, "lock-timeout", 300, "Lock marker expiry, in seconds")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.DemoMode, "demo", false, "Seed the data directory with sample tables")
	flag.StringVar(&cfg.ImportFile, "import", "", "Command script to run on startup (\"table\" and \"insert\" lines; see importData)")

	flag.Parse()

	cfg.LockTimeout = time.Duration(lockTimeoutSeconds) * time.Second
	return cfg
}

func showSplashScreen() {
	splash := `
╔══════════════════════════════════════════════════════════════╗
║                                                              ║
║        ██████╗ ███████╗██╗     ██████╗ ██████╗              ║
║        ██╔══██╗██╔════╝██║     ██╔══██╗██╔══██╗             ║
║        ██████╔╝█████╗  ██║     ██║  ██║██████╔╝             ║
║        ██╔══██╗██╔══╝  ██║     ██║  ██║██╔══██╗             ║
║        ██║  ██║███████╗███████╗██████╔╝██████╔╝             ║
║        ╚═╝  ╚═╝╚══════╝╚══════╝╚═════╝ ╚═════╝              ║
║                                                              ║
║           fixed-width tables, relational algebra             ║
║                 over the filesystem, in Go                   ║
╚══════════════════════════════════════════════════════════════╝
`
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	fmt.Println(style.Render(splash))
	time.Sleep(1 * time.Second)
}

func initializeDatabase(cfg Configuration) (*database.Database, error) {
	fmt.Printf("opening data directory %s...\n", cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := database.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	fmt.Println("database ready")
	return db, nil
}

func startInteractiveMode(db *database.Database) error {
	model := inspector.NewModel(db)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running inspector: %w", err)
	}
	return nil
}

// runDemoMode builds the same users/products/orders shape the teacher's SQL
// demo did, but via direct table/transaction calls: one NewTable+AddColumn
// sequence per table, then a handful of transactional inserts.
func runDemoMode(db *database.Database) error {
	fmt.Println("creating demo tables...")

	users, err := demoTable(db, "users", map[string]int{"id": 6, "name": 30, "email": 40, "age": 3})
	if err != nil {
		return err
	}
	products, err := demoTable(db, "products", map[string]int{"id": 6, "name": 30, "category": 20, "price": 10, "stock": 6})
	if err != nil {
		return err
	}
	orders, err := demoTable(db, "orders", map[string]int{"id": 6, "user_id": 6, "product_id": 6, "quantity": 6, "total": 10, "status": 12})
	if err != nil {
		return err
	}

	tx := txn.New(db)

	userRows := []table.Row{
		{"id": "1", "name": "Alice Johnson", "email": "alice@example.com", "age": "28"},
		{"id": "2", "name": "Bob Smith", "email": "bob@example.com", "age": "35"},
		{"id": "3", "name": "Charlie Brown", "email": "charlie@example.com", "age": "42"},
		{"id": "4", "name": "Diana Prince", "email": "diana@example.com", "age": "31"},
		{"id": "5", "name": "Eve Wilson", "email": "eve@example.com", "age": "26"},
	}
	for _, row := range userRows {
		if _, err := tx.Insert(users, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert demo user: %w", err)
		}
	}

	productRows := []table.Row{
		{"id": "1", "name": "Laptop Pro", "category": "Electronics", "price": "1299.99", "stock": "50"},
		{"id": "2", "name": "Wireless Mouse", "category": "Electronics", "price": "29.99", "stock": "200"},
		{"id": "3", "name": "Office Chair", "category": "Furniture", "price": "399.99", "stock": "75"},
		{"id": "4", "name": "Standing Desk", "category": "Furniture", "price": "599.99", "stock": "30"},
		{"id": "5", "name": "Coffee Maker", "category": "Appliances", "price": "79.99", "stock": "100"},
	}
	for _, row := range productRows {
		if _, err := tx.Insert(products, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert demo product: %w", err)
		}
	}

	orderRows := []table.Row{
		{"id": "1", "user_id": "1", "product_id": "1", "quantity": "1", "total": "1299.99", "status": "completed"},
		{"id": "2", "user_id": "2", "product_id": "2", "quantity": "2", "total": "59.98", "status": "completed"},
		{"id": "3", "user_id": "3", "product_id": "3", "quantity": "1", "total": "399.99", "status": "processing"},
		{"id": "4", "user_id": "1", "product_id": "5", "quantity": "1", "total": "79.99", "status": "completed"},
		{"id": "5", "user_id": "4", "product_id": "4", "quantity": "1", "total": "599.99", "status": "shipped"},
	}
	for _, row := range orderRows {
		if _, err := tx.Insert(orders, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert demo order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit demo data: %w", err)
	}

	fmt.Println("demo database ready. Try this in the inspector's pipeline editor:")
	fmt.Println("  prepare orders")
	fmt.Println("  select status eq completed")
	fmt.Println("  join user_id users id")
	fmt.Println()
	return nil
}

func demoTable(db *database.Database, name string, columns map[string]int) (*table.Table, error) {
	if existing, err := db.Table(name); err == nil {
		return existing, nil
	}
	t, err := db.NewTable(name)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"id", "name", "email", "age", "category", "price", "stock", "user_id", "product_id", "quantity", "total", "status"} {
		length, ok := columns[col]
		if !ok {
			continue
		}
		if err := t.AddColumn(col, length); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// importData runs a line-oriented command script against db: each line is
// either "table <name> <col>:<width> ..." or "insert <table> <col>=<value> ...".
func importData(db *database.Database, filename string) error {
	fmt.Printf("importing %s...\n", filename)

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	tx := txn.New(db)
	successCount, total := 0, 0

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		total++

		if err := runImportLine(db, tx, line); err != nil {
			fmt.Printf("failed to run %q: %v\n", truncateString(line, 60), err)
			continue
		}
		successCount++
	}
	if err := scanner.Err(); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	fmt.Printf("import complete: %d/%d lines succeeded\n", successCount, total)
	return nil
}

func runImportLine(db *database.Database, tx *txn.Transaction, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "table":
		if len(fields) < 2 {
			return fmt.Errorf("table line needs a name")
		}
		t, err := db.NewTable(fields[1])
		if err != nil {
			return err
		}
		for _, spec := range fields[2:] {
			parts := strings.SplitN(spec, ":", 2)
			if len(parts) != 2 {
				return fmt.Errorf("bad column spec %q (want name:width)", spec)
			}
			var width int
			if _, err := fmt.Sscanf(parts[1], "%d", &width); err != nil {
				return fmt.Errorf("bad column width in %q: %w", spec, err)
			}
			if err := t.AddColumn(parts[0], width); err != nil {
				return err
			}
		}
		return nil

	case "insert":
		if len(fields) < 2 {
			return fmt.Errorf("insert line needs a table name")
		}
		t, err := db.Table(fields[1])
		if err != nil {
			return err
		}
		row := make(table.Row)
		for _, spec := range fields[2:] {
			parts := strings.SplitN(spec, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("bad column assignment %q (want name=value)", spec)
			}
			row[parts[0]] = parts[1]
		}
		_, err = tx.Insert(t, row)
		return err

	default:
		return fmt.Errorf("unknown import verb %q", fields[0])
	}
}

func parseLogLevel(s string) dblog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return dblog.LevelDebug
	case "warn", "warning":
		return dblog.LevelWarn
	case "error":
		return dblog.LevelError
	default:
		return dblog.LevelInfo
	}
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
