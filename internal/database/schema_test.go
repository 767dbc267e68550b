package database

import (
	"context"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"autoparts/internal/config"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

var dialects = []Dialect{DialectSQLite, DialectPostgres}

func TestMigrationFilesExist(t *testing.T) {
	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_refresh_tokens_table.sql",
		"00003_create_products_table.sql",
		"00004_create_cart_items_table.sql",
		"00005_create_orders_table.sql",
		"00006_create_subscribers_table.sql",
		"00007_create_chatbot_responses_table.sql",
		"00008_create_config_tables.sql",
		"00009_seed_initial_data.sql",
	}

	for _, dialect := range dialects {
		for _, migration := range expectedMigrations {
			path := MigrationsDir(dialect) + "/" + migration
			if _, err := fs.Stat(migrationsFS, path); err != nil {
				t.Errorf("Migration file %s does not exist: %v", path, err)
			}
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	for _, dialect := range dialects {
		files, err := fs.ReadDir(migrationsFS, MigrationsDir(dialect))
		if err != nil {
			t.Fatalf("Failed to read migrations directory: %v", err)
		}

		sqlFileCount := 0
		for _, file := range files {
			if file.IsDir() || filepath.Ext(file.Name()) != ".sql" {
				continue
			}

			sqlFileCount++
			content, err := fs.ReadFile(migrationsFS, MigrationsDir(dialect)+"/"+file.Name())
			if err != nil {
				t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
				continue
			}

			contentStr := string(content)
			for _, directive := range []string{"-- +goose Up", "-- +goose Down", "-- +goose StatementBegin", "-- +goose StatementEnd"} {
				if !strings.Contains(contentStr, directive) {
					t.Errorf("%s/%s missing %q directive", dialect, file.Name(), directive)
				}
			}
			if strings.Count(contentStr, "StatementBegin") != strings.Count(contentStr, "StatementEnd") {
				t.Errorf("%s/%s has unbalanced statement blocks", dialect, file.Name())
			}
		}

		if sqlFileCount == 0 {
			t.Errorf("No SQL migration files found for %s", dialect)
		}
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"users":             "00001_create_users_table.sql",
		"refresh_tokens":    "00002_create_refresh_tokens_table.sql",
		"products":          "00003_create_products_table.sql",
		"cart_items":        "00004_create_cart_items_table.sql",
		"orders":            "00005_create_orders_table.sql",
		"subscribers":       "00006_create_subscribers_table.sql",
		"chatbot_responses": "00007_create_chatbot_responses_table.sql",
		"bank_config":       "00008_create_config_tables.sql",
		"company_config":    "00008_create_config_tables.sql",
	}

	for _, dialect := range dialects {
		for tableName, migrationFile := range expectedTables {
			content, err := fs.ReadFile(migrationsFS, MigrationsDir(dialect)+"/"+migrationFile)
			if err != nil {
				t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
				continue
			}

			contentStr := string(content)
			if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName+" ") {
				t.Errorf("%s/%s does not create table %s", dialect, migrationFile, tableName)
			}
			if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName+";") {
				t.Errorf("%s/%s does not drop table %s in down section", dialect, migrationFile, tableName)
			}
		}
	}
}

func TestOrdersTableHasUniqueToken(t *testing.T) {
	for _, dialect := range dialects {
		content, err := fs.ReadFile(migrationsFS, MigrationsDir(dialect)+"/00005_create_orders_table.sql")
		if err != nil {
			t.Fatalf("Failed to read orders migration: %v", err)
		}

		for _, column := range []string{"order_id", "items", "total", "shipping_address", "payment_status", "external_order_id"} {
			if !strings.Contains(string(content), column) {
				t.Errorf("%s orders table missing column %s", dialect, column)
			}
		}
		if !strings.Contains(string(content), "order_id VARCHAR(255) NOT NULL UNIQUE") &&
			!strings.Contains(string(content), "order_id TEXT NOT NULL UNIQUE") {
			t.Errorf("%s orders.order_id must be unique", dialect)
		}
	}
}

func TestRunMigrationsSeedsSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver: string(DialectSQLite),
		Path:   filepath.Join(t.TempDir(), "schema.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	ctx := context.Background()
	counts := map[string]int{
		"products":          8,
		"chatbot_responses": 7,
		"bank_config":       0,
		"company_config":    1,
	}
	for table, want := range counts {
		var got int
		if err := db.Get(ctx, "SELECT COUNT(*) FROM "+table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	var name string
	if err := db.Get(ctx, "SELECT name FROM company_config WHERE id = ?", 1).Scan(&name); err != nil {
		t.Fatalf("company row: %v", err)
	}
	if name != "AutoParts Pro" {
		t.Errorf("company name = %q", name)
	}

	// Second run is a no-op
	if err := RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}

	health := db.Health(ctx)
	if health["status"] != "up" || health["dialect"] != "sqlite" {
		t.Errorf("Health() = %v", health)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite untouched", DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"quoted literal kept", DialectPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", DialectPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.dialect, tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProperty_RebindNumbersEveryPlaceholder(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("postgres rebind leaves no bare placeholders", prop.ForAll(
		func(n int) bool {
			parts := make([]string, n)
			for i := range parts {
				parts[i] = "c = ?"
			}
			query := "SELECT * FROM t WHERE " + strings.Join(parts, " AND ")
			out := Rebind(DialectPostgres, query)
			if strings.Contains(out, "?") {
				return false
			}
			for i := 1; i <= n; i++ {
				if !strings.Contains(out, "$"+strconv.Itoa(i)) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
