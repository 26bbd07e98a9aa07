package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/tristore-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks ...string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	assertContains(t, readMigration(t, "create_catalog"),
		"CREATE TABLE IF NOT EXISTS grocery_products",
		"CONSTRAINT chk_grocery_products_stock CHECK (stock >= 0)",
		"CONSTRAINT chk_clothing_items_stock CHECK (stock >= 0)",
		"CONSTRAINT chk_clothing_variants_stock CHECK (stock >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_clothing_variant_cell ON clothing_variants (item_id, size, color)",
		"DROP TABLE IF EXISTS grocery_products",
	)
}

func TestCartMigrationLineIdentity(t *testing.T) {
	assertContains(t, readMigration(t, "create_carts"),
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_id ON carts (user_id)",
		"CONSTRAINT chk_cart_line_items_quantity CHECK (quantity >= 1)",
		"ux_cart_line_identity ON cart_line_items (cart_id, entity_type, entity_id, size, color)",
		"DROP TABLE IF EXISTS cart_line_items",
	)
}

func TestOrdersMigrationStatusDomain(t *testing.T) {
	assertContains(t, readMigration(t, "create_orders"),
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number ON orders (order_number)",
		"'placed', 'confirmed', 'preparing', 'out_for_delivery', 'delivered', 'cancelled'",
		"'pending', 'delivered', 'returned', 'partially_returned', 'kept'",
		"CHECK (returned_quantity >= 0 AND returned_quantity <= quantity)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS orders",
	)
}

func TestValidateDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename error")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_order_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestValidateDirRejectsBrokenSections(t *testing.T) {
	cases := map[string]string{
		"20260301000000_missing_down.sql": "-- +goose Up\nSELECT 1;\n",
		"20260301000000_reversed.sql":     "-- +goose Down\n-- +goose Up\n",
		"20260301000000_unbalanced.sql":   "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := migrate.ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to fail validation", name)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	v, err := migrate.ParseVersion("20260210090200")
	if err != nil || v != 20260210090200 {
		t.Fatalf("unexpected version %d (%v)", v, err)
	}
	for _, bad := range []string{"", "2026", "20261340090200", "abc"} {
		if _, err := migrate.ParseVersion(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
