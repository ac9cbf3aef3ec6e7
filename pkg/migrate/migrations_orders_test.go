package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oaklinehq/checkout-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE TABLE IF NOT EXISTS order_discount_allocations",
		"CREATE TABLE IF NOT EXISTS order_extra_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (final_price >= 0)",
		"CHECK (qty > 0)",
		"WHERE idempotency_key IS NOT NULL",
		"DROP TABLE IF EXISTS orders",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Errorf("orders migration missing %q", check)
		}
	}
}

func TestCouponsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_coupons.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS coupons",
		"kind IN ('fixed', 'percent', 'gift', 'redeem')",
		"CHECK (percent_bps > 0 AND percent_bps <= 10000)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code",
		"DROP TABLE IF EXISTS coupons",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Errorf("coupons migration missing %q", check)
		}
	}
}

func TestOutboxMigrationIndexesUnpublished(t *testing.T) {
	content := readMigration(t, "*_create_outbox_events.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"WHERE published_at IS NULL",
		"DROP TABLE IF EXISTS outbox_events",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Errorf("outbox migration missing %q", check)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration validation failed: %v", err)
	}
}
