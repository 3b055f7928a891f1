package pregnancy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// The clinical columns on anc_visits must use the SQL types the repository
// binds and scans, or every attendance write fails with a type mismatch.
func TestANCVisitSchemaMatchesScanTargets(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "001_core.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	schema := string(raw)

	columns := map[string]string{
		"weight_kg":        "weight_kg NUMERIC(5,2)",
		"hemoglobin":       "hemoglobin NUMERIC(4,1)",
		"fundal_height_cm": "fundal_height_cm INTEGER",
		"fetal_heartbeat":  "fetal_heartbeat BOOLEAN",
		"blood_pressure":   "blood_pressure TEXT",
	}
	for column, decl := range columns {
		if !strings.Contains(schema, decl) {
			t.Errorf("anc_visits column %s: expected declaration %q in migration", column, decl)
		}
	}
}

// An unknown LMP or EDD is stored as NULL, never as the zero date.
func TestNullDate(t *testing.T) {
	if got := nullDate(time.Time{}); got != nil {
		t.Errorf("nullDate(zero) = %v, want nil", got)
	}
	d := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	got, ok := nullDate(d).(time.Time)
	if !ok || !got.Equal(d) {
		t.Errorf("nullDate(%v) = %v", d, got)
	}
}
