package db

import (
	"strings"
	"testing"
)

func TestImportJobBulletinReferenceIsNulledOnDelete(t *testing.T) {
	var created, dropped, added int
	for i, stmt := range migrationStatements {
		switch {
		case strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS price_import_jobs"):
			if !strings.Contains(stmt, "REFERENCES price_bulletins(id) ON DELETE SET NULL") {
				t.Fatalf("price_import_jobs.bulletin_id must be set null on delete")
			}
			created = i + 1
		case strings.Contains(stmt, "DROP CONSTRAINT IF EXISTS price_import_jobs_bulletin_id_fkey"):
			dropped = i + 1
		case strings.Contains(stmt, "ADD CONSTRAINT price_import_jobs_bulletin_id_fkey"):
			if !strings.Contains(stmt, "ON DELETE SET NULL") {
				t.Fatalf("re-added constraint must be set null on delete")
			}
			added = i + 1
		}
	}
	if created == 0 || dropped <= created || added <= dropped {
		t.Fatalf("expected create, drop, add in order; got %d, %d, %d", created, dropped, added)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	for i, stmt := range migrationStatements {
		s := strings.TrimSpace(stmt)
		switch {
		case strings.HasPrefix(s, "CREATE TABLE"), strings.HasPrefix(s, "CREATE UNIQUE INDEX"), strings.HasPrefix(s, "CREATE INDEX"),
			strings.HasPrefix(s, "CREATE EXTENSION"):
			if !strings.Contains(s, "IF NOT EXISTS") {
				t.Fatalf("statement %d is not idempotent: %s", i+1, s)
			}
		case strings.Contains(s, "ADD COLUMN"):
			if !strings.Contains(s, "ADD COLUMN IF NOT EXISTS") {
				t.Fatalf("statement %d is not idempotent: %s", i+1, s)
			}
		}
	}
}
