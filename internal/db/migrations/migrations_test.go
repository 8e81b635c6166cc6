package migrations

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectApplied(mock sqlmock.Sqlmock, names ...string) {
	rows := sqlmock.NewRows([]string{"name"})
	for _, name := range names {
		rows.AddRow(name)
	}
	mock.ExpectQuery(`SELECT name FROM migrations ORDER BY id`).WillReturnRows(rows)
}

func TestAll(t *testing.T) {
	all := All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 migrations, got %d", len(all))
	}

	seen := make(map[string]bool)
	for i, m := range all {
		if m.Name == "" || m.UpSQL == "" || m.DownSQL == "" {
			t.Errorf("migration %d is incomplete: %+v", i, m)
		}
		if seen[m.Name] {
			t.Errorf("duplicate migration name %s", m.Name)
		}
		seen[m.Name] = true
		if i > 0 && all[i-1].Name >= m.Name {
			t.Errorf("migrations out of order: %s before %s", all[i-1].Name, m.Name)
		}
	}

	for _, table := range []string{"locations", "assets", "bookings", "booking_legs", "engine_stats"} {
		if !strings.Contains(InitialSchema.UpSQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("initial schema does not create %s", table)
		}
		if !strings.Contains(InitialSchema.DownSQL, "DROP TABLE IF EXISTS "+table) {
			t.Errorf("initial schema does not drop %s", table)
		}
	}
}

func TestMigratorInitialize(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectError bool
	}{
		{"successful initialization", nil, false},
		{"database error", sql.ErrConnDone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			exp := mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			err := New(db).Initialize(context.Background())
			if tt.expectError != (err != nil) {
				t.Errorf("Initialize() error = %v, expectError %v", err, tt.expectError)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unmet expectations: %v", err)
			}
		})
	}
}

func TestMigratorGetAppliedMigrations(t *testing.T) {
	db, mock := newMock(t)
	expectApplied(mock, "001_initial_schema", "002_booking_views")

	applied, err := New(db).GetAppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("GetAppliedMigrations() error = %v", err)
	}
	if len(applied) != 2 || !applied["001_initial_schema"] || !applied["002_booking_views"] {
		t.Errorf("unexpected applied set: %v", applied)
	}

	mock.ExpectQuery(`SELECT name FROM migrations`).WillReturnError(sql.ErrConnDone)
	if _, err := New(db).GetAppliedMigrations(context.Background()); err == nil {
		t.Error("Expected error, got none")
	}
}

func TestMigratorApplyMigration(t *testing.T) {
	migration := &Migration{Name: "003_test", UpSQL: "CREATE TABLE test (id INT)", DownSQL: "DROP TABLE test"}

	t.Run("success", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(migration.UpSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations (name) VALUES ($1)")).
			WithArgs("003_test").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		if err := New(db).ApplyMigration(context.Background(), migration); err != nil {
			t.Errorf("ApplyMigration() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("statement fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(migration.UpSQL)).WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := New(db).ApplyMigration(context.Background(), migration)
		if err == nil || !strings.Contains(err.Error(), "failed to execute migration 003_test") {
			t.Errorf("ApplyMigration() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("record fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(migration.UpSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO migrations`).WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := New(db).ApplyMigration(context.Background(), migration)
		if err == nil || !strings.Contains(err.Error(), "failed to record migration") {
			t.Errorf("ApplyMigration() error = %v", err)
		}
	})
}

func TestMigratorRollbackMigration(t *testing.T) {
	migration := &Migration{Name: "003_test", UpSQL: "CREATE TABLE test (id INT)", DownSQL: "DROP TABLE test"}

	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(migration.DownSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM migrations WHERE name = $1")).
		WithArgs("003_test").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := New(db).RollbackMigration(context.Background(), migration); err != nil {
		t.Errorf("RollbackMigration() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestMigratorMigrate(t *testing.T) {
	first := &Migration{Name: "001_a", UpSQL: "CREATE TABLE a (id INT)", DownSQL: "DROP TABLE a"}
	second := &Migration{Name: "002_b", UpSQL: "CREATE TABLE b (id INT)", DownSQL: "DROP TABLE b"}

	t.Run("applies only pending", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
		expectApplied(mock, "001_a")
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(second.UpSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO migrations`).WithArgs("002_b").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		n, err := New(db).Migrate(context.Background(), []*Migration{first, second})
		if err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if n != 1 {
			t.Errorf("Migrate() applied %d, want 1", n)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("nothing pending", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
		expectApplied(mock, "001_a", "002_b")

		n, err := New(db).Migrate(context.Background(), []*Migration{first, second})
		if err != nil || n != 0 {
			t.Errorf("Migrate() = %d, %v; want 0, nil", n, err)
		}
	})

	t.Run("initialize fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).WillReturnError(sql.ErrConnDone)

		_, err := New(db).Migrate(context.Background(), []*Migration{first})
		if err == nil || !strings.Contains(err.Error(), "failed to initialize migrations") {
			t.Errorf("Migrate() error = %v", err)
		}
	})
}

func TestMigratorRollback(t *testing.T) {
	first := &Migration{Name: "001_a", UpSQL: "CREATE TABLE a (id INT)", DownSQL: "DROP TABLE a"}
	second := &Migration{Name: "002_b", UpSQL: "CREATE TABLE b (id INT)", DownSQL: "DROP TABLE b"}

	t.Run("rolls back the latest applied", func(t *testing.T) {
		db, mock := newMock(t)
		expectApplied(mock, "001_a")
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(first.DownSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM migrations`).WithArgs("001_a").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		last, err := New(db).Rollback(context.Background(), []*Migration{first, second})
		if err != nil {
			t.Fatalf("Rollback() error = %v", err)
		}
		if last != first {
			t.Errorf("Rollback() rolled back %v, want %s", last, first.Name)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("nothing applied", func(t *testing.T) {
		db, mock := newMock(t)
		expectApplied(mock)

		_, err := New(db).Rollback(context.Background(), []*Migration{first, second})
		if err == nil || !strings.Contains(err.Error(), "no migrations to rollback") {
			t.Errorf("Rollback() error = %v", err)
		}
	})
}
