package migrations

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockMigrator(t *testing.T) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
	return New(db), mock
}

func TestMigratorInitialize(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "successful initialization",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			expectError: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).
					WillReturnError(sql.ErrConnDone)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrator, mock := newMockMigrator(t)
			tt.setupMock(mock)

			err := migrator.Initialize()
			if tt.expectError && err == nil {
				t.Error("Expected error, got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestMigratorMigrate(t *testing.T) {
	migrator, mock := newMockMigrator(t)

	migration := &Migration{
		ID:      "001_test",
		Name:    "001_test",
		UpSQL:   "CREATE TABLE test (id INT)",
		DownSQL: "DROP TABLE test",
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT name FROM migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE test`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO migrations`).
		WithArgs("001_test").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := migrator.Migrate([]*Migration{migration}); err != nil {
		t.Errorf("Migrate() unexpected error: %v", err)
	}
}

func TestMigratorMigrateSkipsApplied(t *testing.T) {
	migrator, mock := newMockMigrator(t)

	migration := &Migration{
		ID:    "001_test",
		Name:  "001_test",
		UpSQL: "CREATE TABLE test (id INT)",
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS migrations`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT name FROM migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_test"))

	if err := migrator.Migrate([]*Migration{migration}); err != nil {
		t.Errorf("Migrate() unexpected error: %v", err)
	}
}

func TestMigratorRollback(t *testing.T) {
	migrator, mock := newMockMigrator(t)

	migration := &Migration{
		ID:      "001_test",
		Name:    "001_test",
		UpSQL:   "CREATE TABLE test (id INT)",
		DownSQL: "DROP TABLE test",
	}

	mock.ExpectQuery(`SELECT name FROM migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("001_test"))
	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE test`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM migrations`).
		WithArgs("001_test").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := migrator.Rollback([]*Migration{migration}); err != nil {
		t.Errorf("Rollback() unexpected error: %v", err)
	}
}

func TestMigratorRollbackNothingApplied(t *testing.T) {
	migrator, mock := newMockMigrator(t)

	mock.ExpectQuery(`SELECT name FROM migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	if err := migrator.Rollback([]*Migration{{ID: "001", Name: "001"}}); err == nil {
		t.Error("Rollback() expected error when nothing is applied")
	}
}

func TestMigrationDefinitions(t *testing.T) {
	for _, m := range []*Migration{InitialSchema, RetentionPolicies} {
		if m.ID == "" || m.Name == "" {
			t.Errorf("migration %+v missing identity", m)
		}
		if m.UpSQL == "" || m.DownSQL == "" {
			t.Errorf("migration %s missing SQL", m.Name)
		}
	}
}
