package catalog

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db, SQLite, nil), mock
}

func expectTableExists(mock sqlmock.Sqlmock, table string, exists bool) {
	n := 0
	if exists {
		n = 1
	}
	mock.ExpectQuery(regexp.QuoteMeta(SQLite.tableExists)).
		WithArgs(table).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func TestPromote_FailedCopyRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	expectTableExists(mock, "1_12_2", true)
	expectTableExists(mock, "raw_1_12_2", true)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "1_12_2"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "1_12_2"`)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "1_12_2" (id, name`)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	promoted, err := store.Promote(context.Background(), "1.12.2", true)
	assert.False(t, promoted)
	require.Error(t, err)
	assert.True(t, IsPromotionError(err))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "promote", storageErr.Op)
	assert.Equal(t, "1.12.2", storageErr.Release)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromote_ExistingProductionIsNoop(t *testing.T) {
	store, mock := newMockStore(t)

	expectTableExists(mock, "1_12_2", true)

	promoted, err := store.Promote(context.Background(), "1.12.2", false)
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_FailureIsPersistError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "raw_1_12_2" WHERE name = ?`)).
		WithArgs("BlockEvent").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "raw_1_12_2"`)).
		WillReturnError(errors.New("NOT NULL constraint failed"))
	mock.ExpectRollback()

	err := store.Put(context.Background(), "1.12.2", sampleRecord("BlockEvent", "1.12.2"))
	require.Error(t, err)
	assert.True(t, IsPersistError(err))
	assert.False(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "BlockEvent")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsConnectionError_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad conn", storageErr("put", "1.12.2", ErrPersist, driver.ErrBadConn), true},
		{"pgx connection exception", storageErr("lookup", "1.11", nil, &pgconn.PgError{Code: "08006"}), true},
		{"pgx unique violation", storageErr("put", "1.12.2", ErrPersist, &pgconn.PgError{Code: "23505"}), false},
		{"pq connection failure", &pq.Error{Code: "08001"}, true},
		{"pq syntax error", &pq.Error{Code: "42601"}, false},
		{"plain", errors.New("NOT NULL constraint failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionError(tt.err))
		})
	}
}

func TestLookupByName_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(SQLite.tableExists)).
		WithArgs("raw_1_11").
		WillReturnError(errors.New("connection reset"))

	rec, err := store.LookupByName(context.Background(), "1.11", "BlockEvent")
	assert.Nil(t, rec)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "lookup", storageErr.Op)
}

func TestRegisterRelease_UsesRebindForPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := New(db, Postgres, nil)
	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4)")).
		WithArgs("1_12_2", "1.12.2", "14.23.5.2768", "[]").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.RegisterRelease(context.Background(), ReleaseInfo{Release: "1.12.2", ForgeVersion: "14.23.5.2768", EventBusList: "[]"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", Postgres.Rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	assert.Equal(t, "SELECT a FROM t WHERE x = ?", SQLite.Rebind("SELECT a FROM t WHERE x = ?"))
	assert.Equal(t, `"raw_1_12_2"`, SQLite.Quote("raw_1_12_2"))

	for driverName, want := range map[string]string{"pgx": "pgx", "postgres": "postgres", "sqlite3": "sqlite3"} {
		d, err := DialectFor(driverName)
		require.NoError(t, err)
		assert.Equal(t, want, d.Driver)
	}

	_, err := DialectFor("mssql")
	assert.Error(t, err)
}
