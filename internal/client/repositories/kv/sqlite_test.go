package kv

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kv (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSQLiteRepository_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) txRepository { return NewSQLiteRepository(setupDB(t)) })
}

func TestSQLiteRepository_NestedTxReusesOuter(t *testing.T) {
	ctx := context.Background()
	r := NewSQLiteRepository(setupDB(t))

	err := r.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		inner, ok := tx.(Transactional)
		require.True(t, ok)
		return inner.WithTx(ctx, func(ctx context.Context, tx2 Repository) error {
			return tx2.Set(ctx, "k", []byte("v"))
		})
	})
	require.NoError(t, err)

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}

func TestSQLiteRepository_ClosedDBErrorsWrapped(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get kv[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set kv[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete kv[k]")

	err = r.Clear(ctx)
	require.ErrorContains(t, err, "failed to clear kv")

	_, err = r.List(ctx)
	require.ErrorContains(t, err, "failed to list kv")
}

func TestSQLiteRepository_TxRollbackOnDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	driverErr := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv").WithArgs("toofer_vault_1", []byte("blob")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO kv").WithArgs("toofer_vaults", []byte("[]")).
		WillReturnError(driverErr)
	mock.ExpectRollback()

	r := NewSQLiteRepository(db)
	err = r.WithTx(context.Background(), func(ctx context.Context, tx Repository) error {
		if err := tx.Set(ctx, "toofer_vault_1", []byte("blob")); err != nil {
			return err
		}
		return tx.Set(ctx, "toofer_vaults", []byte("[]"))
	})
	require.ErrorIs(t, err, driverErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRepository_ScanErrorWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("a", []byte("1")).
		RowError(0, errors.New("row broken"))
	mock.ExpectQuery("SELECT key, value FROM kv").WillReturnRows(rows)

	_, err = NewSQLiteRepository(db).List(context.Background())
	require.ErrorContains(t, err, "failed to iterate kv rows")
}
