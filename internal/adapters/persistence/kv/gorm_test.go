package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGorm(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func TestGormStore_Get(t *testing.T) {
	s, mock := setupGorm(t)

	mock.ExpectQuery("SELECT \\* FROM `kv_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow("users", []byte(`[]`), time.Now()))

	v, err := s.Get(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetMissing(t *testing.T) {
	s, mock := setupGorm(t)

	mock.ExpectQuery("SELECT \\* FROM `kv_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

	v, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SetUpserts(t *testing.T) {
	s, mock := setupGorm(t)

	mock.ExpectExec("INSERT INTO `kv_entries`.*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Set(context.Background(), "settings", []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ListAndDelete(t *testing.T) {
	s, mock := setupGorm(t)

	mock.ExpectQuery("SELECT \\* FROM `kv_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow("a", []byte{1}, time.Now()).
			AddRow("b", []byte{2}, time.Now()))
	mock.ExpectExec("DELETE FROM `kv_entries`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []byte{2}, m["b"])

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ErrorsAreWrapped(t *testing.T) {
	s, mock := setupGorm(t)
	boom := errors.New("connection refused")

	mock.ExpectQuery("SELECT \\* FROM `kv_entries`").WillReturnError(boom)

	_, err := s.Get(context.Background(), "users")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get entry[users]")
}
