package gorm

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tpmjs/tpmjs/pkg/crypto"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestRateLimitStoreIncrementWindow(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRateLimitStore(db)

	windowStart := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rate_limit_windows")).
		WithArgs("key-1", windowStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := s.IncrementWindow("key-1", windowStart)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitStoreWindowCountMissing(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRateLimitStore(db)

	windowStart := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM "rate_limit_windows"`).
		WithArgs("key-1", windowStart).
		WillReturnRows(sqlmock.NewRows([]string{"key", "window_start", "count"}))

	count, err := s.WindowCount("key-1", windowStart)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAPIKeysStoreFindByDigestNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewAPIKeysStore(db)

	mock.ExpectQuery(`SELECT .* FROM "api_keys"`).
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows([]string{"key_id"}))

	_, err := s.FindAPIKeyByDigest("deadbeef")
	assert.ErrorIs(t, err, store.ErrAPIKeyNotFound)
}

func TestStatsStoreTotalDownloads(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStatsStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(downloads), 0) FROM packages")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12345))

	n, err := s.TotalDownloads()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), n)
}

// A stored credential must decrypt with the row's CredentialID as AAD, so
// the store has to keep the id the ciphertext was bound to at encryption
// time instead of minting its own.
func TestCredentialsStoreRoundTripsCipherText(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewCredentialsStore(db)

	cipher, err := crypto.NewSymmetric(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	credentialID := "user-1/openai"
	cipherText, err := cipher.Encrypt([]byte(credentialID), []byte("sk-secret"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM "provider_credentials"`).
		WithArgs("user-1", "openai").
		WillReturnRows(sqlmock.NewRows([]string{"credential_id"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "provider_credentials"`)).
		WithArgs(credentialID, "user-1", "openai", cipherText, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stored, err := s.UpsertCredential(model.ProviderCredential{
		CredentialID: credentialID,
		UserID:       "user-1",
		Provider:     "openai",
		CipherText:   cipherText,
	})
	require.NoError(t, err)
	assert.Equal(t, credentialID, stored.CredentialID)

	mock.ExpectQuery(`SELECT .* FROM "provider_credentials"`).
		WithArgs("user-1", "openai").
		WillReturnRows(sqlmock.NewRows([]string{"credential_id", "user_id", "provider", "ciphertext"}).
			AddRow(credentialID, "user-1", "openai", cipherText))

	found, err := s.FindCredential("user-1", "openai")
	require.NoError(t, err)

	plain, err := cipher.Decrypt([]byte(found.CredentialID), found.CipherText)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", string(plain))
	assert.NoError(t, mock.ExpectationsWereMet())
}
