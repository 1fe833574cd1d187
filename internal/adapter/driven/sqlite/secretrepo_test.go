package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestSecretRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	err := repo.SetSecret(ctx, "app-client-secret", "s3cret")
	require.NoError(t, err)

	val, err := repo.GetSecret(ctx, "app-client-secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", val)
}

func TestSecretRepo_ValueIsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.SetSecret(ctx, "reader-password", "hunter2"))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM secrets WHERE name = ?`, "reader-password").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "hunter2")
}

func TestSecretRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)

	val, err := repo.GetSecret(context.Background(), "nonexistent")

	require.Error(t, err)
	assert.True(t, errors.Is(err, driven.ErrSecretNotFound))
	assert.Equal(t, "", val)
}

func TestSecretRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.SetSecret(ctx, "name", "old-value"))
	require.NoError(t, repo.SetSecret(ctx, "name", "new-value"))

	val, err := repo.GetSecret(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)

	all, err := repo.ListSecrets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSecretRepo_ListOrderedByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.SetSecret(ctx, "mailer-password", "m"))
	require.NoError(t, repo.SetSecret(ctx, "app-client-secret", "a"))

	all, err := repo.ListSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "app-client-secret", all[0].Name)
	assert.Equal(t, "a", all[0].Value)
	assert.Equal(t, "mailer-password", all[1].Name)
	assert.False(t, all[1].UpdatedAt.IsZero())
}

func TestSecretRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.SetSecret(ctx, "name", "v"))
	require.NoError(t, repo.DeleteSecret(ctx, "name"))

	_, err := repo.GetSecret(ctx, "name")
	assert.True(t, errors.Is(err, driven.ErrSecretNotFound))
}

func TestSecretRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)

	err := repo.DeleteSecret(context.Background(), "nonexistent")
	assert.NoError(t, err, "deleting nonexistent secret should not error")
}

func TestSecretRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, nil)
	ctx := context.Background()

	err := repo.SetSecret(ctx, "name", "v")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.GetSecret(ctx, "name")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.ListSecrets(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestSecretRepo_WrongKeyFailsDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewSecretRepo(db, testKey).SetSecret(ctx, "name", "v"))

	other := NewSecretRepo(db, []byte("fedcba9876543210fedcba9876543210"))
	_, err := other.GetSecret(ctx, "name")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt secret")
}

func TestSecretRepo_RequiresName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSecretRepo(db, testKey)

	err := repo.SetSecret(context.Background(), "", "v")
	require.Error(t, err)
}

func TestParseTime(t *testing.T) {
	tests := []string{
		"2026-03-01T07:00:00Z",
		"2026-03-01 07:00:00",
		"2026-03-01T07:00:00",
		"2026-03-01 07:00:00.000",
		"2026-03-01T07:00:00+00:00",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			got, err := parseTime(s)
			require.NoError(t, err)
			assert.Equal(t, 7, got.Hour())
		})
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}
