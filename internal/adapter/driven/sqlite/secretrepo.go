package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretAdmin = (*SecretRepo)(nil)

// SecretRepo is the SQLite implementation of the SecretStore and SecretAdmin ports.
// Values are encrypted with AES-256-GCM before write and decrypted after read.
type SecretRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables the store.
}

// NewSecretRepo creates a new SecretRepo. key must be 32 bytes for AES-256-GCM,
// or nil, in which case every operation returns driven.ErrEncryptionKeyNotSet.
func NewSecretRepo(db *DB, key []byte) *SecretRepo {
	return &SecretRepo{db: db, key: key}
}

// SetSecret stores or replaces the value under name.
func (r *SecretRepo) SetSecret(ctx context.Context, name, plaintext string) error {
	if name == "" {
		return errors.New("set secret: name is required")
	}

	encrypted, err := r.encrypt(plaintext)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO secrets (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	_, err = r.db.Writer.ExecContext(ctx, query, name, encrypted)
	if err != nil {
		return fmt.Errorf("set secret %q: %w", name, err)
	}
	return nil
}

// GetSecret returns the plaintext value stored under name, or
// driven.ErrSecretNotFound.
func (r *SecretRepo) GetSecret(ctx context.Context, name string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM secrets WHERE name = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, name).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get secret %q: %w", name, driven.ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", name, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %q: %w", name, err)
	}
	return plaintext, nil
}

// ListSecrets returns all stored secrets ordered by name, with decrypted values.
func (r *SecretRepo) ListSecrets(ctx context.Context) ([]model.StoredSecret, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, name, value, updated_at FROM secrets ORDER BY name`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var secrets []model.StoredSecret
	for rows.Next() {
		var s model.StoredSecret
		var encrypted string
		var updatedAt string
		if err := rows.Scan(&s.ID, &s.Name, &encrypted, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan secret: %w", err)
		}

		plaintext, err := r.decrypt(encrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret %q: %w", s.Name, err)
		}
		s.Value = plaintext

		s.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for secret %q: %w", s.Name, err)
		}

		secrets = append(secrets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secrets: %w", err)
	}

	return secrets, nil
}

// DeleteSecret removes the secret under name.
func (r *SecretRepo) DeleteSecret(ctx context.Context, name string) error {
	const query = `DELETE FROM secrets WHERE name = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete secret %q: %w", name, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *SecretRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *SecretRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *SecretRepo) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

// parseTime parses SQLite datetime strings in the formats the driver may return.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
