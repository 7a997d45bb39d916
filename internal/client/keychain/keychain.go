// Package keychain is the client's secure storage: named secrets kept in a
// local SQLite file, each value sealed with AES-GCM under a key derived from
// a caller-supplied secret and a per-file random salt.
package keychain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/discbaboons/internal/client/keychain/migrations"
	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/cryptox"
	"github.com/dmitrijs2005/discbaboons/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const saltKey = "salt"

// ErrNotFound is returned by Get when no secret has the given name. It
// matches common.ErrorNotFound.
var ErrNotFound = fmt.Errorf("keychain: %w", common.ErrorNotFound)

type Keychain struct {
	db  *sql.DB
	key []byte
}

// Open opens (creating if needed) the keychain at path and unlocks it with
// secret. Use ":memory:" for a throwaway keychain.
func Open(ctx context.Context, path, secret string) (*Keychain, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("keychain migrations: %w", err)
	}

	salt, err := loadOrCreateSalt(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Keychain{db: db, key: cryptox.DeriveKey([]byte(secret), salt)}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func loadOrCreateSalt(ctx context.Context, db *sql.DB) ([]byte, error) {
	var salt []byte
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx, `SELECT value FROM keychain_meta WHERE key = ?`, saltKey).Scan(&salt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		salt = common.GenerateRandByteArray(cryptox.SaltSize)
		_, err = tx.ExecContext(ctx, `INSERT INTO keychain_meta (key, value) VALUES (?, ?)`, saltKey, salt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("keychain salt: %w", err)
	}
	return salt, nil
}

// Get returns the decrypted secret stored under name.
func (k *Keychain) Get(ctx context.Context, name string) ([]byte, error) {
	var nonce, ciphertext []byte
	err := k.db.QueryRowContext(ctx, `SELECT nonce, ciphertext FROM secrets WHERE name = ?`, name).Scan(&nonce, &ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secret[%s]: %w", name, err)
	}

	plaintext, err := cryptox.Open(ciphertext, nonce, k.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret[%s]: %w", name, err)
	}
	return plaintext, nil
}

// Set stores value under name, replacing any previous value.
func (k *Keychain) Set(ctx context.Context, name string, value []byte) error {
	ciphertext, nonce, err := cryptox.Seal(value, k.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret[%s]: %w", name, err)
	}

	_, err = k.db.ExecContext(ctx, `
		INSERT INTO secrets (name, nonce, ciphertext) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET nonce = excluded.nonce, ciphertext = excluded.ciphertext,
			updated_at = CURRENT_TIMESTAMP
	`, name, nonce, ciphertext)
	if err != nil {
		return fmt.Errorf("failed to set secret[%s]: %w", name, err)
	}
	return nil
}

// Delete removes name. Deleting a missing entry is not an error.
func (k *Keychain) Delete(ctx context.Context, name string) error {
	if _, err := k.db.ExecContext(ctx, `DELETE FROM secrets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete secret[%s]: %w", name, err)
	}
	return nil
}

// Has reports whether an entry named name exists, without decrypting it.
func (k *Keychain) Has(ctx context.Context, name string) (bool, error) {
	var n int
	err := k.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM secrets WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check secret[%s]: %w", name, err)
	}
	return n > 0, nil
}

func (k *Keychain) Close() error {
	common.WipeByteArray(k.key)
	return k.db.Close()
}
