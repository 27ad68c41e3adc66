// Package prefstore keeps device preferences server side, in a SQLite file, keyed by client id.
package prefstore

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/prefs"
	"github.com/trezcool/masomo-web/storage/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the preference database. Use For to get the prefs.Store of one client.
type Store struct {
	db  *sqlx.DB
	log core.Logger
}

// Open opens (creating and migrating it if needed) the preference database at path.
func Open(ctx context.Context, path string, logger core.Logger) (*Store, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err = database.RunMigrations(ctx, db.DB, "sqlite", migrations, "migrations", "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// For returns the preferences of clientID.
func (s *Store) For(clientID string) prefs.Store {
	return &clientStore{store: s, clientID: clientID}
}

// Purge deletes the expired preferences.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM preferences WHERE expires_at > 0 AND expires_at <= ?", prefs.NowFunc().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "purging preferences")
	}
	return res.RowsAffected()
}

type clientStore struct {
	store    *Store
	clientID string
}

func (cs *clientStore) Get(key string) null.String {
	var val string
	err := cs.store.db.Get(&val,
		"SELECT value FROM preferences WHERE client_id = ? AND key = ? AND (expires_at = 0 OR expires_at > ?)",
		cs.clientID, key, prefs.NowFunc().Unix(),
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) && cs.store.log != nil {
			cs.store.log.Warn("prefstore: reading preference", "key", key, "error", err)
		}
		return null.String{}
	}
	return null.StringFrom(val)
}

func (cs *clientStore) Set(key, value string, ttl time.Duration) error {
	now := prefs.NowFunc()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).Unix()
	}
	_, err := cs.store.db.Exec(`
		INSERT INTO preferences (client_id, key, value, expires_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (client_id, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		cs.clientID, key, value, expiresAt, now.Unix(),
	)
	return errors.Wrap(err, "writing preference")
}
