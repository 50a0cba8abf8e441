/*
Package store
File: store.go
Description:
    Named save slots in SQLite.
    Each slot holds one zstd-compressed snapshot plus enough metadata to list
    slots without decoding them. The payload digest is checked on every load.
*/

package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/everforgeworks/gemini-farm/internal/game"
	"github.com/everforgeworks/gemini-farm/internal/snapshot"
)

var (
	ErrNotFound = errors.New("save slot not found")
	ErrCorrupt  = errors.New("save slot is corrupt")
	ErrBadSlot  = errors.New("invalid slot name")
)

const maxSlotLen = 64

// SaveInfo is a slot listing row.
type SaveInfo struct {
	Slot    string `db:"slot" json:"slot"`
	SavedAt int64  `db:"saved_at" json:"saved_at"` // Unix milliseconds
	Money   int64  `db:"money" json:"money"`
	Digest  string `db:"digest" json:"digest"`
}

type saveRow struct {
	SaveInfo
	Payload []byte `db:"payload"`
}

// DB wraps a SQLite connection, the shared zstd codecs and the snapshot
// codec that validates every loaded payload.
type DB struct {
	conn  *sqlx.DB
	enc   *zstd.Encoder
	dec   *zstd.Decoder
	codec *snapshot.Codec
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway store. Loads are validated with codec; nil means the codec for
// the embedded catalog.
func Open(path string, codec *snapshot.Codec) (*DB, error) {
	if codec == nil {
		codec = snapshot.Default()
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single writer keeps :memory: databases on one connection
	conn.SetMaxOpenConns(1)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec, codec: codec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close releases the connection and codecs.
func (db *DB) Close() error {
	db.dec.Close()
	db.enc.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		saved_at INTEGER NOT NULL,
		money INTEGER NOT NULL,
		digest TEXT NOT NULL,
		payload BLOB NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func validSlot(slot string) error {
	if slot == "" || len(slot) > maxSlotLen {
		return fmt.Errorf("%w: %q", ErrBadSlot, slot)
	}
	if strings.IndexFunc(slot, func(r rune) bool {
		return !(r == '-' || r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) >= 0 {
		return fmt.Errorf("%w: %q", ErrBadSlot, slot)
	}
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Save writes w into slot, replacing whatever was there.
func (db *DB) Save(ctx context.Context, slot string, w game.World, at time.Time) (SaveInfo, error) {
	if err := validSlot(slot); err != nil {
		return SaveInfo{}, err
	}
	data, err := snapshot.Encode(w)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("encode: %w", err)
	}
	info := SaveInfo{
		Slot:    slot,
		SavedAt: at.UnixMilli(),
		Money:   w.Money,
		Digest:  digest(data),
	}
	payload := db.enc.EncodeAll(data, nil)

	_, err = db.conn.ExecContext(ctx, `INSERT INTO saves (slot, saved_at, money, digest, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			saved_at = excluded.saved_at,
			money = excluded.money,
			digest = excluded.digest,
			payload = excluded.payload`,
		info.Slot, info.SavedAt, info.Money, info.Digest, payload)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("save %s: %w", slot, err)
	}
	return info, nil
}

// Load reads and validates the snapshot in slot.
func (db *DB) Load(ctx context.Context, slot string) (game.World, SaveInfo, error) {
	if err := validSlot(slot); err != nil {
		return game.World{}, SaveInfo{}, err
	}
	var row saveRow
	err := db.conn.GetContext(ctx, &row,
		`SELECT slot, saved_at, money, digest, payload FROM saves WHERE slot = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return game.World{}, SaveInfo{}, fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	if err != nil {
		return game.World{}, SaveInfo{}, fmt.Errorf("load %s: %w", slot, err)
	}

	data, err := db.dec.DecodeAll(row.Payload, nil)
	if err != nil {
		return game.World{}, SaveInfo{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, slot, err)
	}
	if digest(data) != row.Digest {
		return game.World{}, SaveInfo{}, fmt.Errorf("%w: %s: digest mismatch", ErrCorrupt, slot)
	}
	w, err := db.codec.Decode(data)
	if err != nil {
		return game.World{}, SaveInfo{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, slot, err)
	}
	return w, row.SaveInfo, nil
}

// List returns every slot, most recent first.
func (db *DB) List(ctx context.Context) ([]SaveInfo, error) {
	out := []SaveInfo{}
	err := db.conn.SelectContext(ctx, &out,
		`SELECT slot, saved_at, money, digest FROM saves ORDER BY saved_at DESC, slot`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return out, nil
}

// Quarantine renames slot to "<slot>.corrupt-<unix ms>" so a fresh save can
// take its place without destroying the old payload. The row is moved as
// is; nothing is decoded. It returns the new slot name.
func (db *DB) Quarantine(ctx context.Context, slot string, at time.Time) (string, error) {
	if err := validSlot(slot); err != nil {
		return "", err
	}
	suffix := fmt.Sprintf(".corrupt-%d", at.UnixMilli())
	base := slot
	if len(base)+len(suffix) > maxSlotLen {
		base = base[:maxSlotLen-len(suffix)]
	}
	moved := base + suffix

	res, err := db.conn.ExecContext(ctx, `UPDATE saves SET slot = ? WHERE slot = ?`, moved, slot)
	if err != nil {
		return "", fmt.Errorf("quarantine %s: %w", slot, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	return moved, nil
}

// Delete removes slot.
func (db *DB) Delete(ctx context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("delete %s: %w", slot, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	return nil
}
