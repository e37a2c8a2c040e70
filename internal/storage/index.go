/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "github.com/analog-alex/script-parser/internal/log"
	"github.com/analog-alex/script-parser/internal/screenplay"
	"github.com/analog-alex/script-parser/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project ephemeral/index data under the project root.
	IndexDirName  = ".spx"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	schemaVersion = 1
)

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at
// .spx/index.sqlite, opens the database, enables WAL mode, and ensures the
// meta/version and fragment tables exist. Callers close the returned DB.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .spx dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .spx dir: %w", err)
	}

	path := IndexPath(projectRoot)
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Embedded usage: keep a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the fragment table and FTS structures if they
// do not exist. Fragments are derived from the Document: one row per
// searchable unit (title, character, location, dialogue, narration, action).
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS fragments (
			fragment_id INTEGER PRIMARY KEY,
			kind        TEXT    NOT NULL,
			path        TEXT    NOT NULL,
			scene       INTEGER,
			speaker     TEXT,
			text        TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_path ON fragments(path);`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_scene ON fragments(scene);`,

		// External-content FTS5 index backed by fragments, kept in sync
		// via triggers. snippet() reads text back from the content table.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_fragments USING fts5(
			text,
			content='fragments',
			content_rowid='fragment_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS fragments_ai AFTER INSERT ON fragments BEGIN
			INSERT INTO fts_fragments(rowid, text) VALUES (new.fragment_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS fragments_ad AFTER DELETE ON fragments BEGIN
			INSERT INTO fts_fragments(fts_fragments, rowid, text) VALUES ('delete', old.fragment_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS fragments_au AFTER UPDATE OF text ON fragments BEGIN
			INSERT INTO fts_fragments(fts_fragments, rowid, text) VALUES ('delete', old.fragment_id, old.text);
			INSERT INTO fts_fragments(rowid, text) VALUES (new.fragment_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// RebuildIndex replaces the fragment content from the given document. The
// index is derived data; rebuilding is always safe.
func RebuildIndex(ctx context.Context, projectRoot string, doc *screenplay.Document) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildFragments(ctx, db, doc)
}

type fragmentRow struct {
	kind    string
	path    string
	scene   sql.NullInt64
	speaker sql.NullString
	text    string
}

func rebuildFragments(ctx context.Context, db *sql.DB, doc *screenplay.Document) error {
	rows := collectFragments(doc)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear fragments: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO fragments(kind, path, scene, speaker, text) VALUES(?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.kind, r.path, r.scene, r.speaker, r.text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert fragment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// collectFragments flattens a document into indexable rows. Scene numbers
// are 1-based, matching validation messages.
func collectFragments(doc *screenplay.Document) []fragmentRow {
	rows := make([]fragmentRow, 0, 64)
	if doc == nil {
		return rows
	}
	if s := strings.TrimSpace(doc.Title); s != "" {
		rows = append(rows, fragmentRow{kind: "title", path: "title", text: s})
	}
	codes := make([]string, 0, len(doc.Characters))
	for c := range doc.Characters {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if name := strings.TrimSpace(doc.Characters[code]); name != "" {
			rows = append(rows, fragmentRow{
				kind:    "character",
				path:    "character:" + code,
				speaker: sql.NullString{String: code, Valid: true},
				text:    name,
			})
		}
	}
	for i, scene := range doc.Scenes {
		n := int64(i + 1)
		sceneNum := sql.NullInt64{Int64: n, Valid: true}
		if scene.Location != nil && strings.TrimSpace(*scene.Location) != "" {
			rows = append(rows, fragmentRow{
				kind:  "location",
				path:  fmt.Sprintf("scene:%d/location", n),
				scene: sceneNum,
				text:  strings.TrimSpace(*scene.Location),
			})
		}
		for j, el := range scene.Elements {
			r := fragmentRow{
				kind:  string(el.Type),
				path:  fmt.Sprintf("scene:%d/%s:%d", n, el.Type, j+1),
				scene: sceneNum,
				text:  el.Text,
			}
			if el.Type == screenplay.ElementDialogue {
				r.speaker = sql.NullString{String: el.Speaker, Valid: true}
			}
			rows = append(rows, r)
		}
	}
	return rows
}
