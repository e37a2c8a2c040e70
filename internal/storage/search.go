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
	"strings"
)

// Query describes a search over the project's fragment index.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Speaker restricts to fragments spoken by (or defining) a character code.
// Kinds can restrict to: title, character, location, dialogue, narration,
// action. SceneFrom/To are inclusive 1-based scene numbers; 0 means unset.
type Query struct {
	Text      string
	Speaker   string
	Kinds     []string
	SceneFrom int
	SceneTo   int
	Limit     int
	Offset    int
}

// Result is a single match. Snippet carries a highlighted excerpt using
// [ ] markers when FTS text matching is used. Scene is 0 for fragments
// outside any scene (title, character definitions).
type Result struct {
	FragmentID int64
	Kind       string
	Path       string
	Scene      int
	Speaker    string
	Snippet    string
}

// Search performs full-text search with optional filters over the embedded
// index. When q.Text is empty, it falls back to a non-FTS scan with the
// filters applied.
func Search(ctx context.Context, projectRoot string, q Query) ([]Result, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q Query) ([]Result, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT f.fragment_id, f.kind, f.path, COALESCE(f.scene,0), COALESCE(f.speaker,''), snippet(fts_fragments, 0, '[', ']', '...', 10)\n")
		sb.WriteString("FROM fts_fragments JOIN fragments f ON fts_fragments.rowid = f.fragment_id\n")
		sb.WriteString("WHERE fts_fragments MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT f.fragment_id, f.kind, f.path, COALESCE(f.scene,0), COALESCE(f.speaker,''), ''\n")
		sb.WriteString("FROM fragments f\nWHERE 1=1\n")
	}
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND f.kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, k)
		}
	}
	if q.SceneFrom > 0 && q.SceneTo > 0 && q.SceneTo >= q.SceneFrom {
		sb.WriteString(" AND f.scene BETWEEN ? AND ?\n")
		args = append(args, q.SceneFrom, q.SceneTo)
	} else if q.SceneFrom > 0 {
		sb.WriteString(" AND f.scene >= ?\n")
		args = append(args, q.SceneFrom)
	} else if q.SceneTo > 0 {
		sb.WriteString(" AND f.scene <= ?\n")
		args = append(args, q.SceneTo)
	}
	if s := strings.TrimSpace(q.Speaker); s != "" {
		sb.WriteString(" AND f.speaker IS NOT NULL AND upper(f.speaker)=?\n")
		args = append(args, strings.ToUpper(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY f.scene NULLS LAST, f.fragment_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.FragmentID, &r.Kind, &r.Path, &r.Scene, &r.Speaker, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
