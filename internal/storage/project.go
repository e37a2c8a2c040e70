/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/analog-alex/script-parser/internal/screenplay"
)

const (
	ManifestFileName = "screenplay.json"
	BackupsDirName   = "backups"

	// ManifestVersion tracks the manifest format; bump on breaking changes.
	ManifestVersion = 1
)

var standardSubDirs = []string{
	"source",
	"exports",
	BackupsDirName,
}

// Manifest is the on-disk representation of a screenplay project.
type Manifest struct {
	FormatVersion int                 `json:"formatVersion"`
	Name          string              `json:"name"`
	Source        string              `json:"source,omitempty"`
	Document      screenplay.Document `json:"document"`
}

// ProjectHandle keeps track of the project state loaded/saved from disk.
// Root is the project directory containing screenplay.json and subfolders.
type ProjectHandle struct {
	Root         string
	ManifestPath string
	Manifest     Manifest
}

// InitProject creates a new project directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, and writes the given
// manifest transactionally.
func InitProject(root string, m Manifest) (*ProjectHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	if m.FormatVersion == 0 {
		m.FormatVersion = ManifestVersion
	}
	ph := &ProjectHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Manifest:     m,
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	return ph, nil
}

// Open loads an existing project from the given root directory. If the
// current manifest cannot be read, parsed, or fails the schema check, it
// falls back to the latest backup.
func Open(root string) (*ProjectHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		m, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: *m}, nil
	}
	m, perr := decodeManifest(b)
	if perr != nil {
		bm, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", perr, berr)
		}
		return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: *bm}, nil
	}
	return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: *m}, nil
}

// Save writes the current manifest to disk with transactional semantics and
// a timestamped backup of the previous manifest (if present). The manifest
// is checked against the embedded schema before it replaces anything.
func Save(ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid ProjectHandle: missing paths")
	}
	normalizeDocument(&ph.Manifest.Document)

	data, err := json.MarshalIndent(ph.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := ValidateManifest(data); err != nil {
		return err
	}

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current manifest exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(ph.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Transactional write: temp file in the same directory, then rename over target
	dir := filepath.Dir(ph.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(ph.ManifestPath); err == nil {
		_ = os.Remove(ph.ManifestPath)
	}
	if rerr := os.Rename(temp, ph.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// decodeManifest validates raw manifest bytes and unmarshals them.
func decodeManifest(b []byte) (*Manifest, error) {
	if err := ValidateManifest(b); err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// openFromLatestBackup finds the newest backup and decodes it.
func openFromLatestBackup(root string) (*Manifest, error) {
	bdir := filepath.Join(root, BackupsDirName)
	entries, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, errors.New("no backups found")
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)
	for i := len(names) - 1; i >= 0; i-- {
		b, rerr := os.ReadFile(filepath.Join(bdir, names[i]))
		if rerr != nil {
			continue
		}
		if m, derr := decodeManifest(b); derr == nil {
			return m, nil
		}
	}
	return nil, errors.New("no readable backup found")
}

// normalizeDocument replaces nil collections so the manifest always
// marshals the shapes the schema requires.
func normalizeDocument(doc *screenplay.Document) {
	if doc.Characters == nil {
		doc.Characters = map[string]string{}
	}
	if doc.Scenes == nil {
		doc.Scenes = []screenplay.Scene{}
	}
	for i := range doc.Scenes {
		if doc.Scenes[i].Elements == nil {
			doc.Scenes[i].Elements = []screenplay.Element{}
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
