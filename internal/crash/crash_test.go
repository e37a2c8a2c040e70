/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/analog-alex/script-parser/internal/storage"
)

func TestHandleWritesReportIntoProjectBackups(t *testing.T) {
	root := t.TempDir()
	ph := &storage.ProjectHandle{Root: root, ManifestPath: filepath.Join(root, storage.ManifestFileName)}

	exited := -1
	old := exitFn
	exitFn = func(code int) { exited = code }
	defer func() { exitFn = old }()

	func() {
		defer func() {
			if r := recover(); r != nil {
				Handle(ph, r)
			}
		}()
		panic("kaboom")
	}()

	if exited != 2 {
		t.Fatalf("expected exit code 2, got %d", exited)
	}
	entries, err := os.ReadDir(filepath.Join(root, storage.BackupsDirName))
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected a crash report, err=%v", err)
	}
	b, err := os.ReadFile(filepath.Join(root, storage.BackupsDirName, entries[0].Name()))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "kaboom") {
		t.Fatalf("report missing panic value: %s", b)
	}
}

func TestHandleNilValueIsNoop(t *testing.T) {
	old := exitFn
	exitFn = func(int) { t.Fatalf("exit must not be called without a panic") }
	defer func() { exitFn = old }()
	Handle(nil, nil)
}
