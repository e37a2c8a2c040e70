/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists a screenplay project on disk: a JSON manifest
// holding the parsed Document (with timestamped backups and transactional
// writes) and an embedded SQLite index under .spx/ providing full-text
// search over the document's fragments. The manifest is the source of
// truth; the index is derived and can always be rebuilt.
package storage
