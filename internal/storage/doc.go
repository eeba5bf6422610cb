/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements diagram document persistence.
// It handles create/open/save for .gdg.json documents with transactional writes and timestamped backups
// in a sibling backups/ folder, falling back to the newest backup when a document cannot be read.
// It also manages the per-document SQLite revision store at <dir>/.gdg/<name>.sqlite that keeps
// autosave, checkpoint and crash revisions. The revision store is disposable: a corrupt one is
// backed up and recreated.
package storage
