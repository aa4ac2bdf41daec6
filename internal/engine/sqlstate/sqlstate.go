// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlstate is an optional StateBackend that persists a key's
// StateStore snapshot to an embedded, pure-Go SQL engine (ramsql) instead
// of leaving it as a bare in-process map. It exists to prove the "State
// backend adapter" boundary of §6 is genuinely pluggable: any backend that
// can round-trip a Snapshot satisfies the same contract the default
// in-memory store does.
package sqlstate

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"
	"sync"

	_ "github.com/proullon/ramsql/driver"

	"github.com/flpablo/beam/internal/engine"
)

// Backend is a StateBackend (§6) that hands out in-memory StateStores for
// live per-key work but persists Snapshot()/Restore() round trips through
// a ramsql-backed table, demonstrating that the adapter may "wrap an
// in-memory or a persistent store" per spec.
type Backend struct {
	db   *sql.DB
	mu   sync.Mutex
	once sync.Once
}

// Open creates a Backend backed by a fresh, uniquely named in-memory
// ramsql database. name should be unique per test/run; ramsql keeps each
// named database isolated within the process.
func Open(name string) (*Backend, error) {
	db, err := sql.Open("ramsql", name)
	if err != nil {
		return nil, fmt.Errorf("sqlstate: opening ramsql database %q: %w", name, err)
	}
	b := &Backend{db: db}
	if err := b.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) ensureSchema() error {
	_, err := b.db.Exec(`CREATE TABLE IF NOT EXISTS state_cells (
		state_key TEXT,
		namespace TEXT,
		cell_id TEXT,
		payload BLOB
	)`)
	if err != nil {
		return fmt.Errorf("sqlstate: creating schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (b *Backend) Close() error { return b.db.Close() }

// ForKey returns a fresh in-memory StateStore for key. Use Persist/Restore
// to round-trip its contents through ramsql.
func (b *Backend) ForKey(key []byte) engine.StateStore {
	return engine.NewMemStateStore()
}

var _ engine.StateBackend = (*Backend)(nil)

// Bag and Set cells snapshot as []any, which gob only carries inside an
// interface value once the concrete type is registered.
func init() { gob.Register([]any(nil)) }

// Persist writes store's snapshot for stateKey into the ramsql table,
// replacing any prior snapshot under the same key.
func (b *Backend) Persist(stateKey string, store engine.StateStore) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := store.Snapshot()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlstate: begin: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM state_cells WHERE state_key = ?`, stateKey); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlstate: clearing prior snapshot: %w", err)
	}
	for namespace, cells := range snap.Cells {
		for id, value := range cells {
			payload, err := encode(value)
			if err != nil {
				tx.Rollback()
				return err
			}
			if _, err := tx.Exec(
				`INSERT INTO state_cells (state_key, namespace, cell_id, payload) VALUES (?, ?, ?, ?)`,
				stateKey, namespace, id, payload,
			); err != nil {
				tx.Rollback()
				return fmt.Errorf("sqlstate: inserting cell %s/%s: %w", namespace, id, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstate: commit: %w", err)
	}
	return nil
}

// Restore reads back the snapshot persisted under stateKey. It returns an
// empty Snapshot if nothing was ever persisted for that key.
func (b *Backend) Restore(stateKey string) (engine.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.Query(`SELECT namespace, cell_id, payload FROM state_cells WHERE state_key = ?`, stateKey)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("sqlstate: querying snapshot: %w", err)
	}
	defer rows.Close()

	out := engine.Snapshot{Cells: map[string]map[string]any{}}
	for rows.Next() {
		var namespace, id string
		var payload []byte
		if err := rows.Scan(&namespace, &id, &payload); err != nil {
			return engine.Snapshot{}, fmt.Errorf("sqlstate: scanning row: %w", err)
		}
		value, err := decode(payload)
		if err != nil {
			return engine.Snapshot{}, err
		}
		ns, ok := out.Cells[namespace]
		if !ok {
			ns = map[string]any{}
			out.Cells[namespace] = ns
		}
		ns[id] = value
	}
	return out, rows.Err()
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, fmt.Errorf("sqlstate: encoding cell value: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (any, error) {
	var v any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, fmt.Errorf("sqlstate: decoding cell value: %w", err)
	}
	return v, nil
}
