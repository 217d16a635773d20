// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecoforge/pkg/errors"
)

// PGStore PostgreSQL 实现，多进程共享；需先建 eco_sessions 表：
//
//	CREATE TABLE IF NOT EXISTS eco_sessions (
//	    session_id TEXT PRIMARY KEY,
//	    record     JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// 快照整体以 JSONB 单行 upsert，单条语句即保证读侧的原子可见性。
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore 创建基于 PostgreSQL 的 Store。
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "postgres memory store requires dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPersistence, err.Error())
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ErrPersistence, err.Error())
	}
	return &PGStore{pool: pool}, nil
}

// Save 实现 Store。
func (s *PGStore) Save(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrPersistence, err.Error())
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO eco_sessions (session_id, record, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (session_id) DO UPDATE SET
		   record = EXCLUDED.record,
		   updated_at = now()`,
		rec.SessionID, raw,
	)
	if err != nil {
		return errors.Wrap(errors.ErrPersistence, err.Error())
	}
	return nil
}

// Load 实现 Store。
func (s *PGStore) Load(ctx context.Context, sessionID string) (*Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM eco_sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errors.ErrSessionNotFound, "session %s", sessionID)
		}
		return nil, errors.Wrap(errors.ErrPersistence, err.Error())
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrPersistence, err.Error())
	}
	return &rec, nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
