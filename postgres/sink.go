// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package postgres provides a relational tickimport.Sink. Ticks and daily
// stock data share the Ticks table; insertion speed metrics go to their own
// table.
package postgres

import (
	"context"

	"github.com/dbbench/tickimport"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var _ tickimport.Sink = &Sink{}

// Sink inserts records with parameterized statements, one transaction per
// Insert.
type Sink struct {
	pool *pgxpool.Pool
	name string
}

// Connect creates a connection pool for cfg and checks that it works.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "parsing connection string")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "pinging %s", cfg.Host)
	}
	return pool, nil
}

// NewSink connects to the database described by cfg.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Sink{pool: pool, name: "postgres:" + cfg.Name}, nil
}

func (s *Sink) String() string { return s.name }

// EnsureSchema creates the Ticks and insertion_speed tables and their
// indexes if they don't exist yet.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "creating schema")
		}
	}
	return nil
}

// Insert writes all records in a single transaction. Nothing is stored if
// any row fails. Rows don't have ids, so the returned slice is nil.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		row, err := RecordRow(rec)
		if err != nil {
			return nil, err
		}
		batch.Queue(row.InsertSQL(), row.Values...)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := range records {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return errors.Wrapf(err, "inserting row %d", i)
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// Drop drops the Ticks table.
func (s *Sink) Drop(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS Ticks")
	return errors.Wrap(err, "dropping Ticks")
}

// Close closes the pool.
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}
