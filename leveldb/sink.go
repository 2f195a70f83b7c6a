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

// Package leveldb provides a document store tickimport.Sink backed by
// leveldb. Each record is stored as a JSON document under a collection key
// prefix.
package leveldb

import (
	"context"
	"encoding/json"
	"os"

	"github.com/dbbench/tickimport"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ tickimport.Sink = &Sink{}

// Sink stores records as documents in one collection of a leveldb
// database.
type Sink struct {
	dirname    string
	collection string
	db         *leveldb.DB
	sync       bool
}

// SinkOption is a functional option for Sink.
type SinkOption func(s *Sink)

// OptSinkSync makes every Insert fsync before returning.
func OptSinkSync(sync bool) SinkOption {
	return func(s *Sink) {
		s.sync = sync
	}
}

// NewSink opens (creating if necessary) the leveldb database in dirname and
// returns a Sink for collection.
func NewSink(dirname, collection string, opts ...SinkOption) (*Sink, error) {
	if collection == "" {
		return nil, errors.New("collection name required")
	}
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	s := &Sink{
		dirname:    dirname,
		collection: collection,
	}
	for _, o := range opts {
		o(s)
	}
	s.db, err = leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	return s, nil
}

func (s *Sink) String() string {
	return "leveldb:" + s.collection
}

func (s *Sink) prefix() []byte {
	return []byte(s.collection + "\x00")
}

func (s *Sink) key(id string) []byte {
	return append(s.prefix(), id...)
}

// Insert writes records as one leveldb batch and returns their generated
// document ids.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "inserting")
	}
	batch := new(leveldb.Batch)
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = uuid.New().String()
		doc, err := tickimport.MarshalDocument(rec, ids[i])
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s record", rec.EntryType())
		}
		batch.Put(s.key(ids[i]), doc)
	}
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: s.sync}); err != nil {
		return nil, errors.Wrap(err, "writing batch")
	}
	return ids, nil
}

// Get returns the document stored under id.
func (s *Sink) Get(id string) (map[string]interface{}, error) {
	val, err := s.db.Get(s.key(id), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", id)
	}
	doc := make(map[string]interface{})
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", id)
	}
	return doc, nil
}

// Count returns the number of documents in the collection.
func (s *Sink) Count() (int, error) {
	iter := s.db.NewIterator(util.BytesPrefix(s.prefix()), nil)
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	return n, errors.Wrap(iter.Error(), "iterating collection")
}

// Drop deletes every document in the collection.
func (s *Sink) Drop(ctx context.Context) error {
	iter := s.db.NewIterator(util.BytesPrefix(s.prefix()), nil)
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "iterating collection")
	}
	return errors.Wrap(s.db.Write(batch, nil), "deleting collection")
}

// Close closes the underlying leveldb.
func (s *Sink) Close() error {
	return errors.Wrap(s.db.Close(), "closing leveldb")
}
