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

// Package boltdb provides a document store tickimport.Sink backed by
// boltdb. Each collection is a bucket, and documents are keyed by the
// bucket's sequence so they iterate in insertion order. It is the default
// store for insertion speed metrics.
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strconv"
	"time"

	"github.com/boltdb/bolt"
	"github.com/dbbench/tickimport"
	"github.com/pkg/errors"
)

var _ tickimport.Sink = &Sink{}

// Sink stores records as JSON documents in one bucket of a bolt file.
type Sink struct {
	Db     *bolt.DB
	bucket []byte
}

// NewSink opens (creating if necessary) the bolt file at filename and
// ensures the collection's bucket exists.
func NewSink(filename, collection string) (s *Sink, err error) {
	if collection == "" {
		return nil, errors.New("collection name required")
	}
	s = &Sink{
		bucket: []byte(collection),
	}
	s.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	err = s.Db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return errors.Wrap(err, "creating bucket")
	})
	if err != nil {
		s.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return s, nil
}

func (s *Sink) String() string {
	return "bolt:" + string(s.bucket)
}

// Insert writes records in a single transaction and returns their sequence
// ids.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "inserting")
	}
	ids := make([]string, len(records))
	err := s.Db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return errors.Errorf("bucket '%s' missing", s.bucket)
		}
		for i, rec := range records {
			seq, err := b.NextSequence()
			if err != nil {
				return errors.Wrap(err, "getting next sequence")
			}
			ids[i] = strconv.FormatUint(seq, 10)
			doc, err := tickimport.MarshalDocument(rec, ids[i])
			if err != nil {
				return errors.Wrapf(err, "encoding %s record", rec.EntryType())
			}
			if err := b.Put(seqKey(seq), doc); err != nil {
				return errors.Wrap(err, "putting document")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Documents returns every document in the collection in insertion order.
func (s *Sink) Documents() (docs []map[string]interface{}, err error) {
	err = s.Db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			doc := make(map[string]interface{})
			if err := json.Unmarshal(v, &doc); err != nil {
				return errors.Wrapf(err, "decoding document %d", binary.BigEndian.Uint64(k))
			}
			docs = append(docs, doc)
			return nil
		})
	})
	return docs, err
}

// Drop deletes and recreates the collection's bucket.
func (s *Sink) Drop(ctx context.Context) error {
	return s.Db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && err != bolt.ErrBucketNotFound {
			return errors.Wrap(err, "deleting bucket")
		}
		_, err := tx.CreateBucket(s.bucket)
		return errors.Wrap(err, "recreating bucket")
	})
}

// Close syncs and closes the underlying boltdb.
func (s *Sink) Close() error {
	err := s.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return s.Db.Close()
}
