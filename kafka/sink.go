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

// Package kafka provides a tickimport.Sink which publishes each record as a
// JSON message, keyed by symbol so that a symbol's ticks stay in order on
// one partition.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/dbbench/tickimport"
	"github.com/pkg/errors"
)

var _ tickimport.Sink = &Sink{}

// Main holds the kafka connection options.
type Main struct {
	Hosts []string
	Topic string
}

// NewMain returns a Main with local defaults.
func NewMain() *Main {
	return &Main{
		Hosts: []string{"localhost:9092"},
		Topic: "ticks",
	}
}

// Sink publishes batches of records with a SyncProducer.
type Sink struct {
	topic    string
	producer sarama.SyncProducer
	admin    sarama.ClusterAdmin
}

// NewSink connects a producer and a cluster admin to m.Hosts.
func NewSink(m *Main) (*Sink, error) {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_1_0
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	producer, err := sarama.NewSyncProducer(m.Hosts, conf)
	if err != nil {
		return nil, errors.Wrap(err, "getting new producer")
	}
	admin, err := sarama.NewClusterAdmin(m.Hosts, conf)
	if err != nil {
		producer.Close()
		return nil, errors.Wrap(err, "getting cluster admin")
	}
	s := NewProducerSink(producer, m.Topic)
	s.admin = admin
	return s, nil
}

// NewProducerSink wraps an existing producer. The resulting Sink can't
// Drop.
func NewProducerSink(producer sarama.SyncProducer, topic string) *Sink {
	return &Sink{topic: topic, producer: producer}
}

func (s *Sink) String() string { return "kafka:" + s.topic }

// JSONRecord implements the sarama.Encoder interface for a Record using
// its document form.
type JSONRecord struct {
	tickimport.Record
}

// Encode marshals the record to json.
func (r JSONRecord) Encode() ([]byte, error) {
	return json.Marshal(tickimport.Document(r.Record))
}

// Length returns the length of the marshalled json.
func (r JSONRecord) Length() int {
	bytes, _ := r.Encode()
	return len(bytes)
}

// Key returns the partitioning key for rec: the symbol for ticks, the
// ticker for daily data, and nil otherwise.
func Key(rec tickimport.Record) sarama.Encoder {
	switch r := rec.(type) {
	case *tickimport.Trade:
		return sarama.StringEncoder(r.Symbol)
	case *tickimport.Quote:
		return sarama.StringEncoder(r.Symbol)
	case *tickimport.HistoricalDaily:
		return sarama.StringEncoder(r.Ticker)
	}
	return nil
}

// Insert sends one message per record and waits for all of them to be
// acknowledged. Kafka assigns no ids, so the returned slice is nil.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	msgs := make([]*sarama.ProducerMessage, len(records))
	for i, rec := range records {
		msgs[i] = &sarama.ProducerMessage{Topic: s.topic, Key: Key(rec), Value: JSONRecord{rec}}
	}
	if err := s.producer.SendMessages(msgs); err != nil {
		if perrs, ok := err.(sarama.ProducerErrors); ok && len(perrs) > 0 {
			return nil, errors.Wrapf(perrs[0].Err, "%d of %d messages failed", len(perrs), len(msgs))
		}
		return nil, errors.Wrap(err, "sending messages")
	}
	return nil, nil
}

// Drop deletes the topic.
func (s *Sink) Drop(ctx context.Context) error {
	if s.admin == nil {
		return errors.Errorf("no cluster admin to delete topic %s", s.topic)
	}
	err := s.admin.DeleteTopic(s.topic)
	if err == sarama.ErrUnknownTopicOrPartition {
		return nil
	}
	return errors.Wrapf(err, "deleting topic %s", s.topic)
}

// Close closes the producer and admin.
func (s *Sink) Close() error {
	err := s.producer.Close()
	if s.admin != nil {
		if aerr := s.admin.Close(); err == nil {
			err = aerr
		}
	}
	return errors.Wrap(err, "closing kafka producer")
}
