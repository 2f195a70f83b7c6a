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

// Package importer holds the configuration and wiring for a complete import
// run: it opens the configured sink and metrics store, walks the input and
// reports a summary per file.
package importer

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dbbench/tickimport"
	"github.com/dbbench/tickimport/aws/s3"
	"github.com/dbbench/tickimport/boltdb"
	"github.com/dbbench/tickimport/file"
	"github.com/dbbench/tickimport/ingest"
	"github.com/dbbench/tickimport/kafka"
	"github.com/dbbench/tickimport/leveldb"
	"github.com/dbbench/tickimport/logger"
	"github.com/dbbench/tickimport/parquet"
	"github.com/dbbench/tickimport/pilosa"
	"github.com/dbbench/tickimport/postgres"
	"github.com/dbbench/tickimport/termstat"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Sink kinds.
const (
	SinkLevelDB  = "leveldb"
	SinkBolt     = "bolt"
	SinkPostgres = "postgres"
	SinkKafka    = "kafka"
	SinkPilosa   = "pilosa"
	SinkParquet  = "parquet"
)

// Defaults of the document store run.
const (
	DefaultHost = "10.0.100.40"
	DefaultPort = 27017
	DefaultDB   = "data"
	DefaultColl = "historical"

	DefaultMetricsPath       = "benchmarks"
	DefaultMetricsCollection = "insertion_speed"
)

// ErrFilesFailed is returned by Run when at least one file could not be
// imported.
const ErrFilesFailed = tickimport.Error("one or more files failed to import")

// Main holds all config for an import run.
type Main struct {
	Host   string `help:"Database host."`
	Port   int    `help:"Database port."`
	DB     string `help:"Database name. For leveldb and bolt, the directory or file holding the store."`
	Coll   string `help:"Collection to import into."`
	Path   string `help:"File or directory to import."`
	UserID string `help:"Database user."`
	Pwd    string `help:"Database password."`
	SQL    bool   `help:"Import into the relational store. Shorthand for --sink=postgres with its default host and database."`

	Sink                     string `help:"Storage backend: leveldb, bolt, postgres, kafka, pilosa or parquet."`
	Format                   string `help:"Input format: tick, daily or daily-folder."`
	Delimiter                string `help:"Override the format's field delimiter."`
	FlushThreshold           int    `help:"Records buffered before a bulk insert."`
	CompressedFlushThreshold int    `help:"Records buffered before a bulk insert when the file is compressed."`
	MetricsPath              string `help:"Bolt file insertion speed metrics are stored in. Postgres imports store them in the insertion_speed table instead. Empty disables metrics."`
	Drop                     bool   `help:"Drop everything in the target before importing."`
	EnsureSchema             bool   `help:"Create the relational tables and indexes if they don't exist."`
	Workers                  int    `help:"Files imported in parallel. Leveldb and bolt workers share one handle; other sinks get a connection per worker."`
	Sync                     bool   `help:"Fsync every leveldb bulk insert."`

	S3Bucket string `help:"Read the files from this S3 bucket instead of --path."`
	S3Region string `help:"AWS region of the bucket."`
	S3Prefix string `help:"Only import objects under this key prefix."`

	KafkaHosts      []string `help:"Comma separated list of host:port pairs for Kafka."`
	KafkaTopic      string   `help:"Kafka topic to publish to."`
	PilosaHosts     []string `help:"Comma separated list of host:port pairs for Pilosa."`
	PilosaIndex     string   `help:"Name of Pilosa index."`
	PilosaBatchSize int      `help:"Batch size for Pilosa imports."`
	ParquetDir      string   `help:"Directory parquet files are written to."`
	ParquetCodec    string   `help:"Parquet compression: snappy, gzip or none."`

	LogLevel  string `help:"Log level: debug, info, warn or error."`
	LogFormat string `help:"Log format: json or text."`
	LogOutput string `help:"Log output: stderr, stdout or a file path."`
	LogMaxAge int    `help:"Rotate the log file, keeping this many days. 0 disables rotation."`
	Progress  bool   `help:"Print running import counters to stderr."`

	// NewSink, if set, replaces the sink built from the configuration.
	NewSink func(ctx context.Context) (tickimport.Sink, error) `flag:"-"`
	// Logger and Statter, if set, replace the configured ones.
	Logger  tickimport.Logger  `flag:"-"`
	Statter tickimport.Statter `flag:"-"`

	pilosaCols uint64
	closeLog   func() error
}

// NewMain returns a Main with the document store defaults.
func NewMain() *Main {
	return &Main{
		Host:   DefaultHost,
		Port:   DefaultPort,
		DB:     DefaultDB,
		Coll:   DefaultColl,
		UserID: postgres.DefaultUser,

		Sink:                     SinkLevelDB,
		Format:                   tickimport.TickFormat.Name,
		FlushThreshold:           tickimport.DefaultFlushThreshold,
		CompressedFlushThreshold: tickimport.DefaultCompressedFlushThreshold,
		MetricsPath:              DefaultMetricsPath,
		Workers:                  1,

		S3Region: "us-east-1",

		KafkaHosts:      kafka.NewMain().Hosts,
		KafkaTopic:      kafka.NewMain().Topic,
		PilosaHosts:     pilosa.NewMain().Hosts,
		PilosaIndex:     pilosa.NewMain().Index,
		PilosaBatchSize: pilosa.NewMain().BatchSize,
		ParquetDir:      "parquet",
		ParquetCodec:    "snappy",

		LogLevel:  "info",
		LogFormat: "text",
		LogOutput: "stderr",
	}
}

// Validate applies --sql and checks option combinations. Run calls it, but
// callers which need to tell configuration problems apart from import
// failures can call it first.
func (m *Main) Validate() error {
	if m.SQL {
		m.Sink = SinkPostgres
	}
	if m.Sink == SinkPostgres {
		// switch the document store defaults over to the relational ones
		if m.Host == DefaultHost {
			m.Host = postgres.DefaultHost
		}
		if m.Port == DefaultPort {
			m.Port = postgres.DefaultPort
		}
		if m.DB == DefaultDB {
			m.DB = postgres.DefaultName
		}
	}
	switch m.Sink {
	case SinkLevelDB, SinkBolt, SinkPostgres, SinkKafka, SinkPilosa, SinkParquet:
	default:
		if m.NewSink == nil {
			return errors.Errorf("unknown sink '%s'", m.Sink)
		}
	}
	if m.Path == "" && m.S3Bucket == "" {
		return errors.New("path or s3 bucket required")
	}
	if m.Workers < 1 {
		m.Workers = 1
	}
	if _, err := tickimport.FormatByName(m.Format, m.Delimiter); err != nil {
		return err
	}
	return nil
}

func (m *Main) setupLogging() error {
	if m.Logger != nil {
		return nil
	}
	l := logger.Logger()
	if err := l.Configure(m.LogLevel, m.LogFormat, m.LogOutput, m.LogMaxAge); err != nil {
		return errors.Wrap(err, "configuring logger")
	}
	m.Logger = l
	m.closeLog = l.Close
	return nil
}

func (m *Main) postgresConfig() postgres.Config {
	return postgres.Config{
		Host:     m.Host,
		Port:     m.Port,
		Name:     m.DB,
		User:     m.UserID,
		Password: m.Pwd,
	}
}

// openMetrics opens the store insertion speed metrics are written to. It
// returns nil if metrics are disabled.
func (m *Main) openMetrics(ctx context.Context) (tickimport.Sink, error) {
	if m.MetricsPath == "" {
		return nil, nil
	}
	if m.Sink == SinkPostgres {
		return postgres.NewSink(ctx, m.postgresConfig())
	}
	return boltdb.NewSink(m.MetricsPath, DefaultMetricsCollection)
}

// openSink builds a sink for the configured backend. Every call returns a
// new connection.
func (m *Main) openSink(ctx context.Context) (tickimport.Sink, error) {
	if m.NewSink != nil {
		return m.NewSink(ctx)
	}
	switch m.Sink {
	case SinkLevelDB:
		return leveldb.NewSink(m.DB, m.Coll, leveldb.OptSinkSync(m.Sync))
	case SinkBolt:
		return boltdb.NewSink(m.DB, m.Coll)
	case SinkPostgres:
		return postgres.NewSink(ctx, m.postgresConfig())
	case SinkKafka:
		return kafka.NewSink(&kafka.Main{Hosts: m.KafkaHosts, Topic: m.KafkaTopic})
	case SinkPilosa:
		return pilosa.NewSink(&pilosa.Main{Hosts: m.PilosaHosts, Index: m.PilosaIndex, BatchSize: m.PilosaBatchSize},
			pilosa.OptSinkColumnCounter(&m.pilosaCols))
	case SinkParquet:
		return parquet.NewSink(m.ParquetDir, m.Coll, m.ParquetCodec)
	}
	return nil, errors.Errorf("unknown sink '%s'", m.Sink)
}

// prepare drops and creates the schema of the target as configured.
func (m *Main) prepare(ctx context.Context, sink tickimport.Sink) error {
	if m.Drop {
		m.Logger.Printf("dropping %v", sink)
		if err := sink.Drop(ctx); err != nil {
			return errors.Wrap(err, "dropping")
		}
	}
	if m.EnsureSchema {
		es, ok := sink.(interface {
			EnsureSchema(ctx context.Context) error
		})
		if !ok {
			return errors.Errorf("sink %v has no schema to create", sink)
		}
		if err := es.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run imports m.Path (or the S3 bucket) and returns one summary per file.
// The error is ErrFilesFailed if any file failed, or describes why the run
// couldn't start.
func (m *Main) Run(ctx context.Context) (summaries []ingest.Summary, err error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating configuration")
	}
	if err := m.setupLogging(); err != nil {
		return nil, err
	}
	if m.closeLog != nil {
		defer func() {
			m.closeLog()
			m.Logger, m.closeLog = nil, nil
		}()
	}
	if m.Statter == nil {
		if m.Progress {
			collector := termstat.NewCollector(os.Stderr, time.Second*2)
			defer collector.Stop()
			m.Statter = collector
		} else {
			m.Statter = tickimport.NopStatter{}
		}
	}
	format, _ := tickimport.FormatByName(m.Format, m.Delimiter)

	metrics, err := m.openMetrics(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "opening metrics store")
	}
	if metrics != nil {
		defer metrics.Close()
	}
	recorder := tickimport.NewThroughputRecorder(metrics,
		tickimport.OptRecorderLogger(m.Logger),
		tickimport.OptRecorderStatter(m.Statter))

	sink, err := m.openSink(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "opening sink")
	}
	defer func() {
		if sink == nil {
			return
		}
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing sink")
		}
	}()
	if err := m.prepare(ctx, sink); err != nil {
		return nil, err
	}

	newPipeline := func(s tickimport.Sink) *ingest.Pipeline {
		return ingest.NewPipeline(s,
			ingest.OptFormat(format),
			ingest.OptFlushThreshold(m.FlushThreshold),
			ingest.OptCompressedFlushThreshold(m.CompressedFlushThreshold),
			ingest.OptRecorder(recorder),
			ingest.OptLogger(m.Logger),
			ingest.OptStatter(m.Statter))
	}

	start := time.Now()
	switch {
	case m.S3Bucket != "":
		rs, err := s3.NewRawSource(ctx, m.S3Bucket, s3.OptSrcRegion(m.S3Region), s3.OptSrcPrefix(m.S3Prefix))
		if err != nil {
			return nil, errors.Wrap(err, "getting s3 source")
		}
		summaries, err = newPipeline(sink).ImportSource(ctx, rs)
		if err != nil {
			return summaries, err
		}
	case m.Workers > 1:
		var shared tickimport.Sink
		if m.embedded() {
			shared = sink
		} else {
			if err := sink.Close(); err != nil {
				return nil, errors.Wrap(err, "closing setup sink")
			}
			sink = nil
		}
		summaries, err = m.importParallel(ctx, newPipeline, shared)
		if err != nil {
			return summaries, err
		}
	default:
		summaries, err = importPath(ctx, newPipeline(sink), m.Path)
		if err != nil {
			return summaries, err
		}
	}

	totals := ingest.Total(summaries)
	if err := ctx.Err(); err != nil {
		m.Logger.Printf("import stopped after %v: %s", time.Since(start), totals)
		return summaries, errors.Wrap(err, "import stopped")
	}
	m.Logger.Printf("import finished in %v: %s", time.Since(start), totals)
	if totals.FailedFiles > 0 {
		return summaries, ErrFilesFailed
	}
	return summaries, nil
}

func importPath(ctx context.Context, p *ingest.Pipeline, path string) ([]ingest.Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if info.IsDir() {
		return p.ImportDirectory(ctx, path)
	}
	return []ingest.Summary{p.ImportFile(ctx, path)}, nil
}

// embedded reports whether the sink is a local store which allows only one
// open handle. Both embedded stores are safe for concurrent use.
func (m *Main) embedded() bool {
	return m.NewSink == nil && (m.Sink == SinkLevelDB || m.Sink == SinkBolt)
}

// importParallel imports the files under m.Path with m.Workers pipelines.
// Each worker opens its own sink unless shared is set. Summaries keep the
// listing order; if the workers stop early, files no worker reached get a
// summary carrying the reason.
func (m *Main) importParallel(ctx context.Context, newPipeline func(tickimport.Sink) *ingest.Pipeline, shared tickimport.Sink) ([]ingest.Summary, error) {
	rs, err := file.NewRawSource(m.Path)
	if err != nil {
		return nil, errors.Wrap(err, "listing path")
	}
	files := rs.Files()
	summaries := make([]ingest.Summary, len(files))
	next := int64(-1)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < m.Workers && w < len(files); w++ {
		w := w
		eg.Go(func() (err error) {
			sink := shared
			if sink == nil {
				sink, err = m.openSink(ctx)
				if err != nil {
					return errors.Wrapf(err, "opening sink for worker %d", w)
				}
				defer func() {
					if cerr := sink.Close(); cerr != nil && err == nil {
						err = errors.Wrapf(cerr, "closing sink for worker %d", w)
					}
				}()
			}
			p := newPipeline(sink)
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= len(files) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				summaries[i] = p.ImportFile(ctx, files[i])
			}
		})
	}
	err = eg.Wait()
	if err != nil {
		for i := range summaries {
			if summaries[i].Path == "" {
				summaries[i] = ingest.Summary{Path: files[i], Err: errors.Wrap(err, "not imported")}
			}
		}
	}
	return summaries, err
}

// String describes the target of the run.
func (m *Main) String() string {
	switch m.Sink {
	case SinkPostgres:
		return "postgres " + m.Host + "/" + m.DB
	case SinkKafka:
		return "kafka " + strings.Join(m.KafkaHosts, ",") + "/" + m.KafkaTopic
	case SinkPilosa:
		return "pilosa " + strings.Join(m.PilosaHosts, ",") + "/" + m.PilosaIndex
	case SinkParquet:
		return "parquet " + m.ParquetDir
	}
	return m.Sink + " " + m.DB + "/" + m.Coll
}
