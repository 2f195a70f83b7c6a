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

// Package ingest wires file streams, the record classifier and a batch
// accumulator together to move whole files and directories into a Sink.
package ingest

import (
	"context"
	"io"
	"os"

	"github.com/dbbench/tickimport"
	"github.com/dbbench/tickimport/file"
	"github.com/pkg/errors"
)

// cancelCheckLines is how often importLines checks for cancellation.
const cancelCheckLines = 1000

// Pipeline imports files one at a time into a single Sink. It holds no
// per-file state between calls, but it is not safe for concurrent use
// because its Sink isn't.
type Pipeline struct {
	sink     tickimport.Sink
	recorder *tickimport.ThroughputRecorder
	format   tickimport.Format

	flushThreshold           int
	compressedFlushThreshold int

	log   tickimport.Logger
	stats tickimport.Statter
}

// Option is a functional option for Pipeline.
type Option func(p *Pipeline)

// OptFormat sets the input format. The default is tickimport.TickFormat.
func OptFormat(f tickimport.Format) Option {
	return func(p *Pipeline) {
		p.format = f
	}
}

// OptFlushThreshold sets how many records are buffered before a flush for
// uncompressed files.
func OptFlushThreshold(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.flushThreshold = n
		}
	}
}

// OptCompressedFlushThreshold sets the flush threshold for compressed
// files.
func OptCompressedFlushThreshold(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.compressedFlushThreshold = n
		}
	}
}

// OptRecorder sets the ThroughputRecorder every flush goes through.
func OptRecorder(r *tickimport.ThroughputRecorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// OptLogger sets the logger.
func OptLogger(l tickimport.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// OptStatter sets the stats collector.
func OptStatter(s tickimport.Statter) Option {
	return func(p *Pipeline) {
		p.stats = s
	}
}

// NewPipeline returns a Pipeline which stores records in sink.
func NewPipeline(sink tickimport.Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:                     sink,
		format:                   tickimport.TickFormat,
		flushThreshold:           tickimport.DefaultFlushThreshold,
		compressedFlushThreshold: tickimport.DefaultCompressedFlushThreshold,
		log:                      tickimport.NopLogger{},
		stats:                    tickimport.NopStatter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.recorder == nil {
		p.recorder = tickimport.NewThroughputRecorder(nil, tickimport.OptRecorderLogger(p.log), tickimport.OptRecorderStatter(p.stats))
	}
	return p
}

// ImportFile imports a single file. Problems with individual lines are
// recorded in the summary and skipped. Problems with the file itself (its
// name, reading it, or writing to the sink) end the import of that file
// and are reported in Summary.Err.
func (p *Pipeline) ImportFile(ctx context.Context, path string) Summary {
	if _, err := p.format.Context(path); err != nil {
		return p.failed(Summary{Path: path}, err)
	}
	rc, err := file.Open(path)
	if err != nil {
		return p.failed(Summary{Path: path}, err)
	}
	return p.ImportReader(ctx, rc)
}

// ImportDirectory imports every file in dir in the order the filesystem
// lists them. A failing file doesn't stop the ones after it. The returned
// error is only non-nil if dir can't be listed or ctx is cancelled.
func (p *Pipeline) ImportDirectory(ctx context.Context, dir string) ([]Summary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "statting directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("invalid directory '%s'", dir)
	}
	rs, err := file.NewRawSource(dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing directory")
	}
	return p.ImportSource(ctx, rs)
}

// ImportSource imports every resource of rs in order. Cancelling ctx fails
// the file being imported and stops before the next one.
func (p *Pipeline) ImportSource(ctx context.Context, rs tickimport.RawSource) ([]Summary, error) {
	p.log.Printf("%s import initiated", p.format.Name)
	summaries := make([]Summary, 0)
	for {
		if err := ctx.Err(); err != nil {
			return summaries, errors.Wrap(err, "import stopped")
		}
		rc, err := rs.NextReader()
		if err == io.EOF {
			break
		}
		if err != nil {
			if oe, ok := err.(*tickimport.OpenError); ok {
				summaries = append(summaries, p.failed(Summary{Path: oe.Name}, err))
				continue
			}
			return summaries, errors.Wrap(err, "getting next reader")
		}
		summaries = append(summaries, p.ImportReader(ctx, rc))
	}
	p.log.Printf("%s import completed: %d files", p.format.Name, len(summaries))
	return summaries, nil
}

// ImportReader imports one already opened resource and closes it.
func (p *Pipeline) ImportReader(ctx context.Context, rc tickimport.NamedReadCloser) Summary {
	sum := Summary{Path: rc.Name()}
	s, err := file.NewStream(rc, p.format)
	if err != nil {
		return p.failed(sum, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			p.log.Printf("closing %s: %v", s.Name(), err)
		}
	}()
	p.log.Printf("parsing file: %s", s.Name())

	threshold := p.flushThreshold
	if s.Compressed() {
		threshold = p.compressedFlushThreshold
	}
	acc := tickimport.NewAccumulator(p.sink, p.recorder, threshold)

	err = p.importLines(ctx, s, acc, &sum)
	if err == nil || (!tickimport.IsSinkWrite(err) && ctx.Err() == nil) {
		// Lines parsed before a read error are still good.
		if cerr := acc.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	sum.RecordsInserted = acc.Inserted()
	p.stats.Count(tickimport.StatRecordsInserted, int64(sum.RecordsInserted), 1)
	if err != nil {
		return p.failed(sum, err)
	}
	p.stats.Count(tickimport.StatFilesImported, 1, 1)
	p.log.Printf("imported %s: %s", sum.Path, sum.counts())
	return sum
}

func (p *Pipeline) importLines(ctx context.Context, s *file.Stream, acc *tickimport.Accumulator, sum *Summary) error {
	fctx := s.Context()
	for {
		if sum.RecordsRead%cancelCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, "stopped after line %d", sum.RecordsRead)
			}
		}
		line, fields, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Cause(err) == tickimport.ErrLineTooLong {
			sum.RecordsRead++
			p.stats.Count(tickimport.StatLinesRead, 1, 1)
			p.skip(sum, line, tickimport.ReasonLineTooLong, err)
			continue
		}
		if err != nil {
			return err
		}
		sum.RecordsRead++
		p.stats.Count(tickimport.StatLinesRead, 1, 1)

		if p.format.NormalizeBlanks {
			fields = tickimport.NormalizeFields(fields)
		}
		cl, err := p.format.Classify(fields, fctx)
		if err != nil {
			p.skip(sum, line, tickimport.ReasonLineParse, err)
			continue
		}
		switch cl.Kind {
		case tickimport.KindInvalid:
			p.skip(sum, line, tickimport.ReasonUnrecognizedLineTag, errors.Wrapf(tickimport.ErrUnrecognizedLineTag, "fields %v", cl.Fields))
			continue
		case tickimport.KindSessionStart:
			sum.ControlLines++
			p.log.Debugf("starting new record: %s", cl.Label)
			continue
		case tickimport.KindSessionEnd:
			sum.ControlLines++
			p.log.Debugf("ending record: %s", cl.Label)
			continue
		case tickimport.KindEOFMarker:
			sum.ControlLines++
			p.log.Debugf("end of file %s", s.Name())
			continue
		}
		if err := acc.Append(ctx, cl.Record); err != nil {
			return err
		}
	}
}

func (p *Pipeline) skip(sum *Summary, line int, reason string, err error) {
	sum.RecordsSkipped++
	sum.Errors = append(sum.Errors, tickimport.LineError{Line: line, Reason: reason, Err: err})
	p.stats.Count(tickimport.StatLinesSkipped, 1, 1)
	p.log.Debugf("%s line %d: %s: %v", sum.Path, line, reason, err)
}

func (p *Pipeline) failed(sum Summary, err error) Summary {
	sum.Err = err
	p.stats.Count(tickimport.StatFilesFailed, 1, 1)
	if tickimport.IsMalformedFilename(err) {
		p.log.Printf("skipping %s: %v", sum.Path, err)
	} else {
		p.log.Printf("importing %s failed after %s: %v", sum.Path, sum.counts(), err)
	}
	return sum
}
