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

package file

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"
	"path/filepath"
	"strings"

	"github.com/dbbench/tickimport"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// MaxLineSize is the longest line a Stream will return. Longer lines are
// skipped with tickimport.ErrLineTooLong.
const MaxLineSize = 1 << 20

// Compression identifies how a file's contents are compressed.
type Compression string

// Supported compressions.
const (
	None  Compression = ""
	Gzip  Compression = "gzip"
	Zstd  Compression = "zstd"
	Bzip2 Compression = "bzip2"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bzip2Magic = []byte("BZh")
)

// Stream reads one file line by line, decompressing on the fly. Nothing is
// buffered beyond the current line, so memory use doesn't grow with the
// size of the file.
type Stream struct {
	ctx         tickimport.FileContext
	format      tickimport.Format
	compression Compression

	src    tickimport.NamedReadCloser
	closer func() error
	r       *bufio.Reader
	buf     []byte
	maxLine int
	line    int
}

// OpenStream opens the file at path for reading in format.
func OpenStream(path string, format tickimport.Format) (*Stream, error) {
	if _, err := format.Context(path); err != nil {
		return nil, err
	}
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewStream(rc, format)
}

// NewStream wraps rc. The file context is derived from rc.Name() before
// anything is read; if that fails rc is closed and a
// *tickimport.MalformedFilenameError is returned. NewStream takes ownership
// of rc.
func NewStream(rc tickimport.NamedReadCloser, format tickimport.Format) (*Stream, error) {
	ctx, err := format.Context(rc.Name())
	if err != nil {
		rc.Close()
		return nil, err
	}
	s := &Stream{
		ctx:    ctx,
		format: format,
		src:    rc,
		closer: func() error { return nil },
	}
	br := bufio.NewReader(rc)
	s.compression = detect(rc.Name(), br)

	var r io.Reader
	switch s.compression {
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, errors.Wrapf(err, "opening gzip stream %s", rc.Name())
		}
		r, s.closer = gz, gz.Close
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, errors.Wrapf(err, "opening zstd stream %s", rc.Name())
		}
		r = zr
		s.closer = func() error { zr.Close(); return nil }
	case Bzip2:
		r = bzip2.NewReader(br)
	default:
		r = br
	}
	s.r = bufio.NewReaderSize(r, 64*1024)
	s.maxLine = MaxLineSize
	return s, nil
}

// detect picks the compression from the file's magic bytes, falling back to
// its extension when the header can't be read.
func detect(name string, br *bufio.Reader) Compression {
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, bzip2Magic):
		return Bzip2
	}
	if len(head) > 0 {
		return None
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".bz2":
		return Bzip2
	}
	return None
}

// Context returns the context derived from the file name.
func (s *Stream) Context() tickimport.FileContext { return s.ctx }

// Compression reports how the underlying file is compressed.
func (s *Stream) Compression() Compression { return s.compression }

// Compressed reports whether the underlying file is compressed.
func (s *Stream) Compressed() bool { return s.compression != None }

// Name returns the name of the underlying file.
func (s *Stream) Name() string { return s.src.Name() }

// Next returns the next non-blank line, split on the format's delimiter,
// along with its 1-based line number. It returns io.EOF at the end of the
// file. A space delimiter treats runs of spaces as one separator.
//
// A line longer than MaxLineSize is discarded and reported as
// tickimport.ErrLineTooLong with its line number; the following call
// carries on with the next line.
func (s *Stream) Next() (line int, fields []string, err error) {
	for {
		txt, n, err := s.readLine()
		if err == io.EOF {
			return s.line, nil, io.EOF
		}
		if err != nil {
			return s.line, nil, errors.Wrapf(err, "reading %s after line %d", s.src.Name(), s.line)
		}
		s.line++
		if n > s.maxLine {
			return s.line, nil, errors.Wrapf(tickimport.ErrLineTooLong, "%d bytes", n)
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		return s.line, split(txt, s.format.Delimiter), nil
	}
}

// readLine reads up to and including the next newline. It returns the line
// without its line ending and the line's length. Only the first maxLine
// bytes are kept; if n is larger the text is empty.
func (s *Stream) readLine() (txt string, n int, err error) {
	s.buf = s.buf[:0]
	read := 0
	for {
		chunk, err := s.r.ReadSlice('\n')
		read += len(chunk)
		if len(s.buf)+len(chunk) <= s.maxLine+2 {
			s.buf = append(s.buf, chunk...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && read > 0 {
			break
		}
		if err != nil {
			return "", 0, err
		}
		break
	}
	n = len(bytes.TrimRight(s.buf, "\r\n"))
	if read > len(s.buf) {
		return "", read, nil
	}
	return string(s.buf[:n]), n, nil
}

func split(txt, delim string) []string {
	if delim == " " {
		return strings.Fields(txt)
	}
	return strings.Split(txt, delim)
}

// Close closes the decompressor and the underlying file.
func (s *Stream) Close() error {
	cerr := s.closer()
	if err := s.src.Close(); err != nil {
		return errors.Wrap(err, "closing file")
	}
	return errors.Wrap(cerr, "closing decompressor")
}
