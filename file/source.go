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

// Package file reads import files from local disk: RawSource walks a file
// or a directory, and Stream turns one (possibly compressed) file into a
// lazy sequence of split lines.
package file

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dbbench/tickimport"
	"github.com/pkg/errors"
)

// RawSource is a tickimport.RawSource over a single file or every regular
// file in a directory. Directory entries are visited in the order the
// filesystem lists them, which is not necessarily sorted.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource lists pathname. Subdirectories are not descended into.
func NewRawSource(pathname string) (*RawSource, error) {
	fileIdx := uint64(0)
	s := &RawSource{
		fileIdx: &fileIdx,
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		s.files = []string{pathname}
		return s, nil
	}
	dir, err := os.Open(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "opening directory")
	}
	defer dir.Close()
	infos, err := dir.Readdir(-1)
	if err != nil {
		return nil, errors.Wrap(err, "reading directory")
	}
	s.files = make([]string, 0, len(infos))
	for _, info = range infos {
		if info.IsDir() {
			continue
		}
		s.files = append(s.files, filepath.Join(pathname, info.Name()))
	}
	return s, nil
}

// Files returns the paths the source will open, in order.
func (s *RawSource) Files() []string {
	return s.files
}

type namedFile struct {
	*os.File
	path string
}

func (n *namedFile) Name() string {
	return n.path
}

// NextReader opens the next file. It returns io.EOF once all files have been
// returned, and a *tickimport.OpenError for a file that can't be opened;
// calling NextReader again moves on to the following file.
func (s *RawSource) NextReader() (tickimport.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}
	return Open(s.files[idx])
}

// Open opens a single file as a NamedReadCloser.
func Open(path string) (tickimport.NamedReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &tickimport.OpenError{Name: path, Err: err}
	}
	return &namedFile{File: f, path: path}, nil
}
