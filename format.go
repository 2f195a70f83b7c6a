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

package tickimport

import (
	"github.com/pkg/errors"
)

// Format describes one kind of input file: how its lines are split, what
// is derived from its name, and how each line becomes a record.
type Format struct {
	Name      string
	Delimiter string
	// NormalizeBlanks applies Normalize to every field before Classify.
	NormalizeBlanks bool
	// Context derives the per-file context from the file's path.
	Context func(path string) (FileContext, error)
	// Classify turns the split fields of one line into a ClassifiedLine.
	Classify func(fields []string, ctx FileContext) (ClassifiedLine, error)
}

// TickFormat reads '|' delimited trade and quote files named
// <region>_<YYYYMMDD>.
var TickFormat = Format{
	Name:            "tick",
	Delimiter:       "|",
	NormalizeBlanks: true,
	Context:         ParseTickFilename,
	Classify:        ClassifyTick,
}

// DailyFormat reads comma separated date,ticker,open,high,low,close,volume
// files.
var DailyFormat = Format{
	Name:      "daily",
	Delimiter: ",",
	Context: func(path string) (FileContext, error) {
		return FileContext{SourcePath: path}, nil
	},
	Classify: ClassifyDaily,
}

// DailyFolderFormat reads space separated date open high low close volume
// files, one file per ticker named <TICKER>.<ext>.
var DailyFolderFormat = Format{
	Name:      "daily-folder",
	Delimiter: " ",
	Context:   ParseTickerFilename,
	Classify:  ClassifyDaily,
}

// Formats lists the known formats by name.
var Formats = map[string]Format{
	TickFormat.Name:        TickFormat,
	DailyFormat.Name:       DailyFormat,
	DailyFolderFormat.Name: DailyFolderFormat,
}

// FormatByName looks up a format, optionally overriding its delimiter.
func FormatByName(name, delimiter string) (Format, error) {
	f, ok := Formats[name]
	if !ok {
		return Format{}, errors.Errorf("unknown format '%s'", name)
	}
	if delimiter != "" {
		f.Delimiter = delimiter
	}
	return f, nil
}
