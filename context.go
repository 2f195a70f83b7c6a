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
	"path/filepath"
	"strings"
	"time"
)

// DateLayout is the layout of dates in tick filenames and daily data files.
const DateLayout = "20060102"

// FileContext is derived once per file and is read only while the file is
// being imported.
type FileContext struct {
	Region         string
	HistoricalDate time.Time
	SourcePath     string
	// Ticker is set for per-ticker daily files, where the symbol is only
	// present in the file name.
	Ticker string
}

// ParseTickFilename derives the region and date from a tick file name of
// the form <3 char region><1 ignored char><YYYYMMDD><extension>, e.g.
// NYS_20110719.txt.gz. The region code is assumed to be exactly three
// characters; anything else is a MalformedFilenameError.
func ParseTickFilename(path string) (FileContext, error) {
	name := filepath.Base(path)
	if len(name) < 12 {
		return FileContext{}, &MalformedFilenameError{Name: name, Reason: "too short for region and date"}
	}
	date, err := time.Parse(DateLayout, name[4:12])
	if err != nil {
		return FileContext{}, &MalformedFilenameError{Name: name, Reason: "no YYYYMMDD date at offset 4"}
	}
	region := name[0:3]
	if strings.TrimSpace(region) != region || strings.ContainsAny(region, "./") {
		return FileContext{}, &MalformedFilenameError{Name: name, Reason: "invalid region code"}
	}
	return FileContext{
		Region:         region,
		HistoricalDate: date,
		SourcePath:     path,
	}, nil
}

// ParseTickerFilename derives the ticker symbol from a per-ticker daily file
// name by stripping the extension (MSFT.txt -> MSFT).
func ParseTickerFilename(path string) (FileContext, error) {
	name := filepath.Base(path)
	ticker := strings.TrimSuffix(name, filepath.Ext(name))
	if ticker == "" {
		return FileContext{}, &MalformedFilenameError{Name: name, Reason: "no ticker before extension"}
	}
	return FileContext{Ticker: ticker, SourcePath: path}, nil
}
