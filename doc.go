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

// Package tickimport loads historical market data files into a storage
// backend in bulk and records how long every bulk insert takes.
//
// An import is made of the following pieces:
//
// 1. Format
//
//    A Format says how the lines of a file are split, what is derived from
//    the file's name (the FileContext) and how split lines are classified.
//    Tick files are '|' delimited and named <region>_<YYYYMMDD>; their
//    lines are trades (T), quotes (Q), session markers (s, e) and an end of
//    file marker (z). Daily stock data comes either as one comma separated
//    file or as a folder of space separated per-ticker files.
//
// 2. Classifier
//
//    ClassifyTick and ClassifyDaily turn one split line into a
//    ClassifiedLine. Lines with an unknown tag are Invalid; trades and quotes
//    with missing or non-numeric columns return a *LineParseError. Either
//    way the line is skipped and the import carries on.
//
// 3. Accumulator
//
//    The Accumulator buffers records and flushes them to a Sink once the
//    flush threshold is reached, and once more at the end of each file. A
//    failed flush keeps the buffer intact.
//
// 4. ThroughputRecorder
//
//    Every flush goes through a ThroughputRecorder, which times the insert
//    and stores a ThroughputMetric in a separate metrics Sink. Failing to
//    store a metric never fails the import.
//
// 5. Sink
//
//    A Sink stores batches of records. The subpackages leveldb, boltdb,
//    postgres, kafka, pilosa and parquet provide implementations; the ingest
//    package drives whole files and directories into one.
package tickimport
