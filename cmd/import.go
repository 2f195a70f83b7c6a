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

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/dbbench/tickimport/importer"
	"github.com/dbbench/tickimport/ingest"
	"github.com/jaffee/commandeer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ImportMain is wrapped by NewImportCommand and only exported for testing
// purposes.
var ImportMain *importer.Main

// NewImportCommand returns a new cobra command wrapping ImportMain.
func NewImportCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	ImportMain = importer.NewMain()
	importCommand := &cobra.Command{
		Use:   "import",
		Short: "import a data file or every file in a directory",
		Long: `Import reads tick files named <region>_<YYYYMMDD>, optionally
gzip, zstd or bzip2 compressed, or daily stock data files, and inserts their
records in bulk. Every bulk insert is timed and stored as an insertion speed
metric. Lines that can't be parsed are skipped and listed at the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ImportMain.Path == "" && ImportMain.S3Bucket == "" {
				ImportMain.Path, err = promptPath(stdin, stdout)
				if err != nil {
					return FlagError{err}
				}
			}
			if err := ImportMain.Validate(); err != nil {
				return FlagError{err}
			}
			cmd.SilenceUsage = true
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			go func() {
				// a second interrupt kills the process
				<-ctx.Done()
				cancel()
			}()
			summaries, err := ImportMain.Run(ctx)
			printSummaries(stdout, summaries)
			return err
		},
	}
	flags := importCommand.Flags()
	err = commandeer.Flags(flags, ImportMain)
	if err != nil {
		panic(err)
	}
	return importCommand
}

func init() {
	subcommandFns["import"] = NewImportCommand
}

// promptPath asks for the path to import on stdin.
func promptPath(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Path to import: ")
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "reading path")
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", errors.New("no path given")
	}
	return path, nil
}

func printSummaries(w io.Writer, summaries []ingest.Summary) {
	for _, s := range summaries {
		if s.Err != nil {
			fmt.Fprintf(w, "%s: failed: %v\n", s.Path, s.Err)
		} else {
			fmt.Fprintf(w, "%s: read=%d inserted=%d skipped=%d\n", s.Path, s.RecordsRead, s.RecordsInserted, s.RecordsSkipped)
		}
		for _, le := range s.Errors {
			fmt.Fprintf(w, "  %s:%d: %s: %v\n", s.Path, le.Line, le.Reason, le.Err)
		}
	}
	if len(summaries) > 1 {
		fmt.Fprintf(w, "total: %s\n", ingest.Total(summaries))
	}
}
