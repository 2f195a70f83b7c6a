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

package termstat

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCollector(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewCollector(buf, time.Hour)
	c.Count("lines.read", 3, 1)
	c.Count("lines.read", 2, 1)
	c.Count("lines.skipped", 1, 1)
	c.Timing("flush", time.Second, 1)
	c.Timing("flush", 3*time.Second, 1)
	if v := c.Value("lines.read"); v != 5 {
		t.Fatalf("expected 5 lines read, got %d", v)
	}
	if v := c.Value("nothing"); v != 0 {
		t.Fatalf("expected 0 for unknown stat, got %d", v)
	}
	c.Stop()

	out := buf.String()
	for _, exp := range []string{"lines.read: 5 ", "lines.skipped: 1 ", "flush: 2x2s "} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected %q in output %q", exp, out)
		}
	}
}
