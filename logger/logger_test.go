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

package logger

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Data)
	}
}

func TestConfigureInvalid(t *testing.T) {
	log := Logger()
	if err := log.Configure("invalid", "json", "stderr", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
	if err := log.Configure("info", "xml", "stderr", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestPrintfJSON(t *testing.T) {
	log := Logger()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.Printf("parsing file: %s", "NYS_20110719.txt")
	log.Debugf("hidden at info level")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decoding log line %q: %v", buf.String(), err)
	}
	if line["message"] != "parsing file: NYS_20110719.txt" || line["level"] != "info" {
		t.Fatalf("unexpected log line %v", line)
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug line written at info level")
	}
}

func TestConfigureFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "logger")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "import.log")

	log := Logger()
	if err := log.Configure("debug", "text", path, 0); err != nil {
		t.Fatalf("configuring: %v", err)
	}
	log.Debugf("ending record: %s", "session1")
	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "ending record: session1") {
		t.Fatalf("unexpected log contents %q", data)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
	log.SetOutput(ioutil.Discard)
	log.Printf("after close")
	if err := log.Close(); err != nil {
		t.Fatalf("closing twice: %v", err)
	}
	data, err = ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if strings.Contains(string(data), "after close") {
		t.Fatal("log written to a closed file")
	}
}

func TestConfigureRotated(t *testing.T) {
	dir, err := ioutil.TempDir("", "loggerrotate")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "import.log")

	log := Logger()
	if err := log.Configure("info", "json", path, 7); err != nil {
		t.Fatalf("configuring: %v", err)
	}
	log.Printf("import finished")
	// reconfiguring closes the rotated file
	if err := log.Configure("info", "json", "stderr", 0); err != nil {
		t.Fatalf("reconfiguring: %v", err)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "import finished") {
		t.Fatalf("unexpected log contents %q", data)
	}
}
