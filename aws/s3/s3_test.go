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

package s3

import (
	"context"
	"io"
	"io/ioutil"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/dbbench/tickimport"
	"github.com/pkg/errors"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
}

func (f *fakeS3) ListObjectsPagesWithContext(ctx aws.Context, in *s3.ListObjectsInput, fn func(*s3.ListObjectsOutput, bool) bool, opts ...request.Option) error {
	// two pages to exercise pagination
	var pages [2][]*s3.Object
	i := 0
	for key := range f.objects {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			pages[i%2] = append(pages[i%2], &s3.Object{Key: aws.String(key)})
			i++
		}
	}
	if fn(&s3.ListObjectsOutput{Contents: pages[0]}, false) {
		fn(&s3.ListObjectsOutput{Contents: pages[1]}, true)
	}
	return nil
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok || body == "missing" {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: ioutil.NopCloser(strings.NewReader(body))}, nil
}

func TestRawSource(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"ticks/NYS_20110719.txt": "T|093000|MSFT|1|1|1\n",
		"ticks/ARC_20110719.txt": "missing",
		"ticks/":                 "",
		"other/NYS_20110720.txt": "z\n",
	}}
	rs, err := NewRawSource(context.Background(), "bucket", OptSrcPrefix("ticks/"), OptSrcClient(fake))
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	if exp := []string{"ticks/ARC_20110719.txt", "ticks/NYS_20110719.txt"}; !reflect.DeepEqual(rs.Keys(), exp) {
		t.Fatalf("unexpected keys %v", rs.Keys())
	}

	_, err = rs.NextReader()
	if oe, ok := err.(*tickimport.OpenError); !ok || oe.Name != "ticks/ARC_20110719.txt" {
		t.Fatalf("expected OpenError for missing object, got %v", err)
	}
	r, err := rs.NextReader()
	if err != nil {
		t.Fatalf("getting reader: %v", err)
	}
	data, err := ioutil.ReadAll(r)
	if err != nil || string(data) != "T|093000|MSFT|1|1|1\n" {
		t.Fatalf("unexpected object contents %q, %v", data, err)
	}
	if r.Name() != "ticks/NYS_20110719.txt" {
		t.Fatalf("unexpected name %s", r.Name())
	}
	r.Close()
	if _, err := rs.NextReader(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
