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

// Package s3 provides a tickimport.RawSource over the objects in an S3
// bucket, so tick files can be imported without copying them locally.
package s3

import (
	"context"
	"io"
	"sort"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/dbbench/tickimport"
	"github.com/pkg/errors"
)

// SrcOption is a functional option type for s3.RawSource.
type SrcOption func(s *RawSource)

// OptSrcRegion is a SrcOption which sets the AWS region.
func OptSrcRegion(region string) SrcOption {
	return func(s *RawSource) {
		s.region = region
	}
}

// OptSrcPrefix tells the source to list only the objects in the bucket that
// match the specified prefix.
func OptSrcPrefix(prefix string) SrcOption {
	return func(s *RawSource) {
		s.prefix = prefix
	}
}

// OptSrcClient replaces the S3 client built from the region.
func OptSrcClient(client s3iface.S3API) SrcOption {
	return func(s *RawSource) {
		s.s3 = client
	}
}

// RawSource hands out the objects under a bucket prefix in key order.
type RawSource struct {
	ctx    context.Context
	bucket string
	prefix string
	region string

	s3     s3iface.S3API
	keys   []string
	objIdx *uint64
}

// NewRawSource lists every object in bucket under the configured prefix.
func NewRawSource(ctx context.Context, bucket string, opts ...SrcOption) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		ctx:    ctx,
		bucket: bucket,
		region: "us-east-1",
		objIdx: &idx,
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.s3 == nil {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(rs.region)},
		)
		if err != nil {
			return nil, errors.Wrap(err, "getting new session")
		}
		rs.s3 = s3.New(sess)
	}
	input := &s3.ListObjectsInput{Bucket: aws.String(rs.bucket), Prefix: aws.String(rs.prefix)}
	err := rs.s3.ListObjectsPagesWithContext(ctx, input, func(page *s3.ListObjectsOutput, last bool) bool {
		for _, obj := range page.Contents {
			// "directory" placeholder objects
			if key := aws.StringValue(obj.Key); key != "" && key[len(key)-1] != '/' {
				rs.keys = append(rs.keys, key)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing objects")
	}
	sort.Strings(rs.keys)
	return rs, nil
}

// Keys returns the object keys the source will read, in order.
func (rs *RawSource) Keys() []string {
	return rs.keys
}

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

// NextReader fetches the next object. Objects that can't be fetched are
// returned as a *tickimport.OpenError and the following call moves on.
func (rs *RawSource) NextReader() (tickimport.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.keys) {
		return nil, io.EOF
	}
	key := rs.keys[idx]

	result, err := rs.s3.GetObjectWithContext(rs.ctx, &s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &tickimport.OpenError{Name: key, Err: err}
	}
	return &objReader{name: key, body: result.Body}, nil
}
