// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package arrdata

import (
	"io"
	"os"
	"testing"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/ipc"
	"github.com/quiverio/quiver/memory"
)

// CheckArrowFile checks whether a given Arrow file contains the expected list of records.
func CheckArrowFile(t *testing.T, f *os.File, mem memory.Allocator, schema *quiver.Schema, recs []quiver.Record) {
	t.Helper()

	_, err := f.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}

	r, err := ipc.NewFileReader(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			t.Fatalf("could not read record %d: %v", i, err)
		}
		if !array.RecordEqual(rec, recs[i]) {
			t.Fatalf("records[%d] differ:\ngot= %v\nwant=%v", i, rec, recs[i])
		}
	}

	err = r.Close()
	if err != nil {
		t.Fatal(err)
	}
}

// CheckArrowStream checks whether a given Arrow stream contains the expected list of records.
func CheckArrowStream(t *testing.T, f *os.File, mem memory.Allocator, schema *quiver.Schema, recs []quiver.Record) {
	t.Helper()

	_, err := f.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}

	r, err := ipc.NewReader(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	n := 0
	for r.Next() {
		rec := r.Record()
		if !array.RecordEqual(rec, recs[n]) {
			t.Fatalf("records[%d] differ:\ngot= %v\nwant=%v", n, rec, recs[n])
		}
		n++
	}

	if err := r.Err(); err != nil {
		t.Fatal(err)
	}

	if got, want := n, len(recs); got != want {
		t.Fatalf("invalid number of records. got=%d, want=%d", got, want)
	}
}

// WriteFile writes a list of records to the given file descriptor, as an Arrow file.
func WriteFile(t *testing.T, f *os.File, mem memory.Allocator, schema *quiver.Schema, recs []quiver.Record, opts ...ipc.Option) {
	t.Helper()

	opts = append([]ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(mem)}, opts...)
	w, err := ipc.NewFileWriter(f, opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for i, rec := range recs {
		if err := w.Write(rec); err != nil {
			t.Fatalf("could not write record[%d]: %v", i, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if err := f.Sync(); err != nil {
		t.Fatalf("could not sync data to disk: %v", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("could not seek to start: %v", err)
	}
}

// WriteStream writes a list of records to the given file descriptor, as an Arrow stream.
func WriteStream(t *testing.T, f *os.File, mem memory.Allocator, schema *quiver.Schema, recs []quiver.Record, opts ...ipc.Option) {
	t.Helper()

	opts = append([]ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(mem)}, opts...)
	w := ipc.NewWriter(f, opts...)
	defer w.Close()

	for i, rec := range recs {
		if err := w.Write(rec); err != nil {
			t.Fatalf("could not write record[%d]: %v", i, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
