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

package ipc_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/internal/arrdata"
	"github.com/quiverio/quiver/ipc"
	"github.com/quiverio/quiver/memory"
)

func TestStream(t *testing.T) {
	for _, name := range arrdata.RecordNames {
		t.Run(name, func(t *testing.T) {
			recs := arrdata.Records[name]
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			f, err := os.CreateTemp("", "quiver-ipc-stream-")
			require.NoError(t, err)
			defer f.Close()
			defer os.Remove(f.Name())

			arrdata.WriteStream(t, f, mem, recs[0].Schema(), recs)
			arrdata.CheckArrowStream(t, f, mem, recs[0].Schema(), recs)
		})
	}
}

func TestFile(t *testing.T) {
	for _, name := range arrdata.RecordNames {
		t.Run(name, func(t *testing.T) {
			recs := arrdata.Records[name]
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			f, err := os.CreateTemp("", "quiver-ipc-file-")
			require.NoError(t, err)
			defer f.Close()
			defer os.Remove(f.Name())

			arrdata.WriteFile(t, f, mem, recs[0].Schema(), recs)
			arrdata.CheckArrowFile(t, f, mem, recs[0].Schema(), recs)
		})
	}
}

func TestStreamCompressed(t *testing.T) {
	compressions := map[string]ipc.Option{
		"lz4":  ipc.WithLZ4(),
		"zstd": ipc.WithZstd(),
	}
	for cname, copt := range compressions {
		t.Run(cname, func(t *testing.T) {
			for _, name := range arrdata.RecordNames {
				t.Run(name, func(t *testing.T) {
					recs := arrdata.Records[name]
					mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
					defer mem.AssertSize(t, 0)

					f, err := os.CreateTemp("", "quiver-ipc-stream-compressed-")
					require.NoError(t, err)
					defer f.Close()
					defer os.Remove(f.Name())

					arrdata.WriteStream(t, f, mem, recs[0].Schema(), recs, copt)
					arrdata.CheckArrowStream(t, f, mem, recs[0].Schema(), recs)
				})
			}
		})
	}
}

func TestFileCompressed(t *testing.T) {
	compressions := map[string]ipc.Option{
		"lz4":  ipc.WithLZ4(),
		"zstd": ipc.WithZstd(),
	}
	for cname, copt := range compressions {
		t.Run(cname, func(t *testing.T) {
			for _, name := range arrdata.RecordNames {
				t.Run(name, func(t *testing.T) {
					recs := arrdata.Records[name]
					mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
					defer mem.AssertSize(t, 0)

					f, err := os.CreateTemp("", "quiver-ipc-file-compressed-")
					require.NoError(t, err)
					defer f.Close()
					defer os.Remove(f.Name())

					arrdata.WriteFile(t, f, mem, recs[0].Schema(), recs, copt)
					arrdata.CheckArrowFile(t, f, mem, recs[0].Schema(), recs)
				})
			}
		})
	}
}

func TestFileRandomAccess(t *testing.T) {
	recs := arrdata.Records["primitives"]
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	f, err := os.CreateTemp("", "quiver-ipc-file-random-")
	require.NoError(t, err)
	defer f.Close()
	defer os.Remove(f.Name())

	arrdata.WriteFile(t, f, mem, recs[0].Schema(), recs)

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, len(recs), r.NumRecords())

	// read records out of order, then re-read the first one.
	for _, i := range []int{2, 0, 1, 0} {
		rec, err := r.Record(i)
		require.NoError(t, err)
		if !array.RecordEqual(rec, recs[i]) {
			t.Fatalf("records[%d] differ:\ngot= %v\nwant=%v", i, rec, recs[i])
		}
	}

	// RecordAt transfers ownership to the caller.
	rec, err := r.RecordAt(1)
	require.NoError(t, err)
	assert.True(t, array.RecordEqual(rec, recs[1]))
	rec.Release()
}

func TestStreamToSlicedRecord(t *testing.T) {
	recs := arrdata.Records["primitives"]
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sliced := recs[0].NewSlice(1, 4)
	defer sliced.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
	require.NoError(t, w.Write(sliced))
	require.NoError(t, w.Close())

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	got := r.Record()
	require.EqualValues(t, 3, got.NumRows())
	if !array.RecordEqual(got, sliced) {
		t.Fatalf("sliced record differs:\ngot= %v\nwant=%v", got, sliced)
	}
	require.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestStreamMismatchedSchema(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	recs := arrdata.Records["primitives"]
	other := arrdata.Records["binaries"]

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
	defer w.Close()

	err := w.Write(other[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different schema")
}

func TestStreamReaderExpectedSchema(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	recs := arrdata.Records["primitives"]
	other := arrdata.Records["binaries"]

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
	require.NoError(t, w.Write(recs[0]))
	require.NoError(t, w.Close())

	_, err := ipc.NewReader(&buf, ipc.WithSchema(other[0].Schema()), ipc.WithAllocator(mem))
	require.Error(t, err)
}

func TestStreamEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	recs := arrdata.Records["primitives"]

	// a schema-only stream is valid and yields zero records.
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
	require.NoError(t, w.Close())

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Schema().Equal(recs[0].Schema()))
	require.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestFileEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	recs := arrdata.Records["primitives"]

	f, err := os.CreateTemp("", "quiver-ipc-file-empty-")
	require.NoError(t, err)
	defer f.Close()
	defer os.Remove(f.Name())

	arrdata.WriteFile(t, f, mem, recs[0].Schema(), nil)

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.Schema().Equal(recs[0].Schema()))
	require.Equal(t, 0, r.NumRecords())

	_, err = r.Read()
	require.Equal(t, io.EOF, err)
}

func TestNotAnArrowFile(t *testing.T) {
	f, err := os.CreateTemp("", "quiver-ipc-bogus-")
	require.NoError(t, err)
	defer f.Close()
	defer os.Remove(f.Name())

	_, err = f.Write(bytes.Repeat([]byte("bogus data. "), 128))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	_, err = ipc.NewFileReader(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an Arrow file")
}

func TestStreamTruncated(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	recs := arrdata.Records["primitives"]

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	// drop the EOS marker and part of the last message body.
	raw := buf.Bytes()
	r, err := ipc.NewReader(bytes.NewReader(raw[:len(raw)-32]), ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	n := 0
	for r.Next() {
		n++
	}
	require.Error(t, r.Err())
	require.Less(t, n, len(recs))
}

func TestDictionaryStreamRoundtrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	recs := arrdata.Records["dictionaries"]

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	n := 0
	for r.Next() {
		if !array.RecordEqual(r.Record(), recs[n]) {
			t.Fatalf("records[%d] differ:\ngot= %v\nwant=%v", n, r.Record(), recs[n])
		}
		n++
	}
	require.NoError(t, r.Err())
	require.Equal(t, len(recs), n)
}

func TestDictionaryDeltas(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int32, ValueType: quiver.BinaryTypes.String}
	schema := quiver.NewSchema([]quiver.Field{{Name: "d", Type: dt, Nullable: true}}, nil)

	newRec := func(vals []string) quiver.Record {
		bldr := array.NewBinaryDictionaryBuilder(mem, dt)
		defer bldr.Release()
		for _, v := range vals {
			require.NoError(t, bldr.AppendString(v))
		}
		arr := bldr.NewArray()
		defer arr.Release()
		return array.NewRecord(schema, []quiver.Array{arr}, int64(arr.Len()))
	}

	// the second record extends the dictionary of the first, so with
	// deltas enabled the writer emits only the new entries.
	recs := []quiver.Record{
		newRec([]string{"a", "b", "a"}),
		newRec([]string{"a", "b", "c", "d"}),
	}
	defer recs[0].Release()
	defer recs[1].Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem), ipc.WithDictionaryDeltas(true))
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Release()

	n := 0
	for r.Next() {
		if !array.RecordEqual(r.Record(), recs[n]) {
			t.Fatalf("records[%d] differ:\ngot= %v\nwant=%v", n, r.Record(), recs[n])
		}
		n++
	}
	require.NoError(t, r.Err())
	require.Equal(t, len(recs), n)
}

func TestFileDictionaryReplacementRejected(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int32, ValueType: quiver.BinaryTypes.String}
	schema := quiver.NewSchema([]quiver.Field{{Name: "d", Type: dt, Nullable: true}}, nil)

	newRec := func(vals []string) quiver.Record {
		bldr := array.NewBinaryDictionaryBuilder(mem, dt)
		defer bldr.Release()
		for _, v := range vals {
			require.NoError(t, bldr.AppendString(v))
		}
		arr := bldr.NewArray()
		defer arr.Release()
		return array.NewRecord(schema, []quiver.Array{arr}, int64(arr.Len()))
	}

	rec1 := newRec([]string{"a", "b"})
	defer rec1.Release()
	rec2 := newRec([]string{"c", "d"})
	defer rec2.Release()

	f, err := os.CreateTemp("", "quiver-ipc-file-dict-replace-")
	require.NoError(t, err)
	defer f.Close()
	defer os.Remove(f.Name())

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(rec1))

	// the file format cannot replace an already written dictionary.
	err = w.Write(rec2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file format only supports deltas")
}
