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

package array_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/memory"
)

var recordSchema = quiver.NewSchema([]quiver.Field{
	{Name: "i64", Type: quiver.PrimitiveTypes.Int64, Nullable: true},
	{Name: "str", Type: quiver.BinaryTypes.String, Nullable: true},
}, nil)

func TestRecordBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRecordBuilder(mem, recordSchema)
	defer b.Release()

	b.Field(0).(*array.NumericBuilder[int64]).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "b", "c"}, nil)

	rec := b.NewRecord()
	defer rec.Release()

	require.True(t, rec.Schema().Equal(recordSchema))
	assert.EqualValues(t, 3, rec.NumRows())
	assert.EqualValues(t, 2, rec.NumCols())
	assert.Equal(t, "i64", rec.ColumnName(0))
	assert.Equal(t, int64(2), rec.Column(0).(*array.Numeric[int64]).Value(1))

	// the builder is reusable after NewRecord.
	b.Field(0).(*array.NumericBuilder[int64]).Append(4)
	b.Field(1).(*array.StringBuilder).Append("d")
	rec2 := b.NewRecord()
	defer rec2.Release()
	assert.EqualValues(t, 1, rec2.NumRows())
}

func TestNewRecordMismatchedRows(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ib := array.NewNumericBuilder[int64](mem, quiver.PrimitiveTypes.Int64)
	defer ib.Release()
	ib.AppendValues([]int64{1, 2, 3}, nil)
	col0 := ib.NewArray()
	defer col0.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues([]string{"a", "b"}, nil)
	col1 := sb.NewArray()
	defer col1.Release()

	assert.Panics(t, func() {
		array.NewRecord(recordSchema, []quiver.Array{col0, col1}, 3)
	})
}

func TestNewRecordMismatchedType(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ib := array.NewNumericBuilder[int64](mem, quiver.PrimitiveTypes.Int64)
	defer ib.Release()
	ib.AppendValues([]int64{1, 2, 3}, nil)
	col := ib.NewArray()
	defer col.Release()

	// the second field wants a string column.
	defer func() {
		err, ok := recover().(error)
		require.True(t, ok, "construction must panic with an error")
		assert.ErrorIs(t, err, quiver.ErrType)
	}()
	array.NewRecord(recordSchema, []quiver.Array{col, col}, 3)
}

func TestRecordSlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRecordBuilder(mem, recordSchema)
	defer b.Release()
	b.Field(0).(*array.NumericBuilder[int64]).AppendValues([]int64{1, 2, 3, 4}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "b", "c", "d"}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	sl := rec.NewSlice(1, 3)
	defer sl.Release()

	assert.EqualValues(t, 2, sl.NumRows())
	assert.Equal(t, int64(2), sl.Column(0).(*array.Numeric[int64]).Value(0))
	assert.Equal(t, "c", sl.Column(1).(*array.String).Value(1))

	assert.Panics(t, func() { rec.NewSlice(3, 1) })
}

func TestRecordReader(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRecordBuilder(mem, recordSchema)
	defer b.Release()

	var recs []quiver.Record
	for i := 0; i < 3; i++ {
		b.Field(0).(*array.NumericBuilder[int64]).Append(int64(i))
		b.Field(1).(*array.StringBuilder).Append("v")
		recs = append(recs, b.NewRecord())
	}
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	rr, err := array.NewRecordReader(recordSchema, recs)
	require.NoError(t, err)
	defer rr.Release()

	n := 0
	for rr.Next() {
		assert.True(t, array.RecordEqual(rr.Record(), recs[n]))
		n++
	}
	assert.Equal(t, 3, n)

	// schema mismatch is rejected up front.
	other := quiver.NewSchema([]quiver.Field{{Name: "x", Type: quiver.PrimitiveTypes.Int8}}, nil)
	_, err = array.NewRecordReader(other, recs)
	assert.Error(t, err)
}

func TestRecordToStructArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRecordBuilder(mem, recordSchema)
	defer b.Release()
	b.Field(0).(*array.NumericBuilder[int64]).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "b"}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	st := array.RecordToStructArray(rec)
	defer st.Release()

	require.Equal(t, 2, st.Len())
	assert.Equal(t, 2, st.NumField())
	assert.Equal(t, int64(1), st.Field(0).(*array.Numeric[int64]).Value(0))
	assert.Equal(t, "b", st.Field(1).(*array.String).Value(1))
}
