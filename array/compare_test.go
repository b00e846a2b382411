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
	"github.com/quiverio/quiver/internal/arrdata"
	"github.com/quiverio/quiver/memory"
)

func TestArrayEqual(t *testing.T) {
	for _, name := range arrdata.RecordNames {
		t.Run(name, func(t *testing.T) {
			for _, rec := range arrdata.Records[name] {
				for i := 0; i < int(rec.NumCols()); i++ {
					arr := rec.Column(i)
					assert.True(t, array.Equal(arr, arr), "column %q not equal to itself", rec.ColumnName(i))
				}
			}
		})
	}
}

func TestArrayEqualDifferentValues(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	mk := func(vals []int32, valid []bool) quiver.Array {
		b := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
		defer b.Release()
		b.AppendValues(vals, valid)
		return b.NewArray()
	}

	a1 := mk([]int32{1, 2, 3}, nil)
	defer a1.Release()
	a2 := mk([]int32{1, 2, 4}, nil)
	defer a2.Release()
	a3 := mk([]int32{1, 2, 3}, []bool{true, false, true})
	defer a3.Release()
	a4 := mk([]int32{1, 2}, nil)
	defer a4.Release()

	assert.True(t, array.Equal(a1, a1))
	assert.False(t, array.Equal(a1, a2), "values differ")
	assert.False(t, array.Equal(a1, a3), "nulls differ")
	assert.False(t, array.Equal(a1, a4), "lengths differ")

	// null slots compare equal regardless of the value beneath them.
	a5 := mk([]int32{1, 99, 3}, []bool{true, false, true})
	defer a5.Release()
	assert.True(t, array.Equal(a3, a5))
}

func TestArraySliceEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.AppendValues([]string{"a", "b", "c", "d", "e"}, []bool{true, false, true, true, true})
	arr := b.NewArray()
	defer arr.Release()

	b.AppendValues([]string{"b", "c", "d"}, []bool{false, true, true})
	sub := b.NewArray()
	defer sub.Release()

	assert.True(t, array.ArraySliceEqual(arr, 1, 4, sub, 0, 3))
	assert.False(t, array.ArraySliceEqual(arr, 0, 3, sub, 0, 3))
}

func TestNewSlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewNumericBuilder[int64](mem, quiver.PrimitiveTypes.Int64)
	defer b.Release()
	b.AppendValues([]int64{10, 20, 30, 40, 50}, []bool{true, true, false, true, true})
	arr := b.NewArray()
	defer arr.Release()

	sl := array.NewSlice(arr, 1, 4).(*array.Numeric[int64])
	defer sl.Release()

	require.Equal(t, 3, sl.Len())
	assert.Equal(t, 1, sl.NullN())
	assert.Equal(t, int64(20), sl.Value(0))
	assert.True(t, sl.IsNull(1))
	assert.Equal(t, int64(40), sl.Value(2))

	// a slice compares equal to the same window of the original.
	assert.True(t, array.ArraySliceEqual(arr, 1, 4, sl, 0, 3))
}

func TestRecordEqualAndSlice(t *testing.T) {
	recs := arrdata.Records["primitives"]

	assert.True(t, array.RecordEqual(recs[0], recs[0]))
	assert.False(t, array.RecordEqual(recs[0], recs[1]))

	sl := recs[0].NewSlice(1, 4)
	defer sl.Release()
	assert.EqualValues(t, 3, sl.NumRows())

	sl2 := recs[0].NewSlice(1, 4)
	defer sl2.Release()
	assert.True(t, array.RecordEqual(sl, sl2))
}

func TestMakeFromData(t *testing.T) {
	for _, name := range arrdata.RecordNames {
		t.Run(name, func(t *testing.T) {
			for _, rec := range arrdata.Records[name] {
				for i := 0; i < int(rec.NumCols()); i++ {
					col := rec.Column(i)
					arr := array.MakeFromData(col.Data())
					assert.True(t, array.Equal(col, arr), "column %q", rec.ColumnName(i))
					arr.Release()
				}
			}
		})
	}
}
