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

func TestRunEndEncodedBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRunEndEncodedBuilder(mem, quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String)
	defer b.Release()
	vb := b.ValueBuilder().(*array.StringBuilder)

	b.Append(3)
	vb.Append("x")
	b.Append(2)
	vb.Append("y")
	b.ContinueRun(2)
	b.AppendNull()

	arr := b.NewRunEndEncodedArray()
	defer arr.Release()

	require.Equal(t, 8, arr.Len())

	ends := arr.RunEndsArr().(*array.Numeric[int32])
	assert.Equal(t, []int32{3, 7, 8}, ends.Values())

	vals := arr.Values().(*array.String)
	require.Equal(t, 3, vals.Len())
	assert.Equal(t, "x", vals.Value(0))
	assert.Equal(t, "y", vals.Value(1))
	assert.True(t, vals.IsNull(2))

	assert.Equal(t, "x", arr.ValueStr(0))
	assert.Equal(t, "x", arr.ValueStr(2))
	assert.Equal(t, "y", arr.ValueStr(3))
	assert.Equal(t, "y", arr.ValueStr(6))
}

func TestRunEndEncodedPhysicalWindow(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRunEndEncodedBuilder(mem, quiver.PrimitiveTypes.Int32, quiver.PrimitiveTypes.Int64)
	defer b.Release()
	vb := b.ValueBuilder().(*array.NumericBuilder[int64])

	// runs of lengths 10,10,10,10,10 -> run ends [10,20,30,40,50]
	for i := 0; i < 5; i++ {
		b.Append(10)
		vb.Append(int64(i))
	}
	arr := b.NewRunEndEncodedArray()
	defer arr.Release()

	require.Equal(t, 50, arr.Len())
	assert.Equal(t, 0, arr.GetPhysicalOffset())
	assert.Equal(t, 5, arr.GetPhysicalLength())

	sl := array.NewSlice(arr, 25, 30).(*array.RunEndEncoded)
	defer sl.Release()

	require.Equal(t, 5, sl.Len())
	assert.Equal(t, 2, sl.GetPhysicalOffset())
	assert.Equal(t, 1, sl.GetPhysicalLength())

	vals := sl.LogicalValuesArray().(*array.Numeric[int64])
	defer vals.Release()
	require.Equal(t, 1, vals.Len())
	assert.Equal(t, int64(2), vals.Value(0))

	ends := sl.LogicalRunEndsArray(mem).(*array.Numeric[int32])
	defer ends.Release()
	require.Equal(t, 1, ends.Len())
	// shifted down by the offset and clamped to the logical length.
	assert.Equal(t, int32(5), ends.Value(0))
}

func TestRunEndEncodedSliceStraddlingRuns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRunEndEncodedBuilder(mem, quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String)
	defer b.Release()
	vb := b.ValueBuilder().(*array.StringBuilder)

	// run ends [2, 3, 4]
	b.Append(2)
	vb.Append("a")
	b.Append(1)
	vb.Append("b")
	b.Append(1)
	vb.Append("c")

	arr := b.NewRunEndEncodedArray()
	defer arr.Release()
	require.Equal(t, 4, arr.Len())

	sl := array.NewSlice(arr, 1, 4).(*array.RunEndEncoded)
	defer sl.Release()

	assert.Equal(t, 0, sl.GetPhysicalOffset())
	assert.Equal(t, 3, sl.GetPhysicalLength())

	ends := sl.LogicalRunEndsArray(mem).(*array.Numeric[int32])
	defer ends.Release()
	assert.Equal(t, []int32{1, 2, 3}, ends.Values())

	assert.Equal(t, "a", sl.ValueStr(0))
	assert.Equal(t, "b", sl.ValueStr(1))
	assert.Equal(t, "c", sl.ValueStr(2))
}

func TestRunEndEncodedValueOutOfRange(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewRunEndEncodedBuilder(mem, quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String)
	defer b.Release()
	vb := b.ValueBuilder().(*array.StringBuilder)

	// run ends [3, 7, 10, 15]
	for i, n := range []uint64{3, 4, 3, 5} {
		b.Append(n)
		vb.Append(string(rune('A' + i)))
	}
	arr := b.NewRunEndEncodedArray()
	defer arr.Release()
	require.Equal(t, 15, arr.Len())

	assert.Equal(t, "A", arr.ValueStr(0))
	assert.Equal(t, "D", arr.ValueStr(14))

	for _, i := range []int{-1, 15, 100} {
		func() {
			defer func() {
				err, ok := recover().(error)
				require.Truef(t, ok, "ValueStr(%d) must panic with an error", i)
				assert.ErrorIs(t, err, quiver.ErrIndex)
			}()
			arr.ValueStr(i)
		}()
	}
}

func TestNewRunEndEncodedArrayRejectsNonIncreasingRunEnds(t *testing.T) {
	mem := memory.NewGoAllocator()

	eb := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
	defer eb.Release()
	eb.AppendValues([]int32{3, 2, 10, 15}, nil)
	ends := eb.NewArray()
	defer ends.Release()

	vb := array.NewNumericBuilder[int64](mem, quiver.PrimitiveTypes.Int64)
	defer vb.Release()
	vb.AppendValues([]int64{1, 2, 3, 4}, nil)
	vals := vb.NewArray()
	defer vals.Release()

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok, "construction must panic with an error")
		assert.ErrorIs(t, err, quiver.ErrInvalid)
	}()
	array.NewRunEndEncodedArray(ends, vals, 15, 0)
}

func TestNewRunEndEncodedArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	eb := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
	defer eb.Release()
	eb.AppendValues([]int32{3, 7, 10, 15}, nil)
	ends := eb.NewArray()
	defer ends.Release()

	vb := array.NewNumericBuilder[int64](mem, quiver.PrimitiveTypes.Int64)
	defer vb.Release()
	vb.AppendValues([]int64{1, 2, 3, 4}, nil)
	vals := vb.NewArray()
	defer vals.Release()

	arr := array.NewRunEndEncodedArray(ends, vals, 15, 0)
	defer arr.Release()

	require.Equal(t, 15, arr.Len())
	assert.Equal(t, 4, arr.GetPhysicalLength())
	assert.Equal(t, 0, arr.GetPhysicalIndex(0))
	assert.Equal(t, 1, arr.GetPhysicalIndex(3))
	assert.Equal(t, 3, arr.GetPhysicalIndex(14))
}
