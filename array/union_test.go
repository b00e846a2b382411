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

var unionFields = []quiver.Field{
	{Name: "i", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
	{Name: "s", Type: quiver.BinaryTypes.String, Nullable: true},
}

func TestSparseUnionBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := quiver.SparseUnionOf(unionFields, []quiver.UnionTypeCode{2, 7})
	b := array.NewSparseUnionBuilder(mem, dt)
	defer b.Release()

	ib := b.Child(0).(*array.NumericBuilder[int32])
	sb := b.Child(1).(*array.StringBuilder)

	// sparse unions keep all children at the full length.
	b.Append(2)
	ib.Append(1)
	sb.AppendEmptyValue()

	b.Append(7)
	ib.AppendEmptyValue()
	sb.Append("x")

	b.Append(2)
	ib.Append(3)
	sb.AppendEmptyValue()

	arr := b.NewArray().(*array.SparseUnion)
	defer arr.Release()

	require.Equal(t, 3, arr.Len())
	assert.Equal(t, quiver.SparseMode, arr.Mode())
	assert.Equal(t, quiver.UnionTypeCode(2), arr.TypeCode(0))
	assert.Equal(t, quiver.UnionTypeCode(7), arr.TypeCode(1))
	assert.Equal(t, 0, arr.ChildID(0))
	assert.Equal(t, 1, arr.ChildID(1))

	assert.Equal(t, 3, arr.Field(0).Len())
	assert.Equal(t, int32(1), arr.Field(0).(*array.Numeric[int32]).Value(0))
	assert.Equal(t, "x", arr.Field(1).(*array.String).Value(1))

	// unions carry no validity bitmap of their own.
	assert.Equal(t, 0, arr.NullN())
}

func TestDenseUnionBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := quiver.DenseUnionOf(unionFields, []quiver.UnionTypeCode{2, 7})
	b := array.NewDenseUnionBuilder(mem, dt)
	defer b.Release()

	ib := b.Child(0).(*array.NumericBuilder[int32])
	sb := b.Child(1).(*array.StringBuilder)

	// dense unions append only to the selected child.
	b.Append(2)
	ib.Append(1)
	b.Append(7)
	sb.Append("x")
	b.Append(2)
	ib.Append(3)

	arr := b.NewArray().(*array.DenseUnion)
	defer arr.Release()

	require.Equal(t, 3, arr.Len())
	assert.Equal(t, quiver.DenseMode, arr.Mode())

	assert.Equal(t, 2, arr.Field(0).Len())
	assert.Equal(t, 1, arr.Field(1).Len())

	assert.Equal(t, []int32{0, 0, 1}, arr.ValueOffsets())
	assert.Equal(t, int32(1), arr.ValueOffset(2))

	assert.Equal(t, int32(3), arr.Field(0).(*array.Numeric[int32]).Value(1))
	assert.Equal(t, "x", arr.Field(1).(*array.String).Value(0))
}

func TestUnionSliceEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := quiver.SparseUnionOf(unionFields, []quiver.UnionTypeCode{0, 1})
	b := array.NewSparseUnionBuilder(mem, dt)
	defer b.Release()

	ib := b.Child(0).(*array.NumericBuilder[int32])
	sb := b.Child(1).(*array.StringBuilder)
	for i := 0; i < 4; i++ {
		if i%2 == 0 {
			b.Append(0)
			ib.Append(int32(i))
			sb.AppendEmptyValue()
		} else {
			b.Append(1)
			ib.AppendEmptyValue()
			sb.Append("v")
		}
	}

	arr := b.NewArray()
	defer arr.Release()

	sl := array.NewSlice(arr, 1, 3)
	defer sl.Release()

	assert.Equal(t, 2, sl.Len())
	assert.True(t, array.ArraySliceEqual(arr, 1, 3, sl, 0, 2))
}
