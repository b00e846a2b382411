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

func TestNumericBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
	defer b.Release()

	b.AppendValues([]int32{1, 2, 3}, nil)
	b.AppendNull()
	b.Append(5)
	require.Equal(t, 5, b.Len())
	require.Equal(t, 1, b.NullN())

	arr := b.NewNumericArray()
	defer arr.Release()

	assert.Equal(t, 5, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, int32(2), arr.Value(1))
	assert.True(t, arr.IsNull(3))
	assert.True(t, arr.IsValid(4))
	assert.Equal(t, int32(5), arr.Value(4))

	// the builder is reset and reusable after NewArray.
	assert.Equal(t, 0, b.Len())
	b.Append(42)
	arr2 := b.NewNumericArray()
	defer arr2.Release()
	assert.Equal(t, 1, arr2.Len())
	assert.Equal(t, int32(42), arr2.Value(0))
}

func TestNumericBuilderAppendValuesWithValid(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewNumericBuilder[float64](mem, quiver.PrimitiveTypes.Float64)
	defer b.Release()

	b.AppendValues([]float64{1, 2, 3, 4}, []bool{true, false, true, false})
	arr := b.NewNumericArray()
	defer arr.Release()

	assert.Equal(t, 2, arr.NullN())
	assert.Equal(t, 1.0, arr.Value(0))
	assert.True(t, arr.IsNull(1))
	assert.Equal(t, 3.0, arr.Value(2))
	assert.True(t, arr.IsNull(3))
}

func TestBooleanBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewBooleanBuilder(mem)
	defer b.Release()

	b.AppendValues([]bool{true, false, true}, []bool{true, true, false})
	b.Append(false)

	arr := b.NewArray().(*array.Boolean)
	defer arr.Release()

	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.True(t, arr.Value(0))
	assert.False(t, arr.Value(1))
	assert.True(t, arr.IsNull(2))
	assert.False(t, arr.Value(3))
}

func TestStringBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewStringBuilder(mem)
	defer b.Release()

	b.AppendValues([]string{"hello", "", "world"}, []bool{true, false, true})
	b.Append("!")

	arr := b.NewStringArray()
	defer arr.Release()

	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, "hello", arr.Value(0))
	assert.True(t, arr.IsNull(1))
	assert.Equal(t, "world", arr.Value(2))
	assert.Equal(t, "!", arr.Value(3))
}

func TestListBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewListBuilder(mem, quiver.PrimitiveTypes.Int64)
	defer b.Release()
	vb := b.ValueBuilder().(*array.NumericBuilder[int64])

	b.Append(true)
	vb.AppendValues([]int64{1, 2, 3}, nil)
	b.AppendNull()
	b.Append(true)
	vb.AppendValues([]int64{4}, nil)

	arr := b.NewArray().(*array.List)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, []int32{0, 3, 3, 4}, arr.Offsets())

	beg, end := arr.ValueOffsets(2)
	assert.EqualValues(t, 3, beg)
	assert.EqualValues(t, 4, end)

	vals := arr.ListValues().(*array.Numeric[int64])
	assert.Equal(t, []int64{1, 2, 3, 4}, vals.Values())
}

func TestStructBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := quiver.StructOf(
		quiver.Field{Name: "i", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
		quiver.Field{Name: "s", Type: quiver.BinaryTypes.String, Nullable: true},
	)
	b := array.NewStructBuilder(mem, dt)
	defer b.Release()

	ib := b.FieldBuilder(0).(*array.NumericBuilder[int32])
	sb := b.FieldBuilder(1).(*array.StringBuilder)

	b.Append(true)
	ib.Append(1)
	sb.Append("a")
	b.AppendNull()
	ib.AppendNull()
	sb.AppendNull()

	arr := b.NewArray().(*array.Struct)
	defer arr.Release()

	assert.Equal(t, 2, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, 2, arr.NumField())
	assert.Equal(t, int32(1), arr.Field(0).(*array.Numeric[int32]).Value(0))
	assert.Equal(t, "a", arr.Field(1).(*array.String).Value(0))
}

func TestMapBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := quiver.MapOf(quiver.BinaryTypes.String, quiver.PrimitiveTypes.Int32)
	b := array.NewMapBuilderWithType(mem, dt)
	defer b.Release()

	kb := b.KeyBuilder().(*array.StringBuilder)
	ib := b.ItemBuilder().(*array.NumericBuilder[int32])

	b.Append(true)
	kb.Append("a")
	ib.Append(1)
	kb.Append("b")
	ib.Append(2)
	b.AppendNull()
	b.Append(true)
	kb.Append("c")
	ib.Append(3)

	arr := b.NewArray().(*array.Map)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, 3, arr.Keys().Len())
	assert.Equal(t, "c", arr.Keys().(*array.String).Value(2))
	assert.Equal(t, int32(3), arr.Items().(*array.Numeric[int32]).Value(2))
}

func TestFixedSizeBinaryBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewFixedSizeBinaryBuilder(mem, &quiver.FixedSizeBinaryType{ByteWidth: 2})
	defer b.Release()

	b.Append([]byte{1, 2})
	b.AppendNull()
	b.Append([]byte{3, 4})

	arr := b.NewArray().(*array.FixedSizeBinary)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, []byte{1, 2}, arr.Value(0))
	assert.True(t, arr.IsNull(1))
	assert.Equal(t, []byte{3, 4}, arr.Value(2))
}

func TestNullBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewNullBuilder(mem)
	defer b.Release()

	b.AppendNulls(4)
	arr := b.NewArray()
	defer arr.Release()

	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 4, arr.NullN())
	assert.True(t, arr.IsNull(0))
}

func TestNewBuilderDispatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	for _, dt := range []quiver.DataType{
		quiver.FixedWidthTypes.Boolean,
		quiver.PrimitiveTypes.Int8,
		quiver.PrimitiveTypes.Uint64,
		quiver.PrimitiveTypes.Float32,
		quiver.BinaryTypes.String,
		quiver.BinaryTypes.LargeBinary,
		quiver.ListOf(quiver.PrimitiveTypes.Int32),
		quiver.StructOf(quiver.Field{Name: "f", Type: quiver.PrimitiveTypes.Int32}),
		quiver.MapOf(quiver.BinaryTypes.String, quiver.PrimitiveTypes.Int32),
		quiver.RunEndEncodedOf(quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String),
	} {
		b := array.NewBuilder(mem, dt)
		require.NotNil(t, b, "NewBuilder(%v)", dt)
		assert.True(t, quiver.TypeEqual(dt, b.Type()), "builder type for %v", dt)
		b.Release()
	}
}
