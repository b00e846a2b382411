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

func TestBinaryDictionaryBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int8, ValueType: quiver.BinaryTypes.String}
	b := array.NewBinaryDictionaryBuilder(mem, dt)
	defer b.Release()

	for _, v := range []string{"red", "green", "red", "blue", "green"} {
		require.NoError(t, b.AppendString(v))
	}
	b.AppendNull()

	arr := b.NewArray().(*array.Dictionary)
	defer arr.Release()

	require.Equal(t, 6, arr.Len())
	assert.Equal(t, 1, arr.NullN())

	// repeated values are interned, in first-appearance order.
	dict := arr.Dictionary().(*array.String)
	require.Equal(t, 3, dict.Len())
	assert.Equal(t, "red", dict.Value(0))
	assert.Equal(t, "green", dict.Value(1))
	assert.Equal(t, "blue", dict.Value(2))

	assert.Equal(t, 0, arr.GetValueIndex(0))
	assert.Equal(t, 1, arr.GetValueIndex(1))
	assert.Equal(t, 0, arr.GetValueIndex(2))
	assert.Equal(t, 2, arr.GetValueIndex(3))
	assert.True(t, arr.IsNull(5))
}

func TestNumericDictionaryBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int16, ValueType: quiver.PrimitiveTypes.Float64}
	b := array.NewNumericDictionaryBuilder[float64](mem, dt)
	defer b.Release()

	for _, v := range []float64{1.5, 2.5, 1.5, 1.5} {
		require.NoError(t, b.Append(v))
	}

	arr := b.NewArray().(*array.Dictionary)
	defer arr.Release()

	require.Equal(t, 4, arr.Len())
	dict := arr.Dictionary().(*array.Numeric[float64])
	require.Equal(t, 2, dict.Len())
	assert.Equal(t, 1.5, dict.Value(0))
	assert.Equal(t, 2.5, dict.Value(1))

	idx := arr.Indices().(*array.Numeric[int16])
	assert.Equal(t, []int16{0, 1, 0, 0}, idx.Values())
}

func TestDictionarySliceEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int32, ValueType: quiver.BinaryTypes.String}
	b := array.NewBinaryDictionaryBuilder(mem, dt)
	defer b.Release()

	for _, v := range []string{"a", "b", "c", "b", "a"} {
		require.NoError(t, b.AppendString(v))
	}
	arr := b.NewArray()
	defer arr.Release()

	sl := array.NewSlice(arr, 1, 4).(*array.Dictionary)
	defer sl.Release()

	require.Equal(t, 3, sl.Len())
	assert.Equal(t, "b", sl.ValueStr(0))
	assert.True(t, array.ArraySliceEqual(arr, 1, 4, sl, 0, 3))
}

func TestNewDictionaryArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ib := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
	defer ib.Release()
	ib.AppendValues([]int32{0, 1, 1, 0}, nil)
	indices := ib.NewArray()
	defer indices.Release()

	vb := array.NewStringBuilder(mem)
	defer vb.Release()
	vb.AppendValues([]string{"yes", "no"}, nil)
	dictVals := vb.NewArray()
	defer dictVals.Release()

	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int32, ValueType: quiver.BinaryTypes.String}
	arr := array.NewDictionaryArray(dt, indices, dictVals)
	defer arr.Release()

	require.Equal(t, 4, arr.Len())
	assert.Equal(t, "yes", arr.ValueStr(0))
	assert.Equal(t, "no", arr.ValueStr(1))
	assert.Equal(t, "yes", arr.ValueStr(3))
}
