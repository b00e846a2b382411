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

package encoded_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/encoded"
	"github.com/quiverio/quiver/memory"
)

// reeData builds run-end encoded array data with int32 run ends and int32
// values, with the given logical offset and length.
func reeData(t *testing.T, mem memory.Allocator, ends, vals []int32, offset, length int) quiver.ArrayData {
	t.Helper()
	require.Equal(t, len(ends), len(vals))

	eb := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
	defer eb.Release()
	eb.AppendValues(ends, nil)
	endsArr := eb.NewArray()
	defer endsArr.Release()

	vb := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
	defer vb.Release()
	vb.AppendValues(vals, nil)
	valsArr := vb.NewArray()
	defer valsArr.Release()

	dt := quiver.RunEndEncodedOf(quiver.PrimitiveTypes.Int32, quiver.PrimitiveTypes.Int32)
	return array.NewData(dt, length, []*memory.Buffer{nil},
		[]quiver.ArrayData{endsArr.Data(), valsArr.Data()}, 0, offset)
}

func TestFindPhysicalIndex(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	// logical positions 0..14 spread over 4 runs.
	data := reeData(t, mem, []int32{3, 7, 10, 15}, []int32{1, 2, 3, 4}, 0, 15)
	defer data.Release()

	for _, tc := range []struct{ pos, want int }{
		{0, 0}, {2, 0},
		{3, 1}, {6, 1},
		{7, 2}, {9, 2},
		{10, 3}, {14, 3},
		{15, 4}, // past the last run end
	} {
		assert.Equal(t, tc.want, encoded.FindPhysicalIndex(data, tc.pos), "pos=%d", tc.pos)
	}
}

func TestFindPhysicalOffset(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	for _, tc := range []struct {
		offset, length int
		want           int
	}{
		{0, 15, 0},
		{3, 12, 1},
		{8, 7, 2},
		{14, 1, 3},
	} {
		data := reeData(t, mem, []int32{3, 7, 10, 15}, []int32{1, 2, 3, 4}, tc.offset, tc.length)
		assert.Equal(t, tc.want, encoded.FindPhysicalOffset(data), "offset=%d", tc.offset)
		data.Release()
	}
}

func TestGetPhysicalLength(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	for _, tc := range []struct {
		offset, length int
		want           int
	}{
		{0, 15, 4}, // the whole array needs all runs
		{0, 3, 1},  // first run only
		{2, 2, 2},  // straddles runs 0 and 1
		{3, 4, 1},  // exactly run 1
		{8, 7, 2},  // runs 2 and 3
		{14, 1, 1}, // last element only
		{0, 0, 0},  // empty window
	} {
		data := reeData(t, mem, []int32{3, 7, 10, 15}, []int32{1, 2, 3, 4}, tc.offset, tc.length)
		assert.Equal(t, tc.want, encoded.GetPhysicalLength(data), "offset=%d length=%d", tc.offset, tc.length)
		data.Release()
	}
}

func TestRunIterator(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	type run struct{ physical, length int }

	for _, tc := range []struct {
		offset, length int
		want           []run
	}{
		{0, 15, []run{{0, 3}, {1, 4}, {2, 3}, {3, 5}}},
		{5, 8, []run{{1, 2}, {2, 3}, {3, 3}}}, // logical 5..12
		{3, 4, []run{{1, 4}}},                 // exactly run 1
		{14, 1, []run{{3, 1}}},
		{0, 0, nil},
	} {
		data := reeData(t, mem, []int32{3, 7, 10, 15}, []int32{1, 2, 3, 4}, tc.offset, tc.length)

		var got []run
		it := encoded.NewRunIterator(data)
		for {
			physical, length, ok := it.Next()
			if !ok {
				break
			}
			got = append(got, run{physical, length})
		}
		assert.Equal(t, tc.want, got, "offset=%d length=%d", tc.offset, tc.length)
		data.Release()
	}
}

func TestFindPhysicalIndexInt16AndInt64Ends(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	build := func(endsType quiver.DataType, appendEnds func(array.Builder)) quiver.ArrayData {
		eb := array.NewBuilder(mem, endsType)
		defer eb.Release()
		appendEnds(eb)
		endsArr := eb.NewArray()
		defer endsArr.Release()

		vb := array.NewNumericBuilder[int32](mem, quiver.PrimitiveTypes.Int32)
		defer vb.Release()
		vb.AppendValues([]int32{1, 2}, nil)
		valsArr := vb.NewArray()
		defer valsArr.Release()

		dt := quiver.RunEndEncodedOf(endsType, quiver.PrimitiveTypes.Int32)
		return array.NewData(dt, 10, []*memory.Buffer{nil},
			[]quiver.ArrayData{endsArr.Data(), valsArr.Data()}, 0, 0)
	}

	d16 := build(quiver.PrimitiveTypes.Int16, func(b array.Builder) {
		b.(*array.NumericBuilder[int16]).AppendValues([]int16{4, 10}, nil)
	})
	defer d16.Release()
	assert.Equal(t, 1, encoded.FindPhysicalIndex(d16, 5))

	d64 := build(quiver.PrimitiveTypes.Int64, func(b array.Builder) {
		b.(*array.NumericBuilder[int64]).AppendValues([]int64{4, 10}, nil)
	})
	defer d64.Release()
	assert.Equal(t, 1, encoded.FindPhysicalIndex(d64, 5))
}
