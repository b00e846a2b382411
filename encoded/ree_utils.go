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

// Package encoded provides utilities for working with run-end encoded
// array data, translating logical indices to physical indices in the
// run-ends and values children.
package encoded

import (
	"sort"

	"github.com/quiverio/quiver"
)

// runEnds returns the physical window of the run-ends child of arr as a
// slice of E.
func runEnds[E int16 | int32 | int64](arr quiver.ArrayData) []E {
	data := arr.Children()[0]
	vals := quiver.GetData[E](data.Buffers()[1].Bytes())
	return vals[data.Offset() : data.Offset()+data.Len()]
}

// findPhysicalIndex returns the index of the run containing the logical
// position pos, the smallest i such that runEnds[i] > pos. If pos is beyond
// the last run end, len(runEnds) is returned.
func findPhysicalIndex[E int16 | int32 | int64](runEnds []E, pos int) int {
	return sort.Search(len(runEnds), func(i int) bool { return runEnds[i] > E(pos) })
}

// FindPhysicalIndex performs a binary search on the run-ends of arr to
// return the physical index into the values and run-ends children holding
// the logical position pos. pos is an absolute logical index, it is not
// adjusted by arr's offset.
func FindPhysicalIndex(arr quiver.ArrayData, pos int) int {
	switch arr.Children()[0].DataType().ID() {
	case quiver.INT16:
		return findPhysicalIndex(runEnds[int16](arr), pos)
	case quiver.INT32:
		return findPhysicalIndex(runEnds[int32](arr), pos)
	case quiver.INT64:
		return findPhysicalIndex(runEnds[int64](arr), pos)
	default:
		panic("quiver/encoded: invalid run ends type")
	}
}

// FindPhysicalOffset returns the physical index of the run containing the
// first logical element of arr, accounting for the array's logical offset.
// If the offset is beyond the last run end, the number of physical runs is
// returned.
func FindPhysicalOffset(arr quiver.ArrayData) int {
	return FindPhysicalIndex(arr, arr.Offset())
}

// GetPhysicalLength returns the number of physical values (and run-ends)
// necessary to represent the logical range of arr, from its offset through
// its length.
//
// Avoid calling this function if the physical length can be established in
// some other way (e.g. when iterating over the runs sequentially until the
// end). This function uses binary search, so it has a O(log N) cost.
func GetPhysicalLength(arr quiver.ArrayData) int {
	if arr.Len() == 0 {
		return 0
	}

	physicalOffset := FindPhysicalOffset(arr)
	lastPos := arr.Offset() + arr.Len() - 1
	return FindPhysicalIndex(arr, lastPos) - physicalOffset + 1
}

func runEndAt(arr quiver.ArrayData, i int) int {
	switch arr.Children()[0].DataType().ID() {
	case quiver.INT16:
		return int(runEnds[int16](arr)[i])
	case quiver.INT32:
		return int(runEnds[int32](arr)[i])
	case quiver.INT64:
		return int(runEnds[int64](arr)[i])
	default:
		panic("quiver/encoded: invalid run ends type")
	}
}

// RunIterator walks the runs covering the logical window of a run-end
// encoded array in order, binary searching once for the first run and
// then advancing linearly.
type RunIterator struct {
	arr      quiver.ArrayData
	physical int
	logical  int
	end      int
}

// NewRunIterator returns an iterator positioned on the run containing the
// first logical element of arr.
func NewRunIterator(arr quiver.ArrayData) *RunIterator {
	return &RunIterator{
		arr:      arr,
		physical: FindPhysicalOffset(arr),
		logical:  arr.Offset(),
		end:      arr.Offset() + arr.Len(),
	}
}

// Next returns the physical index of the current run and the number of
// logical elements it covers inside the array's window, then advances.
// ok is false once the window is exhausted.
func (it *RunIterator) Next() (physical, length int, ok bool) {
	if it.logical >= it.end {
		return 0, 0, false
	}

	end := runEndAt(it.arr, it.physical)
	if end > it.end {
		end = it.end
	}

	physical = it.physical
	length = end - it.logical
	it.logical = end
	it.physical++
	return physical, length, true
}
