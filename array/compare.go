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

package array

import (
	"bytes"
	"reflect"

	"github.com/quiverio/quiver"
)

// RecordEqual reports whether the two provided records are equal.
func RecordEqual(left, right quiver.Record) bool {
	switch {
	case left.NumCols() != right.NumCols():
		return false
	case left.NumRows() != right.NumRows():
		return false
	}

	for i := range left.Columns() {
		lc := left.Column(i)
		rc := right.Column(i)
		if !Equal(lc, rc) {
			return false
		}
	}
	return true
}

// ArraySliceEqual reports whether the two provided array ranges are
// value-equal.
func ArraySliceEqual(left quiver.Array, lbeg, lend int64, right quiver.Array, rbeg, rend int64) bool {
	l := NewSlice(left, lbeg, lend)
	defer l.Release()
	r := NewSlice(right, rbeg, rend)
	defer r.Release()

	return Equal(l, r)
}

// Equal reports whether the two provided arrays are value-equal: same
// datatype, same length, nulls at the same positions, and equal values.
// Floating point values compare exactly, NaN is not equal to NaN.
func Equal(left, right quiver.Array) bool {
	switch {
	case !baseArrayEqual(left, right):
		return false
	case left.Len() == 0:
		return true
	case left.NullN() == left.Len():
		return true
	}

	switch l := left.(type) {
	case *Null:
		return true
	case *Boolean:
		r := right.(*Boolean)
		return booleanEqual(l, r)
	case *Numeric[int8]:
		return numericEqual(l, right.(*Numeric[int8]))
	case *Numeric[uint8]:
		return numericEqual(l, right.(*Numeric[uint8]))
	case *Numeric[int16]:
		return numericEqual(l, right.(*Numeric[int16]))
	case *Numeric[uint16]:
		return numericEqual(l, right.(*Numeric[uint16]))
	case *Numeric[int32]:
		return numericEqual(l, right.(*Numeric[int32]))
	case *Numeric[uint32]:
		return numericEqual(l, right.(*Numeric[uint32]))
	case *Numeric[int64]:
		return numericEqual(l, right.(*Numeric[int64]))
	case *Numeric[uint64]:
		return numericEqual(l, right.(*Numeric[uint64]))
	case *Numeric[float32]:
		return numericEqual(l, right.(*Numeric[float32]))
	case *Numeric[float64]:
		return numericEqual(l, right.(*Numeric[float64]))
	case *String:
		return stringEqual(l, right.(*String))
	case *LargeString:
		return largeStringEqual(l, right.(*LargeString))
	case *Binary:
		return binaryEqual(l, right.(*Binary))
	case *LargeBinary:
		return largeBinaryEqual(l, right.(*LargeBinary))
	case *FixedSizeBinary:
		return fixedSizeBinaryEqual(l, right.(*FixedSizeBinary))
	case *List:
		return listEqual(l, right.(*List))
	case *LargeList:
		return listEqual(l, right.(*LargeList))
	case *FixedSizeList:
		return fixedSizeListEqual(l, right.(*FixedSizeList))
	case *Map:
		return listEqual(&l.List, &right.(*Map).List)
	case *Struct:
		return structEqual(l, right.(*Struct))
	case *SparseUnion, *DenseUnion, *RunEndEncoded:
		return rowsEqual(left.(arraymarshal), right.(arraymarshal))
	case *Dictionary:
		return dictionaryEqual(l, right.(*Dictionary))
	}
	panic("quiver/array: unknown array type for comparison")
}

func baseArrayEqual(left, right quiver.Array) bool {
	switch {
	case left.Len() != right.Len():
		return false
	case left.NullN() != right.NullN():
		return false
	case !quiver.TypeEqual(left.DataType(), right.DataType()):
		return false
	}
	return validityBitmapEqual(left, right)
}

func validityBitmapEqual(left, right quiver.Array) bool {
	n := left.Len()
	for i := 0; i < n; i++ {
		if left.IsNull(i) != right.IsNull(i) {
			return false
		}
	}
	return true
}

func booleanEqual(left, right *Boolean) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if left.Value(i) != right.Value(i) {
			return false
		}
	}
	return true
}

func numericEqual[T quiver.FixedWidthType](left, right *Numeric[T]) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if left.Value(i) != right.Value(i) {
			return false
		}
	}
	return true
}

func stringEqual(left, right *String) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if left.Value(i) != right.Value(i) {
			return false
		}
	}
	return true
}

func largeStringEqual(left, right *LargeString) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if left.Value(i) != right.Value(i) {
			return false
		}
	}
	return true
}

func binaryEqual(left, right *Binary) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if !bytes.Equal(left.Value(i), right.Value(i)) {
			return false
		}
	}
	return true
}

func largeBinaryEqual(left, right *LargeBinary) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if !bytes.Equal(left.Value(i), right.Value(i)) {
			return false
		}
	}
	return true
}

func fixedSizeBinaryEqual(left, right *FixedSizeBinary) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if !bytes.Equal(left.Value(i), right.Value(i)) {
			return false
		}
	}
	return true
}

// listLikeArray is the surface shared by the variable-length list views.
type listLikeArray interface {
	quiver.Array
	newListValue(int) quiver.Array
	ValueOffsets(int) (start, end int64)
}

func listEqual(left, right listLikeArray) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		lbeg, lend := left.ValueOffsets(i)
		rbeg, rend := right.ValueOffsets(i)
		if lend-lbeg != rend-rbeg {
			return false
		}
		l := left.newListValue(i)
		r := right.newListValue(i)
		eq := Equal(l, r)
		l.Release()
		r.Release()
		if !eq {
			return false
		}
	}
	return true
}

func fixedSizeListEqual(left, right *FixedSizeList) bool {
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		l := left.newListValue(i)
		r := right.newListValue(i)
		eq := Equal(l, r)
		l.Release()
		r.Release()
		if !eq {
			return false
		}
	}
	return true
}

func structEqual(left, right *Struct) bool {
	for i := 0; i < left.NumField(); i++ {
		if !fieldEqualWithParentValidity(left, right, i) {
			return false
		}
	}
	return true
}

// fieldEqualWithParentValidity compares a struct child field, skipping rows
// where the parent struct itself is null.
func fieldEqualWithParentValidity(left, right *Struct, field int) bool {
	lf := left.Field(field).(arraymarshal)
	rf := right.Field(field).(arraymarshal)
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) {
			continue
		}
		if lf.IsNull(i) != rf.IsNull(i) {
			return false
		}
		if lf.IsNull(i) {
			continue
		}
		if !reflect.DeepEqual(lf.getOneForMarshal(i), rf.getOneForMarshal(i)) {
			return false
		}
	}
	return true
}

// rowsEqual compares arrays row by row through their logical values; it is
// used for layouts where physical buffers can legitimately differ for equal
// logical content (unions, run-end encoded data).
func rowsEqual(left, right arraymarshal) bool {
	for i := 0; i < left.Len(); i++ {
		if !reflect.DeepEqual(left.getOneForMarshal(i), right.getOneForMarshal(i)) {
			return false
		}
	}
	return true
}

func dictionaryEqual(left, right *Dictionary) bool {
	if Equal(left.Indices(), right.Indices()) && Equal(left.Dictionary(), right.Dictionary()) {
		return true
	}
	// different dictionaries can still encode the same logical values
	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) != right.IsNull(i) {
			return false
		}
		if left.IsNull(i) {
			continue
		}
		if !reflect.DeepEqual(left.getOneForMarshal(i), right.getOneForMarshal(i)) {
			return false
		}
	}
	return true
}
