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
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/bitutil"
	"github.com/quiverio/quiver/internal/debug"
)

// NullValueStr is returned by ValueStr for a null element of any array.
const NullValueStr = "(null)"

// arraymarshal is the private surface every concrete array implements so
// that traversal (JSON marshalling, String, comparison) can be written as a
// single dispatch-and-recurse instead of per-type chains.
type arraymarshal interface {
	quiver.Array
	getOneForMarshal(i int) interface{}
}

type array struct {
	refCount        int64
	data            *Data
	nullBitmapBytes []byte
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *array) Retain() {
	atomic.AddInt64(&a.refCount, 1)
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *array) Release() {
	debug.Assert(atomic.LoadInt64(&a.refCount) > 0, "too many releases")

	if atomic.AddInt64(&a.refCount, -1) == 0 {
		a.data.Release()
		a.data, a.nullBitmapBytes = nil, nil
	}
}

func (a *array) setData(data *Data) {
	// replace our current data with new data, retaining the new
	data.Retain()
	if a.data != nil {
		a.data.Release()
	}

	if len(data.buffers) > 0 && data.buffers[0] != nil {
		a.nullBitmapBytes = data.buffers[0].Bytes()
	}
	a.data = data
}

// DataType returns the type metadata for this instance.
func (a *array) DataType() quiver.DataType { return a.data.dtype }

// NullN returns the number of null values in the array.
func (a *array) NullN() int { return a.data.NullN() }

// NullBitmapBytes returns a byte slice of the validity bitmap.
func (a *array) NullBitmapBytes() []byte { return a.nullBitmapBytes }

func (a *array) Data() quiver.ArrayData { return a.data }

// Len returns the number of elements in the array.
func (a *array) Len() int { return a.data.length }

// IsNull returns true if value at index is null.
// NOTE: IsNull will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
func (a *array) IsNull(i int) bool {
	return len(a.nullBitmapBytes) != 0 && bitutil.BitIsNotSet(a.nullBitmapBytes, a.data.offset+i)
}

// IsValid returns true if value at index is not null.
// NOTE: IsValid will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
func (a *array) IsValid(i int) bool {
	return len(a.nullBitmapBytes) == 0 || bitutil.BitIsSet(a.nullBitmapBytes, a.data.offset+i)
}

type arrayConstructorFn func(*Data) quiver.Array

var makeArrayFn [26]arrayConstructorFn

// populated in init: a package-level literal would form an initialization
// cycle through the nested constructors calling back into MakeFromData.
func init() {
	makeArrayFn = [26]arrayConstructorFn{
		quiver.NULL:              func(data *Data) quiver.Array { return NewNullData(data) },
		quiver.BOOL:              func(data *Data) quiver.Array { return NewBooleanData(data) },
		quiver.UINT8:             func(data *Data) quiver.Array { return NewNumericData[uint8](data) },
		quiver.INT8:              func(data *Data) quiver.Array { return NewNumericData[int8](data) },
		quiver.UINT16:            func(data *Data) quiver.Array { return NewNumericData[uint16](data) },
		quiver.INT16:             func(data *Data) quiver.Array { return NewNumericData[int16](data) },
		quiver.UINT32:            func(data *Data) quiver.Array { return NewNumericData[uint32](data) },
		quiver.INT32:             func(data *Data) quiver.Array { return NewNumericData[int32](data) },
		quiver.UINT64:            func(data *Data) quiver.Array { return NewNumericData[uint64](data) },
		quiver.INT64:             func(data *Data) quiver.Array { return NewNumericData[int64](data) },
		quiver.FLOAT32:           func(data *Data) quiver.Array { return NewNumericData[float32](data) },
		quiver.FLOAT64:           func(data *Data) quiver.Array { return NewNumericData[float64](data) },
		quiver.STRING:            func(data *Data) quiver.Array { return NewStringData(data) },
		quiver.BINARY:            func(data *Data) quiver.Array { return NewBinaryData(data) },
		quiver.FIXED_SIZE_BINARY: func(data *Data) quiver.Array { return NewFixedSizeBinaryData(data) },
		quiver.LIST:              func(data *Data) quiver.Array { return NewListData(data) },
		quiver.STRUCT:            func(data *Data) quiver.Array { return NewStructData(data) },
		quiver.SPARSE_UNION:      func(data *Data) quiver.Array { return NewSparseUnionData(data) },
		quiver.DENSE_UNION:       func(data *Data) quiver.Array { return NewDenseUnionData(data) },
		quiver.DICTIONARY:        func(data *Data) quiver.Array { return NewDictionaryData(data) },
		quiver.MAP:               func(data *Data) quiver.Array { return NewMapData(data) },
		quiver.FIXED_SIZE_LIST:   func(data *Data) quiver.Array { return NewFixedSizeListData(data) },
		quiver.LARGE_STRING:      func(data *Data) quiver.Array { return NewLargeStringData(data) },
		quiver.LARGE_BINARY:      func(data *Data) quiver.Array { return NewLargeBinaryData(data) },
		quiver.LARGE_LIST:        func(data *Data) quiver.Array { return NewLargeListData(data) },
		quiver.RUN_END_ENCODED:   func(data *Data) quiver.Array { return NewRunEndEncodedData(data) },
	}
}

// MakeFromData constructs a strongly-typed array instance from generic Data.
// The dispatch is keyed on the type tag and total over the supported tag
// set: an unknown tag panics rather than falling through to a default view.
func MakeFromData(data quiver.ArrayData) quiver.Array {
	id := int(data.DataType().ID())
	if id < 0 || id >= len(makeArrayFn) {
		panic("quiver/array: invalid data type")
	}
	return makeArrayFn[id](data.(*Data))
}

// NewSlice constructs a zero-copy slice of the array with the indicated
// indices i and j, only slicing the provided array. The returned array must
// be released.
//
// Reading a value at position k of the slice returns the same value as
// reading the unsliced array at position k+i; no bytes are copied.
func NewSlice(arr quiver.Array, i, j int64) quiver.Array {
	data := NewSliceData(arr.Data(), i, j)
	slice := MakeFromData(data)
	data.Release()
	return slice
}
