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

package quiver

import (
	"fmt"

	"github.com/quiverio/quiver/memory"
)

// ArrayData is the underlying memory and metadata of an array, independent
// of its logical, typed view. It binds a DataType, a logical length, a
// (possibly lazily computed) null count, a logical offset, the physical
// buffers mandated by the type's layout and the child ArrayData nodes of
// nested types.
//
// ArrayData is immutable after construction. Slicing produces a new
// ArrayData sharing the same buffers with an adjusted offset and length.
type ArrayData interface {
	// Retain increases the reference count by 1, it is safe to call
	// in multiple goroutines simultaneously.
	Retain()
	// Release decreases the reference count by 1, it is safe to call
	// in multiple goroutines simultaneously. Data is removed when reference
	// count is 0.
	Release()
	// DataType returns the current datatype stored in the object.
	DataType() DataType
	// NullN returns the number of nulls, materializing it from the
	// validity bitmap if it has not been computed yet.
	NullN() int
	// Len returns the length of this data instance.
	Len() int
	// Offset returns the offset into the raw buffers where this data begins.
	Offset() int
	// Buffers returns the slice of raw data buffers.
	Buffers() []*memory.Buffer
	// Children returns the slice of children data instances, only relevant
	// for nested data types.
	Children() []ArrayData
	// Dictionary returns the current dictionary data if there is one.
	Dictionary() ArrayData
}

// Array represents an immutable sequence of values using the columnar format.
type Array interface {
	fmt.Stringer

	// DataType returns the type metadata for this instance.
	DataType() DataType

	// NullN returns the number of null values in the array.
	NullN() int

	// NullBitmapBytes returns a byte slice of the validity bitmap.
	NullBitmapBytes() []byte

	// IsNull returns true if value at index is null.
	// NOTE: IsNull will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
	IsNull(i int) bool

	// IsValid returns true if value at index is not null.
	// NOTE: IsValid will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
	IsValid(i int) bool

	// ValueStr returns the value at index as a string.
	ValueStr(i int) string

	Data() ArrayData

	// Len returns the number of elements in the array.
	Len() int

	// Retain increases the reference count by 1.
	// Retain may be called simultaneously from multiple goroutines.
	Retain()

	// Release decreases the reference count by 1.
	// Release may be called simultaneously from multiple goroutines.
	// Data is removed when reference count is 0.
	Release()
}
