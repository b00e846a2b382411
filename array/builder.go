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
	"fmt"
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/bitutil"
	"github.com/quiverio/quiver/memory"
)

const (
	minBuilderCapacity = 1 << 5
)

// Builder provides an interface to build columnar arrays incrementally.
// A builder is the only mutable object in the package; it must be confined
// to a single owner until NewArray finalizes it.
type Builder interface {
	// Retain increases the reference count by 1.
	// Retain may be called simultaneously from multiple goroutines.
	Retain()

	// Release decreases the reference count by 1.
	Release()

	// Len returns the number of elements in the array builder.
	Len() int

	// Cap returns the total number of elements that can be stored
	// without allocating additional memory.
	Cap() int

	// NullN returns the number of null values in the array builder.
	NullN() int

	// Type returns the datatype that this is building
	Type() quiver.DataType

	// AppendNull adds a new null value to the array being built.
	AppendNull()

	// AppendNulls adds new n null values to the array being built.
	AppendNulls(n int)

	// AppendEmptyValue adds a new zero value of the appropriate type
	AppendEmptyValue()

	// AppendEmptyValues adds new n zero values of the appropriate type
	AppendEmptyValues(n int)

	// Reserve ensures there is enough space for appending n elements
	// by checking the capacity and calling Resize if necessary.
	Reserve(n int)

	// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
	// additional memory will be allocated. If n is smaller, the allocated memory may reduced.
	Resize(n int)

	// NewArray creates a new array from the memory buffers used
	// by the builder and resets the Builder so it can be used to build
	// a new array.
	NewArray() quiver.Array

	init(capacity int)
	resize(newBits int, init func(int))
}

// builder provides common functionality for managing the validity bitmap (nulls) when building arrays.
type builder struct {
	refCount   int64
	mem        memory.Allocator
	nullBitmap *memory.Buffer
	nulls      int
	length     int
	capacity   int
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (b *builder) Retain() {
	atomic.AddInt64(&b.refCount, 1)
}

// Len returns the number of elements in the array builder.
func (b *builder) Len() int { return b.length }

// Cap returns the total number of elements that can be stored without allocating additional memory.
func (b *builder) Cap() int { return b.capacity }

// NullN returns the number of null values in the array builder.
func (b *builder) NullN() int { return b.nulls }

func (b *builder) init(capacity int) {
	toAlloc := bitutil.CeilByte(capacity) / 8
	b.nullBitmap = memory.NewResizableBuffer(b.mem)
	b.nullBitmap.Resize(toAlloc)
	b.capacity = capacity
	memory.Set(b.nullBitmap.Buf(), 0)
}

func (b *builder) reset() {
	if b.nullBitmap != nil {
		b.nullBitmap.Release()
		b.nullBitmap = nil
	}

	b.nulls = 0
	b.length = 0
	b.capacity = 0
}

func (b *builder) resize(newBits int, init func(int)) {
	if b.nullBitmap == nil {
		init(newBits)
		return
	}

	newBytesN := bitutil.CeilByte(newBits) / 8
	oldBytesN := b.nullBitmap.Len()
	b.nullBitmap.Resize(newBytesN)
	b.capacity = newBits
	if oldBytesN < newBytesN {
		// TODO(sgc): necessary?
		memory.Set(b.nullBitmap.Buf()[oldBytesN:], 0)
	}
	if newBits < b.length {
		b.length = newBits
		b.nulls = newBits - bitutil.CountSetBits(b.nullBitmap.Buf(), 0, newBits)
	}
}

func (b *builder) reserve(elements int, resize func(int)) {
	if b.nullBitmap == nil {
		b.nullBitmap = memory.NewResizableBuffer(b.mem)
	}
	if b.length+elements > b.capacity {
		newCap := bitutil.NextPowerOf2(b.length + elements)
		resize(newCap)
	}
}

// unsafeAppendBoolsToBitmap appends the contents of valid to the validity bitmap.
// As an optimization, if the valid slice is empty, the next length bits will be set to valid (not null).
func (b *builder) unsafeAppendBoolsToBitmap(valid []bool, length int) {
	if len(valid) == 0 {
		b.unsafeSetValid(length)
		return
	}

	byteOffset := b.length / 8
	bitOffset := byte(b.length % 8)
	nullBitmap := b.nullBitmap.Bytes()
	bitSet := nullBitmap[byteOffset]

	for _, v := range valid {
		if bitOffset == 8 {
			bitOffset = 0
			nullBitmap[byteOffset] = bitSet
			byteOffset++
			bitSet = nullBitmap[byteOffset]
		}

		if v {
			bitSet |= bitutil.BitMask[bitOffset]
		} else {
			bitSet &= bitutil.FlippedBitMask[bitOffset]
			b.nulls++
		}
		bitOffset++
	}

	if bitOffset != 0 {
		nullBitmap[byteOffset] = bitSet
	}
	b.length += len(valid)
}

// unsafeSetValid sets the next length bits to valid in the validity bitmap.
func (b *builder) unsafeSetValid(length int) {
	padToByte := min(8-(b.length%8), length)
	if padToByte == 8 {
		padToByte = 0
	}
	bits := b.nullBitmap.Bytes()
	for i := b.length; i < b.length+padToByte; i++ {
		bitutil.SetBit(bits, i)
	}

	start := (b.length + padToByte) / 8
	fastLength := (length - padToByte) / 8
	memory.Set(bits[start:start+fastLength], 0xff)

	newLength := b.length + length
	// trailing bytes
	for i := b.length + padToByte + (fastLength * 8); i < newLength; i++ {
		bitutil.SetBit(bits, i)
	}

	b.length = newLength
}

func (b *builder) UnsafeAppendBoolToBitmap(isValid bool) {
	if isValid {
		bitutil.SetBit(b.nullBitmap.Bytes(), b.length)
	} else {
		b.nulls++
	}
	b.length++
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// NewBuilder returns a builder, using the provided memory allocator.
// The builder dispatch is keyed on the type tag and is exhaustive over
// the supported tag set; an unknown tag panics.
func NewBuilder(mem memory.Allocator, dtype quiver.DataType) Builder {
	switch dtype.ID() {
	case quiver.NULL:
		return NewNullBuilder(mem)
	case quiver.BOOL:
		return NewBooleanBuilder(mem)
	case quiver.UINT8:
		return NewNumericBuilder[uint8](mem, dtype)
	case quiver.INT8:
		return NewNumericBuilder[int8](mem, dtype)
	case quiver.UINT16:
		return NewNumericBuilder[uint16](mem, dtype)
	case quiver.INT16:
		return NewNumericBuilder[int16](mem, dtype)
	case quiver.UINT32:
		return NewNumericBuilder[uint32](mem, dtype)
	case quiver.INT32:
		return NewNumericBuilder[int32](mem, dtype)
	case quiver.UINT64:
		return NewNumericBuilder[uint64](mem, dtype)
	case quiver.INT64:
		return NewNumericBuilder[int64](mem, dtype)
	case quiver.FLOAT32:
		return NewNumericBuilder[float32](mem, dtype)
	case quiver.FLOAT64:
		return NewNumericBuilder[float64](mem, dtype)
	case quiver.STRING:
		return NewStringBuilder(mem)
	case quiver.BINARY:
		return NewBinaryBuilder(mem, quiver.BinaryTypes.Binary)
	case quiver.FIXED_SIZE_BINARY:
		return NewFixedSizeBinaryBuilder(mem, dtype.(*quiver.FixedSizeBinaryType))
	case quiver.LIST:
		typ := dtype.(*quiver.ListType)
		return NewListBuilderWithField(mem, typ.ElemField())
	case quiver.STRUCT:
		return NewStructBuilder(mem, dtype.(*quiver.StructType))
	case quiver.SPARSE_UNION:
		return NewSparseUnionBuilder(mem, dtype.(*quiver.SparseUnionType))
	case quiver.DENSE_UNION:
		return NewDenseUnionBuilder(mem, dtype.(*quiver.DenseUnionType))
	case quiver.DICTIONARY:
		return NewDictionaryBuilder(mem, dtype.(*quiver.DictionaryType))
	case quiver.MAP:
		typ := dtype.(*quiver.MapType)
		return NewMapBuilderWithType(mem, typ)
	case quiver.FIXED_SIZE_LIST:
		typ := dtype.(*quiver.FixedSizeListType)
		return NewFixedSizeListBuilderWithField(mem, typ.Len(), typ.ElemField())
	case quiver.LARGE_STRING:
		return NewLargeStringBuilder(mem)
	case quiver.LARGE_BINARY:
		return NewBinaryBuilder(mem, quiver.BinaryTypes.LargeBinary)
	case quiver.LARGE_LIST:
		typ := dtype.(*quiver.LargeListType)
		return NewLargeListBuilderWithField(mem, typ.ElemField())
	case quiver.RUN_END_ENCODED:
		typ := dtype.(*quiver.RunEndEncodedType)
		return NewRunEndEncodedBuilder(mem, typ.RunEnds(), typ.Encoded())
	}
	panic(fmt.Errorf("quiver/array: unsupported builder for %s", dtype.Name()))
}
