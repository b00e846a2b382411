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
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/memory"

	"github.com/goccy/go-json"
)

// binaryLike carries the shared layout of the variable-length binary
// layouts: a values buffer of raw bytes addressed by length+1 offsets of
// width O.
type binaryLike[O int32 | int64] struct {
	array
	valueOffsets []O
	valueBytes   []byte
}

func (a *binaryLike[O]) setData(data *Data) {
	if len(data.buffers) != 3 {
		panic("len(data.buffers) != 3")
	}
	a.array.setData(data)

	if vdata := data.buffers[2]; vdata != nil {
		a.valueBytes = vdata.Bytes()
	}
	if offsets := data.buffers[1]; offsets != nil {
		a.valueOffsets = quiver.GetData[O](offsets.Bytes())
	}

	if a.data.length < 1 {
		return
	}
	expNumOffsets := a.data.offset + a.data.length + 1
	if len(a.valueOffsets) < expNumOffsets {
		panic(fmt.Errorf("quiver/array: offsets buffer does not contain %d offsets", expNumOffsets))
	}
	if int(a.valueOffsets[expNumOffsets-1]) > len(a.valueBytes) {
		panic("quiver/array: offsets exceed the values buffer")
	}
}

// Value returns the slice at index i. This value should not be mutated.
func (a *binaryLike[O]) Value(i int) []byte {
	if i < 0 || i >= a.data.length {
		panic("quiver/array: index out of range")
	}
	idx := a.data.offset + i
	return a.valueBytes[a.valueOffsets[idx]:a.valueOffsets[idx+1]]
}

// ValueString returns the string at index i without performing additional allocations.
// The string is only valid for the lifetime of the array.
func (a *binaryLike[O]) ValueString(i int) string {
	return string(a.Value(i))
}

func (a *binaryLike[O]) ValueOffset(i int) int {
	if i < 0 || i > a.data.length {
		panic("quiver/array: index out of range")
	}
	return int(a.valueOffsets[a.data.offset+i])
}

func (a *binaryLike[O]) ValueOffset64(i int) int64 {
	return int64(a.ValueOffset(i))
}

func (a *binaryLike[O]) ValueLen(i int) int {
	if i < 0 || i >= a.data.length {
		panic("quiver/array: index out of range")
	}
	beg := a.data.offset + i
	return int(a.valueOffsets[beg+1] - a.valueOffsets[beg])
}

// ValueOffsets returns the offsets window of this array, including the
// trailing offset of the last element.
func (a *binaryLike[O]) ValueOffsets() []O {
	beg := a.data.offset
	end := beg + a.data.length + 1
	return a.valueOffsets[beg:end]
}

// ValueBytes returns the bytes covered by this array's offset window.
func (a *binaryLike[O]) ValueBytes() []byte {
	beg := a.data.offset
	end := beg + a.data.length
	return a.valueBytes[a.valueOffsets[beg]:a.valueOffsets[end]]
}

// Binary represents an immutable sequence of variable-length binary strings
// with 32-bit offsets.
type Binary struct {
	binaryLike[int32]
}

// NewBinaryData constructs a new Binary array from data.
func NewBinaryData(data quiver.ArrayData) *Binary {
	a := &Binary{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *Binary) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return base64.StdEncoding.EncodeToString(a.Value(i))
}

func (a *Binary) String() string {
	return binaryArrayString(a)
}

func (a *Binary) getOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.Value(i)
}

func (a *Binary) MarshalJSON() ([]byte, error) { return binaryArrayMarshalJSON(a) }

// LargeBinary represents an immutable sequence of variable-length binary
// strings with 64-bit offsets.
type LargeBinary struct {
	binaryLike[int64]
}

// NewLargeBinaryData constructs a new LargeBinary array from data.
func NewLargeBinaryData(data quiver.ArrayData) *LargeBinary {
	a := &LargeBinary{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *LargeBinary) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return base64.StdEncoding.EncodeToString(a.Value(i))
}

func (a *LargeBinary) String() string {
	return binaryArrayString(a)
}

func (a *LargeBinary) getOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.Value(i)
}

func (a *LargeBinary) MarshalJSON() ([]byte, error) { return binaryArrayMarshalJSON(a) }

// String represents an immutable sequence of variable-length UTF-8 strings
// with 32-bit offsets.
type String struct {
	binaryLike[int32]
}

// NewStringData constructs a new String array from data.
func NewStringData(data quiver.ArrayData) *String {
	a := &String{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// Value returns the slice at index i. This value should not be mutated.
func (a *String) Value(i int) string { return a.binaryLike.ValueString(i) }

func (a *String) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return a.Value(i)
}

func (a *String) String() string {
	return binaryArrayString(a)
}

func (a *String) getOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.Value(i)
}

func (a *String) MarshalJSON() ([]byte, error) { return binaryArrayMarshalJSON(a) }

// LargeString represents an immutable sequence of variable-length UTF-8
// strings with 64-bit offsets.
type LargeString struct {
	binaryLike[int64]
}

// NewLargeStringData constructs a new LargeString array from data.
func NewLargeStringData(data quiver.ArrayData) *LargeString {
	a := &LargeString{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// Value returns the slice at index i. This value should not be mutated.
func (a *LargeString) Value(i int) string { return a.binaryLike.ValueString(i) }

func (a *LargeString) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return a.Value(i)
}

func (a *LargeString) String() string {
	return binaryArrayString(a)
}

func (a *LargeString) getOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.Value(i)
}

func (a *LargeString) MarshalJSON() ([]byte, error) { return binaryArrayMarshalJSON(a) }

func binaryArrayString(a arraymarshal) string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		switch {
		case a.IsNull(i):
			o.WriteString(NullValueStr)
		default:
			fmt.Fprintf(o, "%q", a.ValueStr(i))
		}
	}
	o.WriteString("]")
	return o.String()
}

func binaryArrayMarshalJSON(a arraymarshal) ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// bufBuilder is the surface the BinaryBuilder needs from its offsets
// builder, independent of the offset width.
type bufBuilder interface {
	Retain()
	Release()
	Len() int
	Cap() int
	Bytes() []byte
	resize(int)
	Advance(int)
	SetLength(int)
	Append([]byte)
	Reset()
	Finish() *memory.Buffer
}

// BinaryBuilder builds the variable-length binary layouts: Binary, String,
// LargeBinary and LargeString, picking the offset width from the datatype it
// was constructed with.
type BinaryBuilder struct {
	builder

	dtype   quiver.BinaryDataType
	offsets bufBuilder
	values  *byteBufferBuilder

	appendOffsetVal func(int)
	getOffsetVal    func(int) int
	maxCapacity     uint64
	offsetByteWidth int
}

// NewBinaryBuilder returns a builder for the variable-length binary layout
// described by dtype.
func NewBinaryBuilder(mem memory.Allocator, dtype quiver.BinaryDataType) *BinaryBuilder {
	b := &BinaryBuilder{
		builder: builder{refCount: 1, mem: mem},
		dtype:   dtype,
		values:  newByteBufferBuilder(mem),
	}

	switch dtype.ID() {
	case quiver.LARGE_BINARY, quiver.LARGE_STRING:
		offsets := newNumericBufferBuilder[int64](mem)
		b.offsets = offsets
		b.appendOffsetVal = func(o int) { offsets.AppendValue(int64(o)) }
		b.getOffsetVal = func(i int) int { return int(offsets.Value(i)) }
		b.maxCapacity = math.MaxInt64
		b.offsetByteWidth = quiver.Int64SizeBytes
	default:
		offsets := newNumericBufferBuilder[int32](mem)
		b.offsets = offsets
		b.appendOffsetVal = func(o int) { offsets.AppendValue(int32(o)) }
		b.getOffsetVal = func(i int) int { return int(offsets.Value(i)) }
		b.maxCapacity = math.MaxInt32
		b.offsetByteWidth = quiver.Int32SizeBytes
	}

	return b
}

func (b *BinaryBuilder) Type() quiver.DataType { return b.dtype }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *BinaryBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.nullBitmap != nil {
			b.nullBitmap.Release()
			b.nullBitmap = nil
		}
		if b.offsets != nil {
			b.offsets.Release()
			b.offsets = nil
		}
		if b.values != nil {
			b.values.Release()
			b.values = nil
		}
	}
}

func (b *BinaryBuilder) Append(v []byte) {
	b.Reserve(1)
	b.appendNextOffset()
	b.values.Append(v)
	b.UnsafeAppendBoolToBitmap(true)
}

func (b *BinaryBuilder) AppendString(v string) {
	b.Append([]byte(v))
}

func (b *BinaryBuilder) AppendNull() {
	b.Reserve(1)
	b.appendNextOffset()
	b.UnsafeAppendBoolToBitmap(false)
}

func (b *BinaryBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *BinaryBuilder) AppendEmptyValue() {
	b.Reserve(1)
	b.appendNextOffset()
	b.UnsafeAppendBoolToBitmap(true)
}

func (b *BinaryBuilder) AppendEmptyValues(n int) {
	for i := 0; i < n; i++ {
		b.AppendEmptyValue()
	}
}

// AppendValues will append the values in the v slice. The valid slice determines which values
// in v are valid (not null). The valid slice must either be empty or be equal in length to v. If empty,
// all values in v are appended and considered valid.
func (b *BinaryBuilder) AppendValues(v [][]byte, valid []bool) {
	if len(v) != len(valid) && len(valid) != 0 {
		panic("len(v) != len(valid) && len(valid) != 0")
	}

	if len(v) == 0 {
		return
	}

	b.Reserve(len(v))
	for _, vv := range v {
		b.appendNextOffset()
		b.values.Append(vv)
	}

	b.builder.unsafeAppendBoolsToBitmap(valid, len(v))
}

// AppendStringValues will append the values in the v slice. The valid slice determines which values
// in v are valid (not null). The valid slice must either be empty or be equal in length to v. If empty,
// all values in v are appended and considered valid.
func (b *BinaryBuilder) AppendStringValues(v []string, valid []bool) {
	if len(v) != len(valid) && len(valid) != 0 {
		panic("len(v) != len(valid) && len(valid) != 0")
	}

	if len(v) == 0 {
		return
	}

	b.Reserve(len(v))
	for _, vv := range v {
		b.appendNextOffset()
		b.values.Append([]byte(vv))
	}

	b.builder.unsafeAppendBoolsToBitmap(valid, len(v))
}

func (b *BinaryBuilder) UnsafeAppend(v []byte) {
	b.appendNextOffset()
	b.values.unsafeAppend(v)
	b.UnsafeAppendBoolToBitmap(true)
}

// Value returns the i-th value appended so far.
func (b *BinaryBuilder) Value(i int) []byte {
	start := b.getOffsetVal(i)
	var end int
	if i == (b.length - 1) {
		end = b.values.Len()
	} else {
		end = b.getOffsetVal(i + 1)
	}
	return b.values.Bytes()[start:end]
}

// DataLen returns the number of bytes in the data array.
func (b *BinaryBuilder) DataLen() int { return b.values.length }

// DataCap returns the total number of bytes that can be stored
// without allocating additional memory.
func (b *BinaryBuilder) DataCap() int { return b.values.capacity }

func (b *BinaryBuilder) init(capacity int) {
	b.builder.init(capacity)
	b.offsets.resize((capacity + 1) * b.offsetByteWidth)
}

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *BinaryBuilder) Reserve(n int) {
	b.builder.reserve(n, b.Resize)
}

// ReserveData ensures there is enough space for appending n bytes
// by checking the capacity and resizing the data buffer if necessary.
func (b *BinaryBuilder) ReserveData(n int) {
	if b.values.capacity < b.values.length+n {
		b.values.resize(b.values.Len() + n)
	}
}

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may be reduced.
func (b *BinaryBuilder) Resize(n int) {
	b.offsets.resize((n + 1) * b.offsetByteWidth)
	if (n * b.offsetByteWidth) < b.offsets.Len() {
		b.offsets.SetLength(n * b.offsetByteWidth)
	}
	b.builder.resize(n, b.init)
}

// NewArray creates a new array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *BinaryBuilder) NewArray() quiver.Array {
	switch b.dtype.ID() {
	case quiver.STRING:
		return b.newStringArray()
	case quiver.LARGE_STRING:
		return b.newLargeStringArray()
	case quiver.LARGE_BINARY:
		return b.newLargeBinaryArray()
	default:
		return b.NewBinaryArray()
	}
}

// NewBinaryArray creates a Binary array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *BinaryBuilder) NewBinaryArray() (a *Binary) {
	data := b.newData()
	a = NewBinaryData(data)
	data.Release()
	return
}

// NewLargeBinaryArray creates a LargeBinary array from the memory buffers used by the
// builder and resets the builder so it can be used to build a new array.
func (b *BinaryBuilder) NewLargeBinaryArray() (a *LargeBinary) {
	return b.newLargeBinaryArray()
}

func (b *BinaryBuilder) newStringArray() (a *String) {
	data := b.newData()
	a = NewStringData(data)
	data.Release()
	return
}

func (b *BinaryBuilder) newLargeStringArray() (a *LargeString) {
	data := b.newData()
	a = NewLargeStringData(data)
	data.Release()
	return
}

func (b *BinaryBuilder) newLargeBinaryArray() (a *LargeBinary) {
	data := b.newData()
	a = NewLargeBinaryData(data)
	data.Release()
	return
}

func (b *BinaryBuilder) newData() (data *Data) {
	b.appendNextOffset()
	offsets, values := b.offsets.Finish(), b.values.Finish()
	data = NewData(b.dtype, b.length, []*memory.Buffer{b.nullBitmap, offsets, values}, nil, b.nulls, 0)
	if offsets != nil {
		offsets.Release()
	}
	if values != nil {
		values.Release()
	}

	b.builder.reset()

	return
}

func (b *BinaryBuilder) appendNextOffset() {
	numBytes := b.values.Len()
	debug.Assert(uint64(numBytes) <= b.maxCapacity, "exceeded maximum capacity of binary array")
	b.appendOffsetVal(numBytes)
}

// StringBuilder builds String arrays; it is a BinaryBuilder with a
// string-typed convenience surface.
type StringBuilder struct {
	*BinaryBuilder
}

// NewStringBuilder returns a builder, using the provided memory allocator.
func NewStringBuilder(mem memory.Allocator) *StringBuilder {
	return &StringBuilder{NewBinaryBuilder(mem, quiver.BinaryTypes.String)}
}

func (b *StringBuilder) Type() quiver.DataType { return quiver.BinaryTypes.String }

// Append appends a string to the builder.
func (b *StringBuilder) Append(v string) {
	b.BinaryBuilder.Append([]byte(v))
}

// AppendValues will append the values in the v slice. The valid slice determines which values
// in v are valid (not null). The valid slice must either be empty or be equal in length to v. If empty,
// all values in v are appended and considered valid.
func (b *StringBuilder) AppendValues(v []string, valid []bool) {
	b.BinaryBuilder.AppendStringValues(v, valid)
}

// Value returns the i-th value appended so far.
func (b *StringBuilder) Value(i int) string {
	return string(b.BinaryBuilder.Value(i))
}

// NewArray creates a String array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *StringBuilder) NewArray() quiver.Array {
	return b.NewStringArray()
}

// NewStringArray creates a String array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *StringBuilder) NewStringArray() (a *String) {
	data := b.newData()
	a = NewStringData(data)
	data.Release()
	return
}

// LargeStringBuilder builds LargeString arrays; it is a BinaryBuilder with a
// string-typed convenience surface and 64-bit offsets.
type LargeStringBuilder struct {
	*BinaryBuilder
}

// NewLargeStringBuilder returns a builder, using the provided memory allocator.
func NewLargeStringBuilder(mem memory.Allocator) *LargeStringBuilder {
	return &LargeStringBuilder{NewBinaryBuilder(mem, quiver.BinaryTypes.LargeString)}
}

func (b *LargeStringBuilder) Type() quiver.DataType { return quiver.BinaryTypes.LargeString }

// Append appends a string to the builder.
func (b *LargeStringBuilder) Append(v string) {
	b.BinaryBuilder.Append([]byte(v))
}

// AppendValues will append the values in the v slice. The valid slice determines which values
// in v are valid (not null). The valid slice must either be empty or be equal in length to v. If empty,
// all values in v are appended and considered valid.
func (b *LargeStringBuilder) AppendValues(v []string, valid []bool) {
	b.BinaryBuilder.AppendStringValues(v, valid)
}

// Value returns the i-th value appended so far.
func (b *LargeStringBuilder) Value(i int) string {
	return string(b.BinaryBuilder.Value(i))
}

// NewArray creates a LargeString array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *LargeStringBuilder) NewArray() quiver.Array {
	return b.NewLargeStringArray()
}

// NewLargeStringArray creates a LargeString array from the memory buffers used by the
// builder and resets the builder so it can be used to build a new array.
func (b *LargeStringBuilder) NewLargeStringArray() (a *LargeString) {
	data := b.newData()
	a = NewLargeStringData(data)
	data.Release()
	return
}

var (
	_ quiver.Array = (*Binary)(nil)
	_ quiver.Array = (*String)(nil)
	_ quiver.Array = (*LargeBinary)(nil)
	_ quiver.Array = (*LargeString)(nil)

	_ Builder = (*BinaryBuilder)(nil)
	_ Builder = (*StringBuilder)(nil)
	_ Builder = (*LargeStringBuilder)(nil)
)
