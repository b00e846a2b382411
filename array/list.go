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
	"math"
	"strings"
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/memory"

	"github.com/goccy/go-json"
)

// listLike carries the shared layout of the variable-length list layouts:
// a child values array addressed by length+1 offsets of width O.
type listLike[O int32 | int64] struct {
	array
	values  quiver.Array
	offsets []O
}

func (a *listLike[O]) setData(data *Data) {
	debug.Assert(len(data.buffers) >= 2, "list arrays must contain 2 buffers")
	a.array.setData(data)
	if offsets := data.buffers[1]; offsets != nil {
		a.offsets = quiver.GetData[O](offsets.Bytes())
	}
	a.values = MakeFromData(data.childData[0])
}

// ListValues returns the child array holding the list values.
func (a *listLike[O]) ListValues() quiver.Array { return a.values }

// Offsets returns the list offsets, including the trailing offset of the
// last element of this array's window.
func (a *listLike[O]) Offsets() []O {
	beg := a.data.offset
	end := beg + a.data.length + 1
	return a.offsets[beg:end]
}

// ValueOffsets returns the logical range of the child values making up
// element i.
func (a *listLike[O]) ValueOffsets(i int) (start, end int64) {
	debug.Assert(i >= 0 && i < a.data.length, "index out of range")
	j := a.data.offset + i
	start, end = int64(a.offsets[j]), int64(a.offsets[j+1])
	return
}

func (a *listLike[O]) newListValue(i int) quiver.Array {
	beg, end := a.ValueOffsets(i)
	return NewSlice(a.values, beg, end)
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *listLike[O]) Retain() {
	a.array.Retain()
	a.values.Retain()
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *listLike[O]) Release() {
	a.array.Release()
	a.values.Release()
}

func (a *listLike[O]) string() string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		if a.IsNull(i) {
			o.WriteString(NullValueStr)
			continue
		}
		sub := a.newListValue(i)
		fmt.Fprintf(o, "%v", sub)
		sub.Release()
	}
	o.WriteString("]")
	return o.String()
}

func (a *listLike[O]) valueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	sub := a.newListValue(i)
	defer sub.Release()
	return sub.String()
}

func (a *listLike[O]) getOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	slice := a.newListValue(i)
	defer slice.Release()
	v, err := json.Marshal(slice)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(v)
}

func (a *listLike[O]) marshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// List represents an immutable sequence of variable-length lists with
// 32-bit offsets.
type List struct {
	listLike[int32]
}

// NewListData returns a new List array value, from data.
func NewListData(data quiver.ArrayData) *List {
	a := &List{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *List) String() string               { return a.string() }
func (a *List) ValueStr(i int) string        { return a.valueStr(i) }
func (a *List) MarshalJSON() ([]byte, error) { return a.marshalJSON() }

// LargeList represents an immutable sequence of variable-length lists with
// 64-bit offsets.
type LargeList struct {
	listLike[int64]
}

// NewLargeListData returns a new LargeList array value, from data.
func NewLargeListData(data quiver.ArrayData) *LargeList {
	a := &LargeList{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *LargeList) String() string               { return a.string() }
func (a *LargeList) ValueStr(i int) string        { return a.valueStr(i) }
func (a *LargeList) MarshalJSON() ([]byte, error) { return a.marshalJSON() }

// FixedSizeList represents an immutable sequence of fixed-length lists; it
// has no offsets buffer, the child range of element i is implied by the
// list size.
type FixedSizeList struct {
	array
	n      int32
	values quiver.Array
}

// NewFixedSizeListData returns a new FixedSizeList array value, from data.
func NewFixedSizeListData(data quiver.ArrayData) *FixedSizeList {
	a := &FixedSizeList{}
	a.refCount = 1
	a.n = data.DataType().(*quiver.FixedSizeListType).Len()
	a.setData(data.(*Data))
	return a
}

func (a *FixedSizeList) ListValues() quiver.Array { return a.values }

func (a *FixedSizeList) newListValue(i int) quiver.Array {
	beg, end := a.ValueOffsets(i)
	return NewSlice(a.values, beg, end)
}

// ValueOffsets returns the logical range of the child values making up
// element i.
func (a *FixedSizeList) ValueOffsets(i int) (start, end int64) {
	debug.Assert(i >= 0 && i < a.data.length, "index out of range")
	n := int64(a.n)
	off := int64(a.data.offset)
	start, end = (off+int64(i))*n, (off+int64(i)+1)*n
	return
}

func (a *FixedSizeList) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	sub := a.newListValue(i)
	defer sub.Release()
	return sub.String()
}

func (a *FixedSizeList) String() string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		if a.IsNull(i) {
			o.WriteString(NullValueStr)
			continue
		}
		sub := a.newListValue(i)
		fmt.Fprintf(o, "%v", sub)
		sub.Release()
	}
	o.WriteString("]")
	return o.String()
}

func (a *FixedSizeList) setData(data *Data) {
	a.array.setData(data)
	a.values = MakeFromData(data.childData[0])
}

func (a *FixedSizeList) getOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	slice := a.newListValue(i)
	defer slice.Release()
	v, err := json.Marshal(slice)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(v)
}

func (a *FixedSizeList) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *FixedSizeList) Retain() {
	a.array.Retain()
	a.values.Retain()
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *FixedSizeList) Release() {
	a.array.Release()
	a.values.Release()
}

// baseListBuilder carries the shared builder machinery of List and
// LargeList: a child value builder plus an offsets buffer whose width is
// picked at construction.
type baseListBuilder struct {
	builder

	etype   quiver.DataType // data type of the list's elements.
	values  Builder         // value builder for the list's elements.
	offsets bufBuilder

	appendOffsetVal func(int)
	maxElems        uint64
	offsetByteWidth int

	dt quiver.DataType
}

// ListBuilder builds List arrays.
type ListBuilder struct {
	baseListBuilder
}

// LargeListBuilder builds LargeList arrays.
type LargeListBuilder struct {
	baseListBuilder
}

// NewListBuilder returns a builder, using the provided memory allocator.
// The created list builder will create a list whose elements will be of type etype.
func NewListBuilder(mem memory.Allocator, etype quiver.DataType) *ListBuilder {
	return NewListBuilderWithField(mem, quiver.Field{Name: "item", Type: etype, Nullable: true})
}

// NewListBuilderWithField takes a field to use for the child rather than just
// a datatype, allowing its metadata and nullability to be carried along.
func NewListBuilderWithField(mem memory.Allocator, field quiver.Field) *ListBuilder {
	offsets := newNumericBufferBuilder[int32](mem)
	return &ListBuilder{
		baseListBuilder{
			builder:         builder{refCount: 1, mem: mem},
			etype:           field.Type,
			values:          NewBuilder(mem, field.Type),
			offsets:         offsets,
			appendOffsetVal: func(o int) { offsets.AppendValue(int32(o)) },
			maxElems:        math.MaxInt32,
			offsetByteWidth: quiver.Int32SizeBytes,
			dt:              quiver.ListOfField(field),
		},
	}
}

// NewLargeListBuilder returns a builder, using the provided memory allocator.
// The created list builder will create a list whose elements will be of type etype.
func NewLargeListBuilder(mem memory.Allocator, etype quiver.DataType) *LargeListBuilder {
	return NewLargeListBuilderWithField(mem, quiver.Field{Name: "item", Type: etype, Nullable: true})
}

// NewLargeListBuilderWithField takes a field rather than just a datatype
// for the child, allowing its metadata and nullability to be carried along.
func NewLargeListBuilderWithField(mem memory.Allocator, field quiver.Field) *LargeListBuilder {
	offsets := newNumericBufferBuilder[int64](mem)
	return &LargeListBuilder{
		baseListBuilder{
			builder:         builder{refCount: 1, mem: mem},
			etype:           field.Type,
			values:          NewBuilder(mem, field.Type),
			offsets:         offsets,
			appendOffsetVal: func(o int) { offsets.AppendValue(int64(o)) },
			maxElems:        math.MaxInt64,
			offsetByteWidth: quiver.Int64SizeBytes,
			dt:              quiver.LargeListOfField(field),
		},
	}
}

func (b *baseListBuilder) Type() quiver.DataType { return b.dt }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *baseListBuilder) Release() {
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

func (b *baseListBuilder) appendNextOffset() {
	numValues := b.values.Len()
	debug.Assert(uint64(numValues) <= b.maxElems, "exceeded maximum capacity of list array")
	b.appendOffsetVal(numValues)
}

// Append starts a new list element. If v is false the element is null.
// The element's values are then appended to the ValueBuilder.
func (b *baseListBuilder) Append(v bool) {
	b.Reserve(1)
	b.UnsafeAppendBoolToBitmap(v)
	b.appendNextOffset()
}

// AppendNull starts a new null list element.
func (b *baseListBuilder) AppendNull() {
	b.Append(false)
}

func (b *baseListBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *baseListBuilder) AppendEmptyValue() {
	b.Append(true)
}

func (b *baseListBuilder) AppendEmptyValues(n int) {
	for i := 0; i < n; i++ {
		b.AppendEmptyValue()
	}
}

// ValueBuilder returns the builder the list elements are appended to.
func (b *baseListBuilder) ValueBuilder() Builder {
	return b.values
}

func (b *baseListBuilder) init(capacity int) {
	b.builder.init(capacity)
	b.offsets.resize((capacity + 1) * b.offsetByteWidth)
}

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *baseListBuilder) Reserve(n int) {
	b.builder.reserve(n, b.Resize)
}

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may be reduced.
func (b *baseListBuilder) Resize(n int) {
	b.offsets.resize((n + 1) * b.offsetByteWidth)
	if (n * b.offsetByteWidth) < b.offsets.Len() {
		b.offsets.SetLength(n * b.offsetByteWidth)
	}
	b.builder.resize(n, b.init)
}

func (b *baseListBuilder) newData() (data *Data) {
	b.appendNextOffset()

	values := b.values.NewArray()
	defer values.Release()

	offsets := b.offsets.Finish()
	data = NewData(b.dt,
		b.length,
		[]*memory.Buffer{
			b.nullBitmap,
			offsets,
		},
		[]quiver.ArrayData{values.Data()},
		b.nulls,
		0,
	)
	if offsets != nil {
		offsets.Release()
	}
	b.builder.reset()

	return
}

// NewArray creates a List array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *ListBuilder) NewArray() quiver.Array {
	return b.NewListArray()
}

// NewListArray creates a List array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *ListBuilder) NewListArray() (a *List) {
	data := b.newData()
	a = NewListData(data)
	data.Release()
	return
}

// NewArray creates a LargeList array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *LargeListBuilder) NewArray() quiver.Array {
	return b.NewLargeListArray()
}

// NewLargeListArray creates a LargeList array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *LargeListBuilder) NewLargeListArray() (a *LargeList) {
	data := b.newData()
	a = NewLargeListData(data)
	data.Release()
	return
}

// FixedSizeListBuilder builds FixedSizeList arrays. Each Append must be
// followed by exactly n appends to the value builder.
type FixedSizeListBuilder struct {
	builder

	n      int32
	dt     *quiver.FixedSizeListType
	values Builder
}

// NewFixedSizeListBuilder returns a builder, using the provided memory allocator.
// The created list builder will create a list whose elements will be of type etype.
func NewFixedSizeListBuilder(mem memory.Allocator, n int32, etype quiver.DataType) *FixedSizeListBuilder {
	return NewFixedSizeListBuilderWithField(mem, n, quiver.Field{Name: "item", Type: etype, Nullable: true})
}

// NewFixedSizeListBuilderWithField takes a field rather than just a datatype
// for the child, allowing its metadata and nullability to be carried along.
func NewFixedSizeListBuilderWithField(mem memory.Allocator, n int32, field quiver.Field) *FixedSizeListBuilder {
	return &FixedSizeListBuilder{
		builder: builder{refCount: 1, mem: mem},
		n:       n,
		dt:      quiver.FixedSizeListOfField(n, field),
		values:  NewBuilder(mem, field.Type),
	}
}

func (b *FixedSizeListBuilder) Type() quiver.DataType { return b.dt }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *FixedSizeListBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		if b.nullBitmap != nil {
			b.nullBitmap.Release()
			b.nullBitmap = nil
		}
		if b.values != nil {
			b.values.Release()
			b.values = nil
		}
	}
}

// Append starts a new list element. If v is false the element is null.
// The element's n values are then appended to the ValueBuilder.
func (b *FixedSizeListBuilder) Append(v bool) {
	b.Reserve(1)
	b.UnsafeAppendBoolToBitmap(v)
}

// AppendNull starts a new null list element and appends n nulls to the
// value builder so the child positions stay aligned.
func (b *FixedSizeListBuilder) AppendNull() {
	b.Reserve(1)
	b.UnsafeAppendBoolToBitmap(false)
	b.values.AppendNulls(int(b.n))
}

func (b *FixedSizeListBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *FixedSizeListBuilder) AppendEmptyValue() {
	b.Append(true)
	b.values.AppendEmptyValues(int(b.n))
}

func (b *FixedSizeListBuilder) AppendEmptyValues(n int) {
	for i := 0; i < n; i++ {
		b.AppendEmptyValue()
	}
}

// ValueBuilder returns the builder the list elements are appended to.
func (b *FixedSizeListBuilder) ValueBuilder() Builder {
	return b.values
}

func (b *FixedSizeListBuilder) init(capacity int) {
	b.builder.init(capacity)
}

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *FixedSizeListBuilder) Reserve(n int) {
	b.builder.reserve(n, b.Resize)
}

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may be reduced.
func (b *FixedSizeListBuilder) Resize(n int) {
	b.builder.resize(n, b.init)
}

func (b *FixedSizeListBuilder) newData() (data *Data) {
	values := b.values.NewArray()
	defer values.Release()

	data = NewData(b.dt,
		b.length,
		[]*memory.Buffer{b.nullBitmap},
		[]quiver.ArrayData{values.Data()},
		b.nulls,
		0,
	)
	b.builder.reset()

	return
}

// NewArray creates a FixedSizeList array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *FixedSizeListBuilder) NewArray() quiver.Array {
	return b.NewFixedSizeListArray()
}

// NewFixedSizeListArray creates a FixedSizeList array from the memory buffers used by
// the builder and resets the builder so it can be used to build a new array.
func (b *FixedSizeListBuilder) NewFixedSizeListArray() (a *FixedSizeList) {
	data := b.newData()
	a = NewFixedSizeListData(data)
	data.Release()
	return
}

var (
	_ quiver.Array = (*List)(nil)
	_ quiver.Array = (*LargeList)(nil)
	_ quiver.Array = (*FixedSizeList)(nil)

	_ Builder = (*ListBuilder)(nil)
	_ Builder = (*LargeListBuilder)(nil)
	_ Builder = (*FixedSizeListBuilder)(nil)
)
