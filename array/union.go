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
	"strings"
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/memory"

	"github.com/goccy/go-json"
)

// Union is a convenience interface to encompass both Sparse and Dense
// union array types.
type Union interface {
	quiver.Array
	// NumFields returns the number of child fields in this union.
	// Equivalent to len(UnionType().Fields())
	NumFields() int
	// TypeCodes returns the type id buffer for the union sliced to the
	// offset and length of this array.
	TypeCodes() []quiver.UnionTypeCode
	// TypeCode returns the logical type code of the value at the requested index
	TypeCode(i int) quiver.UnionTypeCode
	// ChildID returns the index of the child array containing the value
	// at the requested index.
	ChildID(i int) int
	// UnionType is a convenience function to retrieve the properly typed UnionType
	// instead of having to call DataType() and manually assert the type.
	UnionType() quiver.UnionType
	// Mode returns the union mode of the underlying data type of this array.
	Mode() quiver.UnionMode
	// Field returns the requested child array for this union. Returns nil if a
	// nonexistent position is passed in.
	Field(pos int) quiver.Array
}

type union struct {
	array

	unionType quiver.UnionType
	typecodes []quiver.UnionTypeCode

	children []quiver.Array
}

func (a *union) Mode() quiver.UnionMode { return a.unionType.Mode() }

func (a *union) UnionType() quiver.UnionType { return a.unionType }

func (a *union) NumFields() int { return a.unionType.NumFields() }

func (a *union) TypeCodes() []quiver.UnionTypeCode {
	return a.typecodes[a.data.offset : a.data.offset+a.data.length]
}

func (a *union) TypeCode(i int) quiver.UnionTypeCode {
	return a.typecodes[i+a.data.offset]
}

func (a *union) ChildID(i int) int {
	return a.unionType.ChildIDs()[a.typecodes[i+a.data.offset]]
}

func (a *union) setData(data *Data) {
	a.array.setData(data)
	a.unionType = data.dtype.(quiver.UnionType)
	debug.Assert(len(data.buffers) >= 2, "quiver/array: invalid number of union array buffers")

	if data.length > 0 {
		a.typecodes = quiver.GetData[int8](data.buffers[1].Bytes())
	} else {
		a.typecodes = []int8{}
	}
	a.children = make([]quiver.Array, len(data.childData))
	for i, child := range data.childData {
		a.children[i] = MakeFromData(child)
	}
}

func (a *union) Field(pos int) quiver.Array {
	if pos < 0 || pos >= len(a.children) {
		return nil
	}
	return a.children[pos]
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *union) Retain() {
	a.array.Retain()
	for _, c := range a.children {
		c.Retain()
	}
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *union) Release() {
	a.array.Release()
	for _, c := range a.children {
		c.Release()
	}
}

// SparseUnion represents an array where each logical value is taken from a
// single child; each child array has the same length as the union itself.
type SparseUnion struct {
	union
}

// NewSparseUnionData constructs a SparseUnion array from the given ArrayData object.
func NewSparseUnionData(data quiver.ArrayData) *SparseUnion {
	a := &SparseUnion{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *SparseUnion) setData(data *Data) {
	a.union.setData(data)
	debug.Assert(a.data.dtype.ID() == quiver.SPARSE_UNION, "quiver/array: invalid data type for SparseUnion")
	debug.Assert(len(a.data.buffers) == 2, "quiver/array: sparse unions should have exactly 2 buffers")
	debug.Assert(a.data.buffers[0] == nil, "quiver/array: validity bitmap for sparse unions should be nil")
}

func (a *SparseUnion) getOneForMarshal(i int) interface{} {
	childID := a.ChildID(i)
	data := a.Field(childID)

	if data.IsNull(i + a.data.offset) {
		return nil
	}

	return []interface{}{a.TypeCode(i), data.(arraymarshal).getOneForMarshal(i + a.data.offset)}
}

func (a *SparseUnion) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

func (a *SparseUnion) ValueStr(i int) string {
	child := a.Field(a.ChildID(i))
	if child.IsNull(i + a.data.offset) {
		return NullValueStr
	}
	return child.ValueStr(i + a.data.offset)
}

func (a *SparseUnion) String() string {
	o := new(strings.Builder)
	o.WriteString("[")
	fields := a.unionType.Fields()
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		fmt.Fprintf(o, "{%s=%v}", fields[a.ChildID(i)].Name, a.ValueStr(i))
	}
	o.WriteString("]")
	return o.String()
}

// DenseUnion represents an array where each logical value is taken from a
// single child, and an int32 offsets buffer locates the value within that
// child, so the children may have independent lengths.
type DenseUnion struct {
	union
	offsets []int32
}

// NewDenseUnionData constructs a DenseUnion array from the given ArrayData object.
func NewDenseUnionData(data quiver.ArrayData) *DenseUnion {
	a := &DenseUnion{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (a *DenseUnion) setData(data *Data) {
	a.union.setData(data)
	debug.Assert(a.data.dtype.ID() == quiver.DENSE_UNION, "quiver/array: invalid data type for DenseUnion")
	debug.Assert(len(a.data.buffers) == 3, "quiver/array: dense unions should have exactly 3 buffers")
	debug.Assert(a.data.buffers[0] == nil, "quiver/array: validity bitmap for dense unions should be nil")

	if data.length > 0 {
		a.offsets = quiver.GetData[int32](data.buffers[2].Bytes())
	} else {
		a.offsets = []int32{}
	}
}

// ValueOffsets returns the offsets buffer sliced to this array's window.
func (a *DenseUnion) ValueOffsets() []int32 {
	return a.offsets[a.data.offset : a.data.offset+a.data.length]
}

// ValueOffset returns the offset into the child array holding element i.
func (a *DenseUnion) ValueOffset(i int) int32 { return a.offsets[i+a.data.offset] }

func (a *DenseUnion) getOneForMarshal(i int) interface{} {
	childID := a.ChildID(i)
	data := a.Field(childID)

	offset := int(a.ValueOffset(i))
	if data.IsNull(offset) {
		return nil
	}

	return []interface{}{a.TypeCode(i), data.(arraymarshal).getOneForMarshal(offset)}
}

func (a *DenseUnion) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

func (a *DenseUnion) ValueStr(i int) string {
	child := a.Field(a.ChildID(i))
	offset := int(a.ValueOffset(i))
	if child.IsNull(offset) {
		return NullValueStr
	}
	return child.ValueStr(offset)
}

func (a *DenseUnion) String() string {
	o := new(strings.Builder)
	o.WriteString("[")
	fields := a.unionType.Fields()
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		fmt.Fprintf(o, "{%s=%v}", fields[a.ChildID(i)].Name, a.ValueStr(i))
	}
	o.WriteString("]")
	return o.String()
}

// UnionBuilder is a convenience interface for building either kind of union
// array.
type UnionBuilder interface {
	Builder
	// Mode returns what kind of union is being built, either SparseMode or DenseMode.
	Mode() quiver.UnionMode
	// Child returns the builder for the requested child index.
	Child(idx int) Builder
	// Append appends an element to the union array. The type code picks the
	// child the value will be appended to.
	Append(quiver.UnionTypeCode)
}

type unionBuilder struct {
	builder

	unionType    quiver.UnionType
	children     []Builder
	typeIDtoChildID [int(quiver.MaxUnionTypeCode) + 1]int

	typesBuilder *numericBufferBuilder[int8]
}

func newUnionBuilder(mem memory.Allocator, typ quiver.UnionType) unionBuilder {
	b := unionBuilder{
		builder:      builder{refCount: 1, mem: mem},
		unionType:    typ,
		children:     make([]Builder, typ.NumFields()),
		typesBuilder: newNumericBufferBuilder[int8](mem),
	}
	for i := range b.typeIDtoChildID {
		b.typeIDtoChildID[i] = -1
	}
	for i, tc := range typ.TypeCodes() {
		b.typeIDtoChildID[tc] = i
	}
	for i, f := range typ.Fields() {
		b.children[i] = NewBuilder(mem, f.Type)
	}
	return b
}

func (b *unionBuilder) Type() quiver.DataType { return b.unionType }

func (b *unionBuilder) Mode() quiver.UnionMode { return b.unionType.Mode() }

// Child returns the builder for the requested child index.
func (b *unionBuilder) Child(idx int) Builder {
	if idx < 0 || idx >= len(b.children) {
		panic("quiver/array: invalid child index")
	}
	return b.children[idx]
}

// childBuilder returns the child builder owning values of the given type code.
func (b *unionBuilder) childBuilder(code quiver.UnionTypeCode) Builder {
	id := b.typeIDtoChildID[code]
	if id < 0 {
		panic(fmt.Errorf("quiver/array: invalid union type code %d", code))
	}
	return b.children[id]
}

// Len returns the number of elements in the array builder.
func (b *unionBuilder) Len() int { return b.typesBuilder.Len() }

// NullN for unions is always 0; nulls live in the children.
func (b *unionBuilder) NullN() int { return 0 }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *unionBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		for _, c := range b.children {
			c.Release()
		}
		b.typesBuilder.Release()
	}
}

func (b *unionBuilder) init(capacity int)               {}
func (b *unionBuilder) resize(newBits int, _ func(int)) {}

// Reserve is a no-op for unions; the type id buffer grows on append and
// the children manage their own capacity.
func (b *unionBuilder) Reserve(n int) {}

func (b *unionBuilder) Resize(n int) {}

// SparseUnionBuilder builds SparseUnion arrays. After each Append the caller
// appends one value to the child matching the type code and an empty or null
// value to every other child, keeping all children the same length as the
// union.
type SparseUnionBuilder struct {
	unionBuilder
}

// NewSparseUnionBuilder returns a builder for the given sparse union type,
// using the provided memory allocator.
func NewSparseUnionBuilder(mem memory.Allocator, typ *quiver.SparseUnionType) *SparseUnionBuilder {
	return &SparseUnionBuilder{unionBuilder: newUnionBuilder(mem, typ)}
}

// Append appends an element with the given type code. The caller must then
// append a value to the corresponding child and an empty or null value to
// every other child.
func (b *SparseUnionBuilder) Append(code quiver.UnionTypeCode) {
	debug.Assert(b.typeIDtoChildID[code] >= 0, "invalid union type code")
	b.typesBuilder.AppendValue(code)
	b.length++
}

// AppendNull appends a null element: the first child receives a null and
// every other child an empty value.
func (b *SparseUnionBuilder) AppendNull() {
	firstCode := b.unionType.TypeCodes()[0]
	b.Append(firstCode)
	for i, c := range b.children {
		if i == b.typeIDtoChildID[firstCode] {
			c.AppendNull()
		} else {
			c.AppendEmptyValue()
		}
	}
}

func (b *SparseUnionBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *SparseUnionBuilder) AppendEmptyValue() {
	b.Append(b.unionType.TypeCodes()[0])
	for _, c := range b.children {
		c.AppendEmptyValue()
	}
}

func (b *SparseUnionBuilder) AppendEmptyValues(n int) {
	for i := 0; i < n; i++ {
		b.AppendEmptyValue()
	}
}

// NewArray creates a SparseUnion array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *SparseUnionBuilder) NewArray() quiver.Array {
	return b.NewSparseUnionArray()
}

// NewSparseUnionArray creates a SparseUnion array from the memory buffers used by
// the builder and resets the builder so it can be used to build a new array.
func (b *SparseUnionBuilder) NewSparseUnionArray() (a *SparseUnion) {
	data := b.newData()
	a = NewSparseUnionData(data)
	data.Release()
	return
}

func (b *SparseUnionBuilder) newData() (data *Data) {
	for _, c := range b.children {
		debug.Assert(c.Len() == b.length, "sparse union children must equal the union length")
	}

	children := make([]quiver.ArrayData, len(b.children))
	for i, c := range b.children {
		arr := c.NewArray()
		defer arr.Release()
		children[i] = arr.Data()
	}

	typesBuf := b.typesBuilder.Finish()
	data = NewData(b.unionType, b.length,
		[]*memory.Buffer{nil, typesBuf},
		children, 0, 0)
	if typesBuf != nil {
		typesBuf.Release()
	}
	b.length = 0

	return
}

// DenseUnionBuilder builds DenseUnion arrays. After each Append the caller
// appends one value to the child matching the type code; the other children
// are left alone.
type DenseUnionBuilder struct {
	unionBuilder

	offsetsBuilder *numericBufferBuilder[int32]
}

// NewDenseUnionBuilder returns a builder for the given dense union type,
// using the provided memory allocator.
func NewDenseUnionBuilder(mem memory.Allocator, typ *quiver.DenseUnionType) *DenseUnionBuilder {
	return &DenseUnionBuilder{
		unionBuilder:   newUnionBuilder(mem, typ),
		offsetsBuilder: newNumericBufferBuilder[int32](mem),
	}
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *DenseUnionBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		for _, c := range b.children {
			c.Release()
		}
		b.typesBuilder.Release()
		b.offsetsBuilder.Release()
	}
}

// Append appends an element with the given type code and records the offset
// of the next value of the corresponding child. The caller must then append
// exactly one value to that child.
func (b *DenseUnionBuilder) Append(code quiver.UnionTypeCode) {
	child := b.childBuilder(code)
	b.typesBuilder.AppendValue(code)
	b.offsetsBuilder.AppendValue(int32(child.Len()))
	b.length++
}

// AppendNull appends a null element, storing it as a null in the first child.
func (b *DenseUnionBuilder) AppendNull() {
	firstCode := b.unionType.TypeCodes()[0]
	b.Append(firstCode)
	b.childBuilder(firstCode).AppendNull()
}

func (b *DenseUnionBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *DenseUnionBuilder) AppendEmptyValue() {
	firstCode := b.unionType.TypeCodes()[0]
	b.Append(firstCode)
	b.childBuilder(firstCode).AppendEmptyValue()
}

func (b *DenseUnionBuilder) AppendEmptyValues(n int) {
	for i := 0; i < n; i++ {
		b.AppendEmptyValue()
	}
}

// NewArray creates a DenseUnion array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *DenseUnionBuilder) NewArray() quiver.Array {
	return b.NewDenseUnionArray()
}

// NewDenseUnionArray creates a DenseUnion array from the memory buffers used by
// the builder and resets the builder so it can be used to build a new array.
func (b *DenseUnionBuilder) NewDenseUnionArray() (a *DenseUnion) {
	data := b.newData()
	a = NewDenseUnionData(data)
	data.Release()
	return
}

func (b *DenseUnionBuilder) newData() (data *Data) {
	children := make([]quiver.ArrayData, len(b.children))
	for i, c := range b.children {
		arr := c.NewArray()
		defer arr.Release()
		children[i] = arr.Data()
	}

	typesBuf := b.typesBuilder.Finish()
	offsetsBuf := b.offsetsBuilder.Finish()
	data = NewData(b.unionType, b.length,
		[]*memory.Buffer{nil, typesBuf, offsetsBuf},
		children, 0, 0)
	if typesBuf != nil {
		typesBuf.Release()
	}
	if offsetsBuf != nil {
		offsetsBuf.Release()
	}
	b.length = 0

	return
}

var (
	_ Union = (*SparseUnion)(nil)
	_ Union = (*DenseUnion)(nil)

	_ UnionBuilder = (*SparseUnionBuilder)(nil)
	_ UnionBuilder = (*DenseUnionBuilder)(nil)
)
