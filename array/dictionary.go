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
	"fmt"
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/memory"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// Dictionary represents the type for dictionary-encoded data with a data
// dependent dictionary.
//
// A dictionary array contains an array of non-negative integers (the
// "dictionary indices") along with a data type containing a "dictionary"
// corresponding to the distinct values represented in the data.
//
// For example, the array:
//
//	["foo", "bar", "foo", "bar", "foo", "bar"]
//
// with dictionary ["bar", "foo"], would have the representation of:
//
//	indices: [1, 0, 1, 0, 1, 0]
//	dictionary: ["bar", "foo"]
type Dictionary struct {
	array

	dictType *quiver.DictionaryType
	indices  quiver.Array
	dict     quiver.Array
}

// NewDictionaryData creates a strongly typed Dictionary array from
// an ArrayData object with a datatype of quiver.Dictionary and a dictionary.
func NewDictionaryData(data quiver.ArrayData) *Dictionary {
	a := &Dictionary{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// NewDictionaryArray constructs a dictionary array with the provided indices
// and dictionary using the given type.
func NewDictionaryArray(typ quiver.DataType, indices, dict quiver.Array) *Dictionary {
	a := &Dictionary{}
	a.refCount = 1
	dictdata := NewData(typ, indices.Len(), indices.Data().Buffers(), indices.Data().Children(),
		indices.NullN(), indices.Data().Offset())
	dictdata.dictionary = dict.Data().(*Data)
	dict.Data().Retain()

	defer dictdata.Release()
	a.setData(dictdata)
	return a
}

func (d *Dictionary) setData(data *Data) {
	d.array.setData(data)

	dictType, ok := data.dtype.(*quiver.DictionaryType)
	if !ok {
		panic("quiver/array: invalid datatype for Dictionary")
	}
	d.dictType = dictType

	if data.dictionary == nil {
		if data.length > 0 {
			panic("quiver/array: dictionary set to nil on non-empty array")
		}
	} else {
		debug.Assert(quiver.TypeEqual(data.dictionary.DataType(), dictType.ValueType), "mismatched dictionary value types")
		d.dict = MakeFromData(data.dictionary)
	}

	// a dictionary array is the underlying index array wrapped with a lookup
	// into the dictionary values.
	indexData := NewData(dictType.IndexType, data.length, data.buffers, data.childData, data.nulls, data.offset)
	defer indexData.Release()
	d.indices = MakeFromData(indexData)
}

// Dictionary returns the values array that makes up the dictionary for this array.
func (d *Dictionary) Dictionary() quiver.Array { return d.dict }

// Indices returns the underlying array of indices as it's own array.
func (d *Dictionary) Indices() quiver.Array { return d.indices }

// GetValueIndex returns the dictionary index for the value at index i of the array.
// The actual value can be retrieved by using d.Dictionary().(valuetype).Value(d.GetValueIndex(i))
func (d *Dictionary) GetValueIndex(i int) int {
	switch idx := d.indices.(type) {
	case *Numeric[int8]:
		return int(idx.Value(i))
	case *Numeric[uint8]:
		return int(idx.Value(i))
	case *Numeric[int16]:
		return int(idx.Value(i))
	case *Numeric[uint16]:
		return int(idx.Value(i))
	case *Numeric[int32]:
		return int(idx.Value(i))
	case *Numeric[uint32]:
		return int(idx.Value(i))
	case *Numeric[int64]:
		return int(idx.Value(i))
	case *Numeric[uint64]:
		return int(idx.Value(i))
	}
	panic("quiver/array: dictionary indices must be an integer type")
}

func (d *Dictionary) ValueStr(i int) string {
	if d.IsNull(i) {
		return NullValueStr
	}
	return d.dict.ValueStr(d.GetValueIndex(i))
}

func (d *Dictionary) String() string {
	return fmt.Sprintf("{ dictionary: %v\n  indices: %v }", d.Dictionary(), d.Indices())
}

func (d *Dictionary) getOneForMarshal(i int) interface{} {
	if d.IsNull(i) {
		return nil
	}
	return d.dict.(arraymarshal).getOneForMarshal(d.GetValueIndex(i))
}

func (d *Dictionary) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, d.Len())
	for i := range vals {
		vals[i] = d.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (d *Dictionary) Retain() {
	a := &d.array
	a.Retain()
	d.indices.Retain()
	if d.dict != nil {
		d.dict.Retain()
	}
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (d *Dictionary) Release() {
	a := &d.array
	a.Release()
	d.indices.Release()
	if d.dict != nil {
		d.dict.Release()
	}
}

// binaryMemo is a hash table from byte strings to dense dictionary indices.
// Values hash with xxh3; buckets hold candidate indices to resolve hash
// collisions by comparing the stored bytes.
type binaryMemo struct {
	buckets map[uint64][]int
	values  [][]byte
}

func newBinaryMemo() *binaryMemo {
	return &binaryMemo{buckets: make(map[uint64][]int)}
}

func (m *binaryMemo) Len() int { return len(m.values) }

// GetOrInsert returns the dense index of v, inserting it if not present.
func (m *binaryMemo) GetOrInsert(v []byte) (idx int, found bool) {
	h := xxh3.Hash(v)
	for _, cand := range m.buckets[h] {
		if bytes.Equal(m.values[cand], v) {
			return cand, true
		}
	}
	idx = len(m.values)
	m.values = append(m.values, append([]byte(nil), v...))
	m.buckets[h] = append(m.buckets[h], idx)
	return idx, false
}

// dictionaryBuilder is the common machinery of the dictionary builders:
// an index builder plus the datatype bookkeeping. The concrete builders own
// the memo table for their value kind.
type dictionaryBuilder struct {
	builder

	dt         *quiver.DictionaryType
	idxBuilder Builder
}

func newDictionaryBuilder(mem memory.Allocator, dt *quiver.DictionaryType) dictionaryBuilder {
	if !quiver.IsInteger(dt.IndexType.ID()) {
		panic(fmt.Errorf("%w: dictionary index type must be integral, got %s", quiver.ErrInvalid, dt.IndexType))
	}
	return dictionaryBuilder{
		builder:    builder{refCount: 1, mem: mem},
		dt:         dt,
		idxBuilder: NewBuilder(mem, dt.IndexType),
	}
}

// NewDictionaryBuilder returns a builder for the given dictionary type,
// dispatching on the value type.
func NewDictionaryBuilder(mem memory.Allocator, dt *quiver.DictionaryType) Builder {
	switch dt.ValueType.ID() {
	case quiver.INT8:
		return NewNumericDictionaryBuilder[int8](mem, dt)
	case quiver.UINT8:
		return NewNumericDictionaryBuilder[uint8](mem, dt)
	case quiver.INT16:
		return NewNumericDictionaryBuilder[int16](mem, dt)
	case quiver.UINT16:
		return NewNumericDictionaryBuilder[uint16](mem, dt)
	case quiver.INT32:
		return NewNumericDictionaryBuilder[int32](mem, dt)
	case quiver.UINT32:
		return NewNumericDictionaryBuilder[uint32](mem, dt)
	case quiver.INT64:
		return NewNumericDictionaryBuilder[int64](mem, dt)
	case quiver.UINT64:
		return NewNumericDictionaryBuilder[uint64](mem, dt)
	case quiver.FLOAT32:
		return NewNumericDictionaryBuilder[float32](mem, dt)
	case quiver.FLOAT64:
		return NewNumericDictionaryBuilder[float64](mem, dt)
	case quiver.STRING, quiver.BINARY, quiver.LARGE_STRING, quiver.LARGE_BINARY, quiver.FIXED_SIZE_BINARY:
		return NewBinaryDictionaryBuilder(mem, dt)
	}
	panic(fmt.Errorf("quiver/array: unsupported dictionary value type %s", dt.ValueType.Name()))
}

func (b *dictionaryBuilder) Type() quiver.DataType { return b.dt }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *dictionaryBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		b.idxBuilder.Release()
	}
}

func (b *dictionaryBuilder) Len() int   { return b.idxBuilder.Len() }
func (b *dictionaryBuilder) Cap() int   { return b.idxBuilder.Cap() }
func (b *dictionaryBuilder) NullN() int { return b.idxBuilder.NullN() }

func (b *dictionaryBuilder) AppendNull() { b.idxBuilder.AppendNull() }

func (b *dictionaryBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *dictionaryBuilder) AppendEmptyValue() { b.AppendNull() }

func (b *dictionaryBuilder) AppendEmptyValues(n int) { b.AppendNulls(n) }

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *dictionaryBuilder) Reserve(n int) { b.idxBuilder.Reserve(n) }

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may be reduced.
func (b *dictionaryBuilder) Resize(n int) { b.idxBuilder.Resize(n) }

func (b *dictionaryBuilder) init(capacity int)               { b.idxBuilder.init(capacity) }
func (b *dictionaryBuilder) resize(newBits int, f func(int)) { b.idxBuilder.resize(newBits, f) }

// appendIndex appends the dense dictionary index to the index builder.
func (b *dictionaryBuilder) appendIndex(idx int) {
	switch bldr := b.idxBuilder.(type) {
	case *NumericBuilder[int8]:
		bldr.Append(int8(idx))
	case *NumericBuilder[uint8]:
		bldr.Append(uint8(idx))
	case *NumericBuilder[int16]:
		bldr.Append(int16(idx))
	case *NumericBuilder[uint16]:
		bldr.Append(uint16(idx))
	case *NumericBuilder[int32]:
		bldr.Append(int32(idx))
	case *NumericBuilder[uint32]:
		bldr.Append(uint32(idx))
	case *NumericBuilder[int64]:
		bldr.Append(int64(idx))
	case *NumericBuilder[uint64]:
		bldr.Append(uint64(idx))
	default:
		panic("quiver/array: dictionary index type must be integral")
	}
}

// newWithDictionary assembles the dictionary-encoded Data from the built
// indices and the dictionary values array.
func (b *dictionaryBuilder) newWithDictionary(dict quiver.Array) (a *Dictionary) {
	idx := b.idxBuilder.NewArray()
	defer idx.Release()

	idxData := idx.Data().(*Data)
	data := NewDataWithDictionary(b.dt, idxData.length, idxData.buffers, idxData.nulls, idxData.offset, dict.Data().(*Data))
	defer data.Release()

	a = NewDictionaryData(data)
	return
}

// BinaryDictionaryBuilder builds dictionary arrays whose values are
// variable-length or fixed-size binary (or UTF-8 string) data.
type BinaryDictionaryBuilder struct {
	dictionaryBuilder
	memo *binaryMemo
}

// NewBinaryDictionaryBuilder returns a builder, using the provided memory allocator.
func NewBinaryDictionaryBuilder(mem memory.Allocator, dt *quiver.DictionaryType) *BinaryDictionaryBuilder {
	return &BinaryDictionaryBuilder{
		dictionaryBuilder: newDictionaryBuilder(mem, dt),
		memo:              newBinaryMemo(),
	}
}

// Append appends the value v, inserting it in the dictionary if it is not
// already present.
func (b *BinaryDictionaryBuilder) Append(v []byte) error {
	if fsb, ok := b.dt.ValueType.(*quiver.FixedSizeBinaryType); ok && len(v) != fsb.ByteWidth {
		return fmt.Errorf("%w: invalid binary length %d for fixed_size_binary[%d] dictionary",
			quiver.ErrInvalid, len(v), fsb.ByteWidth)
	}
	idx, _ := b.memo.GetOrInsert(v)
	b.appendIndex(idx)
	return nil
}

// AppendString appends the string value v.
func (b *BinaryDictionaryBuilder) AppendString(v string) error {
	return b.Append([]byte(v))
}

// DictionarySize returns the current number of unique values in the dictionary.
func (b *BinaryDictionaryBuilder) DictionarySize() int { return b.memo.Len() }

// NewArray creates a Dictionary array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *BinaryDictionaryBuilder) NewArray() quiver.Array {
	return b.NewDictionaryArray()
}

// NewDictionaryArray creates a Dictionary array from the memory buffers used by
// the builder and resets the builder so it can be used to build a new array.
func (b *BinaryDictionaryBuilder) NewDictionaryArray() (a *Dictionary) {
	dict := b.newDictValues()
	defer dict.Release()
	a = b.newWithDictionary(dict)
	b.memo = newBinaryMemo()
	return
}

func (b *BinaryDictionaryBuilder) newDictValues() quiver.Array {
	switch dt := b.dt.ValueType.(type) {
	case *quiver.FixedSizeBinaryType:
		bldr := NewFixedSizeBinaryBuilder(b.mem, dt)
		defer bldr.Release()
		for _, v := range b.memo.values {
			bldr.Append(v)
		}
		return bldr.NewArray()
	default:
		bldr := NewBinaryBuilder(b.mem, b.dt.ValueType.(quiver.BinaryDataType))
		defer bldr.Release()
		for _, v := range b.memo.values {
			bldr.Append(v)
		}
		return bldr.NewArray()
	}
}

// NumericDictionaryBuilder builds dictionary arrays whose values are
// fixed-width primitives of type T.
type NumericDictionaryBuilder[T quiver.FixedWidthType] struct {
	dictionaryBuilder
	memo *binaryMemo
}

// NewNumericDictionaryBuilder returns a builder, using the provided memory allocator.
func NewNumericDictionaryBuilder[T quiver.FixedWidthType](mem memory.Allocator, dt *quiver.DictionaryType) *NumericDictionaryBuilder[T] {
	debug.Assert(dt.ValueType.(quiver.FixedWidthDataType).Bytes() == quiver.NumericTraits[T]{}.BytesRequired(1),
		"numeric dictionary builder width mismatch")
	return &NumericDictionaryBuilder[T]{
		dictionaryBuilder: newDictionaryBuilder(mem, dt),
		memo:              newBinaryMemo(),
	}
}

// Append appends the value v, inserting it in the dictionary if it is not
// already present.
func (b *NumericDictionaryBuilder[T]) Append(v T) error {
	idx, _ := b.memo.GetOrInsert(quiver.GetBytes([]T{v}))
	b.appendIndex(idx)
	return nil
}

// DictionarySize returns the current number of unique values in the dictionary.
func (b *NumericDictionaryBuilder[T]) DictionarySize() int { return b.memo.Len() }

// NewArray creates a Dictionary array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *NumericDictionaryBuilder[T]) NewArray() quiver.Array {
	return b.NewDictionaryArray()
}

// NewDictionaryArray creates a Dictionary array from the memory buffers used by
// the builder and resets the builder so it can be used to build a new array.
func (b *NumericDictionaryBuilder[T]) NewDictionaryArray() (a *Dictionary) {
	bldr := NewNumericBuilder[T](b.mem, b.dt.ValueType)
	defer bldr.Release()
	for _, v := range b.memo.values {
		bldr.Append(quiver.GetData[T](v)[0])
	}
	dict := bldr.NewArray()
	defer dict.Release()

	a = b.newWithDictionary(dict)
	b.memo = newBinaryMemo()
	return
}

var (
	_ quiver.Array = (*Dictionary)(nil)

	_ Builder = (*BinaryDictionaryBuilder)(nil)
	_ Builder = (*NumericDictionaryBuilder[int32])(nil)
)
