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
	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/memory"
)

// Map represents an immutable sequence of key/value lists. Physically it is
// a List whose child is a struct<key, value>.
type Map struct {
	List
	keys, items quiver.Array
}

// NewMapData returns a new Map array value, from data.
func NewMapData(data quiver.ArrayData) *Map {
	a := &Map{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// KeysSorted checks the datatype that was used to construct this array and
// returns the KeysSorted boolean value used to denote if the key array is
// sorted for each list element.
//
// Important note: Nothing is enforced regarding the KeysSorted value, it is
// solely a metadata field that should be set if keys within each value are
// sorted. This value is not used at all in regards to comparisons / equality.
func (a *Map) KeysSorted() bool { return a.DataType().(*quiver.MapType).KeysSorted }

func (a *Map) setData(data *Data) {
	a.List.setData(data)
	a.keys = a.ListValues().(*Struct).Field(0)
	a.items = a.ListValues().(*Struct).Field(1)
}

// Keys returns the full Array of Key values, equivalent to grabbing
// the key field of the child struct.
func (a *Map) Keys() quiver.Array { return a.keys }

// Items returns the full Array of Item values, equivalent to grabbing
// the Value field (the second field) of the child struct.
func (a *Map) Items() quiver.Array { return a.items }

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *Map) Retain() {
	a.List.Retain()
	a.keys.Retain()
	a.items.Retain()
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *Map) Release() {
	a.List.Release()
	a.keys.Release()
	a.items.Release()
}

// MapBuilder builds Map arrays: each Append is followed by appending the
// element's pairs to the key and item builders in step.
type MapBuilder struct {
	listBuilder *ListBuilder

	etype                   *quiver.MapType
	keyBuilder, itemBuilder Builder
	keytype                 quiver.DataType
	itemtype                quiver.DataType
	keysSorted              bool
}

// NewMapBuilder returns a builder, using the provided memory allocator.
// The created Map builder will create a map array whose keys will be a non-nullable
// array of type `keytype` and whose mapped items will be a nullable array of itemtype.
//
// KeysSorted is not enforced at all by the builder, it should only be set to true
// building using keys in sorted order for each value. The KeysSorted value will just be
// used when creating the DataType for the map.
func NewMapBuilder(mem memory.Allocator, keytype, itemtype quiver.DataType, keysSorted bool) *MapBuilder {
	etype := quiver.MapOf(keytype, itemtype)
	etype.KeysSorted = keysSorted
	return NewMapBuilderWithType(mem, etype)
}

// NewMapBuilderWithType returns a builder with the given Map type.
func NewMapBuilderWithType(mem memory.Allocator, t *quiver.MapType) *MapBuilder {
	listBuilder := NewListBuilderWithField(mem, t.ValueField())
	keyBuilder := listBuilder.ValueBuilder().(*StructBuilder).FieldBuilder(0)
	keyBuilder.Retain()
	itemBuilder := listBuilder.ValueBuilder().(*StructBuilder).FieldBuilder(1)
	itemBuilder.Retain()
	return &MapBuilder{
		listBuilder: listBuilder,
		keyBuilder:  keyBuilder,
		itemBuilder: itemBuilder,
		etype:       t,
		keytype:     t.KeyType(),
		itemtype:    t.ItemType(),
		keysSorted:  t.KeysSorted,
	}
}

func (b *MapBuilder) Type() quiver.DataType { return b.etype }

// Retain increases the reference count by 1 for the sub-builders (list, key, item).
// Retain may be called simultaneously from multiple goroutines.
func (b *MapBuilder) Retain() {
	b.listBuilder.Retain()
	b.keyBuilder.Retain()
	b.itemBuilder.Retain()
}

// Release decreases the reference count by 1 for the sub builders (list, key, item).
func (b *MapBuilder) Release() {
	b.listBuilder.Release()
	b.keyBuilder.Release()
	b.itemBuilder.Release()
}

// Len returns the current number of Maps that are in the builder.
func (b *MapBuilder) Len() int { return b.listBuilder.Len() }

// Cap returns the total number of elements that can be stored
// without allocating additional memory.
func (b *MapBuilder) Cap() int { return b.listBuilder.Cap() }

// NullN returns the number of null values in the array builder.
func (b *MapBuilder) NullN() int { return b.listBuilder.NullN() }

// Append adds a new Map element to the array, calling Append(false) is
// equivalent to calling AppendNull.
func (b *MapBuilder) Append(v bool) {
	b.adjustStructBuilderLen()
	b.listBuilder.Append(v)
}

// AppendNull adds a null map entry to the array.
func (b *MapBuilder) AppendNull() {
	b.Append(false)
}

// AppendNulls adds null map entry to the array.
func (b *MapBuilder) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *MapBuilder) AppendEmptyValue() {
	b.Append(true)
}

func (b *MapBuilder) AppendEmptyValues(n int) {
	for i := 0; i < n; i++ {
		b.AppendEmptyValue()
	}
}

// Reserve enough space for n maps.
func (b *MapBuilder) Reserve(n int) { b.listBuilder.Reserve(n) }

// Resize adjust the space allocated by b to n map elements. If n is greater than
// b.Cap(), additional memory will be allocated. If n is smaller, the allocated memory may be reduced.
func (b *MapBuilder) Resize(n int) { b.listBuilder.Resize(n) }

// KeyBuilder returns a builder that can be used to populate the keys of the maps.
func (b *MapBuilder) KeyBuilder() Builder { return b.keyBuilder }

// ItemBuilder returns a builder that can be used to populate the values that the
// keys point to.
func (b *MapBuilder) ItemBuilder() Builder { return b.itemBuilder }

// ValueBuilder can be used instead of separately using the Key/Item builders
// to build the list as a List of Structs rather than building the keys/items
// separately.
func (b *MapBuilder) ValueBuilder() Builder {
	return b.listBuilder.ValueBuilder()
}

// NewArray creates a Map array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *MapBuilder) NewArray() quiver.Array {
	return b.NewMapArray()
}

// NewMapArray creates a Map array from the memory buffers used by the builder
// and resets the builder so it can be used to build a new array.
func (b *MapBuilder) NewMapArray() (a *Map) {
	if !b.etype.ItemField().Nullable && b.ItemBuilder().NullN() > 0 {
		panic("quiver/array: item not nullable")
	}

	b.adjustStructBuilderLen()
	data := b.listBuilder.newData()
	defer data.Release()
	data.dtype = b.etype
	a = NewMapData(data)
	return
}

// adjustStructBuilderLen appends nulls to the struct builder to keep its
// length consistent with the key/item builders before starting a new element.
func (b *MapBuilder) adjustStructBuilderLen() {
	sb := b.listBuilder.ValueBuilder().(*StructBuilder)
	if sb.Len() < b.keyBuilder.Len() {
		valids := make([]bool, b.keyBuilder.Len()-sb.Len())
		for i := range valids {
			valids[i] = true
		}
		sb.AppendValues(valids)
	}
}

func (b *MapBuilder) init(capacity int)             { b.listBuilder.init(capacity) }
func (b *MapBuilder) resize(newBits int, init func(int)) { b.listBuilder.resize(newBits, init) }

var (
	_ quiver.Array = (*Map)(nil)
	_ Builder      = (*MapBuilder)(nil)
)
