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
	"github.com/quiverio/quiver/memory"
)

// UnknownNullCount is the sentinel meaning the null count has not been
// computed yet; it is materialized lazily from the validity bitmap.
const UnknownNullCount = -1

// Data represents the memory and metadata of an array: the single untyped
// container every typed array view is projected from.
type Data struct {
	refCount  int64
	dtype     quiver.DataType
	nulls     int
	offset    int
	length    int
	buffers   []*memory.Buffer   // the buffers mandated by the data type's layout
	childData []quiver.ArrayData // children, for nested types
	dictionary *Data             // the dictionary values, if any

	cachedNulls int64 // atomically cached lazy null count, offset by +1 so 0 means "not computed"
}

// NewData creates a new Data.
func NewData(dtype quiver.DataType, length int, buffers []*memory.Buffer, childData []quiver.ArrayData, nulls, offset int) *Data {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range childData {
		if child != nil {
			child.Retain()
		}
	}

	return &Data{
		refCount:  1,
		dtype:     dtype,
		nulls:     nulls,
		length:    length,
		offset:    offset,
		buffers:   buffers,
		childData: childData,
	}
}

// NewDataWithDictionary creates a new data object, but also sets the provided dictionary into the data if it's not nil.
func NewDataWithDictionary(dtype quiver.DataType, length int, buffers []*memory.Buffer, nulls, offset int, dict *Data) *Data {
	data := NewData(dtype, length, buffers, nil, nulls, offset)
	if dict != nil {
		dict.Retain()
	}
	data.dictionary = dict
	return data
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (d *Data) Retain() {
	atomic.AddInt64(&d.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (d *Data) Release() {
	debug.Assert(atomic.LoadInt64(&d.refCount) > 0, "too many releases")

	if atomic.AddInt64(&d.refCount, -1) == 0 {
		for _, b := range d.buffers {
			if b != nil {
				b.Release()
			}
		}

		for _, b := range d.childData {
			b.Release()
		}

		if d.dictionary != nil {
			d.dictionary.Release()
		}
		d.dictionary, d.buffers, d.childData = nil, nil, nil
	}
}

// DataType returns the DataType of the data.
func (d *Data) DataType() quiver.DataType { return d.dtype }

// NullN returns the number of nulls, computing it from the validity bitmap
// on first use if it was constructed with UnknownNullCount.
func (d *Data) NullN() int {
	if d.nulls != UnknownNullCount {
		return d.nulls
	}
	if cached := atomic.LoadInt64(&d.cachedNulls); cached != 0 {
		return int(cached - 1)
	}

	nulls := 0
	if len(d.buffers) > 0 && d.buffers[0] != nil {
		nulls = d.length - bitutil.CountSetBits(d.buffers[0].Bytes(), d.offset, d.length)
	}
	atomic.StoreInt64(&d.cachedNulls, int64(nulls)+1)
	return nulls
}

// Len returns the length.
func (d *Data) Len() int { return d.length }

// Offset returns the offset.
func (d *Data) Offset() int { return d.offset }

// Buffers returns the buffers.
func (d *Data) Buffers() []*memory.Buffer { return d.buffers }

// Children returns the children.
func (d *Data) Children() []quiver.ArrayData { return d.childData }

// Dictionary returns the ArrayData object for the dictionary member, or nil.
func (d *Data) Dictionary() quiver.ArrayData {
	if d.dictionary == nil {
		// don't return a typed nil
		return nil
	}
	return d.dictionary
}

// SetDictionary allows replacing the dictionary for this particular Data object.
func (d *Data) SetDictionary(dict quiver.ArrayData) {
	if d.dictionary != nil {
		d.dictionary.Release()
		d.dictionary = nil
	}
	if dict != nil {
		dict.Retain()
		d.dictionary = dict.(*Data)
	}
}

// NewSliceData returns a new slice that shares backing data with the input.
// The returned Data slice starts at i and contains j-i elements.
// The returned Data has a reference count of 1, and the input is unmodified.
func NewSliceData(data quiver.ArrayData, i, j int64) quiver.ArrayData {
	if j > int64(data.Len()) || i > j || int64(data.Offset())+j > int64(data.Offset()+data.Len()) {
		panic("quiver/array: index out of range")
	}

	for _, b := range data.Buffers() {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range data.Children() {
		if child != nil {
			child.Retain()
		}
	}

	if data.(*Data).dictionary != nil {
		data.(*Data).dictionary.Retain()
	}

	o := &Data{
		refCount:   1,
		dtype:      data.DataType(),
		nulls:      UnknownNullCount,
		length:     int(j - i),
		offset:     data.Offset() + int(i),
		buffers:    data.Buffers(),
		childData:  data.Children(),
		dictionary: data.(*Data).dictionary,
	}

	if data.NullN() == 0 {
		o.nulls = 0
	}

	return o
}
