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
	"github.com/quiverio/quiver/encoded"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/memory"

	"github.com/goccy/go-json"
)

// RunEndEncoded represents an array containing two children:
// an array of int16, int32, or int64 values defining the ends of each run
// and an array of values. The physical i-th run covers the logical indexes
// [runEnds[i-1], runEnds[i]).
//
// A slice of a run-end encoded array is a cheap window adjustment: the
// children are untouched and logical indices are translated through a binary
// search on the run ends.
type RunEndEncoded struct {
	array

	ends   quiver.Array
	values quiver.Array
}

// NewRunEndEncodedArray constructs a run-end encoded array from the run ends
// and values arrays with the given logical length and offset. The run ends
// are validated: they must be non-null, positive, strictly increasing, and
// cover the logical window.
func NewRunEndEncodedArray(runEnds, values quiver.Array, logicalLength, offset int) *RunEndEncoded {
	data := NewData(quiver.RunEndEncodedOf(runEnds.DataType(), values.DataType()), logicalLength,
		[]*memory.Buffer{nil}, []quiver.ArrayData{runEnds.Data(), values.Data()}, 0, offset)
	defer data.Release()
	return NewRunEndEncodedData(data)
}

// NewRunEndEncodedData constructs a run-end encoded array from data.
func NewRunEndEncodedData(data quiver.ArrayData) *RunEndEncoded {
	a := &RunEndEncoded{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (r *RunEndEncoded) Values() quiver.Array  { return r.values }
func (r *RunEndEncoded) RunEndsArr() quiver.Array { return r.ends }

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (r *RunEndEncoded) Retain() {
	r.array.Retain()
	r.values.Retain()
	r.ends.Retain()
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (r *RunEndEncoded) Release() {
	r.array.Release()
	r.values.Release()
	r.ends.Release()
}

func (r *RunEndEncoded) setData(data *Data) {
	if len(data.childData) != 2 {
		panic(fmt.Errorf("%w: run-end encoded arrays must have exactly 2 children", quiver.ErrInvalid))
	}
	debug.Assert(data.dtype.ID() == quiver.RUN_END_ENCODED, "invalid type for RunEndEncoded")

	endsType := data.dtype.(*quiver.RunEndEncodedType)
	if !endsType.ValidRunEndsType(data.childData[0].DataType()) {
		panic(fmt.Errorf("%w: run-ends array must be int16, int32 or int64", quiver.ErrInvalid))
	}
	if data.childData[0].NullN() > 0 {
		panic(fmt.Errorf("%w: run-ends array cannot contain nulls", quiver.ErrInvalid))
	}

	r.array.setData(data)

	r.ends = MakeFromData(r.data.childData[0])
	r.values = MakeFromData(r.data.childData[1])
	r.validateRunEnds()
}

// validateRunEnds checks that the run ends are positive, strictly
// increasing, and cover the array's logical window. 64-bit run ends are
// additionally bounded to int32 to keep the logical length addressable.
func (r *RunEndEncoded) validateRunEnds() {
	var prev, last int64
	check := func(cur int64, i int) {
		if cur <= prev {
			panic(fmt.Errorf("%w: run ends must be strictly increasing, got %d after %d at %d",
				quiver.ErrInvalid, cur, prev, i))
		}
		prev = cur
	}

	switch e := r.ends.(type) {
	case *Numeric[int16]:
		for i, v := range e.Values() {
			check(int64(v), i)
		}
	case *Numeric[int32]:
		for i, v := range e.Values() {
			check(int64(v), i)
		}
	case *Numeric[int64]:
		for i, v := range e.Values() {
			if v > math.MaxInt32 {
				panic(fmt.Errorf("%w: run end %d exceeds the maximum addressable logical length", quiver.ErrInvalid, v))
			}
			check(int64(v), i)
		}
	}
	last = prev

	if r.ends.Len() > 0 && last < int64(r.data.offset+r.data.length) {
		panic(fmt.Errorf("%w: last run end %d does not cover the logical window [%d, %d)",
			quiver.ErrInvalid, last, r.data.offset, r.data.offset+r.data.length))
	}
	if r.ends.Len() == 0 && r.data.length > 0 {
		panic(fmt.Errorf("%w: non-empty run-end encoded array has no runs", quiver.ErrInvalid))
	}
}

// GetPhysicalOffset returns the physical index of the run containing the
// first logical element of this array.
func (r *RunEndEncoded) GetPhysicalOffset() int {
	return encoded.FindPhysicalOffset(r.data)
}

// GetPhysicalLength returns the number of physical runs covering this
// array's logical window.
func (r *RunEndEncoded) GetPhysicalLength() int {
	return encoded.GetPhysicalLength(r.data)
}

// GetPhysicalIndex translates the logical index i into the physical index
// of the run holding it. It panics with ErrIndex if i is out of range.
func (r *RunEndEncoded) GetPhysicalIndex(i int) int {
	if i < 0 || i >= r.data.length {
		panic(fmt.Errorf("%w: index %d out of range", quiver.ErrIndex, i))
	}
	return encoded.FindPhysicalIndex(r.data, i+r.data.offset)
}

// LogicalValuesArray returns an array holding the values of each run,
// only over the range of run values inside the logical offset/length range
// of the parent array.
//
// For example, an array with run-ends [10, 20, 30, 40, 50] and a parent
// offset of 25 and length 5 has a logical values array of values[2:3].
// The returned array must be released.
func (r *RunEndEncoded) LogicalValuesArray() quiver.Array {
	physOffset := r.GetPhysicalOffset()
	physLength := r.GetPhysicalLength()
	data := NewSliceData(r.data.childData[1], int64(physOffset), int64(physOffset+physLength))
	defer data.Release()
	return MakeFromData(data)
}

// LogicalRunEndsArray returns an array holding the logical run ends
// adjusted for the parent offset and length: run ends get shifted down by
// the offset and clamped to the logical length. The result is allocated
// from mem and must be released.
func (r *RunEndEncoded) LogicalRunEndsArray(mem memory.Allocator) quiver.Array {
	physOffset := r.GetPhysicalOffset()
	physLength := r.GetPhysicalLength()

	switch e := r.ends.(type) {
	case *Numeric[int16]:
		return logicalRunEnds(mem, r.data.dtype.(*quiver.RunEndEncodedType).RunEnds(),
			e.Values()[physOffset:physOffset+physLength], r.data.offset, r.data.length)
	case *Numeric[int32]:
		return logicalRunEnds(mem, r.data.dtype.(*quiver.RunEndEncodedType).RunEnds(),
			e.Values()[physOffset:physOffset+physLength], r.data.offset, r.data.length)
	case *Numeric[int64]:
		return logicalRunEnds(mem, r.data.dtype.(*quiver.RunEndEncodedType).RunEnds(),
			e.Values()[physOffset:physOffset+physLength], r.data.offset, r.data.length)
	}
	panic("quiver/array: invalid run ends type")
}

func logicalRunEnds[E int16 | int32 | int64](mem memory.Allocator, dt quiver.DataType, physical []E, offset, length int) quiver.Array {
	bldr := NewNumericBuilder[E](mem, dt)
	defer bldr.Release()
	bldr.Reserve(len(physical))

	for _, e := range physical {
		e -= E(offset)
		if e > E(length) {
			e = E(length)
		}
		bldr.Append(e)
	}
	return bldr.NewArray()
}

func (r *RunEndEncoded) ValueStr(i int) string {
	value := r.values.(arraymarshal)
	physIndex := r.GetPhysicalIndex(i)
	if value.IsNull(physIndex) {
		return NullValueStr
	}
	return value.ValueStr(physIndex)
}

func (r *RunEndEncoded) String() string {
	o := new(strings.Builder)
	o.WriteString("[")

	physOffset := r.GetPhysicalOffset()
	physLength := r.GetPhysicalLength()
	for i := 0; i < physLength; i++ {
		if i != 0 {
			o.WriteString(",")
		}
		value := r.values.(arraymarshal).ValueStr(physOffset + i)
		fmt.Fprintf(o, "{%s -> %v}", r.ends.ValueStr(physOffset+i), value)
	}

	o.WriteString("]")
	return o.String()
}

func (r *RunEndEncoded) getOneForMarshal(i int) interface{} {
	return r.values.(arraymarshal).getOneForMarshal(r.GetPhysicalIndex(i))
}

func (r *RunEndEncoded) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, r.Len())
	for i := range vals {
		vals[i] = r.getOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// RunEndEncodedBuilder builds a RunEndEncoded array: callers start a run
// with Append, set its value through the ValueBuilder, and may extend the
// current run with ContinueRun.
type RunEndEncodedBuilder struct {
	builder

	dt        quiver.DataType
	runEnds   Builder
	values    Builder
	maxRunEnd uint64
}

// NewRunEndEncodedBuilder returns a builder, using the provided memory
// allocator. runEnds must be int16, int32 or int64.
func NewRunEndEncodedBuilder(mem memory.Allocator, runEnds, encoded quiver.DataType) *RunEndEncodedBuilder {
	dt := quiver.RunEndEncodedOf(runEnds, encoded)
	if !dt.ValidRunEndsType(runEnds) {
		panic("quiver/array: invalid type for run ends")
	}

	var maxEnd uint64
	switch runEnds.ID() {
	case quiver.INT16:
		maxEnd = math.MaxInt16
	case quiver.INT32:
		maxEnd = math.MaxInt32
	case quiver.INT64:
		// limited to int32 to keep the logical length addressable
		maxEnd = math.MaxInt32
	}
	return &RunEndEncodedBuilder{
		builder:   builder{refCount: 1, mem: mem},
		dt:        dt,
		runEnds:   NewBuilder(mem, runEnds),
		values:    NewBuilder(mem, encoded),
		maxRunEnd: maxEnd,
	}
}

func (b *RunEndEncodedBuilder) Type() quiver.DataType { return b.dt }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *RunEndEncodedBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		b.values.Release()
		b.runEnds.Release()
	}
}

func (b *RunEndEncodedBuilder) addLength(n uint64) {
	if uint64(b.length)+n > b.maxRunEnd {
		panic(fmt.Errorf("%w: run end exceeds maximum value for run-end type", quiver.ErrInvalid))
	}
	b.length += int(n)
}

// finishRun appends the pending run end for the current run, if any.
func (b *RunEndEncodedBuilder) finishRun() {
	if b.length == 0 || b.runEnds.Len() == b.values.Len() {
		return
	}

	switch bldr := b.runEnds.(type) {
	case *NumericBuilder[int16]:
		bldr.Append(int16(b.length))
	case *NumericBuilder[int32]:
		bldr.Append(int32(b.length))
	case *NumericBuilder[int64]:
		bldr.Append(int64(b.length))
	}
}

// ValueBuilder returns the builder values are appended to. Exactly one
// value must be appended per Append call.
func (b *RunEndEncodedBuilder) ValueBuilder() Builder { return b.values }

// Append starts a new run of length n. The run's value must then be
// appended to the ValueBuilder.
func (b *RunEndEncodedBuilder) Append(n uint64) {
	b.finishRun()
	b.addLength(n)
}

// ContinueRun extends the current run by n.
func (b *RunEndEncodedBuilder) ContinueRun(n uint64) {
	b.addLength(n)
}

// AppendNull starts (or extends) a run of a single null value.
func (b *RunEndEncodedBuilder) AppendNull() {
	b.Append(1)
	b.values.AppendNull()
}

func (b *RunEndEncodedBuilder) AppendNulls(n int) {
	if n == 0 {
		return
	}
	b.Append(uint64(n))
	b.values.AppendNull()
}

func (b *RunEndEncodedBuilder) AppendEmptyValue() {
	b.AppendNull()
}

func (b *RunEndEncodedBuilder) AppendEmptyValues(n int) {
	b.AppendNulls(n)
}

// NullN returns the number of logical nulls appended so far. Computing it
// would require expanding the runs, so it is not tracked; the underlying
// values nulls are reported instead.
func (b *RunEndEncodedBuilder) NullN() int {
	return UnknownNullCount
}

// Len returns the logical length of the array being built.
func (b *RunEndEncodedBuilder) Len() int { return b.length }

// Reserve ensures there is enough space for appending n runs.
func (b *RunEndEncodedBuilder) Reserve(n int) {
	b.values.Reserve(n)
	b.runEnds.Reserve(n)
}

// Resize adjusts the space allocated to n runs.
func (b *RunEndEncodedBuilder) Resize(n int) {
	b.values.Resize(n)
	b.runEnds.Resize(n)
}

func (b *RunEndEncodedBuilder) init(capacity int)               {}
func (b *RunEndEncodedBuilder) resize(newBits int, _ func(int)) {}

// NewArray creates a RunEndEncoded array from the memory buffers used by the
// builder and resets the builder so it can be used to build a new array.
func (b *RunEndEncodedBuilder) NewArray() quiver.Array {
	return b.NewRunEndEncodedArray()
}

// NewRunEndEncodedArray creates a RunEndEncoded array from the memory buffers
// used by the builder and resets the builder so it can be used to build a
// new array.
func (b *RunEndEncodedBuilder) NewRunEndEncodedArray() (a *RunEndEncoded) {
	data := b.newData()
	a = NewRunEndEncodedData(data)
	data.Release()
	return
}

func (b *RunEndEncodedBuilder) newData() (data *Data) {
	b.finishRun()

	runEnds := b.runEnds.NewArray()
	defer runEnds.Release()
	values := b.values.NewArray()
	defer values.Release()

	data = NewData(b.dt, b.length,
		[]*memory.Buffer{nil},
		[]quiver.ArrayData{runEnds.Data(), values.Data()}, 0, 0)
	b.length = 0

	return
}

var (
	_ quiver.Array = (*RunEndEncoded)(nil)
	_ Builder      = (*RunEndEncodedBuilder)(nil)
)
