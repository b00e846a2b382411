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
	"strings"
	"sync/atomic"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/memory"

	"github.com/goccy/go-json"
)

// RecordReader reads a stream of records.
type RecordReader interface {
	Retain()
	Release()

	Schema() *quiver.Schema

	Next() bool
	Record() quiver.Record
	Err() error
}

// simpleRecords is a simple iterator over a collection of records.
type simpleRecords struct {
	refCount int64

	schema *quiver.Schema
	recs   []quiver.Record
	cur    quiver.Record
}

// NewRecordReader returns a simple iterator over the given slice of records.
func NewRecordReader(schema *quiver.Schema, recs []quiver.Record) (RecordReader, error) {
	rs := &simpleRecords{
		refCount: 1,
		schema:   schema,
		recs:     recs,
		cur:      nil,
	}

	for _, rec := range rs.recs {
		rec.Retain()
	}

	for _, rec := range recs {
		if !rec.Schema().Equal(rs.schema) {
			rs.Release()
			return nil, fmt.Errorf("%w: mismatched record schema", quiver.ErrInvalid)
		}
	}

	return rs, nil
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (rs *simpleRecords) Retain() {
	atomic.AddInt64(&rs.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (rs *simpleRecords) Release() {
	debug.Assert(atomic.LoadInt64(&rs.refCount) > 0, "too many releases")

	if atomic.AddInt64(&rs.refCount, -1) == 0 {
		if rs.cur != nil {
			rs.cur.Release()
		}
		for _, rec := range rs.recs {
			rec.Release()
		}
		rs.recs = nil
	}
}

func (rs *simpleRecords) Schema() *quiver.Schema { return rs.schema }
func (rs *simpleRecords) Record() quiver.Record  { return rs.cur }
func (rs *simpleRecords) Next() bool {
	if len(rs.recs) == 0 {
		return false
	}
	if rs.cur != nil {
		rs.cur.Release()
	}
	rs.cur = rs.recs[0]
	rs.recs = rs.recs[1:]
	return true
}
func (rs *simpleRecords) Err() error { return nil }

// simpleRecord is a basic, non-lazy in-memory record batch.
type simpleRecord struct {
	refCount int64

	schema *quiver.Schema

	rows int64
	arrs []quiver.Array
}

// NewRecord returns a basic, non-lazy in-memory record batch.
//
// NewRecord panics if the columns and schema are inconsistent.
// NewRecord panics if rows is larger than the height of the columns.
func NewRecord(schema *quiver.Schema, cols []quiver.Array, nrows int64) quiver.Record {
	rec := &simpleRecord{
		refCount: 1,
		schema:   schema,
		rows:     nrows,
		arrs:     make([]quiver.Array, len(cols)),
	}
	copy(rec.arrs, cols)
	for _, arr := range rec.arrs {
		arr.Retain()
	}

	if rec.rows < 0 {
		switch len(rec.arrs) {
		case 0:
			rec.rows = 0
		default:
			rec.rows = int64(rec.arrs[0].Len())
		}
	}

	err := rec.validate()
	if err != nil {
		rec.Release()
		panic(err)
	}

	return rec
}

func (rec *simpleRecord) validate() error {
	if rec.rows == 0 && len(rec.arrs) == 0 {
		return nil
	}

	if len(rec.arrs) != rec.schema.NumFields() {
		return fmt.Errorf("%w: number of columns/fields mismatch", quiver.ErrInvalid)
	}

	for i, arr := range rec.arrs {
		f := rec.schema.Field(i)
		if int64(arr.Len()) < rec.rows {
			return fmt.Errorf("%w: mismatch number of rows in column %q: got=%d, want=%d",
				quiver.ErrInvalid, f.Name, arr.Len(), rec.rows)
		}
		if !quiver.TypeEqual(f.Type, arr.DataType()) {
			return fmt.Errorf("%w: column %q type mismatch: got=%v, want=%v",
				quiver.ErrType, f.Name, arr.DataType(), f.Type)
		}
	}
	return nil
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (rec *simpleRecord) Retain() {
	atomic.AddInt64(&rec.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (rec *simpleRecord) Release() {
	debug.Assert(atomic.LoadInt64(&rec.refCount) > 0, "too many releases")

	if atomic.AddInt64(&rec.refCount, -1) == 0 {
		for _, arr := range rec.arrs {
			arr.Release()
		}
		rec.arrs = nil
	}
}

func (rec *simpleRecord) Schema() *quiver.Schema    { return rec.schema }
func (rec *simpleRecord) NumRows() int64            { return rec.rows }
func (rec *simpleRecord) NumCols() int64            { return int64(len(rec.arrs)) }
func (rec *simpleRecord) Columns() []quiver.Array   { return rec.arrs }
func (rec *simpleRecord) Column(i int) quiver.Array { return rec.arrs[i] }
func (rec *simpleRecord) ColumnName(i int) string   { return rec.schema.Field(i).Name }

// NewSlice constructs a zero-copy slice of the record with the indicated
// indices i and j, only slicing the provided record.
// The returned record must be Release()'d.
func (rec *simpleRecord) NewSlice(i, j int64) quiver.Record {
	arrs := make([]quiver.Array, len(rec.arrs))
	for ii, arr := range rec.arrs {
		arrs[ii] = NewSlice(arr, i, j)
	}
	defer func() {
		for _, arr := range arrs {
			arr.Release()
		}
	}()
	return NewRecord(rec.schema, arrs, j-i)
}

func (rec *simpleRecord) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "record:\n  %v\n", rec.schema)
	fmt.Fprintf(o, "  rows: %d\n", rec.rows)
	for i, col := range rec.arrs {
		fmt.Fprintf(o, "  col[%d][%s]: %v\n", i, rec.schema.Field(i).Name, col)
	}

	return o.String()
}

func (rec *simpleRecord) MarshalJSON() ([]byte, error) {
	arr := RecordToStructArray(rec)
	defer arr.Release()
	return arr.MarshalJSON()
}

// RecordToStructArray constructs a struct array from the columns of the
// record batch by referencing them, zero-copy.
func RecordToStructArray(rec quiver.Record) *Struct {
	cols := make([]quiver.ArrayData, rec.NumCols())
	for i, c := range rec.Columns() {
		cols[i] = c.Data()
	}

	data := NewData(quiver.StructOf(rec.Schema().Fields()...), int(rec.NumRows()), []*memory.Buffer{nil}, cols, 0, 0)
	defer data.Release()

	return NewStructData(data)
}

// RecordBuilder eases the creation of records by building all the columns
// of a schema in step.
type RecordBuilder struct {
	refCount int64
	mem      memory.Allocator
	schema   *quiver.Schema
	fields   []Builder
}

// NewRecordBuilder returns a builder, using the provided memory allocator and a schema.
func NewRecordBuilder(mem memory.Allocator, schema *quiver.Schema) *RecordBuilder {
	b := &RecordBuilder{
		refCount: 1,
		mem:      mem,
		schema:   schema,
		fields:   make([]Builder, schema.NumFields()),
	}

	for i := 0; i < schema.NumFields(); i++ {
		b.fields[i] = NewBuilder(b.mem, schema.Field(i).Type)
	}

	return b
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (b *RecordBuilder) Retain() {
	atomic.AddInt64(&b.refCount, 1)
}

// Release decreases the reference count by 1.
func (b *RecordBuilder) Release() {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

	if atomic.AddInt64(&b.refCount, -1) == 0 {
		for _, f := range b.fields {
			f.Release()
		}
		b.fields = nil
	}
}

func (b *RecordBuilder) Schema() *quiver.Schema { return b.schema }
func (b *RecordBuilder) Fields() []Builder      { return b.fields }
func (b *RecordBuilder) Field(i int) Builder    { return b.fields[i] }

// Reserve ensures there is enough space to append n rows to every column.
func (b *RecordBuilder) Reserve(size int) {
	for _, f := range b.fields {
		f.Reserve(size)
	}
}

// NewRecord creates a new record from the memory buffers used by the builders
// and resets the RecordBuilder so it can be used to build a new record.
//
// The returned Record must be Release()'d after use.
//
// NewRecord panics if the fields' builders do not have the same length.
func (b *RecordBuilder) NewRecord() quiver.Record {
	cols := make([]quiver.Array, len(b.fields))
	rows := int64(0)

	defer func(cols []quiver.Array) {
		for _, col := range cols {
			if col == nil {
				continue
			}
			col.Release()
		}
	}(cols)

	for i, f := range b.fields {
		cols[i] = f.NewArray()
		irow := int64(cols[i].Len())
		if i > 0 && irow != rows {
			panic(fmt.Errorf("quiver/array: field %d has %d rows. want=%d", i, irow, rows))
		}
		rows = irow
	}

	return NewRecord(b.schema, cols, rows)
}

// UnmarshalJSON populates the record builder from a JSON array of objects
// keyed by field name, in the line-delimited style.
func (b *RecordBuilder) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		for i, f := range b.schema.Fields() {
			enc, ok := raw[f.Name]
			if !ok {
				b.fields[i].AppendNull()
				continue
			}
			if err := unmarshalBuilderValue(b.fields[i], enc); err != nil {
				return err
			}
		}
	}
	return nil
}

// unmarshalBuilderValue appends a single JSON value to the given builder.
// Only the flat types needed for line-delimited ingestion are handled.
func unmarshalBuilderValue(bldr Builder, enc json.RawMessage) error {
	if bytes.Equal(enc, []byte("null")) {
		bldr.AppendNull()
		return nil
	}
	switch bl := bldr.(type) {
	case *BooleanBuilder:
		var v bool
		if err := json.Unmarshal(enc, &v); err != nil {
			return err
		}
		bl.Append(v)
	case *NumericBuilder[int8]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[int16]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[int32]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[int64]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[uint8]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[uint16]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[uint32]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[uint64]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[float32]:
		return unmarshalNumeric(bl, enc)
	case *NumericBuilder[float64]:
		return unmarshalNumeric(bl, enc)
	case *StringBuilder:
		var v string
		if err := json.Unmarshal(enc, &v); err != nil {
			return err
		}
		bl.Append(v)
	case *LargeStringBuilder:
		var v string
		if err := json.Unmarshal(enc, &v); err != nil {
			return err
		}
		bl.Append(v)
	case *BinaryBuilder:
		var v []byte
		if err := json.Unmarshal(enc, &v); err != nil {
			return err
		}
		bl.Append(v)
	default:
		return fmt.Errorf("%w: JSON unmarshalling of %s", quiver.ErrNotImplemented, bldr.Type())
	}
	return nil
}

func unmarshalNumeric[T quiver.FixedWidthType](bl *NumericBuilder[T], enc json.RawMessage) error {
	var v T
	if err := json.Unmarshal(enc, &v); err != nil {
		return err
	}
	bl.Append(v)
	return nil
}

var (
	_ quiver.Record = (*simpleRecord)(nil)
	_ RecordReader  = (*simpleRecords)(nil)
)
