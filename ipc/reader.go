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

package ipc

import (
	"encoding/binary"
	"io"
	"sync/atomic"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/pkg/errors"
	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/bitutil"
	"github.com/quiverio/quiver/internal/debug"
	"github.com/quiverio/quiver/internal/flatbuf"
	"github.com/quiverio/quiver/memory"
)

// Reader reads records from an io.Reader.
// Reader expects a schema (plus any dictionaries) as the first messages
// in the stream, followed by records.
type Reader struct {
	r      MessageReader
	schema *quiver.Schema

	refCount int64
	rec      quiver.Record
	err      error

	// dictionaries read from the stream so far, keyed by the ids
	// assigned while decoding the schema message.
	memo      map[int64]quiver.ArrayData
	dictTypes map[int64]quiver.DataType
	mapper    dictMapper

	expectedSchema *quiver.Schema

	mem memory.Allocator

	done bool
}

// NewReaderFromMessageReader allows constructing a new reader object with the
// provided MessageReader allowing injection of reading messages other than
// by simple streaming bytes, such as a message transport.
func NewReaderFromMessageReader(r MessageReader, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts...)

	rr := &Reader{
		r:              r,
		refCount:       1,
		mem:            cfg.alloc,
		expectedSchema: cfg.schema,
		memo:           make(map[int64]quiver.ArrayData),
	}

	if err := rr.readSchema(); err != nil {
		return nil, errors.Wrap(err, "quiver/ipc: could not read schema from stream")
	}

	return rr, nil
}

// NewReader returns a reader that reads records from an input stream.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	return NewReaderFromMessageReader(NewMessageReader(r, opts...), opts...)
}

// Err returns the last error encountered during the iteration over the
// underlying stream.
func (r *Reader) Err() error { return r.err }

func (r *Reader) Schema() *quiver.Schema { return r.schema }

func (r *Reader) readSchema() error {
	msg, err := r.r.Message()
	if err != nil {
		return errors.Wrap(err, "quiver/ipc: could not read message schema")
	}

	if msg.Type() != MessageSchema {
		return errors.Errorf("quiver/ipc: invalid message type (got=%v, want=%v)", msg.Type(), MessageSchema)
	}

	var schemaFB flatbuf.Schema
	initFB(&schemaFB, msg.msg.Header)

	r.mapper = newDictMapper()
	r.schema, err = schemaFromFB(&schemaFB, &r.mapper)
	if err != nil {
		return errors.Wrap(err, "quiver/ipc: could not decode schema from message schema")
	}

	r.dictTypes = make(map[int64]quiver.DataType, r.mapper.numDicts())
	var pos fieldPos
	for i, f := range r.schema.Fields() {
		if err := collectDictTypes(pos.child(int32(i)), f.Type, &r.mapper, r.dictTypes); err != nil {
			return err
		}
	}

	// check the provided schema match the one read from stream.
	if r.expectedSchema != nil && !r.expectedSchema.Equal(r.schema) {
		return errInconsistentSchema
	}

	return nil
}

// collectDictTypes maps every dictionary-encoded field found in dt to
// the value type its dictionary batches carry on the wire.
func collectDictTypes(pos fieldPos, dt quiver.DataType, mapper *dictMapper, out map[int64]quiver.DataType) error {
	if dict, ok := dt.(*quiver.DictionaryType); ok {
		id, err := mapper.fieldID(pos)
		if err != nil {
			return err
		}
		out[id] = dict.ValueType
		return nil
	}
	if nested, ok := dt.(quiver.NestedType); ok {
		for i, f := range nested.Fields() {
			if err := collectDictTypes(pos.child(int32(i)), f.Type, mapper, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (r *Reader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (r *Reader) Release() {
	debug.Assert(atomic.LoadInt64(&r.refCount) > 0, "too many releases")

	if atomic.AddInt64(&r.refCount, -1) == 0 {
		if r.rec != nil {
			r.rec.Release()
			r.rec = nil
		}
		if r.r != nil {
			r.r.Release()
			r.r = nil
		}
		for id, dict := range r.memo {
			dict.Release()
			delete(r.memo, id)
		}
	}
}

// Next returns whether a Record could be extracted from the underlying stream.
func (r *Reader) Next() bool {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}

	if r.err != nil || r.done {
		return false
	}

	return r.next()
}

func (r *Reader) next() bool {
	defer func() {
		if pErr := recover(); pErr != nil {
			r.done = true
			switch e := pErr.(type) {
			case error:
				r.err = errors.Wrap(e, "quiver/ipc: could not read record from stream")
			default:
				r.err = errors.Errorf("quiver/ipc: could not read record from stream: %v", pErr)
			}
		}
	}()

	var msg *Message
	msg, r.err = r.r.Message()

	for r.err == nil && msg.Type() == MessageDictionaryBatch {
		if r.err = r.readDictionary(msg); r.err != nil {
			r.done = true
			return false
		}
		msg, r.err = r.r.Message()
	}

	if r.err != nil {
		r.done = true
		if errors.Cause(r.err) == io.EOF {
			r.err = nil
		}
		return false
	}

	if got, want := msg.Type(), MessageRecordBatch; got != want {
		r.err = errors.Errorf("quiver/ipc: invalid message type (got=%v, want=%v)", got, want)
		return false
	}

	r.rec = newRecord(r.schema, msg.msg, msg.body, &r.mapper, r.memo, r.mem)
	return true
}

// Record returns the current record that has been extracted from the
// underlying stream.
// It is valid until the next call to Next.
func (r *Reader) Record() quiver.Record {
	return r.rec
}

// Read reads the current record from the underlying stream and an error, if any.
// When the Reader reaches the end of the underlying stream, it returns (nil, io.EOF).
func (r *Reader) Read() (quiver.Record, error) {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}

	if !r.next() {
		if r.done && r.err == nil {
			return nil, io.EOF
		}
		return nil, r.err
	}

	return r.rec, nil
}

func (r *Reader) readDictionary(msg *Message) error {
	return loadDictionaryBatch(msg, r.dictTypes, &r.mapper, r.memo, r.mem)
}

// loadDictionaryBatch decodes a dictionary batch message and installs
// (or, for a delta, extends) the dictionary values in memo.
func loadDictionaryBatch(msg *Message, dictTypes map[int64]quiver.DataType, mapper *dictMapper, memo map[int64]quiver.ArrayData, mem memory.Allocator) error {
	var (
		dictFB flatbuf.DictionaryBatch
		recFB  flatbuf.RecordBatch
	)
	initFB(&dictFB, msg.msg.Header)
	if dictFB.Data(&recFB) == nil {
		return errors.New("quiver/ipc: dictionary batch message has no data")
	}

	id := dictFB.Id()
	dt, ok := dictTypes[id]
	if !ok {
		return errors.Errorf("quiver/ipc: no dictionary with id %d in schema", id)
	}

	var codec decompressor
	if bc := recFB.Compression(nil); bc != nil {
		codec = getDecompressor(bc.Codec())
	}

	ctx := &arrayLoaderContext{
		src: ipcSource{
			meta:  &recFB,
			body:  msg.body,
			codec: codec,
			mem:   mem,
		},
		mapper: mapper,
		memo:   memo,
		max:    kMaxNestingDepth + 1,
	}

	dict := ctx.loadArray(dt, fieldPos{})

	switch {
	case dictFB.IsDelta():
		prev, ok := memo[id]
		if !ok {
			dict.Release()
			return errors.Errorf("quiver/ipc: delta dictionary %d arrived before the initial dictionary", id)
		}
		combined, err := concatDictValues(mem, prev, dict)
		dict.Release()
		if err != nil {
			return err
		}
		prev.Release()
		memo[id] = combined
	default:
		if prev, ok := memo[id]; ok {
			prev.Release()
		}
		memo[id] = dict
	}
	return nil
}

// newRecordFromMessage converts the panics raised while decoding a
// malformed record batch into an error.
func newRecordFromMessage(schema *quiver.Schema, msg *Message, mapper *dictMapper, memo map[int64]quiver.ArrayData, mem memory.Allocator) (rec quiver.Record, err error) {
	defer func() {
		if pErr := recover(); pErr != nil {
			switch e := pErr.(type) {
			case error:
				err = errors.Wrap(e, "quiver/ipc: could not create record from message")
			default:
				err = errors.Errorf("quiver/ipc: could not create record from message: %v", pErr)
			}
		}
	}()
	return newRecord(schema, msg.msg, msg.body, mapper, memo, mem), nil
}

func newRecord(schema *quiver.Schema, msg *flatbuf.Message, body *memory.Buffer, mapper *dictMapper, memo map[int64]quiver.ArrayData, mem memory.Allocator) quiver.Record {
	var (
		md    flatbuf.RecordBatch
		codec decompressor
	)
	initFB(&md, msg.Header)
	rows := md.Length()

	if bc := md.Compression(nil); bc != nil {
		codec = getDecompressor(bc.Codec())
	}

	ctx := &arrayLoaderContext{
		src: ipcSource{
			meta:  &md,
			body:  body,
			codec: codec,
			mem:   mem,
		},
		mapper: mapper,
		memo:   memo,
		max:    kMaxNestingDepth + 1,
	}

	var pos fieldPos
	cols := make([]quiver.Array, schema.NumFields())
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()

	for i, field := range schema.Fields() {
		data := ctx.loadArray(field.Type, pos.child(int32(i)))
		cols[i] = array.MakeFromData(data)
		data.Release()
	}

	return array.NewRecord(schema, cols, rows)
}

type ipcSource struct {
	meta  *flatbuf.RecordBatch
	body  *memory.Buffer
	codec decompressor
	mem   memory.Allocator
}

func (src *ipcSource) buffer(i int) *memory.Buffer {
	var buf flatbuf.Buffer
	if !src.meta.Buffers(&buf, i) {
		panic(errors.Errorf("quiver/ipc: no buffer at index %d", i))
	}

	if buf.Length() == 0 {
		return memory.NewBufferBytes(nil)
	}

	end, ok := overflow.Add64(buf.Offset(), buf.Length())
	if !ok || end > int64(src.body.Len()) {
		panic(errors.Errorf("quiver/ipc: buffer %d extends past the end of the message body", i))
	}

	raw := memory.SliceBuffer(src.body, int(buf.Offset()), int(buf.Length()))
	if src.codec == nil {
		return raw
	}
	defer raw.Release()

	if raw.Len() < quiver.Int64SizeBytes {
		panic(errors.Errorf("quiver/ipc: compressed buffer %d is missing its length prefix", i))
	}

	data := raw.Bytes()
	size := int64(binary.LittleEndian.Uint64(data[:8]))
	if size == -1 {
		// the buffer was stored uncompressed.
		return memory.SliceBuffer(raw, quiver.Int64SizeBytes, raw.Len()-quiver.Int64SizeBytes)
	}

	out := memory.NewResizableBuffer(src.mem)
	out.Resize(int(size))
	if err := src.codec.decompress(out.Bytes(), data[quiver.Int64SizeBytes:]); err != nil {
		out.Release()
		panic(err)
	}
	return out
}

func (src *ipcSource) fieldMetadata(i int) *flatbuf.FieldNode {
	var node flatbuf.FieldNode
	if !src.meta.Nodes(&node, i) {
		panic(errors.Errorf("quiver/ipc: no field node at index %d", i))
	}
	return &node
}

type arrayLoaderContext struct {
	src     ipcSource
	mapper  *dictMapper
	memo    map[int64]quiver.ArrayData
	ifield  int
	ibuffer int
	max     int
}

func (ctx *arrayLoaderContext) field() *flatbuf.FieldNode {
	field := ctx.src.fieldMetadata(ctx.ifield)
	ctx.ifield++
	return field
}

func (ctx *arrayLoaderContext) buffer() *memory.Buffer {
	buf := ctx.src.buffer(ctx.ibuffer)
	ctx.ibuffer++
	return buf
}

func (ctx *arrayLoaderContext) loadArray(dt quiver.DataType, pos fieldPos) quiver.ArrayData {
	switch dt := dt.(type) {
	case *quiver.NullType:
		return ctx.loadNull(dt)

	case *quiver.DictionaryType:
		return ctx.loadDictionary(dt, pos)

	case quiver.FixedWidthDataType:
		// booleans and fixed size binaries included, the buffers
		// carry their own byte lengths.
		return ctx.loadPrimitive(dt)

	case *quiver.BinaryType, *quiver.StringType, *quiver.LargeBinaryType, *quiver.LargeStringType:
		return ctx.loadBinary(dt)

	case *quiver.ListType:
		return ctx.loadListLike(dt, dt.Elem(), pos)

	case *quiver.LargeListType:
		return ctx.loadListLike(dt, dt.Elem(), pos)

	case *quiver.MapType:
		return ctx.loadListLike(dt, dt.Elem(), pos)

	case *quiver.FixedSizeListType:
		return ctx.loadFixedSizeList(dt, pos)

	case *quiver.StructType:
		return ctx.loadStruct(dt, pos)

	case quiver.UnionType:
		return ctx.loadUnion(dt, pos)

	case *quiver.RunEndEncodedType:
		return ctx.loadRunEndEncoded(dt, pos)

	default:
		panic(errors.Errorf("quiver/ipc: array type %T not handled", dt))
	}
}

func (ctx *arrayLoaderContext) loadCommon(nbufs int) (*flatbuf.FieldNode, []*memory.Buffer) {
	buffers := make([]*memory.Buffer, 0, nbufs)
	field := ctx.field()

	var buf *memory.Buffer
	switch field.NullCount() {
	case 0:
		ctx.ibuffer++
	default:
		buf = ctx.buffer()
	}
	buffers = append(buffers, buf)

	return field, buffers
}

func (ctx *arrayLoaderContext) loadChild(dt quiver.DataType, pos fieldPos) quiver.ArrayData {
	if ctx.max == 0 {
		panic(errMaxRecursion)
	}
	ctx.max--
	sub := ctx.loadArray(dt, pos)
	ctx.max++
	return sub
}

func (ctx *arrayLoaderContext) loadNull(dt quiver.DataType) quiver.ArrayData {
	field := ctx.field()
	return array.NewData(dt, int(field.Length()), []*memory.Buffer{nil}, nil, int(field.NullCount()), 0)
}

func (ctx *arrayLoaderContext) loadPrimitive(dt quiver.DataType) quiver.ArrayData {
	field, buffers := ctx.loadCommon(2)

	switch field.Length() {
	case 0:
		buffers = append(buffers, nil)
		ctx.ibuffer++
	default:
		buffers = append(buffers, ctx.buffer())
	}

	defer releaseBuffers(buffers)

	return array.NewData(dt, int(field.Length()), buffers, nil, int(field.NullCount()), 0)
}

func (ctx *arrayLoaderContext) loadBinary(dt quiver.DataType) quiver.ArrayData {
	field, buffers := ctx.loadCommon(3)
	buffers = append(buffers, ctx.buffer(), ctx.buffer())
	defer releaseBuffers(buffers)

	return array.NewData(dt, int(field.Length()), buffers, nil, int(field.NullCount()), 0)
}

func (ctx *arrayLoaderContext) loadListLike(dt quiver.DataType, elem quiver.DataType, pos fieldPos) quiver.ArrayData {
	field, buffers := ctx.loadCommon(2)
	buffers = append(buffers, ctx.buffer())
	defer releaseBuffers(buffers)

	sub := ctx.loadChild(elem, pos.child(0))
	defer sub.Release()

	return array.NewData(dt, int(field.Length()), buffers, []quiver.ArrayData{sub}, int(field.NullCount()), 0)
}

func (ctx *arrayLoaderContext) loadFixedSizeList(dt *quiver.FixedSizeListType, pos fieldPos) quiver.ArrayData {
	field, buffers := ctx.loadCommon(1)
	defer releaseBuffers(buffers)

	sub := ctx.loadChild(dt.Elem(), pos.child(0))
	defer sub.Release()

	return array.NewData(dt, int(field.Length()), buffers, []quiver.ArrayData{sub}, int(field.NullCount()), 0)
}

func (ctx *arrayLoaderContext) loadStruct(dt *quiver.StructType, pos fieldPos) quiver.ArrayData {
	field, buffers := ctx.loadCommon(1)
	defer releaseBuffers(buffers)

	subs := make([]quiver.ArrayData, dt.NumFields())
	for i, f := range dt.Fields() {
		subs[i] = ctx.loadChild(f.Type, pos.child(int32(i)))
	}
	defer releaseArrayData(subs)

	return array.NewData(dt, int(field.Length()), buffers, subs, int(field.NullCount()), 0)
}

func (ctx *arrayLoaderContext) loadUnion(dt quiver.UnionType, pos fieldPos) quiver.ArrayData {
	field := ctx.field()

	// unions carry no validity bitmap of their own on the wire, only
	// the type codes (and value offsets when dense).
	buffers := []*memory.Buffer{nil, ctx.buffer()}
	if dt.Mode() == quiver.DenseMode {
		buffers = append(buffers, ctx.buffer())
	}
	defer releaseBuffers(buffers)

	subs := make([]quiver.ArrayData, dt.NumFields())
	for i, f := range dt.Fields() {
		subs[i] = ctx.loadChild(f.Type, pos.child(int32(i)))
	}
	defer releaseArrayData(subs)

	return array.NewData(dt, int(field.Length()), buffers, subs, 0, 0)
}

func (ctx *arrayLoaderContext) loadRunEndEncoded(dt *quiver.RunEndEncodedType, pos fieldPos) quiver.ArrayData {
	field := ctx.field()

	runEnds := ctx.loadChild(dt.RunEnds(), pos.child(0))
	defer runEnds.Release()
	values := ctx.loadChild(dt.Encoded(), pos.child(1))
	defer values.Release()

	return array.NewData(dt, int(field.Length()), []*memory.Buffer{nil}, []quiver.ArrayData{runEnds, values}, 0, 0)
}

func (ctx *arrayLoaderContext) loadDictionary(dt *quiver.DictionaryType, pos fieldPos) quiver.ArrayData {
	indices := ctx.loadPrimitive(dt)
	defer indices.Release()

	id, err := ctx.mapper.fieldID(pos)
	if err != nil {
		panic(err)
	}
	dict, ok := ctx.memo[id]
	if !ok {
		panic(errors.Errorf("quiver/ipc: no dictionary batch seen for dictionary id %d", id))
	}

	return array.NewDataWithDictionary(dt, indices.Len(), indices.Buffers(), indices.NullN(), indices.Offset(), dict.(*array.Data))
}

// concatDictValues appends the values of a delta dictionary batch to the
// previously accumulated dictionary. Only flat value types can be
// concatenated; a delta against a nested dictionary is an error.
func concatDictValues(mem memory.Allocator, a, b quiver.ArrayData) (quiver.ArrayData, error) {
	if !quiver.TypeEqual(a.DataType(), b.DataType()) {
		return nil, errors.Errorf("quiver/ipc: delta dictionary type %v does not match %v", b.DataType(), a.DataType())
	}

	length := a.Len() + b.Len()
	nulls := a.NullN() + b.NullN()

	var validity *memory.Buffer
	if nulls > 0 {
		validity = memory.NewResizableBuffer(mem)
		validity.Resize(int(bitutil.BytesForBits(int64(length))))
		copyValidity(validity.Bytes(), a, 0)
		copyValidity(validity.Bytes(), b, a.Len())
		defer validity.Release()
	}

	switch dt := a.DataType().(type) {
	case *quiver.BooleanType:
		values := memory.NewResizableBuffer(mem)
		values.Resize(int(bitutil.BytesForBits(int64(length))))
		defer values.Release()
		bitutil.CopyBitmap(a.Buffers()[1].Bytes(), a.Offset(), a.Len(), values.Bytes(), 0)
		bitutil.CopyBitmap(b.Buffers()[1].Bytes(), b.Offset(), b.Len(), values.Bytes(), a.Len())
		return array.NewData(dt, length, []*memory.Buffer{validity, values}, nil, nulls, 0), nil

	case quiver.FixedWidthDataType:
		w := dt.Bytes()
		values := memory.NewResizableBuffer(mem)
		values.Resize(length * w)
		defer values.Release()
		copy(values.Bytes(), a.Buffers()[1].Bytes()[a.Offset()*w:(a.Offset()+a.Len())*w])
		copy(values.Bytes()[a.Len()*w:], b.Buffers()[1].Bytes()[b.Offset()*w:(b.Offset()+b.Len())*w])
		return array.NewData(dt, length, []*memory.Buffer{validity, values}, nil, nulls, 0), nil

	case *quiver.BinaryType:
		return concatBinaryValues[int32](mem, dt, a, b, validity, nulls)
	case *quiver.StringType:
		return concatBinaryValues[int32](mem, dt, a, b, validity, nulls)
	case *quiver.LargeBinaryType:
		return concatBinaryValues[int64](mem, dt, a, b, validity, nulls)
	case *quiver.LargeStringType:
		return concatBinaryValues[int64](mem, dt, a, b, validity, nulls)
	}

	return nil, errors.Errorf("quiver/ipc: delta dictionaries of type %v are not supported", a.DataType())
}

func copyValidity(dst []byte, data quiver.ArrayData, dstOffset int) {
	if bitmap := data.Buffers()[0]; bitmap != nil {
		bitutil.CopyBitmap(bitmap.Bytes(), data.Offset(), data.Len(), dst, dstOffset)
		return
	}
	bitutil.SetBitsTo(dst, int64(dstOffset), int64(data.Len()), true)
}

func concatBinaryValues[O int32 | int64](mem memory.Allocator, dt quiver.DataType, a, b quiver.ArrayData, validity *memory.Buffer, nulls int) (quiver.ArrayData, error) {
	var (
		aoff = quiver.GetData[O](a.Buffers()[1].Bytes())[a.Offset() : a.Offset()+a.Len()+1]
		boff = quiver.GetData[O](b.Buffers()[1].Bytes())[b.Offset() : b.Offset()+b.Len()+1]

		adata = a.Buffers()[2].Bytes()[aoff[0]:aoff[a.Len()]]
		bdata = b.Buffers()[2].Bytes()[boff[0]:boff[b.Len()]]

		length = a.Len() + b.Len()
	)

	offsets := memory.NewResizableBuffer(mem)
	offsets.Resize((length + 1) * int(unsafe.Sizeof(O(0))))
	defer offsets.Release()

	dst := quiver.GetData[O](offsets.Bytes())
	for i, o := range aoff {
		dst[i] = o - aoff[0]
	}
	shift := O(len(adata)) - boff[0]
	for i, o := range boff[1:] {
		dst[a.Len()+1+i] = o + shift
	}

	values := memory.NewResizableBuffer(mem)
	values.Resize(len(adata) + len(bdata))
	defer values.Release()
	copy(values.Bytes(), adata)
	copy(values.Bytes()[len(adata):], bdata)

	return array.NewData(dt, length, []*memory.Buffer{validity, offsets, values}, nil, nulls, 0), nil
}

func releaseBuffers(buffers []*memory.Buffer) {
	for _, b := range buffers {
		if b != nil {
			b.Release()
		}
	}
}

func releaseArrayData(data []quiver.ArrayData) {
	for _, d := range data {
		if d != nil {
			d.Release()
		}
	}
}
