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
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unsafe"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"
	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/bitutil"
	"github.com/quiverio/quiver/internal/flatbuf"
	"github.com/quiverio/quiver/memory"
)

// PayloadWriter is an interface for injecting a different payloadwriter
// allowing more reusability with the Writer object.
type PayloadWriter interface {
	Start() error
	WritePayload(Payload) error
	Close() error
}

// Payload is the underlying message object which is passed to the payload writer
// for actually writing out ipc messages.
type Payload struct {
	msg  MessageType
	meta *memory.Buffer
	body []*memory.Buffer
	size int64 // length of body
}

// Meta returns the buffer containing the metadata for this payload,
// callers must call Release on the buffer.
func (p *Payload) Meta() *memory.Buffer {
	p.meta.Retain()
	return p.meta
}

// SerializeBody serializes the body buffers and writes them to the provided
// writer, padding each buffer to an 8-byte boundary.
func (p *Payload) SerializeBody(w io.Writer) error {
	for _, buf := range p.body {
		if buf == nil {
			continue
		}

		size := int64(buf.Len())
		padding := bitutil.CeilByte64(size) - size
		if size > 0 {
			if _, err := w.Write(buf.Bytes()); err != nil {
				return errors.Wrap(err, "quiver/ipc: could not write payload message body")
			}
		}

		if padding > 0 {
			if _, err := w.Write(paddingBytes[:padding]); err != nil {
				return errors.Wrap(err, "quiver/ipc: could not write payload message padding")
			}
		}
	}
	return nil
}

func (p *Payload) Release() {
	if p.meta != nil {
		p.meta.Release()
		p.meta = nil
	}
	for i, b := range p.body {
		if b == nil {
			continue
		}
		b.Release()
		p.body[i] = nil
	}
	p.body = p.body[:0]
}

type payloads []Payload

func (ps payloads) Release() {
	for i := range ps {
		ps[i].Release()
	}
}

// Writer is an Arrow stream writer.
type Writer struct {
	w io.Writer

	mem memory.Allocator
	pw  PayloadWriter

	started        bool
	schema         *quiver.Schema
	codec          flatbuf.CompressionType
	emitDictDeltas bool

	// the file format forbids replacing a dictionary once written,
	// readers resolve all dictionaries before any record batch.
	fileFormat bool

	// map of the last written dictionaries by id
	// so we can avoid writing the same dictionary over and over.
	lastWrittenDicts map[int64]quiver.ArrayData
	mapper           dictMapper
}

// NewWriterWithPayloadWriter constructs a writer with the provided payload writer
// instead of the default stream payload writer.
func NewWriterWithPayloadWriter(pw PayloadWriter, opts ...Option) *Writer {
	cfg := newConfig(opts...)
	return &Writer{
		mem:            cfg.alloc,
		pw:             pw,
		schema:         cfg.schema,
		codec:          cfg.codec,
		emitDictDeltas: cfg.emitDictDeltas,
	}
}

// NewWriter returns a writer that writes records to the provided output stream.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	cfg := newConfig(opts...)
	return &Writer{
		w:              w,
		mem:            cfg.alloc,
		pw:             &streamPayloadWriter{w: w},
		schema:         cfg.schema,
		codec:          cfg.codec,
		emitDictDeltas: cfg.emitDictDeltas,
	}
}

func (w *Writer) Close() error {
	if !w.started {
		if err := w.start(); err != nil {
			return err
		}
	}

	if w.pw == nil {
		return nil
	}

	err := w.pw.Close()
	w.pw = nil
	if err != nil {
		return errors.Wrap(err, "quiver/ipc: could not close payload writer")
	}
	return nil
}

func (w *Writer) Write(rec quiver.Record) (err error) {
	defer func() {
		if pErr := recover(); pErr != nil {
			err = errors.Errorf("quiver/ipc: unknown error while writing: %v", pErr)
		}
	}()

	if !w.started {
		if err := w.start(); err != nil {
			return err
		}
	}

	schema := rec.Schema()
	if schema == nil || !schema.Equal(w.schema) {
		return errInconsistentSchema
	}

	if err := w.writeDictionaries(rec); err != nil {
		return err
	}

	const allow64b = true
	var (
		data = Payload{msg: MessageRecordBatch}
		enc  = newRecordEncoder(w.mem, 0, kMaxNestingDepth, allow64b, w.codec)
	)
	defer data.Release()

	if err := enc.Encode(&data, rec); err != nil {
		return err
	}

	return w.pw.WritePayload(data)
}

func (w *Writer) start() error {
	w.started = true

	w.mapper = newDictMapper()
	w.mapper.importSchema(w.schema)
	w.lastWrittenDicts = make(map[int64]quiver.ArrayData)

	if err := w.pw.Start(); err != nil {
		return err
	}

	// write out schema payloads
	ps := payloadFromSchema(w.schema, w.mem, &w.mapper)
	defer ps.Release()

	for _, data := range ps {
		if err := w.pw.WritePayload(data); err != nil {
			return err
		}
	}

	return nil
}

// writeDictionaries writes the dictionaries of rec which differ from the
// last written ones, either as a delta (when enabled and the previous
// dictionary is a prefix of the new one) or a full replacement.
func (w *Writer) writeDictionaries(rec quiver.Record) error {
	dicts, err := collectDictionaries(rec, &w.mapper)
	if err != nil {
		return err
	}
	defer func() {
		for _, d := range dicts {
			d.Dict.Release()
		}
	}()

	for _, pair := range dicts {
		last, written := w.lastWrittenDicts[pair.ID]
		if written {
			if last == pair.Dict {
				// same dictionary data, nothing to do
				continue
			}

			newDict := array.MakeFromData(pair.Dict)
			lastDict := array.MakeFromData(last)
			lastLen := int64(lastDict.Len())
			equal := int64(newDict.Len()) == lastLen && array.Equal(newDict, lastDict)
			delta := !equal && w.emitDictDeltas &&
				int64(newDict.Len()) > lastLen &&
				array.ArraySliceEqual(newDict, 0, lastLen, lastDict, 0, lastLen)
			lastDict.Release()

			switch {
			case equal:
				newDict.Release()
				continue
			case delta:
				suffix := array.NewSlice(newDict, lastLen, int64(newDict.Len()))
				err = w.writeDictionaryBatch(pair.ID, suffix.Data(), true)
				suffix.Release()
				newDict.Release()
				if err != nil {
					return err
				}
				last.Release()
				pair.Dict.Retain()
				w.lastWrittenDicts[pair.ID] = pair.Dict
				continue
			default:
				newDict.Release()
				if w.fileFormat {
					return errors.Errorf("quiver/ipc: dictionary %d changed between record batches, the file format only supports deltas", pair.ID)
				}
				// fall through to a full replacement
				last.Release()
			}
		}

		if err := w.writeDictionaryBatch(pair.ID, pair.Dict, false); err != nil {
			return err
		}
		pair.Dict.Retain()
		w.lastWrittenDicts[pair.ID] = pair.Dict
	}
	return nil
}

func (w *Writer) writeDictionaryBatch(id int64, dict quiver.ArrayData, isDelta bool) error {
	const allow64b = true
	var (
		data = Payload{msg: MessageDictionaryBatch}
		enc  = newRecordEncoder(w.mem, 0, kMaxNestingDepth, allow64b, w.codec)
	)
	defer data.Release()

	if err := enc.EncodeDictionary(&data, id, isDelta, dict); err != nil {
		return err
	}
	return w.pw.WritePayload(data)
}

// dictPair is a dictionary found while traversing a record's columns,
// keyed by the field id assigned when the schema message was written.
type dictPair struct {
	ID   int64
	Dict quiver.ArrayData
}

func collectDictionaries(rec quiver.Record, mapper *dictMapper) ([]dictPair, error) {
	var (
		dicts []dictPair
		pos   fieldPos
	)
	for i := 0; i < int(rec.NumCols()); i++ {
		if err := visitDictionaries(pos.child(int32(i)), rec.Column(i).Data(), mapper, &dicts); err != nil {
			for _, d := range dicts {
				d.Dict.Release()
			}
			return nil, errors.Wrapf(err, "quiver/ipc: could not collect dictionaries for column %d (%q)", i, rec.ColumnName(i))
		}
	}
	return dicts, nil
}

func visitDictionaries(pos fieldPos, data quiver.ArrayData, mapper *dictMapper, out *[]dictPair) error {
	if data.DataType().ID() == quiver.DICTIONARY {
		id, err := mapper.fieldID(pos)
		if err != nil {
			return err
		}
		dict := data.Dictionary()
		dict.Retain()
		*out = append(*out, dictPair{ID: id, Dict: dict})
		// dictionary data itself may be dictionary encoded, but a
		// descendant of a dictionary field may not be.
		return nil
	}
	for i, child := range data.Children() {
		if err := visitDictionaries(pos.child(int32(i)), child, mapper, out); err != nil {
			return err
		}
	}
	return nil
}

type streamPayloadWriter struct {
	w io.Writer
}

func (w *streamPayloadWriter) Start() error { return nil }

func (w *streamPayloadWriter) WritePayload(p Payload) error {
	_, err := writeIPCPayload(w.w, p)
	return err
}

func (w *streamPayloadWriter) Close() error {
	_, err := w.w.Write(kEOS[:])
	return err
}

var _ PayloadWriter = (*streamPayloadWriter)(nil)

func writeIPCPayload(w io.Writer, p Payload) (int, error) {
	n, err := writeMessage(p.meta, kArrowIPCAlignment, w)
	if err != nil {
		return n, err
	}

	if err := p.SerializeBody(w); err != nil {
		return n, err
	}

	return n, nil
}

// writeMessage writes the message metadata buffer prefixed with the
// continuation token and the aligned metadata size, and returns the
// number of bytes written.
func writeMessage(msg *memory.Buffer, alignment int32, w io.Writer) (int, error) {
	// ensure the message length is a multiple of the alignment, taking
	// into account the continuation token and the length prefix.
	paddedMsgLen := int32(msg.Len()) + 8
	remainder := paddedMsgLen % alignment
	if remainder != 0 {
		paddedMsgLen += alignment - remainder
	}

	if _, err := w.Write(kIPCContBytes[:]); err != nil {
		return 0, errors.Wrap(err, "quiver/ipc: could not write continuation token")
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(paddedMsgLen-8))
	if _, err := w.Write(buf[:]); err != nil {
		return 0, errors.Wrap(err, "quiver/ipc: could not write message length")
	}

	if _, err := w.Write(msg.Bytes()); err != nil {
		return 0, errors.Wrap(err, "quiver/ipc: could not write message metadata")
	}

	if padding := paddedMsgLen - 8 - int32(msg.Len()); padding > 0 {
		if _, err := w.Write(paddingBytes[:padding]); err != nil {
			return 0, errors.Wrap(err, "quiver/ipc: could not write message padding")
		}
	}

	return int(paddedMsgLen), nil
}

func payloadFromSchema(schema *quiver.Schema, mem memory.Allocator, mapper *dictMapper) payloads {
	ps := make(payloads, 1)
	ps[0].msg = MessageSchema
	ps[0].meta = writeSchemaMessage(schema, mem, mapper)
	return ps
}

func writeMessageFB(b *flatbuffers.Builder, mem memory.Allocator, hdrType flatbuf.MessageHeader, hdr flatbuffers.UOffsetT, bodyLen int64) *memory.Buffer {
	flatbuf.MessageStart(b)
	flatbuf.MessageAddVersion(b, flatbuf.MetadataVersion(currentMetadataVersion))
	flatbuf.MessageAddHeaderType(b, hdrType)
	flatbuf.MessageAddHeader(b, hdr)
	flatbuf.MessageAddBodyLength(b, bodyLen)
	msg := flatbuf.MessageEnd(b)
	b.Finish(msg)

	raw := b.FinishedBytes()
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(len(raw))
	copy(buf.Bytes(), raw)
	return buf
}

func writeSchemaMessage(schema *quiver.Schema, mem memory.Allocator, mapper *dictMapper) *memory.Buffer {
	b := flatbuffers.NewBuilder(1024)
	schemaFB := schemaToFB(b, schema, mapper)
	return writeMessageFB(b, mem, flatbuf.MessageHeaderSchema, schemaFB, 0)
}

func writeFieldNodes(b *flatbuffers.Builder, fields []fieldMetadata, start startVecFunc) flatbuffers.UOffsetT {
	start(b, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		field := fields[i]
		if field.Offset != 0 {
			panic(errors.Errorf("quiver/ipc: field metadata for IPC must have offset 0"))
		}
		flatbuf.CreateFieldNode(b, field.Len, field.Nulls)
	}

	return b.EndVector(len(fields))
}

func writeBuffers(b *flatbuffers.Builder, buffers []bufferMetadata, start startVecFunc) flatbuffers.UOffsetT {
	start(b, len(buffers))
	for i := len(buffers) - 1; i >= 0; i-- {
		buffer := buffers[i]
		flatbuf.CreateBuffer(b, buffer.Offset, buffer.Len)
	}
	return b.EndVector(len(buffers))
}

func recordToFB(b *flatbuffers.Builder, size, bodyLength int64, fields []fieldMetadata, meta []bufferMetadata, codec flatbuf.CompressionType) flatbuffers.UOffsetT {
	nodesFB := writeFieldNodes(b, fields, flatbuf.RecordBatchStartNodesVector)
	buffersFB := writeBuffers(b, meta, flatbuf.RecordBatchStartBuffersVector)

	var compressFB flatbuffers.UOffsetT
	if codec != -1 {
		flatbuf.BodyCompressionStart(b)
		flatbuf.BodyCompressionAddCodec(b, codec)
		flatbuf.BodyCompressionAddMethod(b, flatbuf.BodyCompressionMethodBUFFER)
		compressFB = flatbuf.BodyCompressionEnd(b)
	}

	flatbuf.RecordBatchStart(b)
	flatbuf.RecordBatchAddLength(b, size)
	flatbuf.RecordBatchAddNodes(b, nodesFB)
	flatbuf.RecordBatchAddBuffers(b, buffersFB)
	if codec != -1 {
		flatbuf.RecordBatchAddCompression(b, compressFB)
	}

	return flatbuf.RecordBatchEnd(b)
}

func writeRecordMessage(mem memory.Allocator, size, bodyLength int64, fields []fieldMetadata, meta []bufferMetadata, codec flatbuf.CompressionType) *memory.Buffer {
	b := flatbuffers.NewBuilder(0)
	recFB := recordToFB(b, size, bodyLength, fields, meta, codec)
	return writeMessageFB(b, mem, flatbuf.MessageHeaderRecordBatch, recFB, bodyLength)
}

func writeDictionaryMessage(mem memory.Allocator, id int64, isDelta bool, size, bodyLength int64, fields []fieldMetadata, meta []bufferMetadata, codec flatbuf.CompressionType) *memory.Buffer {
	b := flatbuffers.NewBuilder(0)
	recFB := recordToFB(b, size, bodyLength, fields, meta, codec)

	flatbuf.DictionaryBatchStart(b)
	flatbuf.DictionaryBatchAddId(b, id)
	flatbuf.DictionaryBatchAddData(b, recFB)
	flatbuf.DictionaryBatchAddIsDelta(b, isDelta)
	dictFB := flatbuf.DictionaryBatchEnd(b)
	return writeMessageFB(b, mem, flatbuf.MessageHeaderDictionaryBatch, dictFB, bodyLength)
}

type recordEncoder struct {
	mem memory.Allocator

	fields []fieldMetadata
	meta   []bufferMetadata

	depth    int64
	start    int64
	allow64b bool
	codec    flatbuf.CompressionType
}

func newRecordEncoder(mem memory.Allocator, startOffset, maxDepth int64, allow64b bool, codec flatbuf.CompressionType) *recordEncoder {
	return &recordEncoder{
		mem:      mem,
		start:    startOffset,
		depth:    maxDepth,
		allow64b: allow64b,
		codec:    codec,
	}
}

func (w *recordEncoder) Encode(p *Payload, rec quiver.Record) error {
	if err := w.encode(p, rec); err != nil {
		return err
	}
	return w.encodeMetadata(p, rec.NumRows())
}

func (w *recordEncoder) EncodeDictionary(p *Payload, id int64, isDelta bool, dict quiver.ArrayData) error {
	if err := w.visit(p, dict); err != nil {
		return errors.Wrapf(err, "quiver/ipc: could not encode dictionary %d", id)
	}
	if err := w.finish(p); err != nil {
		return err
	}
	p.meta = writeDictionaryMessage(w.mem, id, isDelta, int64(dict.Len()), p.size, w.fields, w.meta, w.codec)
	return nil
}

func (w *recordEncoder) encode(p *Payload, rec quiver.Record) error {
	for i := 0; i < int(rec.NumCols()); i++ {
		arr := rec.Column(i)
		if err := w.visit(p, arr.Data()); err != nil {
			return errors.Wrapf(err, "quiver/ipc: could not encode column %d (%q)", i, rec.ColumnName(i))
		}
	}
	return w.finish(p)
}

// finish compresses the accumulated body buffers when a codec is
// configured and computes their offsets and lengths, each buffer being
// padded to an 8-byte boundary.
func (w *recordEncoder) finish(p *Payload) error {
	if w.codec != -1 {
		if err := w.compressBodyBuffers(p); err != nil {
			return err
		}
	}

	w.meta = make([]bufferMetadata, len(p.body))
	offset := w.start
	for i, buf := range p.body {
		var (
			size    int64
			padding int64
		)
		// buffer might be nil when the column is all-valid.
		if buf != nil {
			size = int64(buf.Len())
			padding = bitutil.CeilByte64(size) - size
		}
		w.meta[i] = bufferMetadata{
			Offset: offset,
			Len:    size + padding,
		}
		offset += size + padding
	}

	p.size = offset - w.start
	if p.size%kArrowIPCAlignment != 0 {
		return errors.Errorf("quiver/ipc: invalid body length %d, not a multiple of %d", p.size, kArrowIPCAlignment)
	}
	return nil
}

func (w *recordEncoder) compressBodyBuffers(p *Payload) error {
	compress := getCompressor(w.codec)
	for i, buf := range p.body {
		if buf == nil || buf.Len() == 0 {
			continue
		}

		var out bytes.Buffer
		out.Grow(buf.Len())
		if err := compress.compress(&out, buf.Bytes()); err != nil {
			return err
		}

		// a length prefix of -1 marks a buffer stored raw because
		// compressing it did not shrink it.
		compressed := memory.NewResizableBuffer(w.mem)
		if out.Len() < buf.Len() {
			compressed.Resize(quiver.Int64SizeBytes + out.Len())
			binary.LittleEndian.PutUint64(compressed.Bytes(), uint64(buf.Len()))
			copy(compressed.Bytes()[quiver.Int64SizeBytes:], out.Bytes())
		} else {
			compressed.Resize(quiver.Int64SizeBytes + buf.Len())
			binary.LittleEndian.PutUint64(compressed.Bytes(), math.MaxUint64)
			copy(compressed.Bytes()[quiver.Int64SizeBytes:], buf.Bytes())
		}

		buf.Release()
		p.body[i] = compressed
	}
	return nil
}

func (w *recordEncoder) visit(p *Payload, data quiver.ArrayData) error {
	if w.depth <= 0 {
		return errMaxRecursion
	}

	if !w.allow64b && int64(data.Len()) > math.MaxInt32 {
		return errBigArray
	}

	dtype := data.DataType()

	if dtype.ID() == quiver.RUN_END_ENCODED {
		return w.visitRunEndEncoded(p, data)
	}

	// add all 0-length arrays to the metadata as 0-length
	w.fields = append(w.fields, fieldMetadata{
		Len:    int64(data.Len()),
		Nulls:  int64(data.NullN()),
		Offset: 0,
	})

	if dtype.ID() == quiver.NULL {
		// null arrays carry no buffers at all.
		return nil
	}

	// unions encode validity through their children and have no
	// validity bitmap of their own.
	if !quiver.IsUnion(dtype.ID()) {
		switch {
		case data.NullN() > 0:
			bitmap := newTruncatedBitmap(w.mem, int64(data.Offset()), int64(data.Len()), data.Buffers()[0])
			p.body = append(p.body, bitmap)
		default:
			// the whole bitmap would be all-1s, the receiver can
			// reconstruct it from the null count.
			p.body = append(p.body, nil)
		}
	}

	switch dtype := dtype.(type) {
	case *quiver.BooleanType:
		var values *memory.Buffer
		if data.Buffers()[1] != nil {
			values = newTruncatedBitmap(w.mem, int64(data.Offset()), int64(data.Len()), data.Buffers()[1])
		}
		p.body = append(p.body, values)

	case *quiver.FixedSizeBinaryType:
		w.visitFixedWidth(p, data, int64(dtype.ByteWidth))

	case *quiver.DictionaryType:
		// the dictionary itself is written out separately as a
		// dictionary batch, only the indices go in the record body.
		w.visitFixedWidth(p, data, int64(dtype.Bytes()))

	case quiver.FixedWidthDataType:
		w.visitFixedWidth(p, data, int64(dtype.Bytes()))

	case *quiver.BinaryType:
		if err := visitBinary[int32](w, p, data); err != nil {
			return err
		}

	case *quiver.StringType:
		if err := visitBinary[int32](w, p, data); err != nil {
			return err
		}

	case *quiver.LargeBinaryType:
		if err := visitBinary[int64](w, p, data); err != nil {
			return err
		}

	case *quiver.LargeStringType:
		if err := visitBinary[int64](w, p, data); err != nil {
			return err
		}

	case *quiver.ListType:
		if err := visitList[int32](w, p, data); err != nil {
			return err
		}

	case *quiver.MapType:
		if err := visitList[int32](w, p, data); err != nil {
			return err
		}

	case *quiver.LargeListType:
		if err := visitList[int64](w, p, data); err != nil {
			return err
		}

	case *quiver.FixedSizeListType:
		w.depth--
		size := int64(dtype.Len())
		beg := int64(data.Offset()) * size
		end := int64(data.Offset()+data.Len()) * size

		values := array.NewSliceData(data.Children()[0], beg, end)
		err := w.visit(p, values)
		values.Release()
		if err != nil {
			return err
		}
		w.depth++

	case *quiver.StructType:
		w.depth--
		for i, field := range data.Children() {
			var err error
			if data.Offset() != 0 || data.Len() != field.Len() {
				sliced := array.NewSliceData(field, int64(data.Offset()), int64(data.Offset()+data.Len()))
				err = w.visit(p, sliced)
				sliced.Release()
			} else {
				err = w.visit(p, field)
			}
			if err != nil {
				return errors.Wrapf(err, "quiver/ipc: could not visit field %d of struct array", i)
			}
		}
		w.depth++

	case *quiver.SparseUnionType:
		offset, length := int64(data.Offset()), int64(data.Len())
		typeIDs := memory.SliceBuffer(data.Buffers()[1], int(offset), int(length))
		p.body = append(p.body, typeIDs)

		w.depth--
		for i, child := range data.Children() {
			var err error
			if offset != 0 || length != int64(child.Len()) {
				sliced := array.NewSliceData(child, offset, offset+length)
				err = w.visit(p, sliced)
				sliced.Release()
			} else {
				err = w.visit(p, child)
			}
			if err != nil {
				return errors.Wrapf(err, "quiver/ipc: could not visit field %d of sparse union array", i)
			}
		}
		w.depth++

	case *quiver.DenseUnionType:
		offset, length := int64(data.Offset()), int64(data.Len())
		typeIDs := memory.SliceBuffer(data.Buffers()[1], int(offset), int(length))
		p.body = append(p.body, typeIDs)

		voffsets := memory.SliceBuffer(data.Buffers()[2], int(offset)*quiver.Int32SizeBytes, int(length)*quiver.Int32SizeBytes)
		p.body = append(p.body, voffsets)

		// the value offsets are relative to the unsliced children, so
		// the children are written in full.
		w.depth--
		for i, child := range data.Children() {
			if err := w.visit(p, child); err != nil {
				return errors.Wrapf(err, "quiver/ipc: could not visit field %d of dense union array", i)
			}
		}
		w.depth++

	default:
		panic(errors.Errorf("quiver/ipc: unknown array type %T", dtype))
	}

	return nil
}

// visitRunEndEncoded writes a run-end encoded array. The parent carries
// no buffers, only the run ends and values children. A non-zero offset
// or a window shorter than the last run end must be physically applied
// before writing since the layout has no offset of its own.
func (w *recordEncoder) visitRunEndEncoded(p *Payload, data quiver.ArrayData) error {
	w.fields = append(w.fields, fieldMetadata{
		Len:    int64(data.Len()),
		Nulls:  0,
		Offset: 0,
	})

	arr := array.NewRunEndEncodedData(data)
	defer arr.Release()

	runEnds := arr.LogicalRunEndsArray(w.mem)
	defer runEnds.Release()
	values := arr.LogicalValuesArray()
	defer values.Release()

	w.depth--
	defer func() { w.depth++ }()

	if err := w.visit(p, runEnds.Data()); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not visit run ends of run-end encoded array")
	}
	if err := w.visit(p, values.Data()); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not visit values of run-end encoded array")
	}
	return nil
}

func (w *recordEncoder) visitFixedWidth(p *Payload, data quiver.ArrayData, typeWidth int64) {
	values := data.Buffers()[1]
	arrLen := int64(data.Len())

	switch {
	case values == nil:
		p.body = append(p.body, nil)
	case data.Offset() != 0 || arrLen*typeWidth < int64(values.Len()):
		// non-zero offset: slice the buffer
		offset := int64(data.Offset()) * typeWidth
		// send padding if available
		length := minI64(bitutil.CeilByte64(arrLen*typeWidth), int64(values.Len())-offset)
		p.body = append(p.body, memory.SliceBuffer(values, int(offset), int(length)))
	default:
		values.Retain()
		p.body = append(p.body, values)
	}
}

func visitBinary[O int32 | int64](w *recordEncoder, p *Payload, data quiver.ArrayData) error {
	voffsets, err := getZeroBasedValueOffsets[O](w.mem, data)
	if err != nil {
		return err
	}
	p.body = append(p.body, voffsets)

	values := data.Buffers()[2]
	switch {
	case values == nil || voffsets == nil:
		p.body = append(p.body, nil)
	default:
		shifted := quiver.GetData[O](voffsets.Bytes())
		totalDataBytes := int64(shifted[data.Len()])
		offsets := quiver.GetData[O](data.Buffers()[1].Bytes())
		start := int64(offsets[data.Offset()])
		p.body = append(p.body, memory.SliceBuffer(values, int(start), int(totalDataBytes)))
	}
	return nil
}

func visitList[O int32 | int64](w *recordEncoder, p *Payload, data quiver.ArrayData) error {
	voffsets, err := getZeroBasedValueOffsets[O](w.mem, data)
	if err != nil {
		return err
	}
	p.body = append(p.body, voffsets)

	w.depth--
	defer func() { w.depth++ }()

	var (
		child     = data.Children()[0]
		valuesBeg int64
		valuesEnd int64
		mustSlice bool
	)
	if data.Len() > 0 && voffsets != nil {
		offsets := quiver.GetData[O](data.Buffers()[1].Bytes())
		valuesBeg = int64(offsets[data.Offset()])
		valuesEnd = int64(offsets[data.Offset()+data.Len()])
		mustSlice = valuesBeg != 0 || valuesEnd != int64(child.Len())
	} else {
		mustSlice = child.Len() != 0
	}

	if mustSlice {
		sliced := array.NewSliceData(child, valuesBeg, valuesEnd)
		err = w.visit(p, sliced)
		sliced.Release()
	} else {
		err = w.visit(p, child)
	}
	if err != nil {
		return errors.Wrap(err, "quiver/ipc: could not visit list values")
	}
	return nil
}

func (w *recordEncoder) encodeMetadata(p *Payload, nrows int64) error {
	p.meta = writeRecordMessage(w.mem, nrows, p.size, w.fields, w.meta, w.codec)
	return nil
}

// getZeroBasedValueOffsets returns the offsets buffer of data shifted
// down so the first offset is 0, copying when the array was sliced.
func getZeroBasedValueOffsets[O int32 | int64](mem memory.Allocator, data quiver.ArrayData) (*memory.Buffer, error) {
	voffsets := data.Buffers()[1]
	if voffsets == nil || voffsets.Len() == 0 {
		return nil, nil
	}

	var (
		elemSize = int(unsafe.Sizeof(O(0)))
		required = (data.Len() + 1) * elemSize
	)
	if voffsets.Len() < (data.Offset()+data.Len()+1)*elemSize {
		return nil, errors.Errorf("quiver/ipc: offsets buffer is too small: got %d bytes, want %d", voffsets.Len(), (data.Offset()+data.Len()+1)*elemSize)
	}

	offsets := quiver.GetData[O](voffsets.Bytes())[data.Offset() : data.Offset()+data.Len()+1]
	if data.Offset() != 0 || offsets[0] != 0 {
		// rebase the offsets on zero for the sliced array
		shifted := memory.NewResizableBuffer(mem)
		shifted.Resize(required)
		dest := quiver.GetData[O](shifted.Bytes())
		start := offsets[0]
		for i, o := range offsets {
			dest[i] = o - start
		}
		return shifted, nil
	}

	return memory.SliceBuffer(voffsets, 0, required), nil
}

func newTruncatedBitmap(mem memory.Allocator, offset, length int64, input *memory.Buffer) *memory.Buffer {
	if input == nil {
		return nil
	}

	minLength := paddedLength(bitutil.BytesForBits(length), kArrowAlignment)
	switch {
	case offset != 0 || minLength < int64(input.Len()):
		// with a sliced array / non-zero offset, we must copy the bitmap
		buf := memory.NewResizableBuffer(mem)
		buf.Resize(int(minLength))
		bitutil.CopyBitmap(input.Bytes(), int(offset), int(length), buf.Bytes(), 0)
		return buf
	default:
		input.Retain()
		return input
	}
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
