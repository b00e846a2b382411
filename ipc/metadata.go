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
	"io"
	"strconv"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"
	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/flatbuf"
	"github.com/quiverio/quiver/memory"
)

// Magic string identifying an Apache Arrow file.
var Magic = []byte("ARROW1")

const (
	currentMetadataVersion = MetadataV5
	minMetadataVersion     = MetadataV4

	// constants for the extension type metadata keys for the type name and
	// any extension metadata to be passed to deserialize.
	ExtensionTypeKeyName     = "ARROW:extension:name"
	ExtensionMetadataKeyName = "ARROW:extension:metadata"

	// ARROW-109: We set this number arbitrarily to help catch user mistakes. For
	// deeply nested schemas, it is expected the user will indicate explicitly the
	// maximum allowed recursion depth
	kMaxNestingDepth = 64

	kIPCContToken uint32 = 0xFFFFFFFF

	kArrowAlignment    = 64 // buffers are padded to this number of bytes
	kArrowIPCAlignment = 8  // align on 8-byte boundaries in IPC
)

var (
	paddingBytes  [kArrowAlignment]byte
	kEOS          = [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0} // end of stream message
	kIPCContBytes = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
)

func paddedLength(nbytes int64, alignment int32) int64 {
	align := int64(alignment)
	return ((nbytes + align - 1) / align) * align
}

type fieldMetadata struct {
	Len    int64
	Nulls  int64
	Offset int64
}

type bufferMetadata struct {
	Offset int64 // relative offset into the memory page to the starting byte of the buffer
	Len    int64 // absolute length in bytes of the buffer
}

type fileBlock struct {
	Offset int64
	Meta   int32
	Body   int64

	r io.ReaderAt
}

func fileBlocksToFB(b *flatbuffers.Builder, blocks []fileBlock, start startVecFunc) flatbuffers.UOffsetT {
	start(b, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		blk := blocks[i]
		flatbuf.CreateBlock(b, blk.Offset, blk.Meta, blk.Body)
	}

	return b.EndVector(len(blocks))
}

func (blk fileBlock) NewMessage() (*Message, error) {
	var (
		err error
		buf []byte
		r   = blk.section()
	)

	buf = make([]byte, blk.Meta)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, errors.Wrap(err, "quiver/ipc: could not read message metadata")
	}

	prefix := 0
	switch binary32(buf) {
	case 0:
		return nil, errors.New("quiver/ipc: invalid metadata length")
	case kIPCContToken:
		prefix = 8
	default:
		// pre-1.0.0 format with no continuation token
		prefix = 4
	}

	meta := memory.NewBufferBytes(buf[prefix:]) // drop buf-size already known from blk.Meta

	buf = make([]byte, blk.Body)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, errors.Wrap(err, "quiver/ipc: could not read message body")
	}
	body := memory.NewBufferBytes(buf)

	return NewMessage(meta, body), nil
}

func (blk fileBlock) section() io.Reader {
	return io.NewSectionReader(blk.r, blk.Offset, int64(blk.Meta)+blk.Body)
}

func binary32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

type startVecFunc func(b *flatbuffers.Builder, n int) flatbuffers.UOffsetT

// fieldPos tracks the position of a field in the depth-first flattening
// of a schema, so dictionary-encoded fields can be assigned stable IDs.
type fieldPos struct {
	path []int32
}

func (f fieldPos) child(i int32) fieldPos {
	path := make([]int32, len(f.path)+1)
	copy(path, f.path)
	path[len(f.path)] = i
	return fieldPos{path: path}
}

func (f fieldPos) String() string {
	var b strings.Builder
	for i, p := range f.path {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(int(p)))
	}
	return b.String()
}

// dictMapper assigns and resolves the dictionary IDs of dictionary-encoded
// fields, keyed by the field's position path in the schema.
type dictMapper struct {
	pathToID map[string]int64
}

func newDictMapper() dictMapper {
	return dictMapper{pathToID: make(map[string]int64)}
}

// importSchema walks the schema depth-first and assigns sequential IDs to
// every dictionary-encoded field.
func (m *dictMapper) importSchema(schema *quiver.Schema) {
	m.pathToID = make(map[string]int64)
	var pos fieldPos
	for i, f := range schema.Fields() {
		m.importField(f, pos.child(int32(i)))
	}
}

func (m *dictMapper) importField(field quiver.Field, pos fieldPos) {
	if _, ok := field.Type.(*quiver.DictionaryType); ok {
		// no descendant of a dictionary-encoded field may itself
		// be dictionary-encoded
		m.pathToID[pos.String()] = int64(len(m.pathToID))
		return
	}
	if nested, ok := field.Type.(quiver.NestedType); ok {
		for i, child := range nested.Fields() {
			m.importField(child, pos.child(int32(i)))
		}
	}
}

func (m *dictMapper) fieldID(pos fieldPos) (int64, error) {
	id, ok := m.pathToID[pos.String()]
	if !ok {
		return -1, errors.Errorf("quiver/ipc: no dictionary for field at %q", pos.String())
	}
	return id, nil
}

func (m *dictMapper) numDicts() int { return len(m.pathToID) }

// initFB is a helper function to handle flatbuffers' polymorphism.
func initFB(t interface {
	Table() flatbuffers.Table
	Init([]byte, flatbuffers.UOffsetT)
}, f func(tbl *flatbuffers.Table) bool) {
	tbl := t.Table()
	if !f(&tbl) {
		panic(errors.Errorf("quiver/ipc: could not initialize %T from flatbuffer", t))
	}
	t.Init(tbl.Bytes, tbl.Pos)
}

func fieldFromFB(field *flatbuf.Field, pos fieldPos, memo *dictMapper) (quiver.Field, error) {
	var (
		err error
		o   quiver.Field
	)

	o.Name = string(field.Name())
	o.Nullable = field.Nullable()
	o.Metadata, err = metadataFrom(field)
	if err != nil {
		return o, err
	}

	n := field.ChildrenLength()
	children := make([]quiver.Field, n)
	for i := range children {
		var childFB flatbuf.Field
		if !field.Children(&childFB, i) {
			return o, errors.Errorf("quiver/ipc: could not load field child %d", i)
		}
		child, err := fieldFromFB(&childFB, pos.child(int32(i)), memo)
		if err != nil {
			return o, errors.Wrapf(err, "quiver/ipc: could not convert field child %d", i)
		}
		children[i] = child
	}

	o.Type, err = typeFromFB(field, children)
	if err != nil {
		return o, errors.Wrap(err, "quiver/ipc: could not convert field type")
	}

	if encoding := field.Dictionary(nil); encoding != nil {
		var idxType quiver.DataType = quiver.PrimitiveTypes.Int32
		if fbIdx := encoding.IndexType(nil); fbIdx != nil {
			idxType, err = intFromFB(*fbIdx)
			if err != nil {
				return o, errors.Wrap(err, "quiver/ipc: could not convert dictionary index type")
			}
		}
		o.Type = &quiver.DictionaryType{
			IndexType: idxType,
			ValueType: o.Type,
			Ordered:   encoding.IsOrdered(),
		}
		memo.pathToID[pos.String()] = encoding.Id()
	}

	return o, nil
}

func typeFromFB(field *flatbuf.Field, children []quiver.Field) (quiver.DataType, error) {
	var data flatbuffers.Table
	if !field.Type(&data) {
		return nil, errors.Errorf("quiver/ipc: could not load field type data")
	}

	return concreteTypeFromFB(field.TypeType(), data, children)
}

func concreteTypeFromFB(typ flatbuf.Type, data flatbuffers.Table, children []quiver.Field) (quiver.DataType, error) {
	switch typ {
	case flatbuf.TypeNONE:
		return nil, errors.Errorf("quiver/ipc: Type metadata cannot be none")

	case flatbuf.TypeNull:
		return quiver.Null, nil

	case flatbuf.TypeInt:
		var dt flatbuf.Int
		dt.Init(data.Bytes, data.Pos)
		return intFromFB(dt)

	case flatbuf.TypeFloatingPoint:
		var dt flatbuf.FloatingPoint
		dt.Init(data.Bytes, data.Pos)
		return floatFromFB(dt)

	case flatbuf.TypeBool:
		return quiver.FixedWidthTypes.Boolean, nil

	case flatbuf.TypeBinary:
		return quiver.BinaryTypes.Binary, nil

	case flatbuf.TypeUtf8:
		return quiver.BinaryTypes.String, nil

	case flatbuf.TypeLargeBinary:
		return quiver.BinaryTypes.LargeBinary, nil

	case flatbuf.TypeLargeUtf8:
		return quiver.BinaryTypes.LargeString, nil

	case flatbuf.TypeFixedSizeBinary:
		var dt flatbuf.FixedSizeBinary
		dt.Init(data.Bytes, data.Pos)
		return &quiver.FixedSizeBinaryType{ByteWidth: int(dt.ByteWidth())}, nil

	case flatbuf.TypeList:
		if len(children) != 1 {
			return nil, errors.Errorf("quiver/ipc: List must have exactly 1 child field (got=%d)", len(children))
		}
		return quiver.ListOfField(children[0]), nil

	case flatbuf.TypeLargeList:
		if len(children) != 1 {
			return nil, errors.Errorf("quiver/ipc: LargeList must have exactly 1 child field (got=%d)", len(children))
		}
		return quiver.LargeListOfField(children[0]), nil

	case flatbuf.TypeFixedSizeList:
		if len(children) != 1 {
			return nil, errors.Errorf("quiver/ipc: FixedSizeList must have exactly 1 child field (got=%d)", len(children))
		}
		var dt flatbuf.FixedSizeList
		dt.Init(data.Bytes, data.Pos)
		return quiver.FixedSizeListOfField(dt.ListSize(), children[0]), nil

	case flatbuf.TypeStruct_:
		return quiver.StructOf(children...), nil

	case flatbuf.TypeUnion:
		var dt flatbuf.Union
		dt.Init(data.Bytes, data.Pos)
		return unionFromFB(dt, children)

	case flatbuf.TypeMap:
		if len(children) != 1 {
			return nil, errors.Errorf("quiver/ipc: Map must have exactly 1 child field (got=%d)", len(children))
		}
		entries, ok := children[0].Type.(*quiver.StructType)
		if !ok || entries.NumFields() != 2 {
			return nil, errors.Errorf("quiver/ipc: Map child must be a struct of key and value")
		}
		var dt flatbuf.Map
		dt.Init(data.Bytes, data.Pos)
		m := quiver.MapOf(entries.Field(0).Type, entries.Field(1).Type)
		m.KeysSorted = dt.KeysSorted()
		m.SetItemNullable(entries.Field(1).Nullable)
		return m, nil

	case flatbuf.TypeRunEndEncoded:
		if len(children) != 2 {
			return nil, errors.Errorf("quiver/ipc: RunEndEncoded must have exactly 2 child fields (got=%d)", len(children))
		}
		switch children[0].Type.ID() {
		case quiver.INT16, quiver.INT32, quiver.INT64:
		default:
			return nil, errors.Errorf("quiver/ipc: RunEndEncoded run ends must be int16, int32 or int64 (got=%s)", children[0].Type)
		}
		return quiver.RunEndEncodedOf(children[0].Type, children[1].Type), nil

	default:
		return nil, errors.Wrapf(quiver.ErrNotImplemented, "quiver/ipc: type %v", flatbuf.EnumNamesType[typ])
	}
}

func unionFromFB(data flatbuf.Union, children []quiver.Field) (quiver.DataType, error) {
	codes := make([]quiver.UnionTypeCode, data.TypeIdsLength())
	if len(codes) == 0 {
		codes = make([]quiver.UnionTypeCode, len(children))
		for i := range children {
			codes[i] = quiver.UnionTypeCode(i)
		}
	} else {
		for i := range codes {
			id := data.TypeIds(i)
			if id != int32(quiver.UnionTypeCode(id)) {
				return nil, errors.Errorf("quiver/ipc: union type id out of bounds: %d", id)
			}
			codes[i] = quiver.UnionTypeCode(id)
		}
	}

	switch data.Mode() {
	case flatbuf.UnionModeSparse:
		return quiver.SparseUnionOf(children, codes), nil
	case flatbuf.UnionModeDense:
		return quiver.DenseUnionOf(children, codes), nil
	default:
		return nil, errors.Errorf("quiver/ipc: invalid union mode %v", data.Mode())
	}
}

func intFromFB(data flatbuf.Int) (quiver.DataType, error) {
	bw := data.BitWidth()
	if bw > 64 {
		return nil, errors.Errorf("quiver/ipc: integers with more than 64 bits not implemented (bits=%d)", bw)
	}
	if bw < 8 {
		return nil, errors.Errorf("quiver/ipc: integers with less than 8 bits not implemented (bits=%d)", bw)
	}

	switch bw {
	case 8:
		if !data.IsSigned() {
			return quiver.PrimitiveTypes.Uint8, nil
		}
		return quiver.PrimitiveTypes.Int8, nil

	case 16:
		if !data.IsSigned() {
			return quiver.PrimitiveTypes.Uint16, nil
		}
		return quiver.PrimitiveTypes.Int16, nil

	case 32:
		if !data.IsSigned() {
			return quiver.PrimitiveTypes.Uint32, nil
		}
		return quiver.PrimitiveTypes.Int32, nil

	case 64:
		if !data.IsSigned() {
			return quiver.PrimitiveTypes.Uint64, nil
		}
		return quiver.PrimitiveTypes.Int64, nil
	default:
		return nil, errors.Errorf("quiver/ipc: integers not in cstdint are not implemented")
	}
}

func intToFB(b *flatbuffers.Builder, bw int32, isSigned bool) flatbuffers.UOffsetT {
	flatbuf.IntStart(b)
	flatbuf.IntAddBitWidth(b, bw)
	flatbuf.IntAddIsSigned(b, isSigned)
	return flatbuf.IntEnd(b)
}

func floatFromFB(data flatbuf.FloatingPoint) (quiver.DataType, error) {
	switch p := data.Precision(); p {
	case flatbuf.PrecisionHALF:
		return nil, errors.Errorf("quiver/ipc: float16 not implemented")
	case flatbuf.PrecisionSINGLE:
		return quiver.PrimitiveTypes.Float32, nil
	case flatbuf.PrecisionDOUBLE:
		return quiver.PrimitiveTypes.Float64, nil
	default:
		return nil, errors.Errorf("quiver/ipc: floating point type with %d precision not implemented", p)
	}
}

func floatToFB(b *flatbuffers.Builder, p flatbuf.Precision) flatbuffers.UOffsetT {
	flatbuf.FloatingPointStart(b)
	flatbuf.FloatingPointAddPrecision(b, p)
	return flatbuf.FloatingPointEnd(b)
}

type customMetadataer interface {
	CustomMetadataLength() int
	CustomMetadata(*flatbuf.KeyValue, int) bool
}

func metadataFrom(md customMetadataer) (quiver.Metadata, error) {
	var (
		keys = make([]string, md.CustomMetadataLength())
		vals = make([]string, md.CustomMetadataLength())
	)

	for i := range keys {
		var kv flatbuf.KeyValue
		if !md.CustomMetadata(&kv, i) {
			return quiver.Metadata{}, errors.Errorf("quiver/ipc: could not read key-value %d from flatbuffer", i)
		}
		keys[i] = string(kv.Key())
		vals[i] = string(kv.Value())
	}

	return quiver.NewMetadata(keys, vals), nil
}

func metadataToFB(b *flatbuffers.Builder, meta quiver.Metadata, start startVecFunc) flatbuffers.UOffsetT {
	if meta.Len() == 0 {
		return 0
	}

	n := meta.Len()
	kvs := make([]flatbuffers.UOffsetT, n)
	for i := range kvs {
		k := b.CreateString(meta.Keys()[i])
		v := b.CreateString(meta.Values()[i])
		flatbuf.KeyValueStart(b)
		flatbuf.KeyValueAddKey(b, k)
		flatbuf.KeyValueAddValue(b, v)
		kvs[i] = flatbuf.KeyValueEnd(b)
	}

	start(b, n)
	for i := n - 1; i >= 0; i-- {
		b.PrependUOffsetT(kvs[i])
	}
	return b.EndVector(n)
}

func schemaFromFB(schema *flatbuf.Schema, memo *dictMapper) (*quiver.Schema, error) {
	var (
		err    error
		pos    fieldPos
		fields = make([]quiver.Field, schema.FieldsLength())
	)

	for i := range fields {
		var field flatbuf.Field
		if !schema.Fields(&field, i) {
			return nil, errors.Errorf("quiver/ipc: could not read field %d from schema", i)
		}

		fields[i], err = fieldFromFB(&field, pos.child(int32(i)), memo)
		if err != nil {
			return nil, errors.Wrapf(err, "quiver/ipc: could not convert field %d from flatbuf", i)
		}
	}

	md, err := metadataFrom(schema)
	if err != nil {
		return nil, errors.Wrapf(err, "quiver/ipc: could not convert schema metadata from flatbuf")
	}

	return quiver.NewSchema(fields, &md), nil
}

func schemaToFB(b *flatbuffers.Builder, schema *quiver.Schema, memo *dictMapper) flatbuffers.UOffsetT {
	var pos fieldPos
	fields := make([]flatbuffers.UOffsetT, schema.NumFields())
	for i := range fields {
		fields[i] = fieldToFB(b, pos.child(int32(i)), schema.Field(i), memo)
	}

	flatbuf.SchemaStartFieldsVector(b, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		b.PrependUOffsetT(fields[i])
	}
	fieldsFB := b.EndVector(len(fields))

	metaFB := metadataToFB(b, schema.Metadata(), flatbuf.SchemaStartCustomMetadataVector)

	flatbuf.SchemaStart(b)
	flatbuf.SchemaAddEndianness(b, flatbuf.EndiannessLittle)
	flatbuf.SchemaAddFields(b, fieldsFB)
	flatbuf.SchemaAddCustomMetadata(b, metaFB)
	return flatbuf.SchemaEnd(b)
}

func fieldToFB(b *flatbuffers.Builder, pos fieldPos, field quiver.Field, memo *dictMapper) flatbuffers.UOffsetT {
	var visitor = fieldVisitor{b: b, memo: memo, pos: pos}
	return visitor.result(field)
}

type fieldVisitor struct {
	b      *flatbuffers.Builder
	memo   *dictMapper
	pos    fieldPos
	dtype  flatbuf.Type
	offset flatbuffers.UOffsetT
	kids   []flatbuffers.UOffsetT
}

func (fv *fieldVisitor) visit(field quiver.Field) {
	dt := field.Type
	switch dt := dt.(type) {
	case *quiver.NullType:
		fv.dtype = flatbuf.TypeNull
		flatbuf.NullStart(fv.b)
		fv.offset = flatbuf.NullEnd(fv.b)

	case *quiver.BooleanType:
		fv.dtype = flatbuf.TypeBool
		flatbuf.BoolStart(fv.b)
		fv.offset = flatbuf.BoolEnd(fv.b)

	case *quiver.Uint8Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 8, false)

	case *quiver.Uint16Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 16, false)

	case *quiver.Uint32Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 32, false)

	case *quiver.Uint64Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 64, false)

	case *quiver.Int8Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 8, true)

	case *quiver.Int16Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 16, true)

	case *quiver.Int32Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 32, true)

	case *quiver.Int64Type:
		fv.dtype = flatbuf.TypeInt
		fv.offset = intToFB(fv.b, 64, true)

	case *quiver.Float32Type:
		fv.dtype = flatbuf.TypeFloatingPoint
		fv.offset = floatToFB(fv.b, flatbuf.PrecisionSINGLE)

	case *quiver.Float64Type:
		fv.dtype = flatbuf.TypeFloatingPoint
		fv.offset = floatToFB(fv.b, flatbuf.PrecisionDOUBLE)

	case *quiver.BinaryType:
		fv.dtype = flatbuf.TypeBinary
		flatbuf.BinaryStart(fv.b)
		fv.offset = flatbuf.BinaryEnd(fv.b)

	case *quiver.StringType:
		fv.dtype = flatbuf.TypeUtf8
		flatbuf.Utf8Start(fv.b)
		fv.offset = flatbuf.Utf8End(fv.b)

	case *quiver.LargeBinaryType:
		fv.dtype = flatbuf.TypeLargeBinary
		flatbuf.LargeBinaryStart(fv.b)
		fv.offset = flatbuf.LargeBinaryEnd(fv.b)

	case *quiver.LargeStringType:
		fv.dtype = flatbuf.TypeLargeUtf8
		flatbuf.LargeUtf8Start(fv.b)
		fv.offset = flatbuf.LargeUtf8End(fv.b)

	case *quiver.FixedSizeBinaryType:
		fv.dtype = flatbuf.TypeFixedSizeBinary
		flatbuf.FixedSizeBinaryStart(fv.b)
		flatbuf.FixedSizeBinaryAddByteWidth(fv.b, int32(dt.ByteWidth))
		fv.offset = flatbuf.FixedSizeBinaryEnd(fv.b)

	case *quiver.ListType:
		fv.dtype = flatbuf.TypeList
		fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(0), dt.ElemField(), fv.memo))
		flatbuf.ListStart(fv.b)
		fv.offset = flatbuf.ListEnd(fv.b)

	case *quiver.LargeListType:
		fv.dtype = flatbuf.TypeLargeList
		fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(0), dt.ElemField(), fv.memo))
		flatbuf.LargeListStart(fv.b)
		fv.offset = flatbuf.LargeListEnd(fv.b)

	case *quiver.FixedSizeListType:
		fv.dtype = flatbuf.TypeFixedSizeList
		fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(0), dt.ElemField(), fv.memo))
		flatbuf.FixedSizeListStart(fv.b)
		flatbuf.FixedSizeListAddListSize(fv.b, dt.Len())
		fv.offset = flatbuf.FixedSizeListEnd(fv.b)

	case *quiver.StructType:
		fv.dtype = flatbuf.TypeStruct_
		for i, field := range dt.Fields() {
			fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(int32(i)), field, fv.memo))
		}
		flatbuf.Struct_Start(fv.b)
		fv.offset = flatbuf.Struct_End(fv.b)

	case *quiver.MapType:
		fv.dtype = flatbuf.TypeMap
		fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(0), dt.ValueField(), fv.memo))
		flatbuf.MapStart(fv.b)
		flatbuf.MapAddKeysSorted(fv.b, dt.KeysSorted)
		fv.offset = flatbuf.MapEnd(fv.b)

	case quiver.UnionType:
		fv.dtype = flatbuf.TypeUnion
		for i, field := range dt.Fields() {
			fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(int32(i)), field, fv.memo))
		}
		codes := dt.TypeCodes()
		flatbuf.UnionStartTypeIdsVector(fv.b, len(codes))
		for i := len(codes) - 1; i >= 0; i-- {
			fv.b.PrependInt32(int32(codes[i]))
		}
		codesFB := fv.b.EndVector(len(codes))
		flatbuf.UnionStart(fv.b)
		switch dt.Mode() {
		case quiver.SparseMode:
			flatbuf.UnionAddMode(fv.b, flatbuf.UnionModeSparse)
		case quiver.DenseMode:
			flatbuf.UnionAddMode(fv.b, flatbuf.UnionModeDense)
		}
		flatbuf.UnionAddTypeIds(fv.b, codesFB)
		fv.offset = flatbuf.UnionEnd(fv.b)

	case *quiver.DictionaryType:
		// the type slot carries the dictionary value type; the
		// encoding itself goes into the field's dictionary slot.
		fv.visit(quiver.Field{Name: field.Name, Type: dt.ValueType, Nullable: field.Nullable, Metadata: field.Metadata})

	case *quiver.RunEndEncodedType:
		fv.dtype = flatbuf.TypeRunEndEncoded
		for i, field := range dt.Fields() {
			fv.kids = append(fv.kids, fieldToFB(fv.b, fv.pos.child(int32(i)), field, fv.memo))
		}
		flatbuf.RunEndEncodedStart(fv.b)
		fv.offset = flatbuf.RunEndEncodedEnd(fv.b)

	default:
		panic(errors.Wrapf(quiver.ErrNotImplemented, "quiver/ipc: type %v", dt))
	}
}

func (fv *fieldVisitor) result(field quiver.Field) flatbuffers.UOffsetT {
	nameFB := fv.b.CreateString(field.Name)

	fv.visit(field)

	kidsFB := flatbuffers.UOffsetT(0)
	if len(fv.kids) > 0 {
		flatbuf.FieldStartChildrenVector(fv.b, len(fv.kids))
		for i := len(fv.kids) - 1; i >= 0; i-- {
			fv.b.PrependUOffsetT(fv.kids[i])
		}
		kidsFB = fv.b.EndVector(len(fv.kids))
	}

	var dictFB flatbuffers.UOffsetT
	if dt, ok := field.Type.(*quiver.DictionaryType); ok {
		id, err := fv.memo.fieldID(fv.pos)
		if err != nil {
			panic(err)
		}

		idx := dt.IndexType.(quiver.FixedWidthDataType)
		idxFB := intToFB(fv.b, int32(idx.BitWidth()), !quiver.IsUnsignedInteger(idx.ID()))

		flatbuf.DictionaryEncodingStart(fv.b)
		flatbuf.DictionaryEncodingAddId(fv.b, id)
		flatbuf.DictionaryEncodingAddIndexType(fv.b, idxFB)
		flatbuf.DictionaryEncodingAddIsOrdered(fv.b, dt.Ordered)
		dictFB = flatbuf.DictionaryEncodingEnd(fv.b)
	}

	metaFB := metadataToFB(fv.b, field.Metadata, flatbuf.FieldStartCustomMetadataVector)

	flatbuf.FieldStart(fv.b)
	flatbuf.FieldAddName(fv.b, nameFB)
	flatbuf.FieldAddNullable(fv.b, field.Nullable)
	flatbuf.FieldAddTypeType(fv.b, fv.dtype)
	flatbuf.FieldAddType(fv.b, fv.offset)
	if dictFB != 0 {
		flatbuf.FieldAddDictionary(fv.b, dictFB)
	}
	if kidsFB != 0 {
		flatbuf.FieldAddChildren(fv.b, kidsFB)
	}
	if metaFB != 0 {
		flatbuf.FieldAddCustomMetadata(fv.b, metaFB)
	}
	return flatbuf.FieldEnd(fv.b)
}

// writeFileFooter writes the Arrow file footer: the schema plus the blocks
// locating every dictionary batch and record batch in the file.
func writeFileFooter(schema *quiver.Schema, dicts, recs []fileBlock, w io.Writer) error {
	var (
		b    = flatbuffers.NewBuilder(1024)
		memo = newDictMapper()
	)
	memo.importSchema(schema)

	schemaFB := schemaToFB(b, schema, &memo)
	dictsFB := fileBlocksToFB(b, dicts, flatbuf.FooterStartDictionariesVector)
	recsFB := fileBlocksToFB(b, recs, flatbuf.FooterStartRecordBatchesVector)

	flatbuf.FooterStart(b)
	flatbuf.FooterAddVersion(b, flatbuf.MetadataVersion(currentMetadataVersion))
	flatbuf.FooterAddSchema(b, schemaFB)
	flatbuf.FooterAddDictionaries(b, dictsFB)
	flatbuf.FooterAddRecordBatches(b, recsFB)
	footer := flatbuf.FooterEnd(b)

	b.Finish(footer)

	_, err := w.Write(b.FinishedBytes())
	return err
}
