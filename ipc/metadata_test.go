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
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/require"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/flatbuf"
)

func roundtripSchema(t *testing.T, schema *quiver.Schema) *quiver.Schema {
	t.Helper()

	b := flatbuffers.NewBuilder(0)
	wmemo := newDictMapper()
	wmemo.importSchema(schema)
	off := schemaToFB(b, schema, &wmemo)
	b.Finish(off)

	fb := flatbuf.GetRootAsSchema(b.FinishedBytes(), 0)
	rmemo := newDictMapper()
	got, err := schemaFromFB(fb, &rmemo)
	require.NoError(t, err)
	return got
}

func TestSchemaRoundtrip(t *testing.T) {
	meta := quiver.NewMetadata([]string{"k1", "k2"}, []string{"v1", "v2"})

	for _, tc := range []struct {
		name   string
		schema *quiver.Schema
	}{
		{
			name: "primitives",
			schema: quiver.NewSchema([]quiver.Field{
				{Name: "b", Type: quiver.FixedWidthTypes.Boolean, Nullable: true},
				{Name: "i8", Type: quiver.PrimitiveTypes.Int8},
				{Name: "i16", Type: quiver.PrimitiveTypes.Int16},
				{Name: "i32", Type: quiver.PrimitiveTypes.Int32},
				{Name: "i64", Type: quiver.PrimitiveTypes.Int64},
				{Name: "u8", Type: quiver.PrimitiveTypes.Uint8},
				{Name: "u16", Type: quiver.PrimitiveTypes.Uint16},
				{Name: "u32", Type: quiver.PrimitiveTypes.Uint32},
				{Name: "u64", Type: quiver.PrimitiveTypes.Uint64},
				{Name: "f32", Type: quiver.PrimitiveTypes.Float32},
				{Name: "f64", Type: quiver.PrimitiveTypes.Float64},
			}, &meta),
		},
		{
			name: "binaries",
			schema: quiver.NewSchema([]quiver.Field{
				{Name: "bin", Type: quiver.BinaryTypes.Binary, Nullable: true},
				{Name: "str", Type: quiver.BinaryTypes.String, Nullable: true},
				{Name: "lbin", Type: quiver.BinaryTypes.LargeBinary, Nullable: true},
				{Name: "lstr", Type: quiver.BinaryTypes.LargeString, Nullable: true},
				{Name: "fsb", Type: &quiver.FixedSizeBinaryType{ByteWidth: 7}, Nullable: true},
			}, nil),
		},
		{
			name: "nested",
			schema: quiver.NewSchema([]quiver.Field{
				{Name: "null", Type: quiver.Null, Nullable: true},
				{Name: "list", Type: quiver.ListOf(quiver.PrimitiveTypes.Int32), Nullable: true},
				{Name: "llist", Type: quiver.LargeListOf(quiver.PrimitiveTypes.Int32), Nullable: true},
				{Name: "fslist", Type: quiver.FixedSizeListOf(4, quiver.PrimitiveTypes.Float64), Nullable: true},
				{Name: "struct", Type: quiver.StructOf(
					quiver.Field{Name: "f1", Type: quiver.PrimitiveTypes.Int64, Nullable: true},
					quiver.Field{Name: "f2", Type: quiver.BinaryTypes.String, Nullable: true},
				), Nullable: true},
				{Name: "map", Type: quiver.MapOf(quiver.BinaryTypes.String, quiver.PrimitiveTypes.Int32), Nullable: true},
			}, nil),
		},
		{
			name: "unions",
			schema: quiver.NewSchema([]quiver.Field{
				{Name: "sparse", Type: quiver.SparseUnionOf(
					[]quiver.Field{
						{Name: "u0", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
						{Name: "u1", Type: quiver.BinaryTypes.String, Nullable: true},
					},
					[]quiver.UnionTypeCode{5, 10},
				), Nullable: true},
				{Name: "dense", Type: quiver.DenseUnionOf(
					[]quiver.Field{
						{Name: "u0", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
					},
					[]quiver.UnionTypeCode{2},
				), Nullable: true},
			}, nil),
		},
		{
			name: "dictionaries",
			schema: quiver.NewSchema([]quiver.Field{
				{Name: "d0", Type: &quiver.DictionaryType{
					IndexType: quiver.PrimitiveTypes.Int16,
					ValueType: quiver.BinaryTypes.String,
				}, Nullable: true},
				{Name: "d1", Type: &quiver.DictionaryType{
					IndexType: quiver.PrimitiveTypes.Int32,
					ValueType: quiver.PrimitiveTypes.Float64,
					Ordered:   true,
				}, Nullable: true},
			}, nil),
		},
		{
			name: "run_end_encoded",
			schema: quiver.NewSchema([]quiver.Field{
				{Name: "ree", Type: quiver.RunEndEncodedOf(quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String)},
			}, nil),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := roundtripSchema(t, tc.schema)
			if !got.Equal(tc.schema) {
				t.Fatalf("schema differs:\ngot= %v\nwant=%v", got, tc.schema)
			}
			require.Equal(t, tc.schema.Metadata().Len(), got.Metadata().Len())
		})
	}
}

// unsupportedType stands in for an Arrow tag outside the supported set.
type unsupportedType struct{}

func (unsupportedType) ID() quiver.Type     { return quiver.Type(-1) }
func (unsupportedType) Name() string        { return "unsupported" }
func (unsupportedType) String() string      { return "unsupported" }
func (unsupportedType) Fingerprint() string { return "" }

func TestFieldToFBUnsupportedType(t *testing.T) {
	b := flatbuffers.NewBuilder(0)
	memo := newDictMapper()

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok, "serializing an unsupported type must panic with an error")
		require.ErrorIs(t, err, quiver.ErrNotImplemented)
	}()
	fieldToFB(b, fieldPos{}.child(0), quiver.Field{Name: "x", Type: unsupportedType{}}, &memo)
}

func TestDictMapperAssignsStableIDs(t *testing.T) {
	dt := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int16, ValueType: quiver.BinaryTypes.String}
	schema := quiver.NewSchema([]quiver.Field{
		{Name: "a", Type: dt, Nullable: true},
		{Name: "b", Type: quiver.ListOf(dt), Nullable: true},
	}, nil)

	b := flatbuffers.NewBuilder(0)
	memo := newDictMapper()
	memo.importSchema(schema)
	require.Equal(t, 2, memo.numDicts())

	off := schemaToFB(b, schema, &memo)
	b.Finish(off)

	// reading the schema back must reproduce the same field->id mapping.
	fb := flatbuf.GetRootAsSchema(b.FinishedBytes(), 0)
	rmemo := newDictMapper()
	_, err := schemaFromFB(fb, &rmemo)
	require.NoError(t, err)
	require.Equal(t, memo.numDicts(), rmemo.numDicts())
}
