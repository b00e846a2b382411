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

package quiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsInteger(INT8))
	assert.True(t, IsInteger(UINT64))
	assert.False(t, IsInteger(FLOAT32))

	assert.True(t, IsUnsignedInteger(UINT16))
	assert.False(t, IsUnsignedInteger(INT16))

	assert.True(t, IsFloating(FLOAT64))
	assert.False(t, IsFloating(INT64))

	assert.True(t, IsPrimitive(BOOL))
	assert.False(t, IsPrimitive(STRING))

	assert.True(t, IsBaseBinary(LARGE_STRING))
	assert.False(t, IsBaseBinary(FIXED_SIZE_BINARY))

	assert.True(t, IsNested(LIST))
	assert.True(t, IsNested(RUN_END_ENCODED))
	assert.False(t, IsNested(DICTIONARY))

	assert.True(t, IsUnion(SPARSE_UNION))
	assert.True(t, IsUnion(DENSE_UNION))
	assert.False(t, IsUnion(STRUCT))
}

func TestTypeEqual(t *testing.T) {
	for _, tc := range []struct {
		left, right DataType
		want        bool
	}{
		{nil, nil, true},
		{PrimitiveTypes.Int32, nil, false},
		{PrimitiveTypes.Int32, PrimitiveTypes.Int32, true},
		{PrimitiveTypes.Int32, PrimitiveTypes.Int64, false},
		{BinaryTypes.String, BinaryTypes.String, true},
		{BinaryTypes.String, BinaryTypes.LargeString, false},
		{&FixedSizeBinaryType{ByteWidth: 3}, &FixedSizeBinaryType{ByteWidth: 3}, true},
		{&FixedSizeBinaryType{ByteWidth: 3}, &FixedSizeBinaryType{ByteWidth: 7}, false},
		{ListOf(PrimitiveTypes.Int32), ListOf(PrimitiveTypes.Int32), true},
		{ListOf(PrimitiveTypes.Int32), ListOf(PrimitiveTypes.Int64), false},
		{ListOf(PrimitiveTypes.Int32), LargeListOf(PrimitiveTypes.Int32), false},
		{FixedSizeListOf(2, PrimitiveTypes.Int32), FixedSizeListOf(2, PrimitiveTypes.Int32), true},
		{FixedSizeListOf(2, PrimitiveTypes.Int32), FixedSizeListOf(3, PrimitiveTypes.Int32), false},
		{
			StructOf(Field{Name: "f", Type: PrimitiveTypes.Int32}),
			StructOf(Field{Name: "f", Type: PrimitiveTypes.Int32}),
			true,
		},
		{
			StructOf(Field{Name: "f", Type: PrimitiveTypes.Int32}),
			StructOf(Field{Name: "g", Type: PrimitiveTypes.Int32}),
			false,
		},
		{
			MapOf(BinaryTypes.String, PrimitiveTypes.Int32),
			MapOf(BinaryTypes.String, PrimitiveTypes.Int32),
			true,
		},
		{
			MapOf(BinaryTypes.String, PrimitiveTypes.Int32),
			MapOf(BinaryTypes.String, PrimitiveTypes.Int64),
			false,
		},
		{
			SparseUnionOf([]Field{{Name: "u", Type: PrimitiveTypes.Int32, Nullable: true}}, []UnionTypeCode{1}),
			SparseUnionOf([]Field{{Name: "u", Type: PrimitiveTypes.Int32, Nullable: true}}, []UnionTypeCode{1}),
			true,
		},
		{
			SparseUnionOf([]Field{{Name: "u", Type: PrimitiveTypes.Int32, Nullable: true}}, []UnionTypeCode{1}),
			DenseUnionOf([]Field{{Name: "u", Type: PrimitiveTypes.Int32, Nullable: true}}, []UnionTypeCode{1}),
			false,
		},
		{
			SparseUnionOf([]Field{{Name: "u", Type: PrimitiveTypes.Int32, Nullable: true}}, []UnionTypeCode{1}),
			SparseUnionOf([]Field{{Name: "u", Type: PrimitiveTypes.Int32, Nullable: true}}, []UnionTypeCode{2}),
			false,
		},
		{
			DictionaryOf(PrimitiveTypes.Int16, BinaryTypes.String),
			&DictionaryType{IndexType: PrimitiveTypes.Int16, ValueType: BinaryTypes.String},
			true,
		},
		{
			&DictionaryType{IndexType: PrimitiveTypes.Int16, ValueType: BinaryTypes.String},
			&DictionaryType{IndexType: PrimitiveTypes.Int32, ValueType: BinaryTypes.String},
			false,
		},
		{
			&DictionaryType{IndexType: PrimitiveTypes.Int16, ValueType: BinaryTypes.String},
			&DictionaryType{IndexType: PrimitiveTypes.Int16, ValueType: BinaryTypes.String, Ordered: true},
			false,
		},
		{
			RunEndEncodedOf(PrimitiveTypes.Int32, BinaryTypes.String),
			RunEndEncodedOf(PrimitiveTypes.Int32, BinaryTypes.String),
			true,
		},
		{
			RunEndEncodedOf(PrimitiveTypes.Int32, BinaryTypes.String),
			RunEndEncodedOf(PrimitiveTypes.Int64, BinaryTypes.String),
			false,
		},
	} {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tc.want, TypeEqual(tc.left, tc.right), "TypeEqual(%v, %v)", tc.left, tc.right)
		})
	}
}

func TestTypeEqualCheckMetadata(t *testing.T) {
	md1 := NewMetadata([]string{"k"}, []string{"v"})
	md2 := NewMetadata([]string{"k"}, []string{"other"})

	s1 := StructOf(Field{Name: "f", Type: PrimitiveTypes.Int32, Metadata: md1})
	s2 := StructOf(Field{Name: "f", Type: PrimitiveTypes.Int32, Metadata: md2})

	assert.True(t, TypeEqual(s1, s2))
	assert.False(t, TypeEqual(s1, s2, CheckMetadata()))
}

func TestListTypeElemField(t *testing.T) {
	lt := ListOfField(Field{Name: "item", Type: PrimitiveTypes.Int32, Nullable: true})
	assert.Equal(t, "item", lt.ElemField().Name)
	assert.True(t, TypeEqual(lt.Elem(), PrimitiveTypes.Int32))
	assert.Equal(t, 1, lt.NumFields())

	fsl := FixedSizeListOf(4, PrimitiveTypes.Float64)
	assert.EqualValues(t, 4, fsl.Len())
}

func TestUnionTypeCodesAndChildIDs(t *testing.T) {
	ut := DenseUnionOf([]Field{
		{Name: "u0", Type: PrimitiveTypes.Int32, Nullable: true},
		{Name: "u1", Type: BinaryTypes.String, Nullable: true},
	}, []UnionTypeCode{5, 10})

	assert.Equal(t, DenseMode, ut.Mode())
	assert.Equal(t, []UnionTypeCode{5, 10}, ut.TypeCodes())
	assert.Equal(t, 0, ut.ChildIDs()[5])
	assert.Equal(t, 1, ut.ChildIDs()[10])
}

func TestRunEndEncodedType(t *testing.T) {
	dt := RunEndEncodedOf(PrimitiveTypes.Int32, BinaryTypes.String)
	assert.Equal(t, RUN_END_ENCODED, dt.ID())
	assert.True(t, TypeEqual(dt.RunEnds(), PrimitiveTypes.Int32))
	assert.True(t, TypeEqual(dt.Encoded(), BinaryTypes.String))
	assert.Equal(t, 2, dt.NumFields())

	assert.True(t, dt.ValidRunEndsType(PrimitiveTypes.Int16))
	assert.True(t, dt.ValidRunEndsType(PrimitiveTypes.Int32))
	assert.True(t, dt.ValidRunEndsType(PrimitiveTypes.Int64))
	assert.False(t, dt.ValidRunEndsType(PrimitiveTypes.Uint32))
}
