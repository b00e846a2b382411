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
	"github.com/stretchr/testify/require"
)

func TestMetadata(t *testing.T) {
	md := NewMetadata([]string{"k1", "k2"}, []string{"v1", "v2"})
	assert.Equal(t, 2, md.Len())
	assert.Equal(t, []string{"k1", "k2"}, md.Keys())
	assert.Equal(t, []string{"v1", "v2"}, md.Values())

	assert.Equal(t, 1, md.FindKey("k2"))
	assert.Equal(t, -1, md.FindKey("missing"))

	v, ok := md.GetValue("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	_, ok = md.GetValue("missing")
	assert.False(t, ok)

	// Equal ignores ordering.
	other := NewMetadata([]string{"k2", "k1"}, []string{"v2", "v1"})
	assert.True(t, md.Equal(other))
	assert.False(t, md.Equal(NewMetadata([]string{"k1"}, []string{"v1"})))

	assert.Panics(t, func() { NewMetadata([]string{"k1"}, nil) })
}

func TestMetadataFrom(t *testing.T) {
	md := MetadataFrom(map[string]string{"b": "2", "a": "1"})
	// keys come out sorted.
	assert.Equal(t, []string{"a", "b"}, md.Keys())
	assert.Equal(t, []string{"1", "2"}, md.Values())
}

func TestSchemaBasics(t *testing.T) {
	md := NewMetadata([]string{"k"}, []string{"v"})
	sc := NewSchema([]Field{
		{Name: "f1", Type: PrimitiveTypes.Int32},
		{Name: "f2", Type: BinaryTypes.String, Nullable: true},
		{Name: "f1", Type: PrimitiveTypes.Float64},
	}, &md)

	assert.Equal(t, 3, sc.NumFields())
	assert.Equal(t, "f2", sc.Field(1).Name)
	assert.True(t, sc.HasField("f1"))
	assert.False(t, sc.HasField("f3"))
	assert.True(t, sc.HasMetadata())

	// duplicate field names index both positions.
	assert.Equal(t, []int{0, 2}, sc.FieldIndices("f1"))
	fields, ok := sc.FieldsByName("f1")
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.True(t, TypeEqual(fields[1].Type, PrimitiveTypes.Float64))

	_, ok = sc.FieldsByName("f3")
	assert.False(t, ok)
}

func TestSchemaEqual(t *testing.T) {
	sc1 := NewSchema([]Field{
		{Name: "f1", Type: PrimitiveTypes.Int32},
		{Name: "f2", Type: BinaryTypes.String, Nullable: true},
	}, nil)

	md := NewMetadata([]string{"k"}, []string{"v"})
	sc2 := NewSchema(sc1.Fields(), &md)

	// Equal does not compare metadata.
	assert.True(t, sc1.Equal(sc2))
	assert.True(t, sc1.Equal(sc1))
	assert.False(t, sc1.Equal(nil))

	sc3 := NewSchema([]Field{
		{Name: "f1", Type: PrimitiveTypes.Int32},
		{Name: "f2", Type: BinaryTypes.String},
	}, nil)
	assert.False(t, sc1.Equal(sc3), "nullability differs")

	sc4 := NewSchema([]Field{
		{Name: "f1", Type: PrimitiveTypes.Int32},
	}, nil)
	assert.False(t, sc1.Equal(sc4))
}

func TestSchemaNilType(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema([]Field{{Name: "f1"}}, nil)
	})
}

func TestSchemaFingerprint(t *testing.T) {
	sc1 := NewSchema([]Field{{Name: "f1", Type: PrimitiveTypes.Int32}}, nil)
	sc2 := NewSchema([]Field{{Name: "f1", Type: PrimitiveTypes.Int32}}, nil)
	sc3 := NewSchema([]Field{{Name: "f1", Type: PrimitiveTypes.Int64}}, nil)

	require.NotEmpty(t, sc1.Fingerprint())
	assert.Equal(t, sc1.Fingerprint(), sc2.Fingerprint())
	assert.NotEqual(t, sc1.Fingerprint(), sc3.Fingerprint())
}
