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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/memory"
)

func TestRecordEncoderBufferAlignment(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "s", Type: quiver.BinaryTypes.String, Nullable: true},
		{Name: "i8", Type: quiver.PrimitiveTypes.Int8, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	// odd-sized buffers so the encoder has to pad.
	b.Field(0).(*array.StringBuilder).AppendValues(
		[]string{"a", "bcd", "", "e", "fghij"},
		[]bool{true, true, false, true, true})
	b.Field(1).(*array.NumericBuilder[int8]).AppendValues(
		[]int8{1, 2, 3, 4, 5},
		[]bool{true, false, true, true, true})

	rec := b.NewRecord()
	defer rec.Release()

	enc := newRecordEncoder(mem, 0, kMaxNestingDepth, true, -1)
	var p Payload
	defer p.Release()
	require.NoError(t, enc.Encode(&p, rec))

	// every buffer in the body starts and ends on an 8-byte boundary.
	require.NotEmpty(t, enc.meta)
	for i, m := range enc.meta {
		assert.EqualValuesf(t, 0, m.Offset%kArrowIPCAlignment, "buffer %d starts at %d", i, m.Offset)
		assert.EqualValuesf(t, 0, m.Len%kArrowIPCAlignment, "buffer %d has padded length %d", i, m.Len)
	}
	assert.EqualValues(t, 0, p.size%kArrowIPCAlignment)
}
