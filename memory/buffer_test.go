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

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quiverio/quiver/memory"
)

func TestNewBufferBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	buf := memory.NewBufferBytes(data)
	defer buf.Release()

	assert.Equal(t, 4, buf.Len())
	assert.Equal(t, data, buf.Bytes())
	assert.False(t, buf.Mutable())
}

func TestResizableBuffer(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	defer buf.Release()

	assert.Equal(t, 0, buf.Len())
	assert.True(t, buf.Mutable())

	buf.Resize(17)
	assert.Equal(t, 17, buf.Len())
	assert.GreaterOrEqual(t, buf.Cap(), 17)

	copy(buf.Bytes(), "0123456789abcdefg")
	assert.Equal(t, byte('a'), buf.Bytes()[10])

	// growing preserves existing content.
	buf.Resize(64)
	assert.Equal(t, 64, buf.Len())
	assert.Equal(t, byte('a'), buf.Bytes()[10])

	// shrinking keeps the prefix.
	buf.Resize(5)
	assert.Equal(t, 5, buf.Len())
	assert.Equal(t, []byte("01234"), buf.Bytes())
}

func TestBufferReserve(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	defer buf.Release()

	buf.Reserve(100)
	assert.GreaterOrEqual(t, buf.Cap(), 100)
	assert.Equal(t, 0, buf.Len())
}

func TestBufferRetainRelease(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	buf.Resize(8)

	buf.Retain()
	buf.Release()
	// still alive after the paired release.
	assert.Equal(t, 8, buf.Len())
	buf.Release()
}

func TestSliceBuffer(t *testing.T) {
	data := []byte("0123456789")
	buf := memory.NewBufferBytes(data)
	defer buf.Release()

	sl := memory.SliceBuffer(buf, 3, 4)
	defer sl.Release()

	assert.Equal(t, []byte("3456"), sl.Bytes())
	assert.Equal(t, 4, sl.Len())
	assert.Same(t, buf, sl.Parent())
}

func TestSet(t *testing.T) {
	b := make([]byte, 5)
	memory.Set(b, 0xAB)
	for _, c := range b {
		assert.Equal(t, byte(0xAB), c)
	}
}
