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

package bitutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quiverio/quiver/bitutil"
)

func TestCeilByte(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{0, 0}, {1, 8}, {7, 8}, {8, 8}, {9, 16}, {63, 64},
	} {
		assert.Equal(t, tc.want, bitutil.CeilByte(tc.in), "CeilByte(%d)", tc.in)
		assert.Equal(t, int64(tc.want), bitutil.CeilByte64(int64(tc.in)))
	}
}

func TestBytesForBits(t *testing.T) {
	for _, tc := range []struct{ in, want int64 }{
		{0, 0}, {1, 1}, {8, 1}, {9, 2}, {64, 8}, {65, 9},
	} {
		assert.Equal(t, tc.want, bitutil.BytesForBits(tc.in), "BytesForBits(%d)", tc.in)
	}
}

func TestBitOps(t *testing.T) {
	buf := make([]byte, 2)

	bitutil.SetBit(buf, 3)
	assert.True(t, bitutil.BitIsSet(buf, 3))
	assert.False(t, bitutil.BitIsNotSet(buf, 3))
	assert.True(t, bitutil.BitIsNotSet(buf, 4))

	bitutil.SetBit(buf, 11)
	assert.Equal(t, 2, bitutil.CountSetBits(buf, 0, 16))

	bitutil.ClearBit(buf, 3)
	assert.False(t, bitutil.BitIsSet(buf, 3))

	bitutil.SetBitTo(buf, 5, true)
	assert.True(t, bitutil.BitIsSet(buf, 5))
	bitutil.SetBitTo(buf, 5, false)
	assert.False(t, bitutil.BitIsSet(buf, 5))
}

func TestSetBitsTo(t *testing.T) {
	buf := make([]byte, 4)
	bitutil.SetBitsTo(buf, 3, 13, true)

	for i := 0; i < 32; i++ {
		want := i >= 3 && i < 16
		assert.Equal(t, want, bitutil.BitIsSet(buf, i), "bit %d", i)
	}

	bitutil.SetBitsTo(buf, 5, 4, false)
	for i := 5; i < 9; i++ {
		assert.False(t, bitutil.BitIsSet(buf, i), "bit %d", i)
	}
}

func TestCountSetBitsOffset(t *testing.T) {
	// a long buffer exercises both the unaligned prefix and the
	// uint64-at-a-time loop.
	const n = 1024
	buf := make([]byte, n/8)
	for i := 0; i < n; i += 3 {
		bitutil.SetBit(buf, i)
	}

	for _, offset := range []int{0, 1, 7, 8, 9, 63, 64, 65, 512} {
		want := 0
		for i := offset; i < n; i++ {
			if bitutil.BitIsSet(buf, i) {
				want++
			}
		}
		assert.Equal(t, want, bitutil.CountSetBits(buf, offset, n-offset), "offset=%d", offset)
	}
}

func TestCopyBitmap(t *testing.T) {
	src := make([]byte, 8)
	for i := 0; i < 64; i += 5 {
		bitutil.SetBit(src, i)
	}

	for _, tc := range []struct {
		srcOffset, length, dstOffset int
	}{
		{0, 64, 0},
		{3, 27, 0},
		{0, 27, 3},
		{11, 39, 5},
		{1, 7, 1},
	} {
		dst := make([]byte, 16)
		bitutil.CopyBitmap(src, tc.srcOffset, tc.length, dst, tc.dstOffset)
		for i := 0; i < tc.length; i++ {
			assert.Equal(t,
				bitutil.BitIsSet(src, tc.srcOffset+i),
				bitutil.BitIsSet(dst, tc.dstOffset+i),
				"src+%d dst+%d len=%d bit=%d", tc.srcOffset, tc.dstOffset, tc.length, i)
		}
	}
}

func TestNextPowerOf2(t *testing.T) {
	assert.Equal(t, 2, bitutil.NextPowerOf2(1))
	assert.Equal(t, 8, bitutil.NextPowerOf2(5))
	assert.Equal(t, 16, bitutil.NextPowerOf2(8))
}
