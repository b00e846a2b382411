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

package bitutil

import (
	"math"
	"math/bits"
	"unsafe"
)

var (
	BitMask        = [8]byte{1, 2, 4, 8, 16, 32, 64, 128}
	FlippedBitMask = [8]byte{254, 253, 251, 247, 239, 223, 191, 127}
)

// NextPowerOf2 rounds x to the next power of two.
func NextPowerOf2(x int) int { return 1 << uint(bits.Len(uint(x))) }

// CeilByte rounds size to the next multiple of 8.
func CeilByte(size int) int { return (size + 7) &^ 7 }

// CeilByte64 rounds size to the next multiple of 8.
func CeilByte64(size int64) int64 { return (size + 7) &^ 7 }

// BytesForBits returns the number of bytes required to store bits bits.
func BytesForBits(bits int64) int64 { return (bits + 7) >> 3 }

// BitIsSet returns true if the bit at index i in buf is set (1).
func BitIsSet(buf []byte, i int) bool { return (buf[uint(i)/8] & BitMask[byte(i)%8]) != 0 }

// BitIsNotSet returns true if the bit at index i in buf is not set (0).
func BitIsNotSet(buf []byte, i int) bool { return (buf[uint(i)/8] & BitMask[byte(i)%8]) == 0 }

// SetBit sets the bit at index i in buf to 1.
func SetBit(buf []byte, i int) { buf[uint(i)/8] |= BitMask[byte(i)%8] }

// ClearBit sets the bit at index i in buf to 0.
func ClearBit(buf []byte, i int) { buf[uint(i)/8] &= FlippedBitMask[byte(i)%8] }

// SetBitTo sets the bit at index i in buf to val.
func SetBitTo(buf []byte, i int, val bool) {
	if val {
		SetBit(buf, i)
	} else {
		ClearBit(buf, i)
	}
}

// SetBitsTo sets all the bits in the bitmap starting at bitOffset for length
// bits to the value val.
func SetBitsTo(bits []byte, bitOffset, length int64, val bool) {
	if length == 0 {
		return
	}

	beg := bitOffset
	end := bitOffset + length
	var fill uint8 = 0
	if val {
		fill = math.MaxUint8
	}

	byteBeg := beg / 8
	byteEnd := end/8 + 1

	// don't modify bits before the beginning or after the end
	firstByteMask := precedingBitmask[beg%8]
	lastByteMask := trailingBitmask[end%8]

	if byteEnd == byteBeg+1 {
		// set bits within a single byte
		onlyByteMask := firstByteMask
		if end%8 != 0 {
			onlyByteMask = firstByteMask | lastByteMask
		}

		bits[byteBeg] &= onlyByteMask
		bits[byteBeg] |= fill &^ onlyByteMask
		return
	}

	// set/clear trailing bits of first byte
	bits[byteBeg] &= firstByteMask
	bits[byteBeg] |= fill &^ firstByteMask

	if byteEnd-byteBeg > 2 {
		for i := byteBeg + 1; i < byteEnd-1; i++ {
			bits[i] = fill
		}
	}

	if end%8 == 0 {
		bits[byteEnd-1] = fill
	} else {
		bits[byteEnd-1] &= lastByteMask
		bits[byteEnd-1] |= fill &^ lastByteMask
	}
}

var (
	precedingBitmask = [8]byte{0, 1, 3, 7, 15, 31, 63, 127}
	trailingBitmask  = [8]byte{0, 254, 252, 248, 240, 224, 192, 128}
)

// CountSetBits counts the number of 1's in buf up to n bits, starting
// at the bit offset.
func CountSetBits(buf []byte, offset, n int) int {
	if offset > 0 {
		return countSetBitsWithOffset(buf, offset, n)
	}

	count := 0

	uint64Bytes := n / 64 * 8
	for _, v := range bytesToUint64(buf[:uint64Bytes]) {
		count += bits.OnesCount64(v)
	}

	for _, v := range buf[uint64Bytes : (n+7)/8] {
		count += bits.OnesCount8(v)
	}

	// remove any bits past the amount we care about
	if n%8 != 0 {
		count -= bits.OnesCount8(buf[(n+7)/8-1] >> uint(n%8))
	}

	return count
}

func countSetBitsWithOffset(buf []byte, offset, n int) int {
	count := 0

	beg := offset
	end := offset + n

	begU8 := roundUp(beg, 8)

	init := min(n, begU8-beg)
	for i := beg; i < beg+init; i++ {
		if BitIsSet(buf, i) {
			count++
		}
	}

	if init != n {
		count += CountSetBits(buf[begU8/8:], 0, end-begU8)
	}

	return count
}

func roundUp(v, f int) int {
	return (v + (f - 1)) / f * f
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func bytesToUint64(b []byte) []uint64 {
	if len(b) < 8 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/8)
}

// CopyBitmap copies the bitmap indicated by src, starting at bit offset
// srcOffset, and copying length bits into dst, starting at bit offset
// dstOffset.
func CopyBitmap(src []byte, srcOffset, length int, dst []byte, dstOffset int) {
	if length == 0 {
		return
	}

	if srcOffset%8 == 0 && dstOffset%8 == 0 {
		nbytes := length / 8
		copy(dst[dstOffset/8:], src[srcOffset/8:srcOffset/8+nbytes])
		rem := length % 8
		for i := length - rem; i < length; i++ {
			SetBitTo(dst, dstOffset+i, BitIsSet(src, srcOffset+i))
		}
		return
	}

	for i := 0; i < length; i++ {
		SetBitTo(dst, dstOffset+i, BitIsSet(src, srcOffset+i))
	}
}
