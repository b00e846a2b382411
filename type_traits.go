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
	"unsafe"

	"golang.org/x/exp/constraints"
)

// FixedWidthType is the type constraint covering every Go value type
// stored in a fixed-width value buffer.
type FixedWidthType interface {
	constraints.Integer | constraints.Float
}

// IntType is the type constraint covering the signed integer value types.
type IntType interface {
	constraints.Signed
}

const (
	Int8SizeBytes    = int(unsafe.Sizeof(int8(0)))
	Int16SizeBytes   = int(unsafe.Sizeof(int16(0)))
	Int32SizeBytes   = int(unsafe.Sizeof(int32(0)))
	Int64SizeBytes   = int(unsafe.Sizeof(int64(0)))
	Uint8SizeBytes   = int(unsafe.Sizeof(uint8(0)))
	Uint16SizeBytes  = int(unsafe.Sizeof(uint16(0)))
	Uint32SizeBytes  = int(unsafe.Sizeof(uint32(0)))
	Uint64SizeBytes  = int(unsafe.Sizeof(uint64(0)))
	Float32SizeBytes = int(unsafe.Sizeof(float32(0)))
	Float64SizeBytes = int(unsafe.Sizeof(float64(0)))
)

// GetBytes reinterprets the slice of values as a slice of bytes.
//
// NOTE: this is zero-copy; the returned slice aliases in.
func GetBytes[T FixedWidthType](in []T) []byte {
	var z T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(in))), len(in)*int(unsafe.Sizeof(z)))
}

// GetData reinterprets the slice of bytes as a slice of values of type T.
//
// NOTE: len(in) must be a multiple of T's size.
func GetData[T FixedWidthType](in []byte) []T {
	var z T
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(in))), len(in)/int(unsafe.Sizeof(z)))
}

// NumericTraits provides the size information and the byte
// reinterpretation helpers for a fixed-width value type.
type NumericTraits[T FixedWidthType] struct{}

// BytesRequired returns the number of bytes required to store n elements in memory.
func (NumericTraits[T]) BytesRequired(n int) int {
	var z T
	return int(unsafe.Sizeof(z)) * n
}

// CastFromBytes reinterprets the slice b to a slice of type T.
func (NumericTraits[T]) CastFromBytes(b []byte) []T { return GetData[T](b) }

// CastToBytes reinterprets the slice b to a slice of bytes.
func (NumericTraits[T]) CastToBytes(b []T) []byte { return GetBytes(b) }

var (
	Int8Traits    = NumericTraits[int8]{}
	Int16Traits   = NumericTraits[int16]{}
	Int32Traits   = NumericTraits[int32]{}
	Int64Traits   = NumericTraits[int64]{}
	Uint8Traits   = NumericTraits[uint8]{}
	Uint16Traits  = NumericTraits[uint16]{}
	Uint32Traits  = NumericTraits[uint32]{}
	Uint64Traits  = NumericTraits[uint64]{}
	Float32Traits = NumericTraits[float32]{}
	Float64Traits = NumericTraits[float64]{}
)
