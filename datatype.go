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
	"fmt"
	"hash/maphash"
	"strconv"
)

// Type is a logical type. They can be expressed as
// either a primitive physical type (bytes or bits of some fixed size), a
// nested type consisting of other data types, or another data type (e.g. a
// run-end encoded view over a pair of child arrays).
//
// The set of types is closed: dispatching over a Type is expected to be
// exhaustive, and an unknown tag is always an error, never a default.
type Type int

const (
	// NULL type having no physical storage
	NULL Type = iota

	// BOOL is a 1 bit, LSB bit-packed ordering
	BOOL

	// UINT8 is an Unsigned 8-bit little-endian integer
	UINT8

	// INT8 is a Signed 8-bit little-endian integer
	INT8

	// UINT16 is an Unsigned 16-bit little-endian integer
	UINT16

	// INT16 is a Signed 16-bit little-endian integer
	INT16

	// UINT32 is an Unsigned 32-bit little-endian integer
	UINT32

	// INT32 is a Signed 32-bit little-endian integer
	INT32

	// UINT64 is an Unsigned 64-bit little-endian integer
	UINT64

	// INT64 is a Signed 64-bit little-endian integer
	INT64

	// FLOAT32 is a 4-byte floating point value
	FLOAT32

	// FLOAT64 is an 8-byte floating point value
	FLOAT64

	// STRING is a UTF8 variable-length string
	STRING

	// BINARY is a Variable-length byte type (no guarantee of UTF8-ness)
	BINARY

	// FIXED_SIZE_BINARY is a binary where each value occupies the same number of bytes
	FIXED_SIZE_BINARY

	// LIST is a list of some logical data type
	LIST

	// STRUCT of logical types
	STRUCT

	// SPARSE_UNION of logical types
	SPARSE_UNION

	// DENSE_UNION of logical types
	DENSE_UNION

	// DICTIONARY aka Category type
	DICTIONARY

	// MAP is a repeated struct logical type
	MAP

	// FIXED_SIZE_LIST is a list of some logical type where each slot
	// has the same length
	FIXED_SIZE_LIST

	// LARGE_STRING is like STRING, but with 64-bit offsets
	LARGE_STRING

	// LARGE_BINARY is like BINARY, but with 64-bit offsets
	LARGE_BINARY

	// LARGE_LIST is like LIST, but with 64-bit offsets
	LARGE_LIST

	// RUN_END_ENCODED is a view over a pair of child arrays: monotonically
	// increasing run ends and one value per run
	RUN_END_ENCODED
)

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

var typeNames = [...]string{
	NULL:              "NULL",
	BOOL:              "BOOL",
	UINT8:             "UINT8",
	INT8:              "INT8",
	UINT16:            "UINT16",
	INT16:             "INT16",
	UINT32:            "UINT32",
	INT32:             "INT32",
	UINT64:            "UINT64",
	INT64:             "INT64",
	FLOAT32:           "FLOAT32",
	FLOAT64:           "FLOAT64",
	STRING:            "STRING",
	BINARY:            "BINARY",
	FIXED_SIZE_BINARY: "FIXED_SIZE_BINARY",
	LIST:              "LIST",
	STRUCT:            "STRUCT",
	SPARSE_UNION:      "SPARSE_UNION",
	DENSE_UNION:       "DENSE_UNION",
	DICTIONARY:        "DICTIONARY",
	MAP:               "MAP",
	FIXED_SIZE_LIST:   "FIXED_SIZE_LIST",
	LARGE_STRING:      "LARGE_STRING",
	LARGE_BINARY:      "LARGE_BINARY",
	LARGE_LIST:        "LARGE_LIST",
	RUN_END_ENCODED:   "RUN_END_ENCODED",
}

// DataType is the representation of a column type.
type DataType interface {
	fmt.Stringer
	ID() Type
	// Name is name of the data type.
	Name() string
	Fingerprint() string
}

// FixedWidthDataType is the representation of a type that
// requires a fixed number of bits in memory for each element.
type FixedWidthDataType interface {
	DataType
	// BitWidth returns the number of bits required to store a single element of this data type in memory.
	BitWidth() int
	// Bytes returns the number of bytes required to store a single element of this data type in memory.
	Bytes() int
}

// BinaryDataType covers the variable-length binary types: Binary, String,
// LargeBinary and LargeString.
type BinaryDataType interface {
	DataType
	IsUtf8() bool
	binary()
}

// OffsetsDataType is any type whose physical layout carries an offsets
// buffer (variable binaries and lists).
type OffsetsDataType interface {
	DataType
	OffsetTypeTraits() OffsetTraits
}

// NestedType is a type that lists the types of its child fields.
type NestedType interface {
	DataType
	// Fields returns the child fields of this type.
	Fields() []Field
	// NumFields returns the number of child fields of this type.
	NumFields() int
}

// HashType computes a hash of the type's fingerprint, suitable for use in
// hash maps keyed by data type.
func HashType(seed maphash.Seed, dt DataType) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(dt.Fingerprint())
	return h.Sum64()
}

func typeIDFingerprint(id Type) string {
	c := string(rune(int(id) + int('A')))
	return "@" + c
}

func typeFingerprint(typ DataType) string { return typeIDFingerprint(typ.ID()) }

// IsInteger returns true if the type ID provided is one of the integral types.
func IsInteger(t Type) bool {
	switch t {
	case UINT8, INT8, UINT16, INT16, UINT32, INT32, UINT64, INT64:
		return true
	}
	return false
}

// IsUnsignedInteger returns true if the type ID provided is one of the
// unsigned integral types.
func IsUnsignedInteger(t Type) bool {
	switch t {
	case UINT8, UINT16, UINT32, UINT64:
		return true
	}
	return false
}

// IsFloating returns true if the type ID provided is one of Float32 or Float64.
func IsFloating(t Type) bool {
	return t == FLOAT32 || t == FLOAT64
}

// IsPrimitive returns true if the provided type ID represents a fixed-width
// primitive (boolean, integral or floating point) type.
func IsPrimitive(t Type) bool {
	switch t {
	case BOOL, UINT8, INT8, UINT16, INT16, UINT32, INT32, UINT64, INT64, FLOAT32, FLOAT64:
		return true
	}
	return false
}

// IsBaseBinary returns true for the variable-length binary type IDs.
func IsBaseBinary(t Type) bool {
	switch t {
	case BINARY, STRING, LARGE_BINARY, LARGE_STRING:
		return true
	}
	return false
}

// IsNested returns true for list-like, struct, union and map type IDs.
func IsNested(t Type) bool {
	switch t {
	case LIST, LARGE_LIST, FIXED_SIZE_LIST, STRUCT, SPARSE_UNION, DENSE_UNION, MAP, RUN_END_ENCODED:
		return true
	}
	return false
}

// IsUnion returns true if the type ID is either sparse or dense union.
func IsUnion(t Type) bool { return t == SPARSE_UNION || t == DENSE_UNION }
