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

type typeEqualsConfig struct {
	metadata bool
}

// TypeEqualOption is a functional option type used for configuring type
// equality checks.
type TypeEqualOption func(*typeEqualsConfig)

// CheckMetadata is an option for TypeEqual that allows checking for metadata
// equality besides type equality. It only makes sense for nested types.
func CheckMetadata() TypeEqualOption {
	return func(cfg *typeEqualsConfig) {
		cfg.metadata = true
	}
}

// TypeEqual checks if two DataType instances are equal.
func TypeEqual(left, right DataType, opts ...TypeEqualOption) bool {
	var cfg typeEqualsConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case left == nil || right == nil:
		return left == nil && right == nil
	case left.ID() != right.ID():
		return false
	}

	switch l := left.(type) {
	case *ListType:
		r := right.(*ListType)
		if cfg.metadata && !l.elem.Metadata.Equal(r.elem.Metadata) {
			return false
		}
		if l.elem.Nullable != r.elem.Nullable {
			return false
		}
		return TypeEqual(l.Elem(), r.Elem(), opts...)
	case *LargeListType:
		r := right.(*LargeListType)
		if cfg.metadata && !l.elem.Metadata.Equal(r.elem.Metadata) {
			return false
		}
		if l.elem.Nullable != r.elem.Nullable {
			return false
		}
		return TypeEqual(l.Elem(), r.Elem(), opts...)
	case *FixedSizeListType:
		r := right.(*FixedSizeListType)
		if cfg.metadata && !l.elem.Metadata.Equal(r.elem.Metadata) {
			return false
		}
		return l.n == r.n && l.elem.Nullable == r.elem.Nullable &&
			TypeEqual(l.Elem(), r.Elem(), opts...)
	case *StructType:
		r := right.(*StructType)
		if len(l.fields) != len(r.fields) {
			return false
		}
		for i := range l.fields {
			if !fieldEqual(l.fields[i], r.fields[i], cfg, opts...) {
				return false
			}
		}
		return true
	case *MapType:
		r := right.(*MapType)
		if l.KeysSorted != r.KeysSorted {
			return false
		}
		return TypeEqual(l.ValueType(), r.ValueType(), opts...)
	case UnionType:
		r := right.(UnionType)
		if l.Mode() != r.Mode() {
			return false
		}
		if len(l.TypeCodes()) != len(r.TypeCodes()) {
			return false
		}
		for i := range l.TypeCodes() {
			if l.TypeCodes()[i] != r.TypeCodes()[i] {
				return false
			}
			if !fieldEqual(l.Fields()[i], r.Fields()[i], cfg, opts...) {
				return false
			}
		}
		return true
	case *DictionaryType:
		r := right.(*DictionaryType)
		return l.Ordered == r.Ordered &&
			TypeEqual(l.IndexType, r.IndexType, opts...) &&
			TypeEqual(l.ValueType, r.ValueType, opts...)
	case *RunEndEncodedType:
		r := right.(*RunEndEncodedType)
		return TypeEqual(l.ends, r.ends, opts...) && TypeEqual(l.enc, r.enc, opts...)
	case *FixedSizeBinaryType:
		return l.ByteWidth == right.(*FixedSizeBinaryType).ByteWidth
	default:
		// all other types are identified by their tag alone
		return true
	}
}

func fieldEqual(l, r Field, cfg typeEqualsConfig, opts ...TypeEqualOption) bool {
	switch {
	case l.Name != r.Name:
		return false
	case l.Nullable != r.Nullable:
		return false
	case !TypeEqual(l.Type, r.Type, opts...):
		return false
	case cfg.metadata && !l.Metadata.Equal(r.Metadata):
		return false
	}
	return true
}
