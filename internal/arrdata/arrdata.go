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

// Package arrdata exports arrays and records data ready to be used for tests.
package arrdata

import (
	"sort"

	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/array"
	"github.com/quiverio/quiver/memory"
)

var (
	Records     = make(map[string][]quiver.Record)
	RecordNames []string
)

func init() {
	Records["nulls"] = makeNullRecords()
	Records["primitives"] = makePrimitiveRecords()
	Records["binaries"] = makeBinaryRecords()
	Records["lists"] = makeListRecords()
	Records["structs"] = makeStructRecords()
	Records["maps"] = makeMapRecords()
	Records["unions"] = makeUnionRecords()
	Records["dictionaries"] = makeDictionaryRecords()
	Records["run_end_encoded"] = makeRunEndEncodedRecords()

	for k := range Records {
		RecordNames = append(RecordNames, k)
	}
	sort.Strings(RecordNames)
}

func makeNullRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	meta := quiver.NewMetadata([]string{"k1", "k2"}, []string{"v1", "v2"})
	schema := quiver.NewSchema([]quiver.Field{
		{Name: "nulls", Type: quiver.Null, Nullable: true},
	}, &meta)

	recs := make([]quiver.Record, 3)
	for i := range recs {
		bldr := array.NewNullBuilder(mem)
		bldr.AppendNulls(5)
		arr := bldr.NewArray()
		recs[i] = array.NewRecord(schema, []quiver.Array{arr}, 5)
		arr.Release()
		bldr.Release()
	}
	return recs
}

func makePrimitiveRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "bools", Type: quiver.FixedWidthTypes.Boolean, Nullable: true},
		{Name: "int8s", Type: quiver.PrimitiveTypes.Int8, Nullable: true},
		{Name: "int16s", Type: quiver.PrimitiveTypes.Int16, Nullable: true},
		{Name: "int32s", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
		{Name: "int64s", Type: quiver.PrimitiveTypes.Int64, Nullable: true},
		{Name: "uint8s", Type: quiver.PrimitiveTypes.Uint8, Nullable: true},
		{Name: "uint16s", Type: quiver.PrimitiveTypes.Uint16, Nullable: true},
		{Name: "uint32s", Type: quiver.PrimitiveTypes.Uint32, Nullable: true},
		{Name: "uint64s", Type: quiver.PrimitiveTypes.Uint64, Nullable: true},
		{Name: "float32s", Type: quiver.PrimitiveTypes.Float32, Nullable: true},
		{Name: "float64s", Type: quiver.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	mask := []bool{true, false, false, true, true}
	chunks := [][]quiver.Array{
		{
			booleans(mem, []bool{true, false, true, false, true}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int8, []int8{-1, -2, -3, -4, -5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int16, []int16{-1, -2, -3, -4, -5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int32, []int32{-1, -2, -3, -4, -5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int64, []int64{-1, -2, -3, -4, -5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint8, []uint8{1, 2, 3, 4, 5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint16, []uint16{1, 2, 3, 4, 5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint32, []uint32{1, 2, 3, 4, 5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint64, []uint64{1, 2, 3, 4, 5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Float32, []float32{1, 2, 3, 4, 5}, mask),
			numbers(mem, quiver.PrimitiveTypes.Float64, []float64{1, 2, 3, 4, 5}, mask),
		},
		{
			booleans(mem, []bool{true, false, true, false, true}, nil),
			numbers(mem, quiver.PrimitiveTypes.Int8, []int8{-11, -12, -13, -14, -15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Int16, []int16{-11, -12, -13, -14, -15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Int32, []int32{-11, -12, -13, -14, -15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Int64, []int64{-11, -12, -13, -14, -15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Uint8, []uint8{11, 12, 13, 14, 15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Uint16, []uint16{11, 12, 13, 14, 15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Uint32, []uint32{11, 12, 13, 14, 15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Uint64, []uint64{11, 12, 13, 14, 15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Float32, []float32{11, 12, 13, 14, 15}, nil),
			numbers(mem, quiver.PrimitiveTypes.Float64, []float64{11, 12, 13, 14, 15}, nil),
		},
		{
			booleans(mem, []bool{true, false, true, false, true}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int8, []int8{-21, -22, -23, -24, -25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int16, []int16{-21, -22, -23, -24, -25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int32, []int32{-21, -22, -23, -24, -25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Int64, []int64{-21, -22, -23, -24, -25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint8, []uint8{21, 22, 23, 24, 25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint16, []uint16{21, 22, 23, 24, 25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint32, []uint32{21, 22, 23, 24, 25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Uint64, []uint64{21, 22, 23, 24, 25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Float32, []float32{21, 22, 23, 24, 25}, mask),
			numbers(mem, quiver.PrimitiveTypes.Float64, []float64{21, 22, 23, 24, 25}, mask),
		},
	}
	return recordsFromChunks(schema, chunks)
}

func makeBinaryRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "binary", Type: quiver.BinaryTypes.Binary, Nullable: true},
		{Name: "string", Type: quiver.BinaryTypes.String, Nullable: true},
		{Name: "large_binary", Type: quiver.BinaryTypes.LargeBinary, Nullable: true},
		{Name: "large_string", Type: quiver.BinaryTypes.LargeString, Nullable: true},
		{Name: "fixed_size_binary", Type: &quiver.FixedSizeBinaryType{ByteWidth: 3}, Nullable: true},
	}, nil)

	mask := []bool{true, false, true, true, true}
	chunks := [][]quiver.Array{
		{
			binaries(mem, quiver.BinaryTypes.Binary, []string{"1é", "2", "3", "4", "5"}, mask),
			strings(mem, []string{"1é", "2", "3", "4", "5"}, mask),
			binaries(mem, quiver.BinaryTypes.LargeBinary, []string{"1é", "2", "3", "4", "5"}, mask),
			largeStrings(mem, []string{"1é", "2", "3", "4", "5"}, mask),
			fixedSizeBinaries(mem, 3, []string{"001", "002", "003", "004", "005"}, mask),
		},
		{
			binaries(mem, quiver.BinaryTypes.Binary, []string{"11", "22", "33", "44", "55"}, nil),
			strings(mem, []string{"11", "22", "33", "44", "55"}, nil),
			binaries(mem, quiver.BinaryTypes.LargeBinary, []string{"11", "22", "33", "44", "55"}, nil),
			largeStrings(mem, []string{"11", "22", "33", "44", "55"}, nil),
			fixedSizeBinaries(mem, 3, []string{"011", "022", "033", "044", "055"}, nil),
		},
	}
	return recordsFromChunks(schema, chunks)
}

func makeListRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "list", Type: quiver.ListOfField(quiver.Field{Name: "item", Type: quiver.PrimitiveTypes.Int32, Nullable: true}), Nullable: true},
		{Name: "large_list", Type: quiver.LargeListOfField(quiver.Field{Name: "item", Type: quiver.PrimitiveTypes.Int32, Nullable: true}), Nullable: true},
		{Name: "fixed_size_list", Type: quiver.FixedSizeListOfField(2, quiver.Field{Name: "item", Type: quiver.PrimitiveTypes.Int32, Nullable: true}), Nullable: true},
	}, nil)

	chunks := [][]quiver.Array{
		{
			listOf(mem, [][]int32{{1, 2, 3}, {}, {4, 5}}, []bool{true, false, true}),
			largeListOf(mem, [][]int32{{1, 2, 3}, {}, {4, 5}}, []bool{true, false, true}),
			fixedSizeListOf(mem, 2, [][]int32{{1, 2}, {3, 4}, {5, 6}}, []bool{true, false, true}),
		},
		{
			listOf(mem, [][]int32{{11}, {12, 13, 14}, {}}, nil),
			largeListOf(mem, [][]int32{{11}, {12, 13, 14}, {}}, nil),
			fixedSizeListOf(mem, 2, [][]int32{{11, 12}, {13, 14}, {15, 16}}, nil),
		},
	}
	return recordsFromChunks(schema, chunks)
}

func makeStructRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	dtype := quiver.StructOf(
		quiver.Field{Name: "f1", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
		quiver.Field{Name: "f2", Type: quiver.BinaryTypes.String, Nullable: true},
	)
	schema := quiver.NewSchema([]quiver.Field{
		{Name: "struct_nullable", Type: dtype, Nullable: true},
	}, nil)

	build := func(ints []int32, strs []string, mask []bool) quiver.Array {
		bldr := array.NewStructBuilder(mem, dtype)
		defer bldr.Release()
		f1 := bldr.FieldBuilder(0).(*array.NumericBuilder[int32])
		f2 := bldr.FieldBuilder(1).(*array.StringBuilder)
		for i := range ints {
			valid := mask == nil || mask[i]
			bldr.Append(valid)
			if valid {
				f1.Append(ints[i])
				f2.Append(strs[i])
			} else {
				f1.AppendNull()
				f2.AppendNull()
			}
		}
		return bldr.NewArray()
	}

	chunks := [][]quiver.Array{
		{build([]int32{1, 2, 3, 4, 5}, []string{"a", "b", "c", "d", "e"}, []bool{true, false, true, true, true})},
		{build([]int32{11, 12, 13, 14, 15}, []string{"aa", "bb", "cc", "dd", "ee"}, nil)},
	}
	return recordsFromChunks(schema, chunks)
}

func makeMapRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	dtype := quiver.MapOf(quiver.BinaryTypes.String, quiver.PrimitiveTypes.Int32)
	schema := quiver.NewSchema([]quiver.Field{
		{Name: "map_int", Type: dtype, Nullable: true},
	}, nil)

	build := func(maps []map[string]int32, mask []bool) quiver.Array {
		bldr := array.NewMapBuilderWithType(mem, dtype)
		defer bldr.Release()
		kb := bldr.KeyBuilder().(*array.StringBuilder)
		ib := bldr.ItemBuilder().(*array.NumericBuilder[int32])
		for i, m := range maps {
			valid := mask == nil || mask[i]
			bldr.Append(valid)
			if !valid {
				continue
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				kb.Append(k)
				ib.Append(m[k])
			}
		}
		return bldr.NewArray()
	}

	chunks := [][]quiver.Array{
		{build([]map[string]int32{{"a": 1, "b": 2}, nil, {"c": 3}}, []bool{true, false, true})},
		{build([]map[string]int32{{"d": 4}, {}, {"e": 5, "f": 6}}, nil)},
	}
	return recordsFromChunks(schema, chunks)
}

func makeUnionRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	fields := []quiver.Field{
		{Name: "u0", Type: quiver.PrimitiveTypes.Int32, Nullable: true},
		{Name: "u1", Type: quiver.BinaryTypes.String, Nullable: true},
	}
	codes := []quiver.UnionTypeCode{5, 10}
	sparse := quiver.SparseUnionOf(fields, codes)
	dense := quiver.DenseUnionOf(fields, codes)

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "sparse", Type: sparse, Nullable: true},
		{Name: "dense", Type: dense, Nullable: true},
	}, nil)

	buildSparse := func(ints []int32, strs []string, useString []bool) quiver.Array {
		bldr := array.NewSparseUnionBuilder(mem, sparse)
		defer bldr.Release()
		ib := bldr.Child(0).(*array.NumericBuilder[int32])
		sb := bldr.Child(1).(*array.StringBuilder)
		for i := range useString {
			if useString[i] {
				bldr.Append(10)
				ib.AppendEmptyValue()
				sb.Append(strs[i])
			} else {
				bldr.Append(5)
				ib.Append(ints[i])
				sb.AppendEmptyValue()
			}
		}
		return bldr.NewArray()
	}

	buildDense := func(ints []int32, strs []string, useString []bool) quiver.Array {
		bldr := array.NewDenseUnionBuilder(mem, dense)
		defer bldr.Release()
		ib := bldr.Child(0).(*array.NumericBuilder[int32])
		sb := bldr.Child(1).(*array.StringBuilder)
		var ii, si int
		for i := range useString {
			if useString[i] {
				bldr.Append(10)
				sb.Append(strs[si])
				si++
			} else {
				bldr.Append(5)
				ib.Append(ints[ii])
				ii++
			}
		}
		return bldr.NewArray()
	}

	pattern := []bool{false, true, false, true, false}
	chunks := [][]quiver.Array{
		{
			buildSparse([]int32{1, 0, 2, 0, 3}, []string{"", "a", "", "b", ""}, pattern),
			buildDense([]int32{1, 2, 3}, []string{"a", "b"}, pattern),
		},
		{
			buildSparse([]int32{0, 4, 0, 5, 0}, []string{"c", "", "d", "", "e"}, []bool{true, false, true, false, true}),
			buildDense([]int32{4, 5}, []string{"c", "d", "e"}, []bool{true, false, true, false, true}),
		},
	}
	return recordsFromChunks(schema, chunks)
}

func makeDictionaryRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	strDict := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int32, ValueType: quiver.BinaryTypes.String}
	intDict := &quiver.DictionaryType{IndexType: quiver.PrimitiveTypes.Int16, ValueType: quiver.PrimitiveTypes.Int64}

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "dict_str", Type: strDict, Nullable: true},
		{Name: "dict_int", Type: intDict, Nullable: true},
	}, nil)

	buildStr := func(vals []string, mask []bool) quiver.Array {
		bldr := array.NewBinaryDictionaryBuilder(mem, strDict)
		defer bldr.Release()
		for i, v := range vals {
			if mask != nil && !mask[i] {
				bldr.AppendNull()
				continue
			}
			if err := bldr.AppendString(v); err != nil {
				panic(err)
			}
		}
		return bldr.NewArray()
	}

	buildInt := func(vals []int64, mask []bool) quiver.Array {
		bldr := array.NewNumericDictionaryBuilder[int64](mem, intDict)
		defer bldr.Release()
		for i, v := range vals {
			if mask != nil && !mask[i] {
				bldr.AppendNull()
				continue
			}
			if err := bldr.Append(v); err != nil {
				panic(err)
			}
		}
		return bldr.NewArray()
	}

	// the same value universe in the same first-appearance order yields
	// identical dictionaries across records, so the stream never has to
	// replace a written dictionary.
	chunks := [][]quiver.Array{
		{
			buildStr([]string{"zero", "one", "two", "one", "zero"}, []bool{true, true, true, false, true}),
			buildInt([]int64{10, 20, 30, 20, 10}, nil),
		},
		{
			buildStr([]string{"zero", "one", "two", "two", "two"}, nil),
			buildInt([]int64{10, 20, 30, 30, 10}, []bool{true, true, true, false, true}),
		},
	}
	return recordsFromChunks(schema, chunks)
}

func makeRunEndEncodedRecords() []quiver.Record {
	mem := memory.NewGoAllocator()

	schema := quiver.NewSchema([]quiver.Field{
		{Name: "ree_str", Type: quiver.RunEndEncodedOf(quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String), Nullable: false},
		{Name: "ree_int", Type: quiver.RunEndEncodedOf(quiver.PrimitiveTypes.Int64, quiver.PrimitiveTypes.Int32), Nullable: false},
	}, nil)

	buildStr := func(runs []uint64, vals []string) quiver.Array {
		bldr := array.NewRunEndEncodedBuilder(mem, quiver.PrimitiveTypes.Int32, quiver.BinaryTypes.String)
		defer bldr.Release()
		vb := bldr.ValueBuilder().(*array.StringBuilder)
		for i, n := range runs {
			bldr.Append(n)
			if vals[i] == "" {
				vb.AppendNull()
			} else {
				vb.Append(vals[i])
			}
		}
		return bldr.NewArray()
	}

	buildInt := func(runs []uint64, vals []int32) quiver.Array {
		bldr := array.NewRunEndEncodedBuilder(mem, quiver.PrimitiveTypes.Int64, quiver.PrimitiveTypes.Int32)
		defer bldr.Release()
		vb := bldr.ValueBuilder().(*array.NumericBuilder[int32])
		for i, n := range runs {
			bldr.Append(n)
			vb.Append(vals[i])
		}
		return bldr.NewArray()
	}

	chunks := [][]quiver.Array{
		{
			buildStr([]uint64{3, 1, 2}, []string{"x", "", "y"}),
			buildInt([]uint64{2, 2, 2}, []int32{1, 2, 3}),
		},
		{
			buildStr([]uint64{1, 4, 1}, []string{"a", "b", "c"}),
			buildInt([]uint64{5, 1}, []int32{7, 8}),
		},
	}
	return recordsFromChunks(schema, chunks)
}

func recordsFromChunks(schema *quiver.Schema, chunks [][]quiver.Array) []quiver.Record {
	recs := make([]quiver.Record, len(chunks))
	for i, chunk := range chunks {
		recs[i] = array.NewRecord(schema, chunk, int64(chunk[0].Len()))
		for _, col := range chunk {
			col.Release()
		}
	}
	return recs
}

func booleans(mem memory.Allocator, vals []bool, valid []bool) quiver.Array {
	bldr := array.NewBooleanBuilder(mem)
	defer bldr.Release()
	bldr.AppendValues(vals, valid)
	return bldr.NewArray()
}

func numbers[T quiver.FixedWidthType](mem memory.Allocator, dt quiver.DataType, vals []T, valid []bool) quiver.Array {
	bldr := array.NewNumericBuilder[T](mem, dt)
	defer bldr.Release()
	bldr.AppendValues(vals, valid)
	return bldr.NewArray()
}

func strings(mem memory.Allocator, vals []string, valid []bool) quiver.Array {
	bldr := array.NewStringBuilder(mem)
	defer bldr.Release()
	bldr.AppendValues(vals, valid)
	return bldr.NewArray()
}

func largeStrings(mem memory.Allocator, vals []string, valid []bool) quiver.Array {
	bldr := array.NewLargeStringBuilder(mem)
	defer bldr.Release()
	bldr.AppendValues(vals, valid)
	return bldr.NewArray()
}

func binaries(mem memory.Allocator, dt quiver.BinaryDataType, vals []string, valid []bool) quiver.Array {
	bldr := array.NewBinaryBuilder(mem, dt)
	defer bldr.Release()
	bldr.AppendStringValues(vals, valid)
	return bldr.NewArray()
}

func fixedSizeBinaries(mem memory.Allocator, width int, vals []string, valid []bool) quiver.Array {
	bldr := array.NewFixedSizeBinaryBuilder(mem, &quiver.FixedSizeBinaryType{ByteWidth: width})
	defer bldr.Release()
	for i, v := range vals {
		if valid != nil && !valid[i] {
			bldr.AppendNull()
			continue
		}
		bldr.Append([]byte(v))
	}
	return bldr.NewArray()
}

func listOf(mem memory.Allocator, vals [][]int32, valid []bool) quiver.Array {
	bldr := array.NewListBuilder(mem, quiver.PrimitiveTypes.Int32)
	defer bldr.Release()
	vb := bldr.ValueBuilder().(*array.NumericBuilder[int32])
	for i, vs := range vals {
		if valid != nil && !valid[i] {
			bldr.AppendNull()
			continue
		}
		bldr.Append(true)
		vb.AppendValues(vs, nil)
	}
	return bldr.NewArray()
}

func largeListOf(mem memory.Allocator, vals [][]int32, valid []bool) quiver.Array {
	bldr := array.NewLargeListBuilder(mem, quiver.PrimitiveTypes.Int32)
	defer bldr.Release()
	vb := bldr.ValueBuilder().(*array.NumericBuilder[int32])
	for i, vs := range vals {
		if valid != nil && !valid[i] {
			bldr.AppendNull()
			continue
		}
		bldr.Append(true)
		vb.AppendValues(vs, nil)
	}
	return bldr.NewArray()
}

func fixedSizeListOf(mem memory.Allocator, n int32, vals [][]int32, valid []bool) quiver.Array {
	bldr := array.NewFixedSizeListBuilder(mem, n, quiver.PrimitiveTypes.Int32)
	defer bldr.Release()
	vb := bldr.ValueBuilder().(*array.NumericBuilder[int32])
	for i, vs := range vals {
		if valid != nil && !valid[i] {
			bldr.AppendNull()
			continue
		}
		bldr.Append(true)
		vb.AppendValues(vs, nil)
	}
	return bldr.NewArray()
}
