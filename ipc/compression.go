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
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/quiverio/quiver/internal/flatbuf"
)

// compressor compresses a single body buffer. For LZ4_FRAME each buffer
// is a single frame; for ZSTD a single compressed block stream.
type compressor interface {
	compress(dst io.Writer, src []byte) error
}

func getCompressor(codec flatbuf.CompressionType) compressor {
	switch codec {
	case flatbuf.CompressionTypeLZ4_FRAME:
		return lz4Compressor{}
	case flatbuf.CompressionTypeZSTD:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic(errors.Wrap(err, "quiver/ipc: could not create zstd encoder"))
		}
		return &zstdCompressor{enc: enc}
	}
	panic("quiver/ipc: unknown compression type")
}

type lz4Compressor struct{}

func (lz4Compressor) compress(dst io.Writer, src []byte) error {
	w := lz4.NewWriter(dst)
	if _, err := w.Write(src); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not compress buffer with lz4")
	}
	return w.Close()
}

type zstdCompressor struct {
	enc *zstd.Encoder
}

func (z *zstdCompressor) compress(dst io.Writer, src []byte) error {
	_, err := dst.Write(z.enc.EncodeAll(src, nil))
	return errors.Wrap(err, "quiver/ipc: could not compress buffer with zstd")
}

// decompressor inflates a single compressed body buffer into dst, whose
// length is the uncompressed length recorded in the buffer prefix.
type decompressor interface {
	decompress(dst, src []byte) error
}

func getDecompressor(codec flatbuf.CompressionType) decompressor {
	switch codec {
	case flatbuf.CompressionTypeLZ4_FRAME:
		return lz4Decompressor{}
	case flatbuf.CompressionTypeZSTD:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(errors.Wrap(err, "quiver/ipc: could not create zstd decoder"))
		}
		return &zstdDecompressor{dec: dec}
	}
	panic("quiver/ipc: unknown compression type")
}

type lz4Decompressor struct{}

func (lz4Decompressor) decompress(dst, src []byte) error {
	r := lz4.NewReader(bytes.NewReader(src))
	if _, err := io.ReadFull(r, dst); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not decompress lz4 buffer")
	}
	return nil
}

type zstdDecompressor struct {
	dec *zstd.Decoder
}

func (z *zstdDecompressor) decompress(dst, src []byte) error {
	out, err := z.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return errors.Wrap(err, "quiver/ipc: could not decompress zstd buffer")
	}
	if len(out) != len(dst) {
		return errors.Errorf("quiver/ipc: zstd buffer inflated to %d bytes, want %d", len(out), len(dst))
	}
	return nil
}
