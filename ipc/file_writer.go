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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/quiverio/quiver"
)

// pwriter is the file-format payload writer: it records the position of
// every dictionary and record batch so they end up in the file footer.
type pwriter struct {
	w   io.WriteSeeker
	pos int64

	schema *quiver.Schema
	dicts  []fileBlock
	recs   []fileBlock
}

func (w *pwriter) Start() error {
	if err := w.updatePos(); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not update position")
	}

	if _, err := w.Write(Magic); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not write magic Arrow bytes")
	}

	return w.align(kArrowIPCAlignment)
}

func (w *pwriter) WritePayload(p Payload) error {
	blk := fileBlock{Offset: w.pos, Meta: 0, Body: p.size}
	n, err := writeIPCPayload(w, p)
	if err != nil {
		return err
	}
	blk.Meta = int32(n)

	switch p.msg {
	case MessageDictionaryBatch:
		w.dicts = append(w.dicts, blk)
	case MessageRecordBatch:
		w.recs = append(w.recs, blk)
	}
	return nil
}

func (w *pwriter) Close() error {
	var err error

	// write the end-of-stream marker so the file body is also a
	// well-formed stream.
	if _, err = w.Write(kEOS[:]); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not write EOS message")
	}

	pos := w.pos
	if err = writeFileFooter(w.schema, w.dicts, w.recs, w); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not write file footer")
	}

	size := w.pos - pos
	if size <= 0 {
		return errors.Errorf("quiver/ipc: invalid file footer size (size=%d)", size)
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(size))
	if _, err = w.Write(buf[:]); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not write file footer size")
	}

	if _, err = w.Write(Magic); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not write magic Arrow bytes")
	}

	return nil
}

func (w *pwriter) updatePos() error {
	var err error
	w.pos, err = w.w.Seek(0, io.SeekCurrent)
	return err
}

func (w *pwriter) align(align int32) error {
	remainder := paddedLength(w.pos, align) - w.pos
	if remainder == 0 {
		return nil
	}
	_, err := w.Write(paddingBytes[:int(remainder)])
	return err
}

func (w *pwriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

var _ PayloadWriter = (*pwriter)(nil)

// FileWriter is an Arrow file writer. The file format wraps the stream
// format with a magic header and a footer indexing the dictionary and
// record batches for random access.
type FileWriter struct {
	w  *Writer
	pw *pwriter

	closed bool
}

// NewFileWriter opens an Arrow file using the provided writer w.
func NewFileWriter(w io.WriteSeeker, opts ...Option) (*FileWriter, error) {
	cfg := newConfig(opts...)
	if cfg.schema == nil {
		return nil, errors.New("quiver/ipc: writing a file requires a schema")
	}

	pw := &pwriter{w: w, schema: cfg.schema, pos: -1}
	sw := NewWriterWithPayloadWriter(pw, opts...)
	sw.fileFormat = true

	return &FileWriter{w: sw, pw: pw}, nil
}

func (f *FileWriter) Write(rec quiver.Record) error {
	if f.closed {
		return errors.New("quiver/ipc: file writer is closed")
	}
	return f.w.Write(rec)
}

// Close writes the file footer and closes the underlying writer. A file
// with no records still carries the schema in its footer.
func (f *FileWriter) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.w.Close()
}
