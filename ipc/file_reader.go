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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/quiverio/quiver"
	"github.com/quiverio/quiver/internal/flatbuf"
	"github.com/quiverio/quiver/memory"
)

// FileReader is an Arrow file reader.
type FileReader struct {
	r ReadAtSeeker

	footer struct {
		offset int64
		buffer *memory.Buffer
		data   *flatbuf.Footer
	}

	// dictionaries indexed by the ids assigned in the schema, resolved
	// from the footer blocks before any record is read.
	memo      map[int64]quiver.ArrayData
	dictTypes map[int64]quiver.DataType
	mapper    dictMapper

	schema *quiver.Schema
	rec    quiver.Record

	irec int // current record index, used by the sequential Read

	mem memory.Allocator
}

// NewFileReader opens an Arrow file using the provided reader r.
func NewFileReader(r ReadAtSeeker, opts ...Option) (*FileReader, error) {
	var (
		cfg = newConfig(opts...)
		err error

		f = FileReader{
			r:    r,
			memo: make(map[int64]quiver.ArrayData),
			mem:  cfg.alloc,
		}
	)

	if cfg.footer.offset <= 0 {
		cfg.footer.offset, err = r.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, errors.Wrap(err, "quiver/ipc: could not retrieve footer offset")
		}
	}
	f.footer.offset = cfg.footer.offset

	if err := f.readFooter(); err != nil {
		return nil, errors.Wrap(err, "quiver/ipc: could not decode footer")
	}

	if err := f.readSchema(); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "quiver/ipc: could not decode schema")
	}

	if cfg.schema != nil && !cfg.schema.Equal(f.schema) {
		f.Close()
		return nil, errInconsistentSchema
	}

	return &f, nil
}

func (f *FileReader) readFooter() error {
	var err error

	if f.footer.offset <= int64(len(Magic)*2+4) {
		return errors.Errorf("quiver/ipc: file too small (size=%d)", f.footer.offset)
	}

	eof := int64(len(Magic) + 4)
	buf := make([]byte, eof)
	if _, err = f.r.ReadAt(buf, f.footer.offset-eof); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not read footer data")
	}

	if !bytes.Equal(buf[4:], Magic) {
		return errNotArrowFile
	}

	size := int64(binary.LittleEndian.Uint32(buf[:4]))
	if size <= 0 || size+int64(len(Magic))*2+4 > f.footer.offset {
		return errInconsistentFileMetadata
	}

	buf = make([]byte, size)
	if _, err = f.r.ReadAt(buf, f.footer.offset-size-eof); err != nil {
		return errors.Wrap(err, "quiver/ipc: could not read footer")
	}

	f.footer.buffer = memory.NewBufferBytes(buf)
	f.footer.data = flatbuf.GetRootAsFooter(buf, 0)
	return nil
}

func (f *FileReader) readSchema() error {
	schemaFB := f.footer.data.Schema(nil)
	if schemaFB == nil {
		return errors.New("quiver/ipc: could not load schema from flatbuffer data")
	}

	var err error
	f.mapper = newDictMapper()
	f.schema, err = schemaFromFB(schemaFB, &f.mapper)
	if err != nil {
		return errors.Wrap(err, "quiver/ipc: could not read schema")
	}

	f.dictTypes = make(map[int64]quiver.DataType, f.mapper.numDicts())
	var pos fieldPos
	for i, field := range f.schema.Fields() {
		if err := collectDictTypes(pos.child(int32(i)), field.Type, &f.mapper, f.dictTypes); err != nil {
			return err
		}
	}

	// resolve all dictionaries up front, records may reference any of
	// them regardless of their position in the file.
	for i := 0; i < f.NumDictionaries(); i++ {
		blk, err := f.dict(i)
		if err != nil {
			return errors.Wrapf(err, "quiver/ipc: could not read dictionary block %d", i)
		}

		msg, err := blk.NewMessage()
		if err != nil {
			return err
		}

		if msg.Type() != MessageDictionaryBatch {
			msg.Release()
			return errors.Errorf("quiver/ipc: invalid block type %v (wanted %v)", msg.Type(), MessageDictionaryBatch)
		}

		err = loadDictionaryBatch(msg, f.dictTypes, &f.mapper, f.memo, f.mem)
		msg.Release()
		if err != nil {
			return errors.Wrapf(err, "quiver/ipc: could not load dictionary %d", i)
		}
	}

	return nil
}

func (f *FileReader) block(i int) (fileBlock, error) {
	var blk flatbuf.Block
	if !f.footer.data.RecordBatches(&blk, i) {
		return fileBlock{}, errors.Errorf("quiver/ipc: could not extract file block %d", i)
	}

	return fileBlock{
		Offset: blk.Offset(),
		Meta:   blk.MetaDataLength(),
		Body:   blk.BodyLength(),
		r:      f.r,
	}, nil
}

func (f *FileReader) dict(i int) (fileBlock, error) {
	var blk flatbuf.Block
	if !f.footer.data.Dictionaries(&blk, i) {
		return fileBlock{}, errors.Errorf("quiver/ipc: could not extract dictionary block %d", i)
	}

	return fileBlock{
		Offset: blk.Offset(),
		Meta:   blk.MetaDataLength(),
		Body:   blk.BodyLength(),
		r:      f.r,
	}, nil
}

func (f *FileReader) Schema() *quiver.Schema {
	return f.schema
}

func (f *FileReader) NumDictionaries() int {
	if f.footer.data == nil {
		return 0
	}
	return f.footer.data.DictionariesLength()
}

func (f *FileReader) NumRecords() int {
	return f.footer.data.RecordBatchesLength()
}

func (f *FileReader) Version() MetadataVersion {
	return MetadataVersion(f.footer.data.Version())
}

// Close cleans up resources used by the FileReader.
// Close does not close the underlying reader.
func (f *FileReader) Close() error {
	if f.rec != nil {
		f.rec.Release()
		f.rec = nil
	}
	for id, dict := range f.memo {
		dict.Release()
		delete(f.memo, id)
	}
	f.footer.data = nil
	if f.footer.buffer != nil {
		f.footer.buffer.Release()
		f.footer.buffer = nil
	}
	return nil
}

// Record returns the i-th record from the file.
// The returned value is valid until the next call to Record.
// Users need to call Retain on that Record to keep it valid for longer.
func (f *FileReader) Record(i int) (quiver.Record, error) {
	record, err := f.RecordAt(i)
	if err != nil {
		return nil, err
	}

	if f.rec != nil {
		f.rec.Release()
	}

	f.rec = record
	return record, nil
}

// RecordAt returns the i-th record from the file. Ownership is
// transferred to the caller and must be released.
func (f *FileReader) RecordAt(i int) (quiver.Record, error) {
	if i < 0 || i >= f.NumRecords() {
		return nil, errors.Errorf("quiver/ipc: record index %d out of bounds (max=%d)", i, f.NumRecords())
	}

	blk, err := f.block(i)
	if err != nil {
		return nil, err
	}

	msg, err := blk.NewMessage()
	if err != nil {
		return nil, err
	}
	defer msg.Release()

	if msg.Type() != MessageRecordBatch {
		return nil, errors.Errorf("quiver/ipc: message %d is not a Record (got=%v)", i, msg.Type())
	}

	return newRecordFromMessage(f.schema, msg, &f.mapper, f.memo, f.mem)
}

// Read reads the current record from the underlying stream and an error, if any.
// When the Reader reaches the end of the underlying stream, it returns (nil, io.EOF).
//
// The returned record value is valid until the next call to Read.
// Users need to call Retain on that Record to keep it valid for longer.
func (f *FileReader) Read() (rec quiver.Record, err error) {
	if f.irec == f.NumRecords() {
		return nil, io.EOF
	}
	rec, err = f.Record(f.irec)
	f.irec++
	return rec, err
}

// ReadAt reads the i-th record from the underlying stream and an error, if any.
func (f *FileReader) ReadAt(i int64) (quiver.Record, error) {
	return f.Record(int(i))
}
