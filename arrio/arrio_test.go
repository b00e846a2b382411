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

package arrio_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverio/quiver/arrio"
	"github.com/quiverio/quiver/internal/arrdata"
	"github.com/quiverio/quiver/ipc"
	"github.com/quiverio/quiver/memory"
)

func TestCopy(t *testing.T) {
	for _, name := range arrdata.RecordNames {
		t.Run(name, func(t *testing.T) {
			recs := arrdata.Records[name]
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			var src bytes.Buffer
			w := ipc.NewWriter(&src, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
			for _, rec := range recs {
				require.NoError(t, w.Write(rec))
			}
			require.NoError(t, w.Close())

			r, err := ipc.NewReader(&src, ipc.WithAllocator(mem))
			require.NoError(t, err)
			defer r.Release()

			var dst bytes.Buffer
			dw := ipc.NewWriter(&dst, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))

			n, err := arrio.Copy(dw, r)
			require.NoError(t, err)
			require.EqualValues(t, len(recs), n)
			require.NoError(t, dw.Close())

			// the copy reads back identical to the fixtures.
			rr, err := ipc.NewReader(&dst, ipc.WithAllocator(mem))
			require.NoError(t, err)
			defer rr.Release()

			i := 0
			for rr.Next() {
				i++
			}
			require.NoError(t, rr.Err())
			require.Equal(t, len(recs), i)
		})
	}
}

func TestCopyN(t *testing.T) {
	recs := arrdata.Records["primitives"]
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	stream := func() *ipc.Reader {
		var buf bytes.Buffer
		w := ipc.NewWriter(&buf, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
		for _, rec := range recs {
			require.NoError(t, w.Write(rec))
		}
		require.NoError(t, w.Close())

		r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
		require.NoError(t, err)
		return r
	}

	t.Run("n<len", func(t *testing.T) {
		r := stream()
		defer r.Release()

		var dst bytes.Buffer
		w := ipc.NewWriter(&dst, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
		defer w.Close()

		n, err := arrio.CopyN(w, r, 2)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
	})

	t.Run("n>len", func(t *testing.T) {
		r := stream()
		defer r.Release()

		var dst bytes.Buffer
		w := ipc.NewWriter(&dst, ipc.WithSchema(recs[0].Schema()), ipc.WithAllocator(mem))
		defer w.Close()

		n, err := arrio.CopyN(w, r, int64(len(recs))+1)
		require.EqualValues(t, len(recs), n)
		require.ErrorIs(t, err, io.EOF)
	})
}
