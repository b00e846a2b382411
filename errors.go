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

import "errors"

// The error taxonomy of the format packages. Errors returned or panicked
// by this module wrap one of these sentinels so that callers can tell the
// classes apart with errors.Is:
//
//   - ErrInvalid: malformed input or a violated construction invariant
//   - ErrNotImplemented: a type tag or encoding the implementation knows
//     about but does not support; distinct from ErrInvalid so a caller may
//     skip rather than abort
//   - ErrType: a type mismatch between a value and its declared schema
//   - ErrIndex: an out-of-range logical index
var (
	ErrInvalid        = errors.New("invalid")
	ErrNotImplemented = errors.New("not implemented")
	ErrType           = errors.New("type error")
	ErrIndex          = errors.New("index out of range")
)
