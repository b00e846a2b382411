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

/*
Package quiver implements the Arrow columnar in-memory format and its
binary IPC protocol: a language-independent way to represent typed,
nullable, variable-shape tabular data in contiguous memory buffers, and
to serialize that representation to a byte stream without copying values.

The root package holds the type system: the closed Type tag set, the
DataType variants, Field, Schema and the Array/ArrayData/Record
interfaces. Physical storage lives in the memory package, typed views
and builders in the array package, and the wire codec in the ipc package.

Buffers, arrays and records are immutable once constructed and safe to
share read-only across goroutines; builders and reader/writer sessions
are single-owner.
*/
package quiver
