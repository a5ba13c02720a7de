// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package httpwire implements the strict HTTP/1.1 request parser and
// response serializer: no keep-alive, no chunked transfer encoding, no
// Content-Length-driven short reads. The parser consumes a single
// contiguous byte slice (one reactor read) and tags failures with the
// phase that rejected them.
package httpwire
