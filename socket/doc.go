// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package socket wraps raw platform sockets behind a move-only value type
// with the option set the server's listen and accept paths require:
// address/port reuse, immediate-close linger, Nagle disabled, 64 KiB
// buffers. Reactor backends operate on the raw descriptor via Fd/Take.
package socket
