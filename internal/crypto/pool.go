// pool.go: pooled staging buffers for transient payloads.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import "sync"

// payloadBufferPool recycles the staging buffers that hold pre-encryption
// payloads (flag byte + compressed plaintext) and post-decryption payloads
// before decompression. Both carry plaintext-derived data, so buffers are
// zeroed before they go back to the pool.
var payloadBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 4*1024)
		return &buf
	},
}

// maxPooledPayload caps the capacity of buffers kept in the pool; larger
// one-off payloads are zeroed and left to the GC.
const maxPooledPayload = 1 << 20

// getPayloadBuffer returns a zero-length buffer with pooled capacity.
func getPayloadBuffer() []byte {
	buf := payloadBufferPool.Get().(*[]byte)
	return (*buf)[:0]
}

// putPayloadBuffer zeroes the buffer's full capacity and returns it to the
// pool when its size is reasonable. Safe to call with buffers that grew
// past the pooled capacity or were allocated elsewhere.
func putPayloadBuffer(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	full := buf[:cap(buf)]
	Zeroize(full)
	if cap(buf) <= maxPooledPayload {
		payloadBufferPool.Put(&buf)
	}
}
