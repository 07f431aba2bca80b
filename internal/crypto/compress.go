// compress.go: zstd pre-encryption compression with the in-band flag byte.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package crypto

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
	"github.com/klauspost/compress/zstd"
)

// CompressionFlag marks a sealed payload whose remainder is zstd-compressed.
// Any other leading byte (or an empty payload) means the payload is raw,
// which keeps containers produced without compression decryptable.
const CompressionFlag byte = 0x01

// Shared zstd coders; both are stateless in the EncodeAll/DecodeAll mode
// used here. Options are static, so construction cannot fail.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressPayload compresses data and prepends the compression flag. The
// result is what gets sealed; return it to the pool with putPayloadBuffer
// once sealed, since it is plaintext-derived.
func compressPayload(data []byte) []byte {
	buf := append(getPayloadBuffer(), CompressionFlag)
	return zstdEncoder.EncodeAll(data, buf)
}

// decompressPayload inspects the decrypted payload's flag byte. If the
// payload is flagged it returns the decompressed remainder and true;
// otherwise it returns the payload unchanged and false.
//
// Decompression failure is ErrCompression, never ErrAuthentication: the
// AEAD tag already proved integrity by the time this runs.
func decompressPayload(payload []byte) ([]byte, bool, error) {
	if len(payload) == 0 || payload[0] != CompressionFlag {
		return payload, false, nil
	}
	out, err := zstdDecoder.DecodeAll(payload[1:], nil)
	if err != nil {
		richErr := goerrors.Wrap(err, ErrCodeDecompress, "failed to decompress payload")
		return nil, false, fmt.Errorf("%w: %w", ErrCompression, richErr)
	}
	return out, true, nil
}
