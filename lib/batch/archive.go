// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec applied to archived requests.
type Compression uint8

const (
	// CompressionNone stores the request as submitted.
	CompressionNone Compression = iota

	// CompressionLZ4 uses the LZ4 frame format: fast, modest ratio.
	CompressionLZ4

	// CompressionZstd uses zstd at the default level. Batch requests
	// are small JSON documents, where zstd compresses best.
	CompressionZstd
)

// String returns the configuration name of the codec.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// Extension is the suffix appended to archived file names.
func (c Compression) Extension() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseCompression parses a codec name as written in configuration.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown archive compression %q (want none, lz4, or zstd)", name)
	}
}

// compressionForExtension maps an archive suffix back to its codec.
func compressionForExtension(extension string) Compression {
	switch extension {
	case ".lz4":
		return CompressionLZ4
	case ".zst":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use and
// expensive to construct.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("batch: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("batch: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress encodes data with codec. CompressionNone returns data
// unchanged.
func Compress(data []byte, codec Compression) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buffer.Bytes(), nil

	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	default:
		return nil, fmt.Errorf("unsupported compression: %s", codec)
	}
}

// Decompress reverses [Compress].
func Decompress(data []byte, codec Compression) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		decompressed, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return decompressed, nil

	case CompressionZstd:
		decompressed, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return decompressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression: %s", codec)
	}
}
