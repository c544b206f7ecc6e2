// Package archive reads and writes wiki exports: the full commit log
// encoded as JSON or YAML, optionally compressed.
package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/wikiserve/internal/store"
)

// Format is the encoding of an export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatYAML:
		return Format(name), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// Compression is the stream compression wrapped around an export.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression parses a compression name. An empty name means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd, CompressionLZ4:
		return Compression(name), nil
	default:
		return "", fmt.Errorf("unknown compression %q", name)
	}
}

// Frame magic numbers, little endian on the wire.
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Write encodes commits to w.
func Write(w io.Writer, commits []store.ExportedCommit, f Format, c Compression) error {
	var (
		out     io.Writer = w
		closer  io.Closer
		encoded error
	)
	switch c {
	case CompressionNone:
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		out, closer = zw, zw
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		out, closer = lw, lw
	default:
		return fmt.Errorf("unknown compression %q", c)
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		encoded = enc.Encode(commits)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		encoded = enc.Encode(commits)
		if encoded == nil {
			encoded = enc.Close()
		}
	default:
		encoded = fmt.Errorf("unknown export format %q", f)
	}

	if closer != nil {
		if err := closer.Close(); err != nil && encoded == nil {
			encoded = fmt.Errorf("flush %s: %w", c, err)
		}
	}
	return encoded
}

// Read decodes commits from r. Compression is detected from the stream
// header, so r may hold any output of Write.
func Read(r io.Reader, f Format) ([]store.ExportedCommit, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	var in io.Reader = br
	switch {
	case bytes.Equal(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		in = zr
	case bytes.Equal(head, lz4Magic):
		in = lz4.NewReader(br)
	}

	var commits []store.ExportedCommit
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(in).Decode(&commits); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(in).Decode(&commits); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
	return commits, nil
}
