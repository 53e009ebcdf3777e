package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidMagic is returned for data without the wasm magic number.
	ErrInvalidMagic = errors.New("wasm: invalid magic number")
	// ErrInvalidVersion is returned for an unsupported binary version.
	ErrInvalidVersion = errors.New("wasm: unsupported version")
)

// ParseExports returns the exports of a core module in declaration
// order. Every other section is skipped unread.
func ParseExports(data []byte) ([]Export, error) {
	if len(data) < 8 {
		return nil, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(data[:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(data[4:8]) != Version {
		return nil, ErrInvalidVersion
	}

	r := bytes.NewReader(data[8:])
	for {
		id, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		size, err := ReadLEB128u(r)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		if int64(size) > int64(r.Len()) {
			return nil, fmt.Errorf("section %d: size %d exceeds remaining %d bytes", id, size, r.Len())
		}
		if id != SectionExport {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}
		content := make([]byte, size)
		if _, err := io.ReadFull(r, content); err != nil {
			return nil, err
		}
		exports, err := parseExportSection(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("export section: %w", err)
		}
		return exports, nil
	}
}

func parseExportSection(r *bytes.Reader) ([]Export, error) {
	count, err := ReadLEB128u(r)
	if err != nil {
		return nil, err
	}
	if int64(count) > int64(r.Len()) {
		return nil, fmt.Errorf("export count %d exceeds section size", count)
	}
	exports := make([]Export, count)
	for i := range exports {
		name, err := readName(r)
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if kind > KindTag {
			return nil, fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := ReadLEB128u(r)
		if err != nil {
			return nil, err
		}
		exports[i] = Export{Name: name, Kind: kind, Idx: idx}
	}
	return exports, nil
}

func readName(r *bytes.Reader) (string, error) {
	n, err := ReadLEB128u(r)
	if err != nil {
		return "", err
	}
	if int64(n) > int64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
