package packagedata

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Valve's binary KeyValues tree is what PICSPackageInfo.Buffer carries; no
// example in the corpus vendors a parser for it (nothing in the pack
// imports a VDF library), so this is a minimal stdlib decoder against the
// well-known type-byte/null-terminated-key/nested-children grammar,
// covering the field types package info blobs actually use.
const (
	vdfTypeObject     byte = 0x00
	vdfTypeString     byte = 0x01
	vdfTypeInt32      byte = 0x02
	vdfTypeFloat32    byte = 0x03
	vdfTypePointer    byte = 0x04
	vdfTypeWideString byte = 0x05
	vdfTypeColor      byte = 0x06
	vdfTypeUInt64     byte = 0x07
	vdfTypeEnd        byte = 0x08
	vdfTypeInt64      byte = 0x0a
)

// parseBinaryVDF decodes data into a JSON-marshalable tree suitable for
// merging into the persisted package cache (§4.14 "parses each package's
// KeyValue blob into JSON").
func parseBinaryVDF(data []byte) (map[string]any, error) {
	r := bytes.NewReader(data)
	return parseVDFObject(r)
}

func parseVDFObject(r *bytes.Reader) (map[string]any, error) {
	out := map[string]any{}
	for {
		typ, err := r.ReadByte()
		if err != nil {
			// Some PICS blobs omit the trailing end marker on the outermost
			// object; treat EOF here as an implicit close rather than an error.
			return out, nil
		}
		if typ == vdfTypeEnd {
			return out, nil
		}

		key, err := readVDFString(r)
		if err != nil {
			return nil, err
		}

		switch typ {
		case vdfTypeObject:
			child, err := parseVDFObject(r)
			if err != nil {
				return nil, err
			}
			out[key] = child
		case vdfTypeString, vdfTypeWideString:
			v, err := readVDFString(r)
			if err != nil {
				return nil, err
			}
			out[key] = v
		case vdfTypeInt32, vdfTypeColor, vdfTypePointer:
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			out[key] = v
		case vdfTypeFloat32:
			var v float32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			out[key] = v
		case vdfTypeUInt64, vdfTypeInt64:
			var v uint64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			out[key] = v
		default:
			return nil, fmt.Errorf("packagedata: unsupported VDF field type 0x%02x", typ)
		}
	}
}

func readVDFString(r *bytes.Reader) (string, error) {
	var b []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(b), nil
		}
		b = append(b, c)
	}
}
