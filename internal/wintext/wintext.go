// Package wintext normalizes text artifacts fetched from Windows endpoints
// into UTF-8. Registry exports and log files on Windows commonly arrive as
// UTF-16 with a byte-order mark, or in the local Windows-1252 code page;
// analysis code wants plain UTF-8 either way.
package wintext

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

// Decode converts fetched bytes to a UTF-8 string. The encoding is chosen
// by BOM sniffing; BOM-less input that is already valid UTF-8 passes
// through, and anything else is treated as Windows-1252, the usual local
// code page for legacy Windows text.
func Decode(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil

	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeUTF16(data, unicode.LittleEndian)

	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeUTF16(data, unicode.BigEndian)

	case utf8.Valid(data):
		return string(data), nil

	default:
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("decode windows-1252 text: %w", err)
		}
		return string(out), nil
	}
}

func decodeUTF16(data []byte, endianness unicode.Endianness) (string, error) {
	dec := unicode.UTF16(endianness, unicode.ExpectBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode utf-16 text: %w", err)
	}
	return string(out), nil
}
