// Package encoding normalizes uploaded CSV files to UTF-8. Spreadsheets
// exported on Windows machines routinely arrive as Windows-1252 or with a
// byte order mark, and customer names with accents get mangled if the bytes
// are fed to the parser as-is.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Normalize wraps r in a reader that yields UTF-8, whatever the original
// encoding was. A UTF-8 BOM is stripped; UTF-16 (either endianness) is
// decoded; already-valid UTF-8 passes through untouched; anything else is
// sniffed with chardet and decoded, defaulting to Windows-1252, which is
// what Brazilian Excel exports in practice.
func Normalize(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sniffing input: %w", err)
	}

	if bytes.HasPrefix(head, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}

	if bytes.HasPrefix(head, bomUTF16LE) {
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if bytes.HasPrefix(head, bomUTF16BE) {
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if utf8.Valid(head) {
		return br, nil
	}

	if dec := sniffDecoder(head); dec != nil {
		return transform.NewReader(br, dec), nil
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

func sniffDecoder(head []byte) transform.Transformer {
	result, err := chardet.NewTextDetector().DetectBest(head)
	if err != nil {
		return nil
	}

	switch result.Charset {
	case "ISO-8859-1", "windows-1252":
		return charmap.Windows1252.NewDecoder()
	case "ISO-8859-9":
		return charmap.ISO8859_9.NewDecoder()
	}

	return nil
}
