package sphinx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

var (
	// ErrEmptyArtifact indicates the artifact contained no data.
	ErrEmptyArtifact = errors.New("empty search-index artifact")

	// ErrNoIndexPayload indicates the JS wrapper did not contain a record.
	ErrNoIndexPayload = errors.New("no search-index payload found in artifact")
)

const (
	setIndexPrefix = "Search.setIndex("

	// maxDecodeSize caps in-memory artifact size (64MB).
	maxDecodeSize = 64 * 1024 * 1024
)

// gzipMagic is the two-byte gzip header used to sniff compressed artifacts.
var gzipMagic = []byte{0x1f, 0x8b}

// DecodeFile reads and decodes a search-index artifact from disk.
func DecodeFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Decode parses a search-index record from r. It accepts the raw JSON
// record, the Search.setIndex(...) JS wrapper written by documentation
// builders, and a gzip-compressed copy of either form.
func Decode(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDecodeSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes parses a search-index record from an in-memory artifact.
func DecodeBytes(data []byte) (*Index, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip artifact: %w", err)
		}
		defer func() { _ = zr.Close() }()

		inflated, err := io.ReadAll(io.LimitReader(zr, maxDecodeSize))
		if err != nil {
			return nil, fmt.Errorf("failed to inflate artifact: %w", err)
		}
		data = inflated
	}

	payload := bytes.TrimSpace(data)
	if len(payload) == 0 {
		return nil, ErrEmptyArtifact
	}

	if !bytes.HasPrefix(payload, []byte("{")) {
		trimmed, err := stripSetIndexWrapper(payload)
		if err != nil {
			return nil, err
		}
		payload = trimmed
	}

	// Older builders emit a JS object literal with unquoted keys.
	payload = quoteBareKeys(payload)

	var ix Index
	if err := json.Unmarshal(payload, &ix); err != nil {
		return nil, fmt.Errorf("failed to parse search-index record: %w", err)
	}
	return &ix, nil
}

// stripSetIndexWrapper extracts the record object from the
// Search.setIndex({...}) wrapper, tolerating leading comments and a
// trailing semicolon.
func stripSetIndexWrapper(data []byte) ([]byte, error) {
	start := bytes.Index(data, []byte(setIndexPrefix))
	if start < 0 {
		return nil, ErrNoIndexPayload
	}

	rest := bytes.TrimSpace(data[start+len(setIndexPrefix):])
	end := bytes.LastIndexByte(rest, ')')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated setIndex call", ErrNoIndexPayload)
	}

	payload := bytes.TrimSpace(rest[:end])
	if len(payload) == 0 || payload[0] != '{' {
		return nil, fmt.Errorf("%w: setIndex argument is not an object", ErrNoIndexPayload)
	}
	return payload, nil
}

// quoteBareKeys rewrites a JS object literal into strict JSON by quoting
// unquoted object keys. Content inside string literals is left untouched.
// Strict-JSON input passes through unchanged.
func quoteBareKeys(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data) + len(data)/16)

	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
		case isIdentStart(c):
			j := i
			for j < len(data) && isIdentPart(data[j]) {
				j++
			}
			word := data[i:j]
			// Quote only identifiers in key position.
			if nextNonSpace(data, j) == ':' && !isJSONLiteral(word) {
				out.WriteByte('"')
				out.Write(word)
				out.WriteByte('"')
			} else {
				out.Write(word)
			}
			i = j - 1
		case isDigit(c):
			// Old jsdump output also emits numeric keys (objtypes:{0:...}).
			// A digit run in value position is a plain number and stays bare.
			j := i
			for j < len(data) && isDigit(data[j]) {
				j++
			}
			word := data[i:j]
			if nextNonSpace(data, j) == ':' {
				out.WriteByte('"')
				out.Write(word)
				out.WriteByte('"')
			} else {
				out.Write(word)
			}
			i = j - 1
		default:
			out.WriteByte(c)
		}
	}

	return out.Bytes()
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isJSONLiteral(word []byte) bool {
	switch string(word) {
	case "true", "false", "null":
		return true
	}
	return false
}

func nextNonSpace(data []byte, from int) byte {
	for i := from; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return data[i]
		}
	}
	return 0
}
