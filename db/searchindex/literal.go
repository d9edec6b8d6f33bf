package searchindex

import (
	"bytes"
)

const setIndexCall = "Search.setIndex("

// unwrap strips the `Search.setIndex(...)` call the documentation build emits
// around the index object. Plain JSON passes through untouched.
func unwrap(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte(setIndexCall)) {
		return trimmed, nil
	}

	body := bytes.TrimPrefix(trimmed, []byte(setIndexCall))
	body = bytes.TrimSpace(bytes.TrimSuffix(body, []byte(";")))
	if !bytes.HasSuffix(body, []byte(")")) {
		return nil, malformed("", "unterminated %s call", setIndexCall)
	}

	return bytes.TrimSpace(bytes.TrimSuffix(body, []byte(")"))), nil
}

// quoteBareKeys rewrites a JavaScript object literal with unquoted keys
// (`{docnames:[...],0:"py:function"}`) into JSON. Only double quoted strings
// are understood, which is what the generator writes.
func quoteBareKeys(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src)+len(src)/8)

	var last byte
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			out = append(out, src[i:end]...)
			last = '"'
			i = end

		case isSpace(c):
			out = append(out, c)
			i++

		case (last == '{' || last == ',') && isKeyPart(c):
			j := i
			for j < len(src) && isKeyPart(src[j]) {
				j++
			}
			k := j
			for k < len(src) && isSpace(src[k]) {
				k++
			}
			if k < len(src) && src[k] == ':' {
				out = append(out, '"')
				out = append(out, src[i:j]...)
				out = append(out, '"')
			} else {
				out = append(out, src[i:j]...)
			}
			last = src[j-1]
			i = j

		default:
			out = append(out, c)
			last = c
			i++
		}
	}

	return out, nil
}

// scanString returns the offset just past the closing quote of the string
// starting at src[start].
func scanString(src []byte, start int) (int, error) {
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1, nil
		}
	}
	return 0, malformed("", "unterminated string at offset %d", start)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isKeyPart(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
