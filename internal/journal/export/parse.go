package export

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// parseLine converts one `journalctl -o json` object into journal fields.
// Values may be strings, numbers or byte arrays; nulls and nested objects
// are dropped. Arrays of strings (repeated fields) keep the first value.
func parseLine(line []byte) (map[string]string, bool) {
	if !gjson.ValidBytes(line) {
		return nil, false
	}
	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		return nil, false
	}
	fields := make(map[string]string)
	doc.ForEach(func(key, value gjson.Result) bool {
		if v, ok := fieldValue(value); ok {
			fields[key.String()] = v
		}
		return true
	})
	return fields, true
}

func fieldValue(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.String(), true
	case gjson.Number:
		return v.Raw, true
	case gjson.True, gjson.False:
		return v.Raw, true
	case gjson.JSON:
		if !v.IsArray() {
			return "", false
		}
		return arrayValue(v.Array())
	}
	return "", false
}

// arrayValue decodes journald's binary-safe byte arrays. A list of strings
// is a field repeated within one entry.
func arrayValue(items []gjson.Result) (string, bool) {
	if len(items) == 0 {
		return "", true
	}
	if items[0].Type == gjson.String {
		return items[0].String(), true
	}
	buf := make([]byte, 0, len(items))
	for _, it := range items {
		if it.Type != gjson.Number {
			return "", false
		}
		n := it.Int()
		if n < 0 || n > 255 {
			return "", false
		}
		buf = append(buf, byte(n))
	}
	if utf8.Valid(buf) {
		return string(buf), true
	}
	return strings.ToValidUTF8(string(buf), string(utf8.RuneError)), true
}
