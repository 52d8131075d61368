package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxExactInt is the largest integer a float64 represents exactly.
const maxExactInt = 1 << 53

// NormalizeIntegers rewrites numbers written in float form that hold an
// integral value (12.0, 1e2) as plain integers, so that input accepted by an
// integer schema also decodes into Go integer fields. Other values are left
// untouched. Input that does not change is returned as is.
func NormalizeIntegers(data json.RawMessage) (json.RawMessage, error) {
	if !bytes.ContainsAny(data, ".eE") {
		return data, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}

	value, changed := normalize(value)
	if !changed {
		return data, nil
	}
	return json.Marshal(value)
}

func normalize(value any) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		changed := false
		for k, elem := range v {
			if n, ok := normalize(elem); ok {
				v[k] = n
				changed = true
			}
		}
		return v, changed
	case []any:
		changed := false
		for i, elem := range v {
			if n, ok := normalize(elem); ok {
				v[i] = n
				changed = true
			}
		}
		return v, changed
	case json.Number:
		s := string(v)
		if !strings.ContainsAny(s, ".eE") {
			return v, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
			return v, false
		}
		return json.Number(strconv.FormatInt(int64(f), 10)), true
	}
	return value, false
}
