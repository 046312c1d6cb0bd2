// Package tag is the structured key/value form pieces persist through. A
// Compound serializes to binary NBT with github.com/Tnze/go-mc/nbt.
package tag

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Tnze/go-mc/nbt"
)

var (
	ErrMissing = errors.New("tag: missing key")
	ErrType    = errors.New("tag: wrong type")
)

// Compound holds canonical NBT value types only: int8 (booleans), int32,
// int64, string, []int32 and [][]int32. The Put methods enforce that.
type Compound map[string]any

func (c Compound) PutInt(k string, v int)       { c[k] = int32(v) }
func (c Compound) PutLong(k string, v int64)    { c[k] = v }
func (c Compound) PutString(k string, v string) { c[k] = v }

func (c Compound) PutBool(k string, v bool) {
	var b int8
	if v {
		b = 1
	}
	c[k] = b
}

func (c Compound) PutInts(k string, v []int) {
	out := make([]int32, len(v))
	for i, x := range v {
		out[i] = int32(x)
	}
	c[k] = out
}

func (c Compound) PutIntLists(k string, v [][]int) {
	out := make([][]int32, len(v))
	for i, row := range v {
		r := make([]int32, len(row))
		for j, x := range row {
			r[j] = int32(x)
		}
		out[i] = r
	}
	c[k] = out
}

func (c Compound) Has(k string) bool {
	_, ok := c[k]
	return ok
}

func (c Compound) Long(k string) (int64, error) {
	v, ok := c[k]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissing, k)
	}
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s is %T", ErrType, k, v)
}

func (c Compound) Int(k string) (int, error) {
	n, err := c.Long(k)
	return int(n), err
}

func (c Compound) Bool(k string) (bool, error) {
	n, err := c.Long(k)
	return n != 0, err
}

// BoolOr reads an optional flag.
func (c Compound) BoolOr(k string, def bool) bool {
	b, err := c.Bool(k)
	if err != nil {
		return def
	}
	return b
}

func (c Compound) IntOr(k string, def int) int {
	n, err := c.Int(k)
	if err != nil {
		return def
	}
	return n
}

func (c Compound) Str(k string) (string, error) {
	v, ok := c[k]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissing, k)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrType, k, v)
	}
	return s, nil
}

func (c Compound) Ints(k string) ([]int, error) {
	v, ok := c[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissing, k)
	}
	out, ok := intSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrType, k, v)
	}
	return out, nil
}

func (c Compound) IntLists(k string) ([][]int, error) {
	v, ok := c[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissing, k)
	}
	switch rows := v.(type) {
	case [][]int32:
		out := make([][]int, len(rows))
		for i, r := range rows {
			out[i], _ = intSlice(r)
		}
		return out, nil
	case []any:
		out := make([][]int, len(rows))
		for i, r := range rows {
			row, ok := intSlice(r)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] is %T", ErrType, k, i, r)
			}
			out[i] = row
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s is %T", ErrType, k, v)
}

func intSlice(v any) ([]int, bool) {
	switch xs := v.(type) {
	case []int32:
		out := make([]int, len(xs))
		for i, x := range xs {
			out[i] = int(x)
		}
		return out, true
	case []int64:
		out := make([]int, len(xs))
		for i, x := range xs {
			out[i] = int(x)
		}
		return out, true
	case []int:
		return append([]int(nil), xs...), true
	case []any:
		out := make([]int, len(xs))
		for i, x := range xs {
			n, err := Compound{"v": x}.Int("v")
			if err != nil {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// Canonical renders c with sorted keys. Two compounds holding the same values
// render identically regardless of how they were built or decoded.
func (c Compound) Canonical() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		v := c[k]
		if n, err := c.Long(k); err == nil {
			fmt.Fprintf(&sb, "%d", n)
		} else if xs, ok := intSlice(v); ok {
			fmt.Fprint(&sb, xs)
		} else if rows, err := c.IntLists(k); err == nil {
			fmt.Fprint(&sb, rows)
		} else {
			fmt.Fprintf(&sb, "%q", fmt.Sprint(v))
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// Marshal encodes c as an unnamed NBT compound.
func Marshal(c Compound) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(map[string]any(c), ""); err != nil {
		return nil, fmt.Errorf("tag: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func Unmarshal(b []byte) (Compound, error) {
	var m map[string]any
	if _, err := nbt.NewDecoder(bytes.NewReader(b)).Decode(&m); err != nil {
		return nil, fmt.Errorf("tag: decode: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return Compound(m), nil
}
