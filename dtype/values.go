package dtype

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/scidata/hsds/internal/jbuf"
)

// JSON value transfers: when a selection is posted as a JSON body (point
// selections, variable-length element types), the server returns element
// values as a JSON array instead of a binary blob. DecodeValues turns that
// array into packed element bytes; EncodeValues produces the array for
// writes. Both recurse through compound members and array elements.

// DecodeValues parses the `value` array of a JSON read response into n
// packed elements of type d. The array may be nested by dataspace
// dimensions; nesting is flattened in row-major order.
func DecodeValues(d Descriptor, values gjson.Result, n int) ([]byte, error) {
	if !values.IsArray() {
		return nil, &ParseError{Msg: "value section is not an array"}
	}
	out := make([]byte, n*d.Size())
	idx := 0
	if err := decodeValueList(d, values, out, &idx, n); err != nil {
		return nil, err
	}
	if idx != n {
		return nil, &ParseError{Msg: "value array holds " + strconv.Itoa(idx) + " elements, want " + strconv.Itoa(n)}
	}
	return out, nil
}

func decodeValueList(d Descriptor, values gjson.Result, out []byte, idx *int, n int) error {
	var ferr error
	size := d.Size()
	values.ForEach(func(_, v gjson.Result) bool {
		// Arrays nested above the element level are dataspace structure,
		// not element content; recurse unless the element type itself
		// consumes an array form (compound and fixed-array values).
		if v.IsArray() && !elementConsumesArray(d) {
			if ferr = decodeValueList(d, v, out, idx, n); ferr != nil {
				return false
			}
			return true
		}
		if *idx >= n {
			ferr = &ParseError{Msg: "value array holds more elements than selected"}
			return false
		}
		ferr = decodeOneValue(d, v, out[*idx*size:(*idx+1)*size])
		*idx++
		return ferr == nil
	})
	return ferr
}

// elementConsumesArray reports whether one element's own JSON form is an
// array, so a nested array must be treated as element content rather than
// dataspace nesting.
func elementConsumesArray(d Descriptor) bool {
	switch d.(type) {
	case Compound, Array:
		return true
	default:
		return false
	}
}

func decodeOneValue(d Descriptor, v gjson.Result, out []byte) error {
	switch t := d.(type) {
	case Integer:
		if t.Signed {
			writeUint(out, t, uint64(v.Int()))
		} else {
			writeUint(out, t, v.Uint())
		}
		return nil

	case Float:
		writeFloat(out, t, v.Float())
		return nil

	case Enum:
		base, ok := t.Base.(Integer)
		if !ok {
			return &UnsupportedTypeError{What: "enum with non-integer base"}
		}
		return decodeOneValue(base, v, out)

	case String:
		if t.IsVariable() {
			return &UnsupportedTypeError{What: "variable-length string in packed value decode"}
		}
		s := v.String()
		if len(s) > t.Length {
			s = s[:t.Length]
		}
		copy(out, s)
		for i := len(s); i < t.Length; i++ {
			out[i] = 0
		}
		return nil

	case Compound:
		return decodeCompoundValue(t, v, out)

	case Array:
		if !v.IsArray() {
			return &ParseError{Msg: "array element value is not a JSON array"}
		}
		idx := 0
		total := t.NumElements()
		if err := decodeValueList(t.Base, v, out, &idx, total); err != nil {
			return err
		}
		if idx != total {
			return &ParseError{Msg: "array element value has wrong extent"}
		}
		return nil

	case Reference:
		return &UnsupportedTypeError{What: "reference in packed value decode"}

	default:
		return &UnsupportedTypeError{What: d.Class().String() + " value decode"}
	}
}

func decodeCompoundValue(t Compound, v gjson.Result, out []byte) error {
	// Compound values arrive as positional lists; some servers emit
	// objects keyed by member name. Accept both.
	if v.IsArray() {
		members := v.Array()
		if len(members) != len(t.Fields) {
			return &ParseError{Msg: "compound value member count mismatch"}
		}
		for i, f := range t.Fields {
			if err := decodeOneValue(f.Type, members[i], out[f.Offset:f.Offset+f.Type.Size()]); err != nil {
				return err
			}
		}
		return nil
	}
	if v.IsObject() {
		for _, f := range t.Fields {
			mv := v.Get(f.Name)
			if !mv.Exists() {
				return &ParseError{Msg: "compound value missing member " + f.Name}
			}
			if err := decodeOneValue(f.Type, mv, out[f.Offset:f.Offset+f.Type.Size()]); err != nil {
				return err
			}
		}
		return nil
	}
	return &ParseError{Msg: "compound value is neither list nor object"}
}

// EncodeValues renders n packed elements of type d as a JSON array for a
// JSON-body write.
func EncodeValues(d Descriptor, data []byte, n int) (string, error) {
	size := d.Size()
	if len(data) < n*size {
		return "", &InvalidValueError{What: "value buffer size", Value: "too small"}
	}
	b := jbuf.New(defaultBodySize)
	b.Byte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.Str(", ")
		}
		if err := encodeOneValue(b, d, data[i*size:(i+1)*size]); err != nil {
			return "", err
		}
	}
	b.Byte(']')
	return b.String(), nil
}

func encodeOneValue(b *jbuf.Builder, d Descriptor, elem []byte) error {
	switch t := d.(type) {
	case Integer:
		if t.Signed {
			b.Int(readInt(elem, t))
		} else {
			b.Uint(readUint(elem, t))
		}
		return nil

	case Float:
		b.Float(readFloat(elem, t))
		return nil

	case Enum:
		base, ok := t.Base.(Integer)
		if !ok {
			return &UnsupportedTypeError{What: "enum with non-integer base"}
		}
		return encodeOneValue(b, base, elem)

	case String:
		if t.IsVariable() {
			return &UnsupportedTypeError{What: "variable-length string in packed value encode"}
		}
		end := 0
		for end < len(elem) && elem[end] != 0 {
			end++
		}
		b.Quoted(string(elem[:end]))
		return nil

	case Compound:
		b.Byte('[')
		for i, f := range t.Fields {
			if i > 0 {
				b.Str(", ")
			}
			if err := encodeOneValue(b, f.Type, elem[f.Offset:f.Offset+f.Type.Size()]); err != nil {
				return err
			}
		}
		b.Byte(']')
		return nil

	case Array:
		base := t.Base.Size()
		b.Byte('[')
		for i := 0; i < t.NumElements(); i++ {
			if i > 0 {
				b.Str(", ")
			}
			if err := encodeOneValue(b, t.Base, elem[i*base:(i+1)*base]); err != nil {
				return err
			}
		}
		b.Byte(']')
		return nil

	default:
		return &UnsupportedTypeError{What: d.Class().String() + " value encode"}
	}
}

// EncodeStringValues renders variable-length strings as a JSON array for a
// JSON-body write.
func EncodeStringValues(values []string) string {
	b := jbuf.New(defaultBodySize)
	b.Byte('[')
	for i, s := range values {
		if i > 0 {
			b.Str(", ")
		}
		b.Quoted(s)
	}
	b.Byte(']')
	return b.String()
}

// DecodeStringValues flattens the `value` array of a variable-length
// string read into a string slice in row-major order.
func DecodeStringValues(values gjson.Result) ([]string, error) {
	if !values.IsArray() {
		return nil, &ParseError{Msg: "value section is not an array"}
	}
	var out []string
	var walk func(v gjson.Result)
	walk = func(v gjson.Result) {
		v.ForEach(func(_, e gjson.Result) bool {
			if e.IsArray() {
				walk(e)
			} else {
				out = append(out, e.String())
			}
			return true
		})
	}
	walk(values)
	return out, nil
}
