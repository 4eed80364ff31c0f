package dtype

import (
	"github.com/tidwall/gjson"
)

// Decode parses a JSON document into a Descriptor. The document may be a
// bare type object, a quoted predefined name or committed URI, or a larger
// description (a full dataset or attribute body) whose `type` key holds the
// type subsection; in that case exactly the subsection is decoded and
// sibling keys are ignored.
func Decode(doc string) (Descriptor, error) {
	v := gjson.Parse(doc)
	if !v.Exists() || (v.Type == gjson.JSON && !v.IsObject() && !v.IsArray()) {
		return nil, &ParseError{Msg: "malformed type document"}
	}
	if v.IsObject() {
		if t := v.Get("type"); t.Exists() {
			v = t
		}
	}
	return decodeValue(v)
}

func decodeValue(v gjson.Result) (Descriptor, error) {
	// A bare string is either a predefined name or a committed type URI.
	if v.Type == gjson.String {
		s := v.String()
		if IsPredefinedName(s) {
			return ParsePredefined(s)
		}
		if s == "" {
			return nil, &ParseError{Msg: "empty type string"}
		}
		return Committed{URI: s}, nil
	}

	if !v.IsObject() {
		return nil, &ParseError{Msg: "type is neither an object nor a string"}
	}

	class := v.Get("class")
	if !class.Exists() {
		return nil, &ParseError{Msg: "type object missing class"}
	}

	switch class.String() {
	case "H5T_INTEGER", "H5T_FLOAT":
		return decodePredefined(v, class.String())
	case "H5T_STRING":
		return decodeString(v)
	case "H5T_COMPOUND":
		return decodeCompound(v)
	case "H5T_ARRAY":
		return decodeArray(v)
	case "H5T_ENUM":
		return decodeEnum(v)
	case "H5T_REFERENCE":
		return decodeReference(v)
	case "H5T_BITFIELD", "H5T_OPAQUE", "H5T_VLEN", "H5T_TIME":
		return nil, &UnsupportedTypeError{What: class.String()}
	default:
		return nil, &ParseError{Msg: "unknown type class " + class.String()}
	}
}

func decodePredefined(v gjson.Result, class string) (Descriptor, error) {
	base := v.Get("base")
	if !base.Exists() {
		return nil, &ParseError{Msg: class + " type missing base"}
	}
	d, err := ParsePredefined(base.String())
	if err != nil {
		return nil, err
	}
	if d.Class().String() != class {
		return nil, &ParseError{Msg: "base " + base.String() + " does not match class " + class}
	}
	return d, nil
}

func decodeString(v gjson.Result) (Descriptor, error) {
	var t String

	switch v.Get("charSet").String() {
	case "H5T_CSET_ASCII":
		t.Charset = CharsetASCII
	case "H5T_CSET_UTF8":
		t.Charset = CharsetUTF8
	default:
		return nil, &UnsupportedTypeError{What: "string character set " + v.Get("charSet").String()}
	}

	pad := v.Get("strPad").String()
	length := v.Get("length")
	if !length.Exists() {
		return nil, &ParseError{Msg: "string type missing length"}
	}

	if length.Type == gjson.String {
		if length.String() != "H5T_VARIABLE" {
			return nil, &InvalidValueError{What: "string length", Value: length.String()}
		}
		if pad != "H5T_STR_NULLTERM" {
			return nil, &UnsupportedTypeError{What: "variable-length string padding " + pad}
		}
		t.Pad = PadNullTerm
		t.Length = Variable
		return t, nil
	}

	if pad != "H5T_STR_NULLPAD" {
		return nil, &UnsupportedTypeError{What: "fixed-length string padding " + pad}
	}
	n := int(length.Int())
	if n <= 0 {
		return nil, &InvalidValueError{What: "string length", Value: length.Raw}
	}
	t.Pad = PadNullPad
	t.Length = n
	return t, nil
}

func decodeCompound(v gjson.Result) (Descriptor, error) {
	fields := v.Get("fields")
	if !fields.IsArray() {
		return nil, &ParseError{Msg: "compound type missing fields"}
	}

	var out []Field
	offset := 0
	var ferr error
	fields.ForEach(func(_, fv gjson.Result) bool {
		name := fv.Get("name")
		if !name.Exists() {
			ferr = &ParseError{Msg: "compound field missing name"}
			return false
		}
		ft := fv.Get("type")
		if !ft.Exists() {
			ferr = &ParseError{Msg: "compound field " + name.String() + " missing type"}
			return false
		}
		d, err := decodeValue(ft)
		if err != nil {
			ferr = err
			return false
		}
		// Field order determines byte offsets: members are laid out
		// sequentially with no padding on decode.
		out = append(out, Field{Name: name.String(), Type: d, Offset: offset})
		offset += d.Size()
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	if len(out) == 0 {
		return nil, &ParseError{Msg: "compound type has no fields"}
	}
	return Compound{Fields: out, NumBytes: offset}, nil
}

func decodeArray(v gjson.Result) (Descriptor, error) {
	base := v.Get("base")
	if !base.Exists() {
		return nil, &ParseError{Msg: "array type missing base"}
	}
	d, err := decodeValue(base)
	if err != nil {
		return nil, err
	}

	dims := v.Get("dims")
	if !dims.IsArray() {
		return nil, &ParseError{Msg: "array type missing dims"}
	}
	var out []int
	dims.ForEach(func(_, dv gjson.Result) bool {
		out = append(out, int(dv.Int()))
		return true
	})
	if len(out) == 0 {
		return nil, &ParseError{Msg: "array type has empty dims"}
	}
	for _, dim := range out {
		if dim <= 0 {
			return nil, &InvalidValueError{What: "array dimension", Value: dims.Raw}
		}
	}
	return Array{Base: d, Dims: out}, nil
}

func decodeEnum(v gjson.Result) (Descriptor, error) {
	base := v.Get("base")
	if !base.Exists() {
		return nil, &ParseError{Msg: "enum type missing base"}
	}
	d, err := decodeValue(base)
	if err != nil {
		return nil, err
	}
	intBase, ok := d.(Integer)
	if !ok {
		return nil, &UnsupportedTypeError{What: "enum with non-integer base"}
	}

	mapping := v.Get("mapping")
	if !mapping.IsObject() {
		return nil, &ParseError{Msg: "enum type missing mapping"}
	}
	// gjson.ForEach walks keys in document order, which preserves the
	// member order the server sent.
	var members []Member
	mapping.ForEach(func(k, mv gjson.Result) bool {
		members = append(members, Member{Name: k.String(), Value: mv.Int()})
		return true
	})
	if len(members) == 0 {
		return nil, &ParseError{Msg: "enum type has empty mapping"}
	}
	return Enum{Base: intBase, Members: members}, nil
}

func decodeReference(v gjson.Result) (Descriptor, error) {
	switch v.Get("base").String() {
	case refObjectBase:
		return Reference{Kind: RefObject}, nil
	case refRegionBase:
		return Reference{Kind: RefRegion}, nil
	default:
		return nil, &ParseError{Msg: "unknown reference base " + v.Get("base").String()}
	}
}
