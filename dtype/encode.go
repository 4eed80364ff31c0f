package dtype

import (
	"github.com/scidata/hsds/internal/jbuf"
)

// defaultBodySize is the initial capacity of the encoder's output buffer.
// Nested compound types grow it geometrically as fragments are appended.
const defaultBodySize = 512

// ServerVersion is the remote store's reported semantic version. Some wire
// features are gated on it.
type ServerVersion struct {
	Major, Minor, Patch int
}

// AtLeast reports whether the version is >= the given version.
func (v ServerVersion) AtLeast(major, minor, patch int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

// SupportsFixedUTF8 reports whether the server accepts fixed-length UTF-8
// strings. Servers below 0.8.5 reject them.
func (v ServerVersion) SupportsFixedUTF8() bool {
	return v.AtLeast(0, 8, 5)
}

// Encode converts a descriptor to its JSON wire form: an object for
// structural types, or a bare quoted URI for committed types.
func Encode(d Descriptor, sv ServerVersion) (string, error) {
	b := jbuf.New(defaultBodySize)
	if err := encode(b, d, sv); err != nil {
		return "", err
	}
	return b.String(), nil
}

// EncodeTypeBody converts a descriptor to a `"type": ...` fragment for
// embedding in a request body.
func EncodeTypeBody(d Descriptor, sv ServerVersion) (string, error) {
	b := jbuf.New(defaultBodySize)
	b.Str(`"type": `)
	if err := encode(b, d, sv); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encode(b *jbuf.Builder, d Descriptor, sv ServerVersion) error {
	switch t := d.(type) {
	case Committed:
		// The descriptor's class and shape are resolved server-side; only
		// the URI goes on the wire.
		b.Quoted(t.URI)
		return nil

	case Integer, Float:
		name, err := PredefinedName(t)
		if err != nil {
			return err
		}
		b.Str(`{"class": "`)
		b.Str(t.Class().String())
		b.Str(`", "base": "`)
		b.Str(name)
		b.Str(`"}`)
		return nil

	case String:
		return encodeString(b, t, sv)

	case Compound:
		b.Str(`{"class": "H5T_COMPOUND", "fields": [`)
		for i, f := range t.Fields {
			if i > 0 {
				b.Str(", ")
			}
			b.Str(`{"name": `)
			b.Quoted(f.Name)
			b.Str(`, "type": `)
			if err := encode(b, f.Type, sv); err != nil {
				return err
			}
			b.Byte('}')
		}
		b.Str(`]}`)
		return nil

	case Array:
		b.Str(`{"class": "H5T_ARRAY", "base": `)
		if err := encode(b, t.Base, sv); err != nil {
			return err
		}
		b.Str(`, "dims": [`)
		for i, dim := range t.Dims {
			if i > 0 {
				b.Str(", ")
			}
			b.Int(int64(dim))
		}
		b.Str(`]}`)
		return nil

	case Enum:
		base, ok := t.Base.(Integer)
		if !ok {
			return &UnsupportedTypeError{What: "enum with non-integer base"}
		}
		b.Str(`{"class": "H5T_ENUM", "base": `)
		if err := encode(b, base, sv); err != nil {
			return err
		}
		b.Str(`, "mapping": {`)
		for i, m := range t.Members {
			if i > 0 {
				b.Str(", ")
			}
			b.Quoted(m.Name)
			b.Str(": ")
			if base.Signed {
				b.Int(m.Value)
			} else {
				b.Uint(uint64(m.Value))
			}
		}
		b.Str(`}}`)
		return nil

	case Reference:
		b.Str(`{"class": "H5T_REFERENCE", "base": "`)
		if t.Kind == RefRegion {
			b.Str(refRegionBase)
		} else {
			b.Str(refObjectBase)
		}
		b.Str(`"}`)
		return nil

	default:
		return &UnsupportedTypeError{What: d.Class().String()}
	}
}

const (
	refObjectBase = "H5T_STD_REF_OBJ"
	refRegionBase = "H5T_STD_REF_DSETREG"
)

func encodeString(b *jbuf.Builder, t String, sv ServerVersion) error {
	switch t.Charset {
	case CharsetASCII, CharsetUTF8:
	default:
		return &UnsupportedTypeError{What: "string character set"}
	}

	if t.IsVariable() {
		// Variable-length strings are always null-terminated on the wire.
		if t.Pad != PadNullTerm {
			return &UnsupportedTypeError{What: "variable-length string padding " + t.Pad.String()}
		}
		b.Str(`{"class": "H5T_STRING", "charSet": "`)
		b.Str(t.Charset.String())
		b.Str(`", "strPad": "H5T_STR_NULLTERM", "length": "H5T_VARIABLE"}`)
		return nil
	}

	if t.Length <= 0 {
		return &InvalidValueError{What: "fixed string length", Value: "0"}
	}
	if t.Pad != PadNullPad {
		return &UnsupportedTypeError{What: "fixed-length string padding " + t.Pad.String()}
	}
	if t.Charset == CharsetUTF8 && !sv.SupportsFixedUTF8() {
		return &UnsupportedTypeError{What: "fixed-length UTF-8 strings require server version 0.8.5+"}
	}

	b.Str(`{"class": "H5T_STRING", "charSet": "`)
	b.Str(t.Charset.String())
	b.Str(`", "strPad": "H5T_STR_NULLPAD", "length": `)
	b.Int(int64(t.Length))
	b.Byte('}')
	return nil
}
