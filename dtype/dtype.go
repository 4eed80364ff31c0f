// Package dtype models HDF5 datatype descriptors and converts them to and
// from the JSON wire format used by the REST store.
//
// A Descriptor is an immutable, acyclic description of an element's binary
// layout: integers, floats, strings, compound records, fixed arrays, enums
// and object references, plus committed types referenced by server URI.
// Descriptors are built by callers at encode time or allocated fresh by
// Decode; they are never shared across concurrent transfers.
package dtype

// Class identifies the datatype variant, using the wire discriminator names.
type Class int

const (
	ClassInteger Class = iota
	ClassFloat
	ClassString
	ClassCompound
	ClassArray
	ClassEnum
	ClassReference
	ClassCommitted
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "H5T_INTEGER"
	case ClassFloat:
		return "H5T_FLOAT"
	case ClassString:
		return "H5T_STRING"
	case ClassCompound:
		return "H5T_COMPOUND"
	case ClassArray:
		return "H5T_ARRAY"
	case ClassEnum:
		return "H5T_ENUM"
	case ClassReference:
		return "H5T_REFERENCE"
	case ClassCommitted:
		return "committed"
	default:
		return "H5T_NO_CLASS"
	}
}

// ByteOrder is the wire byte order of a numeric type.
type ByteOrder int

const (
	OrderLE ByteOrder = iota
	OrderBE
)

// Descriptor is the datatype sum type. Variants are the concrete structs
// below; they are matched with type switches.
type Descriptor interface {
	Class() Class

	// Size is the packed element size in bytes used for buffer arithmetic.
	// Variable-length strings report the 8-byte handle slot they occupy,
	// references report the fixed wire slot width, and committed types
	// report zero (their layout is resolved server-side).
	Size() int
}

// Integer is a fixed-width integer type.
type Integer struct {
	Width  int // bytes: 1, 2, 4 or 8
	Signed bool
	Order  ByteOrder
}

func (Integer) Class() Class { return ClassInteger }
func (t Integer) Size() int  { return t.Width }

// Float is an IEEE-754 floating point type.
type Float struct {
	Width int // bytes: 4 or 8
	Order ByteOrder
}

func (Float) Class() Class { return ClassFloat }
func (t Float) Size() int  { return t.Width }

// Charset is the character set of a string type.
type Charset int

const (
	CharsetASCII Charset = iota
	CharsetUTF8
)

func (c Charset) String() string {
	if c == CharsetUTF8 {
		return "H5T_CSET_UTF8"
	}
	return "H5T_CSET_ASCII"
}

// StrPad is the padding scheme of a string type.
type StrPad int

const (
	PadNullTerm StrPad = iota
	PadNullPad
)

func (p StrPad) String() string {
	if p == PadNullPad {
		return "H5T_STR_NULLPAD"
	}
	return "H5T_STR_NULLTERM"
}

// Variable marks a variable-length string.
const Variable = -1

// String is a fixed- or variable-length string type. Length is the byte
// length for fixed strings or Variable.
type String struct {
	Charset Charset
	Pad     StrPad
	Length  int
}

func (String) Class() Class { return ClassString }

// varStringSlot is the handle slot a variable-length element occupies in
// planning arithmetic, matching a 64-bit pointer.
const varStringSlot = 8

func (t String) Size() int {
	if t.Length == Variable {
		return varStringSlot
	}
	return t.Length
}

// IsVariable reports whether the string is variable-length.
func (t String) IsVariable() bool { return t.Length == Variable }

// Field is one named member of a compound type, placed at a byte offset
// within the element.
type Field struct {
	Name   string
	Type   Descriptor
	Offset int
}

// Compound is an ordered record type. NumBytes is the declared element size
// and may exceed the sum of member sizes when the layout carries internal
// padding; zero means packed.
type Compound struct {
	Fields   []Field
	NumBytes int
}

func (Compound) Class() Class { return ClassCompound }

func (t Compound) Size() int {
	if t.NumBytes > 0 {
		return t.NumBytes
	}
	total := 0
	for _, f := range t.Fields {
		total += f.Type.Size()
	}
	return total
}

// Packed returns a compound over the given fields with sequential offsets
// and no padding.
func Packed(fields ...Field) Compound {
	offset := 0
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Offset = offset
		out[i] = f
		offset += f.Type.Size()
	}
	return Compound{Fields: out, NumBytes: offset}
}

// Array is a fixed multi-dimensional array of a base type.
type Array struct {
	Base Descriptor
	Dims []int
}

func (Array) Class() Class { return ClassArray }

func (t Array) Size() int {
	n := t.Base.Size()
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// NumElements is the element count of one array value.
func (t Array) NumElements() int {
	n := 1
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// Member is one named value of an enum mapping. Order is significant and
// preserved through the wire format.
type Member struct {
	Name  string
	Value int64
}

// Enum is an enumeration over an integer base type.
type Enum struct {
	Base    Descriptor // must be Integer
	Members []Member
}

func (Enum) Class() Class { return ClassEnum }
func (t Enum) Size() int  { return t.Base.Size() }

// RefKind distinguishes object references from dataset-region references.
type RefKind int

const (
	RefObject RefKind = iota
	RefRegion
)

// Reference is an object or region reference type. On the wire each
// reference occupies a fixed-width text slot.
type Reference struct {
	Kind RefKind
}

func (Reference) Class() Class { return ClassReference }

// refSlotSize is the fixed wire slot width for one reference, sized
// generously for the longest server object identifier.
const refSlotSize = 48

func (Reference) Size() int { return refSlotSize }

// Committed names a datatype stored once on the server and referenced by
// URI. It never carries nested shape; the server resolves the layout.
type Committed struct {
	URI string
}

func (Committed) Class() Class { return ClassCommitted }
func (Committed) Size() int    { return 0 }

// Equal reports structural equality of two descriptors. Field order,
// offsets, enum member order and all scalar properties must match.
func Equal(a, b Descriptor) bool {
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Compound:
		y, ok := b.(Compound)
		if !ok || len(x.Fields) != len(y.Fields) || x.Size() != y.Size() {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name ||
				x.Fields[i].Offset != y.Fields[i].Offset ||
				!Equal(x.Fields[i].Type, y.Fields[i].Type) {
				return false
			}
		}
		return true
	case Array:
		y, ok := b.(Array)
		if !ok || len(x.Dims) != len(y.Dims) {
			return false
		}
		for i := range x.Dims {
			if x.Dims[i] != y.Dims[i] {
				return false
			}
		}
		return Equal(x.Base, y.Base)
	case Enum:
		y, ok := b.(Enum)
		if !ok || len(x.Members) != len(y.Members) || !Equal(x.Base, y.Base) {
			return false
		}
		for i := range x.Members {
			if x.Members[i] != y.Members[i] {
				return false
			}
		}
		return true
	case Reference:
		y, ok := b.(Reference)
		return ok && x == y
	case Committed:
		y, ok := b.(Committed)
		return ok && x == y
	default:
		return false
	}
}

// HasVarOrRef reports whether the descriptor transitively contains a
// variable-length string or a reference. Such types need conversion and
// handle rewriting even when source and destination are structurally equal.
func HasVarOrRef(d Descriptor) bool {
	switch t := d.(type) {
	case String:
		return t.IsVariable()
	case Reference:
		return true
	case Compound:
		for _, f := range t.Fields {
			if HasVarOrRef(f.Type) {
				return true
			}
		}
		return false
	case Array:
		return HasVarOrRef(t.Base)
	default:
		return false
	}
}
