package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testVersion = ServerVersion{Major: 0, Minor: 8, Patch: 5}

func roundTrip(t *testing.T, d Descriptor) Descriptor {
	t.Helper()
	doc, err := Encode(d, testVersion)
	require.NoError(t, err)
	back, err := Decode(doc)
	require.NoError(t, err)
	return back
}

func TestEncodeInteger(t *testing.T) {
	doc, err := Encode(Integer{Width: 4, Signed: true, Order: OrderLE}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `{"class": "H5T_INTEGER", "base": "H5T_STD_I32LE"}`, doc)
}

func TestEncodeFloat(t *testing.T) {
	doc, err := Encode(Float{Width: 8, Order: OrderBE}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `{"class": "H5T_FLOAT", "base": "H5T_IEEE_F64BE"}`, doc)
}

func TestEncodeVariableString(t *testing.T) {
	doc, err := Encode(String{Charset: CharsetUTF8, Pad: PadNullTerm, Length: Variable}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `{"class": "H5T_STRING", "charSet": "H5T_CSET_UTF8", "strPad": "H5T_STR_NULLTERM", "length": "H5T_VARIABLE"}`, doc)
}

func TestEncodeFixedString(t *testing.T) {
	doc, err := Encode(String{Charset: CharsetASCII, Pad: PadNullPad, Length: 16}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `{"class": "H5T_STRING", "charSet": "H5T_CSET_ASCII", "strPad": "H5T_STR_NULLPAD", "length": 16}`, doc)
}

func TestEncodeFixedUTF8VersionGate(t *testing.T) {
	s := String{Charset: CharsetUTF8, Pad: PadNullPad, Length: 8}

	_, err := Encode(s, ServerVersion{Major: 0, Minor: 8, Patch: 4})
	require.Error(t, err)

	_, err = Encode(s, ServerVersion{Major: 0, Minor: 8, Patch: 5})
	require.NoError(t, err)

	_, err = Encode(s, ServerVersion{Major: 0, Minor: 9, Patch: 0})
	require.NoError(t, err)
}

func TestEncodeStringRejectsWrongPad(t *testing.T) {
	_, err := Encode(String{Charset: CharsetASCII, Pad: PadNullPad, Length: Variable}, testVersion)
	require.Error(t, err)

	_, err = Encode(String{Charset: CharsetASCII, Pad: PadNullTerm, Length: 8}, testVersion)
	require.Error(t, err)
}

func TestEncodeCommitted(t *testing.T) {
	doc, err := Encode(Committed{URI: "datatypes/t-0123"}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `"datatypes/t-0123"`, doc)

	back, err := Decode(doc)
	require.NoError(t, err)
	require.Equal(t, Committed{URI: "datatypes/t-0123"}, back)
}

func TestEncodeReference(t *testing.T) {
	doc, err := Encode(Reference{Kind: RefObject}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `{"class": "H5T_REFERENCE", "base": "H5T_STD_REF_OBJ"}`, doc)

	doc, err = Encode(Reference{Kind: RefRegion}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `{"class": "H5T_REFERENCE", "base": "H5T_STD_REF_DSETREG"}`, doc)
}

func TestEncodeTypeBody(t *testing.T) {
	body, err := EncodeTypeBody(Integer{Width: 1, Signed: false, Order: OrderLE}, testVersion)
	require.NoError(t, err)
	require.Equal(t, `"type": {"class": "H5T_INTEGER", "base": "H5T_STD_U8LE"}`, body)
}

func TestRoundTripCompoundOfArrayOfEnum(t *testing.T) {
	enum := Enum{
		Base: Integer{Width: 2, Signed: true, Order: OrderLE},
		Members: []Member{
			{Name: "A", Value: 0},
			{Name: "B", Value: 1},
		},
	}
	d := Packed(
		Field{Name: "grid", Type: Array{Base: enum, Dims: []int{3, 3}}},
		Field{Name: "score", Type: Float{Width: 8, Order: OrderLE}},
	)

	back := roundTrip(t, d)
	require.True(t, Equal(d, back))
	require.Equal(t, d.Size(), back.Size())

	bc, ok := back.(Compound)
	require.True(t, ok)
	require.Equal(t, 0, bc.Fields[0].Offset)
	require.Equal(t, 18, bc.Fields[1].Offset)
	require.Equal(t, 26, bc.Size())
}

func TestRoundTripEnumUnsignedBase(t *testing.T) {
	d := Enum{
		Base: Integer{Width: 8, Signed: false, Order: OrderLE},
		Members: []Member{
			{Name: "HUGE", Value: -1}, // encodes as max uint64
			{Name: "ZERO", Value: 0},
		},
	}
	doc, err := Encode(d, testVersion)
	require.NoError(t, err)
	require.Contains(t, doc, `"HUGE": 18446744073709551615`)

	back, err := Decode(doc)
	require.NoError(t, err)
	require.True(t, Equal(d, back))
}

func TestDecodeTypeSubsection(t *testing.T) {
	doc := `{"id": "d-1", "type": {"class": "H5T_INTEGER", "base": "H5T_STD_I16BE"}, "shape": {"class": "H5S_SIMPLE", "dims": [4]}}`
	d, err := Decode(doc)
	require.NoError(t, err)
	require.Equal(t, Integer{Width: 2, Signed: true, Order: OrderBE}, d)
}

func TestDecodeBareStringCommitted(t *testing.T) {
	d, err := Decode(`"datatypes/t-9f"`)
	require.NoError(t, err)
	require.Equal(t, Committed{URI: "datatypes/t-9f"}, d)
}

func TestDecodeBarePredefined(t *testing.T) {
	d, err := Decode(`"H5T_IEEE_F32LE"`)
	require.NoError(t, err)
	require.Equal(t, Float{Width: 4, Order: OrderLE}, d)
}

func TestDecodeEnumPreservesMemberOrder(t *testing.T) {
	doc := `{"class": "H5T_ENUM", "base": {"class": "H5T_INTEGER", "base": "H5T_STD_I32LE"}, "mapping": {"GAS": 2, "LIQUID": 1, "SOLID": 0}}`
	d, err := Decode(doc)
	require.NoError(t, err)
	e, ok := d.(Enum)
	require.True(t, ok)
	require.Equal(t, []Member{{"GAS", 2}, {"LIQUID", 1}, {"SOLID", 0}}, e.Members)
}

func TestDecodeUnsupportedClasses(t *testing.T) {
	for _, class := range []string{"H5T_BITFIELD", "H5T_OPAQUE", "H5T_VLEN", "H5T_TIME"} {
		_, err := Decode(`{"class": "` + class + `"}`)
		var ute *UnsupportedTypeError
		require.ErrorAs(t, err, &ute, "class %s", class)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, doc := range []string{
		``,
		`{}`,
		`{"class": "H5T_INTEGER"}`,
		`{"class": "H5T_COMPOUND", "fields": []}`,
		`{"class": "H5T_ARRAY", "base": "H5T_STD_I8LE", "dims": []}`,
		`{"class": "H5T_ARRAY", "base": "H5T_STD_I8LE", "dims": [0]}`,
		`{"class": "H5T_STRING", "charSet": "H5T_CSET_ASCII", "strPad": "H5T_STR_NULLPAD"}`,
		`{"class": "H5T_NO_SUCH_CLASS"}`,
	} {
		_, err := Decode(doc)
		require.Error(t, err, "doc %s", doc)
	}
}

func TestRoundTripNestedCompound(t *testing.T) {
	inner := Packed(
		Field{Name: "x", Type: Float{Width: 4, Order: OrderLE}},
		Field{Name: "y", Type: Float{Width: 4, Order: OrderLE}},
	)
	outer := Packed(
		Field{Name: "pos", Type: inner},
		Field{Name: "id", Type: Integer{Width: 8, Signed: false, Order: OrderLE}},
		Field{Name: "tag", Type: String{Charset: CharsetASCII, Pad: PadNullPad, Length: 12}},
	)
	back := roundTrip(t, outer)
	require.True(t, Equal(outer, back))
	require.Equal(t, 28, back.Size())
}
