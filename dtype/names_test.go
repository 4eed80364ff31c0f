package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredefinedName(t *testing.T) {
	cases := []struct {
		d    Descriptor
		name string
	}{
		{Integer{Width: 1, Signed: true, Order: OrderLE}, "H5T_STD_I8LE"},
		{Integer{Width: 2, Signed: false, Order: OrderBE}, "H5T_STD_U16BE"},
		{Integer{Width: 4, Signed: true, Order: OrderLE}, "H5T_STD_I32LE"},
		{Integer{Width: 8, Signed: false, Order: OrderLE}, "H5T_STD_U64LE"},
		{Float{Width: 4, Order: OrderLE}, "H5T_IEEE_F32LE"},
		{Float{Width: 8, Order: OrderBE}, "H5T_IEEE_F64BE"},
	}
	for _, c := range cases {
		name, err := PredefinedName(c.d)
		require.NoError(t, err)
		require.Equal(t, c.name, name)

		back, err := ParsePredefined(name)
		require.NoError(t, err)
		require.Equal(t, c.d, back)
	}
}

func TestPredefinedNameInvalidWidth(t *testing.T) {
	_, err := PredefinedName(Integer{Width: 3, Signed: true})
	require.Error(t, err)

	_, err = PredefinedName(Float{Width: 2})
	require.Error(t, err)
}

func TestParsePredefinedRejects(t *testing.T) {
	for _, name := range []string{
		"",
		"H5T_STD_I32",     // missing order
		"H5T_STD_X32LE",   // bad sign marker
		"H5T_STD_I24LE",   // bad width
		"H5T_IEEE_F16LE",  // bad float width
		"H5T_IEEE_FLE",    // no digits
		"datatypes/t-123", // committed URI, not a predefined name
	} {
		_, err := ParsePredefined(name)
		require.Error(t, err, "name %q", name)
		require.False(t, IsPredefinedName(name))
	}
}

func TestIsPredefinedName(t *testing.T) {
	require.True(t, IsPredefinedName("H5T_STD_I64BE"))
	require.True(t, IsPredefinedName("H5T_IEEE_F64LE"))
	require.False(t, IsPredefinedName("groups/g-abc"))
}
