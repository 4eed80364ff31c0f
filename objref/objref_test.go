package objref

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	refs := []Ref{
		{Kind: KindGroup, ID: "g-314d61b8-9954"},
		{Kind: KindDatatype, ID: "t-228e3b27-10cd"},
		{Kind: KindDataset, ID: "d-be9c32e1-77f0"},
		{}, // null
		{Kind: KindGroup, ID: "g-00000000-0000"},
	}

	buf, err := Encode(refs)
	require.NoError(t, err)
	require.Len(t, buf, len(refs)*SlotLen)

	back, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, refs, back)
}

func TestEncodeSlotLayout(t *testing.T) {
	buf, err := Encode([]Ref{{Kind: KindDataset, ID: "d-1"}})
	require.NoError(t, err)
	require.Equal(t, "datasets/d-1", string(buf[:12]))
	for _, b := range buf[12:] {
		require.Equal(t, byte(0), b)
	}
}

func TestEncodeNullSlotIsZero(t *testing.T) {
	buf, err := Encode([]Ref{{}})
	require.NoError(t, err)
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}
}

func TestEncodeOversizeRef(t *testing.T) {
	_, err := Encode([]Ref{{Kind: KindGroup, ID: strings.Repeat("g", SlotLen)}})
	require.Error(t, err)
}

func TestEncodeInvalidKind(t *testing.T) {
	_, err := Encode([]Ref{{Kind: KindUnknown, ID: "x-1"}})
	require.Error(t, err)
}

func TestDecodeUnknownKindMarker(t *testing.T) {
	// An identifier whose leading character matches no collection decodes
	// as KindUnknown, not as an error.
	var slot [SlotLen]byte
	copy(slot[:], "groups/x-unrecognized")

	refs, err := Decode(slot[:])
	require.NoError(t, err)
	require.Equal(t, KindUnknown, refs[0].Kind)
	require.Equal(t, "x-unrecognized", refs[0].ID)
}

func TestDecodeKindFromIdentifier(t *testing.T) {
	// Classification keys on the identifier's first character, not the
	// collection prefix.
	var slot [SlotLen]byte
	copy(slot[:], "datasets/t-moved")

	refs, err := Decode(slot[:])
	require.NoError(t, err)
	require.Equal(t, KindDatatype, refs[0].Kind)
}

func TestDecodeBadLength(t *testing.T) {
	_, err := Decode(make([]byte, SlotLen+1))
	require.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	refs, err := Decode(nil)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestURIRoundTrip(t *testing.T) {
	for _, r := range []Ref{
		{Kind: KindGroup, ID: "g-1"},
		{Kind: KindDatatype, ID: "t-2"},
		{Kind: KindDataset, ID: "d-3"},
	} {
		require.Equal(t, r, FromURI(r.URI()))
	}
	require.Equal(t, Ref{}, FromURI(""))
	require.Equal(t, Ref{}, FromURI("no-separator"))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "group", KindGroup.String())
	require.Equal(t, "datatype", KindDatatype.String())
	require.Equal(t, "dataset", KindDataset.String())
	require.Equal(t, "unknown", KindUnknown.String())
}
