package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	i32 = Integer{Width: 4, Signed: true, Order: OrderLE}
	i64 = Integer{Width: 8, Signed: true, Order: OrderLE}
	f64 = Float{Width: 8, Order: OrderLE}
)

func TestNeedsConversion(t *testing.T) {
	require.False(t, NeedsConversion(i32, i32))
	require.True(t, NeedsConversion(i32, i64))
	require.True(t, NeedsConversion(i32, f64))

	// Identical variable-length types still need handle rewriting.
	vstr := String{Charset: CharsetASCII, Pad: PadNullTerm, Length: Variable}
	require.True(t, NeedsConversion(vstr, vstr))
	ref := Reference{Kind: RefObject}
	require.True(t, NeedsConversion(ref, ref))
}

func TestPlanWideningInteger(t *testing.T) {
	plan, err := Plan(i32, i64, 10, false)
	require.NoError(t, err)

	require.True(t, plan.NeedsConversion)
	require.False(t, plan.NeedsBackground)
	require.False(t, plan.FillBackground)
	require.Equal(t, ReuseConv, plan.Reuse)
	require.Nil(t, plan.ConvBuf)
	require.Nil(t, plan.BkgBuf)
	require.Equal(t, 4, plan.SrcSize)
	require.Equal(t, 8, plan.DstSize)
}

func TestPlanNarrowingAllocatesConvBuf(t *testing.T) {
	plan, err := Plan(i64, i32, 10, false)
	require.NoError(t, err)

	require.True(t, plan.NeedsConversion)
	require.Equal(t, ReuseNone, plan.Reuse)
	require.Len(t, plan.ConvBuf, 10*8)
}

func TestPlanIdentityNoBuffers(t *testing.T) {
	plan, err := Plan(i32, i32, 100, false)
	require.NoError(t, err)
	require.False(t, plan.NeedsConversion)
	require.Nil(t, plan.ConvBuf)
	require.Nil(t, plan.BkgBuf)
}

func TestPlanZeroElements(t *testing.T) {
	plan, err := Plan(i32, i64, 0, false)
	require.NoError(t, err)
	require.Equal(t, ConversionPlan{}, plan)
}

func TestPlanNegativeElements(t *testing.T) {
	_, err := Plan(i32, i64, -1, false)
	require.Error(t, err)
}

func TestPlanCompoundBackground(t *testing.T) {
	src := Packed(Field{Name: "a", Type: i32})
	dst := Packed(
		Field{Name: "a", Type: i32},
		Field{Name: "b", Type: f64},
	)

	plan, err := Plan(src, dst, 5, false)
	require.NoError(t, err)
	require.True(t, plan.NeedsConversion)
	require.True(t, plan.NeedsBackground)
	// Member b has no source match: existing destination content must
	// survive, so the background buffer is filled.
	require.True(t, plan.FillBackground)
	// dst (12 bytes) >= src (4 bytes): destination doubles as the
	// conversion buffer, background is allocated.
	require.Equal(t, ReuseConv, plan.Reuse)
	require.Nil(t, plan.ConvBuf)
	require.Len(t, plan.BkgBuf, 5*12)
}

func TestPlanCompoundFullMatchNoFill(t *testing.T) {
	src := Packed(
		Field{Name: "a", Type: i32},
		Field{Name: "b", Type: f64},
	)
	dst := Packed(
		Field{Name: "b", Type: f64},
		Field{Name: "a", Type: i32},
	)

	plan, err := Plan(src, dst, 3, false)
	require.NoError(t, err)
	require.True(t, plan.NeedsBackground)
	require.False(t, plan.FillBackground)
}

func TestPlanCompoundPaddingForcesFill(t *testing.T) {
	src := Packed(Field{Name: "a", Type: i32})
	// Declared size exceeds the members' sum: 4 bytes of padding.
	dst := Compound{
		Fields:   []Field{{Name: "a", Type: i32, Offset: 0}},
		NumBytes: 8,
	}

	plan, err := Plan(src, dst, 2, false)
	require.NoError(t, err)
	require.True(t, plan.NeedsBackground)
	require.True(t, plan.FillBackground)
}

func TestPlanNarrowingCompoundReusesBkg(t *testing.T) {
	src := Packed(
		Field{Name: "a", Type: i64},
		Field{Name: "b", Type: f64},
	)
	dst := Packed(Field{Name: "a", Type: i32})

	plan, err := Plan(src, dst, 4, false)
	require.NoError(t, err)
	require.True(t, plan.NeedsBackground)
	require.Equal(t, ReuseBkg, plan.Reuse)
	require.Nil(t, plan.BkgBuf)
	require.Len(t, plan.ConvBuf, 4*16)
}

func TestPlanReferenceWireDestination(t *testing.T) {
	ref := Reference{Kind: RefObject}

	// Writing references to the store releases stale server-held slots,
	// so the wire-side background buffer must be filled.
	plan, err := Plan(ref, ref, 2, true)
	require.NoError(t, err)
	require.True(t, plan.NeedsBackground)
	require.True(t, plan.FillBackground)

	// Reading them into memory does not.
	plan, err = Plan(ref, ref, 2, false)
	require.NoError(t, err)
	require.False(t, plan.NeedsBackground)
}

func TestPlanCommittedSizeUnresolved(t *testing.T) {
	_, err := Plan(Committed{URI: "datatypes/t-1"}, i32, 1, false)
	require.Error(t, err)
}
