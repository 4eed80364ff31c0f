package dspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScatterHyperslab(t *testing.T) {
	// Every other element of a 1-D extent of 8.
	sel := Hyperslab{Start: []uint64{0}, Stride: []uint64{2}, Count: []uint64{4}, Block: []uint64{1}}
	extent := []uint64{8}

	src := []byte{1, 2, 3, 4}
	dst := make([]byte, 8)
	require.NoError(t, Scatter(sel, extent, 1, src, dst))
	require.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, dst)
}

func TestGatherInvertsScatter(t *testing.T) {
	sel := Hyperslab{
		Start:  []uint64{1, 0},
		Stride: []uint64{2, 2},
		Count:  []uint64{2, 2},
		Block:  []uint64{1, 1},
	}
	extent := []uint64{4, 4}
	elemSize := 2

	src := []byte{1, 1, 2, 2, 3, 3, 4, 4}
	full := make([]byte, 4*4*elemSize)
	require.NoError(t, Scatter(sel, extent, elemSize, src, full))

	back := make([]byte, len(src))
	require.NoError(t, Gather(sel, extent, elemSize, full, back))
	require.Equal(t, src, back)
}

func TestScatterPointsRowMajor(t *testing.T) {
	sel := Points{NDims: 2, Coords: [][]uint64{{0, 1}, {1, 0}}}
	extent := []uint64{2, 2}

	dst := make([]byte, 4)
	require.NoError(t, Scatter(sel, extent, 1, []byte{7, 9}, dst))
	require.Equal(t, []byte{0, 7, 9, 0}, dst)
}

func TestScatterBlockCoordinates(t *testing.T) {
	// Blocks of 2 with stride 4: selection indices map to coordinates
	// start + q*stride + r.
	sel := Hyperslab{Start: []uint64{1}, Stride: []uint64{4}, Count: []uint64{2}, Block: []uint64{2}}
	extent := []uint64{8}

	dst := make([]byte, 8)
	require.NoError(t, Scatter(sel, extent, 1, []byte{1, 2, 3, 4}, dst))
	require.Equal(t, []byte{0, 1, 2, 0, 0, 3, 4, 0}, dst)
}

func TestScatterSourceTooSmall(t *testing.T) {
	sel := Simple([]uint64{0}, []uint64{4})
	err := Scatter(sel, []uint64{4}, 2, make([]byte, 6), make([]byte, 8))
	var pe *PrecondError
	require.ErrorAs(t, err, &pe)
}

func TestGatherAll(t *testing.T) {
	full := []byte{1, 2, 3, 4, 5, 6}
	out := make([]byte, 6)
	require.NoError(t, Gather(All{}, []uint64{2, 3}, 1, full, out))
	require.Equal(t, full, out)
}

func TestScatterNone(t *testing.T) {
	dst := []byte{9, 9}
	require.NoError(t, Scatter(None{}, []uint64{2}, 1, nil, dst))
	require.Equal(t, []byte{9, 9}, dst)
}

func TestScatterContiguousRun(t *testing.T) {
	// Two full rows starting at row 1 take the single-copy path; the result
	// must match element-wise placement.
	sel := Hyperslab{
		Start:  []uint64{1, 0},
		Stride: []uint64{1, 1},
		Count:  []uint64{2, 3},
		Block:  []uint64{1, 1},
	}
	extent := []uint64{4, 3}

	dst := make([]byte, 12)
	require.NoError(t, Scatter(sel, extent, 1, []byte{1, 2, 3, 4, 5, 6}, dst))
	require.Equal(t, []byte{0, 0, 0, 1, 2, 3, 4, 5, 6, 0, 0, 0}, dst)

	back := make([]byte, 6)
	require.NoError(t, Gather(sel, extent, 1, dst, back))
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, back)

	// The run must still fit inside the destination.
	err := Scatter(sel, extent, 1, []byte{1, 2, 3, 4, 5, 6}, make([]byte, 8))
	var pe *PrecondError
	require.ErrorAs(t, err, &pe)
}

func TestIsContiguous(t *testing.T) {
	extent := []uint64{4, 6}

	require.True(t, IsContiguous(All{}, extent))

	// Full rows of the fastest dimension, one run of the slowest.
	rows := Hyperslab{
		Start:  []uint64{1, 0},
		Stride: []uint64{1, 1},
		Count:  []uint64{2, 6},
		Block:  []uint64{1, 1},
	}
	require.True(t, IsContiguous(rows, extent))

	// A column slice is not contiguous.
	col := Hyperslab{
		Start:  []uint64{0, 2},
		Stride: []uint64{1, 1},
		Count:  []uint64{4, 1},
		Block:  []uint64{1, 1},
	}
	require.False(t, IsContiguous(col, extent))

	require.False(t, IsContiguous(Points{NDims: 1, Coords: [][]uint64{{0}}}, []uint64{4}))
}
