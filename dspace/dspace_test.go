package dspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumPoints(t *testing.T) {
	extent := []uint64{4, 6}

	require.Equal(t, uint64(24), NumPoints(All{}, extent))
	require.Equal(t, uint64(0), NumPoints(None{}, extent))
	require.Equal(t, uint64(3), NumPoints(Points{NDims: 2, Coords: [][]uint64{{0, 0}, {1, 1}, {2, 2}}}, extent))

	slab := Hyperslab{
		Start:  []uint64{0, 0},
		Stride: []uint64{2, 3},
		Count:  []uint64{2, 2},
		Block:  []uint64{1, 2},
	}
	require.Equal(t, uint64(8), NumPoints(slab, extent))
}

func TestSimple(t *testing.T) {
	s := Simple([]uint64{1, 2}, []uint64{3, 4})
	require.Equal(t, []uint64{1, 1}, s.Stride)
	require.Equal(t, []uint64{1, 1}, s.Block)
	require.Equal(t, uint64(12), NumPoints(s, []uint64{10, 10}))
}

func TestValidateZeroDimension(t *testing.T) {
	require.ErrorIs(t, Validate(All{}, nil), ErrZeroDimension)
	require.ErrorIs(t, Validate(All{}, []uint64{}), ErrZeroDimension)
}

func TestValidatePoints(t *testing.T) {
	extent := []uint64{4, 4}

	require.NoError(t, Validate(Points{NDims: 2, Coords: [][]uint64{{0, 0}, {3, 3}}}, extent))

	// Rank mismatch.
	err := Validate(Points{NDims: 1, Coords: [][]uint64{{0}}}, extent)
	var pe *PrecondError
	require.ErrorAs(t, err, &pe)

	// Out of bounds.
	err = Validate(Points{NDims: 2, Coords: [][]uint64{{0, 4}}}, extent)
	require.ErrorAs(t, err, &pe)

	// Wrong coordinate count.
	err = Validate(Points{NDims: 2, Coords: [][]uint64{{0}}}, extent)
	require.ErrorAs(t, err, &pe)
}

func TestValidateHyperslab(t *testing.T) {
	extent := []uint64{20}

	ok := Hyperslab{Start: []uint64{2}, Stride: []uint64{4}, Count: []uint64{3}, Block: []uint64{2}}
	require.NoError(t, Validate(ok, extent))

	var pe *PrecondError

	// Stride smaller than block.
	bad := Hyperslab{Start: []uint64{0}, Stride: []uint64{1}, Count: []uint64{2}, Block: []uint64{2}}
	require.ErrorAs(t, Validate(bad, extent), &pe)

	// Block not dividing stride: the triplet form cannot express it.
	bad = Hyperslab{Start: []uint64{0}, Stride: []uint64{3}, Count: []uint64{2}, Block: []uint64{2}}
	require.ErrorAs(t, Validate(bad, extent), &pe)

	// Last selected coordinate is 2 + 4*2 + (2-1) = 11; extent 11 only
	// allows indices up to 10.
	bad = Hyperslab{Start: []uint64{2}, Stride: []uint64{4}, Count: []uint64{3}, Block: []uint64{2}}
	require.ErrorAs(t, Validate(bad, []uint64{11}), &pe)

	// Zero count.
	bad = Hyperslab{Start: []uint64{0}, Stride: []uint64{1}, Count: []uint64{0}, Block: []uint64{1}}
	require.ErrorAs(t, Validate(bad, extent), &pe)

	// Rank mismatch.
	bad = Hyperslab{Start: []uint64{0, 0}, Stride: []uint64{1, 1}, Count: []uint64{1, 1}, Block: []uint64{1, 1}}
	require.ErrorAs(t, Validate(bad, extent), &pe)
}
