package dspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeParamHyperslab(t *testing.T) {
	// stop = start + stride*(count-1) + (block-1) + 1, step = stride/block.
	s := Hyperslab{
		Start:  []uint64{2},
		Stride: []uint64{4},
		Count:  []uint64{3},
		Block:  []uint64{2},
	}
	param, err := EncodeParam(s)
	require.NoError(t, err)
	require.Equal(t, "[2:12:2]", param)
}

func TestEncodeParamMultiDim(t *testing.T) {
	s := Hyperslab{
		Start:  []uint64{0, 10},
		Stride: []uint64{1, 5},
		Count:  []uint64{8, 2},
		Block:  []uint64{1, 5},
	}
	param, err := EncodeParam(s)
	require.NoError(t, err)
	require.Equal(t, "[0:8:1,10:20:1]", param)
}

func TestEncodeParamContiguous(t *testing.T) {
	param, err := EncodeParam(Simple([]uint64{3}, []uint64{5}))
	require.NoError(t, err)
	require.Equal(t, "[3:8:1]", param)
}

func TestEncodeParamAllAndNone(t *testing.T) {
	param, err := EncodeParam(All{})
	require.NoError(t, err)
	require.Equal(t, "", param)

	param, err = EncodeParam(None{})
	require.NoError(t, err)
	require.Equal(t, "", param)
}

func TestEncodeParamRejectsPoints(t *testing.T) {
	_, err := EncodeParam(Points{NDims: 1, Coords: [][]uint64{{0}}})
	require.ErrorIs(t, err, ErrPointsAsParam)
}

func TestEncodeParamRejectsIrregular(t *testing.T) {
	s := Hyperslab{Start: []uint64{0}, Stride: []uint64{3}, Count: []uint64{2}, Block: []uint64{2}}
	_, err := EncodeParam(s)
	var pe *PrecondError
	require.ErrorAs(t, err, &pe)
}

func TestEncodeParamZeroDimension(t *testing.T) {
	_, err := EncodeParam(Hyperslab{})
	require.ErrorIs(t, err, ErrZeroDimension)
}

func TestEncodeBodyPoints(t *testing.T) {
	// Multi-dimensional points keep their bracket pairs.
	body, err := EncodeBody(Points{NDims: 2, Coords: [][]uint64{{0, 1}, {2, 3}}})
	require.NoError(t, err)
	require.Equal(t, `"points": [[0,1],[2,3]]`, body)

	// One-dimensional points are emitted bare.
	body, err = EncodeBody(Points{NDims: 1, Coords: [][]uint64{{4}, {9}, {11}}})
	require.NoError(t, err)
	require.Equal(t, `"points": [4,9,11]`, body)
}

func TestEncodeBodyHyperslab(t *testing.T) {
	s := Hyperslab{
		Start:  []uint64{2, 0},
		Stride: []uint64{4, 1},
		Count:  []uint64{3, 6},
		Block:  []uint64{2, 1},
	}
	body, err := EncodeBody(s)
	require.NoError(t, err)
	require.Equal(t, `"start": [2, 0], "stop": [12, 6], "step": [2, 1]`, body)
}

func TestEncodeBodyAllAndNone(t *testing.T) {
	body, err := EncodeBody(All{})
	require.NoError(t, err)
	require.Equal(t, "", body)

	body, err = EncodeBody(None{})
	require.NoError(t, err)
	require.Equal(t, "", body)
}
