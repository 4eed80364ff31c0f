// Package dspace models dataspaces and the selections a transfer targets,
// and converts selections to the two wire forms the store accepts: a
// compact query-parameter string for binary transfers and a JSON body
// fragment for point selections and variable-length transfers.
package dspace

import (
	"errors"
	"fmt"
)

// Errors returned by the selection codec. Precondition violations are
// caller errors and fatal to the operation.
var (
	// ErrPointsAsParam is returned when a point selection is offered to
	// the query-parameter encoder; point lists can only travel as a JSON
	// POST body.
	ErrPointsAsParam = errors.New("dspace: point selections are unsupported as a request parameter")

	// ErrZeroDimension is returned for selections over a zero-dimensional
	// space; no selection is meaningful there.
	ErrZeroDimension = errors.New("dspace: zero-dimension dataspace")
)

// PrecondError reports a selection that violates a codec precondition,
// such as an irregular hyperslab.
type PrecondError struct {
	Msg string
}

func (e *PrecondError) Error() string {
	return "dspace: precondition violated: " + e.Msg
}

// ParseError reports a malformed shape document.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "dspace: parse error: " + e.Msg
}

// Selection is the sum type of supported dataspace selections.
type Selection interface {
	selType() string
}

// All selects the entire extent.
type All struct{}

// None selects nothing.
type None struct{}

// Points selects an explicit ordered list of coordinates. Each point has
// NDims coordinates.
type Points struct {
	NDims  int
	Coords [][]uint64
}

// Hyperslab is a regular start/stride/count/block selection. All four
// slices have the same length, one entry per dimension. Regularity
// (stride >= block) is assumed; irregular and union selections must be
// rejected before reaching this codec.
type Hyperslab struct {
	Start  []uint64
	Stride []uint64
	Count  []uint64
	Block  []uint64
}

func (All) selType() string       { return "all" }
func (None) selType() string      { return "none" }
func (Points) selType() string    { return "points" }
func (Hyperslab) selType() string { return "hyperslab" }

// Simple builds a contiguous hyperslab from start/count with unit stride
// and block.
func Simple(start, count []uint64) Hyperslab {
	ones := make([]uint64, len(start))
	for i := range ones {
		ones[i] = 1
	}
	return Hyperslab{Start: start, Stride: ones, Count: count, Block: ones}
}

// NumPoints returns the number of elements the selection covers within the
// given extent.
func NumPoints(sel Selection, extent []uint64) uint64 {
	switch s := sel.(type) {
	case All:
		n := uint64(1)
		for _, d := range extent {
			n *= d
		}
		return n
	case None:
		return 0
	case Points:
		return uint64(len(s.Coords))
	case Hyperslab:
		n := uint64(1)
		for i := range s.Count {
			n *= s.Count[i] * s.Block[i]
		}
		return n
	default:
		return 0
	}
}

// Validate checks a selection against an extent: dimensionality must
// match, the extent must not be zero-dimensional, hyperslabs must be
// regular with block evenly dividing stride, and every selected
// coordinate must lie within the extent.
func Validate(sel Selection, extent []uint64) error {
	if len(extent) == 0 {
		return ErrZeroDimension
	}

	switch s := sel.(type) {
	case All, None:
		return nil

	case Points:
		if s.NDims != len(extent) {
			return &PrecondError{Msg: fmt.Sprintf("point selection rank %d does not match dataspace rank %d", s.NDims, len(extent))}
		}
		for _, pt := range s.Coords {
			if len(pt) != s.NDims {
				return &PrecondError{Msg: "point with wrong coordinate count"}
			}
			for i, c := range pt {
				if c >= extent[i] {
					return &PrecondError{Msg: fmt.Sprintf("point coordinate %d out of bounds in dimension %d", c, i)}
				}
			}
		}
		return nil

	case Hyperslab:
		if len(s.Start) != len(extent) || len(s.Stride) != len(extent) ||
			len(s.Count) != len(extent) || len(s.Block) != len(extent) {
			return &PrecondError{Msg: "hyperslab rank does not match dataspace rank"}
		}
		for i := range extent {
			if s.Block[i] == 0 || s.Count[i] == 0 {
				return &PrecondError{Msg: fmt.Sprintf("empty block or count in dimension %d", i)}
			}
			if s.Stride[i] < s.Block[i] {
				return &PrecondError{Msg: fmt.Sprintf("stride smaller than block in dimension %d", i)}
			}
			// The triplet derivation step = stride/block silently
			// mis-encodes when block does not divide stride, so reject it
			// outright.
			if s.Stride[i]%s.Block[i] != 0 {
				return &PrecondError{Msg: fmt.Sprintf("block does not evenly divide stride in dimension %d", i)}
			}
			last := s.Start[i] + s.Stride[i]*(s.Count[i]-1) + s.Block[i] - 1
			if last >= extent[i] {
				return &PrecondError{Msg: fmt.Sprintf("hyperslab exceeds extent in dimension %d", i)}
			}
		}
		return nil

	default:
		return &PrecondError{Msg: "unknown selection type"}
	}
}
