package dspace

import (
	"github.com/scidata/hsds/internal/jbuf"
)

// defaultSelectionSize is the initial capacity of a selection string
// buffer; high-rank selections grow it as triplets are appended.
const defaultSelectionSize = 256

// EncodeParam renders a selection as the value of the `select` query
// parameter, used when the transfer payload is binary. One
// start:stop:step triplet is emitted per dimension, where
// stop = start + stride*(count-1) + (block-1) + 1 and step = stride/block.
//
// All and None produce an empty string (no parameter). Point selections
// cannot be expressed as a parameter and return ErrPointsAsParam; the
// caller must route them through the JSON-body path.
//
// The triplet form has one step per dimension, so it cannot express a
// hyperslab whose block does not evenly divide its stride: the derived
// step would select a different element set than the hyperslab. Such
// selections are rejected with a PrecondError rather than mis-encoded.
func EncodeParam(sel Selection) (string, error) {
	switch s := sel.(type) {
	case All, None:
		return "", nil

	case Points:
		return "", ErrPointsAsParam

	case Hyperslab:
		if len(s.Start) == 0 {
			return "", ErrZeroDimension
		}
		if err := validateRegular(s); err != nil {
			return "", err
		}
		b := jbuf.New(defaultSelectionSize)
		b.Byte('[')
		for i := range s.Start {
			if i > 0 {
				b.Byte(',')
			}
			b.Uint(s.Start[i])
			b.Byte(':')
			b.Uint(slabStop(s, i))
			b.Byte(':')
			b.Uint(s.Stride[i] / s.Block[i])
		}
		b.Byte(']')
		return b.String(), nil

	default:
		return "", &PrecondError{Msg: "invalid selection type"}
	}
}

// EncodeBody renders a selection as a JSON body fragment (no enclosing
// braces), used for point selections and any transfer of variable-length
// data. All and None produce an empty fragment.
func EncodeBody(sel Selection) (string, error) {
	switch s := sel.(type) {
	case All, None:
		return "", nil

	case Points:
		if s.NDims == 0 {
			return "", ErrZeroDimension
		}
		b := jbuf.New(defaultSelectionSize)
		b.Str(`"points": [`)
		for i, pt := range s.Coords {
			if i > 0 {
				b.Byte(',')
			}
			// A 1-D point is emitted bare, without its own bracket pair.
			if s.NDims > 1 {
				b.Byte('[')
			}
			for j, c := range pt {
				if j > 0 {
					b.Byte(',')
				}
				b.Uint(c)
			}
			if s.NDims > 1 {
				b.Byte(']')
			}
		}
		b.Byte(']')
		return b.String(), nil

	case Hyperslab:
		if len(s.Start) == 0 {
			return "", ErrZeroDimension
		}
		if err := validateRegular(s); err != nil {
			return "", err
		}
		b := jbuf.New(defaultSelectionSize)
		b.Str(`"start": `)
		appendUintList(b, s.Start)
		b.Str(`, "stop": `)
		stops := make([]uint64, len(s.Start))
		for i := range stops {
			stops[i] = slabStop(s, i)
		}
		appendUintList(b, stops)
		b.Str(`, "step": `)
		steps := make([]uint64, len(s.Start))
		for i := range steps {
			steps[i] = s.Stride[i] / s.Block[i]
		}
		appendUintList(b, steps)
		return b.String(), nil

	default:
		return "", &PrecondError{Msg: "invalid selection type"}
	}
}

// slabStop derives the exclusive stop coordinate of the triplet form.
func slabStop(s Hyperslab, i int) uint64 {
	return s.Start[i] + s.Stride[i]*(s.Count[i]-1) + (s.Block[i] - 1) + 1
}

func validateRegular(s Hyperslab) error {
	for i := range s.Start {
		if s.Block[i] == 0 || s.Count[i] == 0 {
			return &PrecondError{Msg: "empty block or count"}
		}
		if s.Stride[i] < s.Block[i] || s.Stride[i]%s.Block[i] != 0 {
			return &PrecondError{Msg: "block does not evenly divide stride"}
		}
	}
	return nil
}

func appendUintList(b *jbuf.Builder, vals []uint64) {
	b.Byte('[')
	for i, v := range vals {
		if i > 0 {
			b.Str(", ")
		}
		b.Uint(v)
	}
	b.Byte(']')
}
