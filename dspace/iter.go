package dspace

import "fmt"

// Element iteration maps a selection onto linear row-major element indices
// within an extent. The transfer engine uses it to scatter packed wire
// elements into a caller buffer (reads) and to gather elements out of one
// (writes). Selected elements are visited in row-major order, matching the
// order the server streams them.

// visit calls fn with the linear index of each selected element, in
// selection order. fn returns false to stop early.
func visit(sel Selection, extent []uint64, fn func(linear uint64) bool) error {
	if len(extent) == 0 {
		return ErrZeroDimension
	}

	switch s := sel.(type) {
	case None:
		return nil

	case All:
		n := NumPoints(s, extent)
		for i := uint64(0); i < n; i++ {
			if !fn(i) {
				return nil
			}
		}
		return nil

	case Points:
		for _, pt := range s.Coords {
			if !fn(linearIndex(pt, extent)) {
				return nil
			}
		}
		return nil

	case Hyperslab:
		rank := len(s.Start)
		// Odometer over the per-dimension selection index
		// 0 .. count*block-1; index q*block+r maps to coordinate
		// start + q*stride + r.
		limits := make([]uint64, rank)
		for i := range limits {
			limits[i] = s.Count[i] * s.Block[i]
		}
		idx := make([]uint64, rank)
		coord := make([]uint64, rank)
		for {
			for i := range idx {
				q := idx[i] / s.Block[i]
				r := idx[i] % s.Block[i]
				coord[i] = s.Start[i] + q*s.Stride[i] + r
			}
			if !fn(linearIndex(coord, extent)) {
				return nil
			}
			d := rank - 1
			for d >= 0 {
				idx[d]++
				if idx[d] < limits[d] {
					break
				}
				idx[d] = 0
				d--
			}
			if d < 0 {
				return nil
			}
		}

	default:
		return &PrecondError{Msg: "unknown selection type"}
	}
}

func linearIndex(coord, extent []uint64) uint64 {
	var linear uint64
	for i := range extent {
		linear = linear*extent[i] + coord[i]
	}
	return linear
}

// Scatter copies packed elements from src into dst at the positions the
// selection targets within extent. src holds the selected elements
// contiguously in selection order; dst is the full-extent buffer.
func Scatter(sel Selection, extent []uint64, elemSize int, src, dst []byte) error {
	want := NumPoints(sel, extent) * uint64(elemSize)
	if uint64(len(src)) < want {
		return &PrecondError{Msg: fmt.Sprintf("scatter source holds %d bytes, want %d", len(src), want)}
	}
	if start, ok := contiguousStart(sel, extent); ok {
		off := start * uint64(elemSize)
		if off+want > uint64(len(dst)) {
			return &PrecondError{Msg: "scatter destination too small for selection"}
		}
		copy(dst[off:off+want], src[:want])
		return nil
	}
	i := 0
	err := visit(sel, extent, func(linear uint64) bool {
		off := int(linear) * elemSize
		if off+elemSize > len(dst) {
			return false
		}
		copy(dst[off:off+elemSize], src[i*elemSize:(i+1)*elemSize])
		i++
		return true
	})
	if err != nil {
		return err
	}
	if uint64(i)*uint64(elemSize) != want {
		return &PrecondError{Msg: "scatter destination too small for selection"}
	}
	return nil
}

// Gather is the inverse of Scatter: it packs the selected elements of src
// into dst in selection order.
func Gather(sel Selection, extent []uint64, elemSize int, src, dst []byte) error {
	want := NumPoints(sel, extent) * uint64(elemSize)
	if uint64(len(dst)) < want {
		return &PrecondError{Msg: fmt.Sprintf("gather destination holds %d bytes, want %d", len(dst), want)}
	}
	if start, ok := contiguousStart(sel, extent); ok {
		off := start * uint64(elemSize)
		if off+want > uint64(len(src)) {
			return &PrecondError{Msg: "gather source too small for selection"}
		}
		copy(dst[:want], src[off:off+want])
		return nil
	}
	i := 0
	err := visit(sel, extent, func(linear uint64) bool {
		off := int(linear) * elemSize
		if off+elemSize > len(src) {
			return false
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[off:off+elemSize])
		i++
		return true
	})
	if err != nil {
		return err
	}
	if uint64(i)*uint64(elemSize) != want {
		return &PrecondError{Msg: "gather source too small for selection"}
	}
	return nil
}

// contiguousStart returns the linear index of the first selected element
// when the selection is one contiguous run, letting Scatter and Gather
// replace element iteration with a single copy.
func contiguousStart(sel Selection, extent []uint64) (uint64, bool) {
	if !IsContiguous(sel, extent) {
		return 0, false
	}
	if s, ok := sel.(Hyperslab); ok {
		return linearIndex(s.Start, extent), true
	}
	return 0, true
}

// IsContiguous reports whether the selection covers a single contiguous
// run of elements in row-major order within the extent. Scatter and Gather
// use it to degrade to a straight copy.
func IsContiguous(sel Selection, extent []uint64) bool {
	switch s := sel.(type) {
	case All:
		return true
	case None:
		return true
	case Hyperslab:
		// Contiguous iff every dimension except the slowest-varying one
		// is fully covered with unit stride, and the slowest dimension has
		// stride equal to block.
		for i := range s.Start {
			full := s.Start[i] == 0 && s.Count[i]*s.Block[i] == extent[i] && s.Stride[i] == s.Block[i]
			if i == 0 {
				if s.Stride[i] != s.Block[i] {
					return false
				}
				continue
			}
			if !full {
				return false
			}
		}
		return true
	default:
		return false
	}
}
