package dtype

import (
	"encoding/binary"
	"math"
)

// Convert rewrites n elements laid out as src into the dst layout, in
// place inside buf. On entry buf holds n packed src elements; on return it
// holds n packed dst elements. buf must be at least n*max(srcSize,dstSize)
// bytes. bkg, when non-nil, holds n packed dst elements of existing
// destination content used to seed unmatched compound members and padding.
//
// Variable-length strings and references are not converted here; they
// travel on the JSON and reference-codec paths.
func Convert(src, dst Descriptor, n int, buf, bkg []byte) error {
	if n == 0 {
		return nil
	}
	srcSize, dstSize := src.Size(), dst.Size()
	max := srcSize
	if dstSize > max {
		max = dstSize
	}
	if len(buf) < n*max {
		return &InvalidValueError{What: "conversion buffer size", Value: "too small"}
	}
	if bkg != nil && len(bkg) < n*dstSize {
		return &InvalidValueError{What: "background buffer size", Value: "too small"}
	}

	// Growing conversions walk backwards so an element is read before its
	// slot is overwritten; shrinking conversions walk forwards.
	if dstSize > srcSize {
		for i := n - 1; i >= 0; i-- {
			if err := convertElem(src, dst, buf[i*srcSize:i*srcSize+srcSize], buf[i*dstSize:i*dstSize+dstSize], bkgElem(bkg, i, dstSize)); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; i < n; i++ {
		if err := convertElem(src, dst, buf[i*srcSize:i*srcSize+srcSize], buf[i*dstSize:i*dstSize+dstSize], bkgElem(bkg, i, dstSize)); err != nil {
			return err
		}
	}
	return nil
}

func bkgElem(bkg []byte, i, size int) []byte {
	if bkg == nil {
		return nil
	}
	return bkg[i*size : i*size+size]
}

// convertElem converts one element. in and out may overlap (in-place
// conversion), so the element is staged through a scratch slice whenever
// the layouts differ.
func convertElem(src, dst Descriptor, in, out, bkg []byte) error {
	switch s := src.(type) {
	case Integer, Float, Enum:
		return convertScalar(src, dst, in, out)

	case String:
		d, ok := dst.(String)
		if !ok {
			return &UnsupportedTypeError{What: "string to " + dst.Class().String() + " conversion"}
		}
		if s.IsVariable() || d.IsVariable() {
			return &UnsupportedTypeError{What: "variable-length string binary conversion"}
		}
		return convertFixedString(s, d, in, out)

	case Compound:
		d, ok := dst.(Compound)
		if !ok {
			return &UnsupportedTypeError{What: "compound to " + dst.Class().String() + " conversion"}
		}
		return convertCompound(s, d, in, out, bkg)

	case Array:
		d, ok := dst.(Array)
		if !ok || d.NumElements() != s.NumElements() {
			return &UnsupportedTypeError{What: "array conversion with mismatched extents"}
		}
		sb, db := s.Base.Size(), d.Base.Size()
		scratch := make([]byte, s.NumElements()*maxInt(sb, db))
		copy(scratch, in)
		if err := Convert(s.Base, d.Base, s.NumElements(), scratch, arrayBkg(bkg, d)); err != nil {
			return err
		}
		copy(out, scratch[:d.NumElements()*db])
		return nil

	case Reference:
		return &UnsupportedTypeError{What: "reference binary conversion"}

	case Committed:
		return &UnsupportedTypeError{What: "conversion involving an unresolved committed type"}

	default:
		return &UnsupportedTypeError{What: src.Class().String() + " conversion"}
	}
}

func arrayBkg(bkg []byte, d Array) []byte {
	if bkg == nil {
		return nil
	}
	return bkg[:d.NumElements()*d.Base.Size()]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func convertCompound(src, dst Compound, in, out, bkg []byte) error {
	// Stage the destination element so overlapping in/out slices and
	// partially-matched members compose correctly: seed with background
	// content (or zeros), then overlay each matched member.
	elem := make([]byte, dst.Size())
	if bkg != nil {
		copy(elem, bkg)
	}

	for _, df := range dst.Fields {
		sf, ok := findField(src, df.Name)
		if !ok {
			continue // background content stands
		}
		srcBytes := in[sf.Offset : sf.Offset+sf.Type.Size()]
		dstBytes := elem[df.Offset : df.Offset+df.Type.Size()]
		if Equal(sf.Type, df.Type) {
			copy(dstBytes, srcBytes)
			continue
		}
		staged := make([]byte, maxInt(sf.Type.Size(), df.Type.Size()))
		copy(staged, srcBytes)
		if err := convertElem(sf.Type, df.Type, staged[:sf.Type.Size()], staged[:df.Type.Size()], nil); err != nil {
			return err
		}
		copy(dstBytes, staged[:df.Type.Size()])
	}

	copy(out, elem)
	return nil
}

func convertFixedString(src, dst String, in, out []byte) error {
	staged := make([]byte, dst.Length)
	copy(staged, in[:minInt(src.Length, dst.Length)])
	copy(out, staged)
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// convertScalar converts one numeric element between integer, float and
// enum layouts, widening through 64-bit intermediates.
func convertScalar(src, dst Descriptor, in, out []byte) error {
	st := scalarBase(src)
	dt := scalarBase(dst)
	if st == nil || dt == nil {
		return &UnsupportedTypeError{What: src.Class().String() + " to " + dst.Class().String() + " conversion"}
	}

	switch s := st.(type) {
	case Integer:
		if s.Signed {
			v := readInt(in, s)
			return writeScalarFromInt(dt, out, v)
		}
		v := readUint(in, s)
		return writeScalarFromUint(dt, out, v)
	case Float:
		v := readFloat(in, s)
		return writeScalarFromFloat(dt, out, v)
	default:
		return &UnsupportedTypeError{What: "scalar conversion"}
	}
}

func scalarBase(d Descriptor) Descriptor {
	switch t := d.(type) {
	case Integer, Float:
		return t
	case Enum:
		return t.Base
	default:
		return nil
	}
}

func byteOrder(o ByteOrder) binary.ByteOrder {
	if o == OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func readUint(b []byte, t Integer) uint64 {
	ord := byteOrder(t.Order)
	switch t.Width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(ord.Uint16(b))
	case 4:
		return uint64(ord.Uint32(b))
	default:
		return ord.Uint64(b)
	}
}

func readInt(b []byte, t Integer) int64 {
	u := readUint(b, t)
	switch t.Width {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

func readFloat(b []byte, t Float) float64 {
	ord := byteOrder(t.Order)
	if t.Width == 4 {
		return float64(math.Float32frombits(ord.Uint32(b)))
	}
	return math.Float64frombits(ord.Uint64(b))
}

func writeUint(b []byte, t Integer, v uint64) {
	ord := byteOrder(t.Order)
	switch t.Width {
	case 1:
		b[0] = byte(v)
	case 2:
		ord.PutUint16(b, uint16(v))
	case 4:
		ord.PutUint32(b, uint32(v))
	default:
		ord.PutUint64(b, v)
	}
}

func writeFloat(b []byte, t Float, v float64) {
	ord := byteOrder(t.Order)
	if t.Width == 4 {
		ord.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	ord.PutUint64(b, math.Float64bits(v))
}

func writeScalarFromInt(dt Descriptor, out []byte, v int64) error {
	switch d := dt.(type) {
	case Integer:
		writeUint(out, d, uint64(v))
	case Float:
		writeFloat(out, d, float64(v))
	default:
		return &UnsupportedTypeError{What: "scalar destination"}
	}
	return nil
}

func writeScalarFromUint(dt Descriptor, out []byte, v uint64) error {
	switch d := dt.(type) {
	case Integer:
		writeUint(out, d, v)
	case Float:
		writeFloat(out, d, float64(v))
	default:
		return &UnsupportedTypeError{What: "scalar destination"}
	}
	return nil
}

func writeScalarFromFloat(dt Descriptor, out []byte, v float64) error {
	switch d := dt.(type) {
	case Integer:
		if d.Signed {
			writeUint(out, d, uint64(int64(v)))
		} else {
			writeUint(out, d, uint64(v))
		}
	case Float:
		writeFloat(out, d, v)
	default:
		return &UnsupportedTypeError{What: "scalar destination"}
	}
	return nil
}
