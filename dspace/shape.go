package dspace

import (
	"github.com/tidwall/gjson"

	"github.com/scidata/hsds/internal/jbuf"
)

// SpaceClass is the dataspace shape class.
type SpaceClass int

const (
	ClassSimple SpaceClass = iota
	ClassScalar
	ClassNull
)

func (c SpaceClass) String() string {
	switch c {
	case ClassScalar:
		return "H5S_SCALAR"
	case ClassNull:
		return "H5S_NULL"
	default:
		return "H5S_SIMPLE"
	}
}

// Unlimited marks an extendable dimension in MaxDims. The wire format
// encodes it as 0.
const Unlimited = ^uint64(0)

// Dataspace is the shape of a stored array: its current extent and,
// for extendable datasets, the maximum extent.
type Dataspace struct {
	Class   SpaceClass
	Dims    []uint64
	MaxDims []uint64
}

// NumElements is the total element count of the extent. Scalar spaces
// hold one element, null spaces none.
func (d Dataspace) NumElements() uint64 {
	switch d.Class {
	case ClassScalar:
		return 1
	case ClassNull:
		return 0
	}
	n := uint64(1)
	for _, dim := range d.Dims {
		n *= dim
	}
	return n
}

// EncodeShape renders the dataspace as a `"shape": ...` fragment for a
// creation request body.
func EncodeShape(d Dataspace) string {
	b := jbuf.New(defaultSelectionSize)
	b.Str(`"shape": `)
	switch d.Class {
	case ClassScalar:
		b.Str(`"H5S_SCALAR"`)
	case ClassNull:
		b.Str(`"H5S_NULL"`)
	default:
		b.Byte('[')
		for i, dim := range d.Dims {
			if i > 0 {
				b.Str(", ")
			}
			b.Uint(dim)
		}
		b.Byte(']')
		if d.MaxDims != nil {
			b.Str(`, "maxdims": [`)
			for i, dim := range d.MaxDims {
				if i > 0 {
					b.Str(", ")
				}
				if dim == Unlimited {
					b.Byte('0')
				} else {
					b.Uint(dim)
				}
			}
			b.Byte(']')
		}
	}
	return b.String()
}

// ParseShape decodes a dataspace from a response document. The document
// may be a full object description whose `shape` key holds the shape
// subsection, or the bare shape object itself.
func ParseShape(doc string) (Dataspace, error) {
	v := gjson.Parse(doc)
	if s := v.Get("shape"); s.Exists() {
		v = s
	}

	var d Dataspace
	switch v.Get("class").String() {
	case "H5S_SCALAR":
		d.Class = ClassScalar
		return d, nil
	case "H5S_NULL":
		d.Class = ClassNull
		return d, nil
	case "H5S_SIMPLE":
		d.Class = ClassSimple
	default:
		return d, &ParseError{Msg: "unknown dataspace class " + v.Get("class").String()}
	}

	dims := v.Get("dims")
	if !dims.IsArray() {
		return d, &ParseError{Msg: "simple dataspace missing dims"}
	}
	dims.ForEach(func(_, dv gjson.Result) bool {
		d.Dims = append(d.Dims, dv.Uint())
		return true
	})

	if maxdims := v.Get("maxdims"); maxdims.IsArray() {
		maxdims.ForEach(func(_, dv gjson.Result) bool {
			if dv.Uint() == 0 {
				d.MaxDims = append(d.MaxDims, Unlimited)
			} else {
				d.MaxDims = append(d.MaxDims, dv.Uint())
			}
			return true
		})
	}
	return d, nil
}
