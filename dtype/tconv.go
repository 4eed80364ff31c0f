package dtype

// Conversion planning decides whether element bytes crossing the
// memory/wire boundary need reshaping, whether a background buffer
// pre-filled with destination content is required, and whether the
// destination buffer can stand in for either scratch buffer instead of a
// fresh allocation. A plan is computed fresh for every transfer; it depends
// on both endpoint types and is never cached.

// Reuse says which scratch role the destination buffer can play.
type Reuse int

const (
	ReuseNone Reuse = iota
	ReuseConv       // destination buffer doubles as the conversion buffer
	ReuseBkg        // destination buffer doubles as the background buffer
)

// ConversionPlan is the ephemeral result of Plan.
type ConversionPlan struct {
	NeedsConversion bool
	NeedsBackground bool
	FillBackground  bool

	SrcSize int
	DstSize int
	Reuse   Reuse

	// ConvBuf is the freshly allocated conversion buffer, nil when the
	// destination buffer is reused for conversion or no conversion is
	// needed. Likewise BkgBuf for the background buffer.
	ConvBuf []byte
	BkgBuf  []byte
}

// NeedsConversion reports whether element bytes must be rewritten between
// the two types: always when they differ structurally, and also when either
// carries a variable-length or reference component, since those hold
// handles that need rewriting even on an identity conversion.
func NeedsConversion(src, dst Descriptor) bool {
	if !Equal(src, dst) {
		return true
	}
	return HasVarOrRef(src)
}

// needsBackground determines whether conversion into dst requires a
// background buffer, and whether that buffer must be pre-filled with
// existing destination content.
//
// Compound destinations always need one. It must additionally be filled
// when a destination member has no source match (its current content
// survives the conversion) or when the declared compound size exceeds the
// sum of member sizes (internal padding is preserved as-is). Reference and
// variable-length destinations need a filled buffer only when the
// destination is the wire side, so stale server-held sequences can be
// released. Arrays recurse into their base types.
func needsBackground(src, dst Descriptor, dstIsWire bool) (need, fill bool) {
	switch d := dst.(type) {
	case Integer, Float, String, Enum, Committed:
		return false, false

	case Reference:
		if dstIsWire {
			return true, true
		}
		return false, false

	case Compound:
		srcCompound, _ := src.(Compound)
		sizeUsed := 0
		for _, f := range d.Fields {
			srcField, ok := findField(srcCompound, f.Name)
			if !ok {
				return true, true
			}
			_, memberFill := needsBackground(srcField.Type, f.Type, dstIsWire)
			if memberFill {
				return true, true
			}
			sizeUsed += f.Type.Size()
		}
		if sizeUsed != d.Size() {
			return true, true
		}
		return true, false

	case Array:
		srcBase := src
		if sa, ok := src.(Array); ok {
			srcBase = sa.Base
		}
		return needsBackground(srcBase, d.Base, dstIsWire)

	default:
		return false, false
	}
}

func findField(c Compound, name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Plan computes the conversion plan for nelem elements moving from src to
// dst. dstIsWire says whether the destination layout is the wire side of
// the transfer (a write) rather than caller memory (a read).
//
// Buffer reuse: a destination buffer at least as large per element as the
// source doubles as the conversion buffer; failing that it doubles as the
// background buffer when one is needed. Remaining buffers are freshly
// allocated (and therefore zeroed, so non-contiguous selections never leak
// uninitialized bytes into gaps).
//
// A request for zero elements is a no-op success: no buffers are allocated
// and the zero plan is returned.
func Plan(src, dst Descriptor, nelem int, dstIsWire bool) (ConversionPlan, error) {
	var p ConversionPlan
	if nelem == 0 {
		return p, nil
	}
	if nelem < 0 {
		return p, &InvalidValueError{What: "element count", Value: "negative"}
	}

	p.SrcSize = src.Size()
	p.DstSize = dst.Size()
	if p.SrcSize <= 0 || p.DstSize <= 0 {
		return ConversionPlan{}, &UnsupportedTypeError{What: "conversion involving a type of unresolved size"}
	}

	p.NeedsConversion = NeedsConversion(src, dst)
	p.NeedsBackground, p.FillBackground = needsBackground(src, dst, dstIsWire)

	if p.DstSize >= p.SrcSize {
		p.Reuse = ReuseConv
	} else if p.NeedsBackground {
		p.Reuse = ReuseBkg
	}

	if p.NeedsConversion && p.Reuse != ReuseConv {
		max := p.SrcSize
		if p.DstSize > max {
			max = p.DstSize
		}
		p.ConvBuf = make([]byte, nelem*max)
	}
	if p.NeedsBackground && p.Reuse != ReuseBkg {
		p.BkgBuf = make([]byte, nelem*p.DstSize)
	}

	return p, nil
}
