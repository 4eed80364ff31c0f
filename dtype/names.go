package dtype

import (
	"strconv"
	"strings"
)

// Predefined type names encode signedness, bit width and byte order in one
// canonical string per combination, e.g. H5T_STD_I32LE, H5T_STD_U8BE,
// H5T_IEEE_F64LE. Encoding is deterministic so round-tripping through the
// server is stable.

const (
	stdPrefix  = "H5T_STD_"
	ieeePrefix = "H5T_IEEE_F"
)

// PredefinedName returns the canonical wire name for an integer or float
// descriptor.
func PredefinedName(d Descriptor) (string, error) {
	var sb strings.Builder

	switch t := d.(type) {
	case Integer:
		switch t.Width {
		case 1, 2, 4, 8:
		default:
			return "", &InvalidValueError{What: "integer width", Value: strconv.Itoa(t.Width)}
		}
		sb.WriteString(stdPrefix)
		if t.Signed {
			sb.WriteByte('I')
		} else {
			sb.WriteByte('U')
		}
		sb.WriteString(strconv.Itoa(t.Width * 8))
		sb.WriteString(orderSuffix(t.Order))
	case Float:
		switch t.Width {
		case 4, 8:
		default:
			return "", &InvalidValueError{What: "float width", Value: strconv.Itoa(t.Width)}
		}
		sb.WriteString(ieeePrefix)
		sb.WriteString(strconv.Itoa(t.Width * 8))
		sb.WriteString(orderSuffix(t.Order))
	default:
		return "", &UnsupportedTypeError{What: d.Class().String() + " has no predefined name"}
	}

	return sb.String(), nil
}

func orderSuffix(o ByteOrder) string {
	if o == OrderBE {
		return "BE"
	}
	return "LE"
}

// ParsePredefined decodes a canonical predefined type name back into an
// Integer or Float descriptor. Names outside the canonical patterns produce
// an InvalidValueError.
func ParsePredefined(name string) (Descriptor, error) {
	if rest, ok := strings.CutPrefix(name, ieeePrefix); ok {
		bits, order, err := parseBitsOrder(name, rest)
		if err != nil {
			return nil, err
		}
		if bits != 32 && bits != 64 {
			return nil, &InvalidValueError{What: "predefined type name", Value: name}
		}
		return Float{Width: bits / 8, Order: order}, nil
	}

	if rest, ok := strings.CutPrefix(name, stdPrefix); ok {
		if len(rest) < 2 {
			return nil, &InvalidValueError{What: "predefined type name", Value: name}
		}
		var signed bool
		switch rest[0] {
		case 'I':
			signed = true
		case 'U':
			signed = false
		default:
			return nil, &InvalidValueError{What: "predefined type name", Value: name}
		}
		bits, order, err := parseBitsOrder(name, rest[1:])
		if err != nil {
			return nil, err
		}
		switch bits {
		case 8, 16, 32, 64:
		default:
			return nil, &InvalidValueError{What: "predefined type name", Value: name}
		}
		return Integer{Width: bits / 8, Signed: signed, Order: order}, nil
	}

	return nil, &InvalidValueError{What: "predefined type name", Value: name}
}

func parseBitsOrder(name, rest string) (int, ByteOrder, error) {
	var order ByteOrder
	switch {
	case strings.HasSuffix(rest, "LE"):
		order = OrderLE
	case strings.HasSuffix(rest, "BE"):
		order = OrderBE
	default:
		return 0, 0, &InvalidValueError{What: "predefined type name", Value: name}
	}
	bits, err := strconv.Atoi(rest[:len(rest)-2])
	if err != nil {
		return 0, 0, &InvalidValueError{What: "predefined type name", Value: name}
	}
	return bits, order, nil
}

// IsPredefinedName reports whether the string matches one of the canonical
// predefined patterns. The decoder uses this to distinguish a committed
// type URI from a predefined base name.
func IsPredefinedName(name string) bool {
	_, err := ParsePredefined(name)
	return err == nil
}
