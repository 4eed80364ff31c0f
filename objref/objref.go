// Package objref converts object references between their fixed-width wire
// slots and in-memory (kind, identifier) pairs.
//
// On the wire each reference occupies one SlotLen-byte ASCII field holding
// "groups/<id>", "datatypes/<id>" or "datasets/<id>", zero-padded; an
// all-zero slot is a null reference.
package objref

import (
	"errors"
	"fmt"
)

// SlotLen is the fixed byte width of one reference slot, sized generously
// for the longest server object identifier. It is a wire-format constant,
// never computed.
const SlotLen = 48

// Kind classifies the referenced object. KindUnknown is the explicit
// marker produced when a slot's identifier has an unrecognized leading
// character; callers must check for it, it is not a decode error.
type Kind int

const (
	KindUnknown Kind = iota
	KindGroup
	KindDatatype
	KindDataset
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDatatype:
		return "datatype"
	case KindDataset:
		return "dataset"
	default:
		return "unknown"
	}
}

// collection returns the server collection name for a kind.
func (k Kind) collection() (string, bool) {
	switch k {
	case KindGroup:
		return "groups", true
	case KindDatatype:
		return "datatypes", true
	case KindDataset:
		return "datasets", true
	default:
		return "", false
	}
}

// Ref is one object reference. The zero value is the null reference.
type Ref struct {
	Kind Kind
	ID   string
}

// IsNull reports whether the reference is empty.
func (r Ref) IsNull() bool { return r.ID == "" }

// URI renders the reference as its "collection/id" path form. Null
// references render as the empty string.
func (r Ref) URI() string {
	if r.IsNull() {
		return ""
	}
	collection, ok := r.Kind.collection()
	if !ok {
		return r.ID
	}
	return collection + "/" + r.ID
}

// FromURI parses a "collection/id" path into a reference, classifying the
// kind by the leading character of the identifier. An empty or
// separator-free string yields the null reference.
func FromURI(s string) Ref {
	sep := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			sep = i
			break
		}
	}
	if sep < 0 || sep+1 >= len(s) {
		return Ref{}
	}
	r := Ref{ID: s[sep+1:]}
	switch s[sep+1] {
	case 'g':
		r.Kind = KindGroup
	case 't':
		r.Kind = KindDatatype
	case 'd':
		r.Kind = KindDataset
	default:
		r.Kind = KindUnknown
	}
	return r
}

var errOversizeRef = errors.New("objref: reference string exceeds slot width")

// Encode renders the references as consecutive fixed-width slots. Null
// references become all-zero slots.
func Encode(refs []Ref) ([]byte, error) {
	out := make([]byte, len(refs)*SlotLen)
	for i, r := range refs {
		if r.IsNull() {
			continue // slot stays zeroed
		}
		collection, ok := r.Kind.collection()
		if !ok {
			return nil, fmt.Errorf("objref: invalid reference kind %d", int(r.Kind))
		}
		s := collection + "/" + r.ID
		if len(s) >= SlotLen {
			return nil, errOversizeRef
		}
		copy(out[i*SlotLen:], s)
	}
	return out, nil
}

// Decode parses consecutive fixed-width slots back into references. A slot
// beginning with a NUL byte is a null reference. The kind is classified by
// the first character of the identifier following the '/' separator
// (server identifiers lead with 'g', 't' or 'd'); any other leading
// character yields KindUnknown with the identifier preserved.
func Decode(buf []byte) ([]Ref, error) {
	if len(buf)%SlotLen != 0 {
		return nil, fmt.Errorf("objref: buffer length %d is not a multiple of the %d-byte slot width", len(buf), SlotLen)
	}

	refs := make([]Ref, len(buf)/SlotLen)
	for i := range refs {
		slot := buf[i*SlotLen : (i+1)*SlotLen]
		if slot[0] == 0 {
			continue // null reference
		}

		end := 0
		for end < len(slot) && slot[end] != 0 {
			end++
		}
		refs[i] = FromURI(string(slot[:end]))
	}
	return refs, nil
}
