package hsds

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/scidata/hsds/dspace"
	"github.com/scidata/hsds/dtype"
	"github.com/scidata/hsds/internal/jbuf"
)

// Attribute is a small named value attached to a group, dataset or
// committed datatype. Attribute values always travel as JSON; there is no
// binary path and no partial selection.
type Attribute struct {
	Name  string
	Type  dtype.Descriptor
	Space dspace.Dataspace

	// Data holds the packed element bytes for fixed-size types; Strings
	// holds the values of a variable-length string attribute instead.
	Data    []byte
	Strings []string
}

// PutAttribute creates or replaces an attribute with packed element data.
func (o *object) PutAttribute(ctx context.Context, name string, dt dtype.Descriptor, space dspace.Dataspace, data []byte) error {
	n := int(space.NumElements())
	value, err := dtype.EncodeValues(dt, data, n)
	if err != nil {
		return err
	}
	return o.putAttributeValue(ctx, name, dt, space, value)
}

// PutStringAttribute creates or replaces a variable-length string
// attribute.
func (o *object) PutStringAttribute(ctx context.Context, name string, space dspace.Dataspace, values []string) error {
	if n := int(space.NumElements()); len(values) != n {
		return fmt.Errorf("hsds: attribute %s has %d elements, got %d values", name, n, len(values))
	}
	dt := dtype.String{Charset: dtype.CharsetASCII, Pad: dtype.PadNullTerm, Length: dtype.Variable}
	return o.putAttributeValue(ctx, name, dt, space, dtype.EncodeStringValues(values))
}

func (o *object) putAttributeValue(ctx context.Context, name string, dt dtype.Descriptor, space dspace.Dataspace, value string) error {
	sv, err := o.dom.c.ServerVersion(ctx)
	if err != nil {
		return err
	}
	typeBody, err := dtype.EncodeTypeBody(dt, sv)
	if err != nil {
		return err
	}

	b := jbuf.New(512)
	b.Str(`{`)
	b.Str(typeBody)
	b.Str(`, `)
	b.Str(dspace.EncodeShape(space))
	b.Str(`, "value": `)
	b.Str(value)
	b.Str(`}`)

	req := o.newRequest(http.MethodPut, "/attributes/"+name)
	req.body = b.Bytes()
	req.contentType = contentTypeJSON
	_, err = o.dom.c.exec(ctx, req, nil)
	return err
}

// GetAttribute fetches an attribute's type, shape and value.
func (o *object) GetAttribute(ctx context.Context, name string) (*Attribute, error) {
	doc, err := o.dom.c.getJSON(ctx, o.newRequest(http.MethodGet, "/attributes/"+name))
	if err != nil {
		return nil, err
	}
	return parseAttribute(name, doc)
}

func parseAttribute(name string, doc gjson.Result) (*Attribute, error) {
	a := &Attribute{Name: name}
	var err error
	if a.Type, err = dtype.Decode(doc.Get("type").Raw); err != nil {
		return nil, err
	}
	if a.Space, err = dspace.ParseShape(doc.Raw); err != nil {
		return nil, err
	}

	value := doc.Get("value")
	if a.Space.Class == dspace.ClassNull || !value.Exists() {
		return a, nil
	}
	n := int(a.Space.NumElements())

	if s, ok := a.Type.(dtype.String); ok && s.IsVariable() {
		// Scalar attributes carry a bare value rather than an array.
		if !value.IsArray() {
			a.Strings = []string{value.String()}
			return a, nil
		}
		if a.Strings, err = dtype.DecodeStringValues(value); err != nil {
			return nil, err
		}
		return a, nil
	}

	if !value.IsArray() {
		a.Data = make([]byte, a.Type.Size())
		err = decodeScalarValue(a.Type, value, a.Data)
	} else {
		a.Data, err = dtype.DecodeValues(a.Type, value, n)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// decodeScalarValue handles the bare (non-array) value form of a scalar
// attribute by wrapping it as a one-element array.
func decodeScalarValue(dt dtype.Descriptor, value gjson.Result, out []byte) error {
	wrapped := gjson.Parse("[" + value.Raw + "]")
	data, err := dtype.DecodeValues(dt, wrapped, 1)
	if err != nil {
		return err
	}
	copy(out, data)
	return nil
}

// DeleteAttribute removes an attribute.
func (o *object) DeleteAttribute(ctx context.Context, name string) error {
	_, err := o.dom.c.exec(ctx, o.newRequest(http.MethodDelete, "/attributes/"+name), nil)
	return err
}

// ListAttributes returns the attribute names of the object in creation
// order.
func (o *object) ListAttributes(ctx context.Context) ([]string, error) {
	doc, err := o.dom.c.getJSON(ctx, o.newRequest(http.MethodGet, "/attributes"))
	if err != nil {
		return nil, err
	}
	var names []string
	doc.Get("attributes").ForEach(func(_, a gjson.Result) bool {
		names = append(names, a.Get("name").String())
		return true
	})
	return names, nil
}
