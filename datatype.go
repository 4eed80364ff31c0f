package hsds

import (
	"context"
	"fmt"
	"net/http"

	"github.com/scidata/hsds/dtype"
	"github.com/scidata/hsds/internal/jbuf"
	"github.com/scidata/hsds/objref"
)

// Datatype is a committed (named) datatype object.
type Datatype struct {
	object
	Type dtype.Descriptor
}

// CommitDatatype stores a datatype as a named object linked under g.
// Datasets and attributes can then refer to it by its identifier instead
// of repeating the full description.
func (g *Group) CommitDatatype(ctx context.Context, name string, dt dtype.Descriptor) (*Datatype, error) {
	sv, err := g.dom.c.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	typeBody, err := dtype.EncodeTypeBody(dt, sv)
	if err != nil {
		return nil, err
	}

	b := jbuf.New(256)
	b.Str(`{`)
	b.Str(typeBody)
	b.Str(`, "link": {"id": `)
	b.Quoted(g.id)
	b.Str(`, "name": `)
	b.Quoted(name)
	b.Str(`}}`)

	req := g.dom.newRequest(http.MethodPost, "/datatypes")
	req.body = b.Bytes()
	req.contentType = contentTypeJSON

	doc, err := g.dom.c.getJSON(ctx, req)
	if err != nil {
		return nil, err
	}
	id := doc.Get("id").String()
	if id == "" {
		return nil, &ServerError{StatusCode: http.StatusInternalServerError, Method: http.MethodPost, Path: "/datatypes", Message: "committed datatype has no id"}
	}
	return &Datatype{
		object: object{dom: g.dom, collection: collectionDatatypes, id: id},
		Type:   dt,
	}, nil
}

// OpenDatatype resolves a path to a committed datatype and loads its
// description.
func (d *Domain) OpenDatatype(ctx context.Context, path string) (*Datatype, error) {
	collection, id, err := d.resolvePath(ctx, path)
	if err != nil {
		return nil, err
	}
	if collection != collectionDatatypes {
		return nil, fmt.Errorf("hsds: %s is a %s, not a datatype", path, collection)
	}

	dt := &Datatype{object: object{dom: d, collection: collection, id: id}}
	doc, err := d.c.getJSON(ctx, dt.newRequest(http.MethodGet, ""))
	if err != nil {
		return nil, err
	}
	if dt.Type, err = dtype.Decode(doc.Get("type").Raw); err != nil {
		return nil, err
	}
	return dt, nil
}

// Delete removes the committed datatype object.
func (t *Datatype) Delete(ctx context.Context) error {
	_, err := t.dom.c.exec(ctx, t.newRequest(http.MethodDelete, ""), nil)
	return err
}

// Ref returns an object reference to the committed datatype.
func (t *Datatype) Ref() objref.Ref {
	return objref.Ref{Kind: objref.KindDatatype, ID: t.id}
}
