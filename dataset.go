package hsds

import (
	"context"
	"fmt"
	"net/http"

	"github.com/scidata/hsds/dspace"
	"github.com/scidata/hsds/dtype"
	"github.com/scidata/hsds/internal/jbuf"
	"github.com/scidata/hsds/objref"
)

// Dataset is a dataset object together with its stored element type and
// shape, fetched once at open time. Refresh re-reads the shape after
// another writer resizes the dataset.
type Dataset struct {
	object
	Type  dtype.Descriptor
	Space dspace.Dataspace
}

// CreateDataset creates a dataset of the given element type and shape and
// links it under g. Wire features of the element type that the connected
// server release does not support are rejected here.
func (g *Group) CreateDataset(ctx context.Context, name string, dt dtype.Descriptor, space dspace.Dataspace) (*Dataset, error) {
	sv, err := g.dom.c.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	typeBody, err := dtype.EncodeTypeBody(dt, sv)
	if err != nil {
		return nil, err
	}

	b := jbuf.New(512)
	b.Str(`{`)
	b.Str(typeBody)
	b.Str(`, `)
	b.Str(dspace.EncodeShape(space))
	b.Str(`, "link": {"id": `)
	b.Quoted(g.id)
	b.Str(`, "name": `)
	b.Quoted(name)
	b.Str(`}}`)

	req := g.dom.newRequest(http.MethodPost, "/datasets")
	req.body = b.Bytes()
	req.contentType = contentTypeJSON

	doc, err := g.dom.c.getJSON(ctx, req)
	if err != nil {
		return nil, err
	}
	id := doc.Get("id").String()
	if id == "" {
		return nil, &ServerError{StatusCode: http.StatusInternalServerError, Method: http.MethodPost, Path: "/datasets", Message: "created dataset has no id"}
	}
	return &Dataset{
		object: object{dom: g.dom, collection: collectionDatasets, id: id},
		Type:   dt,
		Space:  space,
	}, nil
}

// OpenDataset resolves a path to a dataset and loads its type and shape.
func (d *Domain) OpenDataset(ctx context.Context, path string) (*Dataset, error) {
	collection, id, err := d.resolvePath(ctx, path)
	if err != nil {
		return nil, err
	}
	if collection != collectionDatasets {
		return nil, fmt.Errorf("hsds: %s is a %s, not a dataset", path, collection)
	}

	ds := &Dataset{object: object{dom: d, collection: collection, id: id}}
	doc, err := d.c.getJSON(ctx, ds.newRequest(http.MethodGet, ""))
	if err != nil {
		return nil, err
	}
	if ds.Type, err = dtype.Decode(doc.Get("type").Raw); err != nil {
		return nil, err
	}
	if ds.Space, err = dspace.ParseShape(doc.Raw); err != nil {
		return nil, err
	}
	return ds, nil
}

// Refresh re-reads the dataset shape from the server.
func (ds *Dataset) Refresh(ctx context.Context) error {
	doc, err := ds.dom.c.getJSON(ctx, ds.newRequest(http.MethodGet, "/shape"))
	if err != nil {
		return err
	}
	space, err := dspace.ParseShape(doc.Raw)
	if err != nil {
		return err
	}
	ds.Space = space
	return nil
}

// Resize grows the dataset to the given extent. Dimensions without an
// unlimited maximum cannot grow past their declared bound; the server
// rejects shrinking.
func (ds *Dataset) Resize(ctx context.Context, dims []uint64) error {
	b := jbuf.New(128)
	b.Str(`{"shape": [`)
	for i, dim := range dims {
		if i > 0 {
			b.Str(", ")
		}
		b.Uint(dim)
	}
	b.Str(`]}`)

	req := ds.newRequest(http.MethodPut, "/shape")
	req.body = b.Bytes()
	req.contentType = contentTypeJSON
	if _, err := ds.dom.c.exec(ctx, req, nil); err != nil {
		return err
	}
	ds.Space.Dims = append(ds.Space.Dims[:0], dims...)
	return nil
}

// Delete removes the dataset object.
func (ds *Dataset) Delete(ctx context.Context) error {
	_, err := ds.dom.c.exec(ctx, ds.newRequest(http.MethodDelete, ""), nil)
	return err
}

// Ref returns an object reference to the dataset.
func (ds *Dataset) Ref() objref.Ref {
	return objref.Ref{Kind: objref.KindDataset, ID: ds.id}
}

// Ref returns an object reference to the group.
func (g *Group) Ref() objref.Ref {
	return objref.Ref{Kind: objref.KindGroup, ID: g.id}
}

// selectionTarget validates a selection against the dataset extent and
// returns the covered element count. A nil selection means the whole
// extent.
func (ds *Dataset) selectionTarget(sel dspace.Selection) (dspace.Selection, int, error) {
	if sel == nil {
		sel = dspace.All{}
	}
	extent := ds.Space.Dims
	if ds.Space.Class == dspace.ClassScalar {
		extent = []uint64{1}
	}
	if err := dspace.Validate(sel, extent); err != nil {
		return nil, 0, err
	}
	return sel, int(dspace.NumPoints(sel, extent)), nil
}

// jsonValueRequest builds the request for a JSON value transfer over the
// given selection. Regular selections travel as the select query
// parameter; point selections and any request with body fields travel in
// the JSON body.
func (ds *Dataset) jsonValueRequest(method string, sel dspace.Selection, valueField string) (*request, error) {
	req := ds.newRequest(method, "/value")

	param, err := dspace.EncodeParam(sel)
	switch {
	case err == nil:
		if param != "" {
			req.query.Set("select", param)
		}
		if valueField != "" {
			req.body = []byte("{" + valueField + "}")
			req.contentType = contentTypeJSON
		}
		return req, nil

	case err == dspace.ErrPointsAsParam:
		body, err := dspace.EncodeBody(sel)
		if err != nil {
			return nil, err
		}
		if valueField != "" {
			body += ", " + valueField
		}
		req.body = []byte("{" + body + "}")
		req.contentType = contentTypeJSON
		if method == http.MethodGet {
			// Point selections cannot ride a GET; the server accepts the
			// same read as a POST with the points in the body.
			req.method = http.MethodPost
		}
		return req, nil

	default:
		return nil, err
	}
}

// ReadStrings reads variable-length string elements covered by the
// selection, in row-major selection order. A nil selection reads the whole
// dataset.
func (ds *Dataset) ReadStrings(ctx context.Context, sel dspace.Selection) ([]string, error) {
	sel, n, err := ds.selectionTarget(sel)
	if err != nil {
		return nil, err
	}
	req, err := ds.jsonValueRequest(http.MethodGet, sel, "")
	if err != nil {
		return nil, err
	}

	doc, err := ds.dom.c.getJSON(ctx, req)
	if err != nil {
		ds.dom.c.stats.recordError()
		return nil, err
	}
	values, err := dtype.DecodeStringValues(doc.Get("value"))
	if err != nil {
		ds.dom.c.stats.recordError()
		return nil, err
	}
	if len(values) != n {
		ds.dom.c.stats.recordError()
		return nil, fmt.Errorf("hsds: read %d string values, want %d", len(values), n)
	}
	ds.dom.c.stats.recordJSONTransfer()
	ds.dom.c.stats.recordRead(len(values) * 8)
	return values, nil
}

// WriteStrings writes variable-length string elements to the selection.
// A nil selection writes the whole dataset.
func (ds *Dataset) WriteStrings(ctx context.Context, sel dspace.Selection, values []string) error {
	sel, n, err := ds.selectionTarget(sel)
	if err != nil {
		return err
	}
	if len(values) != n {
		return fmt.Errorf("hsds: writing %d string values to a selection of %d elements", len(values), n)
	}
	req, err := ds.jsonValueRequest(http.MethodPut, sel, `"value": `+dtype.EncodeStringValues(values))
	if err != nil {
		return err
	}

	if _, err := ds.dom.c.exec(ctx, req, nil); err != nil {
		ds.dom.c.stats.recordError()
		return err
	}
	ds.dom.c.stats.recordJSONTransfer()
	ds.dom.c.stats.recordWrite(len(values) * 8)
	return nil
}

// ReadRefs reads object-reference elements covered by the selection.
func (ds *Dataset) ReadRefs(ctx context.Context, sel dspace.Selection) ([]objref.Ref, error) {
	values, err := ds.ReadStrings(ctx, sel)
	if err != nil {
		return nil, err
	}
	refs := make([]objref.Ref, len(values))
	for i, v := range values {
		refs[i] = objref.FromURI(v)
	}
	return refs, nil
}

// WriteRefs writes object-reference elements to the selection.
func (ds *Dataset) WriteRefs(ctx context.Context, sel dspace.Selection, refs []objref.Ref) error {
	values := make([]string, len(refs))
	for i, r := range refs {
		values[i] = r.URI()
	}
	return ds.WriteStrings(ctx, sel, values)
}
