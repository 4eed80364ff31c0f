package hsds

import (
	"context"
	"net/http"
	"net/url"
)

// Domain is an open file-equivalent on the store. Every object request
// below a domain carries its name as the `domain` query parameter.
type Domain struct {
	c    *Client
	Name string
	Root *Group
}

// OpenDomain opens an existing domain and resolves its root group.
func (c *Client) OpenDomain(ctx context.Context, name string) (*Domain, error) {
	d := &Domain{c: c, Name: name}
	doc, err := c.getJSON(ctx, d.newRequest(http.MethodGet, "/"))
	if err != nil {
		return nil, err
	}
	root := doc.Get("root").String()
	if root == "" {
		return nil, &ServerError{StatusCode: http.StatusNotFound, Method: http.MethodGet, Path: "/", Message: "domain has no root group"}
	}
	d.Root = &Group{object: object{dom: d, collection: collectionGroups, id: root}}
	return d, nil
}

// CreateDomain creates a new domain with a fresh root group. The parent
// folder must already exist on the server.
func (c *Client) CreateDomain(ctx context.Context, name string) (*Domain, error) {
	d := &Domain{c: c, Name: name}
	doc, err := c.getJSON(ctx, d.newRequest(http.MethodPut, "/"))
	if err != nil {
		return nil, err
	}
	root := doc.Get("root").String()
	if root == "" {
		return nil, &ServerError{StatusCode: http.StatusInternalServerError, Method: http.MethodPut, Path: "/", Message: "created domain has no root group"}
	}
	d.Root = &Group{object: object{dom: d, collection: collectionGroups, id: root}}
	return d, nil
}

// DeleteDomain removes a domain and everything in it.
func (c *Client) DeleteDomain(ctx context.Context, name string) error {
	d := &Domain{c: c, Name: name}
	_, err := c.exec(ctx, d.newRequest(http.MethodDelete, "/"), nil)
	return err
}

func (d *Domain) newRequest(method, path string) *request {
	q := url.Values{}
	q.Set("domain", d.Name)
	return &request{method: method, path: path, query: q, objectID: d.Name}
}

// Collections of the store's object tree.
const (
	collectionGroups    = "groups"
	collectionDatasets  = "datasets"
	collectionDatatypes = "datatypes"
)

// object is the shared identity of groups, datasets and committed
// datatypes: a collection, a server identifier and the domain they live in.
type object struct {
	dom        *Domain
	collection string
	id         string
}

// ID returns the server identifier of the object.
func (o *object) ID() string { return o.id }

func (o *object) newRequest(method, suffix string) *request {
	req := o.dom.newRequest(method, "/"+o.collection+"/"+o.id+suffix)
	req.objectID = o.id
	return req
}
