package hsds

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/scidata/hsds/internal/jbuf"
)

// Group is a group object within a domain.
type Group struct {
	object
}

// CreateGroup creates a group and links it under g with the given name.
func (g *Group) CreateGroup(ctx context.Context, name string) (*Group, error) {
	b := jbuf.New(128)
	b.Str(`{"link": {"id": `)
	b.Quoted(g.id)
	b.Str(`, "name": `)
	b.Quoted(name)
	b.Str(`}}`)

	req := g.dom.newRequest(http.MethodPost, "/groups")
	req.body = b.Bytes()
	req.contentType = contentTypeJSON

	doc, err := g.dom.c.getJSON(ctx, req)
	if err != nil {
		return nil, err
	}
	id := doc.Get("id").String()
	if id == "" {
		return nil, &ServerError{StatusCode: http.StatusInternalServerError, Method: http.MethodPost, Path: "/groups", Message: "created group has no id"}
	}
	return &Group{object: object{dom: g.dom, collection: collectionGroups, id: id}}, nil
}

// OpenGroup resolves an absolute or root-relative path to a group.
func (d *Domain) OpenGroup(ctx context.Context, path string) (*Group, error) {
	collection, id, err := d.resolvePath(ctx, path)
	if err != nil {
		return nil, err
	}
	if collection != collectionGroups {
		return nil, fmt.Errorf("hsds: %s is a %s, not a group", path, collection)
	}
	return &Group{object: object{dom: d, collection: collection, id: id}}, nil
}

// maxLinkHops bounds soft-link chains during path resolution, so link
// cycles terminate with an error instead of looping.
const maxLinkHops = 32

// resolvePath walks the link tree from the root group to the object the
// path names, following soft links within the domain.
func (d *Domain) resolvePath(ctx context.Context, path string) (collection, id string, err error) {
	return d.resolveFrom(ctx, d.Root.id, path, 0)
}

func (d *Domain) resolveFrom(ctx context.Context, startID, path string, hops int) (collection, id string, err error) {
	if hops > maxLinkHops {
		return "", "", fmt.Errorf("hsds: too many link hops resolving %s", path)
	}

	collection, id = collectionGroups, startID
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "." {
			continue
		}
		if collection != collectionGroups {
			return "", "", fmt.Errorf("hsds: %s is not a group, cannot resolve %s below it", id, segment)
		}

		g := &object{dom: d, collection: collectionGroups, id: id}
		doc, err := d.c.getJSON(ctx, g.newRequest(http.MethodGet, "/links/"+segment))
		if err != nil {
			return "", "", err
		}
		link := doc.Get("link")

		switch link.Get("class").String() {
		case "H5L_TYPE_HARD":
			collection = link.Get("collection").String()
			id = link.Get("id").String()
		case "H5L_TYPE_SOFT":
			target := link.Get("h5path").String()
			if !strings.HasPrefix(target, "/") {
				return "", "", fmt.Errorf("hsds: soft link %s has a relative target %q", segment, target)
			}
			collection, id, err = d.resolveFrom(ctx, d.Root.id, target, hops+1)
			if err != nil {
				return "", "", err
			}
		case "H5L_TYPE_EXTERNAL":
			return "", "", fmt.Errorf("hsds: external link %s cannot be traversed within a domain", segment)
		default:
			return "", "", fmt.Errorf("hsds: link %s has unknown class %q", segment, link.Get("class").String())
		}
		if id == "" {
			return "", "", fmt.Errorf("hsds: link %s resolved to no object", segment)
		}
	}
	return collection, id, nil
}

// Delete removes the group object. Links pointing at it are left in place
// and dangle.
func (g *Group) Delete(ctx context.Context) error {
	_, err := g.dom.c.exec(ctx, g.newRequest(http.MethodDelete, ""), nil)
	return err
}
