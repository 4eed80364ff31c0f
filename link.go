package hsds

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/scidata/hsds/internal/jbuf"
	"github.com/scidata/hsds/objref"
)

// LinkClass distinguishes the three link flavors of the data model.
type LinkClass int

const (
	LinkHard LinkClass = iota
	LinkSoft
	LinkExternal
)

func (c LinkClass) String() string {
	switch c {
	case LinkSoft:
		return "H5L_TYPE_SOFT"
	case LinkExternal:
		return "H5L_TYPE_EXTERNAL"
	default:
		return "H5L_TYPE_HARD"
	}
}

// Link is one directory entry of a group. Hard links carry the target's
// collection and identifier; soft links carry a path within the domain;
// external links additionally name another domain.
type Link struct {
	Name       string
	Class      LinkClass
	Collection string
	TargetID   string
	H5Path     string
	H5Domain   string
}

// Target returns the hard link's target as an object reference, or the
// null reference for soft and external links.
func (l Link) Target() objref.Ref {
	if l.Class != LinkHard {
		return objref.Ref{}
	}
	return objref.FromURI(l.Collection + "/" + l.TargetID)
}

func parseLink(name string, doc gjson.Result) Link {
	l := Link{Name: name}
	switch doc.Get("class").String() {
	case "H5L_TYPE_SOFT":
		l.Class = LinkSoft
		l.H5Path = doc.Get("h5path").String()
	case "H5L_TYPE_EXTERNAL":
		l.Class = LinkExternal
		l.H5Path = doc.Get("h5path").String()
		l.H5Domain = doc.Get("h5domain").String()
	default:
		l.Class = LinkHard
		l.Collection = doc.Get("collection").String()
		l.TargetID = doc.Get("id").String()
	}
	return l
}

// Links lists the links of the group in name order.
func (g *Group) Links(ctx context.Context) ([]Link, error) {
	doc, err := g.dom.c.getJSON(ctx, g.newRequest(http.MethodGet, "/links"))
	if err != nil {
		return nil, err
	}
	var links []Link
	doc.Get("links").ForEach(func(_, ld gjson.Result) bool {
		links = append(links, parseLink(ld.Get("title").String(), ld))
		return true
	})
	return links, nil
}

// Link fetches a single link by name.
func (g *Group) Link(ctx context.Context, name string) (*Link, error) {
	doc, err := g.dom.c.getJSON(ctx, g.newRequest(http.MethodGet, "/links/"+name))
	if err != nil {
		return nil, err
	}
	l := parseLink(name, doc.Get("link"))
	return &l, nil
}

// CreateHardLink links an existing object under g with the given name.
func (g *Group) CreateHardLink(ctx context.Context, name string, target objref.Ref) error {
	b := jbuf.New(128)
	b.Str(`{"id": `)
	b.Quoted(target.ID)
	b.Str(`}`)
	return g.putLink(ctx, name, b.Bytes())
}

// CreateSoftLink creates a link that names a path within the domain
// instead of an object. The target need not exist.
func (g *Group) CreateSoftLink(ctx context.Context, name, h5path string) error {
	b := jbuf.New(128)
	b.Str(`{"h5path": `)
	b.Quoted(h5path)
	b.Str(`}`)
	return g.putLink(ctx, name, b.Bytes())
}

// CreateExternalLink creates a link into another domain.
func (g *Group) CreateExternalLink(ctx context.Context, name, h5path, h5domain string) error {
	b := jbuf.New(160)
	b.Str(`{"h5path": `)
	b.Quoted(h5path)
	b.Str(`, "h5domain": `)
	b.Quoted(h5domain)
	b.Str(`}`)
	return g.putLink(ctx, name, b.Bytes())
}

func (g *Group) putLink(ctx context.Context, name string, body []byte) error {
	req := g.newRequest(http.MethodPut, "/links/"+name)
	req.body = body
	req.contentType = contentTypeJSON
	_, err := g.dom.c.exec(ctx, req, nil)
	return err
}

// DeleteLink removes a link. The object it pointed to is unaffected.
func (g *Group) DeleteLink(ctx context.Context, name string) error {
	_, err := g.dom.c.exec(ctx, g.newRequest(http.MethodDelete, "/links/"+name), nil)
	return err
}
