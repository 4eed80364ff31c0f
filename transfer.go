package hsds

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/scidata/hsds/dspace"
	"github.com/scidata/hsds/dtype"
	"github.com/scidata/hsds/objref"
)

// TransferOp is the direction of a transfer.
type TransferOp int

const (
	TransferRead TransferOp = iota
	TransferWrite
)

// TransferRequest describes one dataset read or write. Requests in a batch
// run concurrently and complete in arbitrary order; each reports its own
// outcome and a failure never aborts its siblings.
type TransferRequest struct {
	Dataset *Dataset
	Op      TransferOp

	// Selection targets elements within the dataset extent. Nil selects
	// everything.
	Selection dspace.Selection

	// MemType is the in-memory element layout. Nil means the dataset's
	// stored type, making the transfer a straight byte copy.
	MemType dtype.Descriptor

	// Data is the caller's element buffer: destination for reads, source
	// for writes. Elements are packed in selection order unless
	// MemSelection places them.
	Data []byte

	// MemSelection optionally scatters read elements into (or gathers
	// written elements out of) Data treated as a row-major buffer of
	// MemExtent shape. Its point count must equal the file selection's.
	MemSelection dspace.Selection
	MemExtent    []uint64
}

// TransferResult is the outcome of one request in a batch.
type TransferResult struct {
	Bytes int
	Err   error
}

// transferRoute says how element bytes travel.
type transferRoute int

const (
	routeBinary transferRoute = iota // octet-stream payload
	routeJSON                        // JSON values, fixed-size memory layout
	routeRefs                        // JSON reference URIs, slot memory layout
)

// transfer is one validated request ready to run.
type transfer struct {
	req      *TransferRequest
	sel      dspace.Selection
	extent   []uint64
	nelem    int
	fileType dtype.Descriptor
	memType  dtype.Descriptor
	route    transferRoute
}

// Read moves the selected elements into dst, converting from the stored
// type to memType. A nil memType reads raw stored elements.
func (ds *Dataset) Read(ctx context.Context, sel dspace.Selection, memType dtype.Descriptor, dst []byte) error {
	return ds.runOne(ctx, &TransferRequest{Dataset: ds, Op: TransferRead, Selection: sel, MemType: memType, Data: dst})
}

// Write moves elements from src into the selected region, converting from
// memType to the stored type. A nil memType writes raw stored elements.
func (ds *Dataset) Write(ctx context.Context, sel dspace.Selection, memType dtype.Descriptor, src []byte) error {
	return ds.runOne(ctx, &TransferRequest{Dataset: ds, Op: TransferWrite, Selection: sel, MemType: memType, Data: src})
}

func (ds *Dataset) runOne(ctx context.Context, req *TransferRequest) error {
	results, err := ds.dom.c.RunBatch(ctx, []*TransferRequest{req})
	if err != nil {
		return results[0].Err
	}
	return nil
}

// RunBatch executes the requests concurrently, at most MaxConcurrent in
// flight. All requests run to completion regardless of sibling failures;
// the returned error is a *BatchError naming each failed request, nil when
// everything succeeded. Results are indexed like reqs.
func (c *Client) RunBatch(ctx context.Context, reqs []*TransferRequest) ([]TransferResult, error) {
	results := make([]TransferResult, len(reqs))
	transfers := make([]*transfer, len(reqs))

	// Validation happens up front so precondition errors surface without
	// touching the network, and without consuming a concurrency slot.
	for i, req := range reqs {
		t, err := buildTransfer(req)
		if err != nil {
			results[i].Err = err
			c.stats.recordError()
			continue
		}
		transfers[i] = t
	}

	g := &errgroup.Group{}
	g.SetLimit(c.maxConcurrent)
	for i, t := range transfers {
		if t == nil || t.nelem == 0 {
			continue
		}
		g.Go(func() error {
			n, err := c.runTransfer(ctx, t)
			results[i] = TransferResult{Bytes: n, Err: err}
			if err != nil {
				c.stats.recordError()
			}
			return nil
		})
	}
	g.Wait()

	var failures []*RequestError
	for i := range results {
		if results[i].Err != nil {
			failures = append(failures, &RequestError{Index: i, Err: results[i].Err})
		}
	}
	if failures != nil {
		return results, &BatchError{Failures: failures}
	}
	return results, nil
}

func buildTransfer(req *TransferRequest) (*transfer, error) {
	if req.Dataset == nil {
		return nil, fmt.Errorf("hsds: transfer request without a dataset")
	}
	ds := req.Dataset
	sel, nelem, err := ds.selectionTarget(req.Selection)
	if err != nil {
		return nil, err
	}

	t := &transfer{
		req:      req,
		sel:      sel,
		extent:   ds.Space.Dims,
		nelem:    nelem,
		fileType: ds.Type,
		memType:  req.MemType,
	}
	if ds.Space.Class == dspace.ClassScalar {
		t.extent = []uint64{1}
	}
	if t.memType == nil {
		t.memType = ds.Type
	}

	switch {
	case isReference(t.memType) || isReference(t.fileType):
		if !isReference(t.memType) || !isReference(t.fileType) {
			return nil, &dtype.UnsupportedTypeError{What: "conversion between reference and non-reference types"}
		}
		t.route = routeRefs
	case dtype.HasVarOrRef(t.memType):
		return nil, &dtype.UnsupportedTypeError{What: "variable-length memory type in a byte transfer; use ReadStrings or WriteStrings"}
	case dtype.HasVarOrRef(t.fileType):
		t.route = routeJSON
	default:
		t.route = routeBinary
	}

	memSize := t.memType.Size()
	if req.MemSelection != nil {
		if err := dspace.Validate(req.MemSelection, req.MemExtent); err != nil {
			return nil, err
		}
		if got := dspace.NumPoints(req.MemSelection, req.MemExtent); got != uint64(nelem) {
			return nil, &dspace.PrecondError{Msg: fmt.Sprintf("memory selection covers %d elements, file selection %d", got, nelem)}
		}
		full := uint64(1)
		for _, d := range req.MemExtent {
			full *= d
		}
		if uint64(len(req.Data)) < full*uint64(memSize) {
			return nil, fmt.Errorf("hsds: data buffer holds %d bytes, memory extent needs %d", len(req.Data), full*uint64(memSize))
		}
	} else if len(req.Data) < nelem*memSize {
		return nil, fmt.Errorf("hsds: data buffer holds %d bytes, selection needs %d", len(req.Data), nelem*memSize)
	}

	return t, nil
}

func isReference(d dtype.Descriptor) bool {
	_, ok := d.(dtype.Reference)
	return ok
}

func (c *Client) runTransfer(ctx context.Context, t *transfer) (int, error) {
	switch t.route {
	case routeBinary:
		if t.req.Op == TransferRead {
			return c.binaryRead(ctx, t)
		}
		return c.binaryWrite(ctx, t)
	case routeJSON:
		if t.req.Op == TransferRead {
			return c.jsonRead(ctx, t)
		}
		return c.jsonWrite(ctx, t)
	default:
		if t.req.Op == TransferRead {
			return c.refRead(ctx, t)
		}
		return c.refWrite(ctx, t)
	}
}

// binaryRead downloads the selected elements as an octet-stream payload,
// converts them to the memory type and places them into the caller buffer.
func (c *Client) binaryRead(ctx context.Context, t *transfer) (int, error) {
	ds := t.req.Dataset
	req, err := ds.jsonValueRequest(http.MethodGet, t.sel, "")
	if err != nil {
		return 0, err
	}
	req.accept = contentTypeBinary

	lease, err := c.scratch.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	wire, err := c.exec(ctx, req, lease)
	if err != nil {
		return 0, err
	}

	fileSize := t.fileType.Size()
	if len(wire) != t.nelem*fileSize {
		return 0, fmt.Errorf("hsds: server returned %d bytes, want %d", len(wire), t.nelem*fileSize)
	}

	plan, err := dtype.Plan(t.fileType, t.memType, t.nelem, false)
	if err != nil {
		return 0, err
	}

	elems := wire
	if plan.NeedsConversion {
		c.stats.recordConversion()
		cb, bb, inCaller := c.readBuffers(t, plan)
		copy(cb, wire)
		if plan.FillBackground {
			if err := t.fillBackgroundFromCaller(bb); err != nil {
				return 0, err
			}
		}
		if err := dtype.Convert(t.fileType, t.memType, t.nelem, cb, bb); err != nil {
			return 0, err
		}
		if inCaller {
			c.stats.recordRead(t.nelem * t.memType.Size())
			return t.nelem * t.memType.Size(), nil
		}
		elems = cb[:t.nelem*t.memType.Size()]
	}

	if err := t.place(elems); err != nil {
		return 0, err
	}
	c.stats.recordRead(t.nelem * t.memType.Size())
	return t.nelem * t.memType.Size(), nil
}

// readBuffers resolves the conversion and background buffers of a read
// plan, reusing the caller buffer when the plan allows it and the caller
// buffer is packed. inCaller reports that converted elements already sit
// in the caller buffer.
func (c *Client) readBuffers(t *transfer, plan dtype.ConversionPlan) (cb, bb []byte, inCaller bool) {
	max := plan.SrcSize
	if plan.DstSize > max {
		max = plan.DstSize
	}
	packed := t.req.MemSelection == nil

	cb = plan.ConvBuf
	if cb == nil {
		if plan.Reuse == dtype.ReuseConv && packed && len(t.req.Data) >= t.nelem*max {
			cb = t.req.Data[:t.nelem*max]
			inCaller = true
		} else {
			cb = make([]byte, t.nelem*max)
		}
	}

	if plan.NeedsBackground {
		bb = plan.BkgBuf
		if bb == nil {
			if plan.Reuse == dtype.ReuseBkg && packed && !inCaller {
				bb = t.req.Data[:t.nelem*plan.DstSize]
			} else {
				bb = make([]byte, t.nelem*plan.DstSize)
			}
		}
	}
	return cb, bb, inCaller
}

// fillBackgroundFromCaller seeds the background buffer with the caller's
// current element content, so destination members without a source match
// survive the conversion.
func (t *transfer) fillBackgroundFromCaller(bb []byte) error {
	memSize := t.memType.Size()
	if t.req.MemSelection == nil {
		copy(bb, t.req.Data[:t.nelem*memSize])
		return nil
	}
	return dspace.Gather(t.req.MemSelection, t.req.MemExtent, memSize, t.req.Data, bb)
}

// place moves packed converted elements into the caller buffer.
func (t *transfer) place(elems []byte) error {
	memSize := t.memType.Size()
	if t.req.MemSelection != nil {
		return dspace.Scatter(t.req.MemSelection, t.req.MemExtent, memSize, elems, t.req.Data)
	}
	copy(t.req.Data, elems[:t.nelem*memSize])
	return nil
}

// packed returns the caller's elements as a packed slice in selection
// order, gathering through the memory selection when one is set.
func (t *transfer) packed() ([]byte, error) {
	memSize := t.memType.Size()
	if t.req.MemSelection == nil {
		return t.req.Data[:t.nelem*memSize], nil
	}
	out := make([]byte, t.nelem*memSize)
	if err := dspace.Gather(t.req.MemSelection, t.req.MemExtent, memSize, t.req.Data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// binaryWrite converts the caller's elements to the stored type and
// uploads them as an octet-stream payload. Partial compound writes first
// download the current stored elements, so unmatched members keep their
// stored content.
func (c *Client) binaryWrite(ctx context.Context, t *transfer) (int, error) {
	ds := t.req.Dataset
	elems, err := t.packed()
	if err != nil {
		return 0, err
	}

	plan, err := dtype.Plan(t.memType, t.fileType, t.nelem, true)
	if err != nil {
		return 0, err
	}

	fileSize := t.fileType.Size()
	wire := elems
	if plan.NeedsConversion {
		c.stats.recordConversion()
		max := plan.SrcSize
		if plan.DstSize > max {
			max = plan.DstSize
		}
		cb := plan.ConvBuf
		if cb == nil {
			cb = make([]byte, t.nelem*max)
		}
		copy(cb, elems)

		bb := plan.BkgBuf
		if plan.NeedsBackground && bb == nil {
			bb = make([]byte, t.nelem*plan.DstSize)
		}
		if plan.FillBackground {
			if err := c.fillBackgroundFromStore(ctx, t, bb); err != nil {
				return 0, err
			}
		}
		if err := dtype.Convert(t.memType, t.fileType, t.nelem, cb, bb); err != nil {
			return 0, err
		}
		wire = cb[:t.nelem*fileSize]
	}

	param, err := dspace.EncodeParam(t.sel)
	switch {
	case err == nil:
		req := ds.newRequest(http.MethodPut, "/value")
		if param != "" {
			req.query.Set("select", param)
		}
		req.body = wire
		req.contentType = contentTypeBinary
		if _, err := c.exec(ctx, req, nil); err != nil {
			return 0, err
		}

	case err == dspace.ErrPointsAsParam:
		// Point writes carry the payload base64-encoded next to the point
		// list in a JSON body.
		body, err := dspace.EncodeBody(t.sel)
		if err != nil {
			return 0, err
		}
		req := ds.newRequest(http.MethodPut, "/value")
		req.body = []byte(`{` + body + `, "value_base64": "` + base64.StdEncoding.EncodeToString(wire) + `"}`)
		req.contentType = contentTypeJSON
		if _, err := c.exec(ctx, req, nil); err != nil {
			return 0, err
		}

	default:
		return 0, err
	}

	c.stats.recordWrite(len(wire))
	return len(wire), nil
}

// fillBackgroundFromStore downloads the current stored elements of the
// selection into the background buffer (read-modify-write).
func (c *Client) fillBackgroundFromStore(ctx context.Context, t *transfer, bb []byte) error {
	ds := t.req.Dataset
	req, err := ds.jsonValueRequest(http.MethodGet, t.sel, "")
	if err != nil {
		return err
	}
	req.accept = contentTypeBinary

	lease, err := c.scratch.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	wire, err := c.exec(ctx, req, lease)
	if err != nil {
		return err
	}
	if len(wire) != len(bb) {
		return fmt.Errorf("hsds: background read returned %d bytes, want %d", len(wire), len(bb))
	}
	copy(bb, wire)
	return nil
}

// jsonRead fetches element values as JSON and decodes them into the
// memory type. Used when the stored type holds variable-length components
// that have no binary form.
func (c *Client) jsonRead(ctx context.Context, t *transfer) (int, error) {
	ds := t.req.Dataset
	req, err := ds.jsonValueRequest(http.MethodGet, t.sel, "")
	if err != nil {
		return 0, err
	}

	doc, err := c.getJSON(ctx, req)
	if err != nil {
		return 0, err
	}
	elems, err := dtype.DecodeValues(t.memType, doc.Get("value"), t.nelem)
	if err != nil {
		return 0, err
	}
	if err := t.place(elems); err != nil {
		return 0, err
	}
	c.stats.recordJSONTransfer()
	c.stats.recordRead(len(elems))
	return len(elems), nil
}

// jsonWrite encodes the caller's elements as JSON values.
func (c *Client) jsonWrite(ctx context.Context, t *transfer) (int, error) {
	ds := t.req.Dataset
	elems, err := t.packed()
	if err != nil {
		return 0, err
	}
	value, err := dtype.EncodeValues(t.memType, elems, t.nelem)
	if err != nil {
		return 0, err
	}

	req, err := ds.jsonValueRequest(http.MethodPut, t.sel, `"value": `+value)
	if err != nil {
		return 0, err
	}
	if _, err := c.exec(ctx, req, nil); err != nil {
		return 0, err
	}
	c.stats.recordJSONTransfer()
	c.stats.recordWrite(len(elems))
	return len(elems), nil
}

// refRead fetches reference URIs as JSON and packs them into fixed-width
// reference slots in the caller buffer.
func (c *Client) refRead(ctx context.Context, t *transfer) (int, error) {
	ds := t.req.Dataset
	req, err := ds.jsonValueRequest(http.MethodGet, t.sel, "")
	if err != nil {
		return 0, err
	}

	doc, err := c.getJSON(ctx, req)
	if err != nil {
		return 0, err
	}
	values, err := dtype.DecodeStringValues(doc.Get("value"))
	if err != nil {
		return 0, err
	}
	if len(values) != t.nelem {
		return 0, fmt.Errorf("hsds: read %d reference values, want %d", len(values), t.nelem)
	}

	refs := make([]objref.Ref, len(values))
	for i, v := range values {
		refs[i] = objref.FromURI(v)
	}
	elems, err := objref.Encode(refs)
	if err != nil {
		return 0, err
	}
	if err := t.place(elems); err != nil {
		return 0, err
	}
	c.stats.recordJSONTransfer()
	c.stats.recordRead(len(elems))
	return len(elems), nil
}

// refWrite decodes reference slots from the caller buffer and uploads
// their URIs as JSON values.
func (c *Client) refWrite(ctx context.Context, t *transfer) (int, error) {
	ds := t.req.Dataset
	elems, err := t.packed()
	if err != nil {
		return 0, err
	}
	refs, err := objref.Decode(elems)
	if err != nil {
		return 0, err
	}
	values := make([]string, len(refs))
	for i, r := range refs {
		values[i] = r.URI()
	}

	req, err := ds.jsonValueRequest(http.MethodPut, t.sel, `"value": `+dtype.EncodeStringValues(values))
	if err != nil {
		return 0, err
	}
	if _, err := c.exec(ctx, req, nil); err != nil {
		return 0, err
	}
	c.stats.recordJSONTransfer()
	c.stats.recordWrite(len(elems))
	return len(elems), nil
}
