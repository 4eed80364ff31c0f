package hsds

import (
	"github.com/zeebo/xxh3"

	"github.com/scidata/hsds/internal/jump"
)

// SelectEndpoint picks which endpoint handles requests for a given object
// identifier. Routing by object rather than by request keeps every request
// for one object on the same endpoint, which keeps server-side chunk caches
// warm.
type SelectEndpoint func(objectID string, endpointCount int) int

// DefaultSelectEndpoint uses Jump Hash over an xxh3 digest of the object
// identifier. Jump Hash moves few objects when the endpoint list grows or
// shrinks.
func DefaultSelectEndpoint(objectID string, endpointCount int) int {
	return jump.Hash(xxh3.HashString(objectID), endpointCount)
}

// staticEndpoint is used in tests to pin all requests to one endpoint.
func staticEndpoint(index int) SelectEndpoint {
	return func(objectID string, endpointCount int) int {
		return index % endpointCount
	}
}
