package hsds

import "sync/atomic"

// ClientStats contains statistics about client operations.
// All fields are safe for concurrent access.
//
// Struct is sized to fit within a single cache line (64 bytes).
//
// For Prometheus integration, expose these as:
//   - Counters: Reads, Writes, JSONTransfers, Conversions, Errors
//   - Counters: BytesRead, BytesWritten (derive throughput externally)
type ClientStats struct {
	Reads         uint64 // Completed read transfers
	Writes        uint64 // Completed write transfers
	BytesRead     uint64 // Element bytes delivered to callers
	BytesWritten  uint64 // Element bytes uploaded
	JSONTransfers uint64 // Transfers routed through the JSON value path
	Conversions   uint64 // Transfers that required element conversion
	Errors        uint64 // Total errors across all operations
	_             uint64 // Padding to align to 64 bytes
}

// clientStatsCollector provides internal methods for updating client stats.
// Not exported - the client updates its own stats.
type clientStatsCollector struct {
	stats *ClientStats
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{
		stats: &ClientStats{},
	}
}

func (c *clientStatsCollector) recordRead(bytes int) {
	atomic.AddUint64(&c.stats.Reads, 1)
	atomic.AddUint64(&c.stats.BytesRead, uint64(bytes))
}

func (c *clientStatsCollector) recordWrite(bytes int) {
	atomic.AddUint64(&c.stats.Writes, 1)
	atomic.AddUint64(&c.stats.BytesWritten, uint64(bytes))
}

func (c *clientStatsCollector) recordJSONTransfer() {
	atomic.AddUint64(&c.stats.JSONTransfers, 1)
}

func (c *clientStatsCollector) recordConversion() {
	atomic.AddUint64(&c.stats.Conversions, 1)
}

func (c *clientStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Reads:         atomic.LoadUint64(&c.stats.Reads),
		Writes:        atomic.LoadUint64(&c.stats.Writes),
		BytesRead:     atomic.LoadUint64(&c.stats.BytesRead),
		BytesWritten:  atomic.LoadUint64(&c.stats.BytesWritten),
		JSONTransfers: atomic.LoadUint64(&c.stats.JSONTransfers),
		Conversions:   atomic.LoadUint64(&c.stats.Conversions),
		Errors:        atomic.LoadUint64(&c.stats.Errors),
	}
}
