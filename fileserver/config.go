package fileserver

import "runtime"

// Config holds the immutable, process-lifetime knobs for a file-serving
// engine instance. It is constructed once at startup (see cmd/staticd) and
// shared read-only across every request; nothing in this package mutates a
// Config after New returns it.
type Config struct {
	// Root is the filesystem directory exposed over HTTP. Must be an
	// absolute, existing directory.
	Root string

	// MountPrefix is the URL path under which Root is exposed, e.g. "/doc/".
	// An empty prefix mounts Root at "/".
	MountPrefix string

	// FollowLinks selects os.Stat (true) over os.Lstat (false) when the
	// MetadataGate inspects a resolved path, and correspondingly whether the
	// index walker follows symlinked directories.
	FollowLinks bool

	// ShowIndex, when false, makes a directory GET a readdir capability
	// probe that replies 200 with an empty body. When true, directories
	// render an HTML listing.
	ShowIndex bool

	// HideEntry omits dotfile-named entries from rendered listings.
	HideEntry bool

	// CacheSecs, when nonzero, emits Cache-Control: public, max-age=N and
	// gates whether If-None-Match is honored with a 304.
	CacheSecs uint32

	// ChunkSize is the target number of bytes per streamed body chunk.
	// Must be > 0; New defaults it to 16384.
	ChunkSize int

	// WorkerConcurrency bounds how many body-chunk ReadAt calls may run at
	// once across all requests; stat, open, and readdir calls are not
	// counted against it. New defaults it to
	// runtime.NumCPU()+1, matching the "num_cpus + 1" convention this
	// engine's design documents for its worker pool.
	WorkerConcurrency int

	// ChannelCapacity bounds how many chunks may be buffered between a
	// worker-pool read and the goroutine writing to the network, in flight
	// per request. New defaults it to 64.
	ChannelCapacity int
}

// DefaultChunkSize is used by New when Config.ChunkSize is left at zero.
const DefaultChunkSize = 16384

// DefaultChannelCapacity is used by New when Config.ChannelCapacity is left
// at zero.
const DefaultChannelCapacity = 64

// WithDefaults returns a copy of c with zero-valued tunables replaced by
// their defaults. It does not validate Root or MountPrefix; callers are
// expected to have resolved those before constructing a Config.
func (c Config) WithDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.WorkerConcurrency <= 0 {
		c.WorkerConcurrency = runtime.NumCPU() + 1
	}
	if c.ChannelCapacity <= 0 {
		c.ChannelCapacity = DefaultChannelCapacity
	}
	return c
}
