package fileserver

import (
	"context"
	"io"
	"os"

	"github.com/staticfs/staticd/internal/metrics"
	"github.com/staticfs/staticd/internal/workerpool"
)

// streamChunk is one item flowing through the bounded channel between a
// worker-pool read and the goroutine writing to the network. A non-nil err
// is always the final item on the channel.
type streamChunk struct {
	data []byte
	err  error
}

// streamPlan is either the whole file (a single implicit [0, size-1] range)
// or an explicit, ordered list of clamped ranges for a multi-range response.
// Passing ranges=nil streams the whole file.
func streamPlan(ranges []ByteRange, size int64) []ByteRange {
	if ranges != nil {
		return ranges
	}
	if size == 0 {
		return nil
	}
	return []ByteRange{{Start: 0, End: size - 1}}
}

// streamChunks reads f according to plan (in requested-range order, each
// read up to chunkSize bytes) on pool, and emits the result on a channel of
// capacity chanCap. It takes ownership of f: whatever causes the goroutine
// to return (plan exhausted, ctx cancellation, or a read error), f.Close is
// called exactly once before the channel is closed.
//
// This is the Go realization of the ChunkStreamer described in
// SPEC_FULL.md §4.5: net/http already runs this on its own goroutine per
// request, so the "worker pool" here exists purely to bound how many blocking
// ReadAt calls may be in flight across all requests at once, not to create
// concurrency that wasn't already there.
func streamChunks(ctx context.Context, pool workerpool.Pool, m *metrics.Metrics, f *os.File, plan []ByteRange, chunkSize, chanCap int) <-chan streamChunk {
	out := make(chan streamChunk, chanCap)

	go func() {
		defer close(out)
		defer f.Close()

		for _, r := range plan {
			start := r.Start
			for start <= r.End {
				select {
				case <-ctx.Done():
					return
				default:
				}

				remaining := r.End - start + 1
				n := int64(chunkSize)
				if n > remaining {
					n = remaining
				}
				buf := make([]byte, n)

				var readErr error
				pushErr := pool.Push(ctx, func() {
					var read int
					read, readErr = f.ReadAt(buf, start)
					// io.EOF only counts as success when the buffer was
					// filled; a short read (the file shrank since it was
					// stat'ed) is forwarded as an error.
					if readErr == io.EOF && int64(read) == n {
						readErr = nil
					}
				})
				if m != nil {
					m.WorkerInFlight.Set(float64(pool.InFlight()))
				}
				if pushErr != nil {
					// ctx was cancelled while waiting for a worker slot.
					return
				}
				if readErr != nil {
					select {
					case out <- streamChunk{err: readErr}:
					case <-ctx.Done():
					}
					return
				}

				select {
				case out <- streamChunk{data: buf}:
				case <-ctx.Done():
					return
				}

				start += n
			}
		}
	}()

	return out
}
