package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// minBurst keeps reads of a typical copy buffer from being split up
const minBurst = 64 * 1024

// Limiter caps the throughput shared by every reader wrapped with it
type Limiter struct {
	bytesPerSecond int64
	limiter        *rate.Limiter
}

// NewLimiter creates a limiter allowing bytesPerSecond. A zero or negative
// rate means no limit and yields a nil *Limiter.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		limiter:        rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst)),
	}
}

// BytesPerSecond returns the configured rate
func (l *Limiter) BytesPerSecond() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst returns the largest single read the limiter admits
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *Limiter
}

// NewReader wraps reader so that reads wait on limiter. A nil limiter
// returns reader unchanged.
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{ctx: ctx, reader: reader, limiter: limiter}
}

// Read waits for enough tokens to cover len(p), capped at the burst size
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	if err := r.limiter.limiter.WaitN(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}

// ReadCloser wraps an io.ReadCloser with rate limiting
type ReadCloser struct {
	Reader
	closer io.Closer
}

// NewReadCloser wraps rc with rate limiting. A nil limiter returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &ReadCloser{
		Reader: Reader{ctx: ctx, reader: rc, limiter: limiter},
		closer: rc,
	}
}

// Close implements io.Closer
func (rc *ReadCloser) Close() error {
	return rc.closer.Close()
}
