package fsops

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/semaphore"
)

// Throttled bounds the number of Provider calls in flight. Calls never nest,
// so holding a slot for the duration of a call cannot deadlock.
type Throttled struct {
	next Provider
	sem  *semaphore.Weighted
}

// Throttle wraps p so that at most n calls run concurrently. n <= 0 returns p.
func Throttle(p Provider, n int) Provider {
	if n <= 0 {
		return p
	}
	return &Throttled{next: p, sem: semaphore.NewWeighted(int64(n))}
}

func (t *Throttled) acquire(ctx context.Context) error {
	return t.sem.Acquire(ctx, 1)
}

func (t *Throttled) release() {
	t.sem.Release(1)
}

func (t *Throttled) Exists(ctx context.Context, path string) (bool, error) {
	if err := t.acquire(ctx); err != nil {
		return false, err
	}
	defer t.release()
	return t.next.Exists(ctx, path)
}

func (t *Throttled) Stat(ctx context.Context, path string) (Stats, error) {
	if err := t.acquire(ctx); err != nil {
		return Stats{}, err
	}
	defer t.release()
	return t.next.Stat(ctx, path)
}

func (t *Throttled) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()
	return t.next.ReadFile(ctx, path)
}

// Open only throttles opening; reads on the returned stream are not counted
func (t *Throttled) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()
	return t.next.Open(ctx, path)
}

func (t *Throttled) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	return t.next.WriteFile(ctx, path, data)
}

func (t *Throttled) Copy(ctx context.Context, src, dst string, opts CopyOptions) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	return t.next.Copy(ctx, src, dst, opts)
}

func (t *Throttled) Remove(ctx context.Context, path string) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	return t.next.Remove(ctx, path)
}

func (t *Throttled) List(ctx context.Context, path string) ([]string, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()
	return t.next.List(ctx, path)
}

func (t *Throttled) SetTimes(ctx context.Context, path string, modTime time.Time) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	return t.next.SetTimes(ctx, path, modTime)
}

func (t *Throttled) EnsureDir(ctx context.Context, path string) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	return t.next.EnsureDir(ctx, path)
}

func (t *Throttled) EnsureSymlink(ctx context.Context, linkPath, target string) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	return t.next.EnsureSymlink(ctx, linkPath, target)
}

// Access reports the context error as the code when no slot can be acquired
func (t *Throttled) Access(ctx context.Context, path string) AccessResult {
	if err := t.acquire(ctx); err != nil {
		return AccessResult{Code: err.Error()}
	}
	defer t.release()
	return t.next.Access(ctx, path)
}
