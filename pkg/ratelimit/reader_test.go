package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	t.Run("ValidBytesPerSecond", func(t *testing.T) {
		limiter := NewLimiter(1024 * 1024)
		if limiter == nil {
			t.Fatal("NewLimiter() returned nil for valid input")
		}
		if limiter.BytesPerSecond() != 1024*1024 {
			t.Errorf("BytesPerSecond() = %d, want %d", limiter.BytesPerSecond(), 1024*1024)
		}
		if limiter.Burst() != 1024*1024 {
			t.Errorf("Burst() = %d, want one second of data", limiter.Burst())
		}
	})

	t.Run("NoLimit", func(t *testing.T) {
		for _, bps := range []int64{0, -100} {
			if NewLimiter(bps) != nil {
				t.Errorf("NewLimiter(%d) should return nil", bps)
			}
		}
		var none *Limiter
		if none.BytesPerSecond() != 0 {
			t.Error("nil limiter should report 0 bytes per second")
		}
	})

	t.Run("SmallRateKeepsMinimumBurst", func(t *testing.T) {
		limiter := NewLimiter(1000)
		if limiter.Burst() < minBurst {
			t.Errorf("Burst() = %d, want at least %d", limiter.Burst(), minBurst)
		}
	})
}

func TestNewReader(t *testing.T) {
	t.Run("NilLimiter", func(t *testing.T) {
		base := strings.NewReader("test content")
		if NewReader(context.Background(), base, nil) != base {
			t.Error("NewReader() should return the original reader when limiter is nil")
		}
	})

	t.Run("WithLimiter", func(t *testing.T) {
		reader := NewReader(context.Background(), strings.NewReader("x"), NewLimiter(1024))
		if _, ok := reader.(*Reader); !ok {
			t.Error("NewReader() should return *Reader when a limiter is provided")
		}
	})
}

func TestReaderRead(t *testing.T) {
	t.Run("ReadsEverything", func(t *testing.T) {
		content := []byte("0123456789abcdef")
		reader := NewReader(context.Background(), bytes.NewReader(content), NewLimiter(1024*1024))

		var result []byte
		buf := make([]byte, 4)
		for {
			n, err := reader.Read(buf)
			result = append(result, buf[:n]...)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
		}
		if !bytes.Equal(result, content) {
			t.Errorf("accumulated = %q, want %q", result, content)
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader := NewReader(ctx, bytes.NewReader(make([]byte, 1024)), NewLimiter(1024*1024))
		if _, err := reader.Read(make([]byte, 100)); !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	})

	t.Run("CapsReadAtBurst", func(t *testing.T) {
		limiter := NewLimiter(1000)
		reader := NewReader(context.Background(), bytes.NewReader(make([]byte, 2*minBurst)), limiter)

		n, err := reader.Read(make([]byte, 2*minBurst))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if n != limiter.Burst() {
			t.Errorf("Read() n = %d, want %d", n, limiter.Burst())
		}
	})
}

func TestRateLimiting(t *testing.T) {
	// The bucket starts full, so the first 100 KB pass immediately and the
	// remaining 50 KB take about half a second.
	limiter := NewLimiter(100_000)
	reader := NewReader(context.Background(), bytes.NewReader(make([]byte, 150_000)), limiter)

	start := time.Now()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("transfer took %v, expected the limiter to slow it down", elapsed)
	}
}

func TestNewReadCloser(t *testing.T) {
	t.Run("NilLimiter", func(t *testing.T) {
		base := io.NopCloser(strings.NewReader("test content"))
		if NewReadCloser(context.Background(), base, nil) != base {
			t.Error("NewReadCloser() should return the original reader when limiter is nil")
		}
	})

	t.Run("ReadThenClose", func(t *testing.T) {
		rc := NewReadCloser(context.Background(), io.NopCloser(strings.NewReader("payload")), NewLimiter(1024))
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(data) != "payload" {
			t.Errorf("ReadAll() = %q, want payload", data)
		}
		if err := rc.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
}

func BenchmarkRateLimitedRead(b *testing.B) {
	content := make([]byte, 1024*1024)
	limiter := NewLimiter(1 << 40)
	ctx := context.Background()
	buf := make([]byte, 64*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reader := NewReader(ctx, bytes.NewReader(content), limiter)
		if _, err := io.CopyBuffer(io.Discard, reader, buf); err != nil {
			b.Fatalf("Copy() error = %v", err)
		}
	}
}
