package compare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
)

// BinaryComparator compares files byte-by-byte, streaming both with pooled
// buffers
type BinaryComparator struct {
	bufferPool *sync.Pool
}

// NewBinaryComparator creates a new byte-by-byte comparator
func NewBinaryComparator(bufferSize int) *BinaryComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &BinaryComparator{
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Compare reads both files to the end or to the first differing chunk
func (c *BinaryComparator) Compare(ctx context.Context, source, dest fspath.Path, sourceStats, destStats fsops.Stats) (*Comparison, error) {
	cmp := &Comparison{SourcePath: source.String(), DestPath: dest.String()}

	sourceReader, err := source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceReader.Close()

	destReader, err := dest.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination file: %w", err)
	}
	defer destReader.Close()

	sourceBufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(sourceBufPtr)
	destBufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(destBufPtr)
	sourceBuf, destBuf := *sourceBufPtr, *destBufPtr

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sourceN, sourceErr := readChunk(sourceReader, sourceBuf)
		if sourceErr != nil {
			return nil, fmt.Errorf("failed to read source: %w", sourceErr)
		}
		destN, destErr := readChunk(destReader, destBuf)
		if destErr != nil {
			return nil, fmt.Errorf("failed to read destination: %w", destErr)
		}

		if !bytes.Equal(sourceBuf[:sourceN], destBuf[:destN]) {
			cmp.Result = Different
			cmp.Reason = fmt.Sprintf("content differs after byte offset %d", offset)
			return cmp, nil
		}
		offset += int64(sourceN)

		if sourceN < len(sourceBuf) {
			break
		}
	}

	cmp.Result = Same
	cmp.Reason = fmt.Sprintf("content matches (%d bytes)", offset)
	return cmp, nil
}

// readChunk fills buf unless the reader ends first; reaching the end is not
// an error
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}

// Name returns the comparator name
func (c *BinaryComparator) Name() string {
	return "binary"
}
