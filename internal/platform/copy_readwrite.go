package platform

import (
	"errors"
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies data using positioned reads and writes with a pooled
// buffer. Short writes are reported as io.ErrShortWrite.
func copyReadWrite(params CopyFileParams) (CopyResult, error) {
	bufp, ok := bufPool.Get().(*[]byte)
	if !ok {
		b := make([]byte, bufferSize)
		bufp = &b
	}
	defer bufPool.Put(bufp)
	buf := *bufp

	var offset int64
	remaining := params.SrcSize

	var totalWritten int64
	for remaining > 0 {
		toRead := min(remaining, int64(bufferSize))

		n, err := params.SrcFd.ReadAt(buf[:toRead], offset)
		if n > 0 {
			w, werr := params.DstFd.WriteAt(buf[:n], offset)
			totalWritten += int64(w)
			if werr != nil {
				return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, werr
			}
			if w != n {
				return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, io.ErrShortWrite
			}
			offset += int64(n)
			remaining -= int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, err
		}
	}

	return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, nil
}

// isFallbackErr returns true if err should trigger a fallback to the next copy strategy.
func isFallbackErr(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return isUnsupportedErr(err)
}
