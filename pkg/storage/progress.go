package storage

import (
	"io"
	"sync"
)

// ProgressFunc is called with the number of bytes transferred so far and the total size. Calls are
// serialized and transferred only ever increases.
type ProgressFunc func(transferred int64, size int64)

type ReadAtSeeker interface {
	io.ReaderAt
	io.ReadSeeker
}

// progressTracker sums bytes reported from any number of goroutines. Both the S3 upload manager and
// minio-go read parts concurrently.
type progressTracker struct {
	mu       sync.Mutex
	size     int64
	read     int64
	progress ProgressFunc
}

func newProgressTracker(size int64, progress ProgressFunc) *progressTracker {
	if progress == nil {
		progress = func(int64, int64) {}
	}
	return &progressTracker{size: size, progress: progress}
}

// add never reports more than size as a part may be read twice when checksums are computed.
func (t *progressTracker) add(n int64) {
	if n <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	read := min(t.read+n, t.size)
	if read <= t.read {
		return
	}
	t.read = read
	t.progress(read, t.size)
}

func newProgressReader(fp ReadAtSeeker, size int64, progress ProgressFunc) *progressReader {
	return &progressReader{fp: fp, tracker: newProgressTracker(size, progress)}
}

// progressReader reports the bytes read through ReadAt which is what the S3 upload manager uses to
// read parts.
type progressReader struct {
	fp      ReadAtSeeker
	tracker *progressTracker
}

func (r *progressReader) Read(p []byte) (int, error) {
	return r.fp.Read(p)
}

func (r *progressReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.fp.ReadAt(p, off)
	r.tracker.add(int64(n))
	return n, err
}

func (r *progressReader) Seek(offset int64, whence int) (int64, error) {
	return r.fp.Seek(offset, whence)
}

// progressCounter is handed to minio-go which reads from it whatever it has uploaded.
type progressCounter struct {
	tracker *progressTracker
}

func newProgressCounter(size int64, progress ProgressFunc) *progressCounter {
	return &progressCounter{tracker: newProgressTracker(size, progress)}
}

func (c *progressCounter) Read(p []byte) (int, error) {
	c.tracker.add(int64(len(p)))
	return len(p), nil
}
