package faultfs

import (
	"bytes"
	"errors"
	"sync"
)

// fakeBaseFS is an in-memory BaseFS double used to unit-test the
// wrappers without touching the real filesystem. It is deliberately
// minimal: enough to exercise append/flush/sync/close bookkeeping and
// directory fsync plumbing.
type fakeBaseFS struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
}

func newFakeBaseFS() *fakeBaseFS {
	return &fakeBaseFS{files: make(map[string]*bytes.Buffer)}
}

func (f *fakeBaseFS) NewWritable(name string, _ FileOptions) (BaseWritableFile, error) {
	f.mu.Lock()
	f.files[name] = &bytes.Buffer{}
	f.mu.Unlock()
	return &fakeWritableFile{fs: f, name: name}, nil
}

func (f *fakeBaseFS) NewSequential(name string, _ FileOptions) (BaseSequentialFile, error) {
	f.mu.Lock()
	buf, ok := f.files[name]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("fakeBaseFS: no such file")
	}
	return &fakeSequentialFile{data: buf.Bytes()}, nil
}

func (f *fakeBaseFS) NewRandomAccess(name string, _ FileOptions) (BaseRandomAccessFile, error) {
	f.mu.Lock()
	buf, ok := f.files[name]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("fakeBaseFS: no such file")
	}
	return &fakeRandomAccessFile{data: buf.Bytes()}, nil
}

func (f *fakeBaseFS) NewRandomRW(name string) (BaseRandomRWFile, error) {
	f.mu.Lock()
	if _, ok := f.files[name]; !ok {
		f.files[name] = &bytes.Buffer{}
	}
	f.mu.Unlock()
	return &fakeRandomRWFile{fs: f, name: name}, nil
}

func (f *fakeBaseFS) NewDirectory(name string) (BaseDirectory, error) {
	return &fakeDirectory{}, nil
}

func (f *fakeBaseFS) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[name]; !ok {
		return errors.New("fakeBaseFS: no such file")
	}
	delete(f.files, name)
	return nil
}

func (f *fakeBaseFS) Rename(oldname, newname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.files[oldname]
	if !ok {
		return errors.New("fakeBaseFS: no such file")
	}
	f.files[newname] = buf
	delete(f.files, oldname)
	return nil
}

func (f *fakeBaseFS) Link(oldname, newname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.files[oldname]
	if !ok {
		return errors.New("fakeBaseFS: no such file")
	}
	dup := &bytes.Buffer{}
	dup.Write(buf.Bytes())
	f.files[newname] = dup
	return nil
}

func (f *fakeBaseFS) FileExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[name]
	return ok
}

func (f *fakeBaseFS) GetFileSize(name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.files[name]
	if !ok {
		return 0, errors.New("fakeBaseFS: no such file")
	}
	return int64(buf.Len()), nil
}

func (f *fakeBaseFS) ListDir(dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := dir
	if prefix != "/" {
		prefix += "/"
	}
	var names []string
	for name := range f.files {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix && name[len(prefix):] != "" {
			rest := name[len(prefix):]
			isChild := true
			for _, c := range rest {
				if c == '/' {
					isChild = false
					break
				}
			}
			if isChild {
				names = append(names, rest)
			}
		}
	}
	return names, nil
}

func (f *fakeBaseFS) Poll(_ []IOHandle, _ int) error { return nil }

func (f *fakeBaseFS) AbortIO(_ []IOHandle) error { return nil }

func (f *fakeBaseFS) contents(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.files[name]
	if !ok {
		return ""
	}
	return buf.String()
}

type fakeWritableFile struct {
	fs        *fakeBaseFS
	name      string
	closed    bool
	syncCalls int
}

func (w *fakeWritableFile) Append(data []byte) error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.files[w.name].Write(data)
	return nil
}

func (w *fakeWritableFile) PositionedAppend(data []byte, offset int64) error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	buf := w.fs.files[w.name]
	existing := buf.Bytes()
	end := int(offset) + len(data)
	if end > len(existing) {
		grown := make([]byte, end)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[offset:], data)
	buf.Reset()
	buf.Write(existing)
	return nil
}

func (w *fakeWritableFile) Flush() error { return nil }

func (w *fakeWritableFile) Sync() error {
	w.syncCalls++
	return nil
}

func (w *fakeWritableFile) RangeSync(_, _ int64) error { return nil }

func (w *fakeWritableFile) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWritableFile) Size() (int64, error) {
	return int64(w.fs.files[w.name].Len()), nil
}

type fakeSequentialFile struct {
	data []byte
	pos  int
}

func (s *fakeSequentialFile) Read(p []byte) (int, error) {
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *fakeSequentialFile) PositionedRead(p []byte, offset int64) (int, error) {
	if int(offset) >= len(s.data) {
		return 0, nil
	}
	return copy(p, s.data[offset:]), nil
}

func (s *fakeSequentialFile) Close() error { return nil }

type fakeRandomAccessFile struct {
	data []byte
}

func (r *fakeRandomAccessFile) ReadAt(p []byte, offset int64) (int, error) {
	if int(offset) >= len(r.data) {
		return 0, nil
	}
	return copy(p, r.data[offset:]), nil
}

func (r *fakeRandomAccessFile) Close() error { return nil }

func (r *fakeRandomAccessFile) Size() int64 { return int64(len(r.data)) }

func (r *fakeRandomAccessFile) GetUniqueID() (uint64, error) { return 42, nil }

type fakeRandomRWFile struct {
	fs   *fakeBaseFS
	name string
}

func (rw *fakeRandomRWFile) ReadAt(p []byte, offset int64) (int, error) {
	rw.fs.mu.Lock()
	defer rw.fs.mu.Unlock()
	data := rw.fs.files[rw.name].Bytes()
	if int(offset) >= len(data) {
		return 0, nil
	}
	return copy(p, data[offset:]), nil
}

func (rw *fakeRandomRWFile) WriteAt(p []byte, offset int64) (int, error) {
	rw.fs.mu.Lock()
	defer rw.fs.mu.Unlock()
	buf := rw.fs.files[rw.name]
	existing := buf.Bytes()
	end := int(offset) + len(p)
	if end > len(existing) {
		grown := make([]byte, end)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[offset:], p)
	buf.Reset()
	buf.Write(existing)
	return len(p), nil
}

func (rw *fakeRandomRWFile) Sync() error { return nil }

func (rw *fakeRandomRWFile) Flush() error { return nil }

func (rw *fakeRandomRWFile) Close() error { return nil }

type fakeDirectory struct {
	fsyncCalls int
	closed     bool
}

func (d *fakeDirectory) Fsync() error {
	d.fsyncCalls++
	return nil
}

func (d *fakeDirectory) Close() error {
	d.closed = true
	return nil
}
