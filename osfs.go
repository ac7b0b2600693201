package faultfs

import (
	"io"
	"os"
)

// osBaseFS implements BaseFS against the real host filesystem.
//
// Reference: adapted from internal/vfs/vfs.go's osFS in the teacher
// repo, extended with Direct I/O, directories, random-read-write files,
// and the capability-set surface BaseFS names.
type osBaseFS struct{}

// NewOSBaseFS returns the default host-filesystem BaseFS.
func NewOSBaseFS() BaseFS { return &osBaseFS{} }

func (osBaseFS) NewWritable(name string, opts FileOptions) (BaseWritableFile, error) {
	if opts.UseDirectWrites && directIOSupported {
		f, err := openDirectWrite(name, true)
		if err != nil {
			return nil, err
		}
		return &osWritableFile{f: f}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &osWritableFile{f: f}, nil
}

func (osBaseFS) NewSequential(name string, opts FileOptions) (BaseSequentialFile, error) {
	if opts.UseDirectReads && directIOSupported {
		f, err := openDirectRead(name)
		if err != nil {
			return nil, err
		}
		return &osSequentialFile{f: f}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &osSequentialFile{f: f}, nil
}

func (osBaseFS) NewRandomAccess(name string, opts FileOptions) (BaseRandomAccessFile, error) {
	var f *os.File
	var err error
	if opts.UseDirectReads && directIOSupported {
		f, err = openDirectRead(name)
	} else {
		f, err = os.Open(name)
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &osRandomAccessFile{f: f, size: info.Size()}, nil
}

func (osBaseFS) NewRandomRW(name string) (BaseRandomRWFile, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, osFileMode)
	if err != nil {
		return nil, err
	}
	return &osRandomRWFile{f: f}, nil
}

func (osBaseFS) NewDirectory(name string) (BaseDirectory, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &osDirectory{f: f}, nil
}

func (osBaseFS) Delete(name string) error { return os.Remove(name) }

func (osBaseFS) Rename(oldname, newname string) error { return os.Rename(oldname, newname) }

func (osBaseFS) Link(oldname, newname string) error { return os.Link(oldname, newname) }

func (osBaseFS) FileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (osBaseFS) GetFileSize(name string) (int64, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ListDir lists the names of name's immediate children. Not
// fault-injected: spec.md §4.7 doesn't name it as an injection point,
// and it carries no durability state of its own — a storage engine
// re-listing a directory after DeleteFilesCreatedAfterLastDirSync just
// needs the host filesystem's current truth.
func (osBaseFS) ListDir(name string) ([]string, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// Poll and AbortIO are pure pass-through: the host filesystem here is
// fully synchronous, so there is nothing to poll or abort. A real async
// host filesystem would forward to its own completion queue.
func (osBaseFS) Poll(_ []IOHandle, _ int) error { return nil }

func (osBaseFS) AbortIO(_ []IOHandle) error { return nil }

// osWritableFile wraps os.File for BaseWritableFile.
type osWritableFile struct {
	f *os.File
}

func (wf *osWritableFile) Append(data []byte) error {
	_, err := wf.f.Write(data)
	return err
}

func (wf *osWritableFile) PositionedAppend(data []byte, offset int64) error {
	_, err := wf.f.WriteAt(data, offset)
	return err
}

func (wf *osWritableFile) Flush() error { return nil }

func (wf *osWritableFile) Sync() error { return wf.f.Sync() }

func (wf *osWritableFile) RangeSync(_, _ int64) error { return wf.f.Sync() }

func (wf *osWritableFile) Close() error { return wf.f.Close() }

func (wf *osWritableFile) Size() (int64, error) {
	info, err := wf.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// osSequentialFile wraps os.File for BaseSequentialFile.
type osSequentialFile struct {
	f   *os.File
	pos int64
}

func (sf *osSequentialFile) Read(p []byte) (int, error) {
	n, err := sf.f.Read(p)
	sf.pos += int64(n)
	return n, err
}

func (sf *osSequentialFile) PositionedRead(p []byte, offset int64) (int, error) {
	return sf.f.ReadAt(p, offset)
}

func (sf *osSequentialFile) Close() error { return sf.f.Close() }

// osRandomAccessFile wraps os.File for BaseRandomAccessFile.
type osRandomAccessFile struct {
	f    *os.File
	size int64
}

func (rf *osRandomAccessFile) ReadAt(p []byte, offset int64) (int, error) {
	return rf.f.ReadAt(p, offset)
}

func (rf *osRandomAccessFile) Close() error { return rf.f.Close() }

func (rf *osRandomAccessFile) Size() int64 { return rf.size }

func (rf *osRandomAccessFile) GetUniqueID() (uint64, error) {
	return uniqueFileID(rf.f)
}

// osRandomRWFile wraps os.File for BaseRandomRWFile.
type osRandomRWFile struct {
	f *os.File
}

func (rw *osRandomRWFile) ReadAt(p []byte, offset int64) (int, error) {
	return rw.f.ReadAt(p, offset)
}

func (rw *osRandomRWFile) WriteAt(p []byte, offset int64) (int, error) {
	return rw.f.WriteAt(p, offset)
}

func (rw *osRandomRWFile) Sync() error { return rw.f.Sync() }

func (rw *osRandomRWFile) Flush() error { return nil }

func (rw *osRandomRWFile) Close() error { return rw.f.Close() }

// osDirectory wraps an open directory file descriptor for Fsync.
type osDirectory struct {
	f *os.File
}

func (d *osDirectory) Fsync() error { return d.f.Sync() }

func (d *osDirectory) Close() error { return d.f.Close() }

var _ io.Closer = (*osDirectory)(nil)
