//go:build !linux && !darwin

// Stub Direct I/O for platforms without O_DIRECT/F_NOCACHE (e.g.
// Windows). Files open normally and UseDirectWrites/UseDirectReads are
// silently downgraded to buffered I/O.
//
// Reference: adapted from internal/vfs/direct_io_other.go in the
// teacher repo.
package faultfs

import "os"

const directIOSupported = false

func openDirectRead(name string) (*os.File, error) {
	return os.Open(name)
}

func openDirectWrite(name string, create bool) (*os.File, error) {
	if create {
		return os.Create(name)
	}
	return os.OpenFile(name, os.O_WRONLY, 0644)
}

func getBlockSize(_ string) (int, error) {
	return DefaultBlockSize, nil
}

func uniqueFileID(f *os.File) (uint64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	// No stable device+inode available; fall back to a size+modtime
	// derived value. Not collision-free, but GetUniqueId is advertised
	// as best-effort outside POSIX platforms.
	return uint64(info.Size())<<1 ^ uint64(info.ModTime().UnixNano()), nil
}
