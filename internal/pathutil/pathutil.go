// Package pathutil provides the small path-splitting helpers the facade
// needs for directory bookkeeping: separating a path into its parent
// directory and filename, and trimming trailing separators so a
// directory name reliably keys the facade's per-directory maps
// regardless of how the caller wrote the path.
//
// Reference: RocksDB v10.7.5 file/filename.cc (GetDirAndFileName-style
// splitting used throughout DestroyDB/SyncDir bookkeeping).
package pathutil

import "path/filepath"

// Split separates an absolute path into its parent directory and
// filename, trimming any trailing separators from path first so that
// "/db/" splits the same as "/db".
func Split(path string) (dir, filename string) {
	trimmed := TrimTrailingSeparators(path)
	dir = filepath.Dir(trimmed)
	filename = filepath.Base(trimmed)
	return dir, filename
}

// TrimTrailingSeparators removes trailing path separators from path,
// leaving a bare root ("/") unchanged.
func TrimTrailingSeparators(path string) string {
	for len(path) > 1 && path[len(path)-1] == filepath.Separator {
		path = path[:len(path)-1]
	}
	return path
}
