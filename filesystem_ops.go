package faultfs

import (
	"github.com/aalhour/faultfs/internal/logging"
	"github.com/aalhour/faultfs/internal/pathutil"
)

// NewWritableFile opens fname for writing, truncating any existing
// contents. Per spec.md §4.7: gated, metadata-error-injected, bypassed
// to a raw handle for direct writes, otherwise wrapped, untracked (a
// fresh open discards any stale FileState), inserted into
// openManagedFiles, and recorded as a new file under its directory's
// ledger.
func (fs *FileSystem) NewWritableFile(fname string, opts FileOptions) (WritableFileHandle, error) {
	if err := fs.inj.gate(); err != nil {
		return nil, err
	}
	if fs.inj.shouldInjectMetadata() {
		return nil, errInjectedMetadata("new_writable_file", fname)
	}

	if isDirectWritable(opts) {
		base, err := fs.base.NewWritable(fname, opts)
		if err != nil {
			return nil, err
		}
		return newDirectWritableFile(base, fname), nil
	}

	base, err := fs.base.NewWritable(fname, opts)
	if err != nil {
		return nil, err
	}
	wf := newWritableFile(fs, base, fname, false)

	fs.mu.Lock()
	delete(fs.dbFileState, fname)
	fs.openManagedFiles[fname] = true
	dir, name := pathutil.Split(fname)
	fs.recordNewFileLocked(dir, name, preservedNew)
	fs.mu.Unlock()

	if fs.inj.shouldInjectMetadata() {
		return wf, errInjectedMetadata("new_writable_file", fname)
	}
	return wf, nil
}

// ReopenWritableFile reopens fname for appending without truncating,
// per spec.md §4.7. Tracking is decided by prior state: a file already
// in dbFileState is reopened and tracked; a file with no prior state
// that also didn't exist before this call is a brand-new file and is
// tracked and recorded as new; a file with no prior state that DID
// already exist is untracked data from outside the facade and is
// returned unwrapped.
func (fs *FileSystem) ReopenWritableFile(fname string, opts FileOptions) (WritableFileHandle, error) {
	if err := fs.inj.gate(); err != nil {
		return nil, err
	}

	if isDirectWritable(opts) {
		base, err := fs.base.NewWritable(fname, opts)
		if err != nil {
			return nil, err
		}
		return newDirectWritableFile(base, fname), nil
	}

	if fs.inj.shouldInjectMetadata() {
		return nil, errInjectedMetadata("reopen_writable_file", fname)
	}
	existedBefore := fs.base.FileExists(fname)

	base, err := fs.base.NewWritable(fname, opts)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	_, wasTracked := fs.dbFileState[fname]
	track := wasTracked || !existedBefore
	if track {
		fs.openManagedFiles[fname] = true
		if !wasTracked {
			dir, name := pathutil.Split(fname)
			fs.recordNewFileLocked(dir, name, preservedNew)
		}
	}
	fs.mu.Unlock()

	if !track {
		return &rawWritableFile{base: base}, nil
	}
	wf := newWritableFile(fs, base, fname, false)
	return wf, nil
}

// NewRandomRWFile opens fname for random-access read/write, per
// spec.md §4.7: active gate; direct bypass to a raw, untracked handle
// when opts requests direct writes; otherwise metadata-error injection,
// delegate, and track.
func (fs *FileSystem) NewRandomRWFile(fname string, opts FileOptions) (RandomRWFileHandle, error) {
	if err := fs.inj.gate(); err != nil {
		return nil, err
	}

	if isDirectWritable(opts) {
		base, err := fs.base.NewRandomRW(fname)
		if err != nil {
			return nil, err
		}
		return newDirectRandomRWFile(base, fname), nil
	}

	if fs.inj.shouldInjectMetadata() {
		return nil, errInjectedMetadata("new_random_rw_file", fname)
	}
	base, err := fs.base.NewRandomRW(fname)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	delete(fs.dbFileState, fname)
	fs.openManagedFiles[fname] = true
	dir, name := pathutil.Split(fname)
	fs.recordNewFileLocked(dir, name, preservedNew)
	fs.mu.Unlock()

	return newRandomRWFile(fs, base, fname), nil
}

// NewRandomAccessFile opens fname for random-access reads, per
// spec.md §4.7: active gate, read-error injection with op Open, then
// delegate.
func (fs *FileSystem) NewRandomAccessFile(fname string, opts FileOptions) (*RandomAccessFile, error) {
	if err := fs.inj.gate(); err != nil {
		return nil, err
	}
	if ctx := fs.ctxs.Get(); ctx != nil {
		if outcome := ctx.consult(opOpen, true, opts.UseDirectReads, false); outcome.injected && outcome.err != nil {
			fs.inj.recordReadError()
			return nil, outcome.err
		}
	}
	if fs.inj.randomReadErrorArmed() {
		fs.inj.recordReadError()
		return nil, errInjectedRead()
	}
	base, err := fs.base.NewRandomAccess(fname, opts)
	if err != nil {
		return nil, err
	}
	return newRandomAccessFile(fs, base, opts.UseDirectReads), nil
}

// NewSequentialFile opens fname for sequential reads, per spec.md §4.7.
func (fs *FileSystem) NewSequentialFile(fname string, opts FileOptions) (*SequentialFile, error) {
	if err := fs.inj.gate(); err != nil {
		return nil, err
	}
	if ctx := fs.ctxs.Get(); ctx != nil {
		if outcome := ctx.consult(opOpen, true, opts.UseDirectReads, false); outcome.injected && outcome.err != nil {
			fs.inj.recordReadError()
			return nil, outcome.err
		}
	}
	if fs.inj.randomReadErrorArmed() {
		fs.inj.recordReadError()
		return nil, errInjectedRead()
	}
	base, err := fs.base.NewSequential(fname, opts)
	if err != nil {
		return nil, err
	}
	return newSequentialFile(fs, base), nil
}

// NewDirectory opens name as a directory handle, wrapped so its Fsync
// can be intercepted per spec.md §4.4/§4.7.
func (fs *FileSystem) NewDirectory(name string) (*Directory, error) {
	if err := fs.inj.gate(); err != nil {
		return nil, err
	}
	base, err := fs.base.NewDirectory(name)
	if err != nil {
		return nil, err
	}
	return newDirectory(fs, base, pathutil.TrimTrailingSeparators(name)), nil
}

// DeleteFile removes f, per spec.md §4.7: gated, metadata-error
// injected before and after, untracks f on success.
func (fs *FileSystem) DeleteFile(f string) error {
	if err := fs.inj.gate(); err != nil {
		return err
	}
	if fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("delete_file", f)
	}
	if err := fs.base.Delete(f); err != nil {
		return err
	}
	fs.untrackFile(f)
	if fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("delete_file", f)
	}
	return nil
}

// RenameFile renames s to t, per spec.md §4.7: snapshots t's prior
// contents (if <1KiB), delegates, then moves s's FileState entry to t
// and migrates any dirNewFiles ledger entry from s's directory to t's.
func (fs *FileSystem) RenameFile(s, t string) error {
	if err := fs.inj.gate(); err != nil {
		return err
	}
	if fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("rename_file", s+"->"+t)
	}

	previous := fs.snapshotBeforeOverwrite(t)

	if err := fs.base.Rename(s, t); err != nil {
		return err
	}

	fs.mu.Lock()
	if st, ok := fs.dbFileState[s]; ok {
		fs.dbFileState[t] = st
		delete(fs.dbFileState, s)
	}
	srcDir, srcName := pathutil.Split(s)
	dstDir, dstName := pathutil.Split(t)
	if files, ok := fs.dirNewFiles[srcDir]; ok {
		if _, had := files[srcName]; had {
			delete(files, srcName)
			fs.recordNewFileLocked(dstDir, dstName, previous)
		}
	}
	fs.mu.Unlock()

	if fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("rename_file", s+"->"+t)
	}
	return nil
}

// LinkFile hard-links s to t, per spec.md §4.7: same pre/post metadata
// injection as RenameFile, but the source's FileState and ledger entry
// are copied, not moved.
func (fs *FileSystem) LinkFile(s, t string) error {
	if err := fs.inj.gate(); err != nil {
		return err
	}
	if fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("link_file", s+"->"+t)
	}

	if err := fs.base.Link(s, t); err != nil {
		return err
	}

	fs.mu.Lock()
	if st, ok := fs.dbFileState[s]; ok {
		fs.dbFileState[t] = st
	}
	srcDir, srcName := pathutil.Split(s)
	dstDir, dstName := pathutil.Split(t)
	if files, ok := fs.dirNewFiles[srcDir]; ok {
		if _, had := files[srcName]; had {
			fs.recordNewFileLocked(dstDir, dstName, preservedNew)
		}
	}
	fs.mu.Unlock()

	if fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("link_file", s+"->"+t)
	}
	return nil
}

// Poll is a pure pass-through to the underlying filesystem's async
// completion plumbing; the fault-injection layer never intercepts it
// (spec.md §5/§6).
func (fs *FileSystem) Poll(handles []IOHandle, minCompletions int) error {
	return fs.base.Poll(handles, minCompletions)
}

// AbortIO is a pure pass-through, see Poll.
func (fs *FileSystem) AbortIO(handles []IOHandle) error {
	return fs.base.AbortIO(handles)
}

// PrintFaultBacktrace emits the last read-error injection observed by
// the calling goroutine's error context: its type, message, and
// captured call stack, to the facade's logger. Per spec.md §6/§7, on
// platforms without backtrace support this would be a no-op; Go always
// has runtime.Stack, so this always has something to print once an
// injection has fired.
func (fs *FileSystem) PrintFaultBacktrace() {
	ctx := fs.ctxs.Get()
	if ctx == nil {
		fs.log.Infof(logging.NSFault + "no error context for this goroutine")
		return
	}
	msg := ctx.LastMessage()
	if msg == "" {
		fs.log.Infof(logging.NSFault + "no injection recorded yet")
		return
	}
	fs.log.Infof(logging.NSFault+"last injection: %s\n%s", msg, ctx.LastCallstack())
}

// snapshotBeforeOverwrite captures path's current bytes if it exists
// and is under preserveSizeThreshold bytes, returning the sentinel
// otherwise (spec.md §6).
func (fs *FileSystem) snapshotBeforeOverwrite(path string) preservedContents {
	size, err := fs.base.GetFileSize(path)
	if err != nil || size >= preserveSizeThreshold {
		return preservedNew
	}
	rf, err := fs.base.NewSequential(path, FileOptions{})
	if err != nil {
		return preservedNew
	}
	defer rf.Close()
	buf := make([]byte, size)
	if _, err := readFull(rf, buf); err != nil {
		return preservedNew
	}
	return preservedContents{data: buf}
}

func readFull(r BaseSequentialFile, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// recordNewFileLocked inserts (dir, name) -> preserved into
// dirNewFiles, replacing any prior entry for that name. Caller must
// hold fs.mu.
func (fs *FileSystem) recordNewFileLocked(dir, name string, preserved preservedContents) {
	files, ok := fs.dirNewFiles[dir]
	if !ok {
		files = make(map[string]preservedContents)
		fs.dirNewFiles[dir] = files
	}
	files[name] = preserved
}

// untrackFile forgets any tracked state for f, as if it had never been
// observed: used by DeleteFile.
func (fs *FileSystem) untrackFile(f string) {
	fs.mu.Lock()
	delete(fs.dbFileState, f)
	delete(fs.openManagedFiles, f)
	fs.mu.Unlock()
}

// writableFileAppended is the facade notification a WritableFile sends
// after Append/PositionedAppend. If the file is still open-managed, its
// FileState is upserted into dbFileState.
func (fs *FileSystem) writableFileAppended(st *fileState) {
	fs.mu.Lock()
	if fs.openManagedFiles[st.filename] {
		fs.dbFileState[st.filename] = st
	}
	fs.mu.Unlock()
}

// writableFileSynced is the facade notification a WritableFile sends
// after Sync/RangeSync.
func (fs *FileSystem) writableFileSynced(st *fileState) {
	fs.mu.Lock()
	if fs.openManagedFiles[st.filename] {
		fs.dbFileState[st.filename] = st
	}
	fs.mu.Unlock()
}

// writableFileClosed is the facade notification a WritableFile sends
// after a successful Close: the file's final FileState is recorded and
// it is removed from openManagedFiles.
func (fs *FileSystem) writableFileClosed(st *fileState) {
	fs.mu.Lock()
	if fs.openManagedFiles[st.filename] {
		fs.dbFileState[st.filename] = st
		delete(fs.openManagedFiles, st.filename)
	}
	fs.mu.Unlock()
}

// syncDir is the facade notification a Directory sends after a
// successful Fsync: it prunes this directory's entire entry from
// dirNewFiles, per spec.md §4.7.
func (fs *FileSystem) syncDir(dir string) {
	fs.mu.Lock()
	delete(fs.dirNewFiles, dir)
	fs.mu.Unlock()
}
