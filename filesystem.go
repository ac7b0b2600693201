package faultfs

import (
	"math/rand"
	"sync"

	"github.com/aalhour/faultfs/internal/logging"
	"github.com/aalhour/faultfs/internal/pathutil"
)

// preservedNew is the "new, no prior contents" sentinel for
// preservedContents; a file recorded with this sentinel had nothing at
// its path before the facade created it.
var preservedNew = preservedContents{isNew: true}

// preservedContents is a snapshot of what existed at a path before
// RenameFile overwrote it, captured only when the prior file was under
// preserveSizeThreshold bytes. Create and link always record the
// preservedNew sentinel. See spec.md §6.
type preservedContents struct {
	isNew bool
	data  []byte
}

// preserveSizeThreshold is the byte limit under which an overwritten
// rename target's prior contents are preserved instead of
// discarded to the sentinel (spec.md §6).
const preserveSizeThreshold = 1024

// FileSystem is the fault-injection facade: the single object the
// storage engine obtains file and directory handles through. It wraps
// a BaseFS, intercepts every file/directory lifecycle operation, and
// owns the durability bookkeeping and error-injection programming
// described in spec.md §3.
//
// Reference: grounded on the teacher's vfs.FaultInjectionFS /
// vfs.GoroutineLocalFaultInjectionFS, collapsed per spec.md §9's
// "replace deep inheritance... with a single facade type" redesign
// note: one struct, one capability-set interface (BaseFS), one
// goroutine-local registry, instead of the teacher's
// FileSystem→InjectionFileSystem→FaultInjectionTestFS chain.
type FileSystem struct {
	base BaseFS
	log  logging.Logger
	inj  *injector
	ctxs *errorContextRegistry

	mu               sync.Mutex
	dbFileState      map[string]*fileState
	dirNewFiles      map[string]map[string]preservedContents
	openManagedFiles map[string]bool
}

// New constructs a FileSystem facade over the BaseFS named by
// WithBaseFS (the host filesystem by default).
func New(opts ...Option) *FileSystem {
	o := newOptions(opts...)
	return &FileSystem{
		base:             o.baseFS,
		log:              o.logger,
		inj:              newInjector(),
		ctxs:             newErrorContextRegistry(),
		dbFileState:      make(map[string]*fileState),
		dirNewFiles:      make(map[string]map[string]preservedContents),
		openManagedFiles: make(map[string]bool),
	}
}

// SetActive arms or disarms the facade. See injector.SetActive.
func (fs *FileSystem) SetActive(active bool, stickyErr error) {
	fs.inj.SetActive(active, stickyErr)
	fs.log.Warnf(logging.NSFault+"active=%t", active)
}

// EnableWriteError arms write-error injection. See injector.EnableWriteError.
func (fs *FileSystem) EnableWriteError(oneIn int, seed int64, allowed []FileType, allTypes bool) {
	fs.inj.EnableWriteError(oneIn, seed, allowed, allTypes)
}

// DisableWriteError disarms write-error injection.
func (fs *FileSystem) DisableWriteError() { fs.inj.DisableWriteError() }

// EnableMetadataError arms metadata-error injection.
func (fs *FileSystem) EnableMetadataError(oneIn int, seed int64) {
	fs.inj.EnableMetadataError(oneIn, seed)
}

// DisableMetadataError disarms metadata-error injection.
func (fs *FileSystem) DisableMetadataError() { fs.inj.DisableMetadataError() }

// SetCorruptBeforeWrite toggles forced pre-write corruption.
func (fs *FileSystem) SetCorruptBeforeWrite(on bool) { fs.inj.SetCorruptBeforeWrite(on) }

// SetUniqueIDFail toggles GetUniqueId failure.
func (fs *FileSystem) SetUniqueIDFail(on bool) { fs.inj.SetUniqueIDFail(on) }

// SetRandomReadError toggles the unconditional read-error trial applied
// after thread-local injection on every read path.
func (fs *FileSystem) SetRandomReadError(on bool) { fs.inj.SetRandomReadError(on) }

// SetErrorContext installs ctx as the calling goroutine's read-error
// program.
func (fs *FileSystem) SetErrorContext(ctx *ErrorContext) { fs.ctxs.Set(ctx) }

// ClearErrorContext removes the calling goroutine's read-error program.
func (fs *FileSystem) ClearErrorContext() { fs.ctxs.Clear() }

// Stats returns a snapshot of how many times each kind of injection has
// fired over this FileSystem's lifetime. ResetState does not clear
// these counters: they describe the facade's run, not its current
// bookkeeping.
func (fs *FileSystem) Stats() Stats { return fs.inj.stats() }

// ListDir lists the names of dir's immediate children, passed straight
// through to the underlying BaseFS with no fault injection.
func (fs *FileSystem) ListDir(dir string) ([]string, error) { return fs.base.ListDir(dir) }

// FileExists reports whether name exists on the underlying filesystem,
// passed straight through with no fault injection.
func (fs *FileSystem) FileExists(name string) bool { return fs.base.FileExists(name) }

// GetFileSize returns name's size on the underlying filesystem, passed
// straight through with no fault injection.
func (fs *FileSystem) GetFileSize(name string) (int64, error) { return fs.base.GetFileSize(name) }

// ResetState clears both bookkeeping maps and re-activates the facade.
// Idempotent: calling it twice in a row leaves the same state.
func (fs *FileSystem) ResetState() {
	fs.mu.Lock()
	fs.dbFileState = make(map[string]*fileState)
	fs.dirNewFiles = make(map[string]map[string]preservedContents)
	fs.openManagedFiles = make(map[string]bool)
	fs.mu.Unlock()
	fs.inj.reset()
	fs.log.Infof(logging.NSDurability + "state reset")
}

// DropUnsyncedFileData discards the unsynced buffer of every tracked
// file that is not fully synced, simulating the data loss a crash would
// cause.
func (fs *FileSystem) DropUnsyncedFileData() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, st := range fs.dbFileState {
		if !st.isFullySynced() {
			st.dropUnsyncedData()
		}
	}
	fs.log.Infof(logging.NSDurability + "dropped unsynced data for all tracked files")
}

// DropRandomUnsyncedFileData truncates each tracked file's unsynced
// buffer at a random point, discarding the tail beyond it (a partial,
// torn-write crash), using a
// *rand.Rand seeded from seed for reproducibility.
func (fs *FileSystem) DropRandomUnsyncedFileData(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, st := range fs.dbFileState {
		if !st.isFullySynced() {
			st.dropRandomUnsyncedData(rng)
		}
	}
	fs.log.Infof(logging.NSDurability + "dropped random unsynced data for all tracked files")
}

// DeleteFilesCreatedAfterLastDirSync removes or restores every file the
// facade recorded as created under a directory since that directory was
// last fsynced, per spec.md §4.7. Returns the first error encountered,
// continuing best-effort through the rest.
func (fs *FileSystem) DeleteFilesCreatedAfterLastDirSync() error {
	type entry struct {
		dir, name string
		preserved preservedContents
	}
	fs.mu.Lock()
	var entries []entry
	for dir, files := range fs.dirNewFiles {
		for name, preserved := range files {
			entries = append(entries, entry{dir: dir, name: name, preserved: preserved})
		}
	}
	fs.mu.Unlock()

	var firstErr error
	for _, e := range entries {
		path := joinPath(e.dir, e.name)
		var err error
		if e.preserved.isNew {
			err = fs.base.Delete(path)
		} else {
			err = writeFileContents(fs.base, path, e.preserved.data)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	fs.log.Infof(logging.NSDurability+"deleted files created after last dir sync, entries=%d", len(entries))
	return firstErr
}

// writeFileContents overwrites path with data in one pass, used to
// restore preserved rename/link targets. It deliberately bypasses the
// facade's own wrapper so restoration is never itself subject to fault
// injection.
func writeFileContents(base BaseFS, path string, data []byte) error {
	f, err := base.NewWritable(path, FileOptions{})
	if err != nil {
		return err
	}
	if err := f.Append(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func joinPath(dir, name string) string {
	trimmed := pathutil.TrimTrailingSeparators(dir)
	if trimmed == "/" {
		return trimmed + name
	}
	return trimmed + "/" + name
}
