package faultfs

import "math/rand"

// unsyncedPosNone marks that no portion of a file's buffer has been
// synced yet (posAtLastSync starts at -1, mirroring posAtLastFlush).
const unsyncedPosNone = -1

// fileState tracks one file's durability bookkeeping: how much of its
// data is known to have reached the OS (posAtLastFlush) versus known to
// have reached stable storage (posAtLastSync), plus the buffered bytes
// that exist only in the FileSystem's memory because the real flush was
// elided.
//
// Reference: grounded on spec.md's Data Model (ref FileState) and on
// the teacher's WAL record/position bookkeeping style in
// internal/wal (buffer-plus-offset tracking), generalized from
// log-sequential writes to arbitrary positioned writes.
type fileState struct {
	filename string

	// buffer holds bytes appended or positioned-written since the file
	// was opened, at the offsets they were written to. It is the
	// complete, not-yet-necessarily-durable view of the file's tail.
	buffer []byte

	// posAtLastFlush is the buffer length that had been handed to the
	// host filesystem's write/pwrite as of the last Flush call. Equal to
	// len(buffer) once Flush is up to date.
	posAtLastFlush int64

	// posAtLastSync is the buffer length that had been handed to the
	// host filesystem's write/pwrite AND fsynced as of the last Sync
	// call. -1 (unsyncedPosNone) until the first Sync.
	posAtLastSync int64
}

func newFileState(filename string) *fileState {
	return &fileState{
		filename:       filename,
		posAtLastFlush: 0,
		posAtLastSync:  unsyncedPosNone,
	}
}

// write records data appended to the buffer at offset. Offsets beyond
// the current buffer length are zero-padded, mirroring a sparse
// positioned write.
func (fs *fileState) write(offset int64, data []byte) {
	end := offset + int64(len(data))
	if end > int64(len(fs.buffer)) {
		grown := make([]byte, end)
		copy(grown, fs.buffer)
		fs.buffer = grown
	}
	copy(fs.buffer[offset:end], data)
}

// append is a write at the current tail of the buffer.
func (fs *fileState) append(data []byte) {
	fs.write(int64(len(fs.buffer)), data)
}

// markFlushed records that the entire current buffer has reached the
// host filesystem (but not necessarily stable storage).
func (fs *fileState) markFlushed() {
	fs.posAtLastFlush = int64(len(fs.buffer))
}

// markSynced records that the entire current buffer is now durable.
func (fs *fileState) markSynced() {
	fs.posAtLastSync = int64(len(fs.buffer))
	fs.posAtLastFlush = int64(len(fs.buffer))
}

// isFullySynced reports whether posAtLastSync equals the buffer length.
// A state that has never been synced (posAtLastSync is -1) is not fully
// synced, even with an empty buffer.
func (fs *fileState) isFullySynced() bool {
	return fs.posAtLastSync == int64(len(fs.buffer))
}

// dropUnsyncedData truncates the buffer back to the last synced
// position, simulating a crash that loses everything the OS had not
// fsynced yet. A file that was never synced loses its entire buffer.
func (fs *fileState) dropUnsyncedData() {
	pos := fs.posAtLastSync
	if pos == unsyncedPosNone {
		pos = 0
	}
	fs.truncateTo(pos)
}

// dropRandomUnsyncedData truncates the buffer to a position chosen
// uniformly between the last synced position and the current end,
// simulating a partial (torn) write recovery after a crash. rng must be
// non-nil; callers own determinism by seeding it themselves.
func (fs *fileState) dropRandomUnsyncedData(rng *rand.Rand) {
	lo := fs.posAtLastSync
	if lo == unsyncedPosNone {
		lo = 0
	}
	hi := int64(len(fs.buffer))
	if hi <= lo {
		return
	}
	pos := lo + int64(rng.Int63n(hi-lo+1))
	fs.truncateTo(pos)
}

func (fs *fileState) truncateTo(pos int64) {
	if pos >= int64(len(fs.buffer)) {
		return
	}
	if pos < 0 {
		pos = 0
	}
	fs.buffer = fs.buffer[:pos]
	if fs.posAtLastFlush > pos {
		fs.posAtLastFlush = pos
	}
	if fs.posAtLastSync > pos {
		fs.posAtLastSync = pos
	}
}

// size returns the buffer's current logical length.
func (fs *fileState) size() int64 {
	return int64(len(fs.buffer))
}
