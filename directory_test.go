package faultfs

import "testing"

func TestDirectoryFsyncPrunesLedger(t *testing.T) {
	base := newFakeBaseFS()
	fs := New(WithBaseFS(base))

	wf, err := fs.NewWritableFile("/db/x.sst", FileOptions{})
	if err != nil {
		t.Fatalf("NewWritableFile: %v", err)
	}
	if err := wf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fs.mu.Lock()
	_, tracked := fs.dirNewFiles["/db"]["x.sst"]
	fs.mu.Unlock()
	if !tracked {
		t.Fatal("expected x.sst to be recorded under /db before dir sync")
	}

	dir, err := fs.NewDirectory("/db")
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	if err := dir.Fsync(); err != nil {
		t.Fatalf("Fsync: %v", err)
	}

	fs.mu.Lock()
	_, stillTracked := fs.dirNewFiles["/db"]
	fs.mu.Unlock()
	if stillTracked {
		t.Fatal("expected /db's ledger entry to be pruned after Fsync")
	}
}

func TestDirectoryFsyncMetadataInjection(t *testing.T) {
	base := newFakeBaseFS()
	fs := New(WithBaseFS(base))
	fs.EnableMetadataError(1, 7)

	dir, err := fs.NewDirectory("/db")
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	if err := dir.Fsync(); err == nil {
		t.Fatal("expected metadata error with one_in=1")
	}
}

func TestDirectoryStickyErrorGatesFsync(t *testing.T) {
	base := newFakeBaseFS()
	fs := New(WithBaseFS(base))
	dir, err := fs.NewDirectory("/db")
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}

	fs.SetActive(false, nil)
	if err := dir.Fsync(); err == nil {
		t.Fatal("expected sticky error while inactive")
	}
}
