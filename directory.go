package faultfs

// Directory is the instrumented directory handle the facade hands out
// from NewDirectory. Its only interesting behavior is Fsync: it gates
// and metadata-error-injects around the underlying fsync, and notifies
// the facade so the "new files since last sync" ledger for this
// directory can be pruned (spec.md §4.4).
type Directory struct {
	fs   *FileSystem
	base BaseDirectory
	name string
}

func newDirectory(fs *FileSystem, base BaseDirectory, name string) *Directory {
	return &Directory{fs: fs, base: base, name: name}
}

// Fsync delegates to the underlying directory's fsync, bracketed by
// metadata-error injection. This directory's entry in the facade's
// dirNewFiles ledger is cleared just before the underlying fsync runs,
// so it is cleared even when that fsync then fails.
func (d *Directory) Fsync() error {
	return d.syncDir()
}

// FsyncWithDirOptions is an alias of Fsync: the facade's directory
// handle has no distinct behavior for platforms that expose a
// richer directory-fsync options struct (spec.md §4.4).
func (d *Directory) FsyncWithDirOptions() error {
	return d.syncDir()
}

func (d *Directory) syncDir() error {
	if err := d.fs.inj.gate(); err != nil {
		return err
	}
	if d.fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("dir_fsync", d.name)
	}
	d.fs.syncDir(d.name)
	err := d.base.Fsync()
	if err != nil {
		return err
	}
	if d.fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("dir_fsync", d.name)
	}
	return nil
}

// Close gates then delegates to the underlying directory handle.
func (d *Directory) Close() error {
	if err := d.fs.inj.gate(); err != nil {
		return err
	}
	return d.base.Close()
}
