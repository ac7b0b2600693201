package faultfs

import "github.com/aalhour/faultfs/internal/filetype"

// FileType classifies a managed file for the write-error allow-list
// (spec.md §6). It is a thin public re-export of internal/filetype.Type
// so callers configuring EnableWriteError don't need to import an
// internal package.
type FileType = filetype.Type

// File-type tags usable with EnableWriteError's allowed-type list.
const (
	FileTypeUnknown     = filetype.Unknown
	FileTypeWAL         = filetype.WAL
	FileTypeTable       = filetype.Table
	FileTypeManifest    = filetype.Manifest
	FileTypeCurrent     = filetype.Current
	FileTypeLock        = filetype.Lock
	FileTypeIdentity    = filetype.Identity
	FileTypeOptionsFile = filetype.OptionsFile
	FileTypeTemp        = filetype.TempFile
)

// ParseFileType classifies basename the same way the facade does
// internally when filtering write-error injection.
func ParseFileType(basename string) (FileType, bool) {
	return filetype.Parse(basename)
}
