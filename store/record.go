package store

import "time"

// FileRecord is the last known state of one file.
// Path is absolute and canonical; it is the unique key in every backend.
type FileRecord struct {
	Path         string // Absolute, canonicalized file path
	Size         int64  // File size in bytes
	Hash         string // Content fingerprint (hex SHA-512)
	LastModified int64  // Modification time (unix seconds) observed when Hash was computed
}

// ModTime returns LastModified as a time.Time.
func (r FileRecord) ModTime() time.Time {
	return time.Unix(r.LastModified, 0)
}

// SameContent reports whether two records carry the same fingerprint and size.
func (r FileRecord) SameContent(other FileRecord) bool {
	return r.Hash == other.Hash && r.Size == other.Size
}
