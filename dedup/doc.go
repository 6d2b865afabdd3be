// Package dedup finds duplicate files and applies the retention policy.
//
// Every entry point (full scan, single-file check, live watch event) funnels
// into Pipeline.Process, which runs one file at a time:
//
//	reconcile hash -> record in store -> resolve duplicate set -> rank -> act
//
// The store is a cache of fingerprints keyed by canonical path. A stored
// fingerprint is trusted for as long as the file's modification time has not
// advanced past the recorded one. Content rewritten without an mtime change is
// therefore not detected; this is a known limitation, not an oversight.
package dedup
