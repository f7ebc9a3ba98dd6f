// Package scanner walks a repository tree and produces decoded source
// files for chunking.
//
// Directory subtrees whose name matches the configured ignore set (.git,
// node_modules, build output and the like) are pruned before descent. A
// file is included only when its extension is in the supported set
// (case-insensitive) and its size is at or below the configured maximum.
//
// Text decoding accepts valid UTF-8 directly (stripping a BOM when
// present), then falls back to Windows-1252 and Latin-1; the first
// encoding that decodes wins. Oversized, undecodable
// and unreadable files are reported in the ScanReport and skipped, never
// fatal: scanning of sibling files always continues.
package scanner
