package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/mkarls/repoquery/internal/config"
	"github.com/mkarls/repoquery/pkg/types"
)

// File is one scanned source file ready for chunking.
type File struct {
	AbsPath string
	RelPath string // repo-relative, forward slashes
	Content string
}

// Scanner walks a repository tree and yields decodable source files that
// pass the extension and size filters.
type Scanner struct {
	extensions  map[string]struct{}
	ignoreDirs  map[string]struct{}
	maxFileSize int64
	logger      *zap.Logger
}

// New creates a Scanner from configuration. A nil logger disables logging.
func New(cfg config.ScannerConfig, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		extensions:  cfg.ExtensionSet(),
		ignoreDirs:  cfg.IgnoreSet(),
		maxFileSize: cfg.MaxFileSize,
		logger:      logger,
	}
}

// Scan walks root and invokes fn for every included file, in directory
// order. Per-file problems (unreadable, oversized, undecodable) are
// recorded in the report and never abort the walk. Scan is restartable:
// it holds no state between calls.
func (s *Scanner) Scan(root string, fn func(File) error) (*types.ScanReport, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("repository path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path is not a directory: %s", absRoot)
	}

	report := &types.ScanReport{}

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry: record and keep scanning siblings.
			s.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			report.FailedRead = append(report.FailedRead, path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Prune ignored subtrees before descending into them.
			if _, ignored := s.ignoreDirs[d.Name()]; ignored && path != absRoot {
				return fs.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := s.extensions[ext]; !ok {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping unstattable file", zap.String("path", path), zap.Error(err))
			report.FailedRead = append(report.FailedRead, path)
			return nil
		}
		if fi.Size() > s.maxFileSize {
			s.logger.Info("skipping large file",
				zap.String("path", path), zap.Int64("size", fi.Size()))
			report.SkippedLarge = append(report.SkippedLarge, path)
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			report.FailedRead = append(report.FailedRead, path)
			return nil
		}

		content, ok := DecodeText(raw)
		if !ok {
			s.logger.Warn("skipping undecodable file", zap.String("path", path))
			report.SkippedDecode = append(report.SkippedDecode, path)
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = path
		}

		report.FilesRead++
		return fn(File{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
			Content: content,
		})
	})
	if walkErr != nil {
		return report, walkErr
	}
	return report, nil
}

// ScanAll collects every included file into a slice.
func (s *Scanner) ScanAll(root string) ([]File, *types.ScanReport, error) {
	var files []File
	report, err := s.Scan(root, func(f File) error {
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, report, err
	}
	return files, report, nil
}

// decoders is the fixed, ordered list of encoding fallbacks for content
// that is not valid UTF-8. Windows-1252 and Latin-1 decode any byte
// sequence, so the chain always terminates.
var decoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1252", charmap.Windows1252},
	{"latin-1", charmap.ISO8859_1},
}

// DecodeText decodes raw bytes using the encoding fallback chain. The
// second return value reports whether any encoding succeeded.
func DecodeText(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		// Strip a UTF-8 BOM if present.
		return strings.TrimPrefix(string(raw), "\uFEFF"), true
	}
	for _, d := range decoders {
		decoded, err := d.enc.NewDecoder().Bytes(raw)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), true
		}
	}
	return "", false
}
