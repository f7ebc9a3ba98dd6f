package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/repoquery/internal/config"
)

func testScanner() *Scanner {
	return New(config.ScannerConfig{
		Extensions:  []string{".py", ".go"},
		IgnoreDirs:  []string{"node_modules", ".git"},
		MaxFileSize: 100,
	}, nil)
}

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestScanFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", []byte("print('hi')\n"))
	writeFile(t, root, "pkg/util.go", []byte("package pkg\n"))
	writeFile(t, root, "README.md", []byte("# readme\n"))
	writeFile(t, root, "node_modules/dep.py", []byte("ignored\n"))
	writeFile(t, root, ".git/hooks/pre-commit.py", []byte("ignored\n"))
	writeFile(t, root, "big.py", []byte(strings.Repeat("x", 200)))

	files, report, err := testScanner().ScanAll(root)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	assert.ElementsMatch(t, []string{"main.py", "pkg/util.go"}, rels)

	assert.Equal(t, 2, report.FilesRead)
	require.Len(t, report.SkippedLarge, 1)
	assert.True(t, strings.HasSuffix(report.SkippedLarge[0], "big.py"))
	assert.Empty(t, report.SkippedDecode)
	assert.Empty(t, report.FailedRead)
	assert.Equal(t, 1, report.Skipped())
}

func TestScanDecodesLegacyEncoding(t *testing.T) {
	root := t.TempDir()
	// "café" in Windows-1252: 0xE9 is not valid UTF-8.
	writeFile(t, root, "legacy.py", []byte{'c', 'a', 'f', 0xE9})

	files, report, err := testScanner().ScanAll(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "café", files[0].Content)
	assert.Equal(t, 1, report.FilesRead)
}

func TestScanMissingRoot(t *testing.T) {
	_, _, err := testScanner().ScanAll(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "only.py", []byte("x = 1\n"))

	_, _, err := testScanner().ScanAll(filepath.Join(root, "only.py"))
	assert.Error(t, err)
}

func TestScanCaseInsensitiveExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "UPPER.PY", []byte("x = 1\n"))

	files, _, err := testScanner().ScanAll(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "UPPER.PY", files[0].RelPath)
}

func TestDecodeText(t *testing.T) {
	t.Run("plain utf-8", func(t *testing.T) {
		out, ok := DecodeText([]byte("hello"))
		require.True(t, ok)
		assert.Equal(t, "hello", out)
	})

	t.Run("utf-8 bom stripped", func(t *testing.T) {
		out, ok := DecodeText([]byte("\xEF\xBB\xBFhello"))
		require.True(t, ok)
		assert.Equal(t, "hello", out)
	})

	t.Run("windows-1252 fallback", func(t *testing.T) {
		out, ok := DecodeText([]byte{0xE9})
		require.True(t, ok)
		assert.Equal(t, "é", out)
	})

	t.Run("empty input", func(t *testing.T) {
		out, ok := DecodeText(nil)
		require.True(t, ok)
		assert.Equal(t, "", out)
	})
}
