// Package checksum hashes produced artifacts.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File computes the SHA-256 of the file at path as lowercase hex.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// WriteSums writes a sha256sum-compatible listing ("<hash>  <basename>") of
// paths to outPath and returns outPath.
func WriteSums(outPath string, paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		sum, err := File(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, filepath.Base(p))
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write checksums file: %w", err)
	}
	return outPath, nil
}
