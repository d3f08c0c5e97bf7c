// Package fileutil holds small filesystem helpers shared by the exporters.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Written describes a file produced by WriteAtomic.
type Written struct {
	Size   int64
	SHA256 string
}

// WriteAtomic streams r into a temporary sibling of target, runs verify on
// the temporary path when set, then renames it over target with mode. The
// target is never left partially written; on any failure the temporary file
// is removed.
func WriteAtomic(target string, r io.Reader, mode os.FileMode, verify func(tmp string) error) (Written, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.part")
	if err != nil {
		return Written{}, err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		_ = tmp.Close()
		return Written{}, fmt.Errorf("copy body: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Written{}, err
	}
	if err := tmp.Close(); err != nil {
		return Written{}, err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return Written{}, err
	}
	if verify != nil {
		if err := verify(tmpPath); err != nil {
			return Written{}, err
		}
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return Written{}, err
	}
	committed = true
	return Written{Size: size, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// SHA256File returns the hex digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
