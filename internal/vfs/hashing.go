package vfs

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// hashChunkSize is the read buffer size used while folding file content
// into the directory hash.
const hashChunkSize = 8192

// computeDirectoryHash walks dir and returns a SHA-256 digest over every
// regular file's relative path and content, plus the total file count, so
// that any addition, deletion, rename, or content change anywhere in the
// tree changes the result. Entries are visited in sorted path order so the
// hash is deterministic across runs and platforms.
func computeDirectoryHash(dir string) (string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	fileCount := uint64(0)

	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return "", err
		}
		h.Write([]byte(filepath.ToSlash(rel)))

		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		for {
			n, rerr := f.Read(buf)
			if n > 0 {
				h.Write(buf[:n])
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				f.Close()
				return "", rerr
			}
		}
		f.Close()
		fileCount++
	}

	countBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(countBytes, fileCount)
	h.Write(countBytes)

	return hex.EncodeToString(h.Sum(nil)), nil
}
