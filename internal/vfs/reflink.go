package vfs

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sys/unix"
)

// copyDirReflink snapshots src into dst, attempting a copy-on-write clone
// of each regular file via the Linux FICLONE ioctl and falling back to a
// plain byte copy when the filesystem doesn't support it (or the OS isn't
// Linux). Reflinking makes Begin cheap regardless of workspace size; the
// fallback guarantees correctness everywhere else.
func copyDirReflink(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		}

		if d.Type()&os.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		}

		return reflinkOrCopyFile(path, target)
	})
}

func reflinkOrCopyFile(src, dst string) error {
	if runtime.GOOS == "linux" {
		if err := tryFiclone(src, dst); err == nil {
			return nil
		}
	}
	return copyFile(src, dst)
}

// tryFiclone attempts a same-filesystem copy-on-write clone via FICLONE.
// A nil return means the clone succeeded; any error falls through to the
// byte-copy path in reflinkOrCopyFile.
func tryFiclone(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	return unix.IoctlFileClone(int(dstFile.Fd()), int(srcFile.Fd()))
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
