//go:build linux

package fsops

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// reflinkFile creates a CoW copy of src at dst via the FICLONE ioctl.
func reflinkFile(src, dst string, info os.FileInfo) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open src: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create dst: %w", err)
	}
	defer dstFile.Close()

	if err := unix.IoctlFileClone(int(dstFile.Fd()), int(srcFile.Fd())); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return fmt.Errorf("ficlone %s: %w", src, err)
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
