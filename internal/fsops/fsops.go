// Package fsops isolates the filesystem operations the conversion engine
// depends on. The engine only sees the Toolset interface, so failures can be
// injected in tests; Local is the real implementation.
package fsops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Toolset is the set of filesystem capabilities the conversion engine
// invokes. Every method returns a descriptive failure reason that is
// persisted verbatim in a volume's error marker.
type Toolset interface {
	// CreateSubvolume creates a btrfs subvolume at path.
	CreateSubvolume(path string) error

	// ReflinkCopy clones each entry into destDir, sharing extents where the
	// filesystem supports it. A failed clone is a failed step; there is no
	// silent fallback to a full copy.
	ReflinkCopy(entries []string, destDir string) error

	// Move renames each entry into destDir.
	Move(entries []string, destDir string) error

	// Remove recursively removes each entry.
	Remove(entries []string) error

	// Mkdir creates a plain directory at path.
	Mkdir(path string) error
}

// Local operates on the local filesystem, shelling out to the btrfs CLI for
// subvolume creation.
type Local struct{}

// NewLocal creates the real toolset.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) CreateSubvolume(path string) error {
	out, err := exec.Command("btrfs", "subvolume", "create", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("btrfs subvolume create %s: %v: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (l *Local) ReflinkCopy(entries []string, destDir string) error {
	for _, entry := range entries {
		dst := filepath.Join(destDir, filepath.Base(entry))
		if err := cloneTree(entry, dst); err != nil {
			return fmt.Errorf("reflink copy %s: %v", entry, err)
		}
	}
	return nil
}

func (l *Local) Move(entries []string, destDir string) error {
	for _, entry := range entries {
		dst := filepath.Join(destDir, filepath.Base(entry))
		if err := os.Rename(entry, dst); err != nil {
			return fmt.Errorf("move %s: %v", entry, err)
		}
	}
	return nil
}

func (l *Local) Remove(entries []string) error {
	for _, entry := range entries {
		if err := os.RemoveAll(entry); err != nil {
			return fmt.Errorf("remove %s: %v", entry, err)
		}
	}
	return nil
}

func (l *Local) Mkdir(path string) error {
	if err := os.Mkdir(path, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %v", path, err)
	}
	return nil
}

// cloneTree replicates src at dst, reflinking regular files. Anything other
// than a directory, symlink or regular file is an anomaly and fails the copy.
func cloneTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())

		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
			return os.Symlink(link, target)

		case info.Mode().IsRegular():
			return reflinkFile(path, target, info)

		default:
			return fmt.Errorf("unexpected file type %s at %s", info.Mode().Type(), path)
		}
	})
}
