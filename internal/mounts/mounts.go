// Package mounts enumerates candidate volumes from the live mount table.
package mounts

import (
	"io"
	"path"
	"strings"

	"github.com/moby/sys/mountinfo"

	"github.com/volinit-project/volinit/pkg/errclass"
)

// Mount is one mount table entry. Options is the comma-separated per-mount
// option list as reported by the kernel.
type Mount struct {
	Path    string
	FSType  string
	Options string
}

// ReadOnly reports whether the mount carries the ro option.
func (m Mount) ReadOnly() bool {
	for _, opt := range strings.Split(m.Options, ",") {
		if opt == "ro" {
			return true
		}
	}
	return false
}

// SubvolumeCapable reports whether the backing filesystem supports true
// subvolumes.
func (m Mount) SubvolumeCapable() bool {
	return m.FSType == "btrfs"
}

// Name returns the volume basename.
func (m Mount) Name() string {
	return path.Base(path.Clean(m.Path))
}

// Table returns the live mount table, preserving table order.
func Table() ([]Mount, error) {
	infos, err := mountinfo.GetMounts(nil)
	if err != nil {
		return nil, errclass.ErrMountTable.WithMessagef("read mount table: %v", err)
	}
	return fromInfos(infos), nil
}

// TableFromReader parses a mountinfo-format table from r. Used by tests.
func TableFromReader(r io.Reader) ([]Mount, error) {
	infos, err := mountinfo.GetMountsFromReader(r, nil)
	if err != nil {
		return nil, errclass.ErrMountTable.WithMessagef("parse mount table: %v", err)
	}
	return fromInfos(infos), nil
}

func fromInfos(infos []*mountinfo.Info) []Mount {
	out := make([]Mount, 0, len(infos))
	for _, in := range infos {
		out = append(out, Mount{
			Path:    in.Mountpoint,
			FSType:  in.FSType,
			Options: in.Options,
		})
	}
	return out
}

// Children filters table to the direct children of root, preserving table
// order. No deduplication, no sorting, no symlink resolution.
func Children(table []Mount, root string) []Mount {
	var out []Mount
	for _, m := range table {
		if DepthBelow(m.Path, root) == 1 {
			out = append(out, m)
		}
	}
	return out
}

// Enumerate reads the live table and returns the direct children of root.
func Enumerate(root string) ([]Mount, error) {
	table, err := Table()
	if err != nil {
		return nil, err
	}
	return Children(table, root), nil
}

// DepthBelow returns how many path levels p sits below root, or 0 when p is
// root itself or outside it.
func DepthBelow(p, root string) int {
	p, root = path.Clean(p), path.Clean(root)
	if p == root {
		return 0
	}
	prefix := root
	if prefix != "/" {
		prefix += "/"
	}
	if !strings.HasPrefix(p, prefix) {
		return 0
	}
	return strings.Count(p[len(prefix):], "/") + 1
}
