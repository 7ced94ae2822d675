package preflight_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volinit-project/volinit/internal/convert"
	"github.com/volinit-project/volinit/internal/mounts"
	"github.com/volinit-project/volinit/internal/preflight"
	"github.com/volinit-project/volinit/pkg/logging"
)

func newTestValidator(root string) (*preflight.Validator, *bytes.Buffer) {
	log := logging.New(logging.Debug, logging.Info)
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return preflight.New(log, root), &buf
}

// volume creates a real directory volume under root and returns its mount.
func volume(t *testing.T, root, name, fstype, options string) mounts.Mount {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(path, 0755))
	return mounts.Mount{Path: path, FSType: fstype, Options: options}
}

func TestCheck_ReadyVolumes(t *testing.T) {
	root := t.TempDir()
	m1 := volume(t, root, "media", "btrfs", "rw,noatime")
	m2 := volume(t, root, "db", "ext4", "rw,relatime")

	v, buf := newTestValidator(root)
	report := v.Check([]mounts.Mount{m1, m2})

	assert.False(t, report.Fatal)
	assert.Empty(t, report.Findings)
	assert.Equal(t, []string{m1.Path, m2.Path}, report.Ready)
	assert.Contains(t, buf.String(), "ready for conversion")
}

func TestCheck_NestedMountIsFatalForWholeRun(t *testing.T) {
	root := t.TempDir()
	m := volume(t, root, "media", "btrfs", "rw")
	nested := mounts.Mount{Path: filepath.Join(root, "media", "inner"), FSType: "ext4", Options: "rw"}

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m, nested})

	require.True(t, report.Fatal)
	require.NotEmpty(t, report.Findings)
	assert.Equal(t, "E_NESTED_MOUNT", report.Findings[0].Code)
	assert.NotEmpty(t, report.Alerts())
}

func TestCheck_ConvertedVolumeSkippedAtDebug(t *testing.T) {
	root := t.TempDir()
	m := volume(t, root, "media", "btrfs", "rw")
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, convert.MarkerFile), nil, 0644))

	v, buf := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	assert.False(t, report.Fatal)
	assert.Equal(t, []string{m.Path}, report.Skipped)
	assert.Empty(t, report.Ready)
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "skipping")
}

func TestCheck_ReadOnlyVolumeIsFatal(t *testing.T) {
	root := t.TempDir()
	m := volume(t, root, "media", "btrfs", "ro,relatime")

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	require.True(t, report.Fatal)
	assert.Equal(t, "E_READ_ONLY", report.Findings[0].Code)
}

func TestCheck_ConvertedWinsOverReadOnly(t *testing.T) {
	// An already-converted volume is skipped before the read-only gate: it
	// will not be mutated anyway.
	root := t.TempDir()
	m := volume(t, root, "media", "btrfs", "ro")
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, convert.MarkerFile), nil, 0644))

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	assert.False(t, report.Fatal)
	assert.Equal(t, []string{m.Path}, report.Skipped)
}

func TestCheck_PriorErrorMarkerIsFatal(t *testing.T) {
	root := t.TempDir()
	m := volume(t, root, "media", "btrfs", "rw")
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, convert.ErrorMarkerFile), []byte("E_MOVE: boom\n"), 0644))

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	require.True(t, report.Fatal)
	assert.Equal(t, "E_PRIOR_ERROR", report.Findings[0].Code)
}

func TestCheck_WorkdirAsFileIsFatal(t *testing.T) {
	root := t.TempDir()
	m := volume(t, root, "media", "btrfs", "rw")
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, convert.WorkDir), []byte("not a dir"), 0644))

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	require.True(t, report.Fatal)
	assert.Equal(t, "E_WORKDIR_CONFLICT", report.Findings[0].Code)
}

func TestCheck_WorkdirAsDirectoryIsAllowed(t *testing.T) {
	// A pre-existing @ directory (e.g. an interrupted prior run) is not a
	// readiness violation; the conversion engine deals with it.
	root := t.TempDir()
	m := volume(t, root, "media", "ext4", "rw")
	require.NoError(t, os.Mkdir(filepath.Join(m.Path, convert.WorkDir), 0755))

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	assert.False(t, report.Fatal)
	assert.Equal(t, []string{m.Path}, report.Ready)
}

func TestCheck_ConvertedWinsOverInvalidName(t *testing.T) {
	// Skipping comes before every other gate, including name validation: a
	// converted volume is never touched again, odd basename or not.
	root := t.TempDir()
	m := volume(t, root, "bad name", "btrfs", "rw")
	require.NoError(t, os.WriteFile(filepath.Join(m.Path, convert.MarkerFile), nil, 0644))

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	assert.False(t, report.Fatal)
	assert.Equal(t, []string{m.Path}, report.Skipped)
}

func TestCheck_InvalidVolumeName(t *testing.T) {
	root := t.TempDir()
	m := volume(t, root, "bad name", "btrfs", "rw")

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{m})

	require.True(t, report.Fatal)
	assert.Equal(t, "E_NAME_INVALID", report.Findings[0].Code)
}

func TestCheck_ReportsAllVolumes(t *testing.T) {
	// One fatal volume does not hide the state of the others.
	root := t.TempDir()
	bad := volume(t, root, "bad", "btrfs", "ro")
	good := volume(t, root, "good", "btrfs", "rw")

	v, _ := newTestValidator(root)
	report := v.Check([]mounts.Mount{bad, good})

	require.True(t, report.Fatal)
	assert.Equal(t, []string{good.Path}, report.Ready)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, bad.Path, report.Findings[0].Volume)
}
