package config

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// FreeSpaceThreshold is the space considered sufficient for a new snapshot
const FreeSpaceThreshold = 3 << 30

// FreeSpace is the result of ListFreeSpace
type FreeSpace struct {
	Available     uint64
	Snapshots     int
	SnapshotsSize int64
}

// Sufficient is true when there is room for a new snapshot
func (f FreeSpace) Sufficient() bool {
	return f.Available > FreeSpaceThreshold
}

// EnsureWorkDirs creates the snapshot dir and the work dirs
func (s *Settings) EnsureWorkDirs() error {
	for _, dir := range append([]string{s.SnapshotDir}, s.Work.All()...) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ListFreeSpace creates the snapshot dirs and reports the free space and the
// existing snapshots
func (s *Settings) ListFreeSpace() (FreeSpace, error) {
	var fs FreeSpace

	if err := s.EnsureWorkDirs(); err != nil {
		return fs, err
	}

	var st unix.Statfs_t
	if err := unix.Statfs(s.SnapshotMnt, &st); err != nil {
		return fs, fmt.Errorf("statfs %s: %w", s.SnapshotMnt, err)
	}
	fs.Available = st.Bavail * uint64(st.Bsize)

	isos, err := filepath.Glob(filepath.Join(s.SnapshotMnt, "*.iso"))
	if err != nil {
		return fs, err
	}
	for _, iso := range isos {
		if fi, err := os.Stat(iso); err == nil {
			fs.Snapshots++
			fs.SnapshotsSize += fi.Size()
		}
	}

	log.Infof("free space on %s: %s", s.SnapshotMnt, HumanBytes(fs.Available))
	if fs.Sufficient() {
		log.Infof("the free space should be sufficient to hold the compressed data of the system")
	} else {
		log.Warnf("the free space is probably not sufficient, mount a partition on %s or remove old snapshots", s.SnapshotMnt)
	}
	if fs.Snapshots > 0 {
		log.Infof("%d snapshot(s) in %s, taking %s", fs.Snapshots, s.SnapshotMnt, HumanBytes(uint64(fs.SnapshotsSize)))
	}

	return fs, nil
}

// HumanBytes formats a byte count with a binary unit
func HumanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
