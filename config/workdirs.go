package config

// WorkDirs are the directories below the snapshot dir used while producing an ISO
type WorkDirs struct {
	Ovarium     string
	LowerDir    string
	UpperDir    string
	WorkDir     string
	Merged      string
	EFIWork     string
	ISO         string
	SnapshotMnt string
}

// NewWorkDirs derives the work dirs from the snapshot dir, which must end with /
func NewWorkDirs(snapshotDir string) WorkDirs {
	mnt := snapshotDir + "mnt/"
	return WorkDirs{
		Ovarium:     snapshotDir + "ovarium/",
		LowerDir:    snapshotDir + ".overlay/lowerdir",
		UpperDir:    snapshotDir + ".overlay/upperdir",
		WorkDir:     snapshotDir + ".overlay/workdir",
		Merged:      mnt + "filesystem.squashfs",
		EFIWork:     mnt + "efi-work/",
		ISO:         mnt + "iso/",
		SnapshotMnt: mnt,
	}
}

// All returns every work dir, parents first
func (w WorkDirs) All() []string {
	return []string{w.SnapshotMnt, w.Ovarium, w.LowerDir, w.UpperDir, w.WorkDir, w.Merged, w.EFIWork, w.ISO}
}
