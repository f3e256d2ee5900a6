package phase

import (
	"fmt"
	"unicode"
)

// Device mapper names used by the encrypted and lvm2 layouts
const (
	CryptedRootName = "root_crypted"
	VolumeGroup     = "pve"
)

// Devices are the block devices created by the partition phase
type Devices struct {
	Disk string
	EFI  string
	Boot string
	Root string
	Swap string
	Data string
	// RootPartition is the partition holding root when root is a mapped device
	RootPartition string
	Crypted       bool
	LVM           bool
}

// PartitionName returns the name of the nth partition of disk, /dev/sda1 or
// /dev/nvme0n1p1
func PartitionName(disk string, n int) string {
	if disk != "" && unicode.IsDigit(rune(disk[len(disk)-1])) {
		return fmt.Sprintf("%sp%d", disk, n)
	}
	return fmt.Sprintf("%s%d", disk, n)
}
