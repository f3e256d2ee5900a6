package phase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/penguins-eggs/eggs/pkg/efi"
	"github.com/penguins-eggs/eggs/pkg/incubator"
	"github.com/penguins-eggs/eggs/pkg/squashfs"
	"github.com/penguins-eggs/eggs/pkg/users"
	log "github.com/sirupsen/logrus"
)

// UsersSize lists the saveable homes of a backup and their size
type UsersSize struct {
	GenericPhase
}

// Title for the phase
func (p *UsersSize) Title() string {
	return "Sizing user homes"
}

// ShouldRun is true in backup mode
func (p *UsersSize) ShouldRun() bool {
	return p.manager.Ovary.Backup
}

// Run the phase
func (p *UsersSize) Run() error {
	ov := p.manager.Ovary
	list, err := users.Load(p.hostPath("/etc/passwd"))
	if err != nil {
		return err
	}
	ov.Saveable = users.Saveable(list, func(home string) bool {
		return users.PathExists(p.hostPath(home))
	})
	size, err := users.Size(p.manager.Host, ov.Saveable)
	ov.UsersSize = size
	for _, u := range ov.Saveable {
		log.Infof("%s: %s", u.Home, config.HumanBytes(uint64(u.Size)))
	}
	log.Infof("user data to save: %s", config.HumanBytes(uint64(size)))
	p.SetProp("homes", len(ov.Saveable))
	p.SetProp("size", size)
	return err
}

// MakeSquashfs compresses the live file system
type MakeSquashfs struct {
	GenericPhase
}

// Title for the phase
func (p *MakeSquashfs) Title() string {
	return "Compressing live file system"
}

// Critical stops the build, there is no ISO without the file system
func (p *MakeSquashfs) Critical() bool {
	return true
}

// Excludes returns the exclude list handed to mksquashfs: the user list plus the
// snapshot dir, which would otherwise end up inside itself
func Excludes(userList, snapshotDir string) string {
	var lines []string
	for _, line := range strings.Split(userList, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.TrimPrefix(line, "/"))
	}
	lines = append(lines, strings.Trim(snapshotDir, "/")+"/*")
	return strings.Join(lines, "\n") + "\n"
}

// Run the phase
func (p *MakeSquashfs) Run() error {
	s := p.manager.Settings
	ov := p.manager.Ovary

	userList, err := os.ReadFile(p.hostPath(s.SnapshotExcludes))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	excludes := filepath.Join(s.Work.Ovarium, "exclude.list")
	if err := os.WriteFile(excludes, []byte(Excludes(string(userList), s.SnapshotDir)), 0o644); err != nil {
		return err
	}

	dest := filepath.Join(s.Work.ISO, p.manager.Distro.Squashfs)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}

	cmd, err := squashfs.Command(s.Work.Merged, dest, ov.Compressor, excludes)
	if err != nil {
		return err
	}
	if ov.Script {
		log.Infof("mksquashfs command written to %smksquashfs", s.Work.Ovarium)
		return writeScript(filepath.Join(s.Work.Ovarium, "mksquashfs"), []string{cmd})
	}
	return p.manager.Host.Exec(cmd)
}

// isolinuxModules are copied from the syslinux modules dir
var isolinuxModules = []string{"vesamenu.c32", "ldlinux.c32", "libcom32.c32", "libutil.c32"}

// KernelParams returns the kernel command line of the live session
func KernelParams(d *distro.Distro, volid, locale string) string {
	switch d.FamilyID {
	case distro.FamilyArchlinux:
		return fmt.Sprintf("archisobasedir=arch archisolabel=%s cow_spacesize=4G", volid)
	case distro.FamilyFedora:
		return fmt.Sprintf("root=live:CDLABEL=%s rd.live.image quiet", volid)
	default:
		if locale == "" {
			locale = "en_US.UTF-8"
		}
		return fmt.Sprintf("boot=live components locales=%s quiet splash", locale)
	}
}

// IsolinuxCfg is the BIOS boot menu
func IsolinuxCfg(remix config.Remix, params string, splash bool) string {
	var b strings.Builder
	if splash {
		b.WriteString("UI vesamenu.c32\nMENU BACKGROUND splash.png\n")
	} else {
		b.WriteString("UI vesamenu.c32\n")
	}
	fmt.Fprintf(&b, "MENU TITLE %s\n", remix.Fullname)
	b.WriteString("PROMPT 0\nTIMEOUT 50\nDEFAULT live\n\n")
	fmt.Fprintf(&b, "LABEL live\n  MENU LABEL %s (%s)\n  KERNEL /live/vmlinuz\n  APPEND initrd=/live/initrd.img %s\n\n", remix.Fullname, remix.Kernel, params)
	fmt.Fprintf(&b, "LABEL safe\n  MENU LABEL %s safe mode\n  KERNEL /live/vmlinuz\n  APPEND initrd=/live/initrd.img %s nomodeset\n", remix.Fullname, params)
	return b.String()
}

// Isolinux prepares the BIOS boot of the ISO and copies the kernel
type Isolinux struct {
	GenericPhase
}

// Title for the phase
func (p *Isolinux) Title() string {
	return "Preparing isolinux"
}

// Run the phase
func (p *Isolinux) Run() error {
	m := p.manager
	s := m.Settings
	iso := s.Work.ISO
	dir := filepath.Join(iso, "isolinux")

	if err := copyFile(p.hostPath(m.Distro.IsolinuxPath+"isolinux.bin"), filepath.Join(dir, "isolinux.bin")); err != nil {
		return err
	}
	for _, mod := range isolinuxModules {
		if err := copyFile(p.hostPath(m.Distro.SyslinuxPath+mod), filepath.Join(dir, mod)); err != nil {
			return err
		}
	}

	splash := false
	if theme := p.themeSplash(); theme != "" {
		if err := copyFile(theme, filepath.Join(dir, "splash.png")); err != nil {
			return err
		}
		splash = true
	}

	params := KernelParams(m.Distro, VolumeID(s.SnapshotBasename), s.LocalesDefault)
	if err := os.WriteFile(filepath.Join(dir, "isolinux.cfg"), []byte(IsolinuxCfg(m.Ovary.Remix, params, splash)), 0o644); err != nil {
		return err
	}

	if err := copyFile(p.hostPath(s.Vmlinuz), filepath.Join(iso, "live", "vmlinuz")); err != nil {
		return err
	}
	return copyFile(p.hostPath(s.InitrdImg), filepath.Join(iso, "live", "initrd.img"))
}

// themeSplash returns the splash image of the theme, if any
func (p *Isolinux) themeSplash() string {
	splash := p.hostPath(filepath.Join(incubator.ThemePath(p.manager.Settings.Theme), "theme", "livecd", "splash.png"))
	if p.exists(splash) {
		return splash
	}
	return ""
}

// MakeEFI builds the EFI boot image
type MakeEFI struct {
	GenericPhase
}

// Title for the phase
func (p *MakeEFI) Title() string {
	return "Making EFI boot image"
}

// ShouldRun is true when make_efi is set
func (p *MakeEFI) ShouldRun() bool {
	return p.manager.Settings.MakeEFI
}

// ISOGrubCfg is the boot menu on the ISO, reached from the standalone EFI binary
func ISOGrubCfg(remix config.Remix, params string) string {
	var b strings.Builder
	b.WriteString("set timeout=5\nset default=0\n\n")
	fmt.Fprintf(&b, "menuentry %q {\n  linux /live/vmlinuz %s\n  initrd /live/initrd.img\n}\n\n", remix.Fullname, params)
	fmt.Fprintf(&b, "menuentry %q {\n  linux /live/vmlinuz %s nomodeset\n  initrd /live/initrd.img\n}\n", remix.Fullname+" safe mode", params)
	return b.String()
}

// Run the phase
func (p *MakeEFI) Run() error {
	m := p.manager
	s := m.Settings
	ov := m.Ovary

	if err := os.MkdirAll(s.Work.EFIWork, 0o755); err != nil {
		return err
	}
	cfg := efi.GrubConfig(ov.DiskID)
	cfgPath := filepath.Join(s.Work.EFIWork, "grub.cfg")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		return err
	}

	bootx64 := filepath.Join(s.Work.EFIWork, "bootx64.efi")
	if err := m.Host.Exec(efi.MkstandaloneCmd(bootx64, cfgPath)); err != nil {
		return err
	}

	grubDir := filepath.Join(s.Work.ISO, "boot", "grub")
	if err := os.MkdirAll(grubDir, 0o755); err != nil {
		return err
	}
	err := efi.BuildImage(filepath.Join(grubDir, "efi.img"),
		efi.Entry{Path: "/EFI/BOOT/bootx64.efi", Source: bootx64},
		efi.Entry{Path: "/EFI/BOOT/grub.cfg", Data: []byte(cfg)},
	)
	if err != nil {
		return err
	}

	params := KernelParams(m.Distro, VolumeID(s.SnapshotBasename), s.LocalesDefault)
	return os.WriteFile(filepath.Join(grubDir, "grub.cfg"), []byte(ISOGrubCfg(ov.Remix, params)), 0o644)
}

// MakeISO writes the disk info and runs xorriso
type MakeISO struct {
	GenericPhase
}

// Title for the phase
func (p *MakeISO) Title() string {
	return "Making ISO"
}

// Critical marks the build failed
func (p *MakeISO) Critical() bool {
	return true
}

// XorrisoCmd returns the xorriso command creating output from the iso dir.
// isohdpfx is the isohybrid MBR, empty to skip it.
func XorrisoCmd(volid, isohdpfx string, efi bool, iso, output string) string {
	args := []string{"xorriso -as mkisofs", "-volid", quote(volid),
		"-joliet -joliet-long -rational-rock -cache-inodes -iso-level 3"}
	if isohdpfx != "" {
		args = append(args, "-isohybrid-mbr", quote(isohdpfx), "-partition_offset 16")
	}
	args = append(args, "-b isolinux/isolinux.bin -c isolinux/boot.cat -no-emul-boot -boot-load-size 4 -boot-info-table")
	if efi {
		args = append(args, "-eltorito-alt-boot -e boot/grub/efi.img -no-emul-boot")
		if isohdpfx != "" {
			args = append(args, "-isohybrid-gpt-basdat")
		}
	}
	args = append(args, "-output", quote(output), quote(iso))
	return strings.Join(args, " ")
}

// Run the phase
func (p *MakeISO) Run() error {
	m := p.manager
	s := m.Settings
	ov := m.Ovary

	info := fmt.Sprintf("%s %s %s", ov.Remix.Fullname, ov.Arch, time.Now().Format("2006-01-02"))
	if err := createFile(filepath.Join(s.Work.ISO, ".disk", "info"), info); err != nil {
		return err
	}
	if err := createFile(filepath.Join(s.Work.ISO, ".disk", "id", ov.DiskID), ""); err != nil {
		return err
	}

	var isohdpfx string
	if s.MakeIsohybrid {
		isohdpfx = p.hostPath(m.Distro.IsolinuxPath + "isohdpfx.bin")
		if !p.exists(isohdpfx) {
			log.Warnf("%s not found, the ISO will not be hybrid", isohdpfx)
			isohdpfx = ""
		}
	}
	output := filepath.Join(s.SnapshotMnt, ov.ISOName)
	cmd := XorrisoCmd(VolumeID(s.SnapshotBasename), isohdpfx, s.MakeEFI, s.Work.ISO, output)
	if err := createFile(filepath.Join(s.Work.ISO, ".disk", "mkisofs"), cmd); err != nil {
		return err
	}

	if ov.Script {
		return writeScript(filepath.Join(s.Work.Ovarium, "mkisofs"), []string{cmd})
	}
	if err := m.Host.Exec(cmd); err != nil {
		return err
	}
	p.SetProp("iso", ov.ISOName)

	if s.MakeMd5sum {
		if err := m.Host.Execf("sh -c %s", quote(fmt.Sprintf("cd %s && md5sum %s > %s.md5", quote(s.SnapshotMnt), quote(ov.ISOName), quote(ov.ISOName)))); err != nil {
			return err
		}
	}
	log.Infof("ISO created: %s", output)
	return nil
}

// YolkDir is the local repository of the installer packages
const YolkDir = "/var/local/yolk"

// YolkPackages are the packages the installer may need offline
var YolkPackages = []string{"cryptsetup", "cryptsetup-bin", "efibootmgr", "grub-common", "grub-efi-amd64", "grub-efi-amd64-bin", "grub-pc", "grub-pc-bin", "grub2-common", "keyutils", "lvm2"}

// Yolk regenerates the local repository
type Yolk struct {
	GenericPhase
}

// Title for the phase
func (p *Yolk) Title() string {
	return "Making yolk repository"
}

// ShouldRun is true with --yolk on debian
func (p *Yolk) ShouldRun() bool {
	return p.manager.Ovary.Yolk && p.manager.Distro.IsDebianFamily()
}

// Run the phase
func (p *Yolk) Run() error {
	dir := quote(YolkDir)
	cmds := []string{
		"rm -rf " + dir,
		"mkdir -p " + dir,
		fmt.Sprintf("sh -c %s", quote(fmt.Sprintf("cd %s && apt-get download %s", dir, strings.Join(YolkPackages, " ")))),
		fmt.Sprintf("sh -c %s", quote(fmt.Sprintf("cd %s && dpkg-scanpackages -h sha256 . > Packages", dir))),
		fmt.Sprintf("sh -c %s", quote(fmt.Sprintf("cd %s && apt-ftparchive release . > Release", dir))),
	}
	for _, cmd := range cmds {
		if err := p.manager.Host.Exec(cmd); err != nil {
			return fmt.Errorf("yolk: %w", err)
		}
	}
	return nil
}

func createFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// copyFile copies a local file, creating the parent dir of dest
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
