package phase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/stretchr/testify/require"
)

func newProduceManager(t *testing.T) (*Manager, *mockHost) {
	t.Helper()
	m, h := newTestManager(t)
	m.Settings.SnapshotDir = t.TempDir()
	m.Settings.SnapshotBasename = "colibri"
	m.Settings.Derive("colibri")
	require.NoError(t, m.Settings.EnsureWorkDirs())
	m.Ovary = &Ovary{
		Compressor: "xz",
		DiskID:     "1234-abcd",
		ISOName:    "egg-of-colibri-amd64_2024-05-01_1200.iso",
		Arch:       "amd64",
		Remix:      config.Remix{Fullname: "colibri", Kernel: "vmlinuz-6.1.0-21-amd64"},
	}
	return m, h
}

func TestBindCommands(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"etc", "home", "proc", "usr"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, d), 0o755))
	}
	require.NoError(t, os.Symlink("usr/bin", filepath.Join(root, "bin")))
	writeFile(t, root, "vmlinuz", "")
	entries, err := os.ReadDir(root)
	require.NoError(t, err)

	bind, ubind := BindCommands(entries, "/m", false)
	require.Equal(t, []string{
		"cp -a /bin /m/",
		"mkdir -p /m/etc",
		"rsync -aq /etc /m/",
		"mkdir -p /m/home",
		"mkdir -p /m/proc",
		"mkdir -p /m/usr",
		"mount --bind --make-slave /usr /m/usr",
		"mount -o remount,bind,ro /m/usr",
	}, bind)
	require.Equal(t, []string{
		"umount /m/usr",
		"rmdir /m/usr",
		"rm -rf /m/proc",
		"rm -rf /m/home",
		"rm -rf /m/etc",
		"rm -f /m/bin",
	}, ubind)

	bind, ubind = BindCommands(entries, "/m", true)
	require.Contains(t, bind, "mount --bind --make-slave /home /m/home")
	require.Contains(t, ubind, "umount /m/home")
}

func TestBindLiveFs(t *testing.T) {
	m, h := newProduceManager(t)
	require.NoError(t, os.Mkdir(filepath.Join(m.Root, "usr"), 0o755))

	runPhase(t, m, &BindLiveFs{})
	merged := m.Settings.Work.Merged + "/usr"
	require.Contains(t, h.commands, "mount --bind --make-slave /usr "+merged)
	require.Contains(t, h.commands, "mount -o remount,bind,ro "+merged)
	require.Contains(t, m.Ovary.ubind, "umount "+merged)
}

func TestUnbindLiveFs(t *testing.T) {
	m, h := newProduceManager(t)
	m.Ovary.bind = []string{"mkdir -p /m/usr"}
	m.Ovary.ubind = []string{"umount /m/usr", "rmdir /m/usr"}

	p := &UnbindLiveFs{}
	require.NoError(t, p.Prepare(m))
	require.True(t, p.ShouldRun())
	require.NoError(t, p.Run())
	require.Equal(t, []string{"umount /m/usr", "rmdir /m/usr"}, h.commands)
	require.False(t, p.ShouldRun())
}

func TestUnbindLiveFsKeepsBoundDirs(t *testing.T) {
	m, h := newProduceManager(t)
	m.Ovary.bind = []string{"mkdir -p /m/usr"}
	m.Ovary.ubind = []string{"umount /m/usr", "rmdir /m/usr"}
	h.fail["umount /m/usr"] = true

	p := &UnbindLiveFs{}
	require.NoError(t, p.Prepare(m))
	require.ErrorContains(t, p.Run(), "/m/usr")
	require.Empty(t, h.ran("rmdir"))
	require.Len(t, h.ran("umount"), 3)
}

func TestUnbindLiveFsScript(t *testing.T) {
	m, h := newProduceManager(t)
	m.Ovary.Script = true
	m.Ovary.bind = []string{"mkdir -p /m/usr"}
	m.Ovary.ubind = []string{"rmdir /m/usr"}

	runPhase(t, m, &UnbindLiveFs{})
	require.Empty(t, h.commands)
	require.Contains(t, readFile(t, m.Settings.Work.Ovarium, "bind"), "mkdir -p /m/usr\n")
	ubind := readFile(t, m.Settings.Work.Ovarium, "ubind")
	require.True(t, strings.HasPrefix(ubind, "#!/bin/sh\n"))
	require.Contains(t, ubind, "rmdir /m/usr\n")
}

func TestEditLiveFs(t *testing.T) {
	m, h := newProduceManager(t)
	merged := m.Settings.Work.Merged
	writeFile(t, merged, "/etc/motd", "welcome")
	writeFile(t, merged, "/etc/crypttab", "root_crypted UUID=x none luks")
	writeFile(t, merged, "/etc/machine-id", "0123456789")
	require.NoError(t, os.MkdirAll(filepath.Join(merged, "/etc/initramfs-tools"), 0o755))
	m.Ovary.Addons = []string{"adapt"}
	writeFile(t, m.Root, "/usr/lib/penguins-eggs/addons/eggs/adapt/applications/eggs-adapt.desktop", "[Desktop Entry]\n")

	runPhase(t, m, &EditLiveFs{})

	require.Empty(t, readFile(t, merged, "/etc/machine-id"))
	require.NoFileExists(t, filepath.Join(merged, "/etc/crypttab"))
	require.Equal(t, "colibri\n", readFile(t, merged, "/etc/hostname"))
	require.Equal(t, LiveFstab, readFile(t, merged, "/etc/fstab"))
	require.Equal(t, "RESUME=none\n", readFile(t, merged, "/etc/initramfs-tools/conf.d/resume"))
	require.Contains(t, readFile(t, merged, "/etc/hosts"), "colibri")

	motd := readFile(t, merged, "/etc/motd")
	require.True(t, strings.HasPrefix(motd, "welcome\n"))
	require.Contains(t, motd, MessageStart)
	require.Contains(t, motd, "user: live password: evolution")
	require.Contains(t, readFile(t, merged, "/etc/issue"), MessageEnd)

	require.Contains(t, readFile(t, merged, GettyOverride), "--autologin live")
	require.Equal(t, "[Desktop Entry]\n", readFile(t, merged, "/usr/share/applications/eggs-adapt.desktop"))

	require.Empty(t, h.ran("chroot "+merged+" useradd"))
	require.Equal(t, []string{"chroot " + merged + " chpasswd"}, h.commands)
}

func TestEditLiveFsCreatesUserOutsideDebian(t *testing.T) {
	m, h := newProduceManager(t)
	m.Distro.FamilyID = distro.FamilyArchlinux
	m.Configurer.(*fakeConfigurer).systemd = false

	runPhase(t, m, &EditLiveFs{})
	merged := m.Settings.Work.Merged
	require.Equal(t, []string{
		"chroot " + merged + " useradd -m -s /bin/bash -G sudo live",
		"chroot " + merged + " chpasswd",
	}, h.commands)
	require.NoFileExists(t, filepath.Join(merged, GettyOverride))
}

func TestEditLiveFsBackupKeepsUsers(t *testing.T) {
	m, h := newProduceManager(t)
	m.Ovary.Backup = true

	runPhase(t, m, &EditLiveFs{})
	require.Empty(t, h.commands)
}

func TestUsersSize(t *testing.T) {
	m, h := newProduceManager(t)
	writeFile(t, m.Root, "/etc/passwd", strings.Join([]string{
		"root:x:0:0:root:/root:/bin/bash",
		"artisan:x:1000:1000:Artisan,,,:/home/artisan:/bin/bash",
		"ghost:x:1001:1001::/home/ghost:/bin/bash",
		"mail:x:8:8:mail:/var/mail:/usr/sbin/nologin",
	}, "\n")+"\n")
	require.NoError(t, os.MkdirAll(filepath.Join(m.Root, "/home/artisan"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(m.Root, "/var/mail"), 0o755))
	h.outputs["du --block-size=1 --summarize /home/artisan"] = "4096\t/home/artisan\n"

	p := &UsersSize{}
	require.NoError(t, p.Prepare(m))
	require.False(t, p.ShouldRun())
	m.Ovary.Backup = true
	require.True(t, p.ShouldRun())
	require.NoError(t, p.Run())

	require.Len(t, m.Ovary.Saveable, 1)
	require.Equal(t, "artisan", m.Ovary.Saveable[0].Login)
	require.EqualValues(t, 4096, m.Ovary.UsersSize)
}

func TestExcludes(t *testing.T) {
	list := "# comment\n/boot/efi/EFI\n\nvar/cache/apt/archives/*\n"
	require.Equal(t, "boot/efi/EFI\nvar/cache/apt/archives/*\nhome/eggs/*\n", Excludes(list, "/home/eggs/"))
}

func TestMakeSquashfs(t *testing.T) {
	m, h := newProduceManager(t)
	m.Settings.SnapshotExcludes = "/etc/penguins-eggs.d/exclude.list"
	writeFile(t, m.Root, m.Settings.SnapshotExcludes, "/tmp/*\n")

	runPhase(t, m, &MakeSquashfs{})
	s := m.Settings
	excludes := filepath.Join(s.Work.Ovarium, "exclude.list")
	require.Equal(t, []string{
		"mksquashfs " + s.Work.Merged + " " + filepath.Join(s.Work.ISO, "live/filesystem.squashfs") + " -comp xz -wildcards -ef " + excludes,
	}, h.commands)
	require.Contains(t, readFile(t, s.Work.Ovarium, "exclude.list"), "tmp/*\n")
}

func TestMakeSquashfsScript(t *testing.T) {
	m, h := newProduceManager(t)
	m.Ovary.Script = true

	runPhase(t, m, &MakeSquashfs{})
	require.Empty(t, h.commands)
	require.Contains(t, readFile(t, m.Settings.Work.Ovarium, "mksquashfs"), "mksquashfs ")
}

func TestKernelParams(t *testing.T) {
	d := &distro.Distro{FamilyID: distro.FamilyDebian}
	require.Equal(t, "boot=live components locales=it_IT.UTF-8 quiet splash", KernelParams(d, "COLIBRI", "it_IT.UTF-8"))
	require.Contains(t, KernelParams(d, "COLIBRI", ""), "locales=en_US.UTF-8")

	d.FamilyID = distro.FamilyArchlinux
	require.Contains(t, KernelParams(d, "COLIBRI", ""), "archisolabel=COLIBRI")
	d.FamilyID = distro.FamilyFedora
	require.Contains(t, KernelParams(d, "COLIBRI", ""), "root=live:CDLABEL=COLIBRI")
}

func TestIsolinux(t *testing.T) {
	m, _ := newProduceManager(t)
	m.Distro.IsolinuxPath = "/usr/lib/ISOLINUX/"
	m.Distro.SyslinuxPath = "/usr/lib/syslinux/modules/bios/"
	m.Settings.Vmlinuz = "/boot/vmlinuz-6.1.0-21-amd64"
	m.Settings.InitrdImg = "/boot/initrd.img-6.1.0-21-amd64"
	writeFile(t, m.Root, "/usr/lib/ISOLINUX/isolinux.bin", "isolinux")
	for _, mod := range isolinuxModules {
		writeFile(t, m.Root, "/usr/lib/syslinux/modules/bios/"+mod, mod)
	}
	writeFile(t, m.Root, m.Settings.Vmlinuz, "kernel")
	writeFile(t, m.Root, m.Settings.InitrdImg, "initrd")

	runPhase(t, m, &Isolinux{})
	iso := m.Settings.Work.ISO
	require.Equal(t, "isolinux", readFile(t, iso, "isolinux/isolinux.bin"))
	require.Equal(t, "ldlinux.c32", readFile(t, iso, "isolinux/ldlinux.c32"))
	require.Equal(t, "kernel", readFile(t, iso, "live/vmlinuz"))
	require.Equal(t, "initrd", readFile(t, iso, "live/initrd.img"))

	cfg := readFile(t, iso, "isolinux/isolinux.cfg")
	require.Contains(t, cfg, "MENU LABEL colibri (vmlinuz-6.1.0-21-amd64)")
	require.Contains(t, cfg, "APPEND initrd=/live/initrd.img boot=live components")
	require.NotContains(t, cfg, "splash.png")
}

func TestIsolinuxMissingKernel(t *testing.T) {
	m, _ := newProduceManager(t)
	p := &Isolinux{}
	require.NoError(t, p.Prepare(m))
	require.Error(t, p.Run())
}

func TestMakeEFI(t *testing.T) {
	m, h := newProduceManager(t)
	writeFile(t, m.Settings.Work.EFIWork, "bootx64.efi", "efi binary")

	p := &MakeEFI{}
	require.NoError(t, p.Prepare(m))
	require.True(t, p.ShouldRun())
	require.NoError(t, p.Run())

	require.Len(t, h.ran("grub-mkstandalone --format=x86_64-efi"), 1)
	require.Contains(t, readFile(t, m.Settings.Work.EFIWork, "grub.cfg"), "/.disk/id/1234-abcd")
	require.FileExists(t, filepath.Join(m.Settings.Work.ISO, "boot/grub/efi.img"))
	require.Contains(t, readFile(t, m.Settings.Work.ISO, "boot/grub/grub.cfg"), "linux /live/vmlinuz boot=live")

	m.Settings.MakeEFI = false
	require.False(t, p.ShouldRun())
}

func TestXorrisoCmd(t *testing.T) {
	require.Equal(t,
		"xorriso -as mkisofs -volid COLIBRI -joliet -joliet-long -rational-rock -cache-inodes -iso-level 3"+
			" -isohybrid-mbr /usr/lib/ISOLINUX/isohdpfx.bin -partition_offset 16"+
			" -b isolinux/isolinux.bin -c isolinux/boot.cat -no-emul-boot -boot-load-size 4 -boot-info-table"+
			" -eltorito-alt-boot -e boot/grub/efi.img -no-emul-boot -isohybrid-gpt-basdat"+
			" -output /home/eggs/mnt/colibri.iso /home/eggs/mnt/iso/",
		XorrisoCmd("COLIBRI", "/usr/lib/ISOLINUX/isohdpfx.bin", true, "/home/eggs/mnt/iso/", "/home/eggs/mnt/colibri.iso"))

	cmd := XorrisoCmd("COLIBRI", "", false, "/iso", "/out.iso")
	require.NotContains(t, cmd, "isohybrid")
	require.NotContains(t, cmd, "efi.img")
}

func TestMakeISO(t *testing.T) {
	m, h := newProduceManager(t)
	m.Settings.MakeMd5sum = true

	runPhase(t, m, &MakeISO{})
	iso := m.Settings.Work.ISO
	require.FileExists(t, filepath.Join(iso, ".disk/id/1234-abcd"))
	require.Contains(t, readFile(t, iso, ".disk/info"), "colibri amd64")
	require.Len(t, h.ran("xorriso -as mkisofs -volid COLIBRI"), 1)
	require.NotContains(t, h.commands[0], "isohybrid-mbr")
	require.Len(t, h.ran("sh -c"), 1)
	require.Contains(t, h.commands[1], "md5sum")
}

func TestMakeISOScript(t *testing.T) {
	m, h := newProduceManager(t)
	m.Ovary.Script = true

	runPhase(t, m, &MakeISO{})
	require.Empty(t, h.commands)
	require.Contains(t, readFile(t, m.Settings.Work.Ovarium, "mkisofs"), "xorriso -as mkisofs")
}

func TestYolk(t *testing.T) {
	m, h := newProduceManager(t)
	p := &Yolk{}
	require.NoError(t, p.Prepare(m))
	require.False(t, p.ShouldRun())

	m.Ovary.Yolk = true
	require.True(t, p.ShouldRun())
	require.NoError(t, p.Run())
	require.Len(t, h.commands, 5)
	require.Contains(t, h.commands[2], "apt-get download cryptsetup")

	m.Distro.FamilyID = distro.FamilyFedora
	require.False(t, p.ShouldRun())
}

func TestISONameAndVolumeID(t *testing.T) {
	require.Equal(t, "COLIBRI-1-0", VolumeID("colibri 1.0"))
	require.Len(t, VolumeID(strings.Repeat("x", 40)), 32)
}
