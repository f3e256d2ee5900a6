package phase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/creasty/defaults"
	"github.com/k0sproject/rig/exec"
	rigos "github.com/k0sproject/rig/os"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/stretchr/testify/require"
)

// mockHost records commands and answers them from a map of outputs. Commands
// with no output entry succeed with empty output unless listed in fail.
type mockHost struct {
	mu       sync.Mutex
	commands []string
	outputs  map[string]string
	fail     map[string]bool
}

var _ rigos.Host = (*mockHost)(nil)

func (m *mockHost) run(cmd string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, cmd)
	if m.fail[cmd] {
		return "", fmt.Errorf("command failed: %s", cmd)
	}
	return m.outputs[cmd], nil
}

func (m *mockHost) Upload(source, destination string, opts ...exec.Option) error {
	return nil
}

func (m *mockHost) Exec(cmd string, _ ...exec.Option) error {
	_, err := m.run(cmd)
	return err
}

func (m *mockHost) ExecOutput(cmd string, _ ...exec.Option) (string, error) {
	return m.run(cmd)
}

func (m *mockHost) Execf(s string, args ...any) error {
	_, err := m.run(fmt.Sprintf(s, args...))
	return err
}

func (m *mockHost) ExecOutputf(s string, args ...any) (string, error) {
	return m.run(fmt.Sprintf(s, args...))
}

func (m *mockHost) String() string {
	return "localhost"
}

func (m *mockHost) Sudo(cmd string) (string, error) {
	return cmd, nil
}

// ran returns the commands starting with prefix
func (m *mockHost) ran(prefix string) []string {
	var out []string
	for _, c := range m.commands {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// fakeConfigurer implements the configurer methods the phases use
type fakeConfigurer struct {
	configurer.Configurer

	systemd   bool
	ifupdown  bool
	installed map[string]bool
	packages  []string
	removed   []string
}

func (f *fakeConfigurer) Kind() string                                   { return "fake" }
func (f *fakeConfigurer) IsSystemd(rigos.Host) bool                      { return f.systemd }
func (f *fakeConfigurer) PackageIsInstalled(_ rigos.Host, p string) bool { return f.installed[p] }
func (f *fakeConfigurer) GuiPackages() []string                          { return []string{"xserver-xorg-core"} }
func (f *fakeConfigurer) DisplayManagers() []string {
	return []string{"slim", "lightdm", "sddm", "gdm", "gdm3"}
}
func (f *fakeConfigurer) AdminGroup() string      { return "sudo" }
func (f *fakeConfigurer) UsesIfupdown() bool      { return f.ifupdown }
func (f *fakeConfigurer) LocaleFiles() []string   { return []string{"/etc/default/locale"} }
func (f *fakeConfigurer) GrubMkconfigCmd() string { return "update-grub" }
func (f *fakeConfigurer) InitramfsCmd() string    { return "update-initramfs -k all -u" }

func (f *fakeConfigurer) ServiceIsActive(rigos.Host, string) bool { return false }
func (f *fakeConfigurer) StopService(rigos.Host, string) error    { return nil }

func (f *fakeConfigurer) KernelVersion(rigos.Host) (string, error)   { return "6.1.0-18-amd64", nil }
func (f *fakeConfigurer) CommandExist(_ rigos.Host, cmd string) bool { return f.installed[cmd] }
func (f *fakeConfigurer) CalamaresPackages() []string {
	return []string{"calamares", "qml-module-qtquick2"}
}
func (f *fakeConfigurer) CalamaresPolicies(rigos.Host) error { return nil }

func (f *fakeConfigurer) InstallPackage(_ rigos.Host, pkgs ...string) error {
	f.packages = append(f.packages, pkgs...)
	return nil
}

func (f *fakeConfigurer) RemovePackage(_ rigos.Host, pkgs ...string) error {
	f.removed = append(f.removed, pkgs...)
	return nil
}

func (f *fakeConfigurer) GrubInstallCmd(device string, efi bool, id string) string {
	return configurer.GrubInstallCmd("grub-install", device, efi, id)
}

func newTestManager(t *testing.T) (*Manager, *mockHost) {
	t.Helper()
	root := t.TempDir()
	h := &mockHost{outputs: map[string]string{}, fail: map[string]bool{}}

	inst := &config.Installation{}
	require.NoError(t, defaults.Set(inst))
	inst.Partitions.Device = "/dev/sda"
	inst.Users.Hostname = "colibri"

	m := &Manager{
		Root:   root,
		Target: filepath.Join(root, "target"),
		Host:   h,
		Distro: &distro.Distro{
			FamilyID:       distro.FamilyDebian,
			DistroID:       "Debian",
			DistroLike:     "Debian",
			CodenameLikeID: "bookworm",
			LiveMediumPath: "/run/live/medium/",
			Squashfs:       "live/filesystem.squashfs",
			UsrLibPath:     "/usr/lib/x86_64-linux-gnu/",
		},
		Configurer:   &fakeConfigurer{systemd: true, ifupdown: true, installed: map[string]bool{}},
		Settings:     config.NewSettings(),
		Installation: inst,
	}
	require.NoError(t, os.MkdirAll(m.Target, 0o755))
	return m, h
}

// writeFile writes a file below dir creating the parents
func writeFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func readFile(t *testing.T, dir, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, path))
	require.NoError(t, err)
	return string(data)
}

type preparer interface {
	Prepare(*Manager) error
	Run() error
}

func runPhase(t *testing.T, m *Manager, p preparer) {
	t.Helper()
	require.NoError(t, p.Prepare(m))
	require.NoError(t, p.Run())
}
