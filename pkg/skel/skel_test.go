package skel

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/k0sproject/rig/exec"
	rigos "github.com/k0sproject/rig/os"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/stretchr/testify/require"
)

type mockHost struct {
	commands []string
}

var _ rigos.Host = (*mockHost)(nil)

func (m *mockHost) Upload(string, string, ...exec.Option) error { return nil }
func (m *mockHost) Exec(cmd string, _ ...exec.Option) error {
	m.commands = append(m.commands, cmd)
	return nil
}
func (m *mockHost) ExecOutput(cmd string, _ ...exec.Option) (string, error) {
	return "", m.Exec(cmd)
}
func (m *mockHost) Execf(s string, args ...any) error { return m.Exec(fmt.Sprintf(s, args...)) }
func (m *mockHost) ExecOutputf(s string, args ...any) (string, error) {
	return m.ExecOutput(fmt.Sprintf(s, args...))
}
func (m *mockHost) String() string                  { return "localhost" }
func (m *mockHost) Sudo(cmd string) (string, error) { return cmd, nil }

type fakeConfigurer struct {
	configurer.Configurer
	installed map[string]bool
}

func (f *fakeConfigurer) PackageIsInstalled(_ rigos.Host, p string) bool { return f.installed[p] }

func write(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestUser(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "passwd", "root:x:0:0:root:/root:/bin/bash\nartisan:x:1000:1000::/home/artisan:/bin/bash\nbob:x:1001:1001::/home/bob:/bin/bash\n")
	passwd := filepath.Join(dir, "passwd")

	t.Setenv("SUDO_USER", "")
	u, err := User(passwd, "")
	require.NoError(t, err)
	require.Equal(t, "artisan", u.Login)

	t.Setenv("SUDO_USER", "bob")
	u, err = User(passwd, "")
	require.NoError(t, err)
	require.Equal(t, "bob", u.Login)

	u, err = User(passwd, "artisan")
	require.NoError(t, err)
	require.Equal(t, "/home/artisan", u.Home)

	_, err = User(passwd, "ghost")
	require.ErrorContains(t, err, "ghost")
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	write(t, root, "/home/artisan/.bashrc", "")
	write(t, root, "/home/artisan/.profile", "")
	write(t, root, "/home/artisan/.config/xfce4/panel.xml", "")
	write(t, root, "/home/artisan/.config/user-dirs.dirs", "XDG_DESKTOP_DIR=\"$HOME/Scrivania\"\n")

	h := &mockHost{}
	s := &Skel{
		Host:       h,
		Configurer: &fakeConfigurer{installed: map[string]bool{"xfce4-session": true}},
		Root:       root,
		Translate:  true,
	}
	require.NoError(t, s.Run("/home/artisan"))
	require.Equal(t, []string{
		"rm -rf /etc/skel",
		"mkdir -p /etc/skel",
		"cp /home/artisan/.bashrc /etc/skel/",
		"cp /home/artisan/.profile /etc/skel/",
		"mkdir -p /etc/skel/.config",
		"rsync -avx /home/artisan/.config/xfce4 /etc/skel/.config/",
		"mkdir -p /etc/skel/Scrivania",
		"chown -R root:root /etc/skel",
		"chmod -R a+rwx,g-w,o-w /etc/skel",
		"chmod a+rwx,g-w-x,o-wx /etc/skel/.bashrc",
		"chmod a+rwx,g-w-x,o-wx /etc/skel/.profile",
	}, h.commands)
}

func TestRunUntranslated(t *testing.T) {
	root := t.TempDir()
	write(t, root, "/home/artisan/.config/user-dirs.dirs", "XDG_DESKTOP_DIR=\"$HOME/Scrivania\"\n")
	h := &mockHost{}
	s := &Skel{Host: h, Configurer: &fakeConfigurer{}, Root: root}
	require.NoError(t, s.Run("/home/artisan"))
	require.Contains(t, h.commands, "mkdir -p /etc/skel/Desktop")
}

func TestRunMissingHome(t *testing.T) {
	h := &mockHost{}
	s := &Skel{Host: h, Configurer: &fakeConfigurer{}, Root: t.TempDir()}
	require.ErrorContains(t, s.Run("/home/nobody"), "does not exist")
	require.Empty(t, h.commands)
}

func TestDetectDesktop(t *testing.T) {
	d, ok := DetectDesktop(&mockHost{}, &fakeConfigurer{installed: map[string]bool{"plasma-desktop": true, "xfce4-session": true}})
	require.True(t, ok)
	require.Equal(t, "plasma", d.Name)

	_, ok = DetectDesktop(&mockHost{}, &fakeConfigurer{})
	require.False(t, ok)
}
