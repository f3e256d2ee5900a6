package squashfs

import (
	"testing"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("mksquashfs version 4.5.1 (2022/03/17)\ncopyright (C) 2022 Phillip Lougher\n")
	require.NoError(t, err)
	require.Equal(t, "4.5.1", v.String())

	v, err = ParseVersion("mksquashfs version 4.3-git (2014/06/09)")
	require.NoError(t, err)
	require.Equal(t, "4.3.0", v.String())

	_, err = ParseVersion("command not found")
	require.Error(t, err)
}

func TestChoose(t *testing.T) {
	v45 := version.Must(version.NewVersion("4.5"))
	v43 := version.Must(version.NewVersion("4.3"))
	v42 := version.Must(version.NewVersion("4.2"))

	require.Equal(t, Lz4, Choose(Options{Fast: true}, v43))
	require.Equal(t, Gzip, Choose(Options{Fast: true}, v42))
	require.Equal(t, Gzip, Choose(Options{Fast: true, Legacy: true}, v45))
	require.Equal(t, Gzip, Choose(Options{Fast: true}, nil))
	require.Equal(t, "zstd", Choose(Options{Setting: "zstd"}, v45))

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"none", Options{}, Default},
		{"fast", Options{Fast: true}, Fast},
		{"normal", Options{Normal: true}, Normal},
		{"max", Options{Max: true}, Max},
		{"fast and normal", Options{Fast: true, Normal: true}, Fast},
		{"fast and max", Options{Fast: true, Max: true}, Fast},
		{"normal and max", Options{Normal: true, Max: true}, Normal},
		{"all three", Options{Fast: true, Normal: true, Max: true}, Fast},
		{"release", Options{Release: true}, Max},
		{"release and fast", Options{Release: true, Fast: true}, Max},
		{"release and normal", Options{Release: true, Normal: true}, Max},
		{"release overrides setting", Options{Release: true, Setting: "lz4"}, Max},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Choose(tc.opts, v45))
		})
	}
}

func TestIsCompressor(t *testing.T) {
	require.True(t, IsCompressor("xz"))
	require.True(t, IsCompressor("xz -Xbcj x86"))
	require.True(t, IsCompressor(Fast))
	require.False(t, IsCompressor("bzip2"))
	require.False(t, IsCompressor(""))
}

func TestCommand(t *testing.T) {
	cmd, err := Command("/home/eggs/mnt/filesystem.squashfs", "/home/eggs/mnt/iso/live/filesystem.squashfs", Max, "/etc/penguins-eggs.d/exclude.list")
	require.NoError(t, err)
	require.Equal(t, "mksquashfs /home/eggs/mnt/filesystem.squashfs /home/eggs/mnt/iso/live/filesystem.squashfs -comp xz -Xbcj x86 -wildcards -ef /etc/penguins-eggs.d/exclude.list", cmd)
}
