// Package squashfs selects the mksquashfs compression and builds its command line
package squashfs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/hashicorp/go-version"
	"github.com/penguins-eggs/eggs/internal/shell"
)

// Compressors known to mksquashfs
var Compressors = []string{"gzip", "lzo", "lz4", "lzma", "xz", "zstd"}

// Compression presets
const (
	Fast    = "zstd -Xcompression-level 1 -b 262144"
	Normal  = "xz"
	Max     = "xz -Xbcj x86"
	Lz4     = "lz4"
	Gzip    = "gzip"
	Default = Normal
)

var (
	zstdSince = version.Must(version.NewVersion("4.4"))
	lz4Since  = version.Must(version.NewVersion("4.3"))

	versionRe = regexp.MustCompile(`(?i)mksquashfs version (\d+\.\d+(?:\.\d+)?)`)
)

// IsCompressor returns true when the first word of the compression setting is a
// known compressor
func IsCompressor(s string) bool {
	words, err := shell.Split(s)
	if err != nil || len(words) == 0 {
		return false
	}
	for _, c := range Compressors {
		if words[0] == c {
			return true
		}
	}
	return false
}

// ParseVersion extracts the squashfs-tools version from `mksquashfs -version`
func ParseVersion(output string) (*version.Version, error) {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("can't find mksquashfs version in %q", strings.TrimSpace(output))
	}
	return version.NewVersion(m[1])
}

// Options for Choose
type Options struct {
	Fast    bool
	Normal  bool
	Max     bool
	Release bool
	// Legacy is set on jessie and stretch, where the initramfs only reads gzip
	Legacy bool
	// Setting is the compression from eggs.yaml
	Setting string
}

// Choose returns the compression for the options. Fast wins over normal and
// normal over max, release always forces max. tools is the installed
// squashfs-tools version, nil when unknown.
func Choose(o Options, tools *version.Version) string {
	if o.Release {
		return Max
	}
	switch {
	case o.Fast:
		switch {
		case o.Legacy || tools == nil:
			return Gzip
		case tools.GreaterThanOrEqual(zstdSince):
			return Fast
		case tools.GreaterThanOrEqual(lz4Since):
			return Lz4
		default:
			return Gzip
		}
	case o.Normal:
		return Normal
	case o.Max:
		return Max
	case o.Setting != "":
		return o.Setting
	default:
		return Default
	}
}

// Command returns the mksquashfs command line
func Command(source, dest, compression, excludes string) (string, error) {
	comp, err := shell.Split(compression)
	if err != nil {
		return "", fmt.Errorf("invalid compression %q: %w", compression, err)
	}
	if len(comp) == 0 {
		comp = []string{Default}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "mksquashfs %s %s -comp %s", shellescape.Quote(source), shellescape.Quote(dest), shellescape.QuoteCommand(comp))
	b.WriteString(" -wildcards")
	if excludes != "" {
		fmt.Fprintf(&b, " -ef %s", shellescape.Quote(excludes))
	}
	return b.String(), nil
}
