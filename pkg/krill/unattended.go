package krill

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/penguins-eggs/eggs/config"
)

// UnattendedWait is the time left to abort an unattended installation
var UnattendedWait = 30 * time.Second

// Unattended fills the answers from krill.yaml, installs on the first disk and
// gives the user time to abort with ctrl-c, which cancels ctx
func Unattended(ctx context.Context, i *config.Installation, k *config.Krill, disks []string, out io.Writer) error {
	if len(disks) == 0 {
		return fmt.Errorf("%w: no disk found", ErrRefused)
	}
	k.Apply(i)
	i.Partitions.Device = disks[0]
	if err := i.Validate(); err != nil {
		return fmt.Errorf("%s: %w", config.KrillPath, err)
	}

	fmt.Fprint(out, Summary(i))
	fmt.Fprintf(out, "The installation on %s starts in %s, press ctrl-c to abort\n", i.Partitions.Device, UnattendedWait)

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	case <-time.After(UnattendedWait):
		return nil
	}
}
