package phase

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/krill"
	"github.com/penguins-eggs/eggs/pkg/netinfo"
	"github.com/penguins-eggs/eggs/pkg/prompt"
	log "github.com/sirupsen/logrus"
)

// EFIVars exists when the system booted in EFI mode
const EFIVars = "/sys/firmware/efi/efivars"

// KrillPrepare checks the system and collects the installation answers, from the
// screens or from krill.yaml
type KrillPrepare struct {
	GenericPhase

	Context    context.Context
	Unattended bool
	Prompt     prompt.Prompter
	Out        io.Writer
	// KrillPath is the krill.yaml read in unattended mode
	KrillPath string
	// Detect reads the network defaults, nil skips them
	Detect func() (netinfo.Info, error)
	// GeoIP returns the time zone of the current location, nil skips the lookup
	GeoIP func(context.Context) (string, error)
}

// Title for the phase
func (p *KrillPrepare) Title() string {
	return "Preparing installation"
}

// Critical stops the installation, nothing may touch the disk without answers
func (p *KrillPrepare) Critical() bool {
	return true
}

// DefaultGeoIP looks the time zone up with a short timeout
func DefaultGeoIP(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return krill.GeoIP(ctx, http.DefaultClient)
}

// Run the phase
func (p *KrillPrepare) Run() error {
	m := p.manager
	ctx := p.Context
	if ctx == nil {
		ctx = context.Background()
	}

	disks, err := krill.Check(m.Host, m.Configurer)
	if err != nil {
		return err
	}

	m.EFI = p.exists(p.hostPath(EFIVars))
	p.SetProp("efi", m.EFI)

	if m.Installation == nil {
		m.Installation = config.NewInstallation()
	}
	p.prefill(ctx)

	if p.Unattended {
		path := p.KrillPath
		if path == "" {
			path = config.KrillPath
		}
		k, err := config.LoadKrill(p.hostPath(path))
		if err != nil {
			return err
		}
		return krill.Unattended(ctx, m.Installation, k, disks, p.Out)
	}

	screens := &krill.Screens{
		Prompt:       p.Prompt,
		Installation: m.Installation,
		Disks:        disks,
		Out:          p.Out,
	}
	return screens.Run()
}

// prefill sets the network and zone defaults, lookup failures are only logged
func (p *KrillPrepare) prefill(ctx context.Context) {
	var (
		info netinfo.Info
		tz   string
		err  error
	)
	if p.Detect != nil {
		if info, err = p.Detect(); err != nil {
			log.Warnf("can't read the network configuration: %s", err)
		}
	}
	if p.GeoIP != nil {
		if tz, err = p.GeoIP(ctx); err != nil {
			log.Warnf("geoip lookup failed: %s", err)
		}
	}
	krill.Prefill(p.manager.Installation, info, tz)
}
