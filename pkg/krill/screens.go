package krill

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/netinfo"
	"github.com/penguins-eggs/eggs/pkg/prompt"
	"github.com/samber/lo"
)

// Languages offered by the welcome screen, the current one is added when missing
var Languages = []string{
	"en_US.UTF-8", "en_GB.UTF-8", "de_DE.UTF-8", "es_ES.UTF-8", "fr_FR.UTF-8",
	"it_IT.UTF-8", "pt_BR.UTF-8", "pt_PT.UTF-8", "ru_RU.UTF-8", "zh_CN.UTF-8",
}

// Screens asks the installation answers one screen at a time
type Screens struct {
	Prompt       prompt.Prompter
	Installation *config.Installation
	Disks        []string
	Out          io.Writer
}

type screen struct {
	title string
	ask   func() error
	show  func() string
	check func() error
}

// Prefill sets the network answers from the detected configuration and the zone
// from the geoip answer
func Prefill(i *config.Installation, info netinfo.Info, timezone string) {
	if timezone != "" {
		i.Location.SetTimezone(timezone)
	}
	n := &i.Network
	if info.Iface != "" {
		n.Iface = info.Iface
		n.Address = info.Address
		n.Netmask = info.Netmask
		n.Gateway = info.Gateway
	}
	if len(info.DNS) > 0 {
		n.DNS = info.DNS
	}
	if info.Domain != "" {
		n.Domain = info.Domain
	}
}

// Run shows the screens in order. Each is repeated until confirmed.
func (s *Screens) Run() error {
	i := s.Installation
	if i.Partitions.Device == "" && len(s.Disks) > 0 {
		i.Partitions.Device = s.Disks[0]
	}

	screens := []screen{
		{"Welcome", s.welcome, s.showWelcome, func() error { return nil }},
		{"Location", s.location, s.showLocation, func() error { return i.Location.Validate() }},
		{"Keyboard", s.keyboard, s.showKeyboard, func() error { return i.Keyboard.Validate() }},
		{"Partitions", s.partitions, s.showPartitions, func() error { return i.Partitions.Validate() }},
		{"Users", s.users, s.showUsers, func() error { return i.Users.Validate() }},
		{"Network", s.network, s.showNetwork, func() error { return i.Network.Validate() }},
	}
	for _, sc := range screens {
		if err := s.loop(sc); err != nil {
			return err
		}
	}

	fmt.Fprintln(s.Out, aurora.Bold("Summary"))
	fmt.Fprint(s.Out, Summary(i))
	answer, err := s.Prompt.Screen("Start the installation? The disk " + i.Partitions.Device + " will be erased")
	if err != nil {
		return err
	}
	if answer != prompt.Yes {
		return ErrAborted
	}
	return nil
}

func (s *Screens) loop(sc screen) error {
	for {
		if err := sc.ask(); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, aurora.Bold(sc.title))
		fmt.Fprint(s.Out, sc.show())

		if err := sc.check(); err != nil {
			fmt.Fprintln(s.Out, aurora.Red(err.Error()))
			continue
		}

		answer, err := s.Prompt.Screen("Confirm?")
		if err != nil {
			return err
		}
		switch answer {
		case prompt.Yes:
			return nil
		case prompt.Abort:
			return ErrAborted
		}
	}
}

func (s *Screens) welcome() error {
	l := &s.Installation.Location
	options := Languages
	if !lo.Contains(options, l.Language) {
		options = append([]string{l.Language}, options...)
	}
	lang, err := s.Prompt.Select("Language", options, l.Language)
	if err != nil {
		return err
	}
	l.Language = lang
	return nil
}

func (s *Screens) showWelcome() string {
	return fmt.Sprintf("  language: %s\n", s.Installation.Location.Language)
}

func (s *Screens) location() error {
	l := &s.Installation.Location
	return s.inputs(
		field{"Region", &l.Region},
		field{"Zone", &l.Zone},
	)
}

func (s *Screens) showLocation() string {
	return fmt.Sprintf("  timezone: %s\n", s.Installation.Location.Timezone())
}

func (s *Screens) keyboard() error {
	k := &s.Installation.Keyboard
	return s.inputs(
		field{"Keyboard model", &k.Model},
		field{"Keyboard layout", &k.Layout},
		field{"Keyboard variant", &k.Variant},
		field{"Keyboard option", &k.Option},
	)
}

func (s *Screens) showKeyboard() string {
	k := s.Installation.Keyboard
	return fmt.Sprintf("  model: %s\n  layout: %s\n  variant: %s\n  option: %s\n", k.Model, k.Layout, k.Variant, k.Option)
}

func (s *Screens) partitions() error {
	p := &s.Installation.Partitions
	selects := []struct {
		message string
		options []string
		dest    *string
	}{
		{"Installation device", s.Disks, &p.Device},
		{"Installation mode", config.InstallationModes, &p.InstallationMode},
		{"Filesystem", config.FilesystemTypes, &p.FilesystemType},
		{"Swap", config.SwapChoices, &p.UserSwapChoice},
	}
	for _, sel := range selects {
		v, err := s.Prompt.Select(sel.message, sel.options, *sel.dest)
		if err != nil {
			return err
		}
		*sel.dest = v
	}
	return nil
}

func (s *Screens) showPartitions() string {
	p := s.Installation.Partitions
	return fmt.Sprintf("  device: %s\n  mode: %s\n  filesystem: %s\n  swap: %s\n", p.Device, p.InstallationMode, p.FilesystemType, p.UserSwapChoice)
}

func (s *Screens) users() error {
	u := &s.Installation.Users
	if err := s.inputs(
		field{"Username", &u.Name},
		field{"Full name", &u.Fullname},
	); err != nil {
		return err
	}

	for _, pw := range []struct {
		message string
		dest    *string
	}{
		{"Password of " + u.Name, &u.Password},
		{"Password of root", &u.RootPassword},
	} {
		v, err := s.Prompt.Password(pw.message)
		if err != nil {
			return err
		}
		if warning := prompt.PasswordWarning(v); warning != "" {
			fmt.Fprintln(s.Out, aurora.Yellow("weak password: "+warning))
		}
		*pw.dest = v
	}

	autologin, err := s.Prompt.Confirm("Log in automatically?")
	if err != nil {
		return err
	}
	u.Autologin = autologin

	return s.inputs(field{"Hostname", &u.Hostname})
}

func (s *Screens) showUsers() string {
	u := s.Installation.Users
	return fmt.Sprintf("  user: %s (%s)\n  autologin: %t\n  hostname: %s\n", u.Name, u.Fullname, u.Autologin, u.Hostname)
}

func (s *Screens) network() error {
	n := &s.Installation.Network
	if err := s.inputs(field{"Interface", &n.Iface}); err != nil {
		return err
	}
	t, err := s.Prompt.Select("Address type", []string{config.AddressDHCP, config.AddressStatic}, n.AddressType)
	if err != nil {
		return err
	}
	n.AddressType = t
	if t != config.AddressStatic {
		return nil
	}

	dns := strings.Join(n.DNS, ", ")
	if err := s.inputs(
		field{"Address", &n.Address},
		field{"Netmask", &n.Netmask},
		field{"Gateway", &n.Gateway},
		field{"Domain", &n.Domain},
		field{"DNS, comma separated", &dns},
	); err != nil {
		return err
	}
	n.DNS = SplitList(dns)
	return nil
}

func (s *Screens) showNetwork() string {
	n := s.Installation.Network
	if n.AddressType != config.AddressStatic {
		return fmt.Sprintf("  %s: dhcp\n", n.Iface)
	}
	return fmt.Sprintf("  %s: %s/%s gateway %s\n  domain: %s\n  dns: %s\n", n.Iface, n.Address, n.Netmask, n.Gateway, n.Domain, strings.Join(n.DNS, " "))
}

type field struct {
	message string
	dest    *string
}

func (s *Screens) inputs(fields ...field) error {
	for _, f := range fields {
		v, err := s.Prompt.Input(f.message, *f.dest)
		if err != nil {
			return err
		}
		*f.dest = strings.TrimSpace(v)
	}
	return nil
}

// SplitList splits a comma or space separated list
func SplitList(s string) []string {
	return lo.Compact(strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }))
}

// Summary describes the installation before the disk is touched
func Summary(i *config.Installation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  language: %s, timezone: %s\n", i.Location.Language, i.Location.Timezone())
	fmt.Fprintf(&b, "  keyboard: %s %s\n", i.Keyboard.Model, i.Keyboard.Layout)
	fmt.Fprintf(&b, "  device: %s, mode: %s, filesystem: %s, swap: %s\n", i.Partitions.Device, i.Partitions.InstallationMode, i.Partitions.FilesystemType, i.Partitions.UserSwapChoice)
	fmt.Fprintf(&b, "  user: %s, hostname: %s\n", i.Users.Name, i.Users.Hostname)
	fmt.Fprintf(&b, "  network: %s %s\n", i.Network.Iface, i.Network.AddressType)
	return b.String()
}
