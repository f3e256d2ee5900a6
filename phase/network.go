package phase

import (
	"fmt"
	"strings"

	"github.com/penguins-eggs/eggs/config"
)

// NetworkCfg writes the network configuration of the installed system
type NetworkCfg struct {
	GenericPhase
}

// Title for the phase
func (p *NetworkCfg) Title() string {
	return "Configuring network"
}

// Percent of the installation done when the phase starts
func (p *NetworkCfg) Percent() int {
	return 50
}

// Interfaces returns the /etc/network/interfaces content for the answers
func Interfaces(n config.Network) string {
	var b strings.Builder
	b.WriteString("# interfaces(5) file used by ifup(8) and ifdown(8)\n")
	b.WriteString("auto lo\niface lo inet loopback\n")
	if n.Iface == "" {
		return b.String()
	}
	fmt.Fprintf(&b, "\nauto %s\n", n.Iface)
	if n.AddressType == config.AddressStatic {
		fmt.Fprintf(&b, "iface %s inet static\n", n.Iface)
		fmt.Fprintf(&b, "    address %s\n", n.Address)
		fmt.Fprintf(&b, "    netmask %s\n", n.Netmask)
		fmt.Fprintf(&b, "    gateway %s\n", n.Gateway)
	} else {
		fmt.Fprintf(&b, "iface %s inet dhcp\n", n.Iface)
	}
	return b.String()
}

// ResolvConf returns the /etc/resolv.conf content for the answers
func ResolvConf(n config.Network) string {
	var b strings.Builder
	if n.Domain != "" {
		fmt.Fprintf(&b, "search %s\ndomain %s\n", n.Domain, n.Domain)
	}
	for _, dns := range n.DNS {
		fmt.Fprintf(&b, "nameserver %s\n", dns)
	}
	return b.String()
}

// Run the phase
func (p *NetworkCfg) Run() error {
	n := p.manager.Installation.Network
	static := n.AddressType == config.AddressStatic
	p.SetProp("address-type", n.AddressType)

	if p.manager.Configurer.UsesIfupdown() {
		if err := p.writeTarget("/etc/network/interfaces", Interfaces(n), 0o644); err != nil {
			return err
		}
	}

	if static && len(n.DNS) > 0 {
		if err := p.writeTarget("/etc/resolv.conf", ResolvConf(n), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Hostname sets the host name of the installed system
type Hostname struct {
	GenericPhase
}

// Title for the phase
func (p *Hostname) Title() string {
	return "Setting hostname"
}

// Percent of the installation done when the phase starts
func (p *Hostname) Percent() int {
	return 53
}

// Run the phase
func (p *Hostname) Run() error {
	return p.writeTarget("/etc/hostname", p.manager.Installation.Users.Hostname+"\n", 0o644)
}

// Hosts writes /etc/hosts of the installed system
type Hosts struct {
	GenericPhase
}

// Title for the phase
func (p *Hosts) Title() string {
	return "Creating hosts"
}

// Percent of the installation done when the phase starts
func (p *Hosts) Percent() int {
	return 60
}

// HostsFile returns the /etc/hosts content
func HostsFile(hostname string, n config.Network) string {
	var b strings.Builder
	b.WriteString("127.0.0.1 localhost localhost.localdomain\n")
	fqdn := hostname
	if n.Domain != "" {
		fqdn = hostname + "." + n.Domain
	}
	if n.AddressType == config.AddressStatic && n.Address != "" {
		fmt.Fprintf(&b, "%s %s %s\n", n.Address, fqdn, hostname)
	} else {
		fmt.Fprintf(&b, "127.0.1.1 %s %s\n", fqdn, hostname)
	}
	b.WriteString(`
# The following lines are desirable for IPv6 capable hosts
::1     ip6-localhost ip6-loopback
fe00::0 ip6-localnet
ff00::0 ip6-mcastprefix
ff02::1 ip6-allnodes
ff02::2 ip6-allrouters
ff02::3 ip6-allhosts
`)
	return b.String()
}

// Run the phase
func (p *Hosts) Run() error {
	hostname := p.manager.Installation.Users.Hostname
	return p.writeTarget("/etc/hosts", HostsFile(hostname, p.manager.Installation.Network), 0o644)
}
