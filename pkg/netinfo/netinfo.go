// Package netinfo reads the current network configuration to prefill the installer
package netinfo

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/samber/lo"
	"github.com/vishvananda/netlink"
)

// ResolvConfPath is the resolver configuration
var ResolvConfPath = "/etc/resolv.conf"

// DefaultDomain is used when the resolver configuration names no domain
const DefaultDomain = "local"

// Info is the network configuration of the first usable interface
type Info struct {
	Iface   string
	Address string
	Netmask string
	Gateway string
	DNS     []string
	Domain  string
}

type iface struct {
	name     string
	index    int
	loopback bool
	addrs    []*net.IPNet
}

// Detect queries the kernel for the links, addresses and routes and reads the
// resolver configuration
func Detect() (Info, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return Info{}, fmt.Errorf("list links: %w", err)
	}

	var ifaces []iface
	for _, l := range links {
		attrs := l.Attrs()
		addrs, err := netlink.AddrList(l, netlink.FAMILY_V4)
		if err != nil {
			return Info{}, fmt.Errorf("list addresses of %s: %w", attrs.Name, err)
		}
		i := iface{name: attrs.Name, index: attrs.Index, loopback: attrs.Flags&net.FlagLoopback != 0}
		for _, a := range addrs {
			i.addrs = append(i.addrs, a.IPNet)
		}
		ifaces = append(ifaces, i)
	}

	routes, err := netlink.RouteList(nil, syscall.AF_UNSPEC)
	if err != nil {
		return Info{}, fmt.Errorf("list routes: %w", err)
	}

	info := choose(ifaces, routes)

	if f, err := os.Open(ResolvConfPath); err == nil {
		info.DNS, info.Domain = ParseResolvConf(f)
		f.Close()
	}

	return info, nil
}

func choose(ifaces []iface, routes []netlink.Route) Info {
	var info Info
	for _, i := range ifaces {
		if i.loopback || len(i.addrs) == 0 {
			continue
		}
		info.Iface = i.name
		info.Address = i.addrs[0].IP.String()
		info.Netmask = net.IP(i.addrs[0].Mask).String()
		for _, r := range routes {
			if r.LinkIndex == i.index && isDefaultRoute(r) && r.Gw != nil {
				info.Gateway = r.Gw.String()
				break
			}
		}
		break
	}
	return info
}

func isDefaultRoute(route netlink.Route) bool {
	if route.Dst == nil {
		return true
	}
	ones, _ := route.Dst.Mask.Size()
	return ones == 0
}

// ParseResolvConf returns the nameservers and the domain, falling back to the
// first search domain and then to DefaultDomain. The root domain "." written by
// systemd-resolved is not a domain.
func ParseResolvConf(r io.Reader) ([]string, string) {
	var (
		dns    []string
		domain string
		search string
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") || strings.HasPrefix(fields[0], ";") {
			continue
		}
		switch fields[0] {
		case "nameserver":
			dns = append(dns, fields[1])
		case "domain":
			if isDomain(fields[1]) {
				domain = fields[1]
			}
		case "search":
			if search == "" {
				search, _ = lo.Find(fields[1:], isDomain)
			}
		}
	}
	if domain == "" {
		domain = search
	}
	if domain == "" {
		domain = DefaultDomain
	}
	return dns, domain
}

func isDomain(s string) bool {
	return strings.Trim(s, ".") != ""
}
