package domain

import (
	"slices"
	"sort"
)

// Host lists the units that logged on one machine
type Host struct {
	Hostname string   `json:"hostname"`
	Units    []string `json:"units"`
}

// HasUnit reports whether the host logged entries for unit
func (h Host) HasUnit(unit string) bool {
	_, found := slices.BinarySearch(h.Units, unit)
	return found
}

// Hosts is the host inventory produced by one discovery pass, ordered by
// hostname. It is read-only once built.
type Hosts struct {
	hosts []Host
}

// NewHosts builds an inventory from a hostname -> unit set mapping.
func NewHosts(m map[string]map[string]struct{}) Hosts {
	hosts := make([]Host, 0, len(m))
	for name, set := range m {
		units := make([]string, 0, len(set))
		for u := range set {
			units = append(units, u)
		}
		sort.Strings(units)
		hosts = append(hosts, Host{Hostname: name, Units: units})
	}
	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Hostname < hosts[j].Hostname
	})
	return Hosts{hosts: hosts}
}

// Len returns the number of distinct hosts
func (h Hosts) Len() int { return len(h.hosts) }

// All returns a copy of the hosts in hostname order
func (h Hosts) All() []Host {
	out := make([]Host, len(h.hosts))
	for i, host := range h.hosts {
		out[i] = Host{Hostname: host.Hostname, Units: slices.Clone(host.Units)}
	}
	return out
}

// Find looks up a host by name
func (h Hosts) Find(hostname string) (Host, bool) {
	i, found := sort.Find(len(h.hosts), func(i int) int {
		switch {
		case hostname < h.hosts[i].Hostname:
			return -1
		case hostname > h.hosts[i].Hostname:
			return 1
		}
		return 0
	})
	if !found {
		return Host{}, false
	}
	host := h.hosts[i]
	return Host{Hostname: host.Hostname, Units: slices.Clone(host.Units)}, true
}

// Hostnames returns every hostname in order
func (h Hosts) Hostnames() []string {
	names := make([]string, len(h.hosts))
	for i, host := range h.hosts {
		names[i] = host.Hostname
	}
	return names
}

// AllUnits returns the sorted, deduplicated union of units across hosts
func (h Hosts) AllUnits() []string {
	seen := make(map[string]struct{})
	for _, host := range h.hosts {
		for _, u := range host.Units {
			seen[u] = struct{}{}
		}
	}
	units := make([]string, 0, len(seen))
	for u := range seen {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// Merge combines two inventories into a new one
func (h Hosts) Merge(other Hosts) Hosts {
	m := make(map[string]map[string]struct{}, len(h.hosts)+len(other.hosts))
	for _, src := range [][]Host{h.hosts, other.hosts} {
		for _, host := range src {
			set, ok := m[host.Hostname]
			if !ok {
				set = make(map[string]struct{}, len(host.Units))
				m[host.Hostname] = set
			}
			for _, u := range host.Units {
				set[u] = struct{}{}
			}
		}
	}
	return NewHosts(m)
}
