package inventory

import (
	"fmt"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// delimiter for koanf key paths. Hostnames routinely contain dots.
const delimiter = "/"

// Inventory holds every known host and group
type Inventory struct {
	hosts  map[string]*Host
	groups map[string]*Group
}

type fileShape struct {
	Hosts  map[string]hostShape  `koanf:"hosts"`
	Groups map[string]groupShape `koanf:"groups"`
}

type hostShape struct {
	Vars map[string]interface{} `koanf:"vars"`
}

type groupShape struct {
	Hosts []string               `koanf:"hosts"`
	Vars  map[string]interface{} `koanf:"vars"`
}

// New creates an empty inventory
func New() *Inventory {
	return &Inventory{
		hosts:  make(map[string]*Host),
		groups: make(map[string]*Group),
	}
}

// LoadFile loads an inventory from a YAML file
func LoadFile(path string) (*Inventory, error) {
	k := koanf.New(delimiter)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load inventory %s: %w", path, err)
	}
	return build(k)
}

// LoadBytes loads an inventory from YAML content
func LoadBytes(data []byte) (*Inventory, error) {
	k := koanf.New(delimiter)
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	return build(k)
}

func build(k *koanf.Koanf) (*Inventory, error) {
	var shape fileShape
	if err := k.Unmarshal("", &shape); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
	}

	inv := New()
	for name, h := range shape.Hosts {
		inv.AddHost(NewHost(name, h.Vars))
	}

	for name, g := range shape.Groups {
		group := NewGroup(name, g.Vars)
		inv.groups[name] = group
		for _, hostName := range g.Hosts {
			host, ok := inv.hosts[hostName]
			if !ok {
				// hosts may be declared only through group membership
				host = NewHost(hostName, nil)
				inv.AddHost(host)
			}
			host.AddGroup(group)
		}
	}

	return inv, nil
}

// AddHost registers a host, replacing any host with the same name
func (inv *Inventory) AddHost(host *Host) {
	inv.hosts[host.Name()] = host
}

// AddGroup registers a group and its members
func (inv *Inventory) AddGroup(group *Group, members ...*Host) {
	inv.groups[group.Name()] = group
	for _, host := range members {
		host.AddGroup(group)
		inv.hosts[host.Name()] = host
	}
}

// Host looks up a host by name
func (inv *Inventory) Host(name string) (*Host, bool) {
	host, ok := inv.hosts[name]
	return host, ok
}

// Hosts returns every host ordered by name
func (inv *Inventory) Hosts() []*Host {
	hosts := make([]*Host, 0, len(inv.hosts))
	for _, host := range inv.hosts {
		hosts = append(hosts, host)
	}
	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Name() < hosts[j].Name()
	})
	return hosts
}

// Select resolves host and group names to hosts. An empty selection means all hosts.
func (inv *Inventory) Select(names []string) ([]*Host, error) {
	if len(names) == 0 {
		return inv.Hosts(), nil
	}

	seen := make(map[string]bool)
	var selected []*Host
	add := func(host *Host) {
		if !seen[host.Name()] {
			seen[host.Name()] = true
			selected = append(selected, host)
		}
	}

	for _, name := range names {
		if host, ok := inv.hosts[name]; ok {
			add(host)
			continue
		}
		if _, ok := inv.groups[name]; ok {
			for _, host := range inv.Hosts() {
				for _, groupName := range host.GroupNames() {
					if groupName == name {
						add(host)
					}
				}
			}
			continue
		}
		return nil, fmt.Errorf("no such host or group: %s", name)
	}

	return selected, nil
}

// GroupMembers returns group name -> sorted member hostnames
func (inv *Inventory) GroupMembers() map[string][]string {
	members := make(map[string][]string, len(inv.groups))
	for name := range inv.groups {
		members[name] = []string{}
	}
	for _, host := range inv.Hosts() {
		for _, groupName := range host.GroupNames() {
			members[groupName] = append(members[groupName], host.Name())
		}
	}
	return members
}
