package compiler

import (
	"net"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
)

// PortProbe reports whether a host port is already bound on localhost.
type PortProbe interface {
	InUse(port int) bool
}

// LocalProbe checks ports by trying to listen on them.
type LocalProbe struct{}

// InUse reports whether port cannot be bound on 127.0.0.1.
func (LocalProbe) InUse(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return true
	}
	_ = ln.Close()
	return false
}

// resolvePorts filters raw port specifications down to the ones that can be
// published, preserving their order.
func (c *Compiler) resolvePorts(specs []string) ([]string, error) {
	var accepted []string
	for _, spec := range specs {
		switch strings.Count(spec, ":") {
		case 0:
			c.log.Warnf("Ignoring port %q: no host port given", spec)
		case 1:
			free, err := c.hostPortsFree(spec)
			if err != nil {
				return nil, err
			}
			if !free {
				c.log.Warnf("Ignoring port %q: host port is already bound", spec)
				continue
			}
			accepted = append(accepted, spec)
		case 2:
			c.log.Warnf("Ignoring port %q: explicit host addresses are not supported", spec)
		default:
			return nil, &InvalidPortSpecError{Spec: spec, Reason: "too many separators"}
		}
	}
	return accepted, nil
}

// hostPortsFree validates a host:container spec and probes every host port it names.
func (c *Compiler) hostPortsFree(spec string) (bool, error) {
	mappings, err := nat.ParsePortSpec(spec)
	if err != nil {
		return false, &InvalidPortSpecError{Spec: spec, Reason: err.Error()}
	}

	for _, m := range mappings {
		start, end, err := nat.ParsePortRange(m.Binding.HostPort)
		if err != nil {
			return false, &InvalidPortSpecError{Spec: spec, Reason: "missing host port"}
		}
		for port := start; port <= end; port++ {
			if c.probe.InUse(int(port)) {
				return false, nil
			}
		}
	}
	return true, nil
}
