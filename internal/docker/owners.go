package docker

import (
	"context"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

// PublishedPort is one host port a container publishes.
type PublishedPort struct {
	// HostPort is the port bound on the host.
	HostPort int

	// Protocol is "tcp" or "udp".
	Protocol string

	// Container is the container name without Docker's leading "/".
	Container string
}

// ListPublishedPorts returns every TCP host port published by a running
// container. The daemon filters on state server-side.
func ListPublishedPorts(ctx context.Context, cli *Client) ([]PublishedPort, error) {
	containers, err := cli.inner.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("status", "running")),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "failed to list Docker containers", err)
	}

	var published []PublishedPort
	for _, c := range containers {
		name := containerName(c.Names, c.ID)
		for _, p := range c.Ports {
			if p.PublicPort == 0 {
				continue
			}
			published = append(published, PublishedPort{
				HostPort:  int(p.PublicPort),
				Protocol:  p.Type,
				Container: name,
			})
		}
	}
	return published, nil
}

// PublishedPortOwners lists running containers and returns, for each of
// the given ports that a container publishes over TCP, that container's
// name.
func PublishedPortOwners(ctx context.Context, cli *Client, ports []int) (map[int]string, error) {
	published, err := ListPublishedPorts(ctx, cli)
	if err != nil {
		return nil, err
	}
	return MatchOwners(published, ports), nil
}

// MatchOwners maps each wanted port to the container publishing it over
// TCP. A port published by several containers (one per address family,
// typically the same container) reports the names sorted and joined.
func MatchOwners(published []PublishedPort, ports []int) map[int]string {
	wanted := make(map[int]struct{}, len(ports))
	for _, p := range ports {
		wanted[p] = struct{}{}
	}

	names := make(map[int][]string)
	for _, pp := range published {
		if pp.Protocol != "" && pp.Protocol != "tcp" {
			continue
		}
		if _, ok := wanted[pp.HostPort]; !ok {
			continue
		}
		if !contains(names[pp.HostPort], pp.Container) {
			names[pp.HostPort] = append(names[pp.HostPort], pp.Container)
		}
	}

	owners := make(map[int]string, len(names))
	for p, ns := range names {
		sort.Strings(ns)
		owners[p] = strings.Join(ns, ",")
	}
	return owners
}

// containerName returns the first container name without Docker's leading
// "/", falling back to the short ID.
func containerName(names []string, id string) string {
	if len(names) > 0 {
		return strings.TrimPrefix(names[0], "/")
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
