// Package docker answers one question for portkeeper: which running
// container publishes a given host port?
//
// When a configured port is busy, the usual culprit on a developer or CI
// host is a container with a published port. The "check --docker" command
// uses this package to name it. The keeper itself never talks to Docker.
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
