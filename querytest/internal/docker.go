package impl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ErrNoSuchContainer is returned when a docker command completed normally but the
// container it was asked about doesn't exist
var ErrNoSuchContainer = errors.New("no such container")

// ContainerId is the hex ID docker reports for a container
type ContainerId string

// IsDockerInstalled returns true if the docker CLI is in the PATH
func IsDockerInstalled(ctx context.Context) bool {
	return exec.CommandContext(ctx, "docker", "-v").Run() == nil
}

// FindContainerId returns the ID of the running container with the given name, or
// ErrNoSuchContainer
func FindContainerId(ctx context.Context, containerName string) (ContainerId, error) {
	output, err := exec.CommandContext(ctx,
		"docker", "ps",
		"--filter", fmt.Sprintf("name=^%s$", containerName),
		"--format", "{{.ID}}",
	).Output()
	if err != nil {
		return "", fmt.Errorf("docker ps failed: %w", err)
	}
	containerId, err := parseContainerIdFromOutput(output)
	if err != nil {
		return "", fmt.Errorf("no running container named %s: %w", containerName, ErrNoSuchContainer)
	}
	return containerId, nil
}

// StartPostgresContainer runs a detached, auto-removed postgres container publishing
// port 5432 on hostPort
func StartPostgresContainer(ctx context.Context, containerName string, hostPort int) (ContainerId, error) {
	output, err := exec.CommandContext(ctx,
		"docker", "run", "--rm", "-d",
		"--name", containerName,
		"-e", fmt.Sprintf("POSTGRES_PASSWORD=%s", PostgresPassword),
		"-p", fmt.Sprintf("%d:5432", hostPort),
		PostgresImage,
	).Output()
	if err != nil {
		return "", fmt.Errorf("docker run failed: %w", err)
	}
	containerId, err := parseContainerIdFromOutput(output)
	if err != nil {
		return "", fmt.Errorf("failed to parse container ID from docker run output: %w", err)
	}
	return containerId, nil
}

// WaitUntilReady follows the container's log output until postgres reports that it's
// accepting connections, or until ctx is done
func WaitUntilReady(ctx context.Context, containerId ContainerId) error {
	cmd := exec.CommandContext(ctx, "docker", "logs", "-f", string(containerId))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open pipe for docker logs: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to run docker logs: %w", err)
	}
	defer cmd.Process.Kill()

	// The official image starts postgres twice (once to run init scripts), so wait
	// for the second announcement
	const readyLine = "database system is ready to accept connections"
	seen := 0
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), readyLine) {
			seen++
			if seen == 2 {
				return nil
			}
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("container output ended before database became ready")
}

// StopContainer terminates the container with the given ID
func StopContainer(ctx context.Context, containerId ContainerId) error {
	return exec.CommandContext(ctx, "docker", "stop", string(containerId)).Run()
}

var containerIdRegex = regexp.MustCompile("^[0-9a-f]{12,}$")

func parseContainerIdFromOutput(output []byte) (ContainerId, error) {
	line, _, _ := strings.Cut(string(output), "\n")
	line = strings.TrimSpace(line)
	if !containerIdRegex.MatchString(line) {
		return "", fmt.Errorf("invalid container ID")
	}
	return ContainerId(line), nil
}
