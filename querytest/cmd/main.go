/*
The querytest command manages a throwaway postgres server, running in docker, with the
hmac-auth schema applied, so that query tests have a live database to run against.

Usage:

	go run github.com/golden-vcr/hmac-auth/querytest/cmd [up|down|restart]

	up (default) | Ensures that a postgres server is running for this project
	down         | Shuts down the server, if running
	restart      | Shuts down any existing server, then starts a new one

The container is named 'querytest-<project-name>' and listens on a host port derived
from a hash of the project name. Tests that call querytest.Prepare or
querytest.PrepareTx are skipped while it isn't running.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golden-vcr/hmac-auth/db"
	impl "github.com/golden-vcr/hmac-auth/querytest/internal"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command != "up" && command != "down" && command != "restart" {
		log.Fatalf("Unknown command '%s' (expected up|down|restart)", command)
	}

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer close()

	if !impl.IsDockerInstalled(ctx) {
		log.Fatalf("docker is not installed")
	}
	rootDir, err := impl.FindProjectRootDir()
	if err != nil {
		log.Fatalf("failed to find project root dir: %v", err)
	}
	projectName := impl.GetProjectName(rootDir)
	containerName := impl.GetContainerName(projectName)
	hostPort := impl.GetPostgresHostPort(projectName)
	fmt.Printf("Project:        %s\n", projectName)
	fmt.Printf("Container name: %s\n", containerName)
	fmt.Printf("Host port:      %d\n", hostPort)

	containerId, err := impl.FindContainerId(ctx, containerName)
	running := err == nil
	if err != nil && !errors.Is(err, impl.ErrNoSuchContainer) {
		log.Fatal(err)
	}

	if running {
		fmt.Printf("Container ID:   %s\n", containerId)
		if command == "up" {
			fmt.Printf("\n%s\n", impl.GetPostgresUri(projectName))
			return
		}
		if err := impl.StopContainer(ctx, containerId); err != nil {
			log.Fatalf("failed to stop container %s: %v", containerId, err)
		}
		fmt.Printf("Container stopped.\n")
	} else {
		fmt.Printf("Container is not running.\n")
	}
	if command == "down" {
		return
	}

	containerId, err = impl.StartPostgresContainer(ctx, containerName, hostPort)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}
	fmt.Printf("Container ID:   %s\n\n", containerId)

	readyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := impl.WaitUntilReady(readyCtx, containerId); err != nil {
		log.Fatalf("database did not become ready: %v", err)
	}

	uri := impl.GetPostgresUri(projectName)
	conn, err := db.Open(ctx, uri)
	if err != nil {
		log.Fatalf("failed to connect to querytest database: %v", err)
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	fmt.Printf("\n%s\n", uri)
}
