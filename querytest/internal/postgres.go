package impl

import (
	"fmt"
	"hash/crc32"
)

const (
	PostgresImage       = "postgres:16"
	PostgresPassword    = "password"
	PostgresHostPortMin = 44000
	PostgresHostPortMax = 44999
)

// GetContainerName returns the canonical name for the docker container that runs a
// postgres container for this project's query tests
func GetContainerName(projectName string) string {
	return fmt.Sprintf("querytest-%s", projectName)
}

// GetPostgresHostPort returns an arbitrary but stable port number, representing a port
// on the host machine, that should be canonically used for the querytest database for
// the given project. The port is derived from a hash of the project name, so several
// projects can run their test databases side by side.
func GetPostgresHostPort(projectName string) int {
	offset := int(crc32.ChecksumIEEE([]byte(projectName)) % (PostgresHostPortMax - PostgresHostPortMin + 1))
	return PostgresHostPortMin + offset
}

// GetPostgresUri returns the 'postgres:' connection string that can be used to connect
// to the postgres server that's running in a container for the given project's query
// tests
func GetPostgresUri(projectName string) string {
	return fmt.Sprintf("postgres://postgres:%s@localhost:%d?sslmode=disable", PostgresPassword, GetPostgresHostPort(projectName))
}
