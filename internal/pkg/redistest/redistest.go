//go:build integration

// Package redistest starts a throwaway Redis container for integration tests.
package redistest

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// New returns a client connected to a fresh Redis container. The container
// is purged when the test ends.
func New(t *testing.T) *redis.Client {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	require.NoError(t, pool.Client.Ping())

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	require.NoError(t, resource.Expire(120))

	rdb := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	t.Cleanup(func() { _ = rdb.Close() })

	pool.MaxWait = time.Minute
	require.NoError(t, pool.Retry(func() error {
		return rdb.Ping(context.Background()).Err()
	}))

	return rdb
}

// Clone opens a second client on the same server, standing in for another
// instance of the service.
func Clone(t *testing.T, rdb *redis.Client) *redis.Client {
	t.Helper()

	other := redis.NewClient(&redis.Options{Addr: rdb.Options().Addr})
	t.Cleanup(func() { _ = other.Close() })

	return other
}
