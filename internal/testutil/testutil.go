// Package testutil provides shared helpers for integration-style tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAddrEnv overrides the Redis address used by adapter tests.
const redisAddrEnv = "CERTMAILER_TEST_REDIS_ADDR"

// SetupTestRedis creates a Redis client for testing. Tests are skipped when
// no Redis server is reachable; set CERTMAILER_TEST_REDIS_REQUIRED=1 to fail
// instead (CI).
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   9, // dedicated test database, flushed per test
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: close redis client after ping error: %v", cerr)
		}
		if os.Getenv("CERTMAILER_TEST_REDIS_REQUIRED") != "" {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis db: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelCleanup()
		_ = client.FlushDB(cleanupCtx).Err()
		_ = client.Close()
	})

	return client
}
