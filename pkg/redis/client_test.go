package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	client := FromClient(db)

	key := client.RateLimitKey("op-1")
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Second).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectIncr(key).SetVal(3)

	allowed, count, err := client.FixedWindowAllow(ctx, "op-1", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)

	allowed, count, err = client.FixedWindowAllow(ctx, "op-1", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(2), count)

	allowed, _, err = client.FixedWindowAllow(ctx, "op-1", 2, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireClaimsKeyWithTTLInOneCommand(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	client := FromClient(db)

	key := client.InFlightKey("7", "id_doc")
	mock.ExpectSetNX(key, "1", time.Minute).SetVal(true)
	mock.ExpectSetNX(key, "1", time.Minute).SetVal(false)
	mock.ExpectDel(key).SetVal(1)

	acquired, err := client.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = client.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, client.Del(ctx, key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanKeysFollowsCursor(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	client := FromClient(db)

	prefix := client.InFlightPrefix("7")
	mock.ExpectScan(0, prefix+"*", 100).SetVal([]string{prefix + "id_doc"}, 12)
	mock.ExpectScan(12, prefix+"*", 100).SetVal([]string{prefix + "guarantor_id"}, 0)

	keys, err := client.ScanKeys(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + "id_doc", prefix + "guarantor_id"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkersAgainstMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := FromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer client.Close()
	ctx := context.Background()
	identity := client.InFlightKey("2", "identity")
	income := client.InFlightKey("2", "income")

	acquired, err := client.Acquire(ctx, identity, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
	_, err = client.Acquire(ctx, income, 30*time.Second)
	require.NoError(t, err)
	_, err = client.Acquire(ctx, client.InFlightKey("20", "income"), time.Minute)
	require.NoError(t, err)

	busy, err := client.Exists(ctx, identity)
	require.NoError(t, err)
	assert.True(t, busy)
	assert.Equal(t, time.Minute, mr.TTL(identity))
	assert.Equal(t, 30*time.Second, mr.TTL(income))

	keys, err := client.ScanKeys(ctx, client.InFlightPrefix("2"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{identity, income}, keys)

	require.NoError(t, client.Del(ctx, identity))
	busy, err = client.Exists(ctx, identity)
	require.NoError(t, err)
	assert.False(t, busy)
	require.NoError(t, client.Ping(ctx))
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.InFlightKey("7", "id_doc"); got != "ld:inflight:7:id_doc" {
		t.Fatalf("unexpected in-flight key %s", got)
	}
	if got := client.InFlightPrefix("7"); got != "ld:inflight:7:" {
		t.Fatalf("unexpected in-flight prefix %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "ld:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.InFlightKey("", ""); got != "ld:inflight" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if _, err := client.Acquire(context.Background(), "k", 0); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
}
