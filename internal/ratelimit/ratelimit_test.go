package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	// Test connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, cleanup
}

func TestTokenBucket_Allow(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	// Create token bucket with 5 tokens, refill 5 per minute
	bucket := NewTokenBucket(redisClient, 5, 5)

	ctx := context.Background()
	userID := "photographer_1"
	action := "upload-urls"

	// Test that we can consume tokens up to the limit
	for i := 0; i < 5; i++ {
		allowed, remaining, err := bucket.Allow(ctx, userID, action)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if remaining != int64(4-i) {
			t.Fatalf("Expected %d remaining after request %d, got %d", 4-i, i+1, remaining)
		}
	}

	// Test that the 6th request is denied
	allowed, remaining, err := bucket.Allow(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request to be denied after limit reached")
	}
	if remaining != 0 {
		t.Fatalf("Expected 0 remaining tokens, got %d", remaining)
	}
}

func TestTokenBucket_IsolatesUsersAndActions(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 1, 1)
	ctx := context.Background()

	allowed, _, err := bucket.Allow(ctx, "user_a", "upload-urls")
	if err != nil || !allowed {
		t.Fatalf("first request for user_a: allowed=%v err=%v", allowed, err)
	}
	allowed, _, _ = bucket.Allow(ctx, "user_a", "upload-urls")
	if allowed {
		t.Fatal("user_a should be exhausted")
	}

	// A different user and a different action both have their own buckets.
	allowed, _, err = bucket.Allow(ctx, "user_b", "upload-urls")
	if err != nil || !allowed {
		t.Fatalf("user_b should be unaffected: allowed=%v err=%v", allowed, err)
	}
	allowed, _, err = bucket.Allow(ctx, "user_a", "complete-upload")
	if err != nil || !allowed {
		t.Fatalf("other action should be unaffected: allowed=%v err=%v", allowed, err)
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 5, 5)

	ctx := context.Background()
	userID := "photographer_2"
	action := "complete-upload"

	// Consume all tokens
	for i := 0; i < 5; i++ {
		bucket.Allow(ctx, userID, action)
	}

	// Reset the bucket
	err := bucket.Reset(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Should be able to consume tokens again
	allowed, remaining, err := bucket.Allow(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected request to be allowed after reset")
	}
	if remaining != 4 {
		t.Fatalf("Expected 4 remaining tokens after reset, got %d", remaining)
	}
}

func TestTokenBucket_Capacity(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 30, 30)
	if bucket.Capacity() != 30 {
		t.Fatalf("Capacity() = %d, want 30", bucket.Capacity())
	}
}
