package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisFixedWindowLimiterAllowsWithinQuota(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatalf("first request should be allowed")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatalf("second request should be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("third request should exceed the quota")
	}
	// Other keys have their own window.
	if !limiter.Allow("5.6.7.8") {
		t.Fatalf("a different key should be unaffected")
	}
}

func TestRedisFixedWindowLimiterFailsClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 5, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("limiter should fail closed when redis is unreachable")
	}
}

func TestNewRedisFixedWindowLimiterValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "p", 5, time.Minute); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 0, time.Minute); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 5, 0); err == nil {
		t.Fatalf("expected error for non-positive window")
	}
}

func TestNilLimiterDenies(t *testing.T) {
	var limiter *FixedWindowLimiter
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("nil limiter must deny")
	}
}
