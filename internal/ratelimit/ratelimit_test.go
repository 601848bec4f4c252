package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(10, 5)

	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("request %d within burst should be allowed", i)
		}
	}
	if l.Allow() {
		t.Error("request beyond burst should be denied")
	}
}

func TestLimiterRefills(t *testing.T) {
	l := NewLimiter(100, 1)

	if !l.Allow() {
		t.Fatal("first request should be allowed")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(20 * time.Millisecond)
	if !l.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestAllowN(t *testing.T) {
	l := NewLimiter(1, 10)

	if !l.AllowN(10) {
		t.Fatal("full burst should be grantable at once")
	}
	if l.AllowN(1) {
		t.Error("empty bucket should deny")
	}
}

func TestClientLimitersIsolation(t *testing.T) {
	cl := NewClientLimiters(1, 1)
	defer cl.Stop()

	if !cl.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if cl.Allow("a") {
		t.Error("a's bucket should be empty")
	}
	if !cl.Allow("b") {
		t.Error("b should have its own bucket")
	}

	if cl.Get("a") != cl.Get("a") {
		t.Error("Get should return a stable limiter per client")
	}

	cl.Remove("a")
	if !cl.Allow("a") {
		t.Error("removed client should start with a fresh bucket")
	}
}
