package httpx

import (
	"testing"
	"time"
)

func TestMemoryRateLimiterEnforcesWindow(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if d := rl.Allow("ip:10.0.0.1", 3, time.Minute); !d.allowed {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if d := rl.Allow("ip:10.0.0.1", 3, time.Minute); d.allowed {
		t.Fatal("fourth request should be rejected")
	}
	// A different key has its own window.
	if d := rl.Allow("ip:10.0.0.2", 3, time.Minute); !d.allowed {
		t.Fatal("other key should not share the window")
	}
}

func TestMemoryRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	if d := rl.Allow("voter:v1", 1, 30*time.Millisecond); !d.allowed {
		t.Fatal("first request should pass")
	}
	if d := rl.Allow("voter:v1", 1, 30*time.Millisecond); d.allowed {
		t.Fatal("second request inside the window should be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if d := rl.Allow("voter:v1", 1, 30*time.Millisecond); !d.allowed {
		t.Fatal("request after the window elapsed should pass")
	}
}

func TestMemoryRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewMemoryRateLimiter()
	rl.Close()
	// Swapping limiters at startup closes the default one; a second Close
	// from shutdown must not panic.
	rl.Close()
	if d := rl.Allow("ip:10.0.0.1", 1, time.Minute); !d.allowed {
		t.Fatal("a closed limiter still answers Allow")
	}
}
