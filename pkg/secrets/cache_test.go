package secrets

import (
	"sync"
	"testing"
	"time"
)

type apiCreds struct {
	Token   string
	BaseURL string
}

func sampleCreds() apiCreds {
	return apiCreds{Token: "ApiKey abc123", BaseURL: "https://api.example.com"}
}

func TestCache_PutAndGet(t *testing.T) {
	cache := NewCache[apiCreds](2 * time.Second)
	key := "connect|reports"

	// should miss initially
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.Put(key, sampleCreds())

	// immediate hit
	if creds, ok := cache.Get(key); !ok {
		t.Fatal("expected cache hit")
	} else if creds.Token != "ApiKey abc123" {
		t.Errorf("expected token=ApiKey abc123, got %s", creds.Token)
	}
}

func TestCache_Expiration(t *testing.T) {
	cache := NewCache[apiCreds](500 * time.Millisecond)
	key := "connect|reports"
	cache.Put(key, sampleCreds())

	time.Sleep(600 * time.Millisecond)

	if _, ok := cache.Get(key); ok {
		t.Fatal("expected expired cache entry")
	}
}

func TestCache_Bust(t *testing.T) {
	cache := NewCache[apiCreds](5 * time.Second)
	key := "connect|reports"
	cache.Put(key, sampleCreds())

	cache.Bust(key)
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected cache miss after bust")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache[apiCreds](2 * time.Second)
	key := "connect|reports"

	var wg sync.WaitGroup
	wg.Add(2)

	// Writer
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			cache.Put(key, sampleCreds())
		}
	}()

	// Reader
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			cache.Get(key)
		}
	}()

	wg.Wait()
}
