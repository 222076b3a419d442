package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
)

// setRecorder accepts SET commands without a server.
type setRecorder struct {
	redis.Cmdable
	sets int
}

func (r *setRecorder) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	r.sets++
	return redis.NewStatusResult("OK", nil)
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_Set_CacheSizeTracksLastEntry(t *testing.T) {
	rec := &setRecorder{}
	manager := NewManager(rec)
	ctx := context.Background()
	key := CacheKey{Endpoint: "https://example.com/graphql", Query: testQuery}

	large := &CacheEntry{Data: []byte(`{"data":{"categories":{"nodes":[{"slug":"news"}]}}}`), Expires: time.Now().Add(time.Minute)}
	small := &CacheEntry{Data: []byte(`{"data":{}}`), Expires: time.Now().Add(time.Minute)}

	// Overwriting the same key must not accumulate.
	for _, entry := range []*CacheEntry{large, large, small} {
		if err := manager.Set(ctx, key, entry); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	want, err := json.Marshal(small)
	if err != nil {
		t.Fatal(err)
	}
	var m dto.Metric
	if err := CacheSize.WithLabelValues("redis").Write(&m); err != nil {
		t.Fatal(err)
	}
	if got := m.GetGauge().GetValue(); got != float64(len(want)) {
		t.Errorf("cache size = %v, want %d", got, len(want))
	}
	if rec.sets != 3 {
		t.Errorf("redis saw %d sets, want 3", rec.sets)
	}
}

func TestManager_Set_SkipsExpired(t *testing.T) {
	rec := &setRecorder{}
	manager := NewManager(rec)

	entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(-time.Minute)}
	if err := manager.Set(context.Background(), CacheKey{Query: testQuery}, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if rec.sets != 0 {
		t.Errorf("expired entry reached redis")
	}
}
