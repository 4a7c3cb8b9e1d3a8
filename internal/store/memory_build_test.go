package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBuildRegistry_GetMissing(t *testing.T) {
	r := NewMemoryBuildRegistry()

	_, err := r.Get(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestMemoryBuildRegistry_PutSupersedes(t *testing.T) {
	r := NewMemoryBuildRegistry()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Put(ctx, &domain.TenantBuildInfo{TenantID: "t1", BuildURL: "https://old", LastUpdated: now}))
	require.NoError(t, r.Put(ctx, &domain.TenantBuildInfo{TenantID: "t1", BuildURL: "https://new", LastUpdated: now, Active: true}))

	got, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "https://new", got.BuildURL)
	assert.True(t, got.Active)
	assert.Equal(t, 1, r.Len())
}

func TestMemoryBuildRegistry_ReturnsCopies(t *testing.T) {
	r := NewMemoryBuildRegistry()
	ctx := context.Background()

	in := &domain.TenantBuildInfo{TenantID: "t1", BuildURL: "https://a"}
	require.NoError(t, r.Put(ctx, in))
	in.BuildURL = "https://mutated"

	got, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "https://a", got.BuildURL)

	got.BuildURL = "https://also-mutated"
	again, _ := r.Get(ctx, "t1")
	assert.Equal(t, "https://a", again.BuildURL)
}

func TestMemoryBuildRegistry_ConcurrentTenants(t *testing.T) {
	r := NewMemoryBuildRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("tenant-%d", i%10)
			_ = r.Put(ctx, &domain.TenantBuildInfo{TenantID: id, BuildURL: "https://" + id})
			_, _ = r.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}
