package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/moot/pkg/adapters/memory"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
	"github.com/aretw0/moot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates storage latency to provoke race conditions if the
// controller's per-session serialization is missing.
type slowStore struct {
	inner *memory.Store
}

func (s *slowStore) Create(ctx context.Context, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond)
	return s.inner.Create(ctx, sess)
}

func (s *slowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond)
	return s.inner.Load(ctx, id)
}

func (s *slowStore) Update(ctx context.Context, sess *domain.Session, guard ports.Guard) error {
	time.Sleep(5 * time.Millisecond)
	return s.inner.Update(ctx, sess, guard)
}

func (s *slowStore) Delete(ctx context.Context, id string) error {
	return s.inner.Delete(ctx, id)
}

func (s *slowStore) List(ctx context.Context) ([]string, error) {
	return s.inner.List(ctx)
}

func TestController_SerializesWritersPerSession(t *testing.T) {
	store := &slowStore{inner: memory.NewStore()}
	catalog := memory.NewCatalog(testScenario())
	controller := session.NewController(catalog, store, memory.NewEvaluator())
	ctx := context.Background()

	sess, err := controller.CreateSession(ctx, "contract-dispute", "owner-1")
	require.NoError(t, err)

	// Hammer every step with several racers. With slow IO and no
	// serialization this would record duplicate steps; with it, exactly
	// one racer per step wins.
	for step := 1; step <= sess.TotalSteps; step++ {
		var wg sync.WaitGroup
		accepted := 0
		var mu sync.Mutex
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := controller.SubmitDecision(ctx, sess.ID, step, fmt.Sprintf("racer %d", i))
				if err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, accepted, "step %d", step)
	}

	final, err := controller.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, final.Decisions, final.TotalSteps)
	for i, d := range final.Decisions {
		assert.Equal(t, i+1, d.Step)
	}
}
