package repos

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure"
	"github.com/google/uuid"
)

const syncLockKeyPrefix = "lock:"

// SyncLockRepository is a SET NX lock shared by every instance. Each
// acquisition stores a unique token so a holder whose TTL expired cannot
// release somebody else's lock.
type SyncLockRepository struct {
	client *infrastructure.KeydbClient
	owner  string

	mu     sync.Mutex
	tokens map[string]string
}

func NewSyncLockRepository(client *infrastructure.KeydbClient) *SyncLockRepository {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "svc-storefront"
	}

	return &SyncLockRepository{
		client: client,
		owner:  host,
		tokens: make(map[string]string),
	}
}

func (r *SyncLockRepository) TryAcquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	token := fmt.Sprintf("%s/%s", r.owner, uuid.NewString())

	acquired, err := r.client.Lock(ctx, syncLockKeyPrefix+name, token, ttl)
	if err != nil || !acquired {
		return false, err
	}

	r.mu.Lock()
	r.tokens[name] = token
	r.mu.Unlock()

	return true, nil
}

func (r *SyncLockRepository) Release(ctx context.Context, name string) error {
	r.mu.Lock()
	token, ok := r.tokens[name]
	delete(r.tokens, name)
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if _, err := r.client.Unlock(ctx, syncLockKeyPrefix+name, token); err != nil {
		return err
	}

	return nil
}
