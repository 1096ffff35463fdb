package commission

import (
	"context"
	"log"

	"ajo/internal/utils/cache"
)

// invalidateOwnerCache drops every cached read model derived from the
// owner's check-ins.
func (s *service) invalidateOwnerCache(ctx context.Context, ownerID string) {
	keys := cache.OwnerKeys(ownerID)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[commission] error invalidating cache for %s: %v", ownerID, err)
	}
}
