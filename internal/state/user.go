package state

import (
	"context"
	"fmt"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/models"
)

// UpdateProfile saves patch and caches the server's user
func (s *Store) UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	u, err := s.client.Users().UpdateMe(ctx, patch)
	if err != nil {
		return nil, s.fail("update profile", err)
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.publish()
	return u, nil
}

// BuyItem spends gold on item. It refuses without a request when the cached
// balance is too low, then reloads the user after a purchase.
func (s *Store) BuyItem(ctx context.Context, item models.ShopItem) (*api.Purchase, error) {
	u, ok := s.User()
	if !ok {
		return nil, ErrNoUser
	}
	if u.Gold < item.Cost {
		return nil, fmt.Errorf("%s costs %d, you have %d: %w", item.Name, item.Cost, u.Gold, ErrNotEnoughGold)
	}

	p, err := s.client.Gamification().Buy(ctx, item.ID)
	if err != nil {
		return nil, s.fail("buy item", err)
	}
	if err := s.RefreshUser(ctx); err != nil {
		return p, err
	}
	s.notify(models.Notification{
		Kind:    models.NotifyPurchase,
		Message: fmt.Sprintf("Bought %s for %d G", item.Name, item.Cost),
	})
	return p, nil
}
