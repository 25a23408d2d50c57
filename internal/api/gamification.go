package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/coreterra/internal/models"
)

// GamificationClient covers the shop and achievements
type GamificationClient struct{ c *Client }

func (c *Client) Gamification() *GamificationClient { return &GamificationClient{c: c} }

// Purchase is the backend's answer to a successful buy
type Purchase struct {
	Message string          `json:"message"`
	Item    models.ShopItem `json:"item"`
}

func (g *GamificationClient) Shop(ctx context.Context) ([]models.ShopItem, error) {
	var out []models.ShopItem
	if err := g.c.do(ctx, "gamification.shop", http.MethodGet, "/api/gamification/shop", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Buy spends gold on an item. The backend rejects it with 400 when the
// user cannot afford it and 404 for unknown items.
func (g *GamificationClient) Buy(ctx context.Context, itemID string) (*Purchase, error) {
	var out Purchase
	path := "/api/gamification/shop/" + url.PathEscape(itemID) + "/buy"
	if err := g.c.do(ctx, "gamification.buy", http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GamificationClient) Achievements(ctx context.Context) ([]models.Achievement, error) {
	var out []models.Achievement
	if err := g.c.do(ctx, "gamification.achievements", http.MethodGet, "/api/gamification/achievements", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
