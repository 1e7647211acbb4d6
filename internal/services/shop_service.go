package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/events"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientCoins = errors.New("not enough coins")
)

type ShopService struct {
	shopRepo  *repositories.ShopRepository
	gamRepo   *repositories.GamificationRepository
	feedRepo  *repositories.FeedRepository
	userRepo  *repositories.UserRepository
	publisher events.Publisher
	rng       *rand.Rand
}

func NewShopService(shopRepo *repositories.ShopRepository, gamRepo *repositories.GamificationRepository, feedRepo *repositories.FeedRepository, userRepo *repositories.UserRepository, publisher events.Publisher) *ShopService {
	return &ShopService{
		shopRepo:  shopRepo,
		gamRepo:   gamRepo,
		feedRepo:  feedRepo,
		userRepo:  userRepo,
		publisher: publisher,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ItemView is a shop item with the mystery box contents summarized for
// display instead of exposing weights.
type ItemView struct {
	models.ShopItem
	PossiblePrizes []string `json:"possible_prizes,omitempty"`
}

func (s *ShopService) ListItems(ctx context.Context, companyID uuid.UUID) ([]ItemView, error) {
	items, err := s.shopRepo.ListVisible(ctx, companyID)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		view := ItemView{ShopItem: item}
		if item.Type == models.ItemMysteryBox {
			for _, entry := range item.Attributes.LootTable {
				if entry.Type == "miss" {
					continue
				}
				view.PossiblePrizes = append(view.PossiblePrizes, entry.Name)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// PurchaseResult reports what the user walked away with. Prize is set only
// for mystery boxes.
type PurchaseResult struct {
	Item    *models.ShopItem  `json:"item"`
	Balance int64             `json:"balance"`
	Prize   *models.LootEntry `json:"prize,omitempty"`
}

// Buy deducts the price, records the purchase and, for mystery boxes,
// draws a prize from the loot table.
func (s *ShopService) Buy(ctx context.Context, userID uuid.UUID, itemID uuid.UUID) (*PurchaseResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CompanyID == nil {
		return nil, errors.New("user not found")
	}

	item, err := s.shopRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.CompanyID != nil && *item.CompanyID != *user.CompanyID {
		return nil, ErrItemNotFound
	}

	profile, err := s.gamRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.Coins < item.Price {
		return nil, ErrInsufficientCoins
	}

	profile.Coins -= item.Price
	result := &PurchaseResult{Item: item}

	var prize *models.LootEntry
	if item.Type == models.ItemMysteryBox {
		prize = DrawLoot(s.rng, item.Attributes.LootTable)
		if prize != nil && prize.Type == "coins" {
			profile.Coins += prize.Amount
		}
		result.Prize = prize
	}

	if err := s.gamRepo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	result.Balance = profile.Coins

	tx := &models.Transaction{
		UserID: userID,
		Amount: -item.Price,
		Reason: fmt.Sprintf("Purchase: %s", item.Name),
	}
	if err := s.gamRepo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if prize != nil && prize.Type == "coins" && prize.Amount > 0 {
		win := &models.Transaction{
			UserID: userID,
			Amount: prize.Amount,
			Reason: fmt.Sprintf("Mystery box prize: %s", prize.Name),
		}
		if err := s.gamRepo.CreateTransaction(ctx, win); err != nil {
			return nil, err
		}
	}

	// A mystery box is consumed the moment it is opened.
	inv := &models.UserInventory{UserID: userID, ItemID: item.ID, IsUsed: item.Type == models.ItemMysteryBox}
	if err := s.shopRepo.CreateInventory(ctx, inv); err != nil {
		return nil, err
	}

	s.announcePurchase(ctx, user, item, prize)
	return result, nil
}

// announcePurchase drops a feed event for mystery box wins worth bragging
// about. Misses and plain purchases stay quiet.
func (s *ShopService) announcePurchase(ctx context.Context, user *models.User, item *models.ShopItem, prize *models.LootEntry) {
	if prize == nil || prize.Type == "miss" {
		return
	}

	event := &models.FeedEvent{
		CompanyID: *user.CompanyID,
		UserID:    user.ID,
		EventType: "PRIZE_WON",
		Message:   fmt.Sprintf("%s opened a %s and won %s!", user.DisplayName(), item.Name, prize.Name),
		Metadata: map[string]any{
			"item_id":    item.ID.String(),
			"prize_name": prize.Name,
			"prize_type": prize.Type,
		},
	}
	if err := s.feedRepo.CreateEvent(ctx, event); err != nil {
		return
	}

	s.publisher.Publish(ctx, events.TopicFeed, events.Message{
		Type:      "PRIZE_WON",
		CompanyID: user.CompanyID.String(),
		UserID:    user.ID.String(),
		Payload:   event.Metadata,
		CreatedAt: time.Now(),
	})

	// Tangible prizes need someone to actually hand them over.
	if prize.Type != "coins" {
		s.publisher.Publish(ctx, events.TopicAdmin, events.Message{
			Type:      "PRIZE_FULFILLMENT",
			CompanyID: user.CompanyID.String(),
			UserID:    user.ID.String(),
			Payload: map[string]any{
				"winner":     user.DisplayName(),
				"item_name":  item.Name,
				"prize_name": prize.Name,
				"prize_type": prize.Type,
			},
			CreatedAt: time.Now(),
		})
	}
}

// DrawLoot picks one entry weighted by Weight. Entries with a zero or
// negative weight still take part with an effective weight of 1, so a
// misconfigured table never makes a prize unreachable. A nil return means
// the table was empty.
func DrawLoot(rng *rand.Rand, table []models.LootEntry) *models.LootEntry {
	if len(table) == 0 {
		return nil
	}

	weight := func(w int) int {
		if w <= 0 {
			return 1
		}
		return w
	}

	total := 0
	for _, entry := range table {
		total += weight(entry.Weight)
	}

	roll := rng.Intn(total)
	for i := range table {
		w := weight(table[i].Weight)
		if roll < w {
			return &table[i]
		}
		roll -= w
	}
	return nil
}
