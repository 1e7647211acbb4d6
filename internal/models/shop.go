package models

import (
	"time"

	"github.com/google/uuid"
)

type ShopItemType string

const (
	ItemReal       ShopItemType = "REAL"
	ItemDigital    ShopItemType = "DIGITAL"
	ItemMysteryBox ShopItemType = "MYSTERY_BOX"
)

// LootEntry is one weighted outcome in a mystery box loot table.
type LootEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // coins, real, physical, title or miss
	Amount      int64  `json:"amount,omitempty"`
	Weight      int    `json:"weight"`
	Description string `json:"description,omitempty"`
}

// ShopItemAttributes is the free-form attributes JSON column. Only the
// loot_table key is interpreted by the backend.
type ShopItemAttributes struct {
	LootTable []LootEntry `json:"loot_table,omitempty"`
}

// ShopItem is a purchasable reward. A nil CompanyID makes the item global.
type ShopItem struct {
	ID         uuid.UUID          `json:"id"`
	CompanyID  *uuid.UUID         `json:"company_id,omitempty"`
	Name       string             `json:"name"`
	Price      int64              `json:"price"`
	ImageURL   *string            `json:"image_url,omitempty"`
	Type       ShopItemType       `json:"type"`
	Attributes ShopItemAttributes `json:"attributes"`
}

func (i *ShopItem) Prepare() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Type == "" {
		i.Type = ItemReal
	}
}

type UserInventory struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ItemID      uuid.UUID `json:"item_id"`
	PurchasedAt time.Time `json:"purchased_at"`
	IsUsed      bool      `json:"is_used"`
}

func (i *UserInventory) Prepare() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
}
