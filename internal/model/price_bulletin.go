package model

import (
	"time"

	"github.com/google/uuid"
)

type BulletinStatus string

const (
	BulletinStatusDraft     BulletinStatus = "DRAFT"
	BulletinStatusPublished BulletinStatus = "PUBLISHED"
	BulletinStatusArchived  BulletinStatus = "ARCHIVED"
)

// PriceBulletin is a versioned, region-scoped product price list.
type PriceBulletin struct {
	ID          uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	Number      string              `json:"number"`
	Region      string              `json:"region"`
	Version     int                 `json:"version"`
	ValidFrom   time.Time           `json:"valid_from"`
	ValidTo     *time.Time          `json:"valid_to,omitempty"`
	Status      BulletinStatus      `json:"status"`
	SourceJobID *uuid.UUID          `json:"source_job_id,omitempty" gorm:"type:uuid"`
	PublishedAt *time.Time          `json:"published_at,omitempty"`
	CreatedBy   uuid.UUID           `json:"created_by" gorm:"type:uuid"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []PriceBulletinItem `json:"items,omitempty" gorm:"foreignKey:BulletinID;constraint:OnDelete:CASCADE"`
}

func (PriceBulletin) TableName() string { return "price_bulletins" }

// CoversDate reports whether day falls inside the bulletin validity window.
// ValidTo is inclusive; a nil ValidTo leaves the window open.
func (b PriceBulletin) CoversDate(day time.Time) bool {
	if day.Before(b.ValidFrom) {
		return false
	}
	return b.ValidTo == nil || !day.After(*b.ValidTo)
}

// Supersedes reports whether b takes precedence over other when both cover
// the same day: the higher version wins, then the later valid_from.
// BulletinRepository.FindQuotes orders its SQL by the same rule.
func (b PriceBulletin) Supersedes(other PriceBulletin) bool {
	if b.Version != other.Version {
		return b.Version > other.Version
	}
	return b.ValidFrom.After(other.ValidFrom)
}

type PriceBulletinItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BulletinID  uuid.UUID `json:"bulletin_id" gorm:"type:uuid"`
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid"`
	ProductCode string    `json:"product_code" gorm:"->"`
	ProductName string    `json:"product_name" gorm:"->"`
	Unit        string    `json:"unit" gorm:"->"`
	UnitPrice   float64   `json:"unit_price"`
}

func (PriceBulletinItem) TableName() string { return "price_bulletin_items" }

// PriceQuote is the resolved unit price of one product for a region and day.
type PriceQuote struct {
	ProductID  uuid.UUID  `json:"product_id"`
	UnitPrice  float64    `json:"unit_price"`
	BulletinID *uuid.UUID `json:"bulletin_id,omitempty"`
	Found      bool       `json:"found"`
}
