package model

import (
	"time"

	"course-purchase-platform/internal/domain"
)

type ItemKind string

const (
	ItemKindCourse ItemKind = "course"
	ItemKindNotes  ItemKind = "notes"
)

// Item is a purchasable piece of content: a course or a notes bundle.
// PricePaise == 0 means the item is free and never requires a payment leg.
type Item struct {
	ID          string
	Kind        ItemKind
	Title       string
	Description string
	PricePaise  int64
	Currency    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewItem(id string, kind ItemKind, title string, pricePaise int64) (*Item, error) {
	if id == "" || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	if pricePaise < 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch kind {
	case ItemKindCourse, ItemKindNotes:
	default:
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Item{
		ID:         id,
		Kind:       kind,
		Title:      title,
		PricePaise: pricePaise,
		Currency:   "INR",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (i *Item) IsFree() bool { return i.PricePaise == 0 }
