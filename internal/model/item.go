package model

import "time"

// Item represents a cataloged collectible.
type Item struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description *string   `json:"description"`
	ISBNSKU     *string   `json:"isbn_sku"`
	Image       *string   `json:"image"`
	Rating      *float64  `json:"rating"`
	Quantity    int       `json:"quantity"`
	Size        *string   `json:"size"`
	Brand       *string   `json:"brand"`
	System      *string   `json:"system"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Recognized item types. The type column is an open enum: any non-empty
// string is stored, these are just the values the app knows by name.
const (
	TypeVideoGame   = "video_game"
	TypeDVD         = "dvd"
	TypeBluray      = "bluray"
	TypeBoardGame   = "board_game"
	TypeRecord      = "record"
	TypeComicBook   = "comic_book"
	TypeBook        = "book"
	TypeFunkoPop    = "funko_pop"
	TypeSneakers    = "sneakers"
	TypeCoin        = "coin"
	TypeTradingCard = "trading_card"
)

// ItemInput is the payload for creating an item, either directly or
// through a bulk import.
type ItemInput struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Description *string  `json:"description"`
	ISBNSKU     *string  `json:"isbn_sku"`
	Image       *string  `json:"image"`
	Rating      *float64 `json:"rating"`
	Quantity    *int     `json:"quantity"`
	Size        *string  `json:"size"`
	Brand       *string  `json:"brand"`
	System      *string  `json:"system"`
	Deleted     bool     `json:"deleted"`
}

// ItemPatch is a partial update. Nil means "leave the field untouched";
// a pointer to the empty string clears an optional field.
type ItemPatch struct {
	Title       *string  `json:"title"`
	Type        *string  `json:"type"`
	Description *string  `json:"description"`
	ISBNSKU     *string  `json:"isbn_sku"`
	Image       *string  `json:"image"`
	Rating      *float64 `json:"rating"`
	Quantity    *int     `json:"quantity"`
	Size        *string  `json:"size"`
	Brand       *string  `json:"brand"`
	System      *string  `json:"system"`
}

// ItemFilter narrows a listing. Zero values mean "no constraint", except
// OnlyDeleted which overrides IncludeDeleted when both are set.
type ItemFilter struct {
	Search         string
	Type           string
	Brand          string
	System         string
	MinRating      float64
	IncludeDeleted bool
	OnlyDeleted    bool
}
