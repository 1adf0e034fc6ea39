package models

import "time"

// UserStock is one batch of an ingredient held by a user. A user may hold
// several batches of the same ingredient (different expiry dates).
// Disabled batches are expired or used up and never count as available.
type UserStock struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"-"`
	Ingredient     StockIngredientInfo `json:"ingredient"`
	Quantity       float64             `json:"quantity"`
	ExpirationDate *Date               `json:"expiration_date"`
	Disable        bool                `json:"disable"`
	DateAdded      time.Time           `json:"date_added"`
}

// StockIngredientInfo is the ingredient summary embedded in stock responses.
type StockIngredientInfo struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	UnitOfMeasure *string `json:"unit_of_measure"`
}

// StockPatch lists the stock fields a caller may change. Nil fields are left as is.
// ClearExpiration removes the expiration date.
type StockPatch struct {
	Quantity        *float64
	ExpirationDate  *Date
	ClearExpiration bool
	Disable         *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p StockPatch) IsEmpty() bool {
	return p.Quantity == nil && p.ExpirationDate == nil && !p.ClearExpiration && p.Disable == nil
}

// Apply copies the patch onto s.
func (p StockPatch) Apply(s *UserStock) {
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	if p.ClearExpiration {
		s.ExpirationDate = nil
	} else if p.ExpirationDate != nil {
		d := *p.ExpirationDate
		s.ExpirationDate = &d
	}
	if p.Disable != nil {
		s.Disable = *p.Disable
	}
}
