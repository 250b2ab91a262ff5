package models

import "time"

// Currency is a supported currency. RateToBase is the number of units of
// this currency per one unit of the base currency (USD).
type Currency struct {
	Code       string    `gorm:"primaryKey;size:3" json:"code"`
	Name       string    `gorm:"not null" json:"name"`
	Symbol     string    `json:"symbol"`
	Decimals   int       `gorm:"default:2" json:"decimals"`
	RateToBase float64   `gorm:"not null" json:"rate_to_base"`
	Country    string    `gorm:"size:2" json:"country"`
	IsStable   bool      `gorm:"default:false" json:"is_stable"`
	UpdatedAt  time.Time `json:"updated_at"`
}
