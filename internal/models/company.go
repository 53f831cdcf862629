package models

import "time"

// Company represents an S&P 500 constituent. The reference set is maintained
// by a separate population process; the collection pipeline only reads it.
type Company struct {
	Symbol      string     `json:"symbol"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	AddedDate   time.Time  `json:"added_date"`
	RemovedDate *time.Time `json:"removed_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
