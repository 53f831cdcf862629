package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricsEvent is published to Kafka after a company's daily record commits.
type MetricsEvent struct {
	EventType          string           `json:"event_type"`
	Symbol             string           `json:"symbol"`
	Date               string           `json:"date"`
	ClosePrice         *decimal.Decimal `json:"close_price,omitempty"`
	DailyChangePercent *decimal.Decimal `json:"daily_change_percent,omitempty"`
	Timestamp          time.Time        `json:"timestamp"`
}
