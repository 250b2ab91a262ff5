package models

import "time"

// CorridorStats summarises one corridor inside a report window.
type CorridorStats struct {
	Corridor           string  `json:"corridor"`
	OriginCountry      string  `json:"origin_country"`
	DestinationCountry string  `json:"destination_country"`
	Count              int     `json:"count"`
	Volume             float64 `json:"volume"`
	AverageAmount      float64 `json:"average_amount"`
	SuccessRate        float64 `json:"success_rate"`
}

// RemittanceReport is a derived view over a closed time window. It is never stored.
type RemittanceReport struct {
	PeriodStart        time.Time       `json:"period_start"`
	PeriodEnd          time.Time       `json:"period_end"`
	TotalTransfers     int             `json:"total_transfers"`
	CompletedTransfers int             `json:"completed_transfers"`
	FailedTransfers    int             `json:"failed_transfers"`
	TotalVolume        float64         `json:"total_volume"`
	AverageAmount      float64         `json:"average_amount"`
	SuccessRate        float64         `json:"success_rate"`
	TopCorridors       []CorridorStats `json:"top_corridors"`
	GeneratedAt        time.Time       `json:"generated_at"`
}
