package models

import "time"

// StatusBucket is one row of a status-grouped report. Total is only
// populated for orders.
type StatusBucket struct {
	Status string   `json:"status" bson:"_id"`
	Count  int64    `json:"count" bson:"count"`
	Total  *float64 `json:"total,omitempty" bson:"total,omitempty"`
}

// CustomerSummary is one customer derived from order history.
type CustomerSummary struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	OrderCount   int       `json:"orderCount"`
	TotalSpent   float64   `json:"totalSpent"`
	FirstOrderAt time.Time `json:"firstOrderAt"`
	LastOrderAt  time.Time `json:"lastOrderAt"`
}

// Pagination is the only page metadata list endpoints return.
type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}
