package models

import "time"

// DailyIncome is one day of revenue.
type DailyIncome struct {
	Date   time.Time `json:"date"`
	Income float64   `json:"income"`
}

// MonthlyIncome is one month of revenue.
type MonthlyIncome struct {
	Date   time.Time `json:"date"`
	Income float64   `json:"income"`
}

// RevenueEvent is the revenue of one promotional character pool.
// FiveDayTotal and Peak are unordered: the peak is a single-day high.
type RevenueEvent struct {
	Name         string    `json:"name"`
	Short        string    `json:"short"`
	Date         time.Time `json:"date"`
	FiveDayTotal float64   `json:"income"`
	Peak         float64   `json:"max"`
}

// RevenueReport is the full income payload.
type RevenueReport struct {
	Daily   []DailyIncome
	Pools   []RevenueEvent
	Monthly []MonthlyIncome
	Average float64
}
