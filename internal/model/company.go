package model

import "github.com/guregu/null/v6"

// Company holds core descriptive metadata for a ticker.
type Company struct {
	Ticker            string      `json:"ticker"`
	LongName          null.String `json:"long_name"`
	Sector            null.String `json:"sector"`
	Industry          null.String `json:"industry"`
	Country           null.String `json:"country"`
	MarketCap         null.Int    `json:"market_cap"`
	FullTimeEmployees null.Int    `json:"full_time_employees"`
	Website           null.String `json:"website"`
}
