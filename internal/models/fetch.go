package models

import "time"

// FetchRow is one raw tabular row returned by the fetch collaborator. Only
// symbol, date and val are guaranteed; the rest is filled when the source
// page carries it. Country and Index ride along on fetch paths that know them
// (index tables, component listings).
type FetchRow struct {
	Symbol  string
	Name    string
	Date    time.Time
	Open    float64
	High    float64
	Low     float64
	Val     float64
	Vol     int64
	Country string
	Index   string
}
