package contracts

import "time"

// Sample is one (date, price) observation of an underlying
type Sample struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}
