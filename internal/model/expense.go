package model

import (
	"strings"
	"time"
)

// Category classifies an expense.
type Category string

// Expense categories. The string values match the wire format.
const (
	CategoryFlight               Category = "flight"
	CategoryActivity             Category = "activity"
	CategoryLodging              Category = "lodging"
	CategoryCarRental            Category = "carRental"
	CategoryConcert              Category = "concert"
	CategoryCruising             Category = "cruising"
	CategoryFerry                Category = "ferry"
	CategoryGroundTransportation Category = "groundTransportation"
	CategoryRail                 Category = "rail"
	CategoryRestaurant           Category = "restaurant"
	CategoryTheater              Category = "theater"
	CategoryTour                 Category = "tour"
	CategoryTransportation       Category = "transportation"
	CategoryShopping             Category = "shopping"
	CategoryMiscellaneous        Category = "miscellaneous"
	CategoryEmergency            Category = "emergency"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryFlight,
	CategoryActivity,
	CategoryLodging,
	CategoryCarRental,
	CategoryConcert,
	CategoryCruising,
	CategoryFerry,
	CategoryGroundTransportation,
	CategoryRail,
	CategoryRestaurant,
	CategoryTheater,
	CategoryTour,
	CategoryTransportation,
	CategoryShopping,
	CategoryMiscellaneous,
	CategoryEmergency,
}

var categoryNames = map[Category]string{
	CategoryFlight:               "Flight",
	CategoryActivity:             "Activity",
	CategoryLodging:              "Lodging",
	CategoryCarRental:            "Car Rental",
	CategoryConcert:              "Concert",
	CategoryCruising:             "Cruising",
	CategoryFerry:                "Ferry",
	CategoryGroundTransportation: "Ground Transportation",
	CategoryRail:                 "Rail",
	CategoryRestaurant:           "Restaurant",
	CategoryTheater:              "Theater",
	CategoryTour:                 "Tour",
	CategoryTransportation:       "Transportation",
	CategoryShopping:             "Shopping",
	CategoryMiscellaneous:        "Miscellaneous",
	CategoryEmergency:            "Emergency",
}

// DisplayName returns the human-readable category name.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryMiscellaneous]
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory maps a raw category string to a Category.
// Matching is case-insensitive; unknown values become miscellaneous.
func ParseCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(string(c), raw) {
			return c
		}
	}
	return CategoryMiscellaneous
}

// Expense is a read-only snapshot of one recorded expense.
type Expense struct {
	ID          string
	Amount      float64
	OccurredAt  time.Time
	Description string
	Category    Category
	TripID      string // empty when the expense was never tagged with a trip
}

// HasTripID reports whether the expense carries a trip reference.
func (e Expense) HasTripID() bool {
	return e.TripID != ""
}
