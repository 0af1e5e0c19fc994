package model

// RaceDistance identifies a race within the season.
type RaceDistance struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	DistanceKm int    `json:"distance_km"`
}
