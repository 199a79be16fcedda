package route

// Category classifies a placeholder point of interest.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryAttraction Category = "attraction"
	CategoryHotel      Category = "hotel"
	CategoryActivity   Category = "activity"
)

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRestaurant, CategoryAttraction, CategoryHotel, CategoryActivity:
		return true
	}
	return false
}

// Waypoint is an immutable placeholder point of interest shown while the real
// itinerary is still being generated.
type Waypoint struct {
	Name     string     `json:"name"`
	Category Category   `json:"category"`
	Location Coordinate `json:"location"`
}
