package route

// DefaultDemoCenter anchors the placeholder animation when the caller does not
// supply a trip center (Lisbon, Praça do Comércio).
var DefaultDemoCenter = Coordinate{Lat: 38.7077, Lon: -9.1366}

// demoStops is the fixed table the waypoint generator is built from. Offsets
// are in decimal degrees relative to the trip center, small enough to stay
// within a walkable city radius.
var demoStops = [...]struct {
	latOffset float64
	lonOffset float64
	name      string
	category  Category
}{
	{0.0000, 0.0000, "Old Town Square", CategoryAttraction},
	{0.0082, 0.0051, "Casa Mirador", CategoryHotel},
	{0.0046, -0.0093, "Mercado Central Food Hall", CategoryRestaurant},
	{-0.0061, 0.0078, "Riverside Promenade Walk", CategoryActivity},
	{-0.0104, -0.0036, "Museum of City History", CategoryAttraction},
	{0.0127, -0.0059, "Hilltop Viewpoint Terrace", CategoryAttraction},
	{-0.0038, -0.0121, "Taberna do Porto", CategoryRestaurant},
	{0.0059, 0.0134, "Botanical Garden Loop", CategoryActivity},
}

// DemoWaypoints returns the placeholder points of interest for a trip centered
// on center. The result is deterministic: identical centers yield identical
// waypoints, and any two centers yield the same shape translated.
func DemoWaypoints(center Coordinate) []Waypoint {
	waypoints := make([]Waypoint, len(demoStops))
	for i, stop := range demoStops {
		waypoints[i] = Waypoint{
			Name:     stop.name,
			Category: stop.category,
			Location: Coordinate{
				Lat: center.Lat + stop.latOffset,
				Lon: center.Lon + stop.lonOffset,
			},
		}
	}
	return waypoints
}
