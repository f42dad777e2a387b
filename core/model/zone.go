package model

// LandmarkType classifies a named point of interest inside a zone.
type LandmarkType string

const (
	LandmarkCommercial  LandmarkType = "commercial"
	LandmarkResidential LandmarkType = "residential"
	LandmarkIndustrial  LandmarkType = "industrial"
	LandmarkTransport   LandmarkType = "transport"
)

// Landmark is a named point of interest enriching a resolved zone.
type Landmark struct {
	Name     string       `json:"name"`
	Position Coordinate   `json:"position"`
	Type     LandmarkType `json:"type"`
}

// BoundingBox is an axis-aligned lat/lng rectangle.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether the point lies inside the box, borders included.
func (b BoundingBox) Contains(p Coordinate) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// CityZone is a named city area with its bounding box, center and landmarks.
type CityZone struct {
	Name      string      `json:"name"`
	Box       BoundingBox `json:"box"`
	Center    Coordinate  `json:"center"`
	Landmarks []Landmark  `json:"landmarks,omitempty"`
}
