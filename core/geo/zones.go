package geo

import "github.com/tambula/dispatch/core/model"

// DefaultZones returns the built-in Kinshasa zone table. Bounding boxes
// overlap on commune borders; Resolver disambiguates by nearest center.
func DefaultZones() []model.CityZone {
	return []model.CityZone{
		{
			Name:   "Gombe",
			Box:    model.BoundingBox{MinLat: -4.325, MaxLat: -4.295, MinLng: 15.280, MaxLng: 15.330},
			Center: model.Coordinate{Lat: -4.310, Lng: 15.305},
			Landmarks: []model.Landmark{
				{Name: "Gare Centrale", Position: model.Coordinate{Lat: -4.302, Lng: 15.313}, Type: model.LandmarkTransport},
				{Name: "Marché Central", Position: model.Coordinate{Lat: -4.318, Lng: 15.310}, Type: model.LandmarkCommercial},
				{Name: "Boulevard du 30 Juin", Position: model.Coordinate{Lat: -4.309, Lng: 15.296}, Type: model.LandmarkCommercial},
			},
		},
		{
			Name:   "Limete",
			Box:    model.BoundingBox{MinLat: -4.400, MaxLat: -4.330, MinLng: 15.330, MaxLng: 15.400},
			Center: model.Coordinate{Lat: -4.365, Lng: 15.365},
			Landmarks: []model.Landmark{
				{Name: "Échangeur de Limete", Position: model.Coordinate{Lat: -4.358, Lng: 15.348}, Type: model.LandmarkTransport},
				{Name: "Zone industrielle de Limete", Position: model.Coordinate{Lat: -4.350, Lng: 15.378}, Type: model.LandmarkIndustrial},
			},
		},
		{
			Name:   "Ngaliema",
			Box:    model.BoundingBox{MinLat: -4.420, MaxLat: -4.320, MinLng: 15.200, MaxLng: 15.280},
			Center: model.Coordinate{Lat: -4.370, Lng: 15.240},
			Landmarks: []model.Landmark{
				{Name: "Kintambo Magasin", Position: model.Coordinate{Lat: -4.330, Lng: 15.263}, Type: model.LandmarkCommercial},
				{Name: "Cité du Fleuve", Position: model.Coordinate{Lat: -4.345, Lng: 15.225}, Type: model.LandmarkResidential},
			},
		},
		{
			Name:   "Kalamu",
			Box:    model.BoundingBox{MinLat: -4.360, MaxLat: -4.320, MinLng: 15.300, MaxLng: 15.340},
			Center: model.Coordinate{Lat: -4.340, Lng: 15.320},
			Landmarks: []model.Landmark{
				{Name: "Rond-point Victoire", Position: model.Coordinate{Lat: -4.337, Lng: 15.314}, Type: model.LandmarkCommercial},
				{Name: "Quartier Matonge", Position: model.Coordinate{Lat: -4.342, Lng: 15.318}, Type: model.LandmarkResidential},
			},
		},
		{
			Name:   "Bandalungwa",
			Box:    model.BoundingBox{MinLat: -4.360, MaxLat: -4.320, MinLng: 15.270, MaxLng: 15.300},
			Center: model.Coordinate{Lat: -4.340, Lng: 15.285},
			Landmarks: []model.Landmark{
				{Name: "Marché Bandal", Position: model.Coordinate{Lat: -4.338, Lng: 15.288}, Type: model.LandmarkCommercial},
			},
		},
		{
			Name:   "Masina",
			Box:    model.BoundingBox{MinLat: -4.420, MaxLat: -4.360, MinLng: 15.380, MaxLng: 15.460},
			Center: model.Coordinate{Lat: -4.390, Lng: 15.420},
			Landmarks: []model.Landmark{
				{Name: "Marché de la Liberté", Position: model.Coordinate{Lat: -4.385, Lng: 15.402}, Type: model.LandmarkCommercial},
			},
		},
		{
			Name:   "N'djili",
			Box:    model.BoundingBox{MinLat: -4.430, MaxLat: -4.370, MinLng: 15.430, MaxLng: 15.520},
			Center: model.Coordinate{Lat: -4.400, Lng: 15.475},
			Landmarks: []model.Landmark{
				{Name: "Aéroport de N'djili", Position: model.Coordinate{Lat: -4.386, Lng: 15.445}, Type: model.LandmarkTransport},
			},
		},
	}
}
