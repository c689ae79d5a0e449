package core

import (
	"math"

	"intel_service/internal/domain/model"
)

const earthRadiusKm = 6371

// DistanceMetric меряет расстояние по прямой в километрах. Это заменяемая
// часть выбора ближайшего экипажа, её можно заменить метрикой по маршрутам
type DistanceMetric interface {
	Distance(a, b model.Coordinates) float64
}

// Haversine - расстояние по большому кругу
type Haversine struct{}

func (Haversine) Distance(a, b model.Coordinates) float64 {
	return haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Planar считает координаты километрами на плоской сетке
type Planar struct{}

func (Planar) Distance(a, b model.Coordinates) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lng-a.Lng)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// interpolate сдвигает from к to на step километров и попадает точно
// в to, если шаг покрывает остаток пути
func interpolate(from, to model.Coordinates, remaining, step float64) model.Coordinates {
	if remaining <= 0 || step >= remaining {
		return to
	}
	f := step / remaining
	return model.Coordinates{
		Lat: from.Lat + (to.Lat-from.Lat)*f,
		Lng: from.Lng + (to.Lng-from.Lng)*f,
	}
}

// meanNearestDistance - среднее расстояние от точек до ближайшей опорной.
// Ноль, если любой из наборов пуст
func meanNearestDistance(metric DistanceMetric, points, refs []model.Coordinates) float64 {
	if len(points) == 0 || len(refs) == 0 {
		return 0
	}
	var total float64
	for _, p := range points {
		minDist := metric.Distance(p, refs[0])
		for _, r := range refs[1:] {
			if d := metric.Distance(p, r); d < minDist {
				minDist = d
			}
		}
		total += minDist
	}
	return total / float64(len(points))
}

// ringPositions раскладывает n точек по окружности радиуса radiusKm
func ringPositions(center model.Coordinates, n int, radiusKm float64) []model.Coordinates {
	out := make([]model.Coordinates, n)
	if n == 0 {
		return out
	}
	dLat := radiusKm / (earthRadiusKm * math.Pi / 180)
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	dLng := dLat / cosLat
	for i := range out {
		theta := 2 * math.Pi * float64(i) / float64(n)
		out[i] = model.Coordinates{
			Lat: center.Lat + dLat*math.Sin(theta),
			Lng: center.Lng + dLng*math.Cos(theta),
		}
	}
	return out
}
