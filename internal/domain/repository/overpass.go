package repository

import (
	"context"
	"fmt"
	"github.com/serjvanilla/go-overpass"
	"intel_service/internal/domain/model"
	"math"
	"net/http"
	"sort"
	"time"
)

const kmPerDegree = 111.32

// OverpassRepository ищет полицейские участки в OpenStreetMap. Заодно служит
// DepotLocator: экипажи стартуют с участков, ближайших к центру города
type OverpassRepository struct {
	client   *overpass.Client
	timeout  time.Duration
	radiusKm float64
}

func NewOverpassRepository(endpoint string, timeout time.Duration, radiusKm float64) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	if radiusKm <= 0 {
		radiusKm = 5
	}
	return &OverpassRepository{
		client:   &client,
		timeout:  timeout,
		radiusKm: radiusKm,
	}
}

func (r *OverpassRepository) PoliceStations(ctx context.Context, bbox model.Bounds) ([]model.OSMElement, error) {
	if err := validateBounds(bbox); err != nil {
		return nil, fmt.Errorf("invalid bbox: %w", err)
	}
	query := fmt.Sprintf(`
		[out:json];
		(
			node["amenity"="police"](%[1]s);
			way["amenity"="police"](%[1]s);
		);
		out body;
		>;
		out skel qt;
	`, bbox.String())

	result, err := r.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute police station query: %w", err)
	}

	return convertToOSMElements(result), nil
}

// Depots возвращает до n участков вокруг центра города, ближайшие первыми
func (r *OverpassRepository) Depots(ctx context.Context, city model.City, n int) ([]model.Coordinates, error) {
	elements, err := r.PoliceStations(ctx, boundsAround(city.Anchor, r.radiusKm))
	if err != nil {
		return nil, err
	}
	depots := stationPositions(elements, city.Anchor)
	if len(depots) == 0 {
		return nil, fmt.Errorf("no police stations within %.1f km of %s", r.radiusKm, city.Name)
	}
	if n > 0 && len(depots) > n {
		depots = depots[:n]
	}
	return depots, nil
}

// executeQuery ограничивает блокирующий вызов клиента контекстом
// и таймаутом репозитория
func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result overpass.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := r.client.Query(query)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("overpass query aborted: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", out.err)
		}
		return &out.result, nil
	}
}

func convertToOSMElements(result *overpass.Result) []model.OSMElement {
	var elements []model.OSMElement

	for _, node := range result.Nodes {
		if node.Tags["amenity"] != "police" {
			// узлы-скелеты путей
			continue
		}
		elements = append(elements, model.OSMElement{
			ID:   node.ID,
			Type: string(overpass.ElementTypeNode),
			Lat:  node.Lat,
			Lon:  node.Lon,
			Tags: node.Tags,
		})
	}

	for _, way := range result.Ways {
		var lat, lon float64
		count := len(way.Nodes)
		if count > 0 {
			for _, node := range way.Nodes {
				lat += node.Lat
				lon += node.Lon
			}
			lat /= float64(count)
			lon /= float64(count)
		}

		var bounds model.Bounds
		if way.Bounds != nil {
			bounds = model.Bounds{
				MinLat: way.Bounds.Min.Lat,
				MinLon: way.Bounds.Min.Lon,
				MaxLat: way.Bounds.Max.Lat,
				MaxLon: way.Bounds.Max.Lon,
			}
		}

		elements = append(elements, model.OSMElement{
			ID:     way.ID,
			Type:   string(overpass.ElementTypeWay),
			Lat:    lat,
			Lon:    lon,
			Tags:   way.Tags,
			Bounds: bounds,
		})
	}

	return elements
}

// stationPositions сортирует элементы по расстоянию от центра. Результат Overpass
// не упорядочен, поэтому при равенстве сортируем по id
func stationPositions(elements []model.OSMElement, anchor model.Coordinates) []model.Coordinates {
	sorted := make([]model.OSMElement, 0, len(elements))
	for _, e := range elements {
		if e.Lat == 0 && e.Lon == 0 {
			continue
		}
		sorted = append(sorted, e)
	}
	dist := func(e model.OSMElement) float64 {
		dLat := (e.Lat - anchor.Lat) * kmPerDegree
		dLon := (e.Lon - anchor.Lng) * kmPerDegree * math.Cos(anchor.Lat*math.Pi/180)
		return math.Hypot(dLat, dLon)
	}
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := dist(sorted[i]), dist(sorted[j])
		if di != dj {
			return di < dj
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]model.Coordinates, len(sorted))
	for i, e := range sorted {
		out[i] = model.Coordinates{Lat: e.Lat, Lng: e.Lon}
	}
	return out
}

// boundsAround - квадрат с полустороной radiusKm и центром в c
func boundsAround(c model.Coordinates, radiusKm float64) model.Bounds {
	dLat := radiusKm / kmPerDegree
	cosLat := math.Cos(c.Lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	dLon := dLat / cosLat
	return model.Bounds{
		MinLat: math.Max(c.Lat-dLat, -90),
		MinLon: math.Max(c.Lng-dLon, -180),
		MaxLat: math.Min(c.Lat+dLat, 90),
		MaxLon: math.Min(c.Lng+dLon, 180),
	}
}
