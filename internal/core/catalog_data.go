package core

import (
	"context"
	"fmt"
	"strings"

	"intel_service/internal/domain/model"
)

// DefaultHourFactors используется городами без собственной таблицы.
// Ночные часы имеют самые высокие множители
var DefaultHourFactors = model.HourFactors{
	1.35, 1.40, 1.35, 1.30, 1.10, 0.80, // 00-05
	0.60, 0.55, 0.60, 0.70, 0.75, 0.80, // 06-11
	0.85, 0.85, 0.80, 0.85, 0.90, 1.00, // 12-17
	1.10, 1.20, 1.25, 1.30, 1.35, 1.40, // 18-23
}

var defaultCities = []struct {
	name     string
	baseRate float64
	lat, lng float64
}{
	{"Agra", 233.19, 27.1767, 78.0081},
	{"Ahmedabad", 212.47, 23.0225, 72.5714},
	{"Bengaluru", 401.35, 12.9716, 77.5946},
	{"Bhopal", 431.67, 23.2599, 77.4126},
	{"Chandigarh", 256.44, 30.7333, 76.7794},
	{"Chennai", 235.11, 13.0827, 80.2707},
	{"Coimbatore", 98.46, 11.0168, 76.9558},
	{"Delhi", 542.82, 28.6139, 77.2090},
	{"Ghaziabad", 301.29, 28.6692, 77.4538},
	{"Hyderabad", 287.63, 17.3850, 78.4867},
	{"Indore", 497.22, 22.7196, 75.8577},
	{"Jaipur", 452.09, 26.9124, 75.7873},
	{"Kanpur", 259.40, 26.4499, 80.3319},
	{"Kochi", 520.73, 9.9312, 76.2673},
	{"Kolkata", 129.90, 22.5726, 88.3639},
	{"Kozhikode", 402.11, 11.2588, 75.7804},
	{"Lucknow", 341.76, 26.8467, 80.9462},
	{"Ludhiana", 145.72, 30.9010, 75.8573},
	{"Mumbai", 318.24, 19.0760, 72.8777},
	{"Nagpur", 310.85, 21.1458, 79.0882},
	{"Nashik", 189.55, 19.9975, 73.7898},
	{"Patna", 388.02, 25.5941, 85.1376},
	{"Pune", 276.54, 18.5204, 73.8567},
	{"Rajkot", 172.08, 22.3039, 70.8022},
	{"Srinagar", 110.87, 34.0837, 74.7973},
	{"Surat", 203.18, 21.1702, 72.8311},
	{"Vadodara", 120.36, 22.3072, 73.1812},
	{"Varanasi", 96.31, 25.3176, 82.9739},
	{"Visakhapatnam", 158.64, 17.6868, 83.2185},
}

// Каждый город получает три типовые горячие точки, смещённые от центра
// и масштабированные по базовому уровню
var hotspotTemplates = []struct {
	name       string
	dLat, dLng float64
	share      float64
}{
	{"Railway Station", 0.012, -0.008, 0.90},
	{"Central Market", -0.006, 0.015, 0.65},
	{"Bus Terminus", 0.018, 0.010, 0.40},
}

// DefaultCityRecords возвращает встроенный каталог из 29 городов
func DefaultCityRecords() []model.CityRecord {
	records := make([]model.CityRecord, 0, len(defaultCities))
	for _, c := range defaultCities {
		slug := strings.ToLower(c.name)
		hotspots := make([]model.Hotspot, 0, len(hotspotTemplates))
		for i, t := range hotspotTemplates {
			hotspots = append(hotspots, model.Hotspot{
				ID:       fmt.Sprintf("%s-hs-%d", slug, i+1),
				City:     c.name,
				Name:     c.name + " " + t.name,
				Position: model.Coordinates{Lat: c.lat + t.dLat, Lng: c.lng + t.dLng},
				Density:  c.baseRate * t.share,
			})
		}
		records = append(records, model.CityRecord{
			Name:     c.name,
			BaseRate: c.baseRate,
			Anchor:   model.Coordinates{Lat: c.lat, Lng: c.lng},
			Hotspots: hotspots,
		})
	}
	return records
}

// CitySource поставляет записи каталога из статических данных или внешнего хранилища
type CitySource interface {
	LoadCities(ctx context.Context) ([]model.CityRecord, error)
}

// StaticSource отдаёт DefaultCityRecords
type StaticSource struct{}

func (StaticSource) LoadCities(context.Context) ([]model.CityRecord, error) {
	return DefaultCityRecords(), nil
}

// LoadCatalog строит каталог из источника
func LoadCatalog(ctx context.Context, src CitySource) (*Catalog, error) {
	records, err := src.LoadCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}
	return NewCatalog(records)
}
