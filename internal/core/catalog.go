package core

import (
	"fmt"
	"math"
	"sort"

	"intel_service/internal/domain/model"
)

type cityEntry struct {
	city     model.City
	factors  model.HourFactors
	hotspots []model.Hotspot
}

// Catalog - справочные данные по городам. После NewCatalog
// доступен только для чтения
type Catalog struct {
	cities map[string]*cityEntry
	names  []string
}

// NewCatalog проверяет и индексирует записи. Приоритет горячей точки
// вычисляется по плотности, приоритет из записи игнорируется
func NewCatalog(records []model.CityRecord) (*Catalog, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: no cities")
	}
	c := &Catalog{cities: make(map[string]*cityEntry, len(records))}
	for _, rec := range records {
		if rec.Name == "" {
			return nil, fmt.Errorf("catalog: city without name")
		}
		if _, dup := c.cities[rec.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate city %q", rec.Name)
		}
		if !(rec.BaseRate > 0) || math.IsInf(rec.BaseRate, 0) {
			return nil, fmt.Errorf("catalog: city %q: base rate must be positive, got %v", rec.Name, rec.BaseRate)
		}

		factors := DefaultHourFactors
		if rec.HourFactors != nil {
			factors = *rec.HourFactors
		}
		for h, f := range factors {
			if !(f > 0) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("catalog: city %q: hour factor %d must be positive, got %v", rec.Name, h, f)
			}
		}

		hotspots := make([]model.Hotspot, 0, len(rec.Hotspots))
		seen := make(map[string]struct{}, len(rec.Hotspots))
		for _, hs := range rec.Hotspots {
			if hs.ID == "" {
				return nil, fmt.Errorf("catalog: city %q: hotspot without id", rec.Name)
			}
			if _, dup := seen[hs.ID]; dup {
				return nil, fmt.Errorf("catalog: city %q: duplicate hotspot %q", rec.Name, hs.ID)
			}
			seen[hs.ID] = struct{}{}
			if hs.City != "" && hs.City != rec.Name {
				return nil, fmt.Errorf("catalog: hotspot %q belongs to %q, listed under %q", hs.ID, hs.City, rec.Name)
			}
			priority, err := Classify(hs.Density)
			if err != nil {
				return nil, fmt.Errorf("catalog: hotspot %q: %w", hs.ID, err)
			}
			hs.City = rec.Name
			hs.Priority = priority
			hotspots = append(hotspots, hs)
		}

		c.cities[rec.Name] = &cityEntry{
			city:     model.City{Name: rec.Name, BaseRate: rec.BaseRate, Anchor: rec.Anchor},
			factors:  factors,
			hotspots: hotspots,
		}
		c.names = append(c.names, rec.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

func (c *Catalog) entry(city string) (*cityEntry, error) {
	e, ok := c.cities[city]
	if !ok {
		return nil, &model.UnknownCityError{City: city}
	}
	return e, nil
}

func (c *Catalog) City(city string) (model.City, error) {
	e, err := c.entry(city)
	if err != nil {
		return model.City{}, err
	}
	return e.city, nil
}

func (c *Catalog) BaseRate(city string) (float64, error) {
	e, err := c.entry(city)
	if err != nil {
		return 0, err
	}
	return e.city.BaseRate, nil
}

func (c *Catalog) HourFactor(city string, hour int) (float64, error) {
	e, err := c.entry(city)
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 {
		return 0, &model.InvalidHourError{Hour: hour}
	}
	return e.factors[hour], nil
}

// Hotspots возвращает копию горячих точек города в порядке каталога
func (c *Catalog) Hotspots(city string) ([]model.Hotspot, error) {
	e, err := c.entry(city)
	if err != nil {
		return nil, err
	}
	return append([]model.Hotspot(nil), e.hotspots...), nil
}

// Cities возвращает названия всех городов по алфавиту
func (c *Catalog) Cities() []string {
	return append([]string(nil), c.names...)
}
