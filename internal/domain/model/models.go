package model

// Coordinates - точка в WGS84
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HourFactors задаёт множитель базового уровня города для каждого часа
type HourFactors [24]float64

// City - неизменяемые справочные данные. BaseRate - преступлений на 100 тыс.
type City struct {
	Name     string      `json:"name"`
	BaseRate float64     `json:"base_rate"`
	Anchor   Coordinates `json:"anchor"`
}

// Hotspot представляет точку с высокой плотностью происшествий
type Hotspot struct {
	ID       string      `json:"id"`
	City     string      `json:"city"`
	Name     string      `json:"name"`
	Position Coordinates `json:"position"`
	Density  float64     `json:"density"`  // происшествий на 100 тыс., шкала как у BaseRate
	Priority RiskLevel   `json:"priority"` // вычисляется по Density
}

// CityRecord - запись источника данных для каталога.
// При nil HourFactors используется общая таблица
type CityRecord struct {
	Name        string       `json:"name"`
	BaseRate    float64      `json:"base_rate"`
	Anchor      Coordinates  `json:"anchor"`
	HourFactors *HourFactors `json:"hour_factors,omitempty"`
	Hotspots    []Hotspot    `json:"hotspots"`
}
