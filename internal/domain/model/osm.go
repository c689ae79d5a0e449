package model

import "strconv"

// OSMElement - узел или путь из Overpass. Координаты пути - среднее
// по его узлам
type OSMElement struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Tags   map[string]string `json:"tags"`
	Bounds Bounds            `json:"bounds"`
}

type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// String форматирует рамку для фильтра Overpass QL: south,west,north,east
func (b Bounds) String() string {
	return formatFloat(b.MinLat) + "," + formatFloat(b.MinLon) + "," + formatFloat(b.MaxLat) + "," + formatFloat(b.MaxLon)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
