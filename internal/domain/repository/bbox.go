package repository

import (
	"fmt"
	"intel_service/internal/domain/model"
	"strconv"
	"strings"
)

// ParseBBox разбирает строку "minLat,minLon,maxLat,maxLon"
func ParseBBox(bbox string) (model.Bounds, error) {
	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return model.Bounds{}, fmt.Errorf("bbox must have 4 components, got %d", len(parts))
	}

	var vals [4]float64
	names := [4]string{"minLat", "minLon", "maxLat", "maxLon"}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Bounds{}, fmt.Errorf("invalid %s: %w", names[i], err)
		}
		vals[i] = v
	}

	b := model.Bounds{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if err := validateBounds(b); err != nil {
		return model.Bounds{}, err
	}
	return b, nil
}

func validateBounds(b model.Bounds) error {
	if b.MinLat < -90 || b.MinLat > 90 || b.MaxLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]")
	}
	if b.MinLon < -180 || b.MinLon > 180 || b.MaxLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]")
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("minLat must be <= maxLat and minLon must be <= maxLon")
	}
	return nil
}
