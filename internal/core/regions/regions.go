// Package regions maps coordinates to the fixed set of Jeju catchment areas
// used for coarse location labeling.
package regions

import (
	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/pkg/geo"
)

// Table is the fixed region set covering Jeju Island. It is defined once and
// never mutated; radii intentionally overlap near region boundaries.
var Table = []domain.Region{
	{
		ID:           "jeju-city",
		Name:         "제주시내권",
		Center:       domain.GeoPoint{Lat: 33.4996, Lon: 126.5312},
		RadiusMeters: 6000,
		AreaNames:    []string{"이도동", "일도동", "삼도동", "연동", "노형동", "용담동"},
	},
	{
		ID:           "ara",
		Name:         "아라권",
		Center:       domain.GeoPoint{Lat: 33.4636, Lon: 126.5579},
		RadiusMeters: 4000,
		AreaNames:    []string{"아라동", "영평동", "월평동", "오등동"},
	},
	{
		ID:           "aewol",
		Name:         "애월권",
		Center:       domain.GeoPoint{Lat: 33.4630, Lon: 126.3312},
		RadiusMeters: 7000,
		AreaNames:    []string{"애월읍", "하귀리", "곽지리", "한담"},
	},
	{
		ID:           "hallim",
		Name:         "한림권",
		Center:       domain.GeoPoint{Lat: 33.4113, Lon: 126.2694},
		RadiusMeters: 7000,
		AreaNames:    []string{"한림읍", "협재리", "금능리", "옹포리"},
	},
	{
		ID:           "jocheon",
		Name:         "조천권",
		Center:       domain.GeoPoint{Lat: 33.5382, Lon: 126.6435},
		RadiusMeters: 7000,
		AreaNames:    []string{"조천읍", "함덕리", "북촌리", "신촌리"},
	},
	{
		ID:           "seongsan",
		Name:         "성산권",
		Center:       domain.GeoPoint{Lat: 33.4380, Lon: 126.9120},
		RadiusMeters: 8000,
		AreaNames:    []string{"성산읍", "고성리", "오조리", "섭지코지"},
	},
	{
		ID:           "seogwipo",
		Name:         "서귀포권",
		Center:       domain.GeoPoint{Lat: 33.2541, Lon: 126.5601},
		RadiusMeters: 6000,
		AreaNames:    []string{"서귀동", "동홍동", "서홍동", "보목동"},
	},
	{
		ID:           "jungmun",
		Name:         "중문권",
		Center:       domain.GeoPoint{Lat: 33.2496, Lon: 126.4195},
		RadiusMeters: 6000,
		AreaNames:    []string{"중문동", "색달동", "대포동", "하예동"},
	},
}

// Find returns the region containing the point, preferring the nearest center
// when radii overlap. Ties keep the earlier table entry. A nil return means
// the point lies outside every known region; that is not an error.
//
// Linear scan: the table holds 8 entries. A substantially larger region set
// would warrant a k-d tree or grid index instead.
func Find(point domain.GeoPoint, table []domain.Region) *domain.Region {
	var best *domain.Region
	bestDist := 0.0

	for i := range table {
		r := &table[i]
		d := geo.Haversine(point.Lat, point.Lon, r.Center.Lat, r.Center.Lon)
		if d > r.RadiusMeters {
			continue
		}
		if best == nil || d < bestDist {
			best = r
			bestDist = d
		}
	}
	return best
}

// FindByName looks a region up by exact ID or display name, then by exact
// match against any of its area names. Nil on miss.
func FindByName(name string, table []domain.Region) *domain.Region {
	for i := range table {
		if table[i].ID == name || table[i].Name == name {
			return &table[i]
		}
	}
	for i := range table {
		for _, area := range table[i].AreaNames {
			if area == name {
				return &table[i]
			}
		}
	}
	return nil
}
