package service

import (
	"math"

	"oasis/internal/repository"
)

// EarthRadiusKm 地球平均半径
const EarthRadiusKm = 6371.0

// Haversine 两点间球面距离（公里）
func Haversine(lng1, lat1, lng2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BoundingBoxAround 中心点 distanceKm 范围的外接矩形，用于SQL粗筛
func BoundingBoxAround(lng, lat, distanceKm float64) repository.BoundingBox {
	dLat := distanceKm / EarthRadiusKm * 180 / math.Pi

	// 高纬度时经度跨度迅速变大，接近极点直接取全部经度
	cosLat := math.Cos(lat * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = dLat / cosLat
	}

	box := repository.BoundingBox{
		MinLongitude: -180,
		MaxLongitude: 180,
		MinLatitude:  math.Max(-90, lat-dLat),
		MaxLatitude:  math.Min(90, lat+dLat),
	}
	if dLng < 180 {
		// 越过 ±180 的一侧折回另一端，此时 Min > Max
		box.MinLongitude = wrapLongitude(lng - dLng)
		box.MaxLongitude = wrapLongitude(lng + dLng)
	}
	return box
}

// wrapLongitude 经度折回 [-180, 180]
func wrapLongitude(lng float64) float64 {
	switch {
	case lng < -180:
		return lng + 360
	case lng > 180:
		return lng - 360
	}
	return lng
}
