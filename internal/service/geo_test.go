package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// 北京 → 上海 约 1067km
	d := Haversine(116.4074, 39.9042, 121.4737, 31.2304)
	assert.InDelta(t, 1067, d, 10)

	assert.InDelta(t, 0, Haversine(10, 10, 10, 10), 1e-9)

	// 赤道上经度差1度约111.19km
	assert.InDelta(t, 111.19, Haversine(0, 0, 1, 0), 0.01)
}

func TestBoundingBoxAround_ContainsCircle(t *testing.T) {
	box := BoundingBoxAround(116.4, 39.9, 10)
	assert.Less(t, box.MinLatitude, 39.9)
	assert.Greater(t, box.MaxLongitude, 116.4)

	// 矩形边界上的点到中心的距离不小于半径
	assert.GreaterOrEqual(t, Haversine(116.4, 39.9, 116.4, box.MaxLatitude), 9.99)
	assert.GreaterOrEqual(t, Haversine(116.4, 39.9, box.MaxLongitude, 39.9), 9.99)

	polar := BoundingBoxAround(0, 90, 10)
	assert.Equal(t, 90.0, polar.MaxLatitude)
	assert.Equal(t, -180.0, polar.MinLongitude)
}

func TestBoundingBoxAround_WrapsAtAntimeridian(t *testing.T) {
	box := BoundingBoxAround(179.95, 0, 20)
	assert.True(t, box.CrossesAntimeridian())
	assert.Greater(t, box.MinLongitude, 179.0)
	assert.Less(t, box.MaxLongitude, -179.0)

	west := BoundingBoxAround(-179.95, 0, 20)
	assert.True(t, west.CrossesAntimeridian())

	inner := BoundingBoxAround(100, 0, 20)
	assert.False(t, inner.CrossesAntimeridian())
}
