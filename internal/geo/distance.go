// Package geo 提供配送距离估算
package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// EarthRadiusKM 地球平均半径（公里）
const EarthRadiusKM = 6371.0088

// HaversineKM 计算两点间的大圆距离（公里），参数均为 经度, 纬度 顺序
func HaversineKM(lon1, lat1, lon2, lat2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// DistanceKM 计算距离并四舍五入到 2 位小数
func DistanceKM(lon1, lat1, lon2, lat2 float64) float64 {
	rounded, _ := decimal.NewFromFloat(HaversineKM(lon1, lat1, lon2, lat2)).Round(2).Float64()
	return rounded
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
