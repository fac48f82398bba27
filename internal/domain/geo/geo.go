// Пакет geo — расстояние по большому кругу между двумя координатами.
package geo

import "math"

// EarthRadiusMeters — средний радиус Земли, используемый в формуле гаверсинусов.
const EarthRadiusMeters = 6371000.0

// DistanceMeters возвращает расстояние в метрах между точками (lat1, lon1)
// и (lat2, lon2), заданными в градусах.
// Диапазоны координат не проверяются. Для нечисловых входов результат — NaN,
// вызывающий код обязан отклонить такой ввод раньше.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon

	// Ошибки округления могут дать a чуть больше 1
	a = math.Min(1, a)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// ValidCoordinate проверяет, что пара координат конечна и лежит
// в допустимых диапазонах широты и долготы.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
