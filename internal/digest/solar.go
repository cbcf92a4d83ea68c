package digest

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// officialZenithDeg is the solar zenith angle at sunrise and sunset:
// 90 degrees plus atmospheric refraction and the solar semidiameter.
const officialZenithDeg = 90.833

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// sunTimes returns sunrise and sunset for date's calendar day in loc at
// the given coordinates. ok is false inside polar day or polar night,
// which cannot happen at Oahu's latitude but keeps the math honest.
func sunTimes(date time.Time, lat, lon float64, loc *time.Location) (sunrise, sunset time.Time, ok bool) {
	year, month, day := date.In(loc).Date()

	// Solar position terms evaluated at noon UTC of the target day.
	noonUTC := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	jd := julian.TimeToJD(noonUTC)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	omega := 125.04 - 1934.136*T
	lambda := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	declRad := math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	// Equation of time in minutes.
	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTimeMin := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	// Hour angle at the official zenith.
	latRad := degToRad(lat)
	cosH := (math.Cos(degToRad(officialZenithDeg)) - math.Sin(latRad)*math.Sin(declRad)) /
		(math.Cos(latRad) * math.Cos(declRad))
	if cosH > 1.0 || cosH < -1.0 {
		return time.Time{}, time.Time{}, false
	}
	hourAngleMin := radToDeg(math.Acos(cosH)) * 4.0

	// Solar noon in UTC minutes from midnight: 4 minutes per degree of
	// longitude, corrected by the equation of time.
	solarNoonMin := 720.0 - 4.0*lon - eqTimeMin

	midnightUTC := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	sunrise = midnightUTC.Add(time.Duration((solarNoonMin - hourAngleMin) * float64(time.Minute))).In(loc)
	sunset = midnightUTC.Add(time.Duration((solarNoonMin + hourAngleMin) * float64(time.Minute))).In(loc)
	return sunrise, sunset, true
}
