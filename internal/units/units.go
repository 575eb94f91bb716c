// Package units formats raw provider values (imperial units, epoch seconds,
// UTC offsets) into display strings.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	hPaToInHg     = 0.029529983071445
	metersPerMile = 1609.34
)

// Temperature rounds half away from zero and appends °F.
func Temperature(tempF float64) string {
	return fmt.Sprintf("%d°F", int(math.Round(tempF)))
}

// Pressure converts hectopascals to inches of mercury with two decimals.
func Pressure(hPa int) string {
	return fmt.Sprintf("%.2f inHg", float64(hPa)*hPaToInHg)
}

// Visibility converts meters to whole miles.
func Visibility(meters int) string {
	return fmt.Sprintf("%d mi", int(math.Round(float64(meters)/metersPerMile)))
}

// WindSpeed formats a speed that is already in miles per hour.
func WindSpeed(mph float64) string {
	return strconv.FormatFloat(mph, 'f', -1, 64) + " mph"
}

// Percent formats a 0-100 integer share such as humidity or cloud cover.
func Percent(n int) string {
	return strconv.Itoa(n) + "%"
}

// Precipitation formats a millimetre amount.
func Precipitation(mm float64) string {
	return strconv.FormatFloat(mm, 'f', -1, 64) + " mm"
}

// Degrees formats a compass direction.
func Degrees(deg int) string {
	return strconv.Itoa(deg) + "°"
}

// GMTOffsetLabel renders an offset in seconds as "GMT<sign><hh>". Minutes are
// dropped and a zero offset is rendered with a minus sign ("GMT-00").
func GMTOffsetLabel(offsetSeconds int) string {
	hours := abs(offsetSeconds) / 3600
	sign := "-"
	if offsetSeconds > 0 {
		sign = "+"
	}
	return fmt.Sprintf("GMT%s%02d", sign, hours)
}

// offsetZone builds the fixed zone named by GMTOffsetLabel. Like the label, it
// carries whole hours only.
func offsetZone(offsetSeconds int) *time.Location {
	secs := abs(offsetSeconds) / 3600 * 3600
	if offsetSeconds <= 0 {
		secs = -secs
	}
	return time.FixedZone(GMTOffsetLabel(offsetSeconds), secs)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

const (
	shortTimeLayout = "3:04 PM"
	dateTimeLayout  = "Jan 2, 2006 at 3:04 PM"
)

// Clock renders epoch timestamps either in its own zone or in an explicit
// provider UTC offset.
type Clock struct {
	zone *time.Location
}

// NewClock returns a Clock for zone. A nil zone means time.Local.
func NewClock(zone *time.Location) *Clock {
	if zone == nil {
		zone = time.Local
	}
	return &Clock{zone: zone}
}

func (c *Clock) in(epochSeconds int64, offsetSeconds *int) time.Time {
	zone := c.zone
	if offsetSeconds != nil {
		zone = offsetZone(*offsetSeconds)
	}
	return time.Unix(epochSeconds, 0).In(zone)
}

// TimeOfDay renders a short time such as "4:28". The meridiem is stripped.
func (c *Clock) TimeOfDay(epochSeconds int64, offsetSeconds *int) string {
	s := c.in(epochSeconds, offsetSeconds).Format(shortTimeLayout)
	if strings.HasSuffix(s, "M") {
		s = s[:len(s)-3]
	}
	return s
}

// DateTime renders a medium date plus short time, e.g. "May 15, 2023 at 1:35 AM".
func (c *Clock) DateTime(epochSeconds int64, offsetSeconds *int) string {
	return c.in(epochSeconds, offsetSeconds).Format(dateTimeLayout)
}
