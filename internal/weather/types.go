package weather

import (
	"strconv"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type queryKind int

const (
	queryNone queryKind = iota
	queryCity
	queryCoords
)

// Query selects the location for a current-conditions fetch: a city name or
// a coordinate pair, never both. The zero Query selects nothing and fails
// with InvalidURL.
type Query struct {
	kind   queryKind
	city   string
	coords Coordinates
}

// ByCityName builds a query from free text. The text is sent verbatim.
func ByCityName(name string) Query {
	return Query{kind: queryCity, city: name}
}

// ByCoordinates builds a query from a coordinate pair.
func ByCoordinates(lat, lon float64) Query {
	return Query{kind: queryCoords, coords: Coordinates{Lat: lat, Lon: lon}}
}

// City returns the city text and whether this is a city query.
func (q Query) City() (string, bool) {
	return q.city, q.kind == queryCity
}

// Coordinates returns the coordinates and whether this is a coordinate query.
func (q Query) Coordinates() (Coordinates, bool) {
	return q.coords, q.kind == queryCoords
}

// String is used in logs.
func (q Query) String() string {
	switch q.kind {
	case queryCity:
		return "city=" + strconv.Quote(q.city)
	case queryCoords:
		return "lat=" + formatCoord(q.coords.Lat) + ",lon=" + formatCoord(q.coords.Lon)
	default:
		return "none"
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Condition is one entry of the provider's weather list. The first entry is
// the primary condition.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// MainMetrics holds temperatures (°F), pressure (hPa) and humidity (%).
type MainMetrics struct {
	Temp        float64 `json:"temp"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Pressure    int     `json:"pressure"`
	Humidity    int     `json:"humidity"`
	FeelsLike   float64 `json:"feels_like"`
	SeaLevel    *int    `json:"sea_level,omitempty"`
	GroundLevel *int    `json:"grnd_level,omitempty"`
}

// Wind speed is in mph, direction in degrees.
type Wind struct {
	Speed float64  `json:"speed"`
	Deg   int      `json:"deg"`
	Gust  *float64 `json:"gust,omitempty"`
}

// Clouds holds cloud cover in percent.
type Clouds struct {
	All int `json:"all"`
}

// Sys carries the country code and sunrise/sunset epoch seconds.
type Sys struct {
	Type    int    `json:"type"`
	ID      int    `json:"id"`
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// Precipitation is rain or snow volume in mm for the last hour and last
// three hours. Either may be absent.
type Precipitation struct {
	OneHour   *float64 `json:"1h,omitempty"`
	ThreeHour *float64 `json:"3h,omitempty"`
}

// Result is the decoded current-weather response. It is treated as
// immutable once decoded; the JSON encoding matches the provider's so the
// same bytes can be cached and decoded again.
type Result struct {
	Coord      Coordinates    `json:"coord"`
	Weather    []Condition    `json:"weather"`
	Base       string         `json:"base"`
	Main       MainMetrics    `json:"main"`
	Visibility int            `json:"visibility"`
	Wind       Wind           `json:"wind"`
	Clouds     Clouds         `json:"clouds"`
	Dt         int64          `json:"dt"`
	Sys        Sys            `json:"sys"`
	Timezone   int            `json:"timezone"`
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Cod        int            `json:"cod"`
	Rain       *Precipitation `json:"rain,omitempty"`
	Snow       *Precipitation `json:"snow,omitempty"`
}

// Primary returns the first condition entry, if any.
func (r *Result) Primary() (Condition, bool) {
	if r == nil || len(r.Weather) == 0 {
		return Condition{}, false
	}
	return r.Weather[0], true
}
