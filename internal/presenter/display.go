package presenter

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/neexbeast/weather-now/internal/units"
	"github.com/neexbeast/weather-now/internal/weather"
)

// Display is the presentation record. Every field is a formatted string; an
// empty string means the sink hides that row. Fields are independent: a
// missing upstream value empties only its own field.
type Display struct {
	City          string `json:"city"`
	Temperature   string `json:"temperature"`
	Description   string `json:"description"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Date          string `json:"date"`
	Humidity      string `json:"humidity"`
	FeelsLike     string `json:"feels_like"`
	Pressure      string `json:"pressure"`
	Sunrise       string `json:"sunrise"`
	Sunset        string `json:"sunset"`
	WindSpeed     string `json:"wind_speed"`
	WindDirection string `json:"wind_direction"`
	WindGust      string `json:"wind_gust"`
	Visibility    string `json:"visibility"`
	Cloudiness    string `json:"cloudiness"`
	SeaLevel      string `json:"sea_level"`
	GroundLevel   string `json:"ground_level"`
	Rain1h        string `json:"rain_1h"`
	Rain3h        string `json:"rain_3h"`
	Snow1h        string `json:"snow_1h"`
	Snow3h        string `json:"snow_3h"`
	TimeZone      string `json:"time_zone"`
}

// Derive recomputes the whole Display from r. Times are rendered in the
// location's own UTC offset.
func Derive(r *weather.Result, clock *units.Clock) Display {
	if r == nil {
		return Display{}
	}
	if clock == nil {
		clock = units.NewClock(nil)
	}
	tz := r.Timezone

	d := Display{
		City:          cityLabel(r.Name, r.Sys.Country),
		Temperature:   units.Temperature(r.Main.Temp),
		High:          units.Temperature(r.Main.TempMax),
		Low:           units.Temperature(r.Main.TempMin),
		Date:          clock.DateTime(r.Dt, &tz),
		Humidity:      units.Percent(r.Main.Humidity),
		FeelsLike:     units.Temperature(r.Main.FeelsLike),
		Pressure:      units.Pressure(r.Main.Pressure),
		Sunrise:       clock.TimeOfDay(r.Sys.Sunrise, &tz),
		Sunset:        clock.TimeOfDay(r.Sys.Sunset, &tz),
		WindSpeed:     units.WindSpeed(r.Wind.Speed),
		WindDirection: units.Degrees(r.Wind.Deg),
		Visibility:    units.Visibility(r.Visibility),
		Cloudiness:    units.Percent(r.Clouds.All),
		TimeZone:      units.GMTOffsetLabel(tz),
	}

	if primary, ok := r.Primary(); ok && primary.Description != "" {
		d.Description = cases.Title(language.English).String(primary.Description)
	}
	if r.Wind.Gust != nil {
		d.WindGust = units.WindSpeed(*r.Wind.Gust)
	}
	if r.Main.SeaLevel != nil {
		d.SeaLevel = units.Pressure(*r.Main.SeaLevel)
	}
	if r.Main.GroundLevel != nil {
		d.GroundLevel = units.Pressure(*r.Main.GroundLevel)
	}
	d.Rain1h, d.Rain3h = precipitation(r.Rain)
	d.Snow1h, d.Snow3h = precipitation(r.Snow)

	return d
}

func cityLabel(name, country string) string {
	switch {
	case name == "":
		return ""
	case country == "":
		return name
	default:
		return name + ", " + country
	}
}

func precipitation(p *weather.Precipitation) (oneHour, threeHour string) {
	if p == nil {
		return "", ""
	}
	if p.OneHour != nil {
		oneHour = units.Precipitation(*p.OneHour)
	}
	if p.ThreeHour != nil {
		threeHour = units.Precipitation(*p.ThreeHour)
	}
	return oneHour, threeHour
}
