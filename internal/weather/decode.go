package weather

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// The wire types mirror Result with pointers so that a missing field can be
// told apart from a zero value.

type wireCoord struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type wireCondition struct {
	ID          *int    `json:"id" validate:"required"`
	Main        *string `json:"main" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Icon        *string `json:"icon" validate:"required"`
}

type wireMain struct {
	Temp        *float64 `json:"temp" validate:"required"`
	TempMin     *float64 `json:"temp_min" validate:"required"`
	TempMax     *float64 `json:"temp_max" validate:"required"`
	Pressure    *int     `json:"pressure" validate:"required"`
	Humidity    *int     `json:"humidity" validate:"required,min=0,max=100"`
	FeelsLike   *float64 `json:"feels_like" validate:"required"`
	SeaLevel    *int     `json:"sea_level"`
	GroundLevel *int     `json:"grnd_level"`
}

type wireWind struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *int     `json:"deg" validate:"required"`
	Gust  *float64 `json:"gust"`
}

type wireClouds struct {
	All *int `json:"all" validate:"required"`
}

type wireSys struct {
	Type    int     `json:"type"`
	ID      int     `json:"id"`
	Country *string `json:"country" validate:"required"`
	Sunrise *int64  `json:"sunrise" validate:"required"`
	Sunset  *int64  `json:"sunset" validate:"required"`
}

type wireResult struct {
	Coord      *wireCoord      `json:"coord" validate:"required"`
	Weather    []wireCondition `json:"weather" validate:"required,dive"`
	Base       *string         `json:"base" validate:"required"`
	Main       *wireMain       `json:"main" validate:"required"`
	Visibility *int            `json:"visibility" validate:"required,gte=0"`
	Wind       *wireWind       `json:"wind" validate:"required"`
	Clouds     *wireClouds     `json:"clouds" validate:"required"`
	Dt         *int64          `json:"dt" validate:"required"`
	Sys        *wireSys        `json:"sys" validate:"required"`
	Timezone   *int            `json:"timezone" validate:"required,min=-43200,max=50400"`
	ID         *int            `json:"id" validate:"required"`
	Name       *string         `json:"name" validate:"required"`
	Cod        *int            `json:"cod" validate:"required"`
	Rain       *Precipitation  `json:"rain"`
	Snow       *Precipitation  `json:"snow"`
}

// Decode parses a provider (or cached) body into a Result. Malformed JSON,
// wrong types, missing required fields and out-of-range values all fail
// with KindDecodeFailed.
func Decode(data []byte) (*Result, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, newError(KindDecodeFailed, fmt.Errorf("unmarshaling weather result: %w", err))
	}
	if err := validate.Struct(w); err != nil {
		return nil, newError(KindDecodeFailed, fmt.Errorf("validating weather result: %w", err))
	}
	return w.result(), nil
}

// Encode serializes r in the provider's schema.
func Encode(r *Result) ([]byte, error) {
	if r == nil {
		return nil, newError(KindSerializationFailed, fmt.Errorf("nil weather result"))
	}
	out := *r
	if out.Weather == nil {
		out.Weather = []Condition{}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, newError(KindSerializationFailed, fmt.Errorf("marshaling weather result: %w", err))
	}
	return b, nil
}

func (w *wireResult) result() *Result {
	conditions := make([]Condition, 0, len(w.Weather))
	for _, c := range w.Weather {
		conditions = append(conditions, Condition{
			ID:          *c.ID,
			Main:        *c.Main,
			Description: *c.Description,
			Icon:        *c.Icon,
		})
	}

	return &Result{
		Coord:   Coordinates{Lat: *w.Coord.Lat, Lon: *w.Coord.Lon},
		Weather: conditions,
		Base:    *w.Base,
		Main: MainMetrics{
			Temp:        *w.Main.Temp,
			TempMin:     *w.Main.TempMin,
			TempMax:     *w.Main.TempMax,
			Pressure:    *w.Main.Pressure,
			Humidity:    *w.Main.Humidity,
			FeelsLike:   *w.Main.FeelsLike,
			SeaLevel:    w.Main.SeaLevel,
			GroundLevel: w.Main.GroundLevel,
		},
		Visibility: *w.Visibility,
		Wind: Wind{
			Speed: *w.Wind.Speed,
			Deg:   *w.Wind.Deg,
			Gust:  w.Wind.Gust,
		},
		Clouds: Clouds{All: *w.Clouds.All},
		Dt:     *w.Dt,
		Sys: Sys{
			Type:    w.Sys.Type,
			ID:      w.Sys.ID,
			Country: *w.Sys.Country,
			Sunrise: *w.Sys.Sunrise,
			Sunset:  *w.Sys.Sunset,
		},
		Timezone: *w.Timezone,
		ID:       *w.ID,
		Name:     *w.Name,
		Cod:      *w.Cod,
		Rain:     w.Rain,
		Snow:     w.Snow,
	}
}
