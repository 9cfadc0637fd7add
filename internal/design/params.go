// Package design holds the architectural parameters a user picks on the form
// and renders them into the text handed to the model.
package design

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Style string

const (
	StyleModernMinimal   Style = "現代極簡"
	StyleExposedConcrete Style = "清水模"
	StyleZahaHadid       Style = "Zaha Hadid 流線"
	StyleJapaneseZen     Style = "日式禪風"
	StyleCyberpunk       Style = "賽博龐克"
)

type Weather string

const (
	WeatherSunnyAfternoon  Weather = "晴朗午後"
	WeatherRainyReflection Weather = "雨天倒影"
	WeatherDusk            Weather = "黃昏"
)

const (
	MinFloors = 1
	MaxFloors = 50
)

var (
	styles   = []Style{StyleModernMinimal, StyleExposedConcrete, StyleZahaHadid, StyleJapaneseZen, StyleCyberpunk}
	weathers = []Weather{WeatherSunnyAfternoon, WeatherRainyReflection, WeatherDusk}
)

var ErrInvalidParams = errors.New("invalid design parameters")

// Styles returns the selectable styles in display order.
func Styles() []Style { return slices.Clone(styles) }

// Weathers returns the selectable weathers in display order.
func Weathers() []Weather { return slices.Clone(weathers) }

type Params struct {
	Style    Style   `json:"style" validate:"style"`
	Floors   int     `json:"floors" validate:"min=1,max=50"`
	Location string  `json:"location"`
	Weather  Weather `json:"weather" validate:"weather"`
	Image    *Image  `json:"-" validate:"-"`
}

// Defaults is the state of the form before the user touches anything.
func Defaults() Params {
	return Params{
		Style:    StyleModernMinimal,
		Floors:   5,
		Location: "台北市繁忙街頭",
		Weather:  WeatherSunnyAfternoon,
	}
}

// Describe renders the parameters in field order. Values are copied verbatim.
func (p Params) Describe() string {
	return fmt.Sprintf("風格: %s, 樓層: %d, 位置: %s, 天氣: %s", p.Style, p.Floors, p.Location, p.Weather)
}

func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		return fmt.Sprintf("%s=%v", strings.ToLower(fe.Field()), fe.Value())
	})
	return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(fields, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	lo.Must0(v.RegisterValidation("style", func(fl validator.FieldLevel) bool {
		return lo.Contains(styles, Style(fl.Field().String()))
	}))
	lo.Must0(v.RegisterValidation("weather", func(fl validator.FieldLevel) bool {
		return lo.Contains(weathers, Weather(fl.Field().String()))
	}))
	return v
}
