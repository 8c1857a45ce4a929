package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FallbackGradient is returned for colors that are not 3 or 6 digit hex.
const FallbackGradient = "linear-gradient(135deg, #8a4a1f, #a15623, #c27a43)"

const (
	gradientAngle   = "135deg"
	lighterOffset   = 50
	darkerOffset    = 30
	maxChannelValue = 255
)

var errInvalidHexColor = errors.New("invalid hex color")

// RGB is a color with channels in [0,255].
type RGB struct {
	R, G, B int
}

// CSS formats the color as rgb(R,G,B).
func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func (c RGB) shift(delta int) RGB {
	return RGB{R: clampChannel(c.R + delta), G: clampChannel(c.G + delta), B: clampChannel(c.B + delta)}
}

// Gradient is the three-stop banner background.
type Gradient struct {
	Darker  RGB `json:"darker"`
	Base    RGB `json:"base"`
	Lighter RGB `json:"lighter"`
}

// CSS formats the gradient as a linear-gradient() value.
func (g Gradient) CSS() string {
	return fmt.Sprintf("linear-gradient(%s, %s, %s, %s)", gradientAngle, g.Darker.CSS(), g.Base.CSS(), g.Lighter.CSS())
}

// ParseHexColor accepts "#rgb", "#rrggbb" and the same without '#'.
func ParseHexColor(value string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return RGB{}, fmt.Errorf("%w: %q", errInvalidHexColor, value)
	}

	var channels [3]int
	for i := range channels {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q", errInvalidHexColor, value)
		}
		channels[i] = int(v)
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// DeriveGradient builds darker (-30) → base → lighter (+50) stops from a
// hex base color.
func DeriveGradient(color string) (Gradient, error) {
	base, err := ParseHexColor(color)
	if err != nil {
		return Gradient{}, err
	}
	return Gradient{
		Darker:  base.shift(-darkerOffset),
		Base:    base,
		Lighter: base.shift(lighterOffset),
	}, nil
}

// GradientCSS is DeriveGradient formatted for a style attribute. It falls
// back to FallbackGradient instead of failing.
func GradientCSS(color string) string {
	g, err := DeriveGradient(color)
	if err != nil {
		return FallbackGradient
	}
	return g.CSS()
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxChannelValue {
		return maxChannelValue
	}
	return v
}
