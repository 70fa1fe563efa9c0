// Package color derives default card colors for prompts.
package color

import (
	"fmt"
	"hash/fnv"
)

// Card lightness and saturation keep dark text readable on every hue.
const (
	cardSaturation = 0.55
	cardLightness  = 0.88
)

// ForPrompt returns a stable pastel "#RRGGBB" color for a prompt key.
// Pack prompts pass "packID/key" so their color survives re-imports.
func ForPrompt(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	hue := float64(h.Sum32() % 360)

	r, g, b := hslToRGB(hue, cardSaturation, cardLightness)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Or returns c when set, otherwise the default color for key.
func Or(c, key string) string {
	if c != "" {
		return c
	}
	return ForPrompt(key)
}

// hslToRGB converts h in degrees and s, l in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return channel(p, q, h+1.0/3), channel(p, q, h), channel(p, q, h-1.0/3)
}

func channel(p, q, t float64) uint8 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	var v float64
	switch {
	case t < 1.0/6:
		v = p + (q-p)*6*t
	case t < 1.0/2:
		v = q
	case t < 2.0/3:
		v = p + (q-p)*(2.0/3-t)*6
	default:
		v = p
	}
	return uint8(v*255 + 0.5)
}
