package core

// ColorToken identifies an entry of the fixed category palette. Tokens are a
// closed set; anything unknown resolves to the neutral default rather than
// producing an arbitrary color.
type ColorToken string

const (
	ColorTeal    ColorToken = "teal-400"
	ColorPurple  ColorToken = "purple-400"
	ColorPink    ColorToken = "pink-400"
	ColorOrange  ColorToken = "orange-400"
	ColorCyan    ColorToken = "cyan-400"
	ColorLime    ColorToken = "lime-400"
	ColorAmber   ColorToken = "amber-400"
	ColorRose    ColorToken = "rose-400"
	ColorIndigo  ColorToken = "indigo-400"
	ColorEmerald ColorToken = "emerald-400"
	ColorFuchsia ColorToken = "fuchsia-400"
	ColorSky     ColorToken = "sky-400"

	// ColorNeutral is reserved for the synthetic uncategorized bucket and is
	// never assigned to user categories.
	ColorNeutral ColorToken = "gray-500"
)

// Palette is the assignable palette in rotation order.
var Palette = []ColorToken{
	ColorTeal, ColorPurple, ColorPink, ColorOrange, ColorCyan, ColorLime,
	ColorAmber, ColorRose, ColorIndigo, ColorEmerald, ColorFuchsia, ColorSky,
}

var paletteHex = map[ColorToken]string{
	ColorTeal:    "#2dd4bf",
	ColorPurple:  "#c084fc",
	ColorPink:    "#f472b6",
	ColorOrange:  "#fb923c",
	ColorCyan:    "#22d3ee",
	ColorLime:    "#a3e635",
	ColorAmber:   "#fbbf24",
	ColorRose:    "#fb7185",
	ColorIndigo:  "#818cf8",
	ColorEmerald: "#34d399",
	ColorFuchsia: "#e879f9",
	ColorSky:     "#38bdf8",
	ColorNeutral: "#6b7280",
}

// IsValid reports whether the token is part of the closed palette.
func (c ColorToken) IsValid() bool {
	_, ok := paletteHex[c]
	return ok
}

// Hex returns the fixed hex value for the token, falling back to the neutral
// color for unknown tokens.
func (c ColorToken) Hex() string {
	if hex, ok := paletteHex[c]; ok {
		return hex
	}
	return paletteHex[ColorNeutral]
}

// Normalize maps unknown tokens to the neutral default.
func (c ColorToken) Normalize() ColorToken {
	if c.IsValid() {
		return c
	}
	return ColorNeutral
}

// PaletteColor returns the palette entry for a rotation counter.
func PaletteColor(n int) ColorToken {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}
