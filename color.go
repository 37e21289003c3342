package lineedit

// hsvColor mirrors Color but in the hue/saturation/value space, each
// channel scaled to 0..255.
type hsvColor struct {
	h, s, v uint8
}

// rgbToHSV converts an RGB color to HSV using the standard six-region
// hue formula, scaled to integer 0..255 channels throughout.
func rgbToHSV(c Color) hsvColor {
	rgbMin := min(c.R, c.G, c.B)
	rgbMax := max(c.R, c.G, c.B)

	hsv := hsvColor{h: 0, s: 0, v: rgbMax}
	if hsv.v == 0 {
		return hsv
	}
	hsv.s = uint8(255 * int(rgbMax-rgbMin) / int(hsv.v))
	if hsv.s == 0 {
		hsv.h = 0
	} else if rgbMax == c.R {
		hsv.h = uint8(0 + 43*(int(c.G)-int(c.B))/int(rgbMax-rgbMin))
	} else if rgbMax == c.G {
		hsv.h = uint8(85 + 43*(int(c.B)-int(c.R))/int(rgbMax-rgbMin))
	} else {
		hsv.h = uint8(171 + 43*(int(c.R)-int(c.G))/int(rgbMax-rgbMin))
	}
	return hsv
}

// hsvToRGB is the inverse of rgbToHSV, using 43*region + remainder*6
// scaling for the six hue regions.
func hsvToRGB(hsv hsvColor) Color {
	rgb := Color{R: hsv.v, G: hsv.v, B: hsv.v}
	if hsv.s == 0 {
		return rgb
	}

	region := hsv.h / 43
	remainder := (hsv.h - region*43) * 6

	p := uint8((uint32(hsv.v) * uint32(255-hsv.s)) >> 8)
	q := uint8((uint32(hsv.v) * uint32(255-(uint32(hsv.s)*uint32(remainder))>>8)) >> 8)
	t := uint8((uint32(hsv.v) * uint32(255-(uint32(hsv.s)*uint32(255-remainder))>>8)) >> 8)

	switch region {
	case 0:
		rgb = Color{R: hsv.v, G: t, B: p}
	case 1:
		rgb = Color{R: q, G: hsv.v, B: p}
	case 2:
		rgb = Color{R: p, G: hsv.v, B: t}
	case 3:
		rgb = Color{R: p, G: q, B: hsv.v}
	case 4:
		rgb = Color{R: t, G: p, B: hsv.v}
	default:
		rgb = Color{R: hsv.v, G: p, B: q}
	}
	return rgb
}

// adjustColor shifts fg and bg's HSV value toward black when bg is light
// (v >= 128) and delta >= 0, toward white when bg is dark, and inverts
// that direction for a negative delta. It is used to derive a frame
// highlight color and a dimmed empty-message color from the terminal's
// default foreground/background pair.
func adjustColor(fg, bg Color, delta int) (Color, Color) {
	hf := rgbToHSV(fg)
	hb := rgbToHSV(bg)

	light := hb.v >= 128
	if delta < 0 {
		light = !light
		delta = -delta
	}

	if light {
		hf.v = subClamp(hf.v, delta)
		hb.v = subClamp(hb.v, delta)
	} else {
		hf.v = addClamp(hf.v, delta)
		hb.v = addClamp(hb.v, delta)
	}

	return hsvToRGB(hf), hsvToRGB(hb)
}

func subClamp(v uint8, delta int) uint8 {
	if int(v) > delta {
		return v - uint8(delta)
	}
	return 0
}

func addClamp(v uint8, delta int) uint8 {
	if int(v) < 255-delta {
		return v + uint8(delta)
	}
	return 255
}
