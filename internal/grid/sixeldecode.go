package grid

import (
	"image/color"

	"h2/internal/sixel"
)

// decodeSixel parses a DCS sixel payload into a pixel buffer, adapted from
// danielgatis-go-headless-term/sixel.go's ParseSixel: same character-by-
// character state machine (color select/define, repeat, carriage return,
// new line, raster attributes), rewritten to build a sixel.PixelBuffer
// instead of that package's own SixelImage type.
func decodeSixel(params [][]uint16, data []byte) (sixel.PixelBuffer, bool) {
	p := &sixelDecoder{pixels: make(map[int]map[int]color.RGBA)}
	p.initDefaultPalette()
	if len(params) >= 2 && len(params[1]) > 0 && params[1][0] == 1 {
		p.transparent = true
	}
	p.run(data)
	return p.toBuffer()
}

type sixelDecoder struct {
	palette     [256]color.RGBA
	colorIndex  int
	x, y        int
	maxX, maxY  int
	pixels      map[int]map[int]color.RGBA
	transparent bool
}

func (p *sixelDecoder) initDefaultPalette() {
	vga := []color.RGBA{
		{0, 0, 0, 255}, {0, 0, 205, 255}, {205, 0, 0, 255}, {205, 0, 205, 255},
		{0, 205, 0, 255}, {0, 205, 205, 255}, {205, 205, 0, 255}, {205, 205, 205, 255},
		{0, 0, 0, 255}, {0, 0, 255, 255}, {255, 0, 0, 255}, {255, 0, 255, 255},
		{0, 255, 0, 255}, {0, 255, 255, 255}, {255, 255, 0, 255}, {255, 255, 255, 255},
	}
	copy(p.palette[:], vga)
	for i := 16; i < 256; i++ {
		gray := uint8((i - 16) * 255 / 239)
		p.palette[i] = color.RGBA{gray, gray, gray, 255}
	}
}

func (p *sixelDecoder) run(data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]
		i++
		switch {
		case b == '$':
			p.x = 0
		case b == '-':
			p.x = 0
			p.y += 6
		case b == '!':
			count, next := p.parseNumber(data, i)
			i = next
			if i < len(data) {
				sx := data[i]
				i++
				if sx >= '?' && sx <= '~' {
					p.drawSixel(sx, int(count))
				}
			}
		case b == '#':
			i = p.handleColorIntroducer(data, i)
		case b >= '?' && b <= '~':
			p.drawSixel(b, 1)
		case b == '"':
			for i < len(data) && data[i] != '$' && data[i] != '-' &&
				data[i] != '#' && data[i] != '!' &&
				!(data[i] >= '?' && data[i] <= '~') {
				i++
			}
		}
	}
}

func (p *sixelDecoder) handleColorIntroducer(data []byte, i int) int {
	colorNum, next := p.parseNumber(data, i)
	i = next
	if i < len(data) && data[i] == ';' {
		i++
		colorType, next := p.parseNumber(data, i)
		i = next
		if i < len(data) && data[i] == ';' {
			i++
			v1, next := p.parseNumber(data, i)
			i = next
			if i < len(data) && data[i] == ';' {
				i++
				v2, next := p.parseNumber(data, i)
				i = next
				if i < len(data) && data[i] == ';' {
					i++
					v3, next := p.parseNumber(data, i)
					i = next
					if colorNum >= 0 && colorNum < 256 {
						if colorType == 1 {
							p.palette[colorNum] = hlsToRGB(int(v1), int(v2), int(v3))
						} else {
							p.palette[colorNum] = color.RGBA{
								R: uint8(v1 * 255 / 100),
								G: uint8(v2 * 255 / 100),
								B: uint8(v3 * 255 / 100),
								A: 255,
							}
						}
					}
				}
			}
		}
	}
	if colorNum >= 0 && colorNum < 256 {
		p.colorIndex = int(colorNum)
	}
	return i
}

func (p *sixelDecoder) parseNumber(data []byte, i int) (int64, int) {
	var n int64
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		n = n*10 + int64(data[i]-'0')
		i++
	}
	return n, i
}

func (p *sixelDecoder) drawSixel(b byte, count int) {
	if count <= 0 {
		count = 1
	}
	bits := b - '?'
	c := p.palette[p.colorIndex]
	for r := 0; r < count; r++ {
		for bit := 0; bit < 6; bit++ {
			if bits&(1<<bit) != 0 {
				py, px := p.y+bit, p.x
				if p.pixels[py] == nil {
					p.pixels[py] = make(map[int]color.RGBA)
				}
				p.pixels[py][px] = c
				if px > p.maxX {
					p.maxX = px
				}
				if py > p.maxY {
					p.maxY = py
				}
			}
		}
		p.x++
	}
}

func (p *sixelDecoder) toBuffer() (sixel.PixelBuffer, bool) {
	if len(p.pixels) == 0 {
		return sixel.PixelBuffer{}, false
	}
	width, height := p.maxX+1, p.maxY+1
	data := make([]byte, width*height*4)
	if !p.transparent {
		bg := p.palette[0]
		for i := 0; i < width*height; i++ {
			data[i*4+0] = bg.R
			data[i*4+1] = bg.G
			data[i*4+2] = bg.B
			data[i*4+3] = bg.A
		}
	}
	for y, row := range p.pixels {
		for x, c := range row {
			if x >= 0 && x < width && y >= 0 && y < height {
				off := (y*width + x) * 4
				data[off+0] = c.R
				data[off+1] = c.G
				data[off+2] = c.B
				data[off+3] = c.A
			}
		}
	}
	return sixel.PixelBuffer{Width: width, Height: height, RGBA: data}, true
}

// hlsToRGB converts Sixel's non-standard HLS (blue=0°, red=120°, green=240°)
// to RGB.
func hlsToRGB(h, l, s int) color.RGBA {
	if s == 0 {
		v := uint8(l * 255 / 100)
		return color.RGBA{v, v, v, 255}
	}
	hNorm := float64(h) / 360.0
	lNorm := float64(l) / 100.0
	sNorm := float64(s) / 100.0
	hNorm += 1.0 / 3.0
	if hNorm >= 1.0 {
		hNorm -= 1.0
	}
	var q float64
	if lNorm < 0.5 {
		q = lNorm * (1 + sNorm)
	} else {
		q = lNorm + sNorm - lNorm*sNorm
	}
	pp := 2*lNorm - q
	r := hueToRGB(pp, q, hNorm+1.0/3.0)
	g := hueToRGB(pp, q, hNorm)
	b := hueToRGB(pp, q, hNorm-1.0/3.0)
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
