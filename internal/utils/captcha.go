package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/big"
	mrand "math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Captcha image geometry.
const (
	CaptchaWidth  = 200
	CaptchaHeight = 80

	captchaAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	noiseDots       = 100
	noiseLines      = 5
)

// CaptchaText returns n characters drawn uniformly from A-Z and 0-9.
func CaptchaText(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(captchaAlphabet)))
	for i := range out {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = captchaAlphabet[k.Int64()]
	}
	return string(out), nil
}

// RenderCaptcha draws text on a CaptchaWidth x CaptchaHeight PNG with dot
// and line noise and returns it base64 encoded. Glyphs come from the
// 7x13 bitmap face and are scaled up so the image needs no font files.
func RenderCaptcha(text string) (string, error) {
	face := basicfont.Face7x13
	const pad, jitter = 2, 3
	glyphW := face.Advance + 2

	small := image.NewRGBA(image.Rect(0, 0, len(text)*glyphW+2*pad, face.Height+2*pad+jitter))
	draw.Draw(small, small.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for i, ch := range text {
		d := &font.Drawer{
			Dst:  small,
			Src:  image.NewUniform(randomInk()),
			Face: face,
			Dot:  fixed.P(pad+i*glyphW, pad+face.Ascent+mrand.Intn(jitter+1)),
		}
		d.DrawString(string(ch))
	}

	img := image.NewRGBA(image.Rect(0, 0, CaptchaWidth, CaptchaHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	target := image.Rect(10, 8, CaptchaWidth-10, CaptchaHeight-8)
	draw.ApproxBiLinear.Scale(img, target, small, small.Bounds(), draw.Over, nil)

	for i := 0; i < noiseDots; i++ {
		img.Set(mrand.Intn(CaptchaWidth), mrand.Intn(CaptchaHeight), randomInk())
	}
	for i := 0; i < noiseLines; i++ {
		drawLine(img,
			image.Pt(mrand.Intn(CaptchaWidth), mrand.Intn(CaptchaHeight)),
			image.Pt(mrand.Intn(CaptchaWidth), mrand.Intn(CaptchaHeight)),
			randomInk())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func randomInk() color.RGBA {
	return color.RGBA{R: uint8(mrand.Intn(150)), G: uint8(mrand.Intn(150)), B: uint8(mrand.Intn(150)), A: 255}
}

// drawLine plots a Bresenham line from a to b.
func drawLine(img draw.Image, a, b image.Point, c color.Color) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
