package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Panel dimensions match the 240x135 ST7789 TFT used on handheld builds, so
// a frame can be pushed to such a screen unscaled.
const (
	panelWidth  = 240
	panelHeight = 135
)

var (
	panelBG      = color.RGBA{A: 255}
	panelTitle   = color.RGBA{G: 255, B: 255, A: 255} // cyan
	panelText    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	panelAlert   = color.RGBA{R: 255, A: 255}
	panelSuccess = color.RGBA{G: 255, A: 255}
	panelWarning = color.RGBA{R: 255, G: 255, A: 255} // yellow
)

// Panel renders detector screens into a PNG file, acting as a virtual TFT.
// Screens replace the whole frame; Status only repaints the bottom strip of
// whatever screen is showing, as on the hardware display.
type Panel struct {
	mu       sync.Mutex
	path     string
	fontPath string
	fontSize float64
	face     font.Face
	img      *image.RGBA
}

// NewPanel returns a Panel writing frames to path. Without WithFont it
// renders with a built-in 7x13 bitmap face.
func NewPanel(path string, opts ...func(*Panel)) (*Panel, error) {
	if path == "" {
		return nil, errors.New("display: panel output path is required")
	}

	p := &Panel{
		path:     path,
		fontSize: 12,
		img:      image.NewRGBA(image.Rect(0, 0, panelWidth, panelHeight)),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.fontPath == "" {
		p.face = basicfont.Face7x13
	} else {
		data, err := os.ReadFile(p.fontPath)
		if err != nil {
			return nil, fmt.Errorf("display: reading font: %w", err)
		}
		f, err := freetype.ParseFont(data)
		if err != nil {
			return nil, fmt.Errorf("display: parsing font: %w", err)
		}
		p.face = truetype.NewFace(f, &truetype.Options{
			Size:    p.fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}

	p.clear()
	return p, nil
}

// WithFont renders text with the TrueType font at path instead of the
// built-in bitmap face. A non-positive size keeps the default.
func WithFont(path string, size float64) func(*Panel) {
	return func(p *Panel) {
		p.fontPath = path
		if size > 0 {
			p.fontSize = size
		}
	}
}

// Close releases the font face. The last written frame stays on disk.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.face.Close()
}

func (p *Panel) Splash() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clear()
	p.text(20, 30, panelTitle, "Drone Detector")
	p.text(20, 60, panelText, "SX1262 sub-GHz monitor")
	p.text(20, 75, panelText, "RF signal analysis")
	p.text(20, 100, panelSuccess, "Initializing...")
	return p.flush()
}

func (p *Panel) Scanning(v Scanning) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clear()
	p.text(10, 20, panelTitle, "SCANNING")
	p.text(10, 40, panelText, fmt.Sprintf("Freq: %.1f MHz", v.Frequency))
	p.text(10, 52, panelText, fmt.Sprintf("Mode: %s", v.Modulation))
	p.text(10, 64, panelText, fmt.Sprintf("Detections: %d", v.Total))
	p.text(10, 85, panelSuccess, "Listening for RF signals...")
	p.rect(image.Rect(10, 100, 230, 120), panelSuccess)
	return p.flush()
}

func (p *Panel) Detection(v Detection) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := v.Result

	rssiColor := panelWarning
	if res.RSSI > -70 {
		rssiColor = panelSuccess
	}
	snrColor := panelWarning
	if res.SNR > 0 {
		snrColor = panelSuccess
	}
	protocol := res.Protocol
	if protocol == "" {
		protocol = "Unknown"
	}

	p.clear()
	p.text(10, 20, panelAlert, "RF DETECTED!")
	p.text(10, 38, panelText, fmt.Sprintf("Mode: %s", res.Modulation))
	p.textPair(10, 50, panelText, "RSSI: ", rssiColor, fmt.Sprintf("%.1f dBm", res.RSSI))
	p.textPair(10, 62, panelText, "SNR:  ", snrColor, fmt.Sprintf("%.1f dB", res.SNR))
	p.text(10, 74, panelText, fmt.Sprintf("Freq Error: %.0f Hz", res.FrequencyError))
	p.text(10, 88, panelTitle, fmt.Sprintf("Type: %s (%d%%)", protocol, res.Confidence))
	p.text(10, 102, panelTitle, fmt.Sprintf("Total: %d", v.Total))

	bar := image.Rect(10, 105, 230, 120)
	p.fill(bar, panelAlert)
	width := font.MeasureString(p.face, "SIGNAL")
	p.text((panelWidth-width.Ceil())/2, 116, panelBG, "SIGNAL")
	return p.flush()
}

func (p *Panel) Error(message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clear()
	p.text(10, 35, panelAlert, "ERROR")
	p.text(10, 60, panelText, message)
	return p.flush()
}

func (p *Panel) Status(message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fill(image.Rect(0, panelHeight-15, panelWidth, panelHeight), panelBG)
	p.text(5, panelHeight-4, panelText, message)
	return p.flush()
}

func (p *Panel) clear() {
	p.fill(p.img.Bounds(), panelBG)
}

func (p *Panel) fill(r image.Rectangle, col color.Color) {
	draw.Draw(p.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (p *Panel) rect(r image.Rectangle, col color.Color) {
	p.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), col)
	p.fill(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), col)
	p.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), col)
	p.fill(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), col)
}

func (p *Panel) text(x, y int, col color.Color, s string) {
	d := font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(col),
		Face: p.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// textPair draws a label and its value on one baseline in two colors.
func (p *Panel) textPair(x, y int, labelCol color.Color, label string, valueCol color.Color, value string) {
	d := font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(labelCol),
		Face: p.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
	d.Src = image.NewUniform(valueCol)
	d.DrawString(value)
}

func (p *Panel) flush() error {
	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("display: writing panel: %w", err)
	}
	if err := png.Encode(f, p.img); err != nil {
		f.Close()
		return fmt.Errorf("display: encoding panel: %w", err)
	}
	return f.Close()
}
