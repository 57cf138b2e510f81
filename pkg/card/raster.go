package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/goliatone/go-matchcard/pkg/render"
)

const (
	// DefaultScale matches the device pixel ratio the card was designed for.
	DefaultScale = 2.0
	// DefaultWidth is the card width in layout units, before scaling.
	DefaultWidth = 400
)

// Layout metrics in unscaled units.
const (
	padding      = 24
	headerHeight = 72
	avatarSize   = 96
	avatarRing   = 2
	gridGap      = 16
	boxPadding   = 12
	sectionGap   = 16
)

// Renderer rasterises card views. It is safe for concurrent use; font faces
// are created per call.
type Renderer struct {
	fonts  Fonts
	scale  float64
	width  int
	tokens map[string]string
	logger *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFonts overrides the faces used for text.
func WithFonts(f Fonts) Option {
	return func(r *Renderer) {
		if f.Regular != nil {
			r.fonts = f
		}
	}
}

// WithScale sets the output pixel ratio.
func WithScale(scale float64) Option {
	return func(r *Renderer) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

// WithWidth sets the unscaled card width.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithTokens sets the colour tokens, typically a resolved go-theme config.
func WithTokens(tokens map[string]string) Option {
	return func(r *Renderer) {
		if len(tokens) > 0 {
			r.tokens = tokens
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer builds a Renderer. Without WithFonts the Go fonts are used.
func NewRenderer(options ...Option) (*Renderer, error) {
	r := &Renderer{
		scale:  DefaultScale,
		width:  DefaultWidth,
		tokens: render.DefaultThemeManifest().Tokens,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.fonts.Regular == nil {
		f, err := defaultFonts()
		if err != nil {
			return nil, err
		}
		r.fonts = f
	}
	if r.fonts.Bold == nil {
		r.fonts.Bold = r.fonts.Regular
	}
	if r.fonts.Fallback {
		r.logger.Warn("card: using Go fonts; configure card.font_path for CJK glyphs")
	}
	return r, nil
}

// PixelWidth is the width of the produced PNG.
func (r *Renderer) PixelWidth() int {
	return int(float64(r.width) * r.scale)
}

// Render draws the view and encodes it as PNG. portrait may be nil.
func (r *Renderer) Render(ctx context.Context, view View, portrait image.Image) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	faces, err := r.newFaces()
	if err != nil {
		return nil, err
	}
	defer faces.close()

	palette := newPalette(r.tokens)

	// measure pass, then draw pass
	measure := &painter{r: r, faces: faces, palette: palette}
	height := measure.layout(view, portrait)

	canvas := image.NewRGBA(image.Rect(0, 0, r.PixelWidth(), height))
	paint := &painter{r: r, faces: faces, palette: palette, dst: canvas}
	paint.layout(view, portrait)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("card: encode png: %w", err)
	}
	r.logger.Debug("card rendered",
		zap.Int("width", canvas.Bounds().Dx()),
		zap.Int("height", canvas.Bounds().Dy()),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

type faceSet struct {
	title    font.Face
	subtitle font.Face
	name     font.Face
	body     font.Face
	label    font.Face
	value    font.Face
	small    font.Face
}

func (r *Renderer) newFaces() (*faceSet, error) {
	mk := func(f *opentype.Font, size float64) (font.Face, error) {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size * r.scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("card: font face: %w", err)
		}
		return face, nil
	}

	var (
		fs  faceSet
		err error
	)
	specs := []struct {
		dst  *font.Face
		font *opentype.Font
		size float64
	}{
		{&fs.title, r.fonts.Bold, 20},
		{&fs.subtitle, r.fonts.Regular, 13},
		{&fs.name, r.fonts.Bold, 24},
		{&fs.body, r.fonts.Regular, 14},
		{&fs.label, r.fonts.Regular, 12},
		{&fs.value, r.fonts.Bold, 15},
		{&fs.small, r.fonts.Regular, 11},
	}
	for _, spec := range specs {
		if *spec.dst, err = mk(spec.font, spec.size); err != nil {
			fs.close()
			return nil, err
		}
	}
	return &fs, nil
}

func (fs *faceSet) close() {
	for _, face := range []font.Face{fs.title, fs.subtitle, fs.name, fs.body, fs.label, fs.value, fs.small} {
		if face != nil {
			_ = face.Close()
		}
	}
}

type palette struct {
	surface     color.Color
	headerStart color.RGBA
	headerEnd   color.RGBA
	headerText  color.Color
	text        color.Color
	muted       color.Color
	label       color.Color
	divider     color.Color
	ring        color.Color
	avatar      color.Color
}

func newPalette(tokens map[string]string) palette {
	get := func(key string, fallback color.RGBA) color.RGBA {
		if c, err := parseHexColor(tokens[key]); err == nil {
			return c
		}
		return fallback
	}
	return palette{
		surface:     get("surface", color.RGBA{255, 255, 255, 255}),
		headerStart: get("header-start", color.RGBA{244, 63, 94, 255}),
		headerEnd:   get("header-end", color.RGBA{236, 72, 153, 255}),
		headerText:  get("header-text", color.RGBA{255, 255, 255, 255}),
		text:        get("text", color.RGBA{31, 41, 55, 255}),
		muted:       get("text-muted", color.RGBA{107, 114, 128, 255}),
		label:       get("card-label", color.RGBA{156, 163, 175, 255}),
		divider:     get("card-divider", color.RGBA{243, 244, 246, 255}),
		ring:        get("border", color.RGBA{254, 205, 211, 255}),
		avatar:      get("primary-soft", color.RGBA{255, 241, 242, 255}),
	}
}

var errBadColor = errors.New("card: invalid colour")

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(value string) (color.RGBA, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) == 3 {
		value = string([]byte{value[0], value[0], value[1], value[1], value[2], value[2]})
	}
	if len(value) != 6 {
		return color.RGBA{}, errBadColor
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return color.RGBA{}, errBadColor
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
}

// painter walks the layout once. With a nil dst it only advances the cursor,
// which yields the canvas height.
type painter struct {
	r       *Renderer
	faces   *faceSet
	palette palette
	dst     *image.RGBA
	y       int
}

func (p *painter) px(units int) int {
	return int(float64(units) * p.r.scale)
}

func (p *painter) layout(view View, portrait image.Image) int {
	width := p.r.PixelWidth()
	pad := p.px(padding)
	inner := width - 2*pad

	if p.dst != nil {
		draw.Draw(p.dst, p.dst.Bounds(), image.NewUniform(p.palette.surface), image.Point{}, draw.Src)
		p.gradient(image.Rect(0, 0, width, p.px(headerHeight)))
	}

	// header band
	p.y = p.px(18)
	p.text(p.faces.title, view.Title, pad, p.palette.headerText)
	p.y += p.px(4)
	p.text(p.faces.subtitle, view.Subtitle, pad, p.palette.headerText)
	p.y = p.px(headerHeight) + pad

	// avatar, name, headline
	size := p.px(avatarSize)
	left := (width - size) / 2
	p.avatar(image.Rect(left, p.y, left+size, p.y+size), portrait)
	p.y += size + p.px(12)
	p.centered(p.faces.name, view.Name, p.palette.text)
	p.y += p.px(4)
	p.centered(p.faces.body, view.Headline, p.palette.muted)
	p.y += p.px(sectionGap)
	p.rule(pad, width-pad)
	p.y += p.px(sectionGap)

	// two column detail grid
	colWidth := (inner - p.px(gridGap)) / 2
	for i := 0; i < len(view.Details); i += 2 {
		top := p.y
		bottom := top
		for col := 0; col < 2 && i+col < len(view.Details); col++ {
			p.y = top
			x := pad + col*(colWidth+p.px(gridGap))
			detail := view.Details[i+col]
			p.text(p.faces.label, detail.Label, x, p.palette.label)
			p.y += p.px(2)
			p.wrapped(p.faces.value, detail.Value, x, colWidth, p.palette.text)
			bottom = max(bottom, p.y)
		}
		p.y = bottom + p.px(gridGap)
	}

	// free text boxes
	for _, detail := range view.Texts {
		p.text(p.faces.label, detail.Label, pad, p.palette.label)
		p.y += p.px(8)
		boxTop := p.y
		measure := &painter{r: p.r, faces: p.faces, palette: p.palette, y: boxTop + p.px(boxPadding)}
		measure.wrapped(p.faces.body, detail.Value, pad+p.px(boxPadding), inner-2*p.px(boxPadding), p.palette.text)
		boxBottom := measure.y + p.px(boxPadding)
		if p.dst != nil {
			draw.Draw(p.dst, image.Rect(pad, boxTop, width-pad, boxBottom), image.NewUniform(p.palette.divider), image.Point{}, draw.Src)
		}
		p.y = boxTop + p.px(boxPadding)
		p.wrapped(p.faces.body, detail.Value, pad+p.px(boxPadding), inner-2*p.px(boxPadding), p.palette.text)
		p.y = boxBottom + p.px(sectionGap)
	}

	// footer
	p.rule(pad, width-pad)
	p.y += p.px(12)
	footer := view.Timestamp.Value
	if view.Timestamp.Label != "" {
		footer = view.Timestamp.Label + ": " + footer
	}
	p.centered(p.faces.small, footer, p.palette.label)
	p.y += pad
	return p.y
}

func (p *painter) gradient(rect image.Rectangle) {
	start, end := p.palette.headerStart, p.palette.headerEnd
	span := max(1, rect.Dx()-1)
	for x := rect.Min.X; x < rect.Max.X; x++ {
		t := float64(x-rect.Min.X) / float64(span)
		c := color.RGBA{
			R: lerp(start.R, end.R, t),
			G: lerp(start.G, end.G, t),
			B: lerp(start.B, end.B, t),
			A: 255,
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			p.dst.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func (p *painter) rule(x0, x1 int) {
	if p.dst != nil {
		draw.Draw(p.dst, image.Rect(x0, p.y, x1, p.y+max(1, p.px(1)/2+1)), image.NewUniform(p.palette.divider), image.Point{}, draw.Src)
	}
	p.y += p.px(1)
}

func (p *painter) avatar(rect image.Rectangle, portrait image.Image) {
	if p.dst == nil {
		return
	}
	ring := p.px(avatarRing)
	outer := rect.Inset(-ring)
	draw.DrawMask(p.dst, outer, image.NewUniform(p.palette.ring), image.Point{}, newCircle(outer), outer.Min, draw.Over)

	face := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if portrait == nil {
		draw.Draw(face, face.Bounds(), image.NewUniform(p.palette.avatar), image.Point{}, draw.Src)
	} else {
		draw.CatmullRom.Scale(face, face.Bounds(), portrait, coverCrop(portrait.Bounds()), draw.Src, nil)
	}
	draw.DrawMask(p.dst, rect, face, image.Point{}, newCircle(rect), rect.Min, draw.Over)
}

// coverCrop returns the centred square of b, like object-fit: cover.
func coverCrop(b image.Rectangle) image.Rectangle {
	side := min(b.Dx(), b.Dy())
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	return image.Rect(x, y, x+side, y+side)
}

// circle is an alpha mask for a disc inscribed in a rectangle.
type circle struct {
	rect image.Rectangle
}

func newCircle(rect image.Rectangle) *circle {
	return &circle{rect: rect}
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle { return c.rect }

func (c *circle) At(x, y int) color.Color {
	r := float64(c.rect.Dx()) / 2
	cx := float64(c.rect.Min.X) + r
	cy := float64(c.rect.Min.Y) + r
	dx := float64(x) + 0.5 - cx
	dy := float64(y) + 0.5 - cy
	if dx*dx+dy*dy <= r*r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// text draws one line with its top at p.y and advances the cursor.
func (p *painter) text(face font.Face, s string, x int, c color.Color) {
	metrics := face.Metrics()
	if p.dst != nil && s != "" {
		d := &font.Drawer{
			Dst:  p.dst,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(p.y) + metrics.Ascent},
		}
		d.DrawString(s)
	}
	p.y += metrics.Height.Ceil()
}

func (p *painter) centered(face font.Face, s string, c color.Color) {
	width := p.r.PixelWidth()
	maxWidth := width - 2*p.px(padding)
	for _, line := range wrapLines(face, s, maxWidth) {
		w := font.MeasureString(face, line).Ceil()
		p.text(face, line, (width-w)/2, c)
	}
}

func (p *painter) wrapped(face font.Face, s string, x, maxWidth int, c color.Color) {
	for _, line := range wrapLines(face, s, maxWidth) {
		p.text(face, line, x, c)
	}
}

// wrapLines breaks s into lines no wider than maxWidth. Explicit newlines are
// kept; Latin words break at spaces, CJK text between any two runes.
func wrapLines(face font.Face, s string, maxWidth int) []string {
	var lines []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		lines = append(lines, wrapParagraph(face, paragraph, maxWidth)...)
	}
	return lines
}

func wrapParagraph(face font.Face, s string, maxWidth int) []string {
	limit := fixed.I(maxWidth)
	if s == "" || font.MeasureString(face, s) <= limit {
		return []string{s}
	}

	var (
		lines []string
		line  []rune
	)
	for _, r := range s {
		candidate := append(line, r)
		if len(line) > 0 && font.MeasureString(face, string(candidate)) > limit {
			cut := lastBreak(line)
			if cut > 0 && !unicode.IsSpace(r) {
				lines = append(lines, strings.TrimRight(string(line[:cut]), " "))
				line = append([]rune{}, line[cut:]...)
			} else {
				lines = append(lines, strings.TrimRight(string(line), " "))
				line = line[:0]
			}
			if unicode.IsSpace(r) && len(line) == 0 {
				continue
			}
			line = append(line, r)
			continue
		}
		line = candidate
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}

// lastBreak returns the index after the last space when the line ends inside
// a Latin word, or 0 when breaking anywhere is fine.
func lastBreak(line []rune) int {
	last := line[len(line)-1]
	if last > unicode.MaxLatin1 || unicode.IsSpace(last) {
		return 0
	}
	for i := len(line) - 1; i > 0; i-- {
		if unicode.IsSpace(line[i]) {
			return i + 1
		}
		if line[i] > unicode.MaxLatin1 {
			return i + 1
		}
	}
	return 0
}
