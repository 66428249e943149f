package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"sort"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/round"
	"github.com/park285/numguess/internal/stats"
)

const (
	chartWidth   = 720
	chartHeight  = 400
	margin       = 28
	headerHeight = 44
	panelGap     = 24
	axisPad      = 22
)

var (
	backgroundColor = color.RGBA{R: 24, G: 27, B: 40, A: 255}
	panelColor      = "#20243a"
	winColor        = "#4cc38a"
	lossColor       = "#e5566b"
	pathColor       = "#8fb8ff"
	targetColor     = "#ffd166"
	gridColor       = "#3a3f5c"
	textPrimary     = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	textMuted       = color.NRGBA{R: 168, G: 174, B: 204, A: 255}
)

// Bar is one difficulty's win/loss split.
type Bar struct {
	Label  string
	Wins   int
	Losses int
}

// Chart is the input for RenderPNG: a grouped bar panel on the left and
// the guess path of one round on the right.
type Chart struct {
	Title      string
	Bars       []Bar
	Path       []int
	Target     int
	LowerBound int
	UpperBound int
}

// FromHistory builds a chart from a profile history, oldest entry first.
// Bars follow the preset order, then any other difficulty alphabetically.
func FromHistory(title string, h []domain.RoundRecord) Chart {
	c := Chart{Title: title}
	all := stats.Summarize(h)
	if all.Games == 0 {
		return c
	}

	seen := map[string]bool{}
	var labels []string
	for _, p := range round.ListPresets() {
		if all.ByDifficulty[p.Name] > 0 {
			labels = append(labels, p.Name)
			seen[p.Name] = true
		}
	}
	var extra []string
	for name := range all.ByDifficulty {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	labels = append(labels, extra...)

	for _, name := range labels {
		s := stats.SummarizeDifficulty(h, name)
		c.Bars = append(c.Bars, Bar{Label: name, Wins: s.Wins, Losses: s.Losses})
	}

	c.Path = all.LastGuessPath
	c.Target = all.LastTarget
	if p, err := round.GetPreset(all.LastDifficulty); err == nil {
		c.LowerBound, c.UpperBound = p.LowerBound, p.UpperBound
	}
	return c
}

// RenderPNG rasterizes the chart. Panels are laid out as SVG and drawn
// with rasterx; labels are drawn afterwards with a bitmap face.
func RenderPNG(ctx context.Context, c Chart) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	l := newLayout()
	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		chartWidth, chartHeight, chartWidth, chartHeight)
	writeRect(&svg, l.bars, panelColor)
	writeRect(&svg, l.path, panelColor)
	var labels []label
	labels = append(labels, barShapes(&svg, l.bars, c.Bars)...)
	labels = append(labels, pathShapes(&svg, l.path, c)...)
	svg.WriteString(`</svg>`)

	if err := rasterize(img, svg.String()); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "Number Guess"
	}
	labels = append(labels,
		label{text: title, x: margin, y: margin + 14, clr: textPrimary},
		label{text: "Wins / losses by difficulty", x: l.bars.Min.X + 10, y: l.bars.Min.Y + 18, clr: textMuted},
		label{text: "Last round", x: l.path.Min.X + 10, y: l.path.Min.Y + 18, clr: textMuted},
	)
	drawLabels(img, labels)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type layout struct {
	bars image.Rectangle
	path image.Rectangle
}

func newLayout() layout {
	top := margin + headerHeight
	bottom := chartHeight - margin
	half := (chartWidth - margin*2 - panelGap) / 2
	return layout{
		bars: image.Rect(margin, top, margin+half, bottom),
		path: image.Rect(margin+half+panelGap, top, chartWidth-margin, bottom),
	}
}

type label struct {
	text   string
	x, y   int
	center bool
	clr    color.Color
}

func writeRect(b *strings.Builder, r image.Rectangle, fill string) {
	fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), fill)
}

func writeLine(b *strings.Builder, x1, y1, x2, y2 float64, stroke string, width float64) {
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f"/>`, x1, y1, x2, y2, stroke, width)
}

// plotArea is the inner rectangle of a panel left for shapes.
func plotArea(panel image.Rectangle) image.Rectangle {
	return image.Rect(panel.Min.X+axisPad+8, panel.Min.Y+axisPad+12, panel.Max.X-axisPad, panel.Max.Y-axisPad-8)
}

func barShapes(b *strings.Builder, panel image.Rectangle, bars []Bar) []label {
	area := plotArea(panel)
	writeLine(b, float64(area.Min.X), float64(area.Max.Y), float64(area.Max.X), float64(area.Max.Y), gridColor, 2)
	if len(bars) == 0 {
		return []label{{text: "No rounds yet", x: panel.Min.X + panel.Dx()/2, y: panel.Min.Y + panel.Dy()/2, center: true, clr: textMuted}}
	}

	peak := 1
	for _, bar := range bars {
		peak = max(peak, bar.Wins, bar.Losses)
	}
	slot := float64(area.Dx()) / float64(len(bars))
	barWidth := min(slot*0.3, 36)
	var labels []label
	for i, bar := range bars {
		center := float64(area.Min.X) + slot*(float64(i)+0.5)
		for j, v := range []int{bar.Wins, bar.Losses} {
			fill := winColor
			x := center - barWidth - 2
			if j == 1 {
				fill = lossColor
				x = center + 2
			}
			h := float64(area.Dy()-14) * float64(v) / float64(peak)
			y := float64(area.Max.Y) - h
			if v > 0 {
				fmt.Fprintf(b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`, x, y, barWidth, h, fill)
			}
			labels = append(labels, label{text: strconv.Itoa(v), x: int(x + barWidth/2), y: int(y) - 4, center: true, clr: textPrimary})
		}
		labels = append(labels, label{text: bar.Label, x: int(center), y: area.Max.Y + 16, center: true, clr: textMuted})
	}
	return labels
}

func pathShapes(b *strings.Builder, panel image.Rectangle, c Chart) []label {
	area := plotArea(panel)
	if len(c.Path) == 0 {
		return []label{{text: "No guesses yet", x: panel.Min.X + panel.Dx()/2, y: panel.Min.Y + panel.Dy()/2, center: true, clr: textMuted}}
	}

	lo, hi := c.LowerBound, c.UpperBound
	if lo >= hi {
		lo, hi = c.Target, c.Target
	}
	for _, g := range c.Path {
		lo, hi = min(lo, g), max(hi, g)
	}
	if hi <= lo {
		hi = lo + 1
	}

	yFor := func(v int) float64 {
		return float64(area.Max.Y) - float64(area.Dy())*float64(v-lo)/float64(hi-lo)
	}
	step := float64(area.Dx())
	if len(c.Path) > 1 {
		step /= float64(len(c.Path) - 1)
	}
	xFor := func(i int) float64 {
		if len(c.Path) == 1 {
			return float64(area.Min.X + area.Dx()/2)
		}
		return float64(area.Min.X) + step*float64(i)
	}

	ty := yFor(c.Target)
	writeLine(b, float64(area.Min.X), ty, float64(area.Max.X), ty, targetColor, 2)

	points := make([]string, 0, len(c.Path))
	for i, g := range c.Path {
		points = append(points, fmt.Sprintf("%.1f,%.1f", xFor(i), yFor(g)))
	}
	if len(points) > 1 {
		fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="3"/>`, strings.Join(points, " "), pathColor)
	}

	labels := []label{
		{text: "target " + strconv.Itoa(c.Target), x: area.Max.X - 60, y: int(ty) - 6, clr: textMuted},
		{text: strconv.Itoa(hi), x: panel.Min.X + 6, y: area.Min.Y + 4, clr: textMuted},
		{text: strconv.Itoa(lo), x: panel.Min.X + 6, y: area.Max.Y + 4, clr: textMuted},
	}
	for i, g := range c.Path {
		fill := pathColor
		if g == c.Target {
			fill = winColor
		}
		fmt.Fprintf(b, `<circle cx="%.1f" cy="%.1f" r="6" fill="%s"/>`, xFor(i), yFor(g), fill)
		labels = append(labels, label{text: strconv.Itoa(g), x: int(xFor(i)), y: int(yFor(g)) - 10, center: true, clr: textPrimary})
	}
	return labels
}

func rasterize(dst *image.RGBA, svg string) error {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return fmt.Errorf("parse chart svg: %w", err)
	}
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return nil
}

func drawLabels(img *image.RGBA, labels []label) {
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	for _, l := range labels {
		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		x := l.x
		if l.center {
			x -= drawer.MeasureString(text).Round() / 2
		}
		drawer.Src = image.NewUniform(l.clr)
		drawer.Dot = fixed.P(x, l.y)
		drawer.DrawString(text)
	}
}
