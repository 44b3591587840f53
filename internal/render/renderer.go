package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"
	"sync"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpchan"
	"github.com/park285/tictactoe-kakao-bot/internal/tictactoe"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	canvasSize   = 300
	gridLineA    = 98
	gridLineB    = 198
	gridWidth    = 4
	markSize     = 72
	outlineWidth = 4
	strikeWidth  = 10
	legendHeight = 36
	legendPadX   = 10
	legendPoints = 15
)

var (
	backgroundColor = color.RGBA{49, 51, 56, 255}
	gridColor       = color.RGBA{128, 128, 128, 255}
	outlineColor    = color.NRGBA{R: 255, G: 214, B: 64, A: 255}
	strikeColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 210}
	legendPanel     = color.RGBA{32, 34, 37, 255}
	legendText      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

// cellSpans are the pixel ranges of the three rows and columns between grid lines.
var cellSpans = [tictactoe.Size][2]int{
	{0, gridLineA},
	{gridLineA + gridWidth, gridLineB},
	{gridLineB + gridWidth, canvasSize},
}

// Board renders tic-tac-toe scenes to PNG. It implements pvpchan.Renderer.
type Board struct {
	faceOnce sync.Once
	face     font.Face
	faceErr  error
	// opentype faces are not safe for concurrent use
	faceMu sync.Mutex
}

func NewBoard() *Board { return &Board{} }

func (b *Board) legendFace() (font.Face, error) {
	b.faceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			b.faceErr = fmt.Errorf("parse legend font: %w", err)
			return
		}
		b.face, b.faceErr = opentype.NewFace(f, &opentype.FaceOptions{Size: legendPoints, DPI: 72, Hinting: font.HintingFull})
	})
	return b.face, b.faceErr
}

func (b *Board) Render(ctx context.Context, scene pvpchan.Scene) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	height := canvasSize
	legend := strings.TrimSpace(scene.Legend)
	if legend != "" {
		height += legendHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, canvasSize, height))
	drawGrid(img)
	if err := drawMarks(img, scene.Board); err != nil {
		return nil, err
	}
	if scene.Highlight >= 0 && scene.Highlight < tictactoe.Cells {
		drawOutline(img, cellRect(scene.Highlight), outlineWidth, outlineColor)
	}
	if scene.Strike >= 0 && scene.Strike < len(tictactoe.Lines) {
		drawStrike(img, tictactoe.Lines[scene.Strike])
	}
	if legend != "" {
		if err := b.drawLegend(img, legend); err != nil {
			return nil, err
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawGrid(img *image.RGBA) {
	imagedraw.Draw(img, image.Rect(0, 0, canvasSize, canvasSize), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	line := image.NewUniform(gridColor)
	for _, at := range []int{gridLineA, gridLineB} {
		imagedraw.Draw(img, image.Rect(at, 0, at+gridWidth, canvasSize), line, image.Point{}, imagedraw.Src)
		imagedraw.Draw(img, image.Rect(0, at, canvasSize, at+gridWidth), line, image.Point{}, imagedraw.Src)
	}
}

func cellRect(index int) image.Rectangle {
	row, col := tictactoe.Row(index), tictactoe.Col(index)
	return image.Rect(cellSpans[col][0], cellSpans[row][0], cellSpans[col][1], cellSpans[row][1])
}

func cellCenter(index int) pointF {
	r := cellRect(index)
	return pointF{X: float64(r.Min.X+r.Max.X) / 2, Y: float64(r.Min.Y+r.Max.Y) / 2}
}

func drawMarks(dst *image.RGBA, board tictactoe.Board) error {
	for i, c := range board {
		if c == tictactoe.Empty {
			continue
		}
		mark, err := renderMarkImage(c, markSize)
		if err != nil {
			return err
		}
		r := cellRect(i)
		x := r.Min.X + (r.Dx()-markSize)/2
		y := r.Min.Y + (r.Dy()-markSize)/2
		imagedraw.Draw(dst, image.Rect(x, y, x+markSize, y+markSize), mark, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawOutline(img *image.RGBA, rect image.Rectangle, width int, clr color.Color) {
	inner := rect.Inset(2)
	fill := image.NewUniform(clr)
	edges := []image.Rectangle{
		image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+width),
		image.Rect(inner.Min.X, inner.Max.Y-width, inner.Max.X, inner.Max.Y),
		image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+width, inner.Max.Y),
		image.Rect(inner.Max.X-width, inner.Min.Y, inner.Max.X, inner.Max.Y),
	}
	for _, e := range edges {
		imagedraw.Draw(img, e, fill, image.Point{}, imagedraw.Over)
	}
}

// drawStrike draws a bar through the winning line, overshooting the end cells a little.
func drawStrike(img *image.RGBA, line [3]int) {
	start, end := cellCenter(line[0]), cellCenter(line[2])
	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX
	const overshoot = 36.0
	half := float64(strikeWidth) / 2

	s := pointF{X: start.X - dirX*overshoot, Y: start.Y - dirY*overshoot}
	e := pointF{X: end.X + dirX*overshoot, Y: end.Y + dirY*overshoot}
	fillQuad(img,
		pointF{X: s.X - perpX*half, Y: s.Y - perpY*half},
		pointF{X: s.X + perpX*half, Y: s.Y + perpY*half},
		pointF{X: e.X + perpX*half, Y: e.Y + perpY*half},
		pointF{X: e.X - perpX*half, Y: e.Y - perpY*half},
		strikeColor,
	)
}

func (b *Board) drawLegend(img *image.RGBA, text string) error {
	face, err := b.legendFace()
	if err != nil {
		return err
	}
	b.faceMu.Lock()
	defer b.faceMu.Unlock()
	band := image.Rect(0, canvasSize, canvasSize, canvasSize+legendHeight)
	imagedraw.Draw(img, band, image.NewUniform(legendPanel), image.Point{}, imagedraw.Src)

	drawer := &font.Drawer{Dst: img, Face: face}
	text = truncateWithEllipsis(face, text, band.Dx()-legendPadX*2)
	drawCenteredString(drawer, band, text, legendText)
	return nil
}
