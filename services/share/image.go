package share

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cinescope/web-ui/services/job"
)

const (
	shareCardWidthFlag  = "share-card-width"
	shareCardHeightFlag = "share-card-height"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.IntFlag{
			Name:   shareCardWidthFlag,
			Usage:  "share card width in pixels",
			Value:  1200,
			EnvVar: "SHARE_CARD_WIDTH",
		},
		cli.IntFlag{
			Name:   shareCardHeightFlag,
			Usage:  "share card height in pixels",
			Value:  630,
			EnvVar: "SHARE_CARD_HEIGHT",
		},
	)
}

// Card is the input for one share image.
type Card struct {
	Title    string
	Year     string
	Rating   float64
	Poster   image.Image // optional
	Backdrop image.Image // optional
}

// Renderer composes share cards on the job pool, the image-rendering
// counterpart to the progress worker.
type Renderer struct {
	pool   *job.Pool
	width  int
	height int
}

func New(c *cli.Context, pool *job.Pool) *Renderer {
	return &Renderer{
		pool:   pool,
		width:  c.Int(shareCardWidthFlag),
		height: c.Int(shareCardHeightFlag),
	}
}

func NewRenderer(pool *job.Pool, width, height int) *Renderer {
	return &Renderer{
		pool:   pool,
		width:  width,
		height: height,
	}
}

// RenderPNG composes the card and encodes it as PNG.
func (s *Renderer) RenderPNG(ctx context.Context, card Card) ([]byte, error) {
	return job.Do(ctx, s.pool, func() ([]byte, error) {
		img, err := s.compose(card)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, errors.Wrap(err, "encode share card")
		}
		return buf.Bytes(), nil
	})
}

func (s *Renderer) compose(card Card) (image.Image, error) {
	if card.Title == "" {
		return nil, errors.New("share card requires a title")
	}
	canvas := imaging.New(s.width, s.height, color.NRGBA{R: 16, G: 16, B: 24, A: 255})

	if card.Backdrop != nil {
		bg := imaging.Fill(card.Backdrop, s.width, s.height, imaging.Center, imaging.Lanczos)
		bg = imaging.Blur(bg, 6)
		bg = imaging.AdjustBrightness(bg, -35)
		canvas = imaging.Paste(canvas, bg, image.Pt(0, 0))
	}

	textLeft := s.width / 16
	if card.Poster != nil {
		posterH := s.height * 3 / 4
		posterW := posterH * 2 / 3
		poster := imaging.Fill(card.Poster, posterW, posterH, imaging.Center, imaging.Lanczos)
		margin := (s.height - posterH) / 2
		canvas = imaging.Paste(canvas, poster, image.Pt(margin, margin))
		textLeft = margin + posterW + margin
	}

	title := card.Title
	if card.Year != "" {
		title = fmt.Sprintf("%s (%s)", card.Title, card.Year)
	}
	drawText(canvas, title, textLeft, s.height/2, color.White)
	if card.Rating > 0 {
		drawText(canvas, fmt.Sprintf("Rating %.1f / 10", card.Rating), textLeft, s.height/2+32, color.NRGBA{R: 245, G: 197, B: 66, A: 255})
	}
	return canvas, nil
}

func drawText(dst *image.NRGBA, text string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
