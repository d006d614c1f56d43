package render

import (
	"bytes"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/qlogtree/pkg/errors"
)

// Converter shells out to rsvg-convert (librsvg) to rasterize or print SVG.
type Converter struct {
	// Binary is the executable to run. Empty means "rsvg-convert" on PATH.
	Binary string
}

// DefaultConverter honours $QLOGTREE_RSVG and otherwise looks up
// rsvg-convert on PATH.
var DefaultConverter = Converter{Binary: os.Getenv("QLOGTREE_RSVG")}

const installHint = "install librsvg (brew install librsvg, apt install librsvg2-bin)"

func (c Converter) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "rsvg-convert"
}

// Available reports whether the converter's binary can be found.
func (c Converter) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

// PDF prints svg as a single-page PDF.
func (c Converter) PDF(svg []byte) ([]byte, error) {
	return c.run(svg, "pdf")
}

// PNG rasterizes svg at scale times its intrinsic size. A non-positive
// scale means 1.
func (c Converter) PNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return c.run(svg, "png", "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
}

func (c Converter) run(svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(c.binary())
	if err != nil {
		return nil, errors.New(errors.ErrCodeRender, "%s output needs %s: %s", strings.ToUpper(format), c.binary(), installHint)
	}

	cmd := exec.Command(bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "%s: %s", c.binary(), strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ToPDF converts svg with [DefaultConverter].
func ToPDF(svg []byte) ([]byte, error) { return DefaultConverter.PDF(svg) }

// ToPNG converts svg with [DefaultConverter].
func ToPNG(svg []byte, scale float64) ([]byte, error) { return DefaultConverter.PNG(svg, scale) }

// Available reports whether [DefaultConverter] can run.
func Available() bool { return DefaultConverter.Available() }
