// Package render turns SVG into the print and raster formats.
//
// Snapshots and the completion chart are drawn as SVG first. A [Converter]
// pipes that SVG through rsvg-convert for PDF or PNG output; the
// package-level [ToPDF] and [ToPNG] use [DefaultConverter].
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2) // twice the intrinsic size
//
// Subpackage nodelink produces the snapshot SVG.
package render
