package service

import (
	"bytes"
	"fmt"

	"github.com/nadzzz/qrforge/internal/qr"
)

// pathSVG draws bitmap as one path of merged horizontal runs. The viewBox is
// in module units; width and height scale it to size pixels.
func pathSVG(bitmap [][]bool, size int, fg, bg qr.Color) []byte {
	n := len(bitmap)
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, n, n)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="%s"/>`, n, n, bg)
	fmt.Fprintf(&buf, `<path fill="%s" d="`, fg)
	for y, row := range bitmap {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&buf, "M%d,%dh%dv1h-%dz", start, y, x-start, x-start)
		}
	}
	buf.WriteString(`"/></svg>`)
	return buf.Bytes()
}
