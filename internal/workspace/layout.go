package workspace

// Rect is a tile's placement on the output in pixels.
type Rect struct {
	X      int16
	Y      int16
	Width  uint16
	Height uint16
}

// Arrange splits the output into full-height columns, one per visible tile,
// in visible order.
func (ws *Workspace) Arrange(width, height uint16) []Rect {
	count := ws.visible
	rects := make([]Rect, count)

	tileWidth := uint16(float32(width) * (1.0 / float32(count)))
	for i := 0; i < count; i++ {
		rects[i] = Rect{
			X:      int16(tileWidth * uint16(i)),
			Y:      0,
			Width:  tileWidth,
			Height: height,
		}
	}
	return rects
}
