package types

// CursorEvent is one user interaction inside the viewer: an image
// coordinate pair and the key that was pressed there.
type CursorEvent struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Key string  `json:"key"`
}

// FrameInfo describes the image currently loaded in a display frame.
// Filename is empty when the frame holds no image.
type FrameInfo struct {
	Frame    string `json:"frame"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}
