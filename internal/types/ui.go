package types

// WebMessage is the JSON envelope a browser viewer sends over the
// websocket. "frame" messages replace the displayed image, "cursor"
// messages report one key press at an image position.
type WebMessage struct {
	Type     string    `json:"type"`
	Frame    string    `json:"frame,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Pixels   []float64 `json:"pixels,omitempty"`
	X        float64   `json:"x,omitempty"`
	Y        float64   `json:"y,omitempty"`
	Key      string    `json:"key,omitempty"`
}
