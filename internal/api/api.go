// Package api defines the JSON wire contract of the generation service. The
// same types travel over HTTP and, with a JSON codec, over gRPC.
package api

// Paths served by the HTTP transport.
const (
	PathGenerateQR    = "/generate-qr"
	PathGenerateSVG   = "/generate-svg"
	PathGenerateAudio = "/generate-audio"
	PathHealth        = "/health"
)

// GenerateRequest is the body of POST /generate-qr and POST /generate-svg.
//
// Colors are "#rrggbb" for /generate-qr; /generate-svg also accepts them
// without the leading '#'.
type GenerateRequest struct {
	Text            string `json:"text"`
	Size            int    `json:"size,omitempty"`
	QRColor         string `json:"qr_color,omitempty"`
	BGColor         string `json:"bg_color,omitempty"`
	ErrorCorrection string `json:"error_correction,omitempty"`
}

// Info describes a generated symbol.
type Info struct {
	Type            string `json:"type"`
	Size            string `json:"size"`
	Created         string `json:"created"`
	DataLength      int    `json:"data_length"`
	ErrorCorrection string `json:"error_correction,omitempty"`
}

// GenerateResponse is the body returned by POST /generate-qr.
type GenerateResponse struct {
	Success bool   `json:"success"`
	QRCode  string `json:"qr_code,omitempty"`
	Info    *Info  `json:"info,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SVGResponse carries a vector document over transports that cannot return a raw body.
type SVGResponse struct {
	SVG string `json:"svg"`
}

// AudioRequest is the body of POST /generate-audio.
type AudioRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// AudioResponse is returned by POST /generate-audio.
type AudioResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	TextLength  int    `json:"text_length"`
	Audio       string `json:"audio,omitempty"` // base64
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
