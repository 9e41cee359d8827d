package model

// Fragment is one raw text string produced by an OCR pass, with the
// confidence the engine assigned to it. Fragments are immutable inputs;
// the recognition engine never cares which engine produced one except to
// record provenance.
type Fragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Engine     string  `json:"engine,omitempty"`
}
