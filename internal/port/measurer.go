package port

// LengthMeasurer maps a text fragment to a non-negative size.
type LengthMeasurer interface {
	Measure(text string) (int, error)
}
