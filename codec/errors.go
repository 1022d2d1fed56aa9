package codec

// ParseError reports that one of the codec's parsers rejected its input.
// Mechanism implementations wrap ParseError in a
// [github.com/sasl-go/sasl.MechanismParseError] naming themselves, so
// codec stays ignorant of which mechanism is calling it.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "codec: " + e.Reason }

func parseErrorf(reason string) error { return &ParseError{Reason: reason} }
