package response

// ModelOutput is the parsed synthesis reply: Structured or Degraded.
type ModelOutput interface {
	isModelOutput()
}

// Structured is a reply that matched the expected {"info","is_info"} shape.
type Structured struct {
	Info   string
	IsInfo bool
}

func (Structured) isModelOutput() {}

// Degraded keeps the raw reply when it could not be parsed.
type Degraded struct {
	Raw string
}

func (Degraded) isModelOutput() {}

// StructuredAnswer is one turn's answer. Schedule and RequirementsNote come
// from the matched document, never from the model; both are nil on a miss.
type StructuredAnswer struct {
	Info             string
	IsInfo           bool
	Schedule         interface{}
	RequirementsNote interface{}
	Degraded         bool
}

// FromModelOutput resolves a ModelOutput into answer text and intent.
// A degraded reply is shown as-is and treated as informational.
func FromModelOutput(out ModelOutput) (info string, isInfo bool, degraded bool) {
	switch o := out.(type) {
	case Structured:
		return o.Info, o.IsInfo, false
	case Degraded:
		return o.Raw, true, true
	default:
		return "", true, true
	}
}
