package knowledge

// Formality is the register of generated text.
type Formality string

// Length is the target size of generated text.
type Length string

// Depth is how far generated text goes beyond the basics.
type Depth string

const (
	FormalityFormal   Formality = "formal"
	FormalityNormal   Formality = "normal"
	FormalityFriendly Formality = "friendly"

	LengthShort    Length = "short"
	LengthNormal   Length = "normal"
	LengthDetailed Length = "detailed"

	DepthIntro    Depth = "intro"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// Taste shapes the style of detailed knowledge text.
type Taste struct {
	Formality Formality `json:"formality"`
	Length    Length    `json:"length"`
	Depth     Depth     `json:"depth"`
}

// DefaultTaste is normal/normal/standard.
func DefaultTaste() Taste {
	return Taste{Formality: FormalityNormal, Length: LengthNormal, Depth: DepthStandard}
}

// Normalize replaces unknown or empty values with the defaults.
func (t Taste) Normalize() Taste {
	d := DefaultTaste()
	switch t.Formality {
	case FormalityFormal, FormalityNormal, FormalityFriendly:
	default:
		t.Formality = d.Formality
	}
	switch t.Length {
	case LengthShort, LengthNormal, LengthDetailed:
	default:
		t.Length = d.Length
	}
	switch t.Depth {
	case DepthIntro, DepthStandard, DepthDeep:
	default:
		t.Depth = d.Depth
	}
	return t
}

var formalityGuide = map[Formality]string{
	FormalityFormal:   "Write in a formal, textbook register.",
	FormalityNormal:   "Write in a clear, neutral register.",
	FormalityFriendly: "Write in a warm, conversational register, addressing the learner directly.",
}

var lengthGuide = map[Length]string{
	LengthShort:    "Keep it compact: roughly 1500 words.",
	LengthNormal:   "Aim for roughly 3000 words.",
	LengthDetailed: "Be exhaustive: 6000 words or more.",
}

var depthGuide = map[Depth]string{
	DepthIntro:    "Assume no prior knowledge and favour intuition over rigor.",
	DepthStandard: "Cover the concepts a practitioner uses day to day, with examples.",
	DepthDeep:     "Go into internals, edge cases and trade-offs.",
}
