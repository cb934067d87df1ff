package narrative

import "fmt"

// ConnectionType classifies the narrative relationship between two events.
// The taxonomy is fixed; records carrying any other value are rejected at
// import time.
type ConnectionType string

const (
	ConnectionCausal              ConnectionType = "CAUSAL"
	ConnectionForeshadowing       ConnectionType = "FORESHADOWING"
	ConnectionThematicParallel    ConnectionType = "THEMATIC_PARALLEL"
	ConnectionCharacterContinuity ConnectionType = "CHARACTER_CONTINUITY"
	ConnectionEscalation          ConnectionType = "ESCALATION"
	ConnectionCallback            ConnectionType = "CALLBACK"
	ConnectionEmotionalEcho       ConnectionType = "EMOTIONAL_ECHO"
	ConnectionSymbolicParallel    ConnectionType = "SYMBOLIC_PARALLEL"
	ConnectionTemporal            ConnectionType = "TEMPORAL"
)

// ConnectionStrength grades how firmly a connection is established by the
// source material.
type ConnectionStrength string

const (
	StrengthStrong ConnectionStrength = "strong"
	StrengthMedium ConnectionStrength = "medium"
	StrengthWeak   ConnectionStrength = "weak"
)

// ConnectionStyle is the static rendering hint for a connection type.
type ConnectionStyle struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// DefaultConnectionStyle is used by the read API when a stored type is not
// in the taxonomy. The importer never writes such rows; the fallback guards
// against schema drift across releases.
var DefaultConnectionStyle = ConnectionStyle{Color: "#64748b", Icon: "link"}

var connectionStyles = map[ConnectionType]ConnectionStyle{
	ConnectionCausal:              {Color: "#22d3ee", Icon: "arrow-right"},
	ConnectionForeshadowing:       {Color: "#a855f7", Icon: "sparkles"},
	ConnectionThematicParallel:    {Color: "#f59e0b", Icon: "git-merge"},
	ConnectionCharacterContinuity: {Color: "#10b981", Icon: "rotate-ccw"},
	ConnectionEscalation:          {Color: "#ef4444", Icon: "trending-up"},
	ConnectionCallback:            {Color: "#3b82f6", Icon: "arrow-left"},
	ConnectionEmotionalEcho:       {Color: "#ec4899", Icon: "heart"},
	ConnectionSymbolicParallel:    {Color: "#8b5cf6", Icon: "equal"},
	ConnectionTemporal:            {Color: "#6366f1", Icon: "clock"},
}

// connectionTypeOrder keeps listing output stable.
var connectionTypeOrder = []ConnectionType{
	ConnectionCausal,
	ConnectionForeshadowing,
	ConnectionThematicParallel,
	ConnectionCharacterContinuity,
	ConnectionEscalation,
	ConnectionCallback,
	ConnectionEmotionalEcho,
	ConnectionSymbolicParallel,
	ConnectionTemporal,
}

// ConnectionTypes returns the full taxonomy in stable order.
func ConnectionTypes() []ConnectionType {
	types := make([]ConnectionType, len(connectionTypeOrder))
	copy(types, connectionTypeOrder)
	return types
}

// StyleFor returns the rendering style for the given connection type, or
// DefaultConnectionStyle if the type is not part of the taxonomy.
func StyleFor(t ConnectionType) ConnectionStyle {
	if style, ok := connectionStyles[t]; ok {
		return style
	}
	return DefaultConnectionStyle
}

// ParseConnectionType validates a raw type value from an export bundle.
func ParseConnectionType(raw string) (ConnectionType, error) {
	t := ConnectionType(raw)
	if _, ok := connectionStyles[t]; !ok {
		return "", fmt.Errorf("unknown connection type %q", raw)
	}
	return t, nil
}

// ParseConnectionStrength validates a raw strength value from an export bundle.
func ParseConnectionStrength(raw string) (ConnectionStrength, error) {
	switch s := ConnectionStrength(raw); s {
	case StrengthStrong, StrengthMedium, StrengthWeak:
		return s, nil
	}
	return "", fmt.Errorf("unknown connection strength %q", raw)
}

// Arc types describe the plane a conflict plays out on.
const (
	ArcInternal      = "INTERNAL"
	ArcInterpersonal = "INTERPERSONAL"
	ArcSocietal      = "SOCIETAL"
	ArcEnvironmental = "ENVIRONMENTAL"
	ArcTechnological = "TECHNOLOGICAL"
)

var arcTypes = map[string]struct{}{
	ArcInternal:      {},
	ArcInterpersonal: {},
	ArcSocietal:      {},
	ArcEnvironmental: {},
	ArcTechnological: {},
}

// NormalizeArcType maps the raw value onto the arc type enum. Unknown and
// empty values fall back to INTERPERSONAL, matching how the curation tool
// labels unclassified arcs.
func NormalizeArcType(raw string) string {
	if _, ok := arcTypes[raw]; ok {
		return raw
	}
	return ArcInterpersonal
}

// Character types grade how central a character is to the story.
const (
	CharacterMain      = "main"
	CharacterRecurring = "recurring"
	CharacterGuest     = "guest"
	CharacterMentioned = "mentioned"
)

var characterTypes = map[string]struct{}{
	CharacterMain:      {},
	CharacterRecurring: {},
	CharacterGuest:     {},
	CharacterMentioned: {},
}

// NormalizeCharacterType maps the raw value onto the character type enum.
// Unknown and empty values fall back to recurring.
func NormalizeCharacterType(raw string) string {
	if _, ok := characterTypes[raw]; ok {
		return raw
	}
	return CharacterRecurring
}
