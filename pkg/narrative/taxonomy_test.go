package narrative

import "testing"

func TestStyleFor(t *testing.T) {
	cases := []struct {
		connType  ConnectionType
		wantColor string
		wantIcon  string
	}{
		{ConnectionCausal, "#22d3ee", "arrow-right"},
		{ConnectionForeshadowing, "#a855f7", "sparkles"},
		{ConnectionThematicParallel, "#f59e0b", "git-merge"},
		{ConnectionCharacterContinuity, "#10b981", "rotate-ccw"},
		{ConnectionEscalation, "#ef4444", "trending-up"},
		{ConnectionCallback, "#3b82f6", "arrow-left"},
		{ConnectionEmotionalEcho, "#ec4899", "heart"},
		{ConnectionSymbolicParallel, "#8b5cf6", "equal"},
		{ConnectionTemporal, "#6366f1", "clock"},
	}

	for _, c := range cases {
		style := StyleFor(c.connType)
		if style.Color != c.wantColor {
			t.Fatalf("StyleFor(%s).Color = %q, want %q", c.connType, style.Color, c.wantColor)
		}
		if style.Icon != c.wantIcon {
			t.Fatalf("StyleFor(%s).Icon = %q, want %q", c.connType, style.Icon, c.wantIcon)
		}
	}
}

func TestStyleForUnknownType(t *testing.T) {
	style := StyleFor("ESCALATES")
	if style != DefaultConnectionStyle {
		t.Fatalf("expected default style for unknown type, got %+v", style)
	}
}

func TestParseConnectionType(t *testing.T) {
	if _, err := ParseConnectionType("CAUSAL"); err != nil {
		t.Fatalf("CAUSAL should parse: %v", err)
	}
	if _, err := ParseConnectionType("ESCALATES"); err == nil {
		t.Fatal("ESCALATES should not parse")
	}
	if _, err := ParseConnectionType("causal"); err == nil {
		t.Fatal("types are case sensitive, lowercase should not parse")
	}
	if _, err := ParseConnectionType(""); err == nil {
		t.Fatal("empty type should not parse")
	}
}

func TestParseConnectionStrength(t *testing.T) {
	for _, raw := range []string{"strong", "medium", "weak"} {
		if _, err := ParseConnectionStrength(raw); err != nil {
			t.Fatalf("%s should parse: %v", raw, err)
		}
	}
	if _, err := ParseConnectionStrength("STRONG"); err == nil {
		t.Fatal("strengths are lowercase, STRONG should not parse")
	}
	if _, err := ParseConnectionStrength("overwhelming"); err == nil {
		t.Fatal("unknown strength should not parse")
	}
}

func TestConnectionTypesStableOrder(t *testing.T) {
	first := ConnectionTypes()
	second := ConnectionTypes()
	if len(first) != 9 {
		t.Fatalf("expected 9 connection types, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order not stable at index %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestNormalizeArcType(t *testing.T) {
	if got := NormalizeArcType("SOCIETAL"); got != ArcSocietal {
		t.Fatalf("SOCIETAL should pass through, got %q", got)
	}
	if got := NormalizeArcType(""); got != ArcInterpersonal {
		t.Fatalf("empty arc type should default to INTERPERSONAL, got %q", got)
	}
	if got := NormalizeArcType("COSMIC"); got != ArcInterpersonal {
		t.Fatalf("unknown arc type should default to INTERPERSONAL, got %q", got)
	}
}

func TestNormalizeCharacterType(t *testing.T) {
	if got := NormalizeCharacterType("main"); got != CharacterMain {
		t.Fatalf("main should pass through, got %q", got)
	}
	if got := NormalizeCharacterType("antagonist"); got != CharacterRecurring {
		t.Fatalf("unknown character type should default to recurring, got %q", got)
	}
}
