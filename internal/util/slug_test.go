package util

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Lighthouse Keeper", "the-lighthouse-keeper"},
		{"  spaced   out  ", "spaced-out"},
		{"Dr. A. N. Ward (Retired)", "dr-a-n-ward-retired"},
		{"S01E04", "s01e04"},
		{"---", ""},
		{"", ""},
	}

	for _, c := range cases {
		got := Slugify(c.in)
		if got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	got := UniqueSlug("The Storm", "4f2a9c31-77aa-4a0f-bb1f-000000000000")
	want := "the-storm-4f2a9c31"
	if got != want {
		t.Fatalf("UniqueSlug = %q, want %q", got, want)
	}

	if got := UniqueSlug("", "4f2a9c31"); got != "4f2a9c31" {
		t.Fatalf("UniqueSlug with empty name = %q", got)
	}

	if got := UniqueSlug("Solo", ""); got != "solo" {
		t.Fatalf("UniqueSlug with empty discriminator = %q", got)
	}
}
