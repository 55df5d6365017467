package config

import "testing"

func TestParseCategories(t *testing.T) {
	t.Parallel()

	seeds, err := ParseCategories("Computer Science:CS, Engineering:ENG ,Registrar:REG")
	if err != nil {
		t.Fatalf("ParseCategories: %v", err)
	}
	if len(seeds) != 3 {
		t.Fatalf("got %d seeds, want 3", len(seeds))
	}
	if seeds[0].Name != "Computer Science" || seeds[0].Prefix != "CS" {
		t.Fatalf("first seed = %+v", seeds[0])
	}
	if seeds[1].Prefix != "ENG" {
		t.Fatalf("second seed prefix = %q, want ENG", seeds[1].Prefix)
	}
}

func TestParseCategoriesRejectsMalformedEntries(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"NoPrefix", "Name:", ":CS"} {
		if _, err := ParseCategories(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseCategoriesSkipsEmptySegments(t *testing.T) {
	t.Parallel()

	seeds, err := ParseCategories("Computer Science:CS,,")
	if err != nil {
		t.Fatalf("ParseCategories: %v", err)
	}
	if len(seeds) != 1 {
		t.Fatalf("got %d seeds, want 1", len(seeds))
	}
}
