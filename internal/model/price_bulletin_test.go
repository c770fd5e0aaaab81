package model

import (
	"testing"
	"time"
)

func bulletinAt(version int, from string) PriceBulletin {
	day, _ := time.Parse("2006-01-02", from)
	return PriceBulletin{Version: version, ValidFrom: day}
}

func TestBulletinSupersedes(t *testing.T) {
	cases := []struct {
		name  string
		b     PriceBulletin
		other PriceBulletin
		want  bool
	}{
		{"higher version", bulletinAt(2, "2026-01-01"), bulletinAt(1, "2026-02-01"), true},
		{"lower version", bulletinAt(1, "2026-02-01"), bulletinAt(2, "2026-01-01"), false},
		{"same version later start", bulletinAt(3, "2026-02-01"), bulletinAt(3, "2026-01-01"), true},
		{"same version earlier start", bulletinAt(3, "2026-01-01"), bulletinAt(3, "2026-02-01"), false},
		{"identical", bulletinAt(3, "2026-01-01"), bulletinAt(3, "2026-01-01"), false},
	}
	for _, tc := range cases {
		if got := tc.b.Supersedes(tc.other); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBulletinCoversDate(t *testing.T) {
	b := bulletinAt(1, "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-01-31")
	b.ValidTo = &end
	for day, want := range map[string]bool{
		"2025-12-31": false,
		"2026-01-01": true,
		"2026-01-31": true,
		"2026-02-01": false,
	} {
		d, _ := time.Parse("2006-01-02", day)
		if got := b.CoversDate(d); got != want {
			t.Errorf("%s: got %v, want %v", day, got, want)
		}
	}
}
