package models

import "testing"

func TestDeriveStatus(t *testing.T) {
	today, _ := ParseDate("2025-05-10")
	yesterday, _ := ParseDate("2025-05-09")
	tomorrow, _ := ParseDate("2025-05-11")

	tests := []struct {
		name string
		due  Date
		paid bool
		want ObligationStatus
	}{
		{"paid before due", tomorrow, true, StatusPaid},
		{"paid after due", yesterday, true, StatusPaid},
		{"due today", today, false, StatusPending},
		{"due tomorrow", tomorrow, false, StatusPending},
		{"due yesterday", yesterday, false, StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.due, tt.paid, today); got != tt.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"guardian", RoleGuardian, true},
		{"parent", RoleGuardian, true},
		{"teacher", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
