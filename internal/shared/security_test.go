package shared

import "testing"

func TestSecureCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "s3cret-token", "s3cret-token", true},
		{"one char differs", "s3cret-token", "s3cret-tokex", false},
		{"different lengths", "A", "AAAA", false},
		{"empty vs empty", "", "", true},
		{"empty vs value", "", "x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SecureCompare(tc.a, tc.b); got != tc.want {
				t.Fatalf("SecureCompare(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestValidateProjectToken(t *testing.T) {
	if err := ValidateProjectToken("expected", "expected"); err != nil {
		t.Fatalf("matching token rejected: %v", err)
	}
	err := ValidateProjectToken("wrong", "expected")
	if err == nil {
		t.Fatal("mismatched token accepted")
	}
	if CodeOf(err) != CodeUnauthorized {
		t.Fatalf("code = %s, want %s", CodeOf(err), CodeUnauthorized)
	}
	if err := ValidateProjectToken("", "expected"); err == nil {
		t.Fatal("empty token accepted")
	}
}

func TestParseRoleDowngradesUnknown(t *testing.T) {
	if got := ParseRole("ADMIN"); got != RoleAdmin {
		t.Fatalf("ParseRole(ADMIN) = %s", got)
	}
	if got := ParseRole("MANAGER"); got != RoleManager {
		t.Fatalf("ParseRole(MANAGER) = %s", got)
	}
	if got := ParseRole("SUPERUSER"); got != RoleViewer {
		t.Fatalf("ParseRole(SUPERUSER) = %s, want VIEWER", got)
	}
	if KnownRole("SUPERUSER") {
		t.Fatal("SUPERUSER reported as known role")
	}
}
