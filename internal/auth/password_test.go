package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Patrulla99")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Patrulla99" {
		t.Fatal("hash equals plaintext")
	}
	if err := VerifyPassword(hash, "Patrulla99"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "patrulla99"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if err := VerifyPassword("", "Patrulla99"); err == nil {
		t.Fatal("empty hash accepted")
	}
}

func TestValidateNewPassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Patrulla99", true},
		{"Ab1defgh", true},
		{"corta1A", false},      // menos de 8
		{"sinmayuscula1", false},
		{"SinNumeros", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateNewPassword(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("password %q rejected: %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("password %q accepted", tc.password)
		}
	}
}
