package profile

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword("hunter2!", hash) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	if VerifyPassword("x", "not-a-hash") {
		t.Fatalf("expected malformed hash to fail")
	}
	if VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$AA$AA") {
		t.Fatalf("expected wrong algorithm to fail")
	}
}
