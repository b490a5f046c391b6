package crypto

import "testing"

func TestHashPasswordVerify(t *testing.T) {
	h, err := HashPassword([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !h.Verify([]byte("correct horse battery staple")) {
		t.Error("Verify() = false for correct password")
	}
	if h.Verify([]byte("wrong password")) {
		t.Error("Verify() = true for incorrect password")
	}
}

func TestHashPasswordUniqueSalt(t *testing.T) {
	h1, _ := HashPassword([]byte("same password"))
	h2, _ := HashPassword([]byte("same password"))

	if string(h1.Salt) == string(h2.Salt) {
		t.Error("two hashes of the same password share a salt")
	}
	if string(h1.Hash) == string(h2.Hash) {
		t.Error("two hashes of the same password produced the same digest")
	}
}

func TestPasswordHashVerifyEmpty(t *testing.T) {
	var h PasswordHash
	if h.Verify([]byte("anything")) {
		t.Error("Verify() on zero-value PasswordHash should be false")
	}
}
