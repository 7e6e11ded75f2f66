package utils

import "testing"

func TestHashPassword(t *testing.T) {
	password := "campus-pass-123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}
	if hash == password {
		t.Error("HashPassword() should not return plaintext password")
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "campus-pass-123"

	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	if hash1 == hash2 {
		t.Error("bcrypt should salt hashes; identical output is wrong")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "campus-pass-123"
	hash, _ := HashPassword(password)

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword() should accept the correct password")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("CheckPassword() should reject a wrong password")
	}
	if CheckPassword(password, "not-a-hash") {
		t.Error("CheckPassword() should reject a malformed hash")
	}
}
