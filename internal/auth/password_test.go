package auth_test

import (
	"crypto/rand"
	"testing"

	"github.com/shopd-io/shopd/internal/auth"
)

func TestPasswordHasher(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(0)

	hash, err := hasher.Hash("password")
	if err != nil {
		t.Errorf("Hash failed: %v", err)
	}
	if err := hasher.Verify(hash, "password"); err != nil {
		t.Errorf("Verify failed: %v", err)
	}

	t.Run("TestTooLongPassword", func(t *testing.T) {
		// bcrypt rejects inputs longer than 72 bytes
		long := make([]byte, 100)
		if _, err := rand.Read(long); err != nil {
			t.Fatalf("rand.Read failed: %v", err)
		}
		if _, err := hasher.Hash(string(long)); err == nil {
			t.Error("expected error for >72 byte password")
		}
	})

	t.Run("TestWrongPassword", func(t *testing.T) {
		if err := hasher.Verify(hash, "not-the-password"); err == nil {
			t.Error("expected mismatch error")
		}
	})
}
