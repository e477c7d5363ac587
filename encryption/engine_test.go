package encryption

import (
	"bytes"
	"testing"
)

func TestNewAESEngine(t *testing.T) {
	engine := NewAESEngine()
	if engine == nil {
		t.Fatal("NewAESEngine() returned nil")
	}
}

func TestGenerateKey(t *testing.T) {
	engine := NewAESEngine()

	key, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}

	if len(key) != KeyLength {
		t.Errorf("Expected key length %d, got %d", KeyLength, len(key))
	}

	// Generate another key and ensure they're different
	key2, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed on second call: %v", err)
	}

	if bytes.Equal(key, key2) {
		t.Error("GenerateKey() produced identical keys, should be random")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	engine := NewAESEngine()

	key, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}

	cases := [][]byte{
		[]byte("x"),
		[]byte("Hello, World! This is a test message."),
		bytes.Repeat([]byte{0x00}, 1024),
		bytes.Repeat([]byte("NPI"), 70000),
	}

	for _, plaintext := range cases {
		payload, err := engine.Encrypt(plaintext, key, "key-1")
		if err != nil {
			t.Fatalf("Encrypt() failed: %v", err)
		}

		if payload.Algorithm != Algorithm {
			t.Errorf("Expected algorithm %s, got %s", Algorithm, payload.Algorithm)
		}
		if payload.KeyID != "key-1" {
			t.Errorf("Expected key ID key-1, got %s", payload.KeyID)
		}
		if len(payload.IV) != NonceLength {
			t.Errorf("Expected IV length %d, got %d", NonceLength, len(payload.IV))
		}
		if len(payload.AuthTag) != TagLength {
			t.Errorf("Expected tag length %d, got %d", TagLength, len(payload.AuthTag))
		}
		if bytes.Equal(payload.Ciphertext, plaintext) {
			t.Error("Ciphertext should not equal plaintext")
		}

		decrypted, err := engine.Decrypt(payload, key)
		if err != nil {
			t.Fatalf("Decrypt() failed: %v", err)
		}

		if !bytes.Equal(plaintext, decrypted) {
			t.Error("Decrypted data does not match original")
		}
	}
}

func TestEncryptRejectsInvalidInput(t *testing.T) {
	engine := NewAESEngine()
	key, _ := engine.GenerateKey()

	_, err := engine.Encrypt(nil, key, "key-1")
	if !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for empty plaintext, got %v", err)
	}

	_, err = engine.Encrypt([]byte("data"), nil, "key-1")
	if !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for empty key, got %v", err)
	}

	_, err = engine.Encrypt([]byte("data"), []byte("short"), "key-1")
	if !IsInvalidKeyLengthError(err) {
		t.Errorf("Expected InvalidKeyLengthError for short key, got %v", err)
	}
}

func TestDecryptRejectsUnsupportedAlgorithm(t *testing.T) {
	engine := NewAESEngine()
	key, _ := engine.GenerateKey()

	payload, err := engine.Encrypt([]byte("secret"), key, "key-1")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	payload.Algorithm = "aes-128-cbc"
	_, err = engine.Decrypt(payload, key)
	if !IsUnsupportedAlgorithmError(err) {
		t.Errorf("Expected UnsupportedAlgorithmError, got %v", err)
	}
}

func TestDecryptRejectsMissingParts(t *testing.T) {
	engine := NewAESEngine()
	key, _ := engine.GenerateKey()

	payload, err := engine.Encrypt([]byte("secret"), key, "key-1")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	noTag := *payload
	noTag.AuthTag = nil
	if _, err := engine.Decrypt(&noTag, key); !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for missing tag, got %v", err)
	}

	noCiphertext := *payload
	noCiphertext.Ciphertext = nil
	if _, err := engine.Decrypt(&noCiphertext, key); !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for missing ciphertext, got %v", err)
	}

	if _, err := engine.Decrypt(nil, key); !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for nil payload, got %v", err)
	}

	if _, err := engine.Decrypt(payload, []byte("short")); !IsInvalidKeyLengthError(err) {
		t.Errorf("Expected InvalidKeyLengthError, got %v", err)
	}
}

func TestTamperDetection(t *testing.T) {
	engine := NewAESEngine()
	key, _ := engine.GenerateKey()
	plaintext := []byte("sensitive financial record")

	payload, err := engine.Encrypt(plaintext, key, "key-1")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	// Flip every bit of the ciphertext, one at a time
	for i := 0; i < len(payload.Ciphertext); i++ {
		for bit := 0; bit < 8; bit++ {
			tampered := *payload
			tampered.Ciphertext = bytes.Clone(payload.Ciphertext)
			tampered.Ciphertext[i] ^= 1 << bit

			result, err := engine.Decrypt(&tampered, key)
			if !IsIntegrityFailureError(err) {
				t.Fatalf("Expected IntegrityFailureError for flipped ciphertext bit %d of byte %d, got %v", bit, i, err)
			}
			if result != nil {
				t.Fatal("Decrypt returned plaintext despite tampering")
			}
		}
	}

	// Same for the authentication tag
	for i := 0; i < len(payload.AuthTag); i++ {
		for bit := 0; bit < 8; bit++ {
			tampered := *payload
			tampered.AuthTag = bytes.Clone(payload.AuthTag)
			tampered.AuthTag[i] ^= 1 << bit

			result, err := engine.Decrypt(&tampered, key)
			if !IsIntegrityFailureError(err) {
				t.Fatalf("Expected IntegrityFailureError for flipped tag bit %d of byte %d, got %v", bit, i, err)
			}
			if result != nil {
				t.Fatal("Decrypt returned plaintext despite tampering")
			}
		}
	}
}

func TestIVUniqueness(t *testing.T) {
	engine := NewAESEngine()
	key, _ := engine.GenerateKey()
	plaintext := []byte("repeated message")

	const iterations = 10000
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		payload, err := engine.Encrypt(plaintext, key, "key-1")
		if err != nil {
			t.Fatalf("Encrypt() failed on iteration %d: %v", i, err)
		}

		iv := string(payload.IV)
		if seen[iv] {
			t.Fatalf("IV reused on iteration %d", i)
		}
		seen[iv] = true
	}
}

func TestHashForIndex(t *testing.T) {
	engine := NewAESEngine()
	data := []byte("123-45-6789")

	first, err := engine.HashForIndex(data, nil)
	if err != nil {
		t.Fatalf("HashForIndex() failed: %v", err)
	}

	if len(first.Hash) != KeyLength {
		t.Errorf("Expected hash length %d, got %d", KeyLength, len(first.Hash))
	}
	if len(first.Salt) != saltLength {
		t.Errorf("Expected salt length %d, got %d", saltLength, len(first.Salt))
	}

	// A second call without a salt uses a fresh salt and a different hash
	second, err := engine.HashForIndex(data, nil)
	if err != nil {
		t.Fatalf("HashForIndex() failed: %v", err)
	}
	if bytes.Equal(first.Hash, second.Hash) {
		t.Error("Hashes with random salts should differ")
	}

	// Supplying the stored salt reproduces the stored hash
	verify, err := engine.HashForIndex(data, first.Salt)
	if err != nil {
		t.Fatalf("HashForIndex() with salt failed: %v", err)
	}
	if !bytes.Equal(first.Hash, verify.Hash) {
		t.Error("Hash with the same salt should match")
	}

	if _, err := engine.HashForIndex(nil, nil); !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for empty data, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	engine := NewAESEngine()
	master, _ := engine.GenerateKey()

	derived, err := engine.DeriveKey(master, "document-index", "")
	if err != nil {
		t.Fatalf("DeriveKey() failed: %v", err)
	}
	if len(derived) != KeyLength {
		t.Errorf("Expected derived key length %d, got %d", KeyLength, len(derived))
	}

	// Deterministic for the same inputs
	again, err := engine.DeriveKey(master, "document-index", "")
	if err != nil {
		t.Fatalf("DeriveKey() failed: %v", err)
	}
	if !bytes.Equal(derived, again) {
		t.Error("DeriveKey should be deterministic for the same purpose")
	}

	// Different purposes yield different keys
	other, err := engine.DeriveKey(master, "session-tokens", "")
	if err != nil {
		t.Fatalf("DeriveKey() failed: %v", err)
	}
	if bytes.Equal(derived, other) {
		t.Error("Distinct purposes must not share a sub-key")
	}

	if _, err := engine.DeriveKey(master, "", ""); !IsInvalidInputError(err) {
		t.Errorf("Expected InvalidInputError for empty purpose, got %v", err)
	}
	if _, err := engine.DeriveKey([]byte("short"), "p", ""); !IsInvalidKeyLengthError(err) {
		t.Errorf("Expected InvalidKeyLengthError, got %v", err)
	}
}

func TestValidateCompliance(t *testing.T) {
	engine := NewAESEngine()

	result := engine.ValidateCompliance()
	if !result.Compliant {
		t.Errorf("Engine configuration should be compliant, errors: %v", result.Errors)
	}
	if len(result.Checks) != 3 {
		t.Errorf("Expected 3 checks, got %d", len(result.Checks))
	}
	for _, check := range result.Checks {
		if !check.Passed {
			t.Errorf("Check %s should pass: %s", check.Name, check.Detail)
		}
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}
