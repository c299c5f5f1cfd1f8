package wallet

import (
	"errors"
	"fmt"
	"testing"
)

// testMnemonic is a fixed valid 12-word phrase used for deterministic tests.
const testMnemonic = "test test test test test test test test test test test junk"

// testMnemonicAddress is the address at m/44'/60'/0'/0/0 for testMnemonic,
// as derived by widely deployed wallet software. Phrase-to-address equality
// across implementations is the wallet recovery contract.
const testMnemonicAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestDeriveAccount_KnownVector(t *testing.T) {
	acct, err := DeriveAccount(testMnemonic)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}

	if got := acct.Address.Hex(); got != testMnemonicAddress {
		t.Errorf("address = %s, want %s", got, testMnemonicAddress)
	}
	if acct.Mnemonic != testMnemonic {
		t.Error("account should carry the phrase it was derived from")
	}
	if !acct.HasMnemonic() {
		t.Error("HasMnemonic() = false for phrase-derived account")
	}
}

func TestDeriveAccount_Deterministic(t *testing.T) {
	a1, err := DeriveAccount(testMnemonic)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}
	a2, err := DeriveAccount(testMnemonic)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}

	if a1.Address != a2.Address {
		t.Error("same phrase should yield same address")
	}
	if a1.PrivateKey.D.Cmp(a2.PrivateKey.D) != 0 {
		t.Error("same phrase should yield same private key")
	}
}

func TestDeriveAccount_InvalidMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
	}{
		{"empty", ""},
		{"unknown words", "zzzz yyyy xxxx wwww vvvv uuuu tttt ssss rrrr qqqq pppp oooo"},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon"},
		{"truncated", "test test test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveAccount(tt.mnemonic)
			if !errors.Is(err, ErrInvalidMnemonic) {
				t.Errorf("error = %v, want ErrInvalidMnemonic", err)
			}
		})
	}
}

func TestNewRandomAccount(t *testing.T) {
	acct, err := NewRandomAccount()
	if err != nil {
		t.Fatalf("NewRandomAccount() error: %v", err)
	}

	if !acct.HasMnemonic() {
		t.Fatal("random account should carry its recovery phrase")
	}

	// Re-deriving from the attached phrase must recover the same account.
	recovered, err := DeriveAccount(acct.Mnemonic)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}
	if recovered.Address != acct.Address {
		t.Error("phrase should recover the same address")
	}
}

func TestNewRandomAccount_Unique(t *testing.T) {
	a1, err := NewRandomAccount()
	if err != nil {
		t.Fatalf("NewRandomAccount() error: %v", err)
	}
	a2, err := NewRandomAccount()
	if err != nil {
		t.Fatalf("NewRandomAccount() error: %v", err)
	}

	if a1.Address == a2.Address {
		t.Error("two random accounts should not share an address")
	}
}

func TestAccountFromPrivateKey(t *testing.T) {
	source, err := DeriveAccount(testMnemonic)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}

	// Import the same key material raw; address must match, phrase is gone.
	hexKey := fmt.Sprintf("0x%064x", source.PrivateKey.D)
	imported, err := AccountFromPrivateKey(hexKey)
	if err != nil {
		t.Fatalf("AccountFromPrivateKey() error: %v", err)
	}

	if imported.Address != source.Address {
		t.Errorf("imported address = %s, want %s", imported.Address.Hex(), source.Address.Hex())
	}
	if imported.HasMnemonic() {
		t.Error("raw-key import should carry no mnemonic")
	}
}

func TestAccountFromPrivateKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not hex", "0xzz974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"},
		{"too short", "0xac0974"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AccountFromPrivateKey(tt.key); err == nil {
				t.Error("expected error for invalid private key")
			}
		})
	}
}
