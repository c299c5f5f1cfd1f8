package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidMnemonic is returned when a recovery phrase fails BIP-39
// validation (wrong word count, unknown words, or bad checksum).
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Account is the active wallet identity. The address is always the
// deterministic function of the private key; Mnemonic is the phrase the key
// was derived from, or empty for accounts imported from a raw private key.
// Accounts live in memory for the session only and are never serialized.
type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
	Mnemonic   string
}

// HasMnemonic reports whether the account carries a recovery phrase.
func (a *Account) HasMnemonic() bool {
	return a.Mnemonic != ""
}

// DeriveAccount derives the account at m/44'/60'/0'/0/0 from a BIP-39
// recovery phrase. The same phrase always yields the same address and key.
func DeriveAccount(mnemonic string) (*Account, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	key, err := master.DeriveAccountKey(0, 0)
	if err != nil {
		return nil, err
	}

	priv, err := key.ECDSA()
	if err != nil {
		return nil, err
	}

	return &Account{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
		Mnemonic:   mnemonic,
	}, nil
}

// NewRandomAccount generates a fresh mnemonic and derives its account.
// The phrase is attached to the returned account so the caller can display
// it once for backup.
func NewRandomAccount() (*Account, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	return DeriveAccount(mnemonic)
}

// AccountFromPrivateKey imports an account from a raw hex-encoded secp256k1
// private key (with or without the 0x prefix). The account carries no
// mnemonic.
func AccountFromPrivateKey(hexKey string) (*Account, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Account{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}, nil
}
