// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// DefaultKeyEnv: переменная окружения с приватным ключом.
const DefaultKeyEnv = "SOLANA_PRIVATE_KEY"

var ErrMissingPrivateKey = errors.New("private key is not set")

// Wallet представляет кошелёк Solana. Приватный ключ наружу не отдаётся
// и не попадает в логи: String возвращает только публичный ключ.
type Wallet struct {
	privateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// NewWallet создаёт новый кошелёк из base58-encoded приватного ключа.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(strings.TrimSpace(privateKeyBase58))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Wallet{
		privateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// LoadFromEnv загружает кошелёк из переменной окружения.
// Вызывается один раз при старте процесса.
func LoadFromEnv(name string) (*Wallet, error) {
	if name == "" {
		name = DefaultKeyEnv
	}
	key := os.Getenv(name)
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingPrivateKey, name)
	}
	return NewWallet(key)
}

// Address возвращает адрес кошелька в base58.
func (w *Wallet) Address() string {
	return w.PublicKey.String()
}

// String возвращает строковое представление кошелька (его публичный ключ).
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
