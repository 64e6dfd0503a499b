// internal/wallet/signer.go
package wallet

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	// ErrMalformedPayload: полезная нагрузка маршрута не является транзакцией.
	ErrMalformedPayload = errors.New("malformed transaction payload")
	// ErrSignerNotFound: кошелёк не входит в число подписантов транзакции.
	ErrSignerNotFound = errors.New("wallet is not a required signer")
)

// Encoding: транспортная кодировка транзакции.
type Encoding string

const (
	EncodingBase64 Encoding = "base64"
	EncodingBase58 Encoding = "base58"
)

// ParseEncoding разбирает имя кодировки; пустая строка означает base64.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncodingBase64:
		return EncodingBase64, nil
	case EncodingBase58:
		return EncodingBase58, nil
	default:
		return "", fmt.Errorf("unknown transaction encoding %q", s)
	}
}

func (e Encoding) decode(s string) ([]byte, error) {
	if e == EncodingBase58 {
		return base58.Decode(s)
	}
	return base64.StdEncoding.DecodeString(s)
}

func (e Encoding) encode(b []byte) string {
	if e == EncodingBase58 {
		return base58.Encode(b)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// Signer подписывает транзакции маршрутов ключом кошелька.
type Signer struct {
	wallet   *Wallet
	encoding Encoding
}

// NewSigner создаёт подписанта для заданной кодировки.
func NewSigner(w *Wallet, encoding Encoding) *Signer {
	if encoding == "" {
		encoding = EncodingBase64
	}
	return &Signer{wallet: w, encoding: encoding}
}

// Address возвращает адрес подписывающего кошелька.
func (s *Signer) Address() string {
	return s.wallet.Address()
}

// SignAndEncode декодирует неподписанную транзакцию, подписывает её
// и возвращает сериализованную транзакцию в той же кодировке.
func (s *Signer) SignAndEncode(rawTx string) (string, error) {
	raw := strings.TrimSpace(rawTx)
	if raw == "" {
		return "", fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	data, err := s.encoding.decode(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrMalformedPayload, s.encoding, err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := s.wallet.SignTransaction(tx); err != nil {
		return "", err
	}

	out, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("%w: serialize: %v", ErrMalformedPayload, err)
	}
	return s.encoding.encode(out), nil
}

// SignTransaction ставит подпись кошелька в его слот подписанта.
// Остальные подписи, если они есть, не трогаются.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return fmt.Errorf("%w: %d signers for %d account keys",
			ErrMalformedPayload, required, len(tx.Message.AccountKeys))
	}

	slot := -1
	for i := 0; i < required; i++ {
		if tx.Message.AccountKeys[i].Equals(w.PublicKey) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("%w: %s", ErrSignerNotFound, w.PublicKey)
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: serialize message: %v", ErrMalformedPayload, err)
	}

	signature, err := w.privateKey.Sign(message)
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}

	if len(tx.Signatures) < required {
		grown := make([]solana.Signature, required)
		copy(grown, tx.Signatures)
		tx.Signatures = grown
	}
	tx.Signatures[slot] = signature
	return nil
}
