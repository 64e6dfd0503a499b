package wallet

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := NewWallet(key.String())
	require.NoError(t, err)
	return w
}

// unsignedTransfer builds a routed-style payload: one zeroed signature slot.
func unsignedTransfer(t *testing.T, payer solana.PublicKey) []byte {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1_000, payer, solana.NewWallet().PublicKey()).Build(),
		},
		solana.Hash{1, 2, 3},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	data, err := tx.MarshalBinary()
	require.NoError(t, err)
	return data
}

func decodeTx(t *testing.T, data []byte) *solana.Transaction {
	t.Helper()
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
	require.NoError(t, err)
	return tx
}

func TestSignAndEncodeBase64(t *testing.T) {
	w := newTestWallet(t)
	signer := NewSigner(w, EncodingBase64)

	payload := base64.StdEncoding.EncodeToString(unsignedTransfer(t, w.PublicKey))
	signed, err := signer.SignAndEncode(payload)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(signed)
	require.NoError(t, err)
	tx := decodeTx(t, raw)
	require.Len(t, tx.Signatures, 1)

	message, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(w.PublicKey[:]), message, tx.Signatures[0][:]))
}

func TestSignAndEncodeBase58(t *testing.T) {
	w := newTestWallet(t)
	signer := NewSigner(w, EncodingBase58)

	payload := base58.Encode(unsignedTransfer(t, w.PublicKey))
	signed, err := signer.SignAndEncode(payload)
	require.NoError(t, err)

	raw, err := base58.Decode(signed)
	require.NoError(t, err)
	tx := decodeTx(t, raw)
	assert.NotEqual(t, solana.Signature{}, tx.Signatures[0])
}

func TestSignAndEncodeMalformed(t *testing.T) {
	signer := NewSigner(newTestWallet(t), EncodingBase64)

	payloads := map[string]string{
		"empty":        "",
		"not base64":   "%%%not-base64%%%",
		"garbage body": base64.StdEncoding.EncodeToString([]byte{0xff, 0x01}),
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := signer.SignAndEncode(payload)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestSignAndEncodeForeignTransaction(t *testing.T) {
	w := newTestWallet(t)
	other := newTestWallet(t)
	signer := NewSigner(w, EncodingBase64)

	payload := base64.StdEncoding.EncodeToString(unsignedTransfer(t, other.PublicKey))
	_, err := signer.SignAndEncode(payload)
	assert.ErrorIs(t, err, ErrSignerNotFound)
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase64, enc)

	enc, err = ParseEncoding("BASE58")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase58, enc)

	_, err = ParseEncoding("hex")
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TEST_SNIPER_KEY", "")
	_, err := LoadFromEnv("TEST_SNIPER_KEY")
	assert.ErrorIs(t, err, ErrMissingPrivateKey)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	t.Setenv("TEST_SNIPER_KEY", key.String())

	w, err := LoadFromEnv("TEST_SNIPER_KEY")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), w.Address())
	assert.NotContains(t, w.String(), key.String())
}
