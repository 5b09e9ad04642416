package validation

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Dash mainnet address version bytes.
const (
	pubKeyHashVersion = 0x4c // "X..." P2PKH addresses
	scriptHashVersion = 0x10 // "7..." P2SH addresses
)

var (
	ErrEmptyAddress    = errors.New("address cannot be empty")
	ErrBadLength       = errors.New("address length is invalid")
	ErrBadChecksum     = errors.New("address checksum mismatch")
	ErrBadEncoding     = errors.New("address is not valid base58check")
	ErrWrongNetwork    = errors.New("address version byte is not a Dash mainnet prefix")
	ErrBadPayloadWidth = errors.New("address payload is not a 20-byte hash")
)

// ValidateAddress validates a Dash mainnet address. Base58Check decoding
// catches transcription errors a prefix regex would pass.
func ValidateAddress(address string) error {
	if address == "" {
		return ErrEmptyAddress
	}

	if len(address) < 26 || len(address) > 36 {
		return ErrBadLength
	}

	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return ErrBadChecksum
		}
		return ErrBadEncoding
	}

	if version != pubKeyHashVersion && version != scriptHashVersion {
		return ErrWrongNetwork
	}

	if len(payload) != 20 {
		return ErrBadPayloadWidth
	}

	return nil
}

// ValidateTxID validates a Dash transaction id (hex-encoded 32-byte hash).
func ValidateTxID(txid string) error {
	if len(txid) != 64 {
		return errors.New("transaction id must be 64 hex characters")
	}
	for _, c := range txid {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return errors.New("transaction id contains non-hex characters")
		}
	}
	return nil
}
