package builder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"

	"github.com/hxuan190/unihybrid-router/internal/common"
	"github.com/hxuan190/unihybrid-router/internal/domain"
)

// HookDataLen is the size of an encoded payload: five 32-byte words.
const HookDataLen = 5 * common.HookDataWordSize

var ErrInvalidPayload = errors.New("invalid hook payload")

var (
	addressPad = make([]byte, common.HookDataWordSize-ethcommon.AddressLength)
	uint32Pad  = make([]byte, common.HookDataWordSize-4)
)

// EncodeHookData packs args as the standard tuple
// (address, address, uint256, uint32, uint32), each element left-padded
// to a big-endian 32-byte word.
func EncodeHookData(args domain.PayloadArgs) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HookDataLen))
	enc := bin.NewBinEncoder(buf)

	amount := args.AmountInOnOrderbook
	if amount == nil {
		amount = new(uint256.Int)
	}
	word := amount.Bytes32()

	// bytes.Buffer writes do not fail
	_ = enc.WriteBytes(addressPad, false)
	_ = enc.WriteBytes(args.TokenIn.Bytes(), false)
	_ = enc.WriteBytes(addressPad, false)
	_ = enc.WriteBytes(args.TokenOut.Bytes(), false)
	_ = enc.WriteBytes(word[:], false)
	_ = enc.WriteBytes(uint32Pad, false)
	_ = enc.WriteUint32(args.MaxMatches, binary.BigEndian)
	_ = enc.WriteBytes(uint32Pad, false)
	_ = enc.WriteUint32(args.SlippageLimit, binary.BigEndian)

	return buf.Bytes()
}

// DecodeHookData is the inverse of EncodeHookData. Non-zero padding is rejected.
func DecodeHookData(data []byte) (domain.PayloadArgs, error) {
	var args domain.PayloadArgs
	if len(data) != HookDataLen {
		return args, fmt.Errorf("%w: length %d, want %d", ErrInvalidPayload, len(data), HookDataLen)
	}
	dec := bin.NewBinDecoder(data)

	var err error
	if args.TokenIn, err = readAddress(dec); err != nil {
		return args, err
	}
	if args.TokenOut, err = readAddress(dec); err != nil {
		return args, err
	}
	word, err := dec.ReadNBytes(common.HookDataWordSize)
	if err != nil {
		return args, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	args.AmountInOnOrderbook = new(uint256.Int).SetBytes32(word)
	if args.MaxMatches, err = readUint32(dec); err != nil {
		return args, err
	}
	if args.SlippageLimit, err = readUint32(dec); err != nil {
		return args, err
	}
	return args, nil
}

func readAddress(dec *bin.Decoder) (ethcommon.Address, error) {
	if err := readPadding(dec, len(addressPad)); err != nil {
		return ethcommon.Address{}, err
	}
	raw, err := dec.ReadNBytes(ethcommon.AddressLength)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return ethcommon.BytesToAddress(raw), nil
}

func readUint32(dec *bin.Decoder) (uint32, error) {
	if err := readPadding(dec, len(uint32Pad)); err != nil {
		return 0, err
	}
	v, err := dec.ReadUint32(binary.BigEndian)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

func readPadding(dec *bin.Decoder, n int) error {
	pad, err := dec.ReadNBytes(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	for _, b := range pad {
		if b != 0 {
			return fmt.Errorf("%w: non-zero padding", ErrInvalidPayload)
		}
	}
	return nil
}
