// Package types holds the byte-level digest types shared by the primitive
// packages and their consumers, with fast hex and JSON codecs.
package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"

	"github.com/pando-crypto/primitives/utils"
	fasthex "github.com/tmthrgd/go-hex"
)

// HashSize is the size of a content-address hash in bytes.
const HashSize = 32

// Hash is a fixed 256-bit digest, the natural content-address form.
//
//nolint:recvcheck
type Hash [HashSize]byte

var ZeroHash Hash

func MustHashFromString(s string) Hash {
	if h, err := HashFromString(s); err != nil {
		panic(err)
	} else {
		return h
	}
}

func HashFromString(s string) (Hash, error) {
	var h Hash
	buf, err := fasthex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(buf) != HashSize {
		return h, errors.New("wrong hash size")
	}
	copy(h[:], buf)
	return h, nil
}

func HashFromBytes(buf []byte) (h Hash) {
	if len(buf) != HashSize {
		return
	}
	copy(h[:], buf)
	return
}

func (h Hash) MarshalJSON() ([]byte, error) {
	var buf [HashSize*2 + 2]byte
	buf[0] = '"'
	buf[HashSize*2+1] = '"'
	fasthex.Encode(buf[1:], h[:])
	return buf[:], nil
}

func (h *Hash) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || len(b) == 2 {
		return nil
	}
	if len(b) != HashSize*2+2 {
		return errors.New("wrong hash size")
	}
	_, err := fasthex.Decode(h[:], b[1:len(b)-1])
	return err
}

func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

func (h Hash) Slice() []byte {
	return h[:]
}

func (h Hash) String() string {
	return fasthex.EncodeToString(h[:])
}

// Uint64 returns the first eight bytes of the hash as a little-endian
// integer, for use as a short table key.
func (h Hash) Uint64() uint64 {
	return binary.LittleEndian.Uint64(h[:])
}

// Bytes is a variable-length byte string carrying digests, keys and salts,
// serialized as a quoted hex string.
//
//nolint:recvcheck
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	buf := make([]byte, len(b)*2+2)
	buf[0] = '"'
	buf[len(buf)-1] = '"'
	fasthex.Encode(buf[1:], b)
	return buf, nil
}

func (b Bytes) String() string {
	return fasthex.EncodeToString(b)
}

func (b *Bytes) UnmarshalJSON(buf []byte) error {
	if len(buf) < 2 || (len(buf)%2) != 0 || buf[0] != '"' || buf[len(buf)-1] != '"' {
		return errors.New("invalid bytes")
	}

	*b = make(Bytes, (len(buf)-2)/2)

	_, err := fasthex.Decode(*b, buf[1:len(buf)-1])
	return err
}

// SliceBytes serializes as a JSON array of numbers instead of a hex string,
// for interchange with vector files that use that encoding.
//
//nolint:recvcheck
type SliceBytes []byte

func (b SliceBytes) MarshalJSON() ([]byte, error) {
	a := make([]uint16, len(b))
	for i := range a {
		a[i] = uint16(b[i])
	}
	return utils.MarshalJSON(a)
}

func (b SliceBytes) String() string {
	return fasthex.EncodeToString(b)
}

func (b *SliceBytes) UnmarshalJSON(buf []byte) error {
	var a []uint16
	if err := utils.UnmarshalJSON(buf, &a); err != nil {
		return err
	}
	*b = (*b)[:0]
	for _, v := range a {
		if v > math.MaxUint8 {
			return errors.New("invalid bytes")
		}
		*b = append(*b, byte(v))
	}

	return nil
}
