// Package siphash implements the SipHash family of fast, cryptographically
// strong keyed pseudorandom functions, designed as a general purpose hash for
// short inputs to defend against hash-flooding denial of service attacks.
//
// A SipHash instance with c compression rounds and f finalization rounds is
// known as SipHash-c-f; SipHash-2-4 is the variant recommended by the
// authors. Both the 64-bit and the less analyzed 128-bit output tags are
// supported. Unlike BLAKE2b there is no incremental state: the whole input is
// consumed in a single pass.
package siphash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

const (
	// KeySize is the number of key bytes consumed. Longer keys are accepted
	// and truncated.
	KeySize = 16
	// TagSize is the output size of the 64-bit variant in bytes.
	TagSize = 8
	// TagSize128 is the output size of the 128-bit variant in bytes.
	TagSize128 = 16
)

var (
	ErrCompressionRounds  = errors.New("siphash: must have at least one compression round")
	ErrFinalizationRounds = errors.New("siphash: must have at least three finalization rounds")
	ErrInvalidKeySize     = errors.New("siphash: key must be at least 16 bytes")
)

// PRF is a configured SipHash instance. It is immutable after construction
// and safe for concurrent use.
type PRF struct {
	crounds, frounds int
	v0, v1, v2, v3   uint64
	wide             bool
}

// New returns a SipHash-c-f instance with a 64-bit output tag. The key must
// be at least 16 bytes; only the first 16 are used.
func New(crounds, frounds int, key []byte) (*PRF, error) {
	return newPRF(crounds, frounds, key, false)
}

// New128 returns a SipHash-c-f instance with a 128-bit output tag.
func New128(crounds, frounds int, key []byte) (*PRF, error) {
	return newPRF(crounds, frounds, key, true)
}

func newPRF(crounds, frounds int, key []byte, wide bool) (*PRF, error) {
	if crounds < 1 {
		return nil, ErrCompressionRounds
	}
	if frounds < 3 {
		return nil, ErrFinalizationRounds
	}
	if len(key) < KeySize {
		return nil, ErrInvalidKeySize
	}

	k0 := binary.LittleEndian.Uint64(key[0:])
	k1 := binary.LittleEndian.Uint64(key[8:])

	p := &PRF{
		crounds: crounds,
		frounds: frounds,
		v0:      k0 ^ 0x736f6d6570736575, // "somepseu"
		v1:      k1 ^ 0x646f72616e646f6d, // "dorandom"
		v2:      k0 ^ 0x6c7967656e657261, // "lygenera"
		v3:      k1 ^ 0x7465646279746573, // "tedbytes"
		wide:    wide,
	}
	if wide {
		p.v1 ^= 0xee
	}
	return p, nil
}

// TagSize returns the output tag size in bytes.
func (p *PRF) TagSize() int {
	if p.wide {
		return TagSize128
	}
	return TagSize
}

// MAC produces the authentication tag for data in a single pass.
func (p *PRF) MAC(data []byte) []byte {
	t0, t1 := p.sum(data)
	out := make([]byte, p.TagSize())
	binary.LittleEndian.PutUint64(out, t0)
	if p.wide {
		binary.LittleEndian.PutUint64(out[8:], t1)
	}
	return out
}

// Sum64 returns the 64-bit tag for data. For the 128-bit variant this is the
// first tag word.
func (p *PRF) Sum64(data []byte) uint64 {
	t0, _ := p.sum(data)
	return t0
}

func (p *PRF) sum(data []byte) (uint64, uint64) {
	v0, v1, v2, v3 := p.v0, p.v1, p.v2, p.v3

	// The final word holds the trailing bytes with the total length in the
	// top byte.
	b := uint64(len(data)) << 56

	for len(data) >= 8 {
		m := binary.LittleEndian.Uint64(data)
		v3 ^= m
		for i := 0; i < p.crounds; i++ {
			v0, v1, v2, v3 = round(v0, v1, v2, v3)
		}
		v0 ^= m
		data = data[8:]
	}
	for i, x := range data {
		b |= uint64(x) << (8 * uint(i))
	}

	v3 ^= b
	for i := 0; i < p.crounds; i++ {
		v0, v1, v2, v3 = round(v0, v1, v2, v3)
	}
	v0 ^= b

	if p.wide {
		v2 ^= 0xee
	} else {
		v2 ^= 0xff
	}
	for i := 0; i < p.frounds; i++ {
		v0, v1, v2, v3 = round(v0, v1, v2, v3)
	}
	t0 := v0 ^ v1 ^ v2 ^ v3

	if !p.wide {
		return t0, 0
	}

	v1 ^= 0xdd
	for i := 0; i < p.frounds; i++ {
		v0, v1, v2, v3 = round(v0, v1, v2, v3)
	}
	return t0, v0 ^ v1 ^ v2 ^ v3
}

func (p *PRF) String() string {
	return fmt.Sprintf("SipHash-%d-%d (%d-bit)", p.crounds, p.frounds, p.TagSize()*8)
}

func round(v0, v1, v2, v3 uint64) (uint64, uint64, uint64, uint64) {
	v0 += v1
	v1 = bits.RotateLeft64(v1, 13)
	v1 ^= v0
	v0 = bits.RotateLeft64(v0, 32)
	v2 += v3
	v3 = bits.RotateLeft64(v3, 16)
	v3 ^= v2
	v0 += v3
	v3 = bits.RotateLeft64(v3, 21)
	v3 ^= v0
	v2 += v1
	v1 = bits.RotateLeft64(v1, 17)
	v1 ^= v2
	v2 = bits.RotateLeft64(v2, 32)
	return v0, v1, v2, v3
}

// Sum64 computes the SipHash-2-4 64-bit tag of data. It panics if the key is
// shorter than 16 bytes.
func Sum64(key, data []byte) uint64 {
	p, err := New(2, 4, key)
	if err != nil {
		panic(err)
	}
	return p.Sum64(data)
}

// Sum128 computes the SipHash-2-4 128-bit tag of data. It panics if the key
// is shorter than 16 bytes.
func Sum128(key, data []byte) (out [TagSize128]byte) {
	p, err := New128(2, 4, key)
	if err != nil {
		panic(err)
	}
	t0, t1 := p.sum(data)
	binary.LittleEndian.PutUint64(out[0:], t0)
	binary.LittleEndian.PutUint64(out[8:], t1)
	return out
}
