// Package blake2b implements the BLAKE2b cryptographic hash function with
// support for keyed hashing (MAC), salting and personalization. BLAKE2b is
// optimized for 64-bit platforms and produces digests of any size between
// 1 and 64 bytes.
package blake2b

import (
	"encoding/binary"
	"errors"

	"github.com/pando-crypto/primitives/types"
	"lukechampine.com/uint128"
)

const (
	// BlockSize is the block size of the hash algorithm in bytes.
	BlockSize = 128
	// Size is the maximum digest size in bytes.
	Size = 64
	// KeySize is the maximum key size in bytes.
	KeySize = 64
	// SaltSize is the exact salt size in bytes.
	SaltSize = 16
	// PersonalizationSize is the exact personalization string size in bytes.
	PersonalizationSize = 16
	// RoundCount is the number of mixing rounds per compression.
	RoundCount = 12
)

var (
	ErrInvalidOutputSize      = errors.New("blake2b: output size can only be 1..64 bytes")
	ErrInvalidKeySize         = errors.New("blake2b: key must be no more than 64 bytes")
	ErrInvalidSaltSize        = errors.New("blake2b: salt must be exactly 16 bytes")
	ErrInvalidPersonalization = errors.New("blake2b: personalization must be exactly 16 bytes")
	ErrAlreadyStarted         = errors.New("blake2b: salt or personalization cannot change after hashing has started")
)

// Digest is an incremental BLAKE2b hash engine. It implements hash.Hash.
//
// A Digest is not safe for concurrent use. Final resets the engine to its
// initial state, keeping the configured size, key, salt and personalization,
// so an instance can be reused without reconstruction.
type Digest struct {
	h    [8]uint64
	size uint128.Uint128 // bytes compressed so far, excluding the buffered tail

	buf [BlockSize]byte
	off int

	outputSize      int
	key             [KeySize]byte
	keyLen          int
	salt            [SaltSize]byte
	hasSalt         bool
	personalization [PersonalizationSize]byte
	hasPersonal     bool

	// Initialization is deferred to first use so that a salt or
	// personalization set after construction is still honored.
	needsInit bool
}

// New constructs a BLAKE2b engine producing size bytes of output. A non-empty
// key turns the hash into a MAC. The key is retained for the lifetime of the
// engine so it can be reused and reset.
func New(size int, key []byte) (*Digest, error) {
	if size <= 0 || size > Size {
		return nil, ErrInvalidOutputSize
	}
	if len(key) > KeySize {
		return nil, ErrInvalidKeySize
	}
	d := &Digest{
		outputSize: size,
		keyLen:     len(key),
		needsInit:  true,
	}
	copy(d.key[:], key)
	return d, nil
}

// SetSalt adds a 16-byte salt to the initial state, for use of BLAKE2b as a
// key derivation function. It fails once hashing has started.
func (d *Digest) SetSalt(salt []byte) error {
	if len(salt) != SaltSize {
		return ErrInvalidSaltSize
	}
	if !d.needsInit {
		return ErrAlreadyStarted
	}
	copy(d.salt[:], salt)
	d.hasSalt = true
	return nil
}

// SetPersonalization adds a 16-byte personalization string for domain
// separation between uses of the same key. It fails once hashing has started.
func (d *Digest) SetPersonalization(personalization []byte) error {
	if len(personalization) != PersonalizationSize {
		return ErrInvalidPersonalization
	}
	if !d.needsInit {
		return ErrAlreadyStarted
	}
	copy(d.personalization[:], personalization)
	d.hasPersonal = true
	return nil
}

func (d *Digest) initialize() {
	d.h = iv
	d.h[0] ^= 0x01010000 ^ uint64(d.keyLen)<<8 ^ uint64(d.outputSize)

	if d.hasSalt {
		d.h[4] ^= binary.LittleEndian.Uint64(d.salt[0:])
		d.h[5] ^= binary.LittleEndian.Uint64(d.salt[8:])
	}
	if d.hasPersonal {
		d.h[6] ^= binary.LittleEndian.Uint64(d.personalization[0:])
		d.h[7] ^= binary.LittleEndian.Uint64(d.personalization[8:])
	}

	d.size = uint128.Zero
	d.off = 0

	if d.keyLen > 0 {
		// The key occupies a whole zero-padded first block. It is not
		// compressed here: the buffer-full path dispatches it once more
		// input arrives, or the finalizer if none does.
		copy(d.buf[:], d.key[:d.keyLen])
		for i := d.keyLen; i < BlockSize; i++ {
			d.buf[i] = 0
		}
		d.off = BlockSize
	}

	d.needsInit = false
}

// incrementSize adds n message bytes to the 128-bit byte counter.
func (d *Digest) incrementSize(n int) {
	d.size = d.size.Add64(uint64(n))
}

// Write absorbs more data into the running hash. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	if d.needsInit {
		d.initialize()
	}
	n := len(p)
	if n == 0 {
		return 0, nil
	}

	// Top up a partially filled buffer first.
	if d.off > 0 && d.off < BlockSize {
		c := copy(d.buf[d.off:], p)
		d.off += c
		p = p[c:]
	}

	// A full buffered block is compressed only once further input proves it
	// is not the last block of the message; the last block is finalized with
	// different counter and flag treatment.
	if d.off == BlockSize && len(p) > 0 {
		d.incrementSize(BlockSize)
		d.compress(d.buf[:], false)
		d.off = 0
	}

	// Interior blocks go straight from the input without the buffer copy,
	// always withholding the trailing block.
	for len(p) > BlockSize {
		d.incrementSize(BlockSize)
		d.compress(p[:BlockSize], false)
		p = p[BlockSize:]
	}

	if len(p) > 0 {
		d.off = copy(d.buf[:], p)
	}
	return n, nil
}

// Final absorbs data (which may be nil) and returns the digest, then resets
// the engine so it can be reused with the same parameters.
func (d *Digest) Final(data []byte) []byte {
	if d.needsInit {
		d.initialize()
	}
	if len(data) > 0 {
		_, _ = d.Write(data)
	}

	d.incrementSize(d.off)
	for i := d.off; i < BlockSize; i++ {
		d.buf[i] = 0
	}
	d.compress(d.buf[:], true)

	out := make([]byte, d.outputSize)
	for i := range out {
		out[i] = byte(d.h[i>>3] >> (8 * (i & 7)))
	}

	d.Reset()
	return out
}

// Sum appends the current hash to b and returns the resulting slice. It does
// not change the underlying state.
func (d *Digest) Sum(b []byte) []byte {
	dd := *d
	return append(b, dd.Final(nil)...)
}

// Reset restores the engine to its initial state, keeping size, key, salt and
// personalization.
func (d *Digest) Reset() {
	d.h = [8]uint64{}
	d.size = uint128.Zero
	d.buf = [BlockSize]byte{}
	d.off = 0
	d.needsInit = true
}

// Size returns the configured digest size in bytes.
func (d *Digest) Size() int { return d.outputSize }

// BlockSize returns the hash block size in bytes.
func (d *Digest) BlockSize() int { return BlockSize }

// Sum hashes data into a digest of the given size.
func Sum(data []byte, size int) ([]byte, error) {
	d, err := New(size, nil)
	if err != nil {
		return nil, err
	}
	return d.Final(data), nil
}

// MAC produces a message authentication tag of the given size over data,
// proving possession of key.
func MAC(key, data []byte, size int) ([]byte, error) {
	d, err := New(size, key)
	if err != nil {
		return nil, err
	}
	return d.Final(data), nil
}

// Sum256 returns the BLAKE2b-256 digest of data as a content-address hash.
func Sum256[T ~string | ~[]byte](data T) (result types.Hash) {
	d, _ := New(types.HashSize, nil)
	copy(result[:], d.Final([]byte(data)))
	return result
}

// Sum512 returns the full-width BLAKE2b-512 digest of data.
func Sum512[T ~string | ~[]byte](data T) (result [Size]byte) {
	d, _ := New(Size, nil)
	copy(result[:], d.Final([]byte(data)))
	return result
}
