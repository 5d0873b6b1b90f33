// Package chacha20 implements the ChaCha20 stream cipher as defined by IETF
// RFC 7539: the 20-round block function over a 256-bit key, 96-bit nonce and
// 32-bit block counter, and counter-mode encryption built on it.
//
// A Cipher processes its input in a single forward pass. It is not seekable:
// the block counter only advances.
package chacha20

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

const (
	// KeySize is the exact key size in bytes.
	KeySize = 32
	// NonceSize is the exact nonce size in bytes.
	NonceSize = 12
	// BlockSize is the keystream block size in bytes.
	BlockSize = 64

	stateSize = 16
)

var (
	ErrInvalidKeySize   = errors.New("chacha20: key must be exactly 256 bits")
	ErrInvalidNonceSize = errors.New("chacha20: nonce must be exactly 96 bits")
)

// Cipher is a ChaCha20 instance keyed with a key, nonce and initial block
// counter. It is not safe for concurrent use.
type Cipher struct {
	state [stateSize]uint32
}

// New returns a ChaCha20 cipher for the given 32-byte key and 12-byte nonce,
// starting at the given block counter. The nonce must never repeat under the
// same key; when keys are shared across senders, reserve the first 32 bits
// of the nonce as a per-sender value.
func New(key, nonce []byte, counter uint32) (*Cipher, error) {
	state, err := initialState(key, nonce, counter)
	if err != nil {
		return nil, err
	}
	return &Cipher{state: state}, nil
}

func initialState(key, nonce []byte, counter uint32) (state [stateSize]uint32, err error) {
	if len(key) != KeySize {
		return state, ErrInvalidKeySize
	}
	if len(nonce) != NonceSize {
		return state, ErrInvalidNonceSize
	}

	// "expand 32-byte k"
	state[0] = 0x61707865
	state[1] = 0x3320646e
	state[2] = 0x79622d32
	state[3] = 0x6b206574

	for i := 0; i < 8; i++ {
		state[4+i] = binary.LittleEndian.Uint32(key[4*i:])
	}

	state[12] = counter

	state[13] = binary.LittleEndian.Uint32(nonce[0:])
	state[14] = binary.LittleEndian.Uint32(nonce[4:])
	state[15] = binary.LittleEndian.Uint32(nonce[8:])

	return state, nil
}

// XORKeyStream XORs src with the keystream and writes the result to dst,
// advancing the block counter by the number of blocks consumed. dst must be
// at least as long as src and may be src itself. It panics if dst is too
// short or if the message would overflow the 32-bit block counter.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("chacha20: output smaller than input")
	}

	numBlocks := (uint64(len(src)) + BlockSize - 1) / BlockSize
	if uint64(c.state[12])+numBlocks > 1<<32 {
		panic("chacha20: message too long - would overflow block counter")
	}

	var block [BlockSize]byte
	for len(src) > 0 {
		blockFunction(&c.state, &block)
		c.state[12]++

		n := len(src)
		if n > BlockSize {
			n = BlockSize
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ block[i]
		}
		dst = dst[n:]
		src = src[n:]
	}
}

// Encrypt returns the encryption of plaintext, advancing the block counter.
// Decryption is the same operation with ciphertext as the input.
func (c *Cipher) Encrypt(plaintext []byte) []byte {
	out := make([]byte, len(plaintext))
	c.XORKeyStream(out, plaintext)
	return out
}

// quarterRound permutes four slots of the state. This is a fixed, invertible
// permutation and is only safe as a building block for the full block
// function.
func quarterRound(state *[stateSize]uint32, a, b, c, d int) {
	state[a] += state[b]
	state[d] = bits.RotateLeft32(state[d]^state[a], 16)
	state[c] += state[d]
	state[b] = bits.RotateLeft32(state[b]^state[c], 12)
	state[a] += state[b]
	state[d] = bits.RotateLeft32(state[d]^state[a], 8)
	state[c] += state[d]
	state[b] = bits.RotateLeft32(state[b]^state[c], 7)
}

// permute applies the 20 fixed ChaCha20 rounds, two per iteration: a column
// round followed by a diagonal round.
func permute(state *[stateSize]uint32) {
	for i := 0; i < 10; i++ {
		quarterRound(state, 0, 4, 8, 12)
		quarterRound(state, 1, 5, 9, 13)
		quarterRound(state, 2, 6, 10, 14)
		quarterRound(state, 3, 7, 11, 15)

		quarterRound(state, 0, 5, 10, 15)
		quarterRound(state, 1, 6, 11, 12)
		quarterRound(state, 2, 7, 8, 13)
		quarterRound(state, 3, 4, 9, 14)
	}
}

// blockFunction produces one keystream block from state: the fixed
// permutation is applied to a working copy, then the input state is added
// back word by word. The feed-forward addition is what turns the invertible
// permutation into a PRF.
func blockFunction(state *[stateSize]uint32, out *[BlockSize]byte) {
	working := *state
	permute(&working)

	for i := 0; i < stateSize; i++ {
		binary.LittleEndian.PutUint32(out[4*i:], state[i]+working[i])
	}
}
