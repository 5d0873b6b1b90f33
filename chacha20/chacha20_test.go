package chacha20

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	fasthex "github.com/tmthrgd/go-hex"
	xchacha20 "golang.org/x/crypto/chacha20"
)

var (
	testVectorKey   = fasthex.MustDecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	testVectorNonce = fasthex.MustDecodeString("000000090000004a00000000")
)

func TestQuarterRound(t *testing.T) {
	state := [stateSize]uint32{0x11111111, 0x01020304, 0x9b8d6f43, 0x01234567}

	quarterRound(&state, 0, 1, 2, 3)

	require.Equal(t, uint32(0xea2a92f4), state[0])
	require.Equal(t, uint32(0xcb1cf8ce), state[1])
	require.Equal(t, uint32(0x4581472e), state[2])
	require.Equal(t, uint32(0x5881c4bb), state[3])
}

func TestQuarterRoundOnState(t *testing.T) {
	state := [stateSize]uint32{
		0x879531e0, 0xc5ecf37d, 0x516461b1, 0xc9a62f8a,
		0x44c20ef3, 0x3390af7f, 0xd9fc690b, 0x2a5f714c,
		0x53372767, 0xb00a5631, 0x974c541a, 0x359e9963,
		0x5c971061, 0x3d631689, 0x2098d9d6, 0x91dbd320,
	}

	quarterRound(&state, 2, 7, 8, 13)

	require.Equal(t, [stateSize]uint32{
		0x879531e0, 0xc5ecf37d, 0xbdb886dc, 0xc9a62f8a,
		0x44c20ef3, 0x3390af7f, 0xd9fc690b, 0xcfacafd2,
		0xe46bea80, 0xb00a5631, 0x974c541a, 0x359e9963,
		0x5c971061, 0xccc07c79, 0x2098d9d6, 0x91dbd320,
	}, state)
}

func TestInitialState(t *testing.T) {
	state, err := initialState(testVectorKey, testVectorNonce, 1)
	require.NoError(t, err)

	require.Equal(t, [stateSize]uint32{
		0x61707865, 0x3320646e, 0x79622d32, 0x6b206574,
		0x03020100, 0x07060504, 0x0b0a0908, 0x0f0e0d0c,
		0x13121110, 0x17161514, 0x1b1a1918, 0x1f1e1d1c,
		0x00000001, 0x09000000, 0x4a000000, 0x00000000,
	}, state)
}

func TestPermute(t *testing.T) {
	state, err := initialState(testVectorKey, testVectorNonce, 1)
	require.NoError(t, err)

	permute(&state)

	require.Equal(t, [stateSize]uint32{
		0x837778ab, 0xe238d763, 0xa67ae21e, 0x5950bb2f,
		0xc4f2d0c7, 0xfc62bb2f, 0x8fa018fc, 0x3f5ec7b7,
		0x335271c2, 0xf29489f3, 0xeabda8fc, 0x82e46ebd,
		0xd19c12b4, 0xb04e16de, 0x9e83d0cb, 0x4e3c50a2,
	}, state)
}

func TestBlockFunction(t *testing.T) {
	state, err := initialState(testVectorKey, testVectorNonce, 1)
	require.NoError(t, err)

	var block [BlockSize]byte
	blockFunction(&state, &block)

	require.Equal(t,
		"10f1e7e4d13b5915500fdd1fa32071c4c7d1f4c733c068030422aa9ac3d46c4e"+
			"d2826446079faa0914c2d705d98b02a2b5129cd1de164eb9cbd083e8a2503c4e",
		fasthex.EncodeToString(block[:]))
}

func TestEncryption(t *testing.T) {
	nonce := fasthex.MustDecodeString("000000000000004a00000000")
	plaintext := []byte("Ladies and Gentlemen of the class of '99: " +
		"If I could offer you only one tip for the future, sunscreen would be it.")

	c, err := New(testVectorKey, nonce, 1)
	require.NoError(t, err)

	require.Equal(t,
		"6e2e359a2568f98041ba0728dd0d6981e97e7aec1d4360c20a27afccfd9fae0b"+
			"f91b65c5524733ab8f593dabcd62b3571639d624e65152ab8f530c359f0861d8"+
			"07ca0dbf500d6a6156a38e088a22b65e52bc514d16ccf806818ce91ab7793736"+
			"5af90bbf74a35be6b40b8eedf2785e42874d",
		fasthex.EncodeToString(c.Encrypt(plaintext)))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	nonce := fasthex.MustDecodeString("000000000000004a00000000")
	plaintext := []byte("a message spanning more than a single keystream block, " +
		"so that the counter advances at least once in the middle of it......")

	enc, err := New(testVectorKey, nonce, 7)
	require.NoError(t, err)
	dec, err := New(testVectorKey, nonce, 7)
	require.NoError(t, err)

	require.Equal(t, plaintext, dec.Encrypt(enc.Encrypt(plaintext)))
}

func TestParameterValidation(t *testing.T) {
	_, err := New(testVectorKey[:31], testVectorNonce, 0)
	require.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = New(append(testVectorKey, 0), testVectorNonce, 0)
	require.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = New(testVectorKey, testVectorNonce[:11], 0)
	require.ErrorIs(t, err, ErrInvalidNonceSize)
}

func TestCounterOverflow(t *testing.T) {
	c, err := New(testVectorKey, testVectorNonce, math.MaxUint32)
	require.NoError(t, err)

	// One last block is fine.
	_ = c.Encrypt(make([]byte, BlockSize))

	c, err = New(testVectorKey, testVectorNonce, math.MaxUint32)
	require.NoError(t, err)
	require.Panics(t, func() {
		_ = c.Encrypt(make([]byte, BlockSize+1))
	})
}

func TestShortOutputPanics(t *testing.T) {
	c, err := New(testVectorKey, testVectorNonce, 0)
	require.NoError(t, err)
	require.Panics(t, func() {
		c.XORKeyStream(make([]byte, 3), make([]byte, 4))
	})
}

func TestAgainstReference(t *testing.T) {
	for _, n := range []int{1, 63, 64, 65, 128, 200, 1000} {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i * 197)
		}

		ref, err := xchacha20.NewUnauthenticatedCipher(testVectorKey, testVectorNonce)
		require.NoError(t, err)
		ref.SetCounter(1)
		expected := make([]byte, n)
		ref.XORKeyStream(expected, src)

		c, err := New(testVectorKey, testVectorNonce, 1)
		require.NoError(t, err)
		require.Equal(t, expected, c.Encrypt(src), "length %d", n)
	}
}
