package cryptox

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := DeriveKey([]byte("secret-password"), []byte("fixed-salt"))
	k2 := DeriveKey([]byte("secret-password"), []byte("fixed-salt"))
	require.Len(t, k1, KeyLength)
	assert.Equal(t, k1, k2)

	k3 := DeriveKey([]byte("secret-password"), []byte("other-salt"))
	assert.NotEqual(t, k1, k3)
}

func TestDeriveKey_KnownVector(t *testing.T) {
	// PBKDF2-HMAC-SHA256("password", "salt", 100000, 32)
	got := DeriveKey([]byte("password"), []byte("salt"))
	assert.Equal(t, "0394a2ede332c9a13eb82e9b24631604c31df978b4e2f0fbd2c549944f9d79a5", hex.EncodeToString(got))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := New()
	messages := []string{"x", `[{"id":"1","name":"alice","issuer":"GitHub","secret":"JBSWY3DP"}]`, "ünïcødé ✓"}
	for _, m := range messages {
		v, err := c.Encrypt(m, []byte("correct horse"))
		require.NoError(t, err)

		got, err := c.Decrypt(v, []byte("correct horse"))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestEncrypt_FieldSizesAndFreshness(t *testing.T) {
	v1, err := Encrypt("same", []byte("p"))
	require.NoError(t, err)
	v2, err := Encrypt("same", []byte("p"))
	require.NoError(t, err)

	salt, err := base64.StdEncoding.DecodeString(v1.Salt)
	require.NoError(t, err)
	iv, err := base64.StdEncoding.DecodeString(v1.IV)
	require.NoError(t, err)
	data, err := base64.StdEncoding.DecodeString(v1.Data)
	require.NoError(t, err)

	assert.Len(t, salt, SaltSize)
	assert.Len(t, iv, NonceSize)
	assert.Len(t, data, len("same")+16)

	assert.NotEqual(t, v1.Salt, v2.Salt)
	assert.NotEqual(t, v1.IV, v2.IV)
	assert.NotEqual(t, v1.Data, v2.Data)
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	v, err := Encrypt("payload", []byte("right"))
	require.NoError(t, err)

	_, err = Decrypt(v, []byte("wrong"))
	require.ErrorIs(t, err, ErrAuthentication)
}

func flipBit(t *testing.T, field string, bit int) string {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(field)
	require.NoError(t, err)
	b[bit/8] ^= 1 << (bit % 8)
	return base64.StdEncoding.EncodeToString(b)
}

func TestDecrypt_TamperDetection(t *testing.T) {
	pass := []byte("passphrase")
	v, err := Encrypt("tamper me", pass)
	require.NoError(t, err)

	cases := map[string]func(EncryptedVault) EncryptedVault{
		"data first bit": func(x EncryptedVault) EncryptedVault { x.Data = flipBit(t, x.Data, 0); return x },
		"data tag bit": func(x EncryptedVault) EncryptedVault {
			x.Data = flipBit(t, x.Data, 8*(len("tamper me")+15)+7)
			return x
		},
		"iv bit":   func(x EncryptedVault) EncryptedVault { x.IV = flipBit(t, x.IV, 42); return x },
		"salt bit": func(x EncryptedVault) EncryptedVault { x.Salt = flipBit(t, x.Salt, 127); return x },
		"short iv": func(x EncryptedVault) EncryptedVault {
			x.IV = base64.StdEncoding.EncodeToString([]byte("short"))
			return x
		},
		"bad base64": func(x EncryptedVault) EncryptedVault { x.Data = "%%%"; return x },
		"truncated data": func(x EncryptedVault) EncryptedVault {
			x.Data = base64.StdEncoding.EncodeToString([]byte("abc"))
			return x
		},
		"empty record": func(EncryptedVault) EncryptedVault { return EncryptedVault{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decrypt(mutate(v), pass)
			require.ErrorIs(t, err, ErrAuthentication)
		})
	}
}

func TestCipher_MissingProvider(t *testing.T) {
	var zero Cipher
	_, err := zero.Encrypt("x", []byte("p"))
	require.ErrorIs(t, err, ErrPrecondition)
	_, err = zero.Decrypt(EncryptedVault{}, []byte("p"))
	require.ErrorIs(t, err, ErrPrecondition)

	var nilCipher *Cipher
	_, err = nilCipher.Encrypt("x", []byte("p"))
	require.ErrorIs(t, err, ErrPrecondition)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestEncrypt_RandomSourceFailure(t *testing.T) {
	_, err := NewWithRand(failingReader{}).Encrypt("x", []byte("p"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "entropy exhausted")
}

func TestEncrypt_DeterministicWithFixedRandom(t *testing.T) {
	src := bytes.Repeat([]byte{7}, SaltSize+NonceSize)
	v, err := NewWithRand(bytes.NewReader(src)).Encrypt("x", []byte("p"))
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, SaltSize)), v.Salt)
	assert.Equal(t, base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, NonceSize)), v.IV)

	got, err := New().Decrypt(v, []byte("p"))
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}
