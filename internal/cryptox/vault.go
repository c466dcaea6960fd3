package cryptox

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/toofer/internal/common"
)

// EncryptedVault is one authenticated ciphertext over a serialized account
// list. All fields are standard base64. Records are replaced wholesale on
// every save and never updated in place.
type EncryptedVault struct {
	IV   string `json:"iv"`
	Data string `json:"data"`
	Salt string `json:"salt"`
}

// Marshal returns the JSON text form stored in the key-value store.
func (v EncryptedVault) Marshal() ([]byte, error) {
	return json.Marshal(v)
}

// ParseEncryptedVault decodes a stored record. Text that is not a JSON
// object is reported as common.ErrFormat; the field contents are only
// checked by Decrypt.
func ParseEncryptedVault(b []byte) (EncryptedVault, error) {
	var v EncryptedVault
	if err := json.Unmarshal(b, &v); err != nil {
		return EncryptedVault{}, fmt.Errorf("%w: encrypted vault: %v", common.ErrFormat, err)
	}
	return v, nil
}
