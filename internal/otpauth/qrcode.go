package otpauth

import (
	"encoding/base64"
	"errors"

	"github.com/dmitrijs2005/toofer/internal/client/models"
	skipqrcode "github.com/skip2/go-qrcode"
)

// ErrQRCode is returned when the QR image cannot be produced.
var ErrQRCode = errors.New("failed to generate QR code")

const defaultQRSize = 256

// QRCode renders the key URI of a as a PNG so it can be scanned into another
// authenticator. A non-positive size uses 256 pixels.
func QRCode(a models.Account, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := skipqrcode.Encode(Serialize(a), skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrQRCode, err)
	}
	return png, nil
}

// QRCodeDataURI returns the PNG from QRCode as a data:image/png;base64 URI.
func QRCodeDataURI(a models.Account, size int) (string, error) {
	png, err := QRCode(a, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// QRCodeTerminal renders the key URI as block characters for a terminal.
func QRCodeTerminal(a models.Account) (string, error) {
	q, err := skipqrcode.New(Serialize(a), skipqrcode.Medium)
	if err != nil {
		return "", errors.Join(ErrQRCode, err)
	}
	return q.ToString(false), nil
}
