package payuri

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSizePx = 256

// QRCode renders the URI as a PNG.
func QRCode(uri string) ([]byte, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, qrSizePx)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// QRCodeDataURL renders the URI as a data URL suitable for an <img> src.
func QRCodeDataURL(uri string) (string, error) {
	png, err := QRCode(uri)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
