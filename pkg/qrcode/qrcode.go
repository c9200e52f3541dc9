// Package qrcode renders payment links as PNG QR codes so checkout pages
// can offer a scan-to-pay option next to the hosted link.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qr content cannot be empty")
	ErrEncodingFailed = errors.New("failed to encode qr code")
)

const defaultSize = 256

// PNG encodes content as a PNG QR code of size x size pixels.
// Non-positive sizes fall back to 256.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return png, nil
}

// DataURI returns the QR code as a data: URI suitable for an <img> src.
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
