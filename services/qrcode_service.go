// services/qrcode_service.go
package services

import (
	"errors"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRCodeEncoder matches qrcode.Encode so tests can swap it out.
type QRCodeEncoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

// CourtURL is the public link to a court page.
func CourtURL(applicationURL, courtID string) string {
	return strings.TrimRight(applicationURL, "/") + "/courts/" + url.PathEscape(courtID)
}

// GenerateQRCode renders content as a square PNG of the given size.
func GenerateQRCode(content string, width, height int, encoder QRCodeEncoder) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid dimensions: width and height must be positive")
	}
	if encoder == nil {
		encoder = qrcode.Encode
	}
	size := width
	if height < size {
		size = height
	}
	png, err := encoder(content, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}
