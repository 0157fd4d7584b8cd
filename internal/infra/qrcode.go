package infra

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRGenerator renders product labels that resolve to the storefront page of
// the product.
type QRGenerator struct {
	baseURL string
}

func NewQRGenerator(frontendBaseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimRight(frontendBaseURL, "/")}
}

// ProductURL is the address encoded in a product's code.
func (g *QRGenerator) ProductURL(productID string) string {
	return g.baseURL + "/p/" + url.PathEscape(productID)
}

// PNG encodes content as a size×size PNG at medium error correction.
func (g *QRGenerator) PNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
