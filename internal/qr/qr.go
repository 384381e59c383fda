// Package qr: полезная нагрузка и картинка QR-кода для таблички класса.
package qr

import (
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultSize: сторона PNG в пикселях.
const DefaultSize = 512

// PayloadURL возвращает ровно то, что печатается на табличке: <base>/?token=<token>.
func PayloadURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/?token=" + url.QueryEscape(token)
}

// PNG кодирует payload; size <= 0 — DefaultSize.
func PNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
