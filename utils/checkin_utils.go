package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

//
// ===========================================================
//  TOKEN GENERATORS
// ===========================================================
//

// GenerateSecureToken returns a hex token of length bytes of entropy.
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// PtrString returns nil for blank strings.
func PtrString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

//
// ===========================================================
//  IMAGE (BASE64) HELPERS
// ===========================================================
//

var ErrEmptyImage = errors.New("empty base64 string")

// DecodeBase64Image accepts raw base64 or a data URI like
// "data:image/png;base64,...." and returns the bytes plus a file extension
// derived from the mime type (".jpg" when unknown).
func DecodeBase64Image(base64Str string) ([]byte, string, error) {
	base64Str = strings.TrimSpace(base64Str)
	if base64Str == "" {
		return nil, "", ErrEmptyImage
	}

	ext := ".jpg"
	if strings.HasPrefix(base64Str, "data:") {
		parts := strings.SplitN(base64Str, ";base64,", 2)
		if len(parts) == 2 {
			mime := strings.TrimPrefix(parts[0], "data:")
			base64Str = parts[1]
			switch mime {
			case "image/png":
				ext = ".png"
			case "image/gif":
				ext = ".gif"
			case "image/webp":
				ext = ".webp"
			}
		} else if idx := strings.Index(base64Str, ","); idx != -1 {
			base64Str = base64Str[idx+1:]
		}
	}

	// try StdEncoding then URL encoding
	data, err := base64.StdEncoding.DecodeString(base64Str)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(base64Str)
		if err != nil {
			return nil, "", fmt.Errorf("base64 decode failed: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	return data, ext, nil
}
