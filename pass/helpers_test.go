package pass_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// hmacSegment signs an encoded payload independently of the package under test.
func hmacSegment(encodedPayload string) string {
	mac := hmac.New(sha256.New, testSecret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
