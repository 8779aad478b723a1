package pass

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
)

const tokenSeparator = "."

var signingMethod = jwt.SigningMethodHS256

// Mint signs a claim into a token of the form
// base64url(JSON(claim)) "." base64url(HMAC-SHA256(secret, first part)).
func Mint(claim AccessClaim, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errs.ErrMissingSecret
	}
	if !claim.complete() {
		return "", errs.ErrIncompleteClaim
	}

	payload, err := json.Marshal(claim)
	if err != nil {
		return "", fmt.Errorf("[Mint] failed to encode claim: %w", err)
	}
	encodedPayload := encodeSegment(payload)

	signature, err := signingMethod.Sign(encodedPayload, secret)
	if err != nil {
		return "", fmt.Errorf("[Mint] failed to sign claim: %w", err)
	}
	return encodedPayload + tokenSeparator + encodeSegment(signature), nil
}

// Verify checks a token's signature and expiry and returns its claim.
// Every failure is one of ErrMalformedToken, ErrBadSignature,
// ErrMalformedPayload or ErrTokenExpired.
func Verify(token string, secret []byte, now time.Time) (AccessClaim, error) {
	if len(secret) == 0 {
		return AccessClaim{}, errs.ErrMissingSecret
	}

	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return AccessClaim{}, errs.ErrMalformedToken
	}
	encodedPayload, encodedSignature := parts[0], parts[1]

	signature, err := decodeSegment(encodedSignature)
	if err != nil {
		return AccessClaim{}, errs.ErrBadSignature
	}
	// The HMAC comparison in jwt is constant time.
	if err := signingMethod.Verify(encodedPayload, signature, secret); err != nil {
		return AccessClaim{}, errs.ErrBadSignature
	}

	payload, err := decodeSegment(encodedPayload)
	if err != nil {
		return AccessClaim{}, errs.ErrMalformedPayload
	}
	var claim AccessClaim
	if err := json.Unmarshal(payload, &claim); err != nil {
		return AccessClaim{}, errs.ErrMalformedPayload
	}
	if claim.PurchaseID == "" || claim.Scope == "" {
		return AccessClaim{}, errs.ErrMalformedPayload
	}
	if claim.ExpiredAt(now) {
		return AccessClaim{}, errs.ErrTokenExpired
	}
	return claim, nil
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// decodeSegment accepts padded and unpadded base64url.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Codec binds Mint and Verify to the process-wide signing secret.
type Codec struct {
	secret  []byte
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the clock used for expiry checks (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec creates a codec for the given secret.
func NewCodec(secret string, options ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errs.ErrMissingSecret
	}
	c := &Codec{
		secret:  []byte(secret),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Codec) Mint(claim AccessClaim) (string, error) {
	return Mint(claim, c.secret)
}

func (c *Codec) Verify(token string) (AccessClaim, error) {
	return Verify(token, c.secret, c.nowFunc())
}

// Now returns the codec's clock reading.
func (c *Codec) Now() time.Time {
	return c.nowFunc()
}
