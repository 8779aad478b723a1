package pass_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
	"github.com/JoshuaLakeSexton/Reeflux/pass"
	"github.com/stretchr/testify/require"
)

var (
	testSecret  = []byte("reef-secret-0123456789abcdef-0123")
	otherSecret = []byte("another-secret-0123456789abcdef-0")
	fixedNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func validClaim() pass.AccessClaim {
	return pass.NewAccessClaim("cs_test_123", pass.PoolScope("mirror"), fixedNow, 30*time.Minute)
}

func TestMintVerify_RoundTrip(t *testing.T) {
	claims := []pass.AccessClaim{
		validClaim(),
		pass.NewAccessClaim("cs_any", pass.AnyPool, fixedNow, time.Millisecond),
		pass.NewAccessClaim("cs_unicode_ü", pass.Scope("tide_pool"), fixedNow, 24*time.Hour),
	}

	for _, claim := range claims {
		token, err := pass.Mint(claim, testSecret)
		require.NoError(t, err)
		require.Equal(t, 1, strings.Count(token, "."))

		got, err := pass.Verify(token, testSecret, fixedNow)
		require.NoError(t, err)
		require.Equal(t, claim, got)
	}
}

func TestMint_Deterministic(t *testing.T) {
	first, err := pass.Mint(validClaim(), testSecret)
	require.NoError(t, err)
	second, err := pass.Mint(validClaim(), testSecret)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMint_WireFormat(t *testing.T) {
	token, err := pass.Mint(pass.AccessClaim{PurchaseID: "cs_1", Scope: pass.AnyPool, ExpiresAt: 1700000000000}, testSecret)
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"pid":"cs_1","scope":"any_pool","exp":1700000000000}`, string(payload))
}

func TestMint_Rejects(t *testing.T) {
	_, err := pass.Mint(validClaim(), nil)
	require.ErrorIs(t, err, errs.ErrMissingSecret)

	incomplete := validClaim()
	incomplete.PurchaseID = ""
	_, err = pass.Mint(incomplete, testSecret)
	require.ErrorIs(t, err, errs.ErrIncompleteClaim)

	noExpiry := validClaim()
	noExpiry.ExpiresAt = 0
	_, err = pass.Mint(noExpiry, testSecret)
	require.ErrorIs(t, err, errs.ErrIncompleteClaim)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := pass.Mint(validClaim(), testSecret)
	require.NoError(t, err)

	_, err = pass.Verify(token, otherSecret, fixedNow)
	require.ErrorIs(t, err, errs.ErrBadSignature)
}

func TestVerify_Expired(t *testing.T) {
	claim := pass.NewAccessClaim("cs_old", pass.AnyPool, fixedNow.Add(-2*time.Hour), time.Hour)
	token, err := pass.Mint(claim, testSecret)
	require.NoError(t, err)

	_, err = pass.Verify(token, testSecret, fixedNow)
	require.ErrorIs(t, err, errs.ErrTokenExpired)

	// Valid right up to the expiry instant.
	_, err = pass.Verify(token, testSecret, claim.Expiry())
	require.NoError(t, err)
	_, err = pass.Verify(token, testSecret, claim.Expiry().Add(time.Millisecond))
	require.ErrorIs(t, err, errs.ErrTokenExpired)
}

func TestVerify_TamperedPayload(t *testing.T) {
	token, err := pass.Mint(validClaim(), testSecret)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	for i := range payload {
		tampered := append([]byte(nil), payload...)
		tampered[i] ^= 0x01
		forged := base64.RawURLEncoding.EncodeToString(tampered) + "." + parts[1]

		_, err := pass.Verify(forged, testSecret, fixedNow)
		require.ErrorIs(t, err, errs.ErrBadSignature, "byte %d", i)
	}
}

// signed builds a correctly signed token around an arbitrary payload.
func signed(t *testing.T, payload string) string {
	t.Helper()
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + hmacSegment(encoded)
}

func TestVerify_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", errs.ErrMalformedToken},
		{"no separator", "abcdef", errs.ErrMalformedToken},
		{"three parts", "a.b.c", errs.ErrMalformedToken},
		{"empty signature", "abc.", errs.ErrMalformedToken},
		{"empty payload", ".abc", errs.ErrMalformedToken},
		{"signature not base64", "abc.***", errs.ErrBadSignature},
		{"signature wrong", "abc.AAAA", errs.ErrBadSignature},
		{"payload not base64", "***." + hmacSegment("***"), errs.ErrMalformedPayload},
		{"payload not json", signed(t, "not json"), errs.ErrMalformedPayload},
		{"payload wrong types", signed(t, `{"pid":1,"scope":"any_pool","exp":"soon"}`), errs.ErrMalformedPayload},
		{"missing pid", signed(t, `{"scope":"any_pool","exp":99999999999999}`), errs.ErrMalformedPayload},
		{"missing scope", signed(t, `{"pid":"cs_1","exp":99999999999999}`), errs.ErrMalformedPayload},
		{"missing exp", signed(t, `{"pid":"cs_1","scope":"any_pool"}`), errs.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := pass.Verify(tt.token, testSecret, fixedNow)
				require.ErrorIs(t, err, tt.want)
			})
		})
	}
}

func TestVerify_AcceptsPaddedSegments(t *testing.T) {
	token, err := pass.Mint(validClaim(), testSecret)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	// SHA-256 digests encode to 43 characters, which pad to 44.
	_, err = pass.Verify(parts[0]+"."+parts[1]+"=", testSecret, fixedNow)
	require.NoError(t, err)
}

func TestCodec(t *testing.T) {
	_, err := pass.NewCodec("")
	require.ErrorIs(t, err, errs.ErrMissingSecret)

	now := fixedNow
	codec, err := pass.NewCodec(string(testSecret), pass.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)

	token, err := codec.Mint(validClaim())
	require.NoError(t, err)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, validClaim(), got)

	now = fixedNow.Add(31 * time.Minute)
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, errs.ErrTokenExpired)
}
