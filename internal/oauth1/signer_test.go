package oauth1_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/oauth1"
)

// Reference request from the widely published OAuth 1.0a signing walkthrough.
// The body parameters of the original example are carried in the query here,
// which yields the same base string.
const (
	refURL = "https://api.twitter.com/1.1/statuses/update.json" +
		"?include_entities=true" +
		"&status=Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21"
	refNonce     = "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"
	refTimestamp = 1318622958
	refSignature = "hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"
)

var refCreds = oauth1.Credentials{
	ConsumerKey:    "xvz1evFS4wEEPTGEFPHBog",
	ConsumerSecret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
	Token:          "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
	TokenSecret:    "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
}

func fixedSigner() *oauth1.Signer {
	return oauth1.NewSigner(
		oauth1.WithNowFunc(func() time.Time { return time.Unix(refTimestamp, 0) }),
		oauth1.WithNonceFunc(func() string { return refNonce }),
	)
}

func TestSigner_ReferenceVector(t *testing.T) {
	t.Parallel()

	got, err := fixedSigner().Sign("POST", refURL, refCreds)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "OAuth "))
	assert.Contains(t, got, `oauth_signature="`+refSignature+`"`)
	assert.Contains(t, got, `oauth_consumer_key="xvz1evFS4wEEPTGEFPHBog"`)
	assert.Contains(t, got, `oauth_signature_method="HMAC-SHA1"`)
	assert.Contains(t, got, `oauth_timestamp="1318622958"`)
	assert.Contains(t, got, `oauth_version="1.0"`)
	assert.NotContains(t, got, "include_entities", "query params are signed but not sent in the header")
	assert.NotContains(t, got, "status=")
}

func TestSigner_Deterministic(t *testing.T) {
	t.Parallel()

	s := fixedSigner()
	first, err := s.Sign("GET", "https://shop.example.com/categories/12/products?page=2&brand=4_7", refCreds)
	require.NoError(t, err)

	for range 5 {
		again, err := s.Sign("GET", "https://shop.example.com/categories/12/products?page=2&brand=4_7", refCreds)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSigner_QueryOrderDoesNotMatter(t *testing.T) {
	t.Parallel()

	s := fixedSigner()
	a, err := s.Sign("GET", "https://shop.example.com/p?b=2&a=1&a=0", refCreds)
	require.NoError(t, err)
	b, err := s.Sign("GET", "https://shop.example.com/p?a=0&a=1&b=2", refCreds)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSigner_DefaultPortAndHostCase(t *testing.T) {
	t.Parallel()

	s := fixedSigner()
	a, err := s.Sign("GET", "https://Shop.Example.com:443/p?x=1", refCreds)
	require.NoError(t, err)
	b, err := s.Sign("get", "https://shop.example.com/p?x=1", refCreds)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSigner_FreshNonceAndTimestamp(t *testing.T) {
	t.Parallel()

	s := oauth1.NewSigner()
	a, err := s.Sign("GET", "https://shop.example.com/stores", refCreds)
	require.NoError(t, err)
	b, err := s.Sign("GET", "https://shop.example.com/stores", refCreds)
	require.NoError(t, err)

	nonce := regexp.MustCompile(`oauth_nonce="([0-9a-f]{32})"`)
	ma := nonce.FindStringSubmatch(a)
	mb := nonce.FindStringSubmatch(b)
	require.Len(t, ma, 2)
	require.Len(t, mb, 2)
	assert.NotEqual(t, ma[1], mb[1])
}

func TestSigner_OmitsEmptyToken(t *testing.T) {
	t.Parallel()

	creds := refCreds
	creds.Token = ""
	creds.TokenSecret = ""

	got, err := fixedSigner().Sign("GET", "https://shop.example.com/stores", creds)
	require.NoError(t, err)
	assert.NotContains(t, got, "oauth_token=")
}

func TestSigner_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		url    string
		creds  oauth1.Credentials
	}{
		{name: "relative url", method: "GET", url: "/stores", creds: refCreds},
		{name: "unparseable url", method: "GET", url: "https://shop.example.com/%zz", creds: refCreds},
		{
			name:   "invalid utf-8 secret",
			method: "GET",
			url:    "https://shop.example.com/stores",
			creds:  oauth1.Credentials{ConsumerKey: "k", ConsumerSecret: string([]byte{0xff, 0xfe})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := fixedSigner().Sign(tt.method, tt.url, tt.creds)
			require.ErrorIs(t, err, oauth1.ErrSigning)
		})
	}
}

func TestPercentEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "abcXYZ019", want: "abcXYZ019"},
		{in: "-._~", want: "-._~"},
		{in: " ", want: "%20"},
		{in: "+", want: "%2B"},
		{in: "*", want: "%2A"},
		{in: "a b+c*d~e", want: "a%20b%2Bc%2Ad~e"},
		{in: "/?&=", want: "%2F%3F%26%3D"},
		{in: "é", want: "%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, oauth1.PercentEncode(tt.in))
		})
	}
}

func TestNewNonce(t *testing.T) {
	t.Parallel()

	n := oauth1.NewNonce()
	assert.Regexp(t, `^[0-9a-f]{32}$`, n)
	assert.NotEqual(t, n, oauth1.NewNonce())
}
