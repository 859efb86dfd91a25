// Package oauth1 computes OAuth 1.0a (HMAC-SHA1) Authorization headers for
// requests to the primary storefront backend.
package oauth1

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by OAuth 1.0a
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrSigning is returned when the signer input is malformed. It is never
// retried.
var ErrSigning = errors.New("oauth1 signing failed")

const (
	signatureMethod = "HMAC-SHA1"
	oauthVersion    = "1.0"
)

// Credentials are the already-resolved secrets used to sign one request.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// Signer produces OAuth 1.0a Authorization header values. It holds no
// per-request state and is safe for concurrent use.
type Signer struct {
	nowFunc   func() time.Time
	nonceFunc func() string
}

// Option configures the Signer.
type Option func(*Signer)

// WithNowFunc overrides the timestamp source for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(s *Signer) {
		s.nowFunc = f
	}
}

// WithNonceFunc overrides the nonce source for testing.
func WithNonceFunc(f func() string) Option {
	return func(s *Signer) {
		s.nonceFunc = f
	}
}

// NewSigner creates a Signer that generates a fresh timestamp and nonce per call.
func NewSigner(opts ...Option) *Signer {
	s := &Signer{
		nowFunc:   time.Now,
		nonceFunc: NewNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewNonce returns a random 32 character lowercase hex string.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

type param struct {
	key   string
	value string
}

// Sign returns the Authorization header value for method and rawURL.
// Query parameters of rawURL take part in the signature but are not
// repeated in the header.
func (s *Signer) Sign(method, rawURL string, creds Credentials) (string, error) {
	for _, v := range []string{method, rawURL, creds.ConsumerKey, creds.ConsumerSecret, creds.Token, creds.TokenSecret} {
		if !utf8.ValidString(v) {
			return "", fmt.Errorf("%w: input is not valid UTF-8", ErrSigning)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: parsing url: %w", ErrSigning, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: url %q is not absolute", ErrSigning, rawURL)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", fmt.Errorf("%w: parsing query: %w", ErrSigning, err)
	}

	oauthParams := []param{
		{"oauth_consumer_key", creds.ConsumerKey},
		{"oauth_nonce", s.nonceFunc()},
		{"oauth_signature_method", signatureMethod},
		{"oauth_timestamp", strconv.FormatInt(s.nowFunc().Unix(), 10)},
		{"oauth_version", oauthVersion},
	}
	if creds.Token != "" {
		oauthParams = append(oauthParams, param{"oauth_token", creds.Token})
	}

	all := make([]param, 0, len(oauthParams)+len(query))
	all = append(all, oauthParams...)
	for k, vs := range query {
		for _, v := range vs {
			all = append(all, param{k, v})
		}
	}

	base := baseString(method, normalizeURL(u), all)
	key := PercentEncode(creds.ConsumerSecret) + "&" + PercentEncode(creds.TokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	oauthParams = append(oauthParams, param{"oauth_signature", signature})
	return header(oauthParams), nil
}

// baseString builds METHOD&enc(url)&enc(params) with params encoded and
// sorted by key then value.
func baseString(method, baseURL string, params []param) string {
	encoded := make([]param, len(params))
	for i, p := range params {
		encoded[i] = param{PercentEncode(p.key), PercentEncode(p.value)}
	}
	sortParams(encoded)

	pairs := make([]string, len(encoded))
	for i, p := range encoded {
		pairs[i] = p.key + "=" + p.value
	}

	return strings.ToUpper(method) + "&" +
		PercentEncode(baseURL) + "&" +
		PercentEncode(strings.Join(pairs, "&"))
}

func header(params []param) string {
	sorted := make([]param, len(params))
	copy(sorted, params)
	sortParams(sorted)

	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = fmt.Sprintf(`%s=%q`, PercentEncode(p.key), PercentEncode(p.value))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func sortParams(ps []param) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].key != ps[j].key {
			return ps[i].key < ps[j].key
		}
		return ps[i].value < ps[j].value
	})
}

// normalizeURL drops query, fragment and default ports, and lower-cases
// scheme and host.
func normalizeURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host += ":" + port
		}
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// PercentEncode encodes s per RFC 3986: only ALPHA, DIGIT, '-', '.', '_'
// and '~' pass through. Space becomes %20.
func PercentEncode(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	default:
		return false
	}
}
