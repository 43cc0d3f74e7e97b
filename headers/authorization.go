package headers

import (
	"encoding/base64"
	"slices"
	"strings"
)

// Authentication schemes recognised in Authorization headers.
const (
	SchemeAWS4HMACSHA256 = "AWS4-HMAC-SHA256"
	SchemeBasic          = "Basic"
	SchemeBearer         = "Bearer"
	SchemeDigest         = "Digest"
	SchemeHOBA           = "HOBA"
	SchemeMutual         = "Mutual"
	SchemeOAuth          = "OAuth"
	SchemeSCRAMSHA1      = "SCRAM-SHA-1"
	SchemeSCRAMSHA256    = "SCRAM-SHA-256"
	SchemeVAPID          = "vapid"
)

var authSchemes = []string{
	SchemeAWS4HMACSHA256,
	SchemeBasic,
	SchemeBearer,
	SchemeDigest,
	SchemeHOBA,
	SchemeMutual,
	SchemeOAuth,
	SchemeSCRAMSHA1,
	SchemeSCRAMSHA256,
	SchemeVAPID,
}

// ValidScheme reports whether scheme is a recognised authentication scheme.
func ValidScheme(scheme string) bool {
	return slices.Contains(authSchemes, scheme)
}

// Authorization is a parsed Authorization request header.
type Authorization struct {
	Scheme      string
	Credentials string
}

func (a Authorization) String() string {
	if a.Credentials == "" {
		return a.Scheme
	}

	return a.Scheme + " " + a.Credentials
}

// BasicCredentials decodes Basic credentials (RFC 7617).
func (a Authorization) BasicCredentials() (username, password string, ok bool) {
	if a.Scheme != SchemeBasic {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(a.Credentials)
	if err != nil {
		return "", "", false
	}

	return strings.Cut(string(decoded), ":")
}

// ParseAuthorization parses an Authorization header. The scheme is case
// sensitive and must be one of the recognised schemes.
func ParseAuthorization(input string) (*Authorization, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrMalformed
	}

	scheme, credentials, _ := strings.Cut(trimmed, " ")
	if !ValidScheme(scheme) {
		return nil, ErrMalformed
	}

	return &Authorization{Scheme: scheme, Credentials: strings.TrimSpace(credentials)}, nil
}
