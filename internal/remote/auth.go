package remote

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// masterTokenPrefix is the fixed scheme/version tag for master-key auth.
const masterTokenPrefix = "type=master&ver=1.0&sig="

// decodeKey decodes the base64 master key into HMAC key material.
func decodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	return raw, nil
}

// stringToSign builds the canonical signing payload. Verb, resource type
// and date are lower-cased; the resource id is used verbatim. The date
// here MUST be the exact value sent in the x-ms-date header; any
// mismatch makes the service reject the signature.
func stringToSign(verb, resourceType, resourceID, date string) string {
	return strings.ToLower(verb) + "\n" +
		strings.ToLower(resourceType) + "\n" +
		resourceID + "\n" +
		strings.ToLower(date) + "\n" +
		"\n"
}

// signature computes the base64 HMAC-SHA256 signature over the canonical
// string for the given request parameters.
func signature(key []byte, verb, resourceType, resourceID, date string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign(verb, resourceType, resourceID, date)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// authHeader builds the URL-escaped authorization header value.
func authHeader(key []byte, verb, resourceType, resourceID, date string) string {
	sig := signature(key, verb, resourceType, resourceID, date)
	return url.QueryEscape(masterTokenPrefix + sig)
}
