package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"net/url"
	"slices"
	"strings"
)

var hmacEscaper = strings.NewReplacer("%", "%25", "&", "%26")

// VerifyOAuthHMAC checks the hmac parameter of an OAuth redirect: a hex
// HMAC-SHA256 over the remaining parameters, sorted by key and joined as
// k=v pairs with '&'.
func VerifyOAuthHMAC(values url.Values, apiSecret string) bool {
	given := values.Get("hmac")
	if given == "" || apiSecret == "" {
		return false
	}

	var msg strings.Builder
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if k == "hmac" || k == "signature" {
			continue
		}
		for _, v := range values[k] {
			if msg.Len() > 0 {
				msg.WriteByte('&')
			}
			msg.WriteString(hmacEscaper.Replace(k))
			msg.WriteByte('=')
			msg.WriteString(hmacEscaper.Replace(v))
		}
	}

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(msg.String()))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(given))
}
