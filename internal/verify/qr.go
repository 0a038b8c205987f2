// Package verify renders the public verification code for a
// transmitted invoice from its acknowledgment triple.
package verify

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"
)

// lookupBaseURL is the authority's public verification page
const lookupBaseURL = "https://mydata.aade.gr/timologio/Search"

// BuildURL renders the fixed verification URL from the acknowledgment
// triple (mark, uid, authentication code).
func BuildURL(mark, uid, authCode string) string {
	q := url.Values{}
	q.Set("mark", mark)
	q.Set("uid", uid)
	q.Set("authcode", authCode)
	return fmt.Sprintf("%s?%s", lookupBaseURL, q.Encode())
}

// GenerateQR renders the verification URL as a scannable PNG. An
// encoding failure degrades to "no code available" (nil bytes) rather
// than aborting the surrounding transmission flow.
func GenerateQR(mark, uid, authCode string, log zerolog.Logger) []byte {
	png, err := qrcode.Encode(BuildURL(mark, uid, authCode), qrcode.Medium, 256)
	if err != nil {
		log.Warn().Err(err).Str("mark", mark).Msg("verification code rendering failed, continuing without")
		return nil
	}
	return png
}
