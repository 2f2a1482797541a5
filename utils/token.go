package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	config "github.com/anjiri1684/community_board/configs"
)

const tokenTTL = time.Hour

func tokenSecret() []byte {
	return []byte(config.Config("TOKEN_SECRET"))
}

// IssueToken returns a signed anti-forgery token valid for one hour.
// Format: <unix expiry>.<nonce>.<hmac-sha256 signature>.
func IssueToken() (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d.%s", time.Now().Add(tokenTTL).Unix(), hex.EncodeToString(nonce))
	return payload + "." + signToken(payload), nil
}

// VerifyToken checks the token's signature and expiry.
func VerifyToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(signToken(payload)), []byte(parts[2])) {
		return false
	}

	expiry, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	return time.Now().Unix() <= expiry
}

func signToken(payload string) string {
	mac := hmac.New(sha256.New, tokenSecret())
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
