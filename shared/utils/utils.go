package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, RandomString(10))
}

// RandomString returns n characters drawn from [a-zA-Z0-9].
func RandomString(n int) string {
	result := make([]byte, n)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(alphanumeric))))
		result[i] = alphanumeric[num.Int64()]
	}
	return string(result)
}

// RandomHex returns n random bytes, hex encoded.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// HashToken is used for refresh tokens and API keys, which are high-entropy
// and looked up by hash.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SignHMAC returns the hex HMAC-SHA256 of body keyed with secret.
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// NewAPIKey returns a raw key of the form sk_<prefix>_<secret> and its prefix.
func NewAPIKey() (raw, prefix string) {
	prefix = strings.ToLower(RandomString(8))
	return "sk_" + prefix + "_" + RandomString(32), prefix
}

// APIKeyPrefix extracts the prefix of a raw key, or "" when malformed.
func APIKeyPrefix(raw string) string {
	parts := strings.SplitN(raw, "_", 3)
	if len(parts) != 3 || parts[0] != "sk" || parts[1] == "" || parts[2] == "" {
		return ""
	}
	return parts[1]
}

// Slugify lowercases s and joins its alphanumeric runs with single dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ValidSlug reports whether s is already in Slugify form.
func ValidSlug(s string) bool {
	return s != "" && Slugify(s) == s
}
