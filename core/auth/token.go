package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/eduverse/core/user"
)

var (
	salt = []byte("eduverse.core.auth.token")

	// errors
	errInvalidToken = errors.New("invalid token")
)

var tsEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Signer issues and checks the tokens binding a stored session to this installation.
type Signer struct {
	key [32]byte
}

func NewSigner(secretKey string) *Signer {
	return &Signer{key: sha256.Sum256(append(append([]byte{}, salt...), secretKey...))}
}

// MakeToken generates a token for sess issued at t.
func (s *Signer) MakeToken(sess user.Session, t time.Time) string {
	return s.makeTokenWithTimestamp(sess, t.Unix())
}

// VerifyToken checks that token was issued by s for sess and returns its issue time.
func (s *Signer) VerifyToken(sess user.Session, token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return time.Time{}, errInvalidToken
	}
	data, err := tsEncoding.DecodeString(parts[0])
	if err != nil {
		return time.Time{}, errInvalidToken
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, errInvalidToken
	}

	// check that token has not been tampered with
	if subtle.ConstantTimeCompare([]byte(s.makeTokenWithTimestamp(sess, ts)), []byte(token)) == 0 {
		return time.Time{}, errInvalidToken
	}
	return time.Unix(ts, 0).UTC(), nil
}

func (s *Signer) makeTokenWithTimestamp(sess user.Session, ts int64) string {
	tsB32 := tsEncoding.EncodeToString([]byte(strconv.FormatInt(ts, 10)))
	return fmt.Sprintf("%s-%s", tsB32, s.sign(hashValue(sess, ts)))
}

func (s *Signer) sign(val []byte) string {
	h := hmac.New(sha256.New, s.key[:])
	h.Write(val) // never returns an error
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func hashValue(sess user.Session, ts int64) []byte {
	var val bytes.Buffer
	val.WriteString(sess.ID)
	val.WriteByte(0)
	val.WriteString(strings.ToLower(sess.Email))
	val.WriteByte(0)
	val.WriteString(sess.Role)
	val.WriteByte(0)
	val.WriteString(strconv.FormatInt(ts, 10))
	return val.Bytes()
}
