// Package webhookauth checks HMAC-SHA256 signatures on webhook deliveries.
// The signed message is "<unix timestamp>.<raw body>", hex encoded.
package webhookauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	TimestampHeader = "X-Webhook-Timestamp"
	SignatureHeader = "X-Webhook-Signature"
)

var (
	ErrMissingSignature       = errors.New("missing signature headers")
	ErrInvalidTimestamp       = errors.New("invalid timestamp")
	ErrTimestampOutsideWindow = errors.New("timestamp outside allowed window")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// Window bounds clock skew in both directions and limits replays.
const Window = 5 * time.Minute

type Input struct {
	Secret    string
	Timestamp string
	Signature string
	Body      []byte
	Now       time.Time
}

func Verify(in Input) error {
	ts := strings.TrimSpace(in.Timestamp)
	sig := strings.TrimSpace(in.Signature)
	if ts == "" || sig == "" {
		return ErrMissingSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	sent := time.Unix(unix, 0).UTC()
	now := in.Now.UTC()
	if sent.Before(now.Add(-Window)) || sent.After(now.Add(Window)) {
		return ErrTimestampOutsideWindow
	}

	provided, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(provided, sign(in.Secret, ts, in.Body)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignHex returns the signature header value for body sent at timestamp.
func SignHex(secret, timestamp string, body []byte) string {
	return hex.EncodeToString(sign(secret, timestamp, body))
}

func sign(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
