package tokenizer

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
)

const (
	// DefaultNamespace identifies attendease tokens on the wire
	DefaultNamespace = "attendease"

	// DefaultValidityWindow is both the rotation period and the maximum token age
	DefaultValidityWindow = 60 * time.Second

	// DefaultClockSkew is how far in the future a token may be stamped
	DefaultClockSkew = 5 * time.Second

	signatureHexLen = sha256.Size * 2
	separator       = "-"
)

// DigestTokenizer implements the Tokenizer interface with SHA-256 digests
type DigestTokenizer struct {
	namespace string
	window    time.Duration
	skew      time.Duration
}

// Option configures a DigestTokenizer
type Option func(*DigestTokenizer)

// WithNamespace overrides the token namespace
func WithNamespace(ns string) Option {
	return func(t *DigestTokenizer) { t.namespace = ns }
}

// WithValidityWindow overrides the maximum token age
func WithValidityWindow(d time.Duration) Option {
	return func(t *DigestTokenizer) { t.window = d }
}

// WithClockSkew overrides the tolerated future skew
func WithClockSkew(d time.Duration) Option {
	return func(t *DigestTokenizer) { t.skew = d }
}

// NewDigestTokenizer creates a new digest tokenizer
func NewDigestTokenizer(opts ...Option) ports.Tokenizer {
	return New(opts...)
}

// New is NewDigestTokenizer returning the concrete type
func New(opts ...Option) *DigestTokenizer {
	t := &DigestTokenizer{
		namespace: DefaultNamespace,
		window:    DefaultValidityWindow,
		skew:      DefaultClockSkew,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Window returns the validity window
func (t *DigestTokenizer) Window() time.Duration { return t.window }

// Sign computes the lowercase hex SHA-256 of course-issuedAt-secret.
// The same inputs always produce the same signature.
func Sign(courseID string, issuedAtMillis int64, secret string) string {
	msg := courseID + separator + strconv.FormatInt(issuedAtMillis, 10) + separator + secret
	sum := sha256.Sum256([]byte(msg))
	return hex.EncodeToString(sum[:])
}

// Issue derives the token for a session context
func (t *DigestTokenizer) Issue(sc core.SessionContext) (core.Token, error) {
	switch {
	case sc.CourseID == "":
		return core.Token{}, fmt.Errorf("%w: empty course id", core.ErrInvalidInput)
	case strings.Contains(sc.CourseID, "/"):
		return core.Token{}, fmt.Errorf("%w: course id must not contain '/'", core.ErrInvalidInput)
	case sc.SharedSecret == "":
		return core.Token{}, fmt.Errorf("%w: empty shared secret", core.ErrInvalidInput)
	case sc.IssuedAtMillis < 0:
		return core.Token{}, fmt.Errorf("%w: negative issue time", core.ErrInvalidInput)
	}

	sig := Sign(sc.CourseID, sc.IssuedAtMillis, sc.SharedSecret)
	return core.Token{
		Raw:            t.format(sc.CourseID, sc.IssuedAtMillis, sig),
		CourseID:       sc.CourseID,
		IssuedAtMillis: sc.IssuedAtMillis,
		Signature:      sig,
	}, nil
}

func (t *DigestTokenizer) format(courseID string, issuedAtMillis int64, sig string) string {
	return t.namespace + "://" + courseID + "/" + strconv.FormatInt(issuedAtMillis, 10) + "/" + sig
}

// Parse splits a wire token into its fields without checking the signature
func (t *DigestTokenizer) Parse(raw string) (core.Token, error) {
	prefix := t.namespace + "://"
	rest, ok := strings.CutPrefix(raw, prefix)
	if !ok {
		return core.Token{}, fmt.Errorf("%w: unknown namespace", core.ErrMalformedToken)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return core.Token{}, fmt.Errorf("%w: expected 3 segments, got %d", core.ErrMalformedToken, len(parts))
	}
	courseID, ts, sig := parts[0], parts[1], parts[2]

	if courseID == "" {
		return core.Token{}, fmt.Errorf("%w: empty course id", core.ErrMalformedToken)
	}
	if !isDigits(ts) {
		return core.Token{}, fmt.Errorf("%w: non-numeric timestamp", core.ErrMalformedToken)
	}
	issuedAt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return core.Token{}, fmt.Errorf("%w: timestamp out of range", core.ErrMalformedToken)
	}
	if ts != strconv.FormatInt(issuedAt, 10) {
		return core.Token{}, fmt.Errorf("%w: non-canonical timestamp", core.ErrMalformedToken)
	}
	if len(sig) != signatureHexLen || !isLowerHex(sig) {
		return core.Token{}, fmt.Errorf("%w: bad signature encoding", core.ErrMalformedToken)
	}

	return core.Token{
		Raw:            raw,
		CourseID:       courseID,
		IssuedAtMillis: issuedAt,
		Signature:      sig,
	}, nil
}

// Redeem validates a scanned token. Checks run in order: structure, course,
// signature, freshness.
func (t *DigestTokenizer) Redeem(raw, expectedCourseID, secret string, nowMillis int64) (*core.Redemption, error) {
	tok, err := t.Parse(raw)
	if err != nil {
		return nil, err
	}

	if tok.CourseID != expectedCourseID {
		return nil, core.ErrCourseMismatch
	}

	expected := Sign(tok.CourseID, tok.IssuedAtMillis, secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(tok.Signature)) != 1 {
		return nil, core.ErrSignatureMismatch
	}

	age := nowMillis - tok.IssuedAtMillis
	if age > t.window.Milliseconds() {
		return nil, fmt.Errorf("%w: issued %dms ago", core.ErrExpired, age)
	}
	if -age > t.skew.Milliseconds() {
		return nil, fmt.Errorf("%w: issued %dms in the future", core.ErrExpired, -age)
	}

	return &core.Redemption{
		CourseID:         tok.CourseID,
		RedeemedAtMillis: nowMillis,
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
