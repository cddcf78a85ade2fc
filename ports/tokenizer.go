package ports

import "github.com/layer-3/attendease/core"

// Tokenizer issues and redeems attendance tokens
type Tokenizer interface {
	// Issue derives a signed token for the session context
	Issue(sc core.SessionContext) (core.Token, error)

	// Redeem validates a scanned token for the expected course at nowMillis
	Redeem(raw, expectedCourseID, secret string, nowMillis int64) (*core.Redemption, error)
}
