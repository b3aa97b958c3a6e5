package heuristics

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindingIDFunc produces the identity of the finding for (ruleID, pageID).
type FindingIDFunc func(ruleID, pageID string) string

var findingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cro-audit:finding"))

// ContentFindingID derives a stable UUIDv5 from pageID and ruleID, so
// re-evaluating the same page yields the same finding identity.
func ContentFindingID(ruleID, pageID string) string {
	return uuid.NewSHA1(findingNamespace, []byte(pageID+"/"+ruleID)).String()
}

// TimestampFindingIDs returns the "{ruleId}-{pageId}-{unixMillis}" scheme.
// Identities change on every evaluation.
func TimestampFindingIDs(now func() time.Time) FindingIDFunc {
	if now == nil {
		now = time.Now
	}
	return func(ruleID, pageID string) string {
		return fmt.Sprintf("%s-%s-%d", ruleID, pageID, now().UnixMilli())
	}
}
