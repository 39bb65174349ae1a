package agent

import "strings"

const (
	msgPartial       = "✅ הפעולה בוצעה חלקית. אנא בדוק את התוצאות במערכת."
	msgIncomplete    = "❌ לא הצלחתי להשלים את הבקשה. אנא נסח מחדש או פרק לשלבים קטנים יותר."
	msgDone          = "✅ הפעולה הושלמה."
	msgNotUnderstood = "❌ לא הבנתי את הבקשה. אנא נסח מחדש."
)

// finalize never returns blank text. A capped turn reports partial progress
// or asks for a smaller request; an empty answer falls back the same way.
func finalize(t *turn) string {
	if strings.TrimSpace(t.text) != "" {
		return t.text
	}

	ranTools := len(t.toolsExecuted) > 0

	if t.state == stateAborted {
		if ranTools {
			return msgPartial
		}
		return msgIncomplete
	}

	if ranTools {
		return msgDone
	}
	return msgNotUnderstood
}
