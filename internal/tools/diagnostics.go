package tools

import (
	"errors"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
)

const (
	msgTransactionNeedsOffice = "❌ לא ניתן ליצור עסקה ללא משרד תואם. אנא ציין את מספר הקומה ומספר המשרד."
	msgOfficeNotFound         = "❗ לא נמצא משרד תואם.\nהנה רשימת משרדים בקומה %s:\n"
	msgPickOffice             = "אנא בחר אחד מהם."
	msgNoOfficesOnFloor       = "❗ לא נמצאו משרדים כלל בקומה %s בפרויקט זה."

	errorPrefix = "שגיאה: "

	hintUnknownField = errorPrefix + "השדה שצוינו לא קיים בטבלה. אנא בדוק שמות שדות עם get_table_fields."
	hintChoice       = errorPrefix + "הערך שצוינו לא קיים ברשימת האפשרויות. חובה לבדוק הערכים הזמינים עם get_table_fields לפני עדכון."
	hintInvalidData  = errorPrefix + "נתונים לא תקינים או שדה לא קיים. אנא בדוק עם get_table_fields."
	hintNotFound     = errorPrefix + "הרשומה לא נמצאה. אנא ודא את מזהה הרשומה עם search_airtable."
	hintBadTable     = errorPrefix + "הטבלה שצוינה לא מוכרת. השתמש במזהה טבלה או בשם טבלה מוכר."
)

// Diagnose turns a tool failure into the text handed back to the model, with
// a hint for the backend rejections the model can fix itself.
func Diagnose(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, "Unknown field name") || strings.Contains(msg, "UNKNOWN_FIELD_NAME"):
		return hintUnknownField
	case strings.Contains(msg, "INVALID_MULTIPLE_CHOICE_OPTIONS"):
		return hintChoice
	case strings.Contains(msg, "status code 422") || strings.Contains(msg, "INVALID_REQUEST_BODY"):
		return hintInvalidData
	case errors.Is(err, datastore.ErrInvalidRecordID) ||
		strings.Contains(msg, "ROW_DOES_NOT_EXIST") || strings.Contains(msg, "NOT_FOUND"):
		return hintNotFound
	case errors.Is(err, datastore.ErrInvalidTable):
		return hintBadTable
	default:
		return errorPrefix + msg
	}
}
