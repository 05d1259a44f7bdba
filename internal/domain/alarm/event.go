package alarm

import "fmt"

// NicknamePrefix is prepended to the configured device nickname in messages.
const NicknamePrefix = "MicroGoose "

// Event is a correlated alarm observation. It lives for one cycle only.
type Event struct {
	// Fingerprint identifies the alarm rule.
	Fingerprint string
	// Nickname is the display name of the polled host, e.g. "MicroGoose lab".
	Nickname string
	// Tripped is true while the rule is violated.
	Tripped bool
	// StatusLine describes the limit and the current reading.
	StatusLine string
}

// Nickname renders the display name for a configured device nickname.
func Nickname(configured string) string {
	return NicknamePrefix + configured
}

// StatusLine renders "<limitType> <niceName>: <value> / <limit>".
func StatusLine(d *Descriptor, f Field) string {
	return fmt.Sprintf("%s %s: %s / %s", d.LimitType, f.NiceName, f.Value, d.Limit)
}

// AlertMessage is sent when a rule becomes tripped.
func AlertMessage(e Event) string {
	return "⚠️ALERT⚠️" + e.Nickname + " TRIPPED " + e.StatusLine
}

// ClearMessage is sent when a tripped rule returns to normal.
func ClearMessage(e Event) string {
	return "✅CLEAR✅" + e.Nickname + " UNTRIPPED " + e.StatusLine
}
