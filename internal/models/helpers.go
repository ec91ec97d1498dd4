package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUserID() string    { return "usr_" + uuid.New().String() }
func GenerateAccountID() string { return "acct_" + uuid.New().String() }
func GenerateOrderID() string   { return "ord_" + uuid.New().String() }
func GenerateChatID() string    { return "chat_" + uuid.New().String() }
func GenerateTicketID() string  { return "tkt_" + uuid.New().String() }
func GenerateMessageID() string { return "msg_" + uuid.New().String() }

func GenerateWalletActionID() string {
	return fmt.Sprintf("wa_%s_%d", time.Now().Format("20060102"), uuid.New().ID())
}

// Slugify derives a URL slug from a listing title. A short uuid suffix
// keeps slugs unique across identical titles.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "listing"
	}
	return fmt.Sprintf("%s-%d", slug, uuid.New().ID()%100000)
}

func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func FormatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("Jan 2, 2006")
}

// NewSystemMessage builds a system-authored chat message narrating a
// state change.
func NewSystemMessage(content string) Message {
	return Message{
		ID:        GenerateMessageID(),
		SenderID:  "system",
		Content:   content,
		CreatedAt: time.Now().Unix(),
		IsSystem:  true,
	}
}
