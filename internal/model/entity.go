package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/errs"
)

type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// StatusAll в фильтре списка тикетов означает любой статус.
const StatusAll = "all"

// ParseStatusFilter разбирает фильтр списка тикетов: open, closed или all.
// Для all возвращает пустой статус.
func ParseStatusFilter(v string) (TicketStatus, error) {
	switch v {
	case StatusAll:
		return "", nil
	case string(TicketStatusOpen), string(TicketStatusClosed):
		return TicketStatus(v), nil
	}
	return "", fmt.Errorf("%w: %q", errs.ErrInvalidStatus, v)
}

// Категории-заглушки: классификатор не смог отнести обращение ни к одной категории FAQ.
const (
	CategoryOther   = "Другое"
	CategoryUnknown = "Неизвестно"
)

func IsUnclassified(category string) bool {
	return category == "" || category == CategoryOther || category == CategoryUnknown
}

type FaqEntry struct {
	ID       uint64 `gorm:"primaryKey" json:"id"`
	Category string `gorm:"type:text;index" json:"category"`
	Question string `gorm:"type:text" json:"question"`
	Answer   string `gorm:"type:text" json:"answer"`
	// Keywords хранятся одной строкой через ";".
	Keywords string `gorm:"type:text" json:"keywords"`
}

func (FaqEntry) TableName() string { return "faq" }

// KeywordList возвращает ключевые слова в порядке хранения, без пустых элементов.
func (f *FaqEntry) KeywordList() []string {
	var out []string
	for _, kw := range strings.Split(f.Keywords, ";") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, ";")
}

type Ticket struct {
	ID             uint64       `gorm:"primaryKey" json:"id"`
	UserMsg        string       `gorm:"type:text;not null" json:"user_msg"`
	Category       string       `gorm:"type:text" json:"category"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	Status         TicketStatus `gorm:"type:varchar(32);index;not null;default:open" json:"status"`
	OperatorAnswer *string      `gorm:"type:text" json:"operator_answer"`
}

func (Ticket) TableName() string { return "tickets" }

// Answered: тикет закрыт и оператор оставил непустой ответ.
func (t *Ticket) Answered() bool {
	return t.Status == TicketStatusClosed && t.OperatorAnswer != nil && *t.OperatorAnswer != ""
}

type Role string

const (
	RoleUser     Role = "user"
	RoleSupport  Role = "support"
	RoleOperator Role = "operator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSupport, RoleOperator:
		return true
	}
	return false
}

type TranscriptEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	Time string `json:"time"`
}
