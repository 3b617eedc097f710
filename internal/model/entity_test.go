package model

import (
	"testing"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaqEntry_KeywordList(t *testing.T) {
	f := FaqEntry{Keywords: "vpn; подключение;;ошибка ; "}
	assert.Equal(t, []string{"vpn", "подключение", "ошибка"}, f.KeywordList())

	empty := FaqEntry{}
	assert.Empty(t, empty.KeywordList())
}

func TestTicket_Answered(t *testing.T) {
	answer := "перезагрузите роутер"
	blank := ""

	assert.False(t, (&Ticket{Status: TicketStatusOpen}).Answered())
	assert.False(t, (&Ticket{Status: TicketStatusOpen, OperatorAnswer: &answer}).Answered())
	assert.False(t, (&Ticket{Status: TicketStatusClosed}).Answered())
	assert.False(t, (&Ticket{Status: TicketStatusClosed, OperatorAnswer: &blank}).Answered())
	assert.True(t, (&Ticket{Status: TicketStatusClosed, OperatorAnswer: &answer}).Answered())
}

func TestIsUnclassified(t *testing.T) {
	assert.True(t, IsUnclassified(CategoryOther))
	assert.True(t, IsUnclassified(CategoryUnknown))
	assert.True(t, IsUnclassified(""))
	assert.False(t, IsUnclassified("Доступ"))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleOperator.Valid())
	assert.False(t, Role("bot").Valid())
}

func TestParseStatusFilter(t *testing.T) {
	st, err := ParseStatusFilter("open")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusOpen, st)

	st, err = ParseStatusFilter("closed")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusClosed, st)

	st, err = ParseStatusFilter(StatusAll)
	require.NoError(t, err)
	assert.Empty(t, st)

	for _, v := range []string{"", "Open", "clsoed", "weird"} {
		_, err := ParseStatusFilter(v)
		assert.ErrorIs(t, err, errs.ErrInvalidStatus, v)
	}
}
