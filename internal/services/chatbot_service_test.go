package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

func TestChatbotService_Replies(t *testing.T) {
	env := newTestEnv(t)
	chat := env.sm.Chatbot()
	student := env.createUser(t, models.RoleStudent)

	_, err := chat.Send(env.ctx, &ChatSendRequest{Message: "   "}, student.ID)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	reply, err := chat.Send(env.ctx, &ChatSendRequest{Message: "How do I join a COURSE?"}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SenderUser, reply.UserMessage.Sender)
	assert.Equal(t, models.SenderBot, reply.BotMessage.Sender)
	assert.Contains(t, reply.BotMessage.Message, "Course section")
	assert.Equal(t, 0, env.provider.CallCount())

	env.provider.AddResponse(llm.MockText("  Try spaced repetition.  "))
	reply, err = chat.Send(env.ctx, &ChatSendRequest{Message: "Tips for memorizing vocabulary?"}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Try spaced repetition.", reply.BotMessage.Message)
	req, ok := env.provider.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Tips for memorizing vocabulary?", req.Messages[0].Content)
	assert.NotEmpty(t, req.System)

	reply, err = chat.Send(env.ctx, &ChatSendRequest{Message: "What is the meaning of life?"}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, chatFallbackReply, reply.BotMessage.Message)

	history, err := chat.History(env.ctx, student.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 6)
	assert.Equal(t, "How do I join a COURSE?", history[0].Message)
	assert.Equal(t, chatFallbackReply, history[5].Message)

	recent, err := chat.History(env.ctx, student.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "What is the meaning of life?", recent[0].Message)

	other := env.createUser(t, models.RoleStudent)
	empty, err := chat.History(env.ctx, other.ID, 500)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChatbotService_NoProvider(t *testing.T) {
	env := newTestEnv(t)
	chat := NewChatbotService(env.repo, env.db, env.logger, env.validator, nil)
	student := env.createUser(t, models.RoleStudent)

	reply, err := chat.Send(env.ctx, &ChatSendRequest{Message: "Tell me a joke"}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, chatFallbackReply, reply.BotMessage.Message)
}

func TestChatbotService_Reminders(t *testing.T) {
	env := newTestEnv(t)
	chat := env.sm.Chatbot()
	student := env.createUser(t, models.RoleStudent)
	other := env.createUser(t, models.RoleStudent)

	future := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	offset := future.In(time.FixedZone("IST", 5*3600+1800))

	r1, err := chat.CreateReminder(env.ctx, &CreateReminderRequest{
		Title:        " Review chapter 3 ",
		ReminderTime: offset.Format(time.RFC3339),
	}, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Review chapter 3", r1.Title)
	assert.True(t, r1.ReminderTime.Equal(future))

	r2, err := chat.CreateReminder(env.ctx, &CreateReminderRequest{
		Title:        "Practice quiz",
		ReminderTime: future.Add(time.Hour).Format("2006-01-02T15:04:05"),
	}, student.ID)
	require.NoError(t, err)
	assert.True(t, r2.ReminderTime.Equal(future.Add(time.Hour)))

	_, err = chat.CreateReminder(env.ctx, &CreateReminderRequest{
		Title:        "Past",
		ReminderTime: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	}, student.ID)
	require.NoError(t, err)

	_, err = chat.CreateReminder(env.ctx, &CreateReminderRequest{Title: "Bad", ReminderTime: "next tuesday"}, student.ID)
	assert.ErrorIs(t, err, ErrInvalidReminderTime)
	_, err = chat.CreateReminder(env.ctx, &CreateReminderRequest{Title: "  ", ReminderTime: future.Format(time.RFC3339)}, student.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)

	upcoming, err := chat.ListReminders(env.ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, r1.ID, upcoming[0].ID)
	assert.Equal(t, r2.ID, upcoming[1].ID)

	assert.ErrorIs(t, chat.DeleteReminder(env.ctx, r1.ID, other.ID), ErrReminderNotFound)
	require.NoError(t, chat.DeleteReminder(env.ctx, r1.ID, student.ID))
	assert.ErrorIs(t, chat.DeleteReminder(env.ctx, r1.ID, student.ID), ErrReminderNotFound)

	upcoming, err = chat.ListReminders(env.ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)
}

func TestChatbotService_FAQs(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnvWithCache(t, client)
	chat := env.sm.Chatbot()
	admin := env.createUser(t, models.RoleAdmin)
	teacher := env.createUser(t, models.RoleTeacher)

	_, err := chat.CreateFAQ(env.ctx, &FAQRequest{Question: "Q?", Answer: "A."}, teacher.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	faq, err := chat.CreateFAQ(env.ctx, &FAQRequest{Question: " How do I reset my password? ", Answer: "Use the login page.", Category: "account"}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "How do I reset my password?", faq.Question)
	assert.True(t, faq.IsActive)

	hidden, err := chat.CreateFAQ(env.ctx, &FAQRequest{Question: "Draft?", Answer: "Later.", IsActive: ptr(false)}, admin.ID)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)
	var stored models.FAQ
	require.NoError(t, env.db.First(&stored, hidden.ID).Error)
	assert.False(t, stored.IsActive)

	list, err := chat.ListFAQs(env.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, mr.Keys(), "list should be cached")

	updated, err := chat.UpdateFAQ(env.ctx, faq.ID, &FAQRequest{Answer: "Use the forgot password link."}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "How do I reset my password?", updated.Question)
	assert.Empty(t, updated.Category)

	list, err = chat.ListFAQs(env.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Use the forgot password link.", list[0].Answer)

	_, err = chat.UpdateFAQ(env.ctx, 9999, &FAQRequest{Answer: "x"}, admin.ID)
	assert.ErrorIs(t, err, ErrFAQNotFound)

	require.NoError(t, chat.DeleteFAQ(env.ctx, faq.ID, admin.ID))
	assert.ErrorIs(t, chat.DeleteFAQ(env.ctx, faq.ID, admin.ID), ErrFAQNotFound)
	assert.ErrorIs(t, chat.DeleteFAQ(env.ctx, hidden.ID, teacher.ID), ErrForbidden)

	list, err = chat.ListFAQs(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
