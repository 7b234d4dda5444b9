package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/testutil"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type RepoSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	users     UserRepo
	stats     UserStatsRepo
	chats     ChatRepo
	messages  MessageRepo
	templates PromptTemplateRepo
}

func TestRepoSuite(t *testing.T) {
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	log := logger.NewNop()
	s.users = NewUserRepo(s.db, log)
	s.stats = NewUserStatsRepo(s.db, log)
	s.chats = NewChatRepo(s.db, log)
	s.messages = NewMessageRepo(s.db, log)
	s.templates = NewPromptTemplateRepo(s.db, log)
}

func (s *RepoSuite) newUser(email string) *types.User {
	u, err := s.users.Create(s.ctx, nil, &types.User{Name: "Test", Email: email, Password: "hash"})
	s.Require().NoError(err)
	_, err = s.stats.Create(s.ctx, nil, &types.UserStats{UserID: u.ID})
	s.Require().NoError(err)
	return u
}

func (s *RepoSuite) newChat(userID uuid.UUID, title string) *types.Chat {
	c, err := s.chats.Create(s.ctx, nil, &types.Chat{UserID: userID, Title: title, Mode: types.ChatModeGeneral, Model: "m"})
	s.Require().NoError(err)
	return c
}

func (s *RepoSuite) appendMsg(chatID uuid.UUID, role types.MessageRole, content string) *types.Message {
	m, err := s.messages.Append(s.ctx, nil, &types.Message{ChatID: chatID, Role: role, Content: content})
	s.Require().NoError(err)
	return m
}

func (s *RepoSuite) TestUserLookups() {
	u := s.newUser("a@example.com")

	exists, err := s.users.EmailExists(s.ctx, nil, "a@example.com")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.users.EmailExists(s.ctx, nil, "nobody@example.com")
	s.Require().NoError(err)
	s.False(exists)

	withStats, err := s.users.GetByIDWithStats(s.ctx, nil, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(withStats.Stats)
	s.Equal(types.ChatModeGeneral, withStats.Stats.FavoriteMode)
	s.JSONEq(`{}`, string(withStats.Preferences))

	err = s.users.UpdateFields(s.ctx, nil, uuid.New(), map[string]interface{}{"name": "x"})
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepoSuite) TestAppendAssignsIncreasingSeq() {
	u := s.newUser("seq@example.com")
	c := s.newChat(u.ID, "t")

	first := s.appendMsg(c.ID, types.MessageRoleUser, "one")
	second := s.appendMsg(c.ID, types.MessageRoleAssistant, "two")
	s.Equal(int64(1), first.Seq)
	s.Equal(int64(2), second.Seq)

	other := s.newChat(u.ID, "other")
	s.Equal(int64(1), s.appendMsg(other.ID, types.MessageRoleUser, "x").Seq)
}

func (s *RepoSuite) TestAppendRejectsUnknownRole() {
	u := s.newUser("role@example.com")
	c := s.newChat(u.ID, "t")
	_, err := s.messages.Append(s.ctx, nil, &types.Message{ChatID: c.ID, Role: "tool", Content: "x"})
	s.Error(err)
}

func (s *RepoSuite) TestRecentReturnsLastNOldestFirst() {
	u := s.newUser("recent@example.com")
	c := s.newChat(u.ID, "t")
	for i := 1; i <= 25; i++ {
		s.appendMsg(c.ID, types.MessageRoleUser, fmt.Sprintf("m%d", i))
	}
	recent, err := s.messages.Recent(s.ctx, nil, c.ID, 20)
	s.Require().NoError(err)
	s.Require().Len(recent, 20)
	s.Equal("m6", recent[0].Content)
	s.Equal("m25", recent[19].Content)
	for i := 1; i < len(recent); i++ {
		s.Less(recent[i-1].Seq, recent[i].Seq)
	}
}

func (s *RepoSuite) TestGetOwnedHidesForeignChats() {
	alice := s.newUser("alice@example.com")
	bob := s.newUser("bob@example.com")
	c := s.newChat(alice.ID, "secret")

	_, err := s.chats.GetOwned(s.ctx, nil, c.ID, bob.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	got, err := s.chats.GetOwnedWithMessages(s.ctx, nil, c.ID, alice.ID)
	s.Require().NoError(err)
	s.Empty(got.Messages)
}

func (s *RepoSuite) TestListSummaries() {
	u := s.newUser("list@example.com")
	older := s.newChat(u.ID, "older")
	newer := s.newChat(u.ID, "newer")
	archived := s.newChat(u.ID, "archived")

	s.appendMsg(older.ID, types.MessageRoleUser, "first question")
	s.appendMsg(older.ID, types.MessageRoleAssistant, "answer")
	s.Require().NoError(s.chats.Touch(s.ctx, nil, older.ID, time.Now().Add(-time.Hour)))
	s.Require().NoError(s.chats.Touch(s.ctx, nil, newer.ID, time.Now()))
	s.Require().NoError(s.chats.UpdateFields(s.ctx, nil, archived.ID, u.ID, map[string]interface{}{"is_archived": true}))

	list, err := s.chats.ListSummaries(s.ctx, nil, u.ID, false, 50, 0)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.Equal(int64(0), list[0].MessageCount)
	s.Equal(older.ID, list[1].ID)
	s.Equal(int64(2), list[1].MessageCount)
	s.Equal("first question", list[1].FirstMessage)

	list, err = s.chats.ListSummaries(s.ctx, nil, u.ID, true, 50, 0)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(archived.ID, list[0].ID)

	list, err = s.chats.ListSummaries(s.ctx, nil, u.ID, false, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(older.ID, list[0].ID)
}

func (s *RepoSuite) TestSearchMatchesTitleOrContentOnce() {
	u := s.newUser("search@example.com")
	other := s.newUser("other@example.com")
	byTitle := s.newChat(u.ID, "Golang Tips")
	byContent := s.newChat(u.ID, "misc")
	s.appendMsg(byContent.ID, types.MessageRoleUser, "how do GOLANG channels work")
	s.appendMsg(byContent.ID, types.MessageRoleAssistant, "golang channels are typed pipes")
	s.newChat(u.ID, "unrelated")
	s.newChat(other.ID, "golang for bob")
	literal := s.newChat(u.ID, "100% done")

	found, err := s.chats.Search(s.ctx, nil, u.ID, "golang", 20)
	s.Require().NoError(err)
	ids := []uuid.UUID{}
	for _, c := range found {
		ids = append(ids, c.ID)
	}
	s.ElementsMatch([]uuid.UUID{byTitle.ID, byContent.ID}, ids)

	found, err = s.chats.Search(s.ctx, nil, u.ID, "%", 20)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(literal.ID, found[0].ID)
}

func (s *RepoSuite) TestDeleteCascadesMessages() {
	u := s.newUser("del@example.com")
	c := s.newChat(u.ID, "t")
	s.appendMsg(c.ID, types.MessageRoleUser, "bye")

	n, err := s.chats.DeleteOwned(s.ctx, nil, c.ID, u.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	count, err := s.messages.CountByChat(s.ctx, nil, c.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RepoSuite) TestChatCountClampsAtZero() {
	u := s.newUser("clamp@example.com")
	s.Require().NoError(s.stats.AdjustChatCount(s.ctx, nil, u.ID, 1))
	s.Require().NoError(s.stats.AdjustChatCount(s.ctx, nil, u.ID, -1))
	s.Require().NoError(s.stats.AdjustChatCount(s.ctx, nil, u.ID, -1))

	st, err := s.stats.GetByUserID(s.ctx, nil, u.ID)
	s.Require().NoError(err)
	s.Zero(st.TotalChats)
}

func (s *RepoSuite) TestRecordExchange() {
	u := s.newUser("stats@example.com")
	at := time.Now()
	s.Require().NoError(s.stats.RecordExchange(s.ctx, nil, u.ID, 2, 42, types.ChatModeCode, at))
	s.Require().NoError(s.stats.RecordExchange(s.ctx, nil, u.ID, 2, 8, types.ChatModeTutor, at))

	st, err := s.stats.GetByUserID(s.ctx, nil, u.ID)
	s.Require().NoError(err)
	s.Equal(int64(4), st.TotalMessages)
	s.Equal(int64(50), st.TotalTokens)
	s.Equal(types.ChatModeTutor, st.FavoriteMode)
}

func (s *RepoSuite) TestTemplateVisibilityAndUsage() {
	alice := s.newUser("t-alice@example.com")
	bob := s.newUser("t-bob@example.com")

	public, err := s.templates.Create(s.ctx, nil, &types.PromptTemplate{Title: "Public", Prompt: "p", IsPublic: true})
	s.Require().NoError(err)
	private, err := s.templates.Create(s.ctx, nil, &types.PromptTemplate{UserID: &alice.ID, Title: "Mine", Prompt: "p", Category: "code"})
	s.Require().NoError(err)
	s.Equal("general", public.Category)

	bobs, err := s.templates.ListVisible(s.ctx, nil, bob.ID, "")
	s.Require().NoError(err)
	s.Require().Len(bobs, 1)
	s.Equal(public.ID, bobs[0].ID)

	alices, err := s.templates.ListVisible(s.ctx, nil, alice.ID, "code")
	s.Require().NoError(err)
	s.Require().Len(alices, 1)
	s.Equal(private.ID, alices[0].ID)

	_, err = s.templates.GetVisible(s.ctx, nil, private.ID, bob.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	for want := int64(1); want <= 3; want++ {
		got, err := s.templates.IncrementUsage(s.ctx, nil, public.ID)
		s.Require().NoError(err)
		s.Equal(want, got)
	}

	ordered, err := s.templates.ListVisible(s.ctx, nil, alice.ID, "")
	s.Require().NoError(err)
	s.Require().Len(ordered, 2)
	s.Equal(public.ID, ordered[0].ID)

	n, err := s.templates.DeleteOwned(s.ctx, nil, private.ID, bob.ID)
	s.Require().NoError(err)
	s.Zero(n)
}
