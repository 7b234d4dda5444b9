package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/testutil"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type PromptTemplateSuite struct {
	suite.Suite
	ctx     context.Context
	users   repos.UserRepo
	repo    repos.PromptTemplateRepo
	svc     PromptTemplateService
	alice   uuid.UUID
	bob     uuid.UUID
	builtin *types.PromptTemplate
}

func TestPromptTemplateSuite(t *testing.T) {
	suite.Run(t, new(PromptTemplateSuite))
}

func (s *PromptTemplateSuite) SetupTest() {
	s.ctx = context.Background()
	db := testutil.NewDB(s.T())
	log := logger.NewNop()
	s.users = repos.NewUserRepo(db, log)
	s.repo = repos.NewPromptTemplateRepo(db, log)
	s.svc = NewPromptTemplateService(db, log, s.repo)

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		u, err := s.users.Create(s.ctx, nil, &types.User{Name: "U", Email: email, Password: "hash"})
		s.Require().NoError(err)
		if s.alice == uuid.Nil {
			s.alice = u.ID
		} else {
			s.bob = u.ID
		}
	}
	b, err := s.repo.Create(s.ctx, nil, &types.PromptTemplate{Title: "Code Explainer", Prompt: "Explain:", Category: "coding", IsPublic: true})
	s.Require().NoError(err)
	s.builtin = b
}

func (s *PromptTemplateSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, s.alice, CreateTemplateInput{Title: " ", Prompt: "x"})
	s.Equal(errordata.KindValidation, errordata.KindOf(err))
	s.Equal("Title and prompt are required", errordata.PublicMessage(err))
}

func (s *PromptTemplateSuite) TestVisibility() {
	private, err := s.svc.Create(s.ctx, s.alice, CreateTemplateInput{Title: "Mine", Prompt: "p", Category: " Writing "})
	s.Require().NoError(err)
	s.Equal("writing", private.Category)
	s.Require().NotNil(private.UserID)
	s.Equal(s.alice, *private.UserID)

	shared, err := s.svc.Create(s.ctx, s.alice, CreateTemplateInput{Title: "Shared", Prompt: "p", IsPublic: true})
	s.Require().NoError(err)
	s.Equal("general", shared.Category)

	aliceList, err := s.svc.List(s.ctx, s.alice, "")
	s.Require().NoError(err)
	s.Len(aliceList, 3)

	bobList, err := s.svc.List(s.ctx, s.bob, "")
	s.Require().NoError(err)
	s.Len(bobList, 2)

	_, err = s.svc.Get(s.ctx, s.bob, private.ID)
	s.Equal(errordata.KindNotFound, errordata.KindOf(err))
	_, err = s.svc.Get(s.ctx, s.bob, shared.ID)
	s.NoError(err)

	coding, err := s.svc.List(s.ctx, s.bob, "coding")
	s.Require().NoError(err)
	s.Require().Len(coding, 1)
	s.Equal(s.builtin.ID, coding[0].ID)
}

func (s *PromptTemplateSuite) TestOnlyOwnerMutates() {
	tmpl, err := s.svc.Create(s.ctx, s.alice, CreateTemplateInput{Title: "Mine", Prompt: "p", IsPublic: true})
	s.Require().NoError(err)

	title := "Stolen"
	_, err = s.svc.Update(s.ctx, s.bob, tmpl.ID, UpdateTemplateInput{Title: &title})
	s.Equal(errordata.KindNotFound, errordata.KindOf(err))
	s.Equal(errordata.KindNotFound, errordata.KindOf(s.svc.Delete(s.ctx, s.bob, tmpl.ID)))
	s.Equal(errordata.KindNotFound, errordata.KindOf(s.svc.Delete(s.ctx, s.alice, s.builtin.ID)))

	_, err = s.svc.Update(s.ctx, s.alice, tmpl.ID, UpdateTemplateInput{})
	s.Equal(errordata.KindValidation, errordata.KindOf(err))

	title = "Renamed"
	private := false
	updated, err := s.svc.Update(s.ctx, s.alice, tmpl.ID, UpdateTemplateInput{Title: &title, IsPublic: &private})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Title)
	s.False(updated.IsPublic)

	s.Require().NoError(s.svc.Delete(s.ctx, s.alice, tmpl.ID))
	_, err = s.svc.Get(s.ctx, s.alice, tmpl.ID)
	s.Equal(errordata.KindNotFound, errordata.KindOf(err))
}

func (s *PromptTemplateSuite) TestUse() {
	n, err := s.svc.Use(s.ctx, s.bob, s.builtin.ID)
	s.Require().NoError(err)
	s.EqualValues(1, n)
	n, err = s.svc.Use(s.ctx, s.alice, s.builtin.ID)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	private, err := s.svc.Create(s.ctx, s.alice, CreateTemplateInput{Title: "Mine", Prompt: "p"})
	s.Require().NoError(err)
	_, err = s.svc.Use(s.ctx, s.bob, private.ID)
	s.Equal(errordata.KindNotFound, errordata.KindOf(err))
}
