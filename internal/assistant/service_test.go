package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimtong/fieldworks-backend/internal/assistant/intent"
	"github.com/pimtong/fieldworks-backend/internal/jobs"
	"github.com/pimtong/fieldworks-backend/internal/projects"
	"github.com/pimtong/fieldworks-backend/internal/users"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
	"github.com/pimtong/fieldworks-backend/pkg/redis"
)

type memFlowStore struct {
	data map[string]string
}

func newMemFlowStore() *memFlowStore {
	return &memFlowStore{data: make(map[string]string)}
}

func (s *memFlowStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.data[key] = value.(string)
	return nil
}

func (s *memFlowStore) Get(_ context.Context, key string) (string, error) {
	raw, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return raw, nil
}

func (s *memFlowStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *memFlowStore) LoginFlowKey(chatID string) string {
	return "fw:flow:" + chatID
}

type stubAssistantUsers struct {
	linked     map[string]*users.UserDTO
	linkCalls  []string
	linkResult *users.UserDTO
	linkErr    error
}

func (s *stubAssistantUsers) ResolveByTelegramID(_ context.Context, telegramID string) (*users.UserDTO, error) {
	if user, ok := s.linked[telegramID]; ok {
		return user, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account linked to this chat")
}

func (s *stubAssistantUsers) LinkTelegramID(_ context.Context, username, password, telegramID string) (*users.UserDTO, error) {
	s.linkCalls = append(s.linkCalls, username+"/"+password+"/"+telegramID)
	if s.linkErr != nil {
		return nil, s.linkErr
	}
	return s.linkResult, nil
}

type stubAssistantJobs struct {
	queryFilters *jobs.QueryFilters
	queryParams  *pagination.Params
	queryList    []jobs.JobDTO
	queryTotal   int64

	detailActor *jobs.Actor
	detailID    uint
	detail      *jobs.JobDetailDTO
	detailErr   error

	changeID    uint
	changeInput *jobs.ChangeStatusInput
	changeErr   error
}

func (s *stubAssistantJobs) Query(_ context.Context, _ jobs.Actor, filters jobs.QueryFilters, params pagination.Params) ([]jobs.JobDTO, pagination.Page, error) {
	s.queryFilters = &filters
	s.queryParams = &params
	return s.queryList, pagination.NewPage(params.Normalize(), s.queryTotal), nil
}

func (s *stubAssistantJobs) GetDetail(_ context.Context, actor jobs.Actor, id uint) (*jobs.JobDetailDTO, error) {
	s.detailActor = &actor
	s.detailID = id
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detail, nil
}

func (s *stubAssistantJobs) ChangeStatus(_ context.Context, _ jobs.Actor, id uint, input jobs.ChangeStatusInput) (*jobs.JobDetailDTO, error) {
	s.changeID = id
	s.changeInput = &input
	if s.changeErr != nil {
		return nil, s.changeErr
	}
	return s.detail, nil
}

type stubAssistantProjects struct {
	list    []projects.ProjectDTO
	err     error
	gotTerm string
}

func (s *stubAssistantProjects) SearchActive(_ context.Context, term string) ([]projects.ProjectDTO, error) {
	s.gotTerm = term
	return s.list, s.err
}

type stubResolver struct {
	gotMessage string
	gotRole    enums.UserRole
	result     *intent.Result
	err        error
}

func (s *stubResolver) Resolve(_ context.Context, message string, role enums.UserRole) (*intent.Result, error) {
	s.gotMessage = message
	s.gotRole = role
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type assistantFixture struct {
	svc      Service
	users    *stubAssistantUsers
	jobs     *stubAssistantJobs
	projects *stubAssistantProjects
	resolver *stubResolver
	store    *memFlowStore
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()

	f := &assistantFixture{
		users:    &stubAssistantUsers{linked: make(map[string]*users.UserDTO)},
		jobs:     &stubAssistantJobs{},
		projects: &stubAssistantProjects{},
		resolver: &stubResolver{result: &intent.Result{Kind: enums.IntentOtherChat}},
		store:    newMemFlowStore(),
	}

	cfg := config.AssistantConfig{
		LoginFlowTTL:   10 * time.Minute,
		WebPortalURL:   "https://portal.example.com",
		MaxJobsPerPage: 10,
	}

	logg := logger.New(logger.Options{ServiceName: "assistant-test"})
	svc, err := NewService(f.users, f.jobs, f.projects, f.resolver, f.store, cfg, logg, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func technicianDTO() *users.UserDTO {
	teamID := uint(3)
	return &users.UserDTO{
		ID:       7,
		Username: "msmith",
		FullName: "Mike Smith",
		Role:     enums.UserRoleTechnician,
		TeamID:   &teamID,
	}
}

func TestStartPromptsLoginWhenUnlinked(t *testing.T) {
	f := newAssistantFixture(t)

	replies, err := f.svc.HandleMessage(context.Background(), 100, "/start")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "username")
	assert.True(t, replies[0].RemoveKeyboard)

	state, loadErr := f.store.Get(context.Background(), f.store.LoginFlowKey("100"))
	require.NoError(t, loadErr)
	assert.Contains(t, state, stepAwaitingUsername)
}

func TestStartGreetsLinkedUser(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()

	replies, err := f.svc.HandleMessage(context.Background(), 100, "/start")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "Mike Smith")

	// No login flow should be pending for an already linked chat.
	_, loadErr := f.store.Get(context.Background(), f.store.LoginFlowKey("100"))
	assert.ErrorIs(t, loadErr, redis.Nil)
}

func TestLoginFlowLinksAccount(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linkResult = technicianDTO()

	_, err := f.svc.HandleMessage(context.Background(), 100, "/start")
	require.NoError(t, err)

	replies, err := f.svc.HandleMessage(context.Background(), 100, "msmith")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "password")

	replies, err = f.svc.HandleMessage(context.Background(), 100, "hunter22secret")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Mike Smith")

	require.Len(t, f.users.linkCalls, 1)
	assert.Equal(t, "msmith/hunter22secret/100", f.users.linkCalls[0])

	_, loadErr := f.store.Get(context.Background(), f.store.LoginFlowKey("100"))
	assert.ErrorIs(t, loadErr, redis.Nil)
}

func TestLoginFlowRestartsOnBadCredentials(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linkErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

	_, err := f.svc.HandleMessage(context.Background(), 100, "/start")
	require.NoError(t, err)
	_, err = f.svc.HandleMessage(context.Background(), 100, "msmith")
	require.NoError(t, err)

	replies, err := f.svc.HandleMessage(context.Background(), 100, "wrongpass")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "did not match")
	assert.Contains(t, replies[1].Text, "username")

	// The flow loops back to asking for a username.
	state, loadErr := f.store.Get(context.Background(), f.store.LoginFlowKey("100"))
	require.NoError(t, loadErr)
	assert.Contains(t, state, stepAwaitingUsername)
}

func TestLoginFlowCancels(t *testing.T) {
	f := newAssistantFixture(t)

	_, err := f.svc.HandleMessage(context.Background(), 100, "/start")
	require.NoError(t, err)

	replies, err := f.svc.HandleMessage(context.Background(), 100, "/cancel")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "cancelled")

	_, loadErr := f.store.Get(context.Background(), f.store.LoginFlowKey("100"))
	assert.ErrorIs(t, loadErr, redis.Nil)
}

func TestUnlinkedMessageStartsLogin(t *testing.T) {
	f := newAssistantFixture(t)

	replies, err := f.svc.HandleMessage(context.Background(), 100, "show my jobs")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "username")
}

func TestQueryJobsAppliesWindowAndBucket(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{
		Kind:   enums.IntentQueryJobs,
		Params: map[string]string{"date": "today", "status": "active"},
	}
	f.jobs.queryList = []jobs.JobDTO{{ID: 12, Title: "AC repair", Status: enums.JobStatusAssigned}}
	f.jobs.queryTotal = 1

	replies, err := f.svc.HandleMessage(context.Background(), 100, "what do I have today?")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "AC repair")

	require.NotNil(t, f.jobs.queryFilters)
	require.NotNil(t, f.jobs.queryFilters.Window.On)
	assert.ElementsMatch(t, enums.StatusBucketActive.Statuses(), f.jobs.queryFilters.Statuses)
	assert.Equal(t, 10, f.jobs.queryParams.Limit)
	assert.Equal(t, "what do I have today?", f.resolver.gotMessage)
	assert.Equal(t, enums.UserRoleTechnician, f.resolver.gotRole)
}

func TestJobDetailsHidesOutOfScopeJobs(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{
		Kind:   enums.IntentGetJobDetails,
		Params: map[string]string{"job_id": "44"},
	}
	f.jobs.detailErr = pkgerrors.New(pkgerrors.CodeForbidden, "job is not assigned to you")

	replies, err := f.svc.HandleMessage(context.Background(), 100, "show job 44")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "couldn't find")
	assert.Equal(t, uint(44), f.jobs.detailID)
}

func TestJobDetailsAsksForIDWhenMissing(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{Kind: enums.IntentGetJobDetails}

	replies, err := f.svc.HandleMessage(context.Background(), 100, "show me the job")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "job number")
	assert.Zero(t, f.jobs.detailID)
}

func TestUpdateJobRecordsHistoryAndNote(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{
		Kind:   enums.IntentUpdateJob,
		Params: map[string]string{"job_id": "#12", "status": "completed", "note": "replaced the compressor"},
	}
	f.jobs.detail = &jobs.JobDetailDTO{JobDTO: jobs.JobDTO{ID: 12, Title: "AC repair", Status: enums.JobStatusCompleted}}

	replies, err := f.svc.HandleMessage(context.Background(), 100, "finished job 12, replaced the compressor")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "completed")

	require.NotNil(t, f.jobs.changeInput)
	assert.Equal(t, uint(12), f.jobs.changeID)
	assert.Equal(t, enums.JobStatusCompleted, f.jobs.changeInput.Status)
	assert.True(t, f.jobs.changeInput.RecordHistory)
	require.NotNil(t, f.jobs.changeInput.Note)
	assert.Equal(t, "replaced the compressor", *f.jobs.changeInput.Note)
}

func TestUpdateJobSurfacesConflictMessage(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{
		Kind:   enums.IntentUpdateJob,
		Params: map[string]string{"job_id": "12", "status": "completed"},
	}
	f.jobs.changeErr = pkgerrors.New(pkgerrors.CodeConflict, "job is already completed")

	replies, err := f.svc.HandleMessage(context.Background(), 100, "complete job 12")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "job is already completed")
}

func TestQueryJobsPassesTextFilters(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{
		Kind:   enums.IntentQueryJobs,
		Params: map[string]string{"customer_name": "somsri", "keyword": "aircon", "technician_name": "somchai"},
	}

	_, err := f.svc.HandleMessage(context.Background(), 100, "aircon jobs for somsri")
	require.NoError(t, err)

	require.NotNil(t, f.jobs.queryFilters)
	assert.Equal(t, "somsri", f.jobs.queryFilters.CustomerName)
	assert.Equal(t, "aircon", f.jobs.queryFilters.Keyword)
	assert.Equal(t, "somchai", f.jobs.queryFilters.TechnicianName)
}

func TestQueryProjectsListsMatches(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{Kind: enums.IntentQueryProjects}
	f.projects.list = []projects.ProjectDTO{
		{ID: 1, Name: "Mall fit-out", JobCount: 4, CompletionPercentage: 25},
		{ID: 2, Name: "Condo retrofit", JobCount: 2, CompletionPercentage: 50},
	}

	replies, err := f.svc.HandleMessage(context.Background(), 100, "which projects are active?")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Mall fit-out")
	assert.Contains(t, replies[0].Text, "Condo retrofit")
	assert.Empty(t, f.projects.gotTerm)
}

func TestQueryProjectsSingleMatchExpands(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{
		Kind:   enums.IntentQueryProjects,
		Params: map[string]string{"name": "mall"},
	}
	f.projects.list = []projects.ProjectDTO{
		{ID: 1, Name: "Mall fit-out", JobCount: 4, CompletedJobCount: 1, CompletionPercentage: 25},
	}
	f.jobs.queryList = []jobs.JobDTO{{ID: 7, Title: "Install ducts", Status: enums.JobStatusInProgress}}
	f.jobs.queryTotal = 1

	replies, err := f.svc.HandleMessage(context.Background(), 100, "how is the mall project going?")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Mall fit-out")
	assert.Contains(t, replies[0].Text, "25%")
	assert.Contains(t, replies[0].Text, "Install ducts")
	assert.Equal(t, "mall", f.projects.gotTerm)
	require.NotNil(t, f.jobs.queryFilters.ProjectID)
	assert.EqualValues(t, 1, *f.jobs.queryFilters.ProjectID)
}

func TestPasswordIntentPointsAtPortal(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.result = &intent.Result{Kind: enums.IntentProfilePassword}

	replies, err := f.svc.HandleMessage(context.Background(), 100, "change my password")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "https://portal.example.com")
}

func TestResolverRateLimitGetsFriendlyReply(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()
	f.resolver.err = pkgerrors.New(pkgerrors.CodeRateLimit, "generate request throttled")

	replies, err := f.svc.HandleMessage(context.Background(), 100, "what now?")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, strings.ToLower(replies[0].Text), "try again")
}

func TestChitchatGetsHelp(t *testing.T) {
	f := newAssistantFixture(t)
	f.users.linked["100"] = technicianDTO()

	replies, err := f.svc.HandleMessage(context.Background(), 100, "good morning!")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "show job 12")
}
