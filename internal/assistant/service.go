// Package assistant dispatches conversational work-order commands arriving
// from the chat transport.
package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pimtong/fieldworks-backend/internal/assistant/intent"
	"github.com/pimtong/fieldworks-backend/internal/jobs"
	"github.com/pimtong/fieldworks-backend/internal/projects"
	"github.com/pimtong/fieldworks-backend/internal/users"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
	"github.com/pimtong/fieldworks-backend/pkg/metrics"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
	"github.com/pimtong/fieldworks-backend/pkg/timewindow"
)

type usersService interface {
	ResolveByTelegramID(ctx context.Context, telegramID string) (*users.UserDTO, error)
	LinkTelegramID(ctx context.Context, username, password, telegramID string) (*users.UserDTO, error)
}

type jobsService interface {
	Query(ctx context.Context, actor jobs.Actor, filters jobs.QueryFilters, params pagination.Params) ([]jobs.JobDTO, pagination.Page, error)
	GetDetail(ctx context.Context, actor jobs.Actor, id uint) (*jobs.JobDetailDTO, error)
	ChangeStatus(ctx context.Context, actor jobs.Actor, id uint, input jobs.ChangeStatusInput) (*jobs.JobDetailDTO, error)
}

type projectsService interface {
	SearchActive(ctx context.Context, term string) ([]projects.ProjectDTO, error)
}

type intentResolver interface {
	Resolve(ctx context.Context, message string, role enums.UserRole) (*intent.Result, error)
}

// Service handles one inbound chat message at a time.
type Service interface {
	HandleMessage(ctx context.Context, chatID int64, text string) ([]Reply, error)
}

type service struct {
	users    usersService
	jobs     jobsService
	projects projectsService
	resolver intentResolver
	flow     *loginFlow
	cfg      config.AssistantConfig
	logg     *logger.Logger
	metrics  *metrics.AssistantMetrics
	now      func() time.Time
}

// NewService wires the assistant dispatcher. Metrics may be nil.
func NewService(
	usersSvc usersService,
	jobsSvc jobsService,
	projectsSvc projectsService,
	resolver intentResolver,
	store flowStore,
	cfg config.AssistantConfig,
	logg *logger.Logger,
	m *metrics.AssistantMetrics,
) (Service, error) {
	if usersSvc == nil {
		return nil, fmt.Errorf("users service required")
	}
	if jobsSvc == nil {
		return nil, fmt.Errorf("jobs service required")
	}
	if projectsSvc == nil {
		return nil, fmt.Errorf("projects service required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("intent resolver required")
	}
	if store == nil {
		return nil, fmt.Errorf("flow store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:    usersSvc,
		jobs:     jobsSvc,
		projects: projectsSvc,
		resolver: resolver,
		flow:     newLoginFlow(store, cfg.LoginFlowTTL),
		cfg:      cfg,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}, nil
}

func (s *service) HandleMessage(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	chat := strconv.FormatInt(chatID, 10)
	ctx = s.logg.WithChatID(ctx, chat)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if text == "/start" {
		return s.handleStart(ctx, chat)
	}

	state, err := s.flow.Load(ctx, chat)
	if err != nil {
		s.logg.Error(ctx, "load login flow state", err)
		return []Reply{failureReply()}, nil
	}
	if state != nil {
		return s.continueLogin(ctx, chat, *state, text)
	}

	user, err := s.users.ResolveByTelegramID(ctx, chat)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return s.startLogin(ctx, chat)
		}
		s.logg.Error(ctx, "resolve chat identity", err)
		return []Reply{failureReply()}, nil
	}

	ctx = s.logg.WithUserID(ctx, strconv.FormatUint(uint64(user.ID), 10))
	ctx = s.logg.WithActorRole(ctx, user.Role.String())

	if text == "/help" {
		return []Reply{helpReply()}, nil
	}

	result, err := s.resolver.Resolve(ctx, text, user.Role)
	if err != nil {
		s.logg.Error(ctx, "resolve intent", err)
		if pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
			return []Reply{rateLimitedReply()}, nil
		}
		return []Reply{failureReply()}, nil
	}

	return s.dispatch(ctx, user, result)
}

func (s *service) handleStart(ctx context.Context, chat string) ([]Reply, error) {
	if err := s.flow.Clear(ctx, chat); err != nil {
		s.logg.Error(ctx, "clear login flow state", err)
	}

	user, err := s.users.ResolveByTelegramID(ctx, chat)
	if err == nil {
		return []Reply{
			{Text: fmt.Sprintf("Welcome back, *%s*.", escapeMarkdown(user.FullName)), RemoveKeyboard: true},
			helpReply(),
		}, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		s.logg.Error(ctx, "resolve chat identity", err)
		return []Reply{failureReply()}, nil
	}
	return s.startLogin(ctx, chat)
}

func (s *service) startLogin(ctx context.Context, chat string) ([]Reply, error) {
	if err := s.flow.Save(ctx, chat, loginState{Step: stepAwaitingUsername}); err != nil {
		s.logg.Error(ctx, "save login flow state", err)
		return []Reply{failureReply()}, nil
	}
	return []Reply{welcomeReply()}, nil
}

func (s *service) continueLogin(ctx context.Context, chat string, state loginState, text string) ([]Reply, error) {
	if text == "/cancel" {
		if err := s.flow.Clear(ctx, chat); err != nil {
			s.logg.Error(ctx, "clear login flow state", err)
		}
		return []Reply{loginCancelledReply()}, nil
	}

	switch state.Step {
	case stepAwaitingUsername:
		if err := s.flow.Save(ctx, chat, loginState{Step: stepAwaitingPassword, Username: text}); err != nil {
			s.logg.Error(ctx, "save login flow state", err)
			return []Reply{failureReply()}, nil
		}
		return []Reply{passwordPrompt()}, nil

	case stepAwaitingPassword:
		user, err := s.users.LinkTelegramID(ctx, state.Username, text, chat)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				if saveErr := s.flow.Save(ctx, chat, loginState{Step: stepAwaitingUsername}); saveErr != nil {
					s.logg.Error(ctx, "save login flow state", saveErr)
				}
				return []Reply{loginFailedReply(), usernamePrompt()}, nil
			}
			s.logg.Error(ctx, "link chat identity", err)
			return []Reply{failureReply()}, nil
		}

		if err := s.flow.Clear(ctx, chat); err != nil {
			s.logg.Error(ctx, "clear login flow state", err)
		}
		s.logg.Info(ctx, "chat linked to account")
		return []Reply{loginSuccessReply(user.FullName)}, nil

	default:
		// Unknown step, restart the flow.
		return s.startLogin(ctx, chat)
	}
}

func (s *service) dispatch(ctx context.Context, user *users.UserDTO, result *intent.Result) ([]Reply, error) {
	s.metrics.IncDispatched(strings.ToLower(result.Kind.String()))

	actor := jobs.Actor{ID: user.ID, Role: user.Role, TeamID: user.TeamID}

	var (
		replies []Reply
		err     error
	)
	switch result.Kind {
	case enums.IntentQueryJobs:
		replies, err = s.queryJobs(ctx, actor, result)
	case enums.IntentGetJobDetails:
		replies, err = s.jobDetails(ctx, actor, result)
	case enums.IntentUpdateJob:
		replies, err = s.updateJob(ctx, actor, result)
	case enums.IntentQueryProjects:
		replies, err = s.queryProjects(ctx, actor, result)
	case enums.IntentProfilePassword:
		replies = []Reply{passwordPortalReply(s.cfg.WebPortalURL)}
	default:
		if reply := strings.TrimSpace(result.Param("reply")); reply != "" {
			replies = []Reply{{Text: reply}}
		} else {
			replies = []Reply{helpReply()}
		}
	}

	if err != nil {
		s.metrics.IncDispatchError(strings.ToLower(result.Kind.String()))
		s.logg.Error(ctx, "dispatch intent", err)
		return []Reply{failureReply()}, nil
	}
	return replies, nil
}

func (s *service) queryJobs(ctx context.Context, actor jobs.Actor, result *intent.Result) ([]Reply, error) {
	filters := jobs.QueryFilters{
		Window:         timewindow.Resolve(result.Param("date"), result.Param("period"), s.now()),
		Statuses:       enums.StatusBucket(result.Param("status")).Statuses(),
		CustomerName:   result.Param("customer_name"),
		Keyword:        result.Param("keyword"),
		TechnicianName: result.Param("technician_name"),
	}

	list, page, err := s.jobs.Query(ctx, actor, filters, pagination.Params{Limit: s.cfg.MaxJobsPerPage})
	if err != nil {
		return nil, err
	}
	return []Reply{jobListReply(list, page.Total, s.cfg.MaxJobsPerPage)}, nil
}

func (s *service) jobDetails(ctx context.Context, actor jobs.Actor, result *intent.Result) ([]Reply, error) {
	id, ok := parseJobID(result.Param("job_id"))
	if !ok {
		return []Reply{{Text: "Which job number do you mean?"}}, nil
	}

	detail, err := s.jobs.GetDetail(ctx, actor, id)
	if err != nil {
		// The chat does not reveal whether an id exists outside the
		// caller's scope.
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			return []Reply{jobNotFoundReply()}, nil
		}
		return nil, err
	}
	return []Reply{jobDetailReply(detail)}, nil
}

func (s *service) updateJob(ctx context.Context, actor jobs.Actor, result *intent.Result) ([]Reply, error) {
	id, ok := parseJobID(result.Param("job_id"))
	if !ok {
		return []Reply{{Text: "Which job number do you mean?"}}, nil
	}

	status, err := enums.ParseJobStatus(result.Param("status"))
	if err != nil {
		return []Reply{{Text: "I can set a job to in_progress, completed, or cancelled."}}, nil
	}

	input := jobs.ChangeStatusInput{Status: status, RecordHistory: true}
	if note := strings.TrimSpace(result.Param("note")); note != "" {
		input.Note = &note
	}

	detail, err := s.jobs.ChangeStatus(ctx, actor, id, input)
	if err != nil {
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound), pkgerrors.IsCode(err, pkgerrors.CodeForbidden):
			return []Reply{jobNotFoundReply()}, nil
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			if coded := pkgerrors.As(err); coded != nil {
				return []Reply{jobUpdateFailedReply(coded.Message())}, nil
			}
			return []Reply{failureReply()}, nil
		default:
			return nil, err
		}
	}
	return []Reply{jobUpdatedReply(detail)}, nil
}

func (s *service) queryProjects(ctx context.Context, actor jobs.Actor, result *intent.Result) ([]Reply, error) {
	term := result.Param("name")
	if term == "" {
		term = result.Param("keyword")
	}
	if term == "" {
		term = result.Param("customer_name")
	}

	list, err := s.projects.SearchActive(ctx, term)
	if err != nil {
		return nil, err
	}

	// A search that pins down exactly one project gets the expanded view
	// with its job list.
	if term != "" && len(list) == 1 {
		project := list[0]
		projectJobs, _, err := s.jobs.Query(ctx, actor,
			jobs.QueryFilters{ProjectID: &project.ID},
			pagination.Params{Limit: s.cfg.MaxJobsPerPage})
		if err != nil {
			return nil, err
		}
		return []Reply{projectDetailReply(project, projectJobs)}, nil
	}

	return []Reply{projectListReply(list)}, nil
}

func parseJobID(raw string) (uint, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
