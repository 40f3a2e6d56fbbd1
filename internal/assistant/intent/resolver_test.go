package intent

import (
	"context"
	"testing"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s stubGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func newTestResolver(t *testing.T, gen textGenerator) *Resolver {
	t.Helper()
	resolver, err := NewResolver(gen, nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return resolver
}

func TestResolveParsesIntentAndParams(t *testing.T) {
	resolver := newTestResolver(t, stubGenerator{
		reply: `{"intent":"query_jobs","params":{"date":"today","status":"active"}}`,
	})

	result, err := resolver.Resolve(context.Background(), "what do I have today", enums.UserRoleTechnician)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Kind != enums.IntentQueryJobs {
		t.Fatalf("unexpected intent %q", result.Kind)
	}
	if result.Param("date") != "today" || result.Param("status") != "active" {
		t.Fatalf("unexpected params %+v", result.Params)
	}
}

func TestResolveAcceptsParametersKeyAndNumbers(t *testing.T) {
	resolver := newTestResolver(t, stubGenerator{
		reply: `{"intent":"get_job_details","parameters":{"job_id":12}}`,
	})

	result, err := resolver.Resolve(context.Background(), "show job 12", enums.UserRoleStaff)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Kind != enums.IntentGetJobDetails {
		t.Fatalf("unexpected intent %q", result.Kind)
	}
	if result.Param("job_id") != "12" {
		t.Fatalf("unexpected job_id %q", result.Param("job_id"))
	}
}

func TestResolveStripsMarkdownFences(t *testing.T) {
	resolver := newTestResolver(t, stubGenerator{
		reply: "```json\n{\"intent\":\"query_projects\"}\n```",
	})

	result, err := resolver.Resolve(context.Background(), "projects?", enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Kind != enums.IntentQueryProjects {
		t.Fatalf("unexpected intent %q", result.Kind)
	}
}

func TestResolveMalformedOutputFallsBackToSmallTalk(t *testing.T) {
	for _, reply := range []string{"", "not json at all", `{"params":{}}`} {
		resolver := newTestResolver(t, stubGenerator{reply: reply})

		result, err := resolver.Resolve(context.Background(), "hello", enums.UserRoleStaff)
		if err != nil {
			t.Fatalf("resolve %q: %v", reply, err)
		}
		if result.Kind != enums.IntentOtherChat {
			t.Fatalf("expected other_chat for %q, got %q", reply, result.Kind)
		}
	}
}

func TestResolveUnknownIntentBecomesSmallTalk(t *testing.T) {
	resolver := newTestResolver(t, stubGenerator{reply: `{"intent":"order_pizza"}`})

	result, err := resolver.Resolve(context.Background(), "pizza", enums.UserRoleStaff)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Kind != enums.IntentOtherChat {
		t.Fatalf("unexpected intent %q", result.Kind)
	}
}

func TestResolvePreservesRateLimitCode(t *testing.T) {
	resolver := newTestResolver(t, stubGenerator{
		err: pkgerrors.New(pkgerrors.CodeRateLimit, "generate request throttled"),
	})

	_, err := resolver.Resolve(context.Background(), "hello", enums.UserRoleStaff)
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
