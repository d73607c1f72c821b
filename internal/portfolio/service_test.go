package portfolio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"portfolio/internal/apiclient"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

type upstreamCall struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeUpstream struct {
	mu     sync.Mutex
	calls  []upstreamCall
	routes map[string]string
	status map[string]int
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, upstreamCall{Method: r.Method, Path: r.URL.EscapedPath(), Query: r.URL.RawQuery, Body: string(body)})
	f.mu.Unlock()

	if code, ok := f.status[r.URL.Path]; ok {
		w.WriteHeader(code)
	}
	payload, ok := f.routes[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		return
	}
	_, _ = io.WriteString(w, payload)
}

func (f *fakeUpstream) recorded() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

func newTestService(t *testing.T, routes map[string]string) (*Service, *fakeUpstream) {
	t.Helper()

	fake := &fakeUpstream{routes: routes, status: map[string]int{}}
	upstream := httptest.NewServer(fake)
	client, err := apiclient.New(apiclient.Options{BaseURL: upstream.URL})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.CloseIdleConnections()
		upstream.Close()
	})
	return NewService(client), fake
}

func TestSummaryDecodesNestedSections(t *testing.T) {
	service, fake := newTestService(t, map[string]string{
		"/portfolio/api/summary/": `{
			"personal_info": {"id": 1, "name": "Ada Lovelace", "title": "Engineer", "email": "ada@example.com"},
			"featured_projects": [{"id": 3, "title": "Engine", "status": "completed", "technologies": [{"id": 9, "name": "Go"}]}],
			"featured_skills": [{"id": 9, "name": "Go", "category": "technical", "proficiency_level": 5}],
			"recent_experience": [{"id": 2, "company": "Analytical Co", "position": "Lead", "is_current": true}]
		}`,
	})

	summary, err := service.Summary(context.Background())
	require.NoError(t, err)

	require.NotNil(t, summary.PersonalInfo)
	assert.Equal(t, "Ada Lovelace", summary.PersonalInfo.Name)
	require.Len(t, summary.FeaturedProjects, 1)
	assert.Equal(t, ProjectStatusCompleted, summary.FeaturedProjects[0].Status)
	assert.Equal(t, "Go", summary.FeaturedProjects[0].Technologies[0].Name)
	assert.Equal(t, SkillCategoryTechnical, summary.FeaturedSkills[0].Category)
	assert.True(t, summary.RecentExperience[0].IsCurrent)

	assert.Equal(t, []upstreamCall{{Method: http.MethodGet, Path: "/portfolio/api/summary/"}}, fake.recorded())
}

func TestProjectsUnwrapsEnvelopeAndForwardsFilter(t *testing.T) {
	service, fake := newTestService(t, map[string]string{
		"/portfolio/api/projects/": `{"count":2,"results":[{"id":1,"title":"One"},{"id":2,"title":"Two"}]}`,
	})

	projects, err := service.Projects(context.Background(), ProjectFilter{Status: " completed ", Featured: true})
	require.NoError(t, err)

	titles := make([]string, 0, len(projects))
	for _, project := range projects {
		titles = append(titles, project.Title)
	}
	if diff := cmp.Diff([]string{"One", "Two"}, titles); diff != "" {
		t.Fatalf("project titles mismatch (-want +got):\n%s", diff)
	}

	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "featured=true&status=completed", calls[0].Query)
}

func TestProjectsAcceptsBareList(t *testing.T) {
	service, _ := newTestService(t, map[string]string{
		"/portfolio/api/projects/": `[{"id":1,"title":"One"}]`,
	})

	projects, err := service.Projects(context.Background(), ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 1, projects[0].ID)
}

func TestProjectFetchesDetailByID(t *testing.T) {
	service, fake := newTestService(t, map[string]string{
		"/portfolio/api/projects/42/": `{"id":42,"title":"Answer","images":[{"id":1,"image_url":"https://img.example.com/a.png","caption":"A"}]}`,
	})

	project, err := service.Project(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Answer", project.Title)
	require.Len(t, project.Images, 1)
	assert.Equal(t, "A", project.Images[0].Caption)
	assert.Equal(t, "/portfolio/api/projects/42/", fake.recorded()[0].Path)
}

func TestProjectEscapesID(t *testing.T) {
	service, fake := newTestService(t, map[string]string{})

	_, err := service.Project(context.Background(), "a/b")
	require.Error(t, err)
	assert.Equal(t, "/portfolio/api/projects/a%2Fb/", fake.recorded()[0].Path)
}

func TestProjectRejectsEmptyID(t *testing.T) {
	service, fake := newTestService(t, map[string]string{})

	_, err := service.Project(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyProjectID)
	assert.Empty(t, fake.recorded())
}

func TestProjectUpstreamNotFoundIsAStatusError(t *testing.T) {
	service, _ := newTestService(t, map[string]string{})

	_, err := service.Project(context.Background(), "999")
	remoteErr, ok := apiclient.AsRemoteCallError(err)
	require.True(t, ok)
	assert.Equal(t, apiclient.KindStatus, remoteErr.Kind)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
}

func TestSkillsForwardsCategory(t *testing.T) {
	service, fake := newTestService(t, map[string]string{
		"/portfolio/api/skills/": `{"results":[{"id":1,"name":"Go","category":"technical"}]}`,
	})

	skills, err := service.Skills(context.Background(), SkillFilter{Category: "technical"})
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "category=technical", fake.recorded()[0].Query)
}

func TestExperienceEmptyEnvelope(t *testing.T) {
	service, _ := newTestService(t, map[string]string{
		"/portfolio/api/experience/": `{"results":[]}`,
	})

	experience, err := service.Experience(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, experience)
	assert.Empty(t, experience)
}

func TestPersonalInfoTakesFirstRecord(t *testing.T) {
	service, _ := newTestService(t, map[string]string{
		"/portfolio/api/personal-info/": `{"results":[{"id":1,"name":"Ada"},{"id":2,"name":"Grace"}]}`,
	})

	info, err := service.PersonalInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", info.Name)
	assert.False(t, info.IsZero())
}

func TestPersonalInfoMissingIsZero(t *testing.T) {
	service, _ := newTestService(t, map[string]string{
		"/portfolio/api/personal-info/": `{"results":[]}`,
	})

	info, err := service.PersonalInfo(context.Background())
	require.NoError(t, err)
	assert.True(t, info.IsZero())
}

func TestSubmitContactPostsExactlyFourFields(t *testing.T) {
	service, fake := newTestService(t, map[string]string{
		"/portfolio/api/contact/": `{"id":1}`,
	})
	fake.status["/portfolio/api/contact/"] = http.StatusCreated

	err := service.SubmitContact(context.Background(), ContactSubmission{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hello",
		Message: "Nice work",
	})
	require.NoError(t, err)

	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@example.com","subject":"Hello","message":"Nice work"}`, calls[0].Body)
}

func TestSubmitContactSurfacesValidationFailure(t *testing.T) {
	service, fake := newTestService(t, map[string]string{
		"/portfolio/api/contact/": `{"email":["Enter a valid email address."]}`,
	})
	fake.status["/portfolio/api/contact/"] = http.StatusBadRequest

	err := service.SubmitContact(context.Background(), ContactSubmission{Email: "nope"})
	require.Error(t, err)

	remoteErr, ok := apiclient.AsRemoteCallError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
}
