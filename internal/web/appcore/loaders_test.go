package appcore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/framework"
	"portfolio/internal/markdown"
	"portfolio/internal/middleware"
	"portfolio/internal/portfolio"
)

type fakeService struct {
	summary      portfolio.Summary
	projects     []portfolio.Project
	project      portfolio.Project
	experience   []portfolio.Experience
	skills       []portfolio.Skill
	personalInfo portfolio.PersonalInfo
	err          error

	projectFilter portfolio.ProjectFilter
	skillFilter   portfolio.SkillFilter
	projectID     string
	submitted     []portfolio.ContactSubmission
}

func (f *fakeService) Summary(context.Context) (portfolio.Summary, error) {
	return f.summary, f.err
}

func (f *fakeService) Projects(_ context.Context, filter portfolio.ProjectFilter) ([]portfolio.Project, error) {
	f.projectFilter = filter
	return f.projects, f.err
}

func (f *fakeService) Project(_ context.Context, id string) (portfolio.Project, error) {
	f.projectID = id
	return f.project, f.err
}

func (f *fakeService) Experience(context.Context) ([]portfolio.Experience, error) {
	return f.experience, f.err
}

func (f *fakeService) Skills(_ context.Context, filter portfolio.SkillFilter) ([]portfolio.Skill, error) {
	f.skillFilter = filter
	return f.skills, f.err
}

func (f *fakeService) PersonalInfo(context.Context) (portfolio.PersonalInfo, error) {
	return f.personalInfo, f.err
}

func (f *fakeService) SubmitContact(_ context.Context, submission portfolio.ContactSubmission) error {
	f.submitted = append(f.submitted, submission)
	return f.err
}

func newTestContext(service PortfolioService) *Context {
	return NewContext(service, markdown.New("https://portfolio.example.com"), Options{AssetsPrefix: "assets"})
}

func TestLoadHomePageMapsSummary(t *testing.T) {
	service := &fakeService{summary: portfolio.Summary{
		PersonalInfo:     &portfolio.PersonalInfo{ID: 1, Name: "Ada", Bio: "Builds **engines**."},
		FeaturedProjects: []portfolio.Project{{ID: 5, Title: "Engine", Description: "A *difference* engine", StartDate: "2021-03-01"}},
		FeaturedSkills:   []portfolio.Skill{{ID: 1, Name: "Go"}},
		RecentExperience: []portfolio.Experience{{ID: 2, Company: "Co", StartDate: "2020-01-01", IsCurrent: true}},
	}}

	view, err := LoadHomePage(context.Background(), newTestContext(service), nil, framework.EmptyParams{})
	require.NoError(t, err)

	assert.Equal(t, "Portfolio", view.Title)
	assert.Equal(t, "/assets/", view.AssetsPrefix)
	assert.True(t, view.HasPersonalInfo)
	assert.Contains(t, string(view.BioHTML), "<strong>engines</strong>")
	assert.Equal(t, "Builds engines.", view.Description)
	require.Len(t, view.FeaturedProjects, 1)
	assert.Equal(t, "/projects/5", view.FeaturedProjects[0].URL)
	assert.Equal(t, "A difference engine", view.FeaturedProjects[0].Excerpt)
	assert.Equal(t, "Mar 2021", view.FeaturedProjects[0].Period)
	assert.Equal(t, "Jan 2020 - Present", view.RecentExperience[0].Period)
}

func TestLoadHomePageWithoutPersonalInfo(t *testing.T) {
	view, err := LoadHomePage(context.Background(), newTestContext(&fakeService{}), nil, framework.EmptyParams{})
	require.NoError(t, err)
	assert.False(t, view.HasPersonalInfo)
	assert.Empty(t, view.FeaturedProjects)
}

func TestLoadersPropagateServiceErrors(t *testing.T) {
	failure := errors.New("upstream down")
	appCtx := newTestContext(&fakeService{err: failure})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.Background()

	_, err := LoadHomePage(ctx, appCtx, req, framework.EmptyParams{})
	assert.ErrorIs(t, err, failure)
	_, err = LoadProjectsPage(ctx, appCtx, req, framework.EmptyParams{})
	assert.ErrorIs(t, err, failure)
	_, err = LoadProjectPage(ctx, appCtx, req, framework.IDParams{ID: "1"})
	assert.ErrorIs(t, err, failure)
	_, err = LoadExperiencePage(ctx, appCtx, req, framework.EmptyParams{})
	assert.ErrorIs(t, err, failure)
	_, err = LoadSkillsPage(ctx, appCtx, req, framework.EmptyParams{})
	assert.ErrorIs(t, err, failure)
	_, err = LoadContactPage(ctx, appCtx, req, framework.EmptyParams{})
	assert.ErrorIs(t, err, failure)
}

func TestLoadersWithoutServiceFail(t *testing.T) {
	_, err := LoadSkillsPage(context.Background(), NewContext(nil, nil, Options{}), httptest.NewRequest(http.MethodGet, "/skills", nil), framework.EmptyParams{})
	assert.ErrorIs(t, err, errPortfolioServiceUnavailable)
}

func TestLoadProjectsPageForwardsFilter(t *testing.T) {
	service := &fakeService{projects: []portfolio.Project{{ID: 1}, {ID: 2}}}
	req := httptest.NewRequest(http.MethodGet, "/projects?status=completed&featured=1", nil)

	view, err := LoadProjectsPage(context.Background(), newTestContext(service), req, framework.EmptyParams{})
	require.NoError(t, err)

	assert.Equal(t, portfolio.ProjectFilter{Status: "completed", Featured: true}, service.projectFilter)
	assert.Len(t, view.Projects, 2)

	active := make([]string, 0)
	for _, option := range view.StatusOptions {
		if option.Active {
			active = append(active, option.Label)
		}
	}
	assert.Equal(t, []string{"Completed"}, active)
	assert.Equal(t, "/projects?featured=true", view.StatusOptions[0].URL)
}

func TestLoadProjectPageUsesProjectTitle(t *testing.T) {
	service := &fakeService{project: portfolio.Project{
		ID:                  9,
		Title:               "Analytical Engine",
		Description:         "Short",
		DetailedDescription: "## Design\n\n<script>x()</script>Long form",
	}}

	view, err := LoadProjectPage(context.Background(), newTestContext(service), nil, framework.IDParams{ID: "9"})
	require.NoError(t, err)

	assert.Equal(t, "9", service.projectID)
	assert.Equal(t, "Analytical Engine", view.Title)
	assert.Equal(t, "/projects", view.NavPath)
	assert.Contains(t, string(view.DetailHTML), "Design</h2>")
	assert.NotContains(t, string(view.DetailHTML), "<script")
}

func TestLoadProjectPageFallsBackToGenericTitle(t *testing.T) {
	view, err := LoadProjectPage(context.Background(), newTestContext(&fakeService{}), nil, framework.IDParams{ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Project", view.Title)
}

func TestLoadSkillsPageGroupsByCategory(t *testing.T) {
	service := &fakeService{skills: []portfolio.Skill{
		{Name: "Communication", Category: portfolio.SkillCategorySoft},
		{Name: "Go", Category: portfolio.SkillCategoryTechnical},
		{Name: "Docker", Category: portfolio.SkillCategoryTool},
		{Name: "Rust", Category: portfolio.SkillCategoryTechnical},
		{Name: "Juggling", Category: "hobby", CategoryDisplay: "Hobbies"},
	}}
	req := httptest.NewRequest(http.MethodGet, "/skills?category=technical", nil)

	view, err := LoadSkillsPage(context.Background(), newTestContext(service), req, framework.EmptyParams{})
	require.NoError(t, err)
	assert.Equal(t, "technical", service.skillFilter.Category)

	type group struct {
		Label string
		Names []string
	}
	got := make([]group, 0, len(view.Groups))
	for _, g := range view.Groups {
		names := make([]string, 0, len(g.Skills))
		for _, skill := range g.Skills {
			names = append(names, skill.Name)
		}
		got = append(got, group{Label: g.Label, Names: names})
	}

	want := []group{
		{Label: "Technical Skills", Names: []string{"Go", "Rust"}},
		{Label: "Tools & Technologies", Names: []string{"Docker"}},
		{Label: "Soft Skills", Names: []string{"Communication"}},
		{Label: "Hobbies", Names: []string{"Juggling"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("skill groups mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadContactPage(t *testing.T) {
	service := &fakeService{personalInfo: portfolio.PersonalInfo{ID: 1, Name: "Ada", Email: "ada@example.com"}}

	view, err := LoadContactPage(context.Background(), newTestContext(service), nil, framework.EmptyParams{})
	require.NoError(t, err)
	assert.Equal(t, "Contact", view.Title)
	assert.True(t, view.HasPersonalInfo)
	assert.Equal(t, "ada@example.com", view.PersonalInfo.Email)
}

func TestSubmitContactForwardsExactlyFourFields(t *testing.T) {
	service := &fakeService{}
	form := url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"subject": {"Hello"},
		"message": {"Nice work"},
		"extra":   {"ignored"},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var view ContactSuccessView
	var loadErr error
	handler := middleware.BodyParser(1024)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		view, loadErr = SubmitContact(r.Context(), newTestContext(service), r, framework.EmptyParams{})
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, loadErr)
	assert.Equal(t, "Message Sent", view.Title)
	assert.Equal(t, ContactSuccessMessage, view.Message)
	assert.Equal(t, []portfolio.ContactSubmission{{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hello",
		Message: "Nice work",
	}}, service.submitted)
}

func TestFormatPeriod(t *testing.T) {
	cases := []struct {
		start, end string
		current    bool
		want       string
	}{
		{"2020-01-15", "2022-06-01", false, "Jan 2020 - Jun 2022"},
		{"2020-01-15", "", true, "Jan 2020 - Present"},
		{"2020-01-15", "", false, "Jan 2020"},
		{"", "", false, ""},
		{"sometime", "", false, "sometime"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatPeriod(tc.start, tc.end, tc.current), "%s..%s", tc.start, tc.end)
	}
}

func TestProficiencyPercent(t *testing.T) {
	assert.Equal(t, 0, ProficiencyPercent(-1))
	assert.Equal(t, 60, ProficiencyPercent(3))
	assert.Equal(t, 100, ProficiencyPercent(9))
}
