package appcore

import (
	"context"
	"net/http"
	"strings"

	"portfolio/framework"
	"portfolio/internal/markdown"
	"portfolio/internal/middleware"
	"portfolio/internal/portfolio"
)

const (
	ContactSuccessMessage = "Thank you for your message! I will get back to you soon."
	cardExcerptChars      = 180
)

func LoadHomePage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	_ framework.EmptyParams,
) (HomePageView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return HomePageView{}, err
	}

	summary, err := service.Summary(ctx)
	if err != nil {
		return HomePageView{}, err
	}

	view := HomePageView{
		PageMeta:         appCtx.Meta("Portfolio", "/"),
		FeaturedProjects: projectCards(summary.FeaturedProjects),
		FeaturedSkills:   summary.FeaturedSkills,
		RecentExperience: experienceEntries(appCtx, summary.RecentExperience),
	}
	if summary.PersonalInfo != nil && !summary.PersonalInfo.IsZero() {
		view.PersonalInfo = *summary.PersonalInfo
		view.HasPersonalInfo = true
		view.BioHTML = appCtx.markdown.ToHTML(view.PersonalInfo.Bio)
		view.Description = markdown.Excerpt(view.PersonalInfo.Bio, cardExcerptChars)
	}
	return view, nil
}

func LoadProjectsPage(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	_ framework.EmptyParams,
) (ProjectsPageView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return ProjectsPageView{}, err
	}

	filter := ParseProjectFilter(r)
	projects, err := service.Projects(ctx, filter)
	if err != nil {
		return ProjectsPageView{}, err
	}

	return ProjectsPageView{
		PageMeta:      appCtx.Meta("Projects", "/projects"),
		Filter:        filter,
		StatusOptions: projectStatusOptions(filter),
		Projects:      projectCards(projects),
	}, nil
}

func LoadProjectPage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	params framework.IDParams,
) (ProjectPageView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return ProjectPageView{}, err
	}

	project, err := service.Project(ctx, params.ID)
	if err != nil {
		return ProjectPageView{}, err
	}

	title := strings.TrimSpace(project.Title)
	if title == "" {
		title = "Project"
	}
	meta := appCtx.Meta(title, "/projects")
	meta.Description = markdown.Excerpt(project.Description, cardExcerptChars)

	detail := project.DetailedDescription
	if strings.TrimSpace(detail) == "" {
		detail = project.Description
	}

	return ProjectPageView{
		PageMeta:   meta,
		Project:    project,
		DetailHTML: appCtx.markdown.ToHTML(detail),
		Period:     FormatPeriod(project.StartDate, project.EndDate, false),
	}, nil
}

func LoadExperiencePage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	_ framework.EmptyParams,
) (ExperiencePageView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return ExperiencePageView{}, err
	}

	experience, err := service.Experience(ctx)
	if err != nil {
		return ExperiencePageView{}, err
	}

	return ExperiencePageView{
		PageMeta: appCtx.Meta("Experience", "/experience"),
		Entries:  experienceEntries(appCtx, experience),
	}, nil
}

func LoadSkillsPage(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	_ framework.EmptyParams,
) (SkillsPageView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return SkillsPageView{}, err
	}

	filter := ParseSkillFilter(r)
	skills, err := service.Skills(ctx, filter)
	if err != nil {
		return SkillsPageView{}, err
	}

	return SkillsPageView{
		PageMeta:        appCtx.Meta("Skills", "/skills"),
		Filter:          filter,
		CategoryOptions: skillCategoryOptions(filter),
		Groups:          GroupSkills(skills),
	}, nil
}

func LoadContactPage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	_ framework.EmptyParams,
) (ContactPageView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return ContactPageView{}, err
	}

	info, err := service.PersonalInfo(ctx)
	if err != nil {
		return ContactPageView{}, err
	}

	return ContactPageView{
		PageMeta:        appCtx.Meta("Contact", "/contact"),
		PersonalInfo:    info,
		HasPersonalInfo: !info.IsZero(),
	}, nil
}

// SubmitContact forwards the four contact fields untouched; the upstream API
// owns validation.
func SubmitContact(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	_ framework.EmptyParams,
) (ContactSuccessView, error) {
	service, err := portfolioService(appCtx)
	if err != nil {
		return ContactSuccessView{}, err
	}

	submission := portfolio.ContactSubmission{
		Name:    middleware.FormValue(r, "name"),
		Email:   middleware.FormValue(r, "email"),
		Subject: middleware.FormValue(r, "subject"),
		Message: middleware.FormValue(r, "message"),
	}
	if err := service.SubmitContact(ctx, submission); err != nil {
		return ContactSuccessView{}, err
	}

	return ContactSuccessView{
		PageMeta: appCtx.Meta("Message Sent", "/contact"),
		Message:  ContactSuccessMessage,
	}, nil
}

func projectCards(projects []portfolio.Project) []ProjectCard {
	cards := make([]ProjectCard, 0, len(projects))
	for _, project := range projects {
		cards = append(cards, ProjectCard{
			Project: project,
			URL:     ProjectURL(project.ID),
			Excerpt: markdown.Excerpt(project.Description, cardExcerptChars),
			Period:  FormatPeriod(project.StartDate, project.EndDate, false),
		})
	}
	return cards
}

func experienceEntries(appCtx *Context, experience []portfolio.Experience) []ExperienceEntry {
	entries := make([]ExperienceEntry, 0, len(experience))
	for _, item := range experience {
		entries = append(entries, ExperienceEntry{
			Experience:      item,
			DescriptionHTML: appCtx.markdown.ToHTML(item.Description),
			Period:          FormatPeriod(item.StartDate, item.EndDate, item.IsCurrent),
		})
	}
	return entries
}
