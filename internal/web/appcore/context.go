package appcore

import (
	"context"
	"errors"
	"strings"

	"portfolio/internal/markdown"
	"portfolio/internal/portfolio"
)

var errPortfolioServiceUnavailable = errors.New("portfolio service unavailable")

type PortfolioService interface {
	Summary(ctx context.Context) (portfolio.Summary, error)
	Projects(ctx context.Context, filter portfolio.ProjectFilter) ([]portfolio.Project, error)
	Project(ctx context.Context, id string) (portfolio.Project, error)
	Experience(ctx context.Context) ([]portfolio.Experience, error)
	Skills(ctx context.Context, filter portfolio.SkillFilter) ([]portfolio.Skill, error)
	PersonalInfo(ctx context.Context) (portfolio.PersonalInfo, error)
	SubmitContact(ctx context.Context, submission portfolio.ContactSubmission) error
}

type Options struct {
	SiteName     string
	AssetsPrefix string
	Development  bool
}

// Context is built once at startup and shared read-only by every request.
type Context struct {
	service  PortfolioService
	markdown *markdown.Renderer
	options  Options
}

func NewContext(service PortfolioService, renderer *markdown.Renderer, opts Options) *Context {
	if renderer == nil {
		renderer = markdown.New("")
	}
	if strings.TrimSpace(opts.SiteName) == "" {
		opts.SiteName = "Portfolio"
	}
	opts.AssetsPrefix = "/" + strings.Trim(strings.TrimSpace(opts.AssetsPrefix), "/") + "/"
	if opts.AssetsPrefix == "//" {
		opts.AssetsPrefix = "/static/"
	}

	return &Context{service: service, markdown: renderer, options: opts}
}

func (c *Context) Development() bool {
	return c != nil && c.options.Development
}

// Meta builds the layout metadata for a page. navPath marks the active nav
// entry.
func (c *Context) Meta(title string, navPath string) PageMeta {
	meta := PageMeta{
		Title:        title,
		NavPath:      navPath,
		SiteName:     "Portfolio",
		AssetsPrefix: "/static/",
	}
	if c != nil {
		meta.SiteName = c.options.SiteName
		meta.AssetsPrefix = c.options.AssetsPrefix
	}
	return meta
}

func portfolioService(appCtx *Context) (PortfolioService, error) {
	if appCtx == nil || appCtx.service == nil {
		return nil, errPortfolioServiceUnavailable
	}
	return appCtx.service, nil
}
