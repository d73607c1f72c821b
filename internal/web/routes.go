package web

import (
	"net/http"

	"github.com/a-h/templ"

	"portfolio/framework"
	"portfolio/internal/web/appcore"
	"portfolio/internal/web/components"
)

func rootLayout[VM appcore.LayoutView](view VM, child templ.Component) templ.Component {
	return components.Layout(view.LayoutMeta(), child)
}

func layouts[VM appcore.LayoutView]() []framework.LayoutRenderer[VM] {
	return []framework.LayoutRenderer[VM]{rootLayout[VM]}
}

// routeHandlers lists every page the site serves. Each entry performs one
// upstream call and maps failures to its ErrorMessage.
func routeHandlers() []framework.RouteHandler[*appcore.Context] {
	return []framework.RouteHandler[*appcore.Context]{
		framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.HomePageView]{
			Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.HomePageView]{
				Pattern:      "/",
				Load:         appcore.LoadHomePage,
				Render:       components.HomePage,
				Layouts:      layouts[appcore.HomePageView](),
				ErrorMessage: "Failed to load portfolio data",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.ProjectsPageView]{
			Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.ProjectsPageView]{
				Pattern:      "/projects",
				Load:         appcore.LoadProjectsPage,
				Render:       components.ProjectsPage,
				Layouts:      layouts[appcore.ProjectsPageView](),
				ErrorMessage: "Failed to load projects",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, framework.IDParams, appcore.ProjectPageView]{
			Page: framework.PageModule[*appcore.Context, framework.IDParams, appcore.ProjectPageView]{
				Pattern:      "/projects/{id}",
				ParseParams:  framework.URLParamID,
				Load:         appcore.LoadProjectPage,
				Render:       components.ProjectDetailPage,
				Layouts:      layouts[appcore.ProjectPageView](),
				ErrorMessage: "Failed to load project details",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.ExperiencePageView]{
			Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.ExperiencePageView]{
				Pattern:      "/experience",
				Load:         appcore.LoadExperiencePage,
				Render:       components.ExperiencePage,
				Layouts:      layouts[appcore.ExperiencePageView](),
				ErrorMessage: "Failed to load experience data",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.SkillsPageView]{
			Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.SkillsPageView]{
				Pattern:      "/skills",
				Load:         appcore.LoadSkillsPage,
				Render:       components.SkillsPage,
				Layouts:      layouts[appcore.SkillsPageView](),
				ErrorMessage: "Failed to load skills data",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.ContactPageView]{
			Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.ContactPageView]{
				Pattern:      "/contact",
				Load:         appcore.LoadContactPage,
				Render:       components.ContactPage,
				Layouts:      layouts[appcore.ContactPageView](),
				ErrorMessage: "Failed to load contact information",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.ContactSuccessView]{
			Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.ContactSuccessView]{
				Pattern:      "/contact",
				Method:       http.MethodPost,
				Load:         appcore.SubmitContact,
				Render:       components.ContactSuccessPage,
				Layouts:      layouts[appcore.ContactSuccessView](),
				ErrorMessage: "Failed to send message",
			},
		},
	}
}
