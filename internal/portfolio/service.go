package portfolio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"portfolio/internal/apiclient"
)

const (
	summaryPath      = "/portfolio/api/summary/"
	projectsPath     = "/portfolio/api/projects/"
	experiencePath   = "/portfolio/api/experience/"
	skillsPath       = "/portfolio/api/skills/"
	personalInfoPath = "/portfolio/api/personal-info/"
	contactPath      = "/portfolio/api/contact/"
)

var ErrEmptyProjectID = errors.New("project id is empty")

type Client interface {
	Get(ctx context.Context, path string, query url.Values) (apiclient.Response, error)
	Post(ctx context.Context, path string, payload any) (apiclient.Response, error)
}

// Service maps upstream resources onto typed values. Each method issues
// exactly one upstream call.
type Service struct {
	client Client
}

func NewService(client Client) *Service {
	return &Service{client: client}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	resp, err := s.client.Get(ctx, summaryPath, nil)
	if err != nil {
		return Summary{}, err
	}
	return apiclient.DecodeObject[Summary](resp)
}

func (s *Service) Projects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	query := url.Values{}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query.Set("status", status)
	}
	if filter.Featured {
		query.Set("featured", "true")
	}

	resp, err := s.client.Get(ctx, projectsPath, query)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[Project](resp)
}

func (s *Service) Project(ctx context.Context, id string) (Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Project{}, ErrEmptyProjectID
	}

	resp, err := s.client.Get(ctx, projectsPath+url.PathEscape(id)+"/", nil)
	if err != nil {
		return Project{}, err
	}
	return apiclient.DecodeObject[Project](resp)
}

func (s *Service) Experience(ctx context.Context) ([]Experience, error) {
	resp, err := s.client.Get(ctx, experiencePath, nil)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[Experience](resp)
}

func (s *Service) Skills(ctx context.Context, filter SkillFilter) ([]Skill, error) {
	query := url.Values{}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query.Set("category", category)
	}
	if filter.Featured {
		query.Set("featured", "true")
	}

	resp, err := s.client.Get(ctx, skillsPath, query)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[Skill](resp)
}

func (s *Service) PersonalInfo(ctx context.Context) (PersonalInfo, error) {
	resp, err := s.client.Get(ctx, personalInfoPath, nil)
	if err != nil {
		return PersonalInfo{}, err
	}
	return apiclient.DecodeFirst[PersonalInfo](resp)
}

func (s *Service) SubmitContact(ctx context.Context, submission ContactSubmission) error {
	if _, err := s.client.Post(ctx, contactPath, submission); err != nil {
		return fmt.Errorf("submit contact message: %w", err)
	}
	return nil
}
