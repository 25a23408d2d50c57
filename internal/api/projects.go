package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/coreterra/internal/models"
)

// ProjectsClient covers /api/projects
type ProjectsClient struct{ c *Client }

func (c *Client) Projects() *ProjectsClient { return &ProjectsClient{c: c} }

func (p *ProjectsClient) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := p.c.do(ctx, "projects.list", http.MethodGet, "/api/projects", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ProjectsClient) Get(ctx context.Context, id string) (*models.Project, error) {
	var out models.Project
	if err := p.c.do(ctx, "projects.get", http.MethodGet, projectPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProjectsClient) Create(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	var out models.Project
	if err := p.c.do(ctx, "projects.create", http.MethodPost, "/api/projects", nil, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProjectsClient) Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	var out models.Project
	if err := p.c.do(ctx, "projects.update", http.MethodPut, projectPath(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProjectsClient) Delete(ctx context.Context, id string) error {
	return p.c.do(ctx, "projects.delete", http.MethodDelete, projectPath(id), nil, nil, nil)
}

func projectPath(id string) string {
	return "/api/projects/" + url.PathEscape(id)
}
