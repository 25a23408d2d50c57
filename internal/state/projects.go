package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgienger/coreterra/internal/models"
)

// CreateProject adds the server's project to the end of the list
func (s *Store) CreateProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if err := s.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	p, err := s.client.Projects().Create(ctx, draft)
	if err != nil {
		return nil, s.fail("create project", err)
	}
	s.mu.Lock()
	s.projects = append(s.projects, *p)
	s.mu.Unlock()
	s.publish()
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	p, err := s.client.Projects().Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail("update project", err)
	}
	s.mu.Lock()
	if i := s.projectIndex(id); i >= 0 {
		s.projects[i] = *p
	} else {
		s.projects = append(s.projects, *p)
	}
	s.mu.Unlock()
	s.publish()
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.client.Projects().Delete(ctx, id); err != nil {
		return s.fail("delete project", err)
	}
	s.mu.Lock()
	if i := s.projectIndex(id); i >= 0 {
		s.projects = append(s.projects[:i], s.projects[i+1:]...)
	}
	s.mu.Unlock()
	s.publish()
	return nil
}

// Project returns a copy of the cached project
func (s *Store) Project(id string) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.projectIndex(id); i >= 0 {
		return s.projects[i], true
	}
	return models.Project{}, false
}
