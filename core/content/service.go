package content

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("content not found")
)

type (
	Repository interface {
		CreateContent(ctx context.Context, cnt Content) (Content, error)
		// QueryAllContent returns all content, newest first.
		QueryAllContent(ctx context.Context) ([]Content, error)
		CountContent(ctx context.Context) (int64, error)
		DeleteContentByGroup(ctx context.Context, groupID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewContent, uploadedBy string) (Content, error) {
	cnt := Content{
		Title:       nc.Title,
		Description: nc.Description,
		FileURL:     nc.FileURL,
		UploadedBy:  uploadedBy,
		GroupID:     nc.GroupID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateContent(ctx, cnt)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Content, error) {
	return svc.repo.QueryAllContent(ctx)
}

func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.repo.CountContent(ctx)
}

func (svc *Service) DeleteByGroup(ctx context.Context, groupID string) error {
	return svc.repo.DeleteContentByGroup(ctx, groupID)
}
