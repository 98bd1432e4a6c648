package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/content"
)

type contentRepository struct {
	db *contentTable
}

var _ content.Repository = (*contentRepository)(nil)

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{db: db.content}
}

func (repo *contentRepository) CreateContent(_ context.Context, cnt content.Content) (content.Content, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if cnt.ID == "" {
		cnt.ID = uuid.New().String()
	}
	repo.db.table[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *contentRepository) QueryAllContent(_ context.Context) ([]content.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cnts := make([]content.Content, 0, len(repo.db.table))
	for _, cnt := range repo.db.table {
		cnts = append(cnts, *cnt)
	}
	sort.Slice(cnts, func(i, j int) bool { return cnts[i].CreatedAt.After(cnts[j].CreatedAt) })
	return cnts, nil
}

func (repo *contentRepository) CountContent(_ context.Context) (int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return int64(len(repo.db.table)), nil
}

func (repo *contentRepository) DeleteContentByGroup(_ context.Context, groupID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, cnt := range repo.db.table {
		if cnt.GroupID == groupID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
