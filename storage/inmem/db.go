package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

// DB is an in-memory store used in tests and local development.
type (
	DB struct {
		user         *userTable
		group        *groupTable
		message      *messageTable
		quiz         *quizTable
		result       *resultTable
		content      *contentTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*group.Group
	}

	messageTable struct {
		sync.RWMutex
		table map[string]*chat.Message
	}

	quizTable struct {
		sync.RWMutex
		table map[string]*quiz.Quiz
	}

	resultTable struct {
		sync.RWMutex
		table map[string]*quiz.Result
	}

	contentTable struct {
		sync.RWMutex
		table map[string]*content.Content
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notif.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		group:        &groupTable{table: make(map[string]*group.Group)},
		message:      &messageTable{table: make(map[string]*chat.Message)},
		quiz:         &quizTable{table: make(map[string]*quiz.Quiz)},
		result:       &resultTable{table: make(map[string]*quiz.Result)},
		content:      &contentTable{table: make(map[string]*content.Content)},
		notification: &notificationTable{table: make(map[string]*notif.Notification)},
	}
	return db, nil
}
