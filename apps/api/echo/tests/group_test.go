package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/user"
)

func Test_groupApi_create(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "name required", token: getToken(t, student), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "created", token: getToken(t, student), wantCode: http.StatusCreated,
			body: marchallObj(t, group.NewGroup{Name: "Maths 101", Description: "Numbers"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/groups"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var grp group.Group
				if err := json.Unmarshal(rec.Body.Bytes(), &grp); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if grp.CreatorID != student.ID {
					t.Errorf("failed! creatorID = %v; want %v", grp.CreatorID, student.ID)
				}
				// the creator joins their own group
				if !grp.HasMember(student.ID) {
					t.Error("failed! creator not a member")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_groupApi_queryMineAndAvailable(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	buddy := createUser(t, "awe", "awe@test.cd", user.RoleStudent, false)

	mine := createGroup(t, "Mine", student.ID)
	joined := createGroup(t, "Joined", buddy.ID, student.ID)
	other := createGroup(t, "Other", buddy.ID)

	studentToken := getToken(t, student)
	tests := []httpTest{
		{name: "auth required", path: "/v1/groups", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// newest first
			name: "mine", path: "/v1/groups", token: studentToken, wantCode: http.StatusOK,
			wantData: marchallList(t, joined, mine),
		},
		{
			name: "available", path: "/v1/groups/available", token: studentToken, wantCode: http.StatusOK,
			wantData: marchallList(t, other),
		},
		{
			name: "available (buddy)", path: "/v1/groups/available", token: getToken(t, buddy), wantCode: http.StatusOK,
			wantData: marchallList(t, mine),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_groupApi_join(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	buddy := createUser(t, "awe", "awe@test.cd", user.RoleStudent, false)
	grp := createGroup(t, "Maths 101", buddy.ID)

	studentToken := getToken(t, student)
	tests := []httpTest{
		{name: "auth required", path: "/v1/groups/" + grp.ID + "/join", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "unknown group", path: "/v1/groups/ghost/join", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "group not found"}),
		},
		{name: "joined", path: "/v1/groups/" + grp.ID + "/join", token: studentToken, wantCode: http.StatusOK},
		{
			name: "already a member", path: "/v1/groups/" + grp.ID + "/join", token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "already a member of this group"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var joined group.Group
				if err := json.Unmarshal(rec.Body.Bytes(), &joined); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if !joined.HasMember(student.ID) {
					t.Error("failed! user not a member")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_groupApi_adminQueryAndDestroy(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	admin := createUser(t, "admin", "admin@test.cd", user.RoleAdmin, false)
	adminToken := getToken(t, admin)

	grp := createGroup(t, "Maths 101", student.ID)
	keep := createGroup(t, "History", student.ID)

	ctx := context.Background()
	if _, err := chatSvc.Send(ctx, chat.NewMessage{Content: "hey", GroupID: grp.ID}, student.ID); err != nil {
		t.Fatalf("Send(): %v", err)
	}
	if _, err := cntSvc.Create(ctx, content.NewContent{Title: "Notes", FileURL: "/uploads/notes.pdf", GroupID: grp.ID}, student.ID); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	tests := []httpTest{
		{
			name: "admin required", method: http.MethodGet, path: "/v1/admin/groups", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "get all", method: http.MethodGet, path: "/v1/admin/groups", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, keep, grp),
		},
		{
			name: "unknown group", method: http.MethodDelete, path: "/v1/admin/groups/ghost", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "group not found"}),
		},
		{
			name: "deleted with messages and content", method: http.MethodDelete, path: "/v1/admin/groups/" + grp.ID,
			token: adminToken, wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusNoContent {
				if _, err := grpSvc.GetByID(ctx, grp.ID); err != group.ErrNotFound {
					t.Errorf("GetByID() err = %v; want %v", err, group.ErrNotFound)
				}
				msgs, err := chatSvc.GroupHistory(ctx, grp.ID)
				if err != nil {
					t.Fatalf("GroupHistory(): %v", err)
				}
				if len(msgs) != 0 {
					t.Errorf("failed! len(msgs) = %d; want 0", len(msgs))
				}
				cnts, err := cntSvc.QueryAll(ctx)
				if err != nil {
					t.Fatalf("QueryAll(): %v", err)
				}
				if len(cnts) != 0 {
					t.Errorf("failed! len(cnts) = %d; want 0", len(cnts))
				}
			}
		})
	}
}
