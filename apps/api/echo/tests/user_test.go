package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/user"
)

func Test_userApi_register(t *testing.T) {
	resetDB()
	createUser(t, "taken", "taken@test.cd", user.RoleStudent, false)
	reqMsg := "this field is required"

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "email": reqMsg, "password": reqMsg}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Username: "awe", Email: "lol", Password: "Billiards8!"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "password too short", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Username: "awe", Email: "awe@test.cd", Password: "lol"}),
			wantData: marchallObj(t, map[string]string{"password": "password must be at least 6 characters in length"}),
		},
		{
			name: "duplicate username", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Username: "taken", Email: "new@test.cd", Password: "Billiards8!"}),
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "duplicate email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Username: "newbie", Email: "taken@test.cd", Password: "Billiards8!"}),
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "registered", wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{Username: "awe", Email: "awe@test.cd", Password: "Billiards8!"}),
		},
		{
			// self-registration cannot grant elevated roles
			name: "admin role ignored", wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{Username: "sneaky", Email: "sneaky@test.cd", Password: "Billiards8!", Role: user.RoleAdmin}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.AuthResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.User.ID == "" {
					t.Error("failed! empty user ID")
				}
				if respData.User.Role != user.RoleStudent {
					t.Errorf("failed! role = %v; want %v", respData.User.Role, user.RoleStudent)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	createUser(t, "ndog", "ndog@test.cd", user.RoleStudent, true) // 😂
	reqMsg := "this field is required"

	type loginReq struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, loginReq{Email: "ghost@test.cd", Password: "Billiards8!"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, loginReq{Email: "hero@test.cd", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "disabled account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, loginReq{Email: "ndog@test.cd", Password: "Billiards8!"}),
			wantData: marchallObj(t, httpErr{Error: "account disabled"}),
		},
		{
			name: "logged in", wantCode: http.StatusOK,
			body: marchallObj(t, loginReq{Email: "hero@test.cd", Password: "Billiards8!"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.AuthResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.User.ID != student.ID {
					t.Errorf("failed! user ID = %v; want %v", respData.User.ID, student.ID)
				}
				if respData.User.LastLogin.IsZero() {
					t.Error("failed! lastLogin not set")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	naughty := createUser(t, "ndog", "ndog@test.cd", user.RoleStudent, true) // 😂

	// a token whose original issue time is past the refresh threshold
	staleOriat := time.Now().Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix()
	unrefreshableToken, err := echoapi.GenerateToken(echoapi.GetUserClaims(student, staleOriat))
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "disabled account", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account disabled"})},
		{name: "refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.TokenResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_profile(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own profile", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/profile"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	other := createUser(t, "awe", "awe@test.cd", user.RoleStudent, false)
	admin := createUser(t, "admin", "admin@test.cd", user.RoleAdmin, false)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			// newest first
			name: "get all", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, admin, other, student),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_disable(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	admin := createUser(t, "admin", "admin@test.cd", user.RoleAdmin, false)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users/" + student.ID + "/disable", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users/" + admin.ID + "/disable", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot disable self", path: "/v1/users/" + admin.ID + "/disable", token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "disabled", path: "/v1/users/" + student.ID + "/disable", token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusNoContent {
				refreshed, err := usrSvc.GetByID(context.Background(), student.ID)
				if err != nil {
					t.Fatalf("GetByID(): %v", err)
				}
				if !refreshed.IsDisabled {
					t.Error("failed! user still active")
				}
			}
		})
	}
}

func Test_userApi_destroy(t *testing.T) {
	resetDB()
	student := createUser(t, "hero", "hero@test.cd", user.RoleStudent, false)
	buddy := createUser(t, "awe", "awe@test.cd", user.RoleStudent, false)
	admin := createUser(t, "admin", "admin@test.cd", user.RoleAdmin, false)
	adminToken := getToken(t, admin)

	// everything the student owns must go with them
	ctx := context.Background()
	ownGrp := createGroup(t, "Owned", student.ID, buddy.ID)
	otherGrp := createGroup(t, "Other", buddy.ID, student.ID)
	if _, err := chatSvc.Send(ctx, chat.NewMessage{Content: "hey", GroupID: ownGrp.ID}, student.ID); err != nil {
		t.Fatalf("Send(): %v", err)
	}

	tests := []httpTest{
		{name: "auth required", path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/users/" + buddy.ID, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot delete self", path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown user", path: "/v1/users/ghost", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{name: "deleted", path: "/v1/users/" + student.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusNoContent {
				if _, err := usrSvc.GetByID(ctx, student.ID); err != user.ErrNotFound {
					t.Errorf("GetByID() err = %v; want %v", err, user.ErrNotFound)
				}
				// their group is gone, their other membership is dropped
				if _, err := grpSvc.GetByID(ctx, ownGrp.ID); err == nil {
					t.Error("failed! created group still exists")
				}
				refreshed, err := grpSvc.GetByID(ctx, otherGrp.ID)
				if err != nil {
					t.Fatalf("GetByID(): %v", err)
				}
				if refreshed.HasMember(student.ID) {
					t.Error("failed! user still a member")
				}
				msgs, err := chatSvc.GroupHistory(ctx, ownGrp.ID)
				if err != nil {
					t.Fatalf("GroupHistory(): %v", err)
				}
				if len(msgs) != 0 {
					t.Errorf("failed! len(msgs) = %d; want 0", len(msgs))
				}
			}
		})
	}
}
