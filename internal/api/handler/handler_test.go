package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
	"github.com/soma-lab/relation-core/internal/service"
	"github.com/soma-lab/relation-core/pkg/middleware"
	"github.com/soma-lab/relation-core/pkg/response"
)

const testJWTSecret = "test-secret"

type noopDispatcher struct{}

func (noopDispatcher) Notify(ctx context.Context, kind string, actorID, subjectID int64)        {}
func (noopDispatcher) IndexSignal(ctx context.Context, kind string, actorID, subjectID int64)   {}
func (noopDispatcher) PromoteSignal(ctx context.Context, kind string, actorID, subjectID int64) {}

type testEnv struct {
	router *gin.Engine
	store  *repository.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.FriendshipInvitation{},
		&model.FanoutTask{},
		&model.UserCounterShard{},
	))

	store := repository.NewStore(db)
	following := service.NewFollowingService(store, noopDispatcher{}, nil)
	friendship := service.NewFriendshipService(store, following, noopDispatcher{}, nil)
	h := NewHandler(following, friendship)

	r := gin.New()
	v1 := r.Group("/api/v1")
	relations := v1.Group("/relations")
	relations.GET("/:user_id/following", h.ListFollowing)
	relations.GET("/:user_id/followers", h.ListFollowers)
	relations.GET("/is-follower", h.IsFollower)
	authed := relations.Group("", middleware.Auth(testJWTSecret))
	authed.POST("/follow", h.Follow)
	authed.POST("/unfollow", h.Unfollow)

	friendships := v1.Group("/friendships")
	friendships.GET("/:user_id", h.ListAnothersFriends)
	fauthed := friendships.Group("", middleware.Auth(testJWTSecret))
	fauthed.GET("", h.ListFriends)
	fauthed.POST("/action", h.FriendshipAction)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path string, body any, userID int64) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestFollowEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	w, resp := env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": bob.ID}, alice.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", resp.Code)

	// 重复关注映射 409
	w, resp = env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": bob.ID}, alice.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_FOLLOWING", resp.Code)

	// 自关注映射 400
	w, resp = env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": alice.ID}, alice.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNABLE_FOLLOW_YOURSELF", resp.Code)

	// 目标不存在映射 404
	w, resp = env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": 4040}, alice.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", resp.Code)
}

func TestFollowRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	bob := env.createUser(t, "bob")

	w, resp := env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": bob.ID}, 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Code)
}

func TestUnfollowEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	w, resp := env.do(t, http.MethodPost, "/api/v1/relations/unfollow",
		gin.H{"user_id": bob.ID}, alice.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_FOLLOWING", resp.Code)

	_, _ = env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": bob.ID}, alice.ID)
	w, resp = env.do(t, http.MethodPost, "/api/v1/relations/unfollow",
		gin.H{"user_id": bob.ID}, alice.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", resp.Code)
}

func TestIsFollowerEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	_, _ = env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": bob.ID}, alice.ID)

	path := fmt.Sprintf("/api/v1/relations/is-follower?follower_id=%d&followed_id=%d", alice.ID, bob.ID)
	w, resp := env.do(t, http.MethodGet, path, nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["is_follower"])

	path = fmt.Sprintf("/api/v1/relations/is-follower?follower_id=%d&followed_id=%d", bob.ID, alice.ID)
	w, resp = env.do(t, http.MethodGet, path, nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	data = resp.Data.(map[string]any)
	assert.Equal(t, false, data["is_follower"])
}

func TestListFollowingEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	_, _ = env.do(t, http.MethodPost, "/api/v1/relations/follow",
		gin.H{"user_id": bob.ID}, alice.ID)

	path := fmt.Sprintf("/api/v1/relations/%d/following", alice.ID)
	w, resp := env.do(t, http.MethodGet, path, nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var page service.FollowPage
	require.NoError(t, json.Unmarshal(payload, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "bob", page.Items[0].User.Username)

	// 坏游标映射 400
	w, resp = env.do(t, http.MethodGet, path+"?cursor=%21%21garbage", nil, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CURSOR", resp.Code)
}

func TestFriendshipActionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	w, resp := env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": bob.ID, "action": "ADD"}, alice.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", resp.Code)

	w, resp = env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": alice.ID, "action": "ADD"}, bob.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	// 已是好友再 ADD 映射 409
	w, resp = env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": bob.ID, "action": "ADD"}, alice.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_FRIENDS", resp.Code)

	// 未知动作被参数校验挡下
	w, resp = env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": bob.ID, "action": "BLOCK"}, alice.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestListFriendsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	me := env.createUser(t, "me")
	friend := env.createUser(t, "friend")
	pending := env.createUser(t, "pending")

	_, _ = env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": me.ID, "action": "ADD"}, friend.ID)
	_, _ = env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": friend.ID, "action": "ADD"}, me.ID)
	_, _ = env.do(t, http.MethodPost, "/api/v1/friendships/action",
		gin.H{"target_id": me.ID, "action": "ADD"}, pending.ID)

	w, resp := env.do(t, http.MethodGet, "/api/v1/friendships", nil, me.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var page service.FriendPage
	require.NoError(t, json.Unmarshal(payload, &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, model.InvitationStatusSent, page.Items[0].Status)
	assert.Equal(t, "pending", page.Items[0].User.Username)

	// 他人视角只看到已确认的好友
	path := fmt.Sprintf("/api/v1/friendships/%d", me.ID)
	w, resp = env.do(t, http.MethodGet, path, nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	payload, err = json.Marshal(resp.Data)
	require.NoError(t, err)
	page = service.FriendPage{}
	require.NoError(t, json.Unmarshal(payload, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "friend", page.Items[0].User.Username)
}
