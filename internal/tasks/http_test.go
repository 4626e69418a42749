package tasks_test

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/todolist/internal/auth"
	"github.com/yourusername/todolist/internal/flash"
	"github.com/yourusername/todolist/internal/models"
	"github.com/yourusername/todolist/internal/repository"
	"github.com/yourusername/todolist/internal/tasks"
)

// stubService は戻り値を差し替えられるタスクサービスです。呼び出しを記録します。
type stubService struct {
	listResult []models.Task
	listErr    error
	addErr     error
	getResult  *models.Task
	getErr     error
	updateErr  error
	deleteErr  error
	calls      []string
}

func (s *stubService) List(_ context.Context, userID int64) ([]models.Task, error) {
	s.calls = append(s.calls, fmt.Sprintf("list:%d", userID))
	return s.listResult, s.listErr
}

func (s *stubService) Add(_ context.Context, userID int64, title string) error {
	s.calls = append(s.calls, fmt.Sprintf("add:%d:%s", userID, title))
	return s.addErr
}

func (s *stubService) Get(_ context.Context, taskID, userID int64) (*models.Task, error) {
	s.calls = append(s.calls, fmt.Sprintf("get:%d:%d", taskID, userID))
	return s.getResult, s.getErr
}

func (s *stubService) UpdateTitle(_ context.Context, taskID, userID int64, title string) error {
	s.calls = append(s.calls, fmt.Sprintf("update:%d:%d:%s", taskID, userID, title))
	return s.updateErr
}

func (s *stubService) Delete(_ context.Context, taskID, userID int64) error {
	s.calls = append(s.calls, fmt.Sprintf("delete:%d:%d", taskID, userID))
	return s.deleteErr
}

const taskTemplates = `
{{define "todolist.html"}}todolist user={{.UserName}}{{range .Tasks}} task={{.Title}}{{end}}{{end}}
{{define "edit.html"}}edit task={{.Task.Title}}{{end}}
`

const testUserID = int64(2)

func setupTaskRouter(t *testing.T, svc tasks.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions(auth.SessionCookieName, store))
	router.SetHTMLTemplate(template.Must(template.New("").Parse(taskTemplates)))

	// RequireLogin 相当のコンテキストを直接注入する
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextUserIDKey, testUserID)
		c.Set(auth.ContextUserNameKey, "Bea")
		c.Next()
	})

	rdb, _ := redismock.NewClientMock()
	flashes := flash.NewStore(rdb, 0)

	router.GET("/users/todolist", tasks.ListHandler(svc, flashes))
	router.POST("/users/tasks/add", tasks.AddHandler(svc, flashes))
	router.GET("/users/tasks/edit/:id", tasks.EditFormHandler(svc, flashes))
	router.POST("/users/tasks/update/:id", tasks.UpdateHandler(svc, flashes))
	router.POST("/users/tasks/delete/:id", tasks.DeleteHandler(svc, flashes))

	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doPost(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListHandlerRendersOwnedTasks(t *testing.T) {
	svc := &stubService{
		listResult: []models.Task{
			{ID: 2, Title: "Buy milk", UserID: testUserID, CreatedAt: time.Now()},
			{ID: 1, Title: "Walk the dog", UserID: testUserID, CreatedAt: time.Now().Add(-time.Hour)},
		},
	}
	router := setupTaskRouter(t, svc)

	rec := doGet(router, "/users/todolist")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user=Bea")
	assert.Contains(t, rec.Body.String(), "task=Buy milk")
	assert.Contains(t, rec.Body.String(), "task=Walk the dog")
	assert.Equal(t, []string{"list:2"}, svc.calls)
}

func TestListHandlerStoreFailureRedirectsToLanding(t *testing.T) {
	svc := &stubService{listErr: fmt.Errorf("connection refused")}
	router := setupTaskRouter(t, svc)

	rec := doGet(router, "/users/todolist")

	// 部分的な一覧は表示しない
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAddHandlerRedirectsToList(t *testing.T) {
	svc := &stubService{}
	router := setupTaskRouter(t, svc)

	rec := doPost(router, "/users/tasks/add", url.Values{"title": {" Buy milk "}})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users/todolist", rec.Header().Get("Location"))
	assert.Equal(t, []string{"add:2: Buy milk "}, svc.calls)
}

func TestAddHandlerEmptyTitleStillRedirects(t *testing.T) {
	svc := &stubService{addErr: tasks.ErrEmptyTitle}
	router := setupTaskRouter(t, svc)

	rec := doPost(router, "/users/tasks/add", url.Values{"title": {"   "}})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users/todolist", rec.Header().Get("Location"))
}

func TestEditFormHandlerRendersTask(t *testing.T) {
	svc := &stubService{getResult: &models.Task{ID: 5, Title: "Buy milk", UserID: testUserID}}
	router := setupTaskRouter(t, svc)

	rec := doGet(router, "/users/tasks/edit/5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "task=Buy milk")
	assert.Equal(t, []string{"get:5:2"}, svc.calls)
}

func TestEditFormHandlerNotFoundRedirects(t *testing.T) {
	svc := &stubService{getErr: repository.ErrTaskNotFound}
	router := setupTaskRouter(t, svc)

	rec := doGet(router, "/users/tasks/edit/5")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users/todolist", rec.Header().Get("Location"))
}

func TestEditFormHandlerInvalidIDSkipsService(t *testing.T) {
	svc := &stubService{}
	router := setupTaskRouter(t, svc)

	rec := doGet(router, "/users/tasks/edit/not-a-number")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users/todolist", rec.Header().Get("Location"))
	assert.Empty(t, svc.calls, "service must not be called for a malformed id")
}

func TestUpdateHandler(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
	}{
		{name: "更新成功"},
		{name: "他人または存在しないタスク", updateErr: repository.ErrTaskNotFound},
		{name: "空タイトル", updateErr: tasks.ErrEmptyTitle},
		{name: "ストア障害", updateErr: fmt.Errorf("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{updateErr: tt.updateErr}
			router := setupTaskRouter(t, svc)

			rec := doPost(router, "/users/tasks/update/5", url.Values{"title": {"New title"}})

			// どの結果でも必ず一覧へ戻る
			require.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/users/todolist", rec.Header().Get("Location"))
			assert.Equal(t, []string{"update:5:2:New title"}, svc.calls)
		})
	}
}

func TestDeleteHandler(t *testing.T) {
	tests := []struct {
		name      string
		deleteErr error
	}{
		{name: "削除成功"},
		{name: "他人または存在しないタスク", deleteErr: repository.ErrTaskNotFound},
		{name: "ストア障害", deleteErr: fmt.Errorf("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{deleteErr: tt.deleteErr}
			router := setupTaskRouter(t, svc)

			rec := doPost(router, "/users/tasks/delete/5", url.Values{})

			require.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/users/todolist", rec.Header().Get("Location"))
			assert.Equal(t, []string{"delete:5:2"}, svc.calls)
		})
	}
}
