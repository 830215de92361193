package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/domain/model"
	"github.com/loftsec/wicket/internal/mocks"
	"github.com/loftsec/wicket/internal/ports"
)

func newArticleHandlersWithMock(t *testing.T) (*ArticleHandlers, *mocks.MockArticleRepository, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockArticleRepository(ctrl)
	return &ArticleHandlers{Repo: mockRepo}, mockRepo, ctrl
}

func requestWithSession(r *http.Request, userID string, role domainauth.Role) *http.Request {
	session := &domainauth.Session{
		Token:  "test-token",
		UserID: userID,
		Name:   "Test User",
		Role:   role,
	}
	return r.WithContext(SetSessionInContext(r.Context(), session))
}

func TestArticleCreate_Success(t *testing.T) {
	h, mockRepo, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	expected := &model.Article{
		ID:       "art-123",
		Title:    "Hello",
		Body:     "Body text",
		AuthorID: "user-1",
	}

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req *model.CreateArticleRequest) (*model.Article, error) {
			// Author comes from the session, never from the payload
			assert.Equal(t, "user-1", req.AuthorID)
			return expected, nil
		})

	b, _ := json.Marshal(model.CreateArticleRequest{Title: "Hello", Body: "Body text"})
	r := httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewReader(b))
	r = requestWithSession(r, "user-1", domainauth.RolePrivileged)
	w := httptest.NewRecorder()

	h.Create(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got model.Article
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, expected.ID, got.ID)
	assert.Equal(t, "user-1", got.AuthorID)
}

func TestArticleCreate_InvalidJSON(t *testing.T) {
	h, _, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	r := httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewBufferString("{bad"))
	w := httptest.NewRecorder()

	h.Create(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestArticleCreate_ValidationError(t *testing.T) {
	h, mockRepo, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("title is required and cannot be empty"))

	b, _ := json.Marshal(model.CreateArticleRequest{Body: "no title"})
	r := httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewReader(b))
	r = requestWithSession(r, "user-1", domainauth.RolePrivileged)
	w := httptest.NewRecorder()

	h.Create(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation_failed", body["error"])
}

func TestArticleList_DefaultPagination(t *testing.T) {
	h, mockRepo, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	mockRepo.EXPECT().List(gomock.Any(), 50, 0).Return([]*model.Article{{ID: "a1"}}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	w := httptest.NewRecorder()

	h.List(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Articles []*model.Article `json:"articles"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Articles, 1)
	assert.Equal(t, 50, body.Limit)
}

func TestArticleList_ClampsLimit(t *testing.T) {
	h, mockRepo, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	mockRepo.EXPECT().List(gomock.Any(), maxArticleListLimit, 20).Return([]*model.Article{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/articles?limit=5000&offset=20", nil)
	w := httptest.NewRecorder()

	h.List(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestArticleGetByID_NotFound(t *testing.T) {
	h, mockRepo, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	mockRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, ports.ErrArticleNotFound)

	r := httptest.NewRequest(http.MethodGet, "/api/articles/missing", nil)
	r.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	h.GetByID(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArticleUpdate_NotFound(t *testing.T) {
	h, mockRepo, ctrl := newArticleHandlersWithMock(t)
	defer ctrl.Finish()

	mockRepo.EXPECT().Update(gomock.Any(), "missing", gomock.Any()).Return(nil, ports.ErrArticleNotFound)

	b, _ := json.Marshal(map[string]string{"title": "New title"})
	r := httptest.NewRequest(http.MethodPut, "/api/articles/missing", bytes.NewReader(b))
	r.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	h.Update(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArticleDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		h, mockRepo, ctrl := newArticleHandlersWithMock(t)
		defer ctrl.Finish()

		mockRepo.EXPECT().Delete(gomock.Any(), "a1").Return(true, nil)

		r := httptest.NewRequest(http.MethodDelete, "/api/articles/a1", nil)
		r.SetPathValue("id", "a1")
		w := httptest.NewRecorder()

		h.Delete(w, r)
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		h, mockRepo, ctrl := newArticleHandlersWithMock(t)
		defer ctrl.Finish()

		mockRepo.EXPECT().Delete(gomock.Any(), "a2").Return(false, nil)

		r := httptest.NewRequest(http.MethodDelete, "/api/articles/a2", nil)
		r.SetPathValue("id", "a2")
		w := httptest.NewRecorder()

		h.Delete(w, r)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
