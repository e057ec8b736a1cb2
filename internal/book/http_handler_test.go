package book

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbff/internal/author"
	"bookbff/internal/metrics"
	"bookbff/internal/store"
	"bookbff/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *MockAuthorResolver, *MockPublisher, *store.Memory[Book]) {
	t.Helper()
	ctrl := gomock.NewController(t)
	resolver := NewMockAuthorResolver(ctrl)
	pub := NewMockPublisher(ctrl)
	repo := store.NewMemory[Book]()
	svc := NewService(repo, resolver, pub, metrics.NewNopRecorder(), WithLogger(testutil.DiscardLogger()))

	r := chi.NewRouter()
	NewHTTPHandler(svc).RegisterRoutes(r)
	return r, resolver, pub, repo
}

func TestHTTPHandler_Create(t *testing.T) {
	router, resolver, pub, repo := newTestRouter(t)

	t.Run("success", func(t *testing.T) {
		resolver.EXPECT().ResolveAuthor(gomock.Any(), testutil.TestAuthorID).Return(author.View{ID: testutil.TestAuthorID}, true)
		pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/api/v1/books", map[string]any{
			"title":    "Go in Practice",
			"authorId": testutil.TestAuthorID.String(),
			"pages":    350,
		}))

		require.Equal(t, http.StatusCreated, w.Code)
		body := testutil.RecordHTTPResponse(w).Body
		assert.Equal(t, "Go in Practice", body["title"])
		assert.Equal(t, testutil.TestAuthorID.String(), body["authorId"])
		assert.Equal(t, float64(350), body["pages"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("author not found", func(t *testing.T) {
		before := repo.Len()
		missing := uuid.New()
		resolver.EXPECT().ResolveAuthor(gomock.Any(), missing).Return(author.View{}, false)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/api/v1/books", map[string]any{
			"title":    "Go in Practice",
			"authorId": missing.String(),
			"pages":    350,
		}))

		require.Equal(t, http.StatusNotFound, w.Code)
		errBody, _ := testutil.RecordHTTPResponse(w).Body["error"].(map[string]interface{})
		assert.Equal(t, "AUTHOR_NOT_FOUND", errBody["code"])
		assert.Equal(t, before, repo.Len())
	})

	t.Run("validation error", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/api/v1/books", map[string]any{
			"title": "",
			"pages": 0,
		}))

		require.Equal(t, http.StatusBadRequest, w.Code)
		errBody, _ := testutil.RecordHTTPResponse(w).Body["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
		assert.Len(t, errBody["details"], 3)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/books", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_GetByID(t *testing.T) {
	router, _, _, repo := newTestRouter(t)
	stored, err := repo.Add(Book{ID: testutil.TestBookID, Title: "Stored", Pages: 5, AuthorID: testutil.TestAuthorID})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/v1/books/"+stored.ID.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"`+testutil.TestBookID.String()+`","authorId":"`+testutil.TestAuthorID.String()+`","title":"Stored","pages":5}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/v1/books/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/v1/books/123", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_List(t *testing.T) {
	router, _, _, repo := newTestRouter(t)
	_, _ = repo.Add(Book{ID: uuid.New(), Title: "One", Pages: 1, AuthorID: testutil.TestAuthorID})
	_, _ = repo.Add(Book{ID: uuid.New(), Title: "Two", Pages: 2, AuthorID: testutil.TestAuthorID})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/api/v1/books", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var listed []View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "One", listed[0].Title)
	assert.Equal(t, "Two", listed[1].Title)
}
