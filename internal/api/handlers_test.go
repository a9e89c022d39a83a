package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ravitejaungrala/TinyLink/internal/config"
	"github.com/ravitejaungrala/TinyLink/internal/models"
	"github.com/ravitejaungrala/TinyLink/internal/services"
)

// MockLinkRepository est une implémentation simulée de LinkRepository pour les tests des handlers.
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) CreateLink(link *models.Link) error {
	args := m.Called(link)
	return args.Error(0)
}

func (m *MockLinkRepository) GetLinkByCode(code string) (*models.Link, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Link), args.Error(1)
}

func (m *MockLinkRepository) CodeExists(code string) (bool, error) {
	args := m.Called(code)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkRepository) IncrementClicks(code string) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockLinkRepository) DeleteByCode(code string) (bool, error) {
	args := m.Called(code)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkRepository) GetAllLinks() ([]models.Link, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Link), args.Error(1)
}

func (m *MockLinkRepository) CountLinks() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// setupTestRouter construit un routeur Gin complet avec un vrai service
// branché sur le repository simulé.
func setupTestRouter(repo *MockLinkRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: 8080, BaseURL: "http://localhost:8080"},
		Allocator: config.AllocatorConfig{CodeLength: 6, MaxAttempts: 10},
	}
	linkService := services.NewLinkService(repo, cfg.Allocator.CodeLength, cfg.Allocator.MaxAttempts)

	router := gin.New()
	SetupRoutes(router, linkService, cfg)
	return router
}

func TestRedirectHandler_Success(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("GetLinkByCode", "abc123").Return(&models.Link{Code: "abc123", TargetURL: "https://example.com/a"}, nil)
	repo.On("IncrementClicks", "abc123").Return(nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/a", w.Header().Get("Location"))
	repo.AssertCalled(t, "IncrementClicks", "abc123")
}

func TestRedirectHandler_NotFound(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("GetLinkByCode", "nope42").Return(nil, gorm.ErrRecordNotFound)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	// Aucune mutation ne doit avoir lieu pour un code inconnu.
	repo.AssertNotCalled(t, "IncrementClicks", mock.Anything)
}

func TestRedirectHandler_ClickFailureStillRedirects(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("GetLinkByCode", "abc123").Return(&models.Link{Code: "abc123", TargetURL: "https://example.com/a"}, nil)
	// Panne simulée uniquement sur la comptabilisation du clic.
	repo.On("IncrementClicks", "abc123").Return(errors.New("database is locked"))

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	router.ServeHTTP(w, req)

	// La redirection doit aboutir malgré l'échec de la comptabilisation.
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/a", w.Header().Get("Location"))
}

func TestRedirectHandler_CorruptRecord(t *testing.T) {
	repo := new(MockLinkRepository)
	// Enregistrement corrompu : URL de destination absente.
	repo.On("GetLinkByCode", "broken").Return(&models.Link{Code: "broken"}, nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/broken", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	repo.AssertNotCalled(t, "IncrementClicks", mock.Anything)
}

func TestCreateLinkHandler_CustomCode(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("CodeExists", "short1").Return(false, nil)
	repo.On("CreateLink", mock.AnythingOfType("*models.Link")).Return(nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	body := `{"target_url": "https://x.com", "code": "short1"}`
	req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"short1"`)
	assert.Contains(t, w.Body.String(), `"full_short_url":"http://localhost:8080/short1"`)
}

func TestCreateLinkHandler_CodeTaken(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("CodeExists", "short1").Return(true, nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	body := `{"target_url": "https://x.com", "code": "short1"}`
	req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	repo.AssertNotCalled(t, "CreateLink", mock.Anything)
}

func TestCreateLinkHandler_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"corps vide", `{}`},
		{"code trop court", `{"target_url": "https://x.com", "code": "abc"}`},
		{"code non alphanumérique", `{"target_url": "https://x.com", "code": "abc-def"}`},
		{"URL invalide", `{"target_url": "ftp://x.com"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockLinkRepository)
			router := setupTestRouter(repo)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/links", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			repo.AssertNotCalled(t, "CreateLink", mock.Anything)
		})
	}
}

func TestListLinksHandler(t *testing.T) {
	now := time.Now()
	repo := new(MockLinkRepository)
	repo.On("GetAllLinks").Return([]models.Link{
		{ID: 2, Code: "recent", TargetURL: "https://recent.com", Clicks: 3, LastClicked: &now},
		{ID: 1, Code: "oldone", TargetURL: "https://old.com"},
	}, nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/links", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// L'ordre renvoyé par le repository (activité récente d'abord) est préservé.
	assert.Less(t,
		strings.Index(w.Body.String(), "recent"),
		strings.Index(w.Body.String(), "oldone"))
}

func TestGetLinkStatsHandler(t *testing.T) {
	now := time.Now()
	repo := new(MockLinkRepository)
	repo.On("GetLinkByCode", "abc123").Return(&models.Link{
		ID: 1, Code: "abc123", TargetURL: "https://x.com", Clicks: 7, LastClicked: &now,
	}, nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/links/abc123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clicks":7`)
}

func TestGetLinkStatsHandler_NotFound(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("GetLinkByCode", "nope42").Return(nil, gorm.ErrRecordNotFound)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/links/nope42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLinkHandler(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("DeleteByCode", "abc123").Return(true, nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/links/abc123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestDeleteLinkHandler_NotFound(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("DeleteByCode", "nope42").Return(false, nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/links/nope42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthCheckHandler(t *testing.T) {
	repo := new(MockLinkRepository)
	router := setupTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthzHandler(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("Ping").Return(nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestHealthzHandler_DatabaseDown(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("Ping").Return(errors.New("connection refused"))

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	// Panne de la base : 503, distinct du 404 d'un lien inconnu.
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDebugDBHandler(t *testing.T) {
	repo := new(MockLinkRepository)
	repo.On("Ping").Return(nil)
	repo.On("CountLinks").Return(int64(42), nil)

	router := setupTestRouter(repo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/db", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"link_count":42`)
}
