package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database/dbtest"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/interviews"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/jobs"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resumes"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/skills"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStorage struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[objectName] = b
	return nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

func (s *fakeStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.uploaded))
	for k := range s.uploaded {
		out = append(out, k)
	}
	return out
}

type fakeDispatcher struct {
	mu  sync.Mutex
	ids []uint
}

func (d *fakeDispatcher) DispatchParse(_ context.Context, resumeID uint, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, resumeID)
	return nil
}

type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	auth       *auth.AuthService
	storage    *fakeStorage
	dispatcher *fakeDispatcher
	skills     *skills.Service
}

func testKeys(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privPEM, pubPEM
}

// newRedisCounter 返回一个连不上的客户端：限流与黑名单调用失败时处理器按放行处理。
func newRedisCounter(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.Open(t)

	priv, pub := testKeys(t)
	authService, err := auth.NewAuthService(priv, pub, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{
		API: config.APIConfig{
			LoginRateLimitPerHour: 10,
			LoginLockThreshold:    5,
			LoginLockTTL:          time.Minute,
		},
		Upload: config.UploadConfig{
			MaxResumeBytes: 1 << 20,
			MaxVideoBytes:  1 << 20,
		},
	}

	aiService := ai.NewService(nil)
	skillService := skills.NewService(db, aiService, nil)
	dispatcher := &fakeDispatcher{}
	resumeService := resumes.NewService(db, dispatcher, nil, aiService, skillService, nil)
	store := newFakeStorage()

	router := NewRouter(cfg, nil)
	RegisterRoutes(router, Dependencies{
		Config:      cfg,
		DB:          db,
		Redis:       newRedisCounter(t),
		AuthService: authService,
		Storage:     store,
		Resumes:     resumeService,
		Skills:      skillService,
		Interviews:  interviews.NewService(db, aiService, nil),
		Jobs:        jobs.NewService(db, resumeService, nil),
	})

	return &testServer{
		router:     router,
		db:         db,
		auth:       authService,
		storage:    store,
		dispatcher: dispatcher,
		skills:     skillService,
	}
}

// userWithToken 创建用户并签发访问令牌。
func (s *testServer) userWithToken(t *testing.T, email string, role database.Role) (database.User, string) {
	t.Helper()
	user := dbtest.CreateUser(t, s.db, email, role)
	pair, err := s.auth.GenerateTokenPair(user)
	require.NoError(t, err)
	return user, pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, path, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
