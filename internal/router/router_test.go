package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vidtube-api/config"
	"github.com/oksasatya/vidtube-api/internal/container"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/memory"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
	"github.com/oksasatya/vidtube-api/pkg/validation"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Error      []any           `json:"error"`
}

type client struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	cfg := config.Load()
	cfg.UploadTempDir = t.TempDir()
	cfg.CookieSecure = false
	cfg.DebugMetricsEnabled = true

	store := memory.NewStore()
	container.SetConfig(cfg)
	container.SetLogger(helpers.NewNopLogger())
	container.SetRepositories(store.Users(), store.Users(), store.Videos())
	container.SetMedia(media.NewMemoryStore("http://media.test"))
	container.SetProber(media.NoProbe{})
	container.SetJWT(helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour))
	container.SetCookies(helpers.NewCookie("", false))
	container.SetIndexer(nil)
	container.SetRabbitPub(nil)

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg)
	reg.RegisterAll()
	return &client{t: t, engine: engine}
}

func (c *client) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		c.t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, w.Body.String(), err)
	}
	if env.StatusCode != w.Code {
		c.t.Fatalf("envelope status %d differs from HTTP %d", env.StatusCode, w.Code)
	}
	return w, env
}

func jsonReq(method, path string, body any, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, APIPrefix+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartReq(t *testing.T, method, path string, fields map[string]string, files map[string]string, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte("content of " + name))
	}
	_ = mw.Close()
	req := httptest.NewRequest(method, APIPrefix+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (c *client) registerAndLogin(username string) (string, string) {
	c.t.Helper()
	w, env := c.do(multipartReq(c.t, http.MethodPost, "/users/register", map[string]string{
		"username": username, "email": username + "@example.com", "fullName": "User " + username, "password": "secret123",
	}, map[string]string{"avatar": "avatar.png"}, ""))
	if w.Code != http.StatusCreated {
		c.t.Fatalf("register: %d %s", w.Code, env.Message)
	}
	w, env = c.do(jsonReq(http.MethodPost, "/users/login", map[string]string{"username": username, "password": "secret123"}, ""))
	if w.Code != http.StatusOK {
		c.t.Fatalf("login: %d %s", w.Code, env.Message)
	}
	var session struct {
		User struct {
			ID string `json:"_id"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.Unmarshal(env.Data, &session)
	return session.AccessToken, session.RefreshToken
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	c := newTestServer(t)

	w, env := c.do(multipartReq(t, http.MethodPost, "/users/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "fullName": "Alice", "password": "secret123",
	}, map[string]string{"avatar": "a.png"}, ""))
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("register: %d %s", w.Code, env.Message)
	}
	if bytes.Contains(env.Data, []byte("password")) || bytes.Contains(env.Data, []byte("refreshToken")) {
		t.Fatalf("secrets leaked: %s", env.Data)
	}

	w, env = c.do(multipartReq(t, http.MethodPost, "/users/register", map[string]string{
		"username": "alice", "email": "other@example.com", "fullName": "Alice", "password": "secret123",
	}, map[string]string{"avatar": "a.png"}, ""))
	if w.Code != http.StatusConflict || env.Success || string(env.Data) != "null" || env.Error == nil {
		t.Fatalf("duplicate: %d %+v", w.Code, env)
	}

	w, env = c.do(multipartReq(t, http.MethodPost, "/users/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "fullName": "Bob", "password": "secret123",
	}, nil, ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing avatar: %d %s", w.Code, env.Message)
	}

	w, _ = c.do(jsonReq(http.MethodPost, "/users/login", map[string]string{"username": "nobody", "password": "x"}, ""))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: %d", w.Code)
	}
	w, _ = c.do(jsonReq(http.MethodPost, "/users/login", map[string]string{"email": "alice@example.com", "password": "wrong"}, ""))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", w.Code)
	}

	req := jsonReq(http.MethodPost, "/users/login", map[string]string{"email": "alice@example.com", "password": "secret123"}, "")
	w, env = c.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, env.Message)
	}
	cookies := map[string]*http.Cookie{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	if cookies[helpers.AccessCookie] == nil || cookies[helpers.RefreshCookie] == nil || !cookies[helpers.AccessCookie].HttpOnly {
		t.Fatal("expected http-only session cookies")
	}
	var session struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.Unmarshal(env.Data, &session)
	if session.AccessToken != cookies[helpers.AccessCookie].Value {
		t.Fatal("body and cookie tokens should match")
	}

	req = jsonReq(http.MethodGet, "/users/profile", nil, "")
	req.AddCookie(cookies[helpers.AccessCookie])
	if w, env = c.do(req); w.Code != http.StatusOK {
		t.Fatalf("profile via cookie: %d %s", w.Code, env.Message)
	}
	if w, _ = c.do(jsonReq(http.MethodGet, "/users/profile", nil, "")); w.Code != http.StatusUnauthorized {
		t.Fatalf("profile without token: %d", w.Code)
	}

	w, env = c.do(jsonReq(http.MethodPost, "/users/refresh-token", map[string]string{"refreshToken": session.RefreshToken}, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, env.Message)
	}
	var next struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.Unmarshal(env.Data, &next)
	if next.RefreshToken == session.RefreshToken {
		t.Fatal("refresh token must rotate")
	}
	if w, _ = c.do(jsonReq(http.MethodPost, "/users/refresh-token", map[string]string{"refreshToken": session.RefreshToken}, "")); w.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: %d", w.Code)
	}

	w, env = c.do(jsonReq(http.MethodPost, "/users/refresh-token", map[string]string{"refreshToken": next.RefreshToken}, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("second refresh: %d %s", w.Code, env.Message)
	}
	var third struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.Unmarshal(env.Data, &third)
	if third.RefreshToken == next.RefreshToken || third.RefreshToken == session.RefreshToken {
		t.Fatal("each refresh must issue a token distinct from all earlier ones")
	}

	if w, _ = c.do(jsonReq(http.MethodPost, "/users/logout", nil, third.AccessToken)); w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	req = jsonReq(http.MethodPost, "/users/refresh-token", nil, "")
	req.AddCookie(&http.Cookie{Name: helpers.RefreshCookie, Value: third.RefreshToken})
	if w, _ = c.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: %d", w.Code)
	}

	// access tokens are stateless and stay valid until they expire
	if w, env = c.do(jsonReq(http.MethodGet, "/users/profile", nil, third.AccessToken)); w.Code != http.StatusOK {
		t.Fatalf("profile after logout with old access token: %d %s", w.Code, env.Message)
	}
}

func TestRegisterAcceptsShortNonBlankFields(t *testing.T) {
	c := newTestServer(t)

	w, env := c.do(multipartReq(t, http.MethodPost, "/users/register", map[string]string{
		"username": "jo", "email": "jo@example.com", "fullName": "J", "password": "pass",
	}, map[string]string{"avatar": "a.png"}, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("short password: %d %s %v", w.Code, env.Message, env.Error)
	}
	if w, env = c.do(jsonReq(http.MethodPost, "/users/login", map[string]string{"username": "jo", "password": "pass"}, "")); w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, env.Message)
	}

	w, env = c.do(multipartReq(t, http.MethodPost, "/users/register", map[string]string{
		"username": "kim", "email": "kim@example.com", "fullName": "Kim", "password": "   ",
	}, map[string]string{"avatar": "a.png"}, ""))
	if w.Code != http.StatusBadRequest || len(env.Error) == 0 {
		t.Fatalf("blank password: %d %+v", w.Code, env)
	}
}

func TestAccountRoutes(t *testing.T) {
	c := newTestServer(t)
	access, _ := c.registerAndLogin("carol")
	c.registerAndLogin("dave")

	w, env := c.do(jsonReq(http.MethodPatch, "/users/change-password", map[string]string{"currentPassword": "nope", "newPassword": "another123"}, access))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current password: %d %s", w.Code, env.Message)
	}
	w, env = c.do(jsonReq(http.MethodPatch, "/users/change-password", map[string]string{"currentPassword": "secret123"}, access))
	if w.Code != http.StatusBadRequest || len(env.Error) == 0 {
		t.Fatalf("missing new password: %d %+v", w.Code, env)
	}

	w, _ = c.do(jsonReq(http.MethodPatch, "/users/update-account", map[string]string{"fullName": "Carol", "username": "dave"}, access))
	if w.Code != http.StatusConflict {
		t.Fatalf("taken username: %d", w.Code)
	}

	w, env = c.do(multipartReq(t, http.MethodPatch, "/users/update-cover-image", nil, map[string]string{"coverImage": "c.jpg"}, access))
	if w.Code != http.StatusOK || !bytes.Contains(env.Data, []byte("covers/")) {
		t.Fatalf("cover image: %d %s", w.Code, env.Data)
	}

	w, env = c.do(jsonReq(http.MethodGet, "/users/c/channel/DAVE", nil, access))
	if w.Code != http.StatusOK {
		t.Fatalf("channel: %d %s", w.Code, env.Message)
	}
	var p struct {
		SubscriberCount   int  `json:"subscriberCount"`
		SubscribedToCount int  `json:"subscribedToCount"`
		IsSubscribed      bool `json:"isSubscribed"`
	}
	_ = json.Unmarshal(env.Data, &p)
	if p.SubscriberCount != 0 || p.SubscribedToCount != 0 || p.IsSubscribed {
		t.Fatalf("unexpected channel %+v", p)
	}
	if w, _ = c.do(jsonReq(http.MethodGet, "/users/c/channel/ghost", nil, access)); w.Code != http.StatusNotFound {
		t.Fatalf("missing channel: %d", w.Code)
	}

	w, env = c.do(jsonReq(http.MethodGet, "/users/watch-history", nil, access))
	if w.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("history: %d %s", w.Code, env.Data)
	}
}

func TestVideoRoutes(t *testing.T) {
	c := newTestServer(t)
	owner, _ := c.registerAndLogin("maker")
	other, _ := c.registerAndLogin("viewer")

	w, env := c.do(multipartReq(t, http.MethodPost, "/videos", map[string]string{"title": "Test clip", "description": "first upload"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "t.jpg"}, owner))
	if w.Code != http.StatusCreated {
		t.Fatalf("publish: %d %s", w.Code, env.Message)
	}
	var v struct {
		ID          string `json:"_id"`
		Views       int64  `json:"views"`
		IsPublished bool   `json:"isPublished"`
		Uploader    *struct {
			Username string `json:"username"`
		} `json:"uploaderDetails"`
	}
	_ = json.Unmarshal(env.Data, &v)
	if v.ID == "" || !v.IsPublished || v.Uploader == nil || v.Uploader.Username != "maker" {
		t.Fatalf("unexpected video %s", env.Data)
	}

	w, _ = c.do(multipartReq(t, http.MethodPost, "/videos", map[string]string{"title": "x", "description": "y"}, nil, owner))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("publish without files: %d", w.Code)
	}

	w, env = c.do(jsonReq(http.MethodGet, "/videos/"+v.ID, nil, other))
	_ = json.Unmarshal(env.Data, &v)
	if w.Code != http.StatusOK || v.Views != 1 {
		t.Fatalf("get: %d views=%d", w.Code, v.Views)
	}
	w, env = c.do(jsonReq(http.MethodGet, "/users/watch-history", nil, other))
	if w.Code != http.StatusOK || !bytes.Contains(env.Data, []byte(v.ID)) {
		t.Fatalf("history should include the video: %s", env.Data)
	}
	if w, _ = c.do(jsonReq(http.MethodGet, "/videos/bad-id", nil, "")); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}

	w, env = c.do(jsonReq(http.MethodGet, "/videos?query=TEST&sortBy=views&sortType=asc", nil, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, env.Message)
	}
	var page struct {
		Docs      []json.RawMessage `json:"docs"`
		TotalDocs int64             `json:"totalDocs"`
		Page      int               `json:"page"`
		Limit     int               `json:"limit"`
	}
	_ = json.Unmarshal(env.Data, &page)
	if page.TotalDocs != 1 || len(page.Docs) != 1 || page.Page != 1 || page.Limit != 10 {
		t.Fatalf("unexpected page %s", env.Data)
	}

	if w, _ = c.do(jsonReq(http.MethodPatch, "/videos/"+v.ID, map[string]string{"title": "mine now"}, other)); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner update: %d", w.Code)
	}
	if w, _ = c.do(jsonReq(http.MethodDelete, "/videos/"+v.ID, nil, other)); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: %d", w.Code)
	}
	if w, _ = c.do(jsonReq(http.MethodPatch, "/videos/"+v.ID, map[string]string{"title": "Renamed"}, owner)); w.Code != http.StatusOK {
		t.Fatalf("owner update: %d", w.Code)
	}

	w, env = c.do(jsonReq(http.MethodPatch, "/videos/"+v.ID+"/toggle-publish", nil, owner))
	if w.Code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"isPublished":false`)) {
		t.Fatalf("toggle: %d %s", w.Code, env.Data)
	}
	if w, _ = c.do(jsonReq(http.MethodGet, "/videos/"+v.ID, nil, other)); w.Code != http.StatusNotFound {
		t.Fatalf("unpublished video visible to others: %d", w.Code)
	}

	if w, _ = c.do(jsonReq(http.MethodDelete, "/videos/"+v.ID, nil, owner)); w.Code != http.StatusOK {
		t.Fatalf("owner delete: %d", w.Code)
	}
	if w, _ = c.do(jsonReq(http.MethodDelete, "/videos/"+v.ID, nil, owner)); w.Code != http.StatusNotFound {
		t.Fatalf("delete twice: %d", w.Code)
	}
}
