package router

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	boltInfra "github.com/fastygo/taskboard/internal/infrastructure/boltdb"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/security"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	boltRepo "github.com/fastygo/taskboard/repository/boltdb"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type testServer struct {
	handler fasthttp.RequestHandler
	tokens  *security.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "taskboard.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := boltRepo.NewUserRepository(db)
	tasks := boltRepo.NewTaskRepository(db)
	tokens := security.NewTokenService(security.TokenConfig{Secret: "test-secret", Issuer: "taskboard", TTL: time.Hour})
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	adapter := httpcontext.NewAdapter(time.Second)

	r := New(Handlers{
		Auth:    apiHandler.NewAuthHandler(authUC.New(users, hasher, tokens, nil), adapter, nil),
		Profile: apiHandler.NewProfileHandler(profileUC.New(users, nil), adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskUC.New(tasks, nil), adapter, nil),
		Health:  apiHandler.NewHealthHandler(monitor.New(time.Minute, nil), "taskboard", adapter, nil),
	}, middleware.JWTAuth(tokens, nil), middleware.RefreshToken(tokens, nil), nil)

	return &testServer{handler: r.Handler, tokens: tokens}
}

func (s *testServer) do(method, uri, token, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	s.handler(ctx)
	return ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &out); err != nil {
		t.Fatalf("decode %q: %v", ctx.Response.Body(), err)
	}
	return out
}

func expectStatus(t *testing.T, ctx *fasthttp.RequestCtx, want int) {
	t.Helper()
	if got := ctx.Response.StatusCode(); got != want {
		t.Fatalf("%s %s: status = %d, want %d (body %s)",
			ctx.Method(), ctx.Path(), got, want, ctx.Response.Body())
	}
}

func expectError(t *testing.T, ctx *fasthttp.RequestCtx, status int, message string) {
	t.Helper()
	expectStatus(t, ctx, status)
	if got := decodeBody(t, ctx)["error"]; got != message {
		t.Errorf("%s %s: error = %v, want %q", ctx.Method(), ctx.Path(), got, message)
	}
}

func (s *testServer) register(t *testing.T, username, email string) string {
	t.Helper()
	ctx := s.do("POST", "/auth/register", "",
		`{"username":"`+username+`","email":"`+email+`","password":"password123"}`)
	expectStatus(t, ctx, fasthttp.StatusCreated)
	token, _ := decodeBody(t, ctx)["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestBannerAndHealth(t *testing.T) {
	s := newTestServer(t)

	ctx := s.do("GET", "/", "", "")
	expectStatus(t, ctx, fasthttp.StatusOK)
	if got := decodeBody(t, ctx)["message"]; got != "taskboard backend is running" {
		t.Errorf("banner = %v", got)
	}

	expectStatus(t, s.do("GET", "/health", "", ""), fasthttp.StatusOK)
	expectError(t, s.do("GET", "/nope", "", ""), fasthttp.StatusNotFound, "Route not found")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	ctx := s.do("POST", "/auth/register", "", `{"username":"alice","email":"a@x.com","password":"password123"}`)
	expectStatus(t, ctx, fasthttp.StatusCreated)
	body := decodeBody(t, ctx)
	if body["message"] != "Registration successful" {
		t.Errorf("message = %v", body["message"])
	}
	user := body["user"].(map[string]interface{})
	if user["username"] != "alice" || user["email"] != "a@x.com" || user["id"] == "" {
		t.Errorf("user = %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash exposed")
	}

	expectError(t, s.do("POST", "/auth/register", "", `{"username":"alice","email":"b@x.com","password":"password123"}`),
		fasthttp.StatusBadRequest, "Username or email already exists")
	expectError(t, s.do("POST", "/auth/register", "", `{"username":"bob","email":"b@x.com","password":"short"}`),
		fasthttp.StatusBadRequest, "Password must be at least 8 characters long")
	expectError(t, s.do("POST", "/auth/register", "", `{"email":"b@x.com","password":"password123"}`),
		fasthttp.StatusBadRequest, "Username and email are required")
	expectError(t, s.do("POST", "/auth/register", "", `{not json`),
		fasthttp.StatusBadRequest, "Invalid request body")

	long := strings.Repeat("a", 80)
	expectStatus(t, s.do("POST", "/auth/register", "", `{"username":"carol","email":"c@x.com","password":"`+long+`"}`),
		fasthttp.StatusCreated)
	expectStatus(t, s.do("POST", "/auth/login", "", `{"email":"c@x.com","password":"`+long+`"}`), fasthttp.StatusOK)

	login := s.do("POST", "/auth/login", "", `{"email":"a@x.com","password":"password123"}`)
	expectStatus(t, login, fasthttp.StatusOK)
	if decodeBody(t, login)["message"] != "Login successful" {
		t.Errorf("login body = %s", login.Response.Body())
	}

	expectError(t, s.do("POST", "/auth/login", "", `{"email":"a@x.com","password":"wrong-password"}`),
		fasthttp.StatusUnauthorized, "Invalid email or password")
	expectError(t, s.do("POST", "/auth/login", "", `{"email":"ghost@x.com","password":"password123"}`),
		fasthttp.StatusUnauthorized, "Invalid email or password")
	expectError(t, s.do("POST", "/auth/login", "", `{"email":"a@x.com"}`),
		fasthttp.StatusBadRequest, "Email and password required")
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	ctx := s.do("POST", "/auth/refresh", token, "")
	expectStatus(t, ctx, fasthttp.StatusOK)
	header := string(ctx.Response.Header.Peek(middleware.HeaderNewToken))
	if header == "" || decodeBody(t, ctx)["token"] != header {
		t.Fatalf("refresh token header %q body %s", header, ctx.Response.Body())
	}
	if result := s.tokens.Verify(header); result.Status != security.TokenValid {
		t.Errorf("refreshed token not valid: %v", result.Status)
	}

	expectError(t, s.do("POST", "/auth/refresh", "", ""), fasthttp.StatusUnauthorized, "No authorization header provided")

	logout := s.do("POST", "/auth/logout", token, "")
	expectStatus(t, logout, fasthttp.StatusOK)
	// Tokens are stateless, so the old one keeps working.
	expectStatus(t, s.do("GET", "/api/profile", token, ""), fasthttp.StatusOK)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	ctx := s.do("GET", "/api/profile", token, "")
	expectStatus(t, ctx, fasthttp.StatusOK)
	user := decodeBody(t, ctx)["user"].(map[string]interface{})
	if user["username"] != "alice" || user["createdAt"] == nil {
		t.Errorf("profile = %v", user)
	}

	ghost, _ := s.tokens.Issue("00000000-0000-0000-0000-000000000000", "ghost@x.com")
	expectError(t, s.do("GET", "/api/profile", ghost, ""), fasthttp.StatusNotFound, "User not found")
	expectError(t, s.do("GET", "/api/profile", "", ""), fasthttp.StatusUnauthorized, "No authorization header provided")
	expectError(t, s.do("GET", "/api/profile", "garbage", ""), fasthttp.StatusUnauthorized, "Invalid token")
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	created := s.do("POST", "/api/tasks", token, `{"title":"Write report","dueDate":"2030-01-15"}`)
	expectStatus(t, created, fasthttp.StatusCreated)
	task := decodeBody(t, created)
	id, _ := task["id"].(string)
	if id == "" || task["priority"] != "MEDIUM" || task["status"] != "PENDING" {
		t.Fatalf("created task = %v", task)
	}
	if task["dueDate"] != "2030-01-15T00:00:00Z" {
		t.Errorf("dueDate = %v", task["dueDate"])
	}

	expectError(t, s.do("POST", "/api/tasks", token, `{"description":"no title"}`),
		fasthttp.StatusBadRequest, "Title is required")
	expectError(t, s.do("POST", "/api/tasks", token, `{"title":"x","priority":"CRITICAL"}`),
		fasthttp.StatusBadRequest, "Invalid priority. Must be: LOW, MEDIUM, HIGH, URGENT")

	s.do("POST", "/api/tasks", token, `{"title":"Second","status":"IN_PROGRESS"}`)

	list := s.do("GET", "/api/tasks", token, "")
	expectStatus(t, list, fasthttp.StatusOK)
	var tasks []map[string]interface{}
	if err := json.Unmarshal(list.Response.Body(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 2 || tasks[0]["title"] != "Second" {
		t.Fatalf("list = %v", tasks)
	}

	filtered := s.do("GET", "/api/tasks?status=IN_PROGRESS", token, "")
	expectStatus(t, filtered, fasthttp.StatusOK)
	tasks = nil
	json.Unmarshal(filtered.Response.Body(), &tasks)
	if len(tasks) != 1 {
		t.Errorf("filtered list = %v", tasks)
	}

	paged := s.do("GET", "/api/tasks?limit=1&offset=1", token, "")
	expectStatus(t, paged, fasthttp.StatusOK)
	tasks = nil
	json.Unmarshal(paged.Response.Body(), &tasks)
	if len(tasks) != 1 || tasks[0]["title"] != "Write report" {
		t.Errorf("paged list = %v", tasks)
	}
	for _, query := range []string{"limit=-1", "offset=abc", "limit="} {
		expectError(t, s.do("GET", "/api/tasks?"+query, token, ""),
			fasthttp.StatusBadRequest, "Invalid pagination parameters")
	}

	update := s.do("PUT", "/api/tasks/"+id, token, `{"status":"COMPLETED","description":"done"}`)
	expectStatus(t, update, fasthttp.StatusOK)
	updated := decodeBody(t, update)
	if updated["status"] != "COMPLETED" || updated["description"] != "done" || updated["title"] != "Write report" {
		t.Errorf("partial update = %v", updated)
	}

	clear := s.do("PUT", "/api/tasks/"+id, token, `{"description":null,"dueDate":null}`)
	expectStatus(t, clear, fasthttp.StatusOK)
	cleared := decodeBody(t, clear)
	if cleared["description"] != nil || cleared["dueDate"] != nil {
		t.Errorf("clear update = %v", cleared)
	}

	expectError(t, s.do("PUT", "/api/tasks/"+id, token, `{"status":"DONE","title":"changed"}`),
		fasthttp.StatusBadRequest, "Invalid status. Must be: PENDING, IN_PROGRESS, COMPLETED, ARCHIVED")
	expectError(t, s.do("PUT", "/api/tasks/"+id, token, `{"title":""}`),
		fasthttp.StatusBadRequest, "Title cannot be empty")

	get := s.do("GET", "/api/tasks/"+id, token, "")
	expectStatus(t, get, fasthttp.StatusOK)
	if got := decodeBody(t, get)["title"]; got != "Write report" {
		t.Errorf("rejected update mutated task: title = %v", got)
	}

	expectStatus(t, s.do("DELETE", "/api/tasks/"+id, token, ""), fasthttp.StatusNoContent)
	expectError(t, s.do("DELETE", "/api/tasks/"+id, token, ""), fasthttp.StatusNotFound, "Task not found")
	expectError(t, s.do("GET", "/api/tasks/"+id, token, ""), fasthttp.StatusNotFound, "Task not found")
}

func TestTaskOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", "a@x.com")
	bob := s.register(t, "bob", "b@x.com")

	created := s.do("POST", "/api/tasks", alice, `{"title":"Private"}`)
	expectStatus(t, created, fasthttp.StatusCreated)
	id := decodeBody(t, created)["id"].(string)

	expectError(t, s.do("GET", "/api/tasks/"+id, bob, ""), fasthttp.StatusForbidden, "Unauthorized to view this task")
	expectError(t, s.do("PUT", "/api/tasks/"+id, bob, `{"priority":"BOGUS"}`),
		fasthttp.StatusForbidden, "Unauthorized to update this task")
	expectError(t, s.do("DELETE", "/api/tasks/"+id, bob, ""), fasthttp.StatusForbidden, "Unauthorized to delete this task")

	list := s.do("GET", "/api/tasks", bob, "")
	expectStatus(t, list, fasthttp.StatusOK)
	if body := string(list.Response.Body()); body != "[]" {
		t.Errorf("bob sees %s", body)
	}

	expectStatus(t, s.do("GET", "/api/tasks/"+id, alice, ""), fasthttp.StatusOK)
}
