package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autoparts/internal/config"
	"autoparts/internal/domain"
	"autoparts/internal/middleware"
	"autoparts/internal/repository"
	"autoparts/internal/service"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	key := strings.ToLower(user.Email)
	if _, exists := m.users[key]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[key] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[strings.ToLower(email)]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Role = role
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

var testJWT = config.JWTConfig{Secret: "test-secret", AccessExpiry: 15, RefreshExpiry: 7}

func newTestUserHandler() (*UserHandler, service.UserService) {
	userService := service.NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), testJWT)
	return NewUserHandler(userService, zap.NewNop()), userService
}

func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registration with invalid data returns validation errors", prop.ForAll(
		func(invalidCase int) bool {
			handler, _ := newTestUserHandler()

			var reqBody RegisterRequest

			switch invalidCase % 4 {
			case 0:
				// Empty email
				reqBody = RegisterRequest{Name: "Juan Pérez", Email: "", Password: "secreto1"}
			case 1:
				// Invalid email format
				reqBody = RegisterRequest{Name: "Juan Pérez", Email: "not-an-email", Password: "secreto1"}
			case 2:
				// Password under six characters
				reqBody = RegisterRequest{Name: "Juan Pérez", Email: "juan@example.com", Password: "abc"}
			case 3:
				// Digits are not allowed in names
				reqBody = RegisterRequest{Name: "R2D2", Email: "juan@example.com", Password: "secreto1"}
			}

			body, _ := json.Marshal(reqBody)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Register(w, req)

			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: Expected 400 status code, got %d", w.Code)
				return false
			}

			var response middleware.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Logf("FAIL: Could not decode error response: %v", err)
				return false
			}

			if response.Success || response.Details["validation_errors"] == nil {
				t.Logf("FAIL: Response missing validation errors")
				return false
			}

			return true
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_SuccessfulRegistrationReturnsProfileData(t *testing.T) {
	// bcrypt makes each case slow
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("successful registration returns a customer profile and tokens", prop.ForAll(
		func(email string, password string, name string) bool {
			handler, userService := newTestUserHandler()

			body, _ := json.Marshal(RegisterRequest{Name: name, Email: email, Password: password})
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Register(w, req)

			if w.Code != http.StatusCreated {
				t.Logf("FAIL: Expected 201 status code, got %d: %s", w.Code, w.Body.String())
				return false
			}

			var resp TokenResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Logf("FAIL: Could not decode response: %v", err)
				return false
			}

			if !resp.Success || resp.AccessToken == "" || resp.RefreshToken == "" {
				t.Logf("FAIL: Missing tokens")
				return false
			}
			if resp.User.Email != email || resp.User.Name != name {
				t.Logf("FAIL: Profile mismatch: %+v", resp.User)
				return false
			}
			// self-registration never grants admin
			if resp.User.Role != domain.RoleCustomer {
				t.Logf("FAIL: Role = %s", resp.User.Role)
				return false
			}
			if _, err := uuid.Parse(resp.User.ID); err != nil {
				t.Logf("FAIL: Profile ID is not a valid UUID: %v", err)
				return false
			}

			claims, err := userService.ValidateToken(resp.AccessToken)
			return err == nil && claims.UserID.String() == resp.User.ID
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{6,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidLoginReturnsBothTokens(t *testing.T) {
	// bcrypt makes each case slow
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("valid login returns access token and refresh token", prop.ForAll(
		func(email string, password string, name string) bool {
			handler, userService := newTestUserHandler()

			if _, err := userService.Register(context.Background(), name, email, password); err != nil {
				t.Logf("FAIL: Register() error = %v", err)
				return false
			}

			body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Login(w, req)

			if w.Code != http.StatusOK {
				t.Logf("FAIL: Expected 200 status code, got %d", w.Code)
				return false
			}

			var loginResp TokenResponse
			if err := json.NewDecoder(w.Body).Decode(&loginResp); err != nil {
				t.Logf("FAIL: Could not decode login response: %v", err)
				return false
			}

			if loginResp.AccessToken == "" || loginResp.RefreshToken == "" {
				t.Logf("FAIL: Token missing")
				return false
			}
			if loginResp.TokenType != "bearer" || loginResp.User.Email != email {
				t.Logf("FAIL: Unexpected login body %+v", loginResp)
				return false
			}

			newAccessToken, err := userService.RefreshToken(context.Background(), loginResp.RefreshToken)
			if err != nil || newAccessToken == "" {
				t.Logf("FAIL: Refresh token is not valid: %v", err)
				return false
			}

			return true
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{6,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	handler, _ := newTestUserHandler()
	body := `{"name":"Ana","email":"ana@example.com","password":"secreto1"}`

	first := httptest.NewRecorder()
	handler.Register(first, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	second := httptest.NewRecorder()
	handler.Register(second, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	if first.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", first.Code)
	}
	if second.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", second.Code)
	}
}

func TestWrongPasswordIsUnauthorized(t *testing.T) {
	handler, userService := newTestUserHandler()
	if _, err := userService.Register(context.Background(), "Ana", "ana@example.com", "secreto1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	w := httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"wrong-one"}`)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
