package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/dmitrijs2005/myrecipe/internal/dbx"
	"github.com/dmitrijs2005/myrecipe/internal/server/auth"
	"github.com/dmitrijs2005/myrecipe/internal/server/config"
	"github.com/dmitrijs2005/myrecipe/internal/server/models"
	itemsrepo "github.com/dmitrijs2005/myrecipe/internal/server/repositories/items"
	refreshtokensrepo "github.com/dmitrijs2005/myrecipe/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/myrecipe/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

// base64 of 32 bytes, good enough for HS256 in tests.
const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newTokenManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(testSecret, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func newAuthService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *AuthService {
	t.Helper()
	cfg := &config.Config{BCryptCost: bcrypt.MinCost}
	return NewAuthService(db, rm, newTokenManager(t), cfg)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return string(h)
}

type fakeUsersRepo struct {
	createIn  *models.User
	createErr error

	getOut *models.User
	getErr error

	lastLoginID  string
	lastLoginErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createIn = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u1"
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	f.lastLoginID = id
	return f.lastLoginErr
}

type fakeRefreshRepo struct {
	createdToken   string
	createdUserID  string
	createdRole    string
	createdExpires time.Time
	createErr      error

	findOut *models.RefreshToken
	findErr error

	deletedToken string
	delErr       error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, role string, token string, expiresAt time.Time) error {
	f.createdUserID = userID
	f.createdRole = role
	f.createdToken = token
	f.createdExpires = expiresAt
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.deletedToken = token
	return f.delErr
}

func (f *fakeRefreshRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	it itemsrepo.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Items(db dbx.DBTX) itemsrepo.Repository                { return m.it }

// refreshTokenFor mints a real refresh token and mirrors it into the fake
// store, as if a previous login had persisted it.
func refreshTokenFor(t *testing.T, s *AuthService, rm *fakeRepoManager, userID, role string) string {
	t.Helper()
	pair, err := s.tokens.IssuePair(userID, role)
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	rm.r.findOut = &models.RefreshToken{
		Token:     pair.RefreshToken,
		UserID:    userID,
		Role:      role,
		ExpiresAt: pair.RefreshExpiresAt,
	}
	return pair.RefreshToken
}

// --- Signup ---

func TestSignup_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	user, pair, err := s.Signup(context.Background(), "Alice@Example.com", "password1", "alice")
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if user.ID != "u1" || user.Email != "alice@example.com" || user.Role != models.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !strings.HasPrefix(user.Handle, "user_") || len(user.Handle) != len("user_")+14+5 {
		t.Fatalf("unexpected handle: %q", user.Handle)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")) != nil {
		t.Fatal("password hash does not verify")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "Bearer" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
	if rm.r.createdToken != pair.RefreshToken || rm.r.createdUserID != "u1" || rm.r.createdRole != models.RoleUser {
		t.Fatalf("refresh token not persisted: %+v", rm.r)
	}
}

func TestSignup_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	tests := []struct {
		name     string
		email    string
		password string
		nickname string
	}{
		{"empty email", "", "password1", "alice"},
		{"email without at sign", "alice.example.com", "password1", "alice"},
		{"short password", "alice@example.com", "short", "alice"},
		{"empty nickname", "alice@example.com", "password1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Signup(context.Background(), tt.email, tt.password, tt.nickname)
			if common.KindOf(err) != common.KindValidation {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: usersrepo.ErrDuplicateEmail}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	_, _, err := s.Signup(context.Background(), "alice@example.com", "password1", "alice")
	if common.KindOf(err) != common.KindDuplicate {
		t.Fatalf("want duplicate error, got %v", err)
	}
	if common.CodeOf(err) != common.CodeDuplicateEmail {
		t.Fatalf("want %s, got %s", common.CodeDuplicateEmail, common.CodeOf(err))
	}
	if rm.r.createdToken != "" {
		t.Fatal("no tokens may be issued for a failed signup")
	}
}

func TestSignup_HandleCollisionIsPersistenceError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: usersrepo.ErrDuplicateHandle}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	_, _, err := s.Signup(context.Background(), "alice@example.com", "password1", "alice")
	if common.KindOf(err) != common.KindPersistence {
		t.Fatalf("want persistence error, got %v", err)
	}
}

func TestSignup_PersistenceError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: errors.New("db down")}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	_, _, err := s.Signup(context.Background(), "alice@example.com", "password1", "alice")
	if common.KindOf(err) != common.KindPersistence {
		t.Fatalf("want persistence error, got %v", err)
	}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{
			ID:           "u1",
			Email:        "alice@example.com",
			PasswordHash: mustHash(t, "password1"),
			Role:         models.RoleUser,
		}},
		r: &fakeRefreshRepo{},
	}
	s := newAuthService(t, db, rm)

	user, pair, err := s.Login(context.Background(), "alice@example.com", "password1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if rm.u.lastLoginID != "u1" {
		t.Fatal("last login was not recorded")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	unknown := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{}}
	wrongPwd := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", PasswordHash: mustHash(t, "password1"), Role: models.RoleUser}},
		r: &fakeRefreshRepo{},
	}

	_, _, errUnknown := newAuthService(t, db, unknown).Login(context.Background(), "nobody@example.com", "password1")
	_, _, errWrong := newAuthService(t, db, wrongPwd).Login(context.Background(), "alice@example.com", "wrong-password")

	if common.KindOf(errUnknown) != common.KindUnauthorized || common.KindOf(errWrong) != common.KindUnauthorized {
		t.Fatalf("want unauthorized for both, got %v / %v", errUnknown, errWrong)
	}
	var ce1, ce2 *common.Error
	if !errors.As(errUnknown, &ce1) || !errors.As(errWrong, &ce2) || ce1.Message != ce2.Message {
		t.Fatalf("messages must not reveal which check failed: %v / %v", errUnknown, errWrong)
	}
}

// --- Refresh ---

func TestRefresh_Success_RotatesToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	old := refreshTokenFor(t, s, rm, "u1", models.RoleAdmin)

	pair, err := s.Refresh(context.Background(), old)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if rm.r.deletedToken != old {
		t.Fatal("old refresh token was not consumed")
	}
	if rm.r.createdToken != pair.RefreshToken || rm.r.createdToken == old {
		t.Fatal("new refresh token was not persisted")
	}
	// Identity comes from the stored row.
	if rm.r.createdUserID != "u1" || rm.r.createdRole != models.RoleAdmin {
		t.Fatalf("unexpected identity: %s/%s", rm.r.createdUserID, rm.r.createdRole)
	}
	claims, err := s.tokens.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefresh_ReplayedTokenIsUnauthorized(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{findErr: common.ErrorNotFound}}
	s := newAuthService(t, db, rm)

	pair, err := s.tokens.IssuePair("u1", models.RoleUser)
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	_, err = s.Refresh(context.Background(), pair.RefreshToken)
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefresh_ConcurrentLoserIsUnauthorized(t *testing.T) {
	// The Find succeeds but the conditional delete affects zero rows,
	// meaning another request consumed the token first.
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{delErr: common.ErrorNotFound}}
	s := newAuthService(t, db, rm)

	old := refreshTokenFor(t, s, rm, "u1", models.RoleUser)

	_, err := s.Refresh(context.Background(), old)
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
	if rm.r.createdToken != "" {
		t.Fatal("no new token may be issued by a losing request")
	}
}

func TestRefresh_ExpiredRowIsUnauthorized(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	old := refreshTokenFor(t, s, rm, "u1", models.RoleUser)
	rm.r.findOut.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := s.Refresh(context.Background(), old)
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
}

func TestRefresh_AccessTokenIsRejected(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	pair, err := s.tokens.IssuePair("u1", models.RoleUser)
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	_, err = s.Refresh(context.Background(), pair.AccessToken)
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
}

func TestRefresh_GarbageTokenIsRejected(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	_, err := s.Refresh(context.Background(), "not-a-jwt")
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
}

// --- Logout ---

func TestLogout_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	old := refreshTokenFor(t, s, rm, "u1", models.RoleUser)

	if err := s.Logout(context.Background(), old); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if rm.r.deletedToken != old {
		t.Fatal("refresh token was not revoked")
	}
}

func TestLogout_AlreadyRevokedIsUnauthorized(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{delErr: common.ErrorNotFound}}
	s := newAuthService(t, db, rm)

	old := refreshTokenFor(t, s, rm, "u1", models.RoleUser)

	err := s.Logout(context.Background(), old)
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized for a second logout, got %v", err)
	}
}

func TestLogout_InvalidTokenIsUnauthorized(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}}
	s := newAuthService(t, db, rm)

	err := s.Logout(context.Background(), "not-a-jwt")
	if common.KindOf(err) != common.KindUnauthorized {
		t.Fatalf("want unauthorized, got %v", err)
	}
}
