package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/silab/internal/persistence"
)

// DefaultStudentEmailDomain is the institutional suffix required for student
// self-registration when no override is configured.
const DefaultStudentEmailDomain = "@mhs.uinsaid.ac.id"

const minPasswordLength = 6

// UserStore captures the persistence interactions needed by the user service.
type UserStore interface {
	CreateUser(ctx context.Context, user persistence.User) error
	UpdateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
	ListUsers(ctx context.Context) ([]persistence.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService manages lab accounts: admin CRUD plus public student
// self-registration.
type UserService struct {
	store         UserStore
	hashPassword  func(password string) (string, error)
	idGenerator   func() string
	now           func() time.Time
	studentDomain string
	logger        *slog.Logger
}

// NewUserService wires dependencies for account operations. studentDomain is
// the required email suffix for self-registered students; empty selects the
// default.
func NewUserService(store UserStore, idGenerator func() string, now func() time.Time, studentDomain string, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if studentDomain == "" {
		studentDomain = DefaultStudentEmailDomain
	}
	return &UserService{
		store: store,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator:   idGenerator,
		now:           now,
		studentDomain: studentDomain,
		logger:        defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates a student account from the public self-registration form.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (result User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.ID).InfoContext(ctx, "student registered")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	validateEmail(email, vErr)
	if email != "" && !strings.HasSuffix(email, s.studentDomain) {
		vErr.add("email", fmt.Sprintf("student email must end with %s", s.studentDomain))
	}
	validatePassword(params.Password, vErr)
	if params.Password != params.ConfirmPassword {
		vErr.add("confirm_password", "passwords do not match")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  strings.TrimSpace(params.DisplayName),
		Role:         RoleStudent,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nim := strings.TrimSpace(params.StudentID); nim != "" {
		user.StudentID = &nim
	}

	if err = s.store.CreateUser(ctx, user); err != nil {
		err = mapCatalogError(err)
		return
	}

	result = fromPersistenceUser(user)
	return
}

// CreateUser creates an account with an explicit role. Admin only.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (result User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	email := normalizeEmail(input.Email)

	vErr := &ValidationError{}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	validateEmail(email, vErr)
	validateRole(input.Role, vErr)
	validatePassword(input.Password, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(input.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		StudentID:    input.StudentID,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.store.CreateUser(ctx, user); err != nil {
		err = mapCatalogError(err)
		return
	}

	result = fromPersistenceUser(user)
	return
}

// UpdateUser applies changes to an existing account. Admin only. An empty
// password keeps the stored hash.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (result User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("user store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "user_id", params.UserID, "actor_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	email := normalizeEmail(input.Email)

	vErr := &ValidationError{}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	validateEmail(email, vErr)
	validateRole(input.Role, vErr)
	if input.Password != "" {
		validatePassword(input.Password, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing persistence.User
	existing, err = s.store.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapCatalogError(err)
		return
	}

	existing.Email = email
	existing.DisplayName = strings.TrimSpace(input.DisplayName)
	existing.Role = input.Role
	existing.StudentID = input.StudentID
	existing.UpdatedAt = s.now()
	if input.Password != "" {
		var hash string
		hash, err = s.hashPassword(input.Password)
		if err != nil {
			return
		}
		existing.PasswordHash = hash
	}

	if err = s.store.UpdateUser(ctx, existing); err != nil {
		err = mapCatalogError(err)
		return
	}

	result = fromPersistenceUser(existing)
	return
}

// GetUser returns a single account. Admins may read anyone; others only themselves.
func (s *UserService) GetUser(ctx context.Context, principal Principal, id string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.store == nil {
		return User{}, fmt.Errorf("user store not configured")
	}

	if id != principal.UserID && !principal.IsAdmin() {
		return User{}, ErrUnauthorized
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, mapCatalogError(err)
	}
	return fromPersistenceUser(user), nil
}

// ListUsers enumerates every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("user store not configured")
	}

	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]User, 0, len(users))
	for _, user := range users {
		out = append(out, fromPersistenceUser(user))
	}
	return out, nil
}

// DeleteUser removes an account. Admin only; admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("user store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "user_id", id, "actor_id", principal.UserID)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if id == principal.UserID {
		vErr := &ValidationError{}
		vErr.add("user_id", "cannot delete own account")
		return vErr
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		err = mapCatalogError(err)
		logger.ErrorContext(ctx, "user delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string, vErr *ValidationError) {
	if email == "" {
		vErr.add("email", "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}
}

func validateRole(role string, vErr *ValidationError) {
	switch role {
	case RoleAdmin, RoleLecturer, RoleStudent:
	default:
		vErr.add("role", "role must be admin, dosen, or mahasiswa")
	}
}

func validatePassword(password string, vErr *ValidationError) {
	if len(password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
}

func fromPersistenceUser(user persistence.User) User {
	return User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		StudentID:   user.StudentID,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
