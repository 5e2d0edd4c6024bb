package user

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/docbase/internal/domain"
)

// exportFields are the columns loaded by ExportUsers. The password hash is
// never exported.
var exportFields = []string{"id", "email", "first_name", "last_name", "status", "created_at", "updated_at"}

// userService implements domain.UserService.
type userService struct {
	repo domain.UserRepository
	cost int
}

// NewUserService creates a new UserService with the given repository.
func NewUserService(repo domain.UserRepository) domain.UserService {
	return &userService{repo: repo, cost: bcrypt.DefaultCost}
}

// ListUsers returns one page of users matching filter.
func (s *userService) ListUsers(ctx context.Context, filter domain.UserFilter, q domain.QueryOptions) (*domain.PageResult[domain.User], error) {
	filter.Email = normalizeEmail(filter.Email)
	return s.repo.Paginate(ctx, filter.Conditions(), q)
}

// ExportUsers returns every user matching filter without the password hash.
// A page size without a page caps the number of users returned.
func (s *userService) ExportUsers(ctx context.Context, filter domain.UserFilter, q domain.QueryOptions) ([]domain.User, error) {
	filter.Email = normalizeEmail(filter.Email)
	opts := domain.FindOptions{Projection: exportFields}
	if !q.Paginated() {
		opts.Limit = q.PageSize
	}
	return s.repo.FindAll(ctx, filter.Conditions(), q, opts)
}

// FindUserByEmail returns the visible user with the given email.
func (s *userService) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.Validationf("email is required")
	}
	return s.repo.FindOneByConditions(ctx, domain.Conditions{"email": email})
}

// UserExists reports whether a visible user has the given email.
func (s *userService) UserExists(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, domain.Validationf("email is required")
	}
	return s.repo.Exists(ctx, domain.Conditions{"email": email})
}

// CreateUser validates input, hashes the password, and stores an active user.
func (s *userService) CreateUser(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	return s.repo.Create(ctx, &domain.User{
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Status:    domain.UserStatusActive,
	})
}

// UpdateUser applies the non-nil fields of in to the user with the given email.
func (s *userService) UpdateUser(ctx context.Context, email string, in domain.UpdateUserInput) (*domain.User, error) {
	changes, err := updateChanges(in)
	if err != nil {
		return nil, err
	}

	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, user.ID, changes)
}

// DeleteUser soft-deletes the user with the given email, or removes it when
// permanent is set.
func (s *userService) DeleteUser(ctx context.Context, email string, permanent bool) error {
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if permanent {
		_, err = s.repo.PermanentlyDelete(ctx, user.ID)
	} else {
		_, err = s.repo.SoftDelete(ctx, user.ID)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateCreateInput expects trimmed names and a normalized email.
func validateCreateInput(in domain.CreateUserInput) error {
	if in.Email == "" {
		return domain.Validationf("email is required")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Name != "" || addr.Address != in.Email {
		return domain.Validationf("email must be a valid email address")
	}
	if err := validateName("first_name", in.FirstName); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.LastName) > 100 {
		return domain.Validationf("last_name must not exceed 100 characters")
	}
	if len(in.Password) < 8 {
		return domain.Validationf("password must be at least 8 characters")
	}
	// bcrypt ignores everything past 72 bytes.
	if len(in.Password) > 72 {
		return domain.Validationf("password must not exceed 72 characters")
	}
	return nil
}

func validateName(field, name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return domain.Validationf("%s is required", field)
	}
	if n > 100 {
		return domain.Validationf("%s must not exceed 100 characters", field)
	}
	return nil
}

// updateChanges converts in to a repository change set.
func updateChanges(in domain.UpdateUserInput) (map[string]any, error) {
	changes := map[string]any{}
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if err := validateName("first_name", name); err != nil {
			return nil, err
		}
		changes["first_name"] = name
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		if utf8.RuneCountInString(name) > 100 {
			return nil, domain.Validationf("last_name must not exceed 100 characters")
		}
		changes["last_name"] = name
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, domain.Validationf("status %q is not one of active, inactive, banned", *in.Status)
		}
		changes["status"] = string(*in.Status)
	}
	if len(changes) == 0 {
		return nil, domain.Validationf("at least one field must be updated")
	}
	return changes, nil
}
