package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yamdb/internal/access"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
	"yamdb/internal/repository"
)

// UserInput is an admin-supplied user record.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      model.Role
}

// UserPatch carries the fields of a partial update; nil means unchanged.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *model.Role
}

// UserService exposes admin user management and the caller's own profile.
type UserService interface {
	List(ctx context.Context, caller *model.User, search string) ([]model.User, error)
	Get(ctx context.Context, caller *model.User, username string) (*model.User, error)
	Create(ctx context.Context, caller *model.User, in UserInput) (*model.User, error)
	Update(ctx context.Context, caller *model.User, username string, patch UserPatch) (*model.User, error)
	Delete(ctx context.Context, caller *model.User, username string) error
	Me(ctx context.Context, caller *model.User) (*model.User, error)
	UpdateMe(ctx context.Context, caller *model.User, patch UserPatch) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	titles TitleCache
}

// NewUserService builds a UserService on a repository. Deleting a user drops
// their reviews, so cached title ratings are flushed.
func NewUserService(repo repository.UserRepository, titles TitleCache) UserService {
	return &userService{repo: repo, titles: titles}
}

func (s *userService) List(ctx context.Context, caller *model.User, search string) ([]model.User, error) {
	if err := access.Authorize(caller, access.ResourceUser, access.ActionList, 0); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, search)
}

func (s *userService) Get(ctx context.Context, caller *model.User, username string) (*model.User, error) {
	if err := access.Authorize(caller, access.ResourceUser, access.ActionRetrieve, 0); err != nil {
		return nil, err
	}
	return s.findByUsername(ctx, username)
}

func (s *userService) Create(ctx context.Context, caller *model.User, in UserInput) (*model.User, error) {
	if err := access.Authorize(caller, access.ResourceUser, access.ActionCreate, 0); err != nil {
		return nil, err
	}

	if in.Role == "" {
		in.Role = model.RoleUser
	}
	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      in.Role,
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, s.writeError(ctx, err, user, 0)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, caller *model.User, username string, patch UserPatch) (*model.User, error) {
	if err := access.Authorize(caller, access.ResourceUser, access.ActionUpdate, 0); err != nil {
		return nil, err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, patch)
}

func (s *userService) Delete(ctx context.Context, caller *model.User, username string) error {
	if err := access.Authorize(caller, access.ResourceUser, access.ActionDelete, 0); err != nil {
		return err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.titles.InvalidateAll(ctx)
	return nil
}

func (s *userService) Me(ctx context.Context, caller *model.User) (*model.User, error) {
	if err := access.Authorize(caller, access.ResourceProfile, access.ActionRetrieve, callerID(caller)); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, caller.ID)
}

// UpdateMe edits the caller's own profile. The role is read-only here: any
// requested change is silently dropped.
func (s *userService) UpdateMe(ctx context.Context, caller *model.User, patch UserPatch) (*model.User, error) {
	if err := access.Authorize(caller, access.ResourceProfile, access.ActionUpdate, callerID(caller)); err != nil {
		return nil, err
	}
	patch.Role = nil

	user, err := s.repo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return s.apply(ctx, user, patch)
}

func (s *userService) apply(ctx context.Context, user *model.User, patch UserPatch) (*model.User, error) {
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, s.writeError(ctx, err, user, user.ID)
	}
	return user, nil
}

// writeError explains a failed write, naming the field that clashed.
func (s *userService) writeError(ctx context.Context, err error, user *model.User, selfID uint) error {
	if !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("save user: %w", err)
	}

	fields := map[string]string{}
	if other, err := s.repo.FindByUsername(ctx, user.Username); err == nil && other.ID != selfID {
		fields["username"] = "a user with this username already exists"
	}
	if other, err := s.repo.FindByEmail(ctx, user.Email); err == nil && other.ID != selfID {
		fields["email"] = "a user with this email already exists"
	}
	return apperrors.Conflict("username or email already in use", fields)
}

func (s *userService) findByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func validateUser(user *model.User) error {
	errs := fieldErrors{}
	checkUsername(errs, user.Username)
	checkEmail(errs, user.Email)
	checkMaxLen(errs, "first_name", user.FirstName, model.NameMaxLength)
	checkMaxLen(errs, "last_name", user.LastName, model.NameMaxLength)
	if !user.Role.Valid() {
		errs.add("role", fmt.Sprintf("%q is not a valid choice", user.Role))
	}
	return errs.err()
}

func callerID(caller *model.User) uint {
	if caller == nil {
		return 0
	}
	return caller.ID
}
