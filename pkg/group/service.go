package group

import (
	"context"
	"slices"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/model"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(groupRepository groupRepository, userService userService) *service {
	return &service{
		groupRepository: groupRepository,
		userService:     userService,
	}
}

type groupRepository interface {
	find(ctx context.Context, name string) (*model.Group, error)
	findAll(ctx context.Context) ([]model.Group, error)
	findOrCreate(ctx context.Context, name string) (*model.Group, error)
	addUser(ctx context.Context, group *model.Group, user *model.User) error
	removeUser(ctx context.Context, group *model.Group, user *model.User) error
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

type service struct {
	groupRepository groupRepository
	userService     userService
}

func (s *service) Find(ctx context.Context, name string) (*model.Group, error) {
	return s.groupRepository.find(ctx, name)
}

func (s *service) FindAll(ctx context.Context) ([]model.Group, error) {
	return s.groupRepository.findAll(ctx)
}

func (s *service) FindOrCreate(ctx context.Context, name string) (*model.Group, error) {
	return s.groupRepository.findOrCreate(ctx, name)
}

func (s *service) AddUser(ctx context.Context, groupName string, userId uint) error {
	group, err := s.groupRepository.find(ctx, groupName)
	if err != nil {
		return err
	}

	u, err := s.userService.FindById(ctx, userId)
	if err != nil {
		return err
	}

	return s.groupRepository.addUser(ctx, group, u)
}

// RemoveUser removes the user from the group. The last administrator can't be removed as nobody
// could manage groups afterwards.
func (s *service) RemoveUser(ctx context.Context, groupName string, userId uint) error {
	group, err := s.groupRepository.find(ctx, groupName)
	if err != nil {
		return err
	}

	isMember := slices.ContainsFunc(group.Users, func(u model.User) bool { return u.ID == userId })
	if !isMember {
		return errdef.NewNotFound("user %d is not a member of group %q", userId, groupName)
	}

	if group.Name == model.AdministratorGroupName && len(group.Users) == 1 {
		return errdef.NewConflict("can't remove the last member of group %q", groupName)
	}

	u, err := s.userService.FindById(ctx, userId)
	if err != nil {
		return err
	}

	return s.groupRepository.removeUser(ctx, group, u)
}
