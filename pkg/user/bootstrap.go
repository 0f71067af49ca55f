package user

import (
	"context"
	"fmt"

	"github.com/partyhub/partyhub/pkg/model"
)

type groupService interface {
	FindOrCreate(ctx context.Context, name string) (*model.Group, error)
	AddUser(ctx context.Context, groupName string, userId uint) error
}

type accountService interface {
	FindOrCreate(ctx context.Context, email, password string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

// CreateAdminUser runs at startup so there always is an administrator able to manage roles. It can
// be run any number of times, an existing account keeps its password.
func CreateAdminUser(ctx context.Context, email, password string, accounts accountService, groups groupService) error {
	admin, err := accounts.FindOrCreate(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to find or create administrator %q: %v", email, err)
	}

	if !admin.Validated {
		admin.Validated = true
		if err := accounts.Save(ctx, admin); err != nil {
			return fmt.Errorf("failed to validate administrator %q: %v", email, err)
		}
	}

	administrators, err := groups.FindOrCreate(ctx, model.AdministratorGroupName)
	if err != nil {
		return fmt.Errorf("failed to find or create group %q: %v", model.AdministratorGroupName, err)
	}

	if err := groups.AddUser(ctx, administrators.Name, admin.ID); err != nil {
		return fmt.Errorf("failed to grant administrator role to %q: %v", email, err)
	}
	return nil
}
