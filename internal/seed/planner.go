package seed

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type userCreator interface {
	CreateUser(user *domain.User) error
}

// EnsureInitialPlanner 保证系统中至少有一个可以登录并提交排座任务的账户
// 用户名已存在时视为已经创建过，不会覆盖其密码
func EnsureInitialPlanner(repo userCreator, cfg *config.Config) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = repo.CreateUser(&domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RolePlanner,
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key" {
		return nil
	}
	return err
}
