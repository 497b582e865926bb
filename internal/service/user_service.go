package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/MikuAddict/flea-market-sub000/internal/apperr"
	"github.com/MikuAddict/flea-market-sub000/internal/auth"
	"github.com/MikuAddict/flea-market-sub000/internal/config"
	"github.com/MikuAddict/flea-market-sub000/internal/datamodels/user"
)

// UserService 身份提供方：注册、登录签发 JWT、封禁管理
type UserService struct {
	repo user.Repository
	jwt  *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(repo user.Repository, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

// Register 注册普通用户
func (s *UserService) Register(ctx context.Context, username, password string) (*user.User, error) {
	if username == "" || password == "" {
		return nil, apperr.New(apperr.InvalidArgument, "用户名和密码不能为空")
	}
	u := &user.User{
		Username: username,
		Salt:     "flea-market", // 简化实现，真实业务请使用随机盐
		Role:     user.RoleUser,
	}
	u.Password = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "创建用户失败", err)
	}
	return u, nil
}

// Login 登录并返回带角色的 JWT；封禁用户不予签发
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.New(apperr.NotFound, "用户不存在")
		}
		return "", apperr.Wrap(apperr.Internal, "查询用户失败", err)
	}
	if hashPassword(password, u.Salt) != u.Password {
		return "", apperr.New(apperr.Unauthenticated, "密码错误")
	}
	if u.Role == user.RoleBan {
		return "", apperr.New(apperr.PermissionDenied, "账号已被封禁")
	}
	return auth.GenerateToken(s.jwt, u.ID, u.Username, u.Role)
}

// GetByID 查询用户
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "用户不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "查询用户失败", err)
	}
	return u, nil
}

// ListAll 全部用户，供后台使用
func (s *UserService) ListAll(ctx context.Context) ([]*user.User, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "查询用户列表失败", err)
	}
	return list, nil
}

// SetRole 修改用户角色（封禁/解封），仅管理员
func (s *UserService) SetRole(ctx context.Context, caller auth.Identity, userID int64, role string) error {
	if !caller.IsAdmin() {
		return apperr.New(apperr.PermissionDenied, "仅管理员可修改用户角色")
	}
	if role != user.RoleUser && role != user.RoleAdmin && role != user.RoleBan {
		return apperr.Newf(apperr.InvalidArgument, "未知角色: %s", role)
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return apperr.Wrap(apperr.Internal, "更新用户角色失败", err)
	}
	return nil
}
