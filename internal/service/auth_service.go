package service

import (
	"errors"
	"strings"
	"time"

	"github.com/lingqian-app/lingqian/internal/config"
	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务
type AuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewAuthService 创建认证服务
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// UserClaims 用户 JWT 声明
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Phone    string
	Nickname string
	Password string
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Register 手机号注册
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	phone := strings.TrimSpace(input.Phone)
	if len(phone) < 4 || len(input.Password) < 6 {
		return nil, ErrInvalidPassword
	}
	existing, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}
	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		nickname = "灵签用户" + phone[len(phone)-4:]
	}
	user := &models.User{
		Phone:        phone,
		Nickname:     nickname,
		PasswordHash: hash,
		Role:         constants.UserRoleMember,
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 手机号密码登录，返回用户 JWT
func (s *AuthService) Login(phone, password string) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidPassword
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}
	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidPassword
	}

	token, expiresAt, err := s.GenerateJWT(user, s.cfg.JWT)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLoginAt(user.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	user.LastLoginAt = &now
	return user, token, expiresAt, nil
}

// AdminLogin 管理员登录，管理端用独立密钥签发
func (s *AuthService) AdminLogin(phone, password string) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByPhone(phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil || user.Role != constants.UserRoleAdmin {
		return nil, "", time.Time{}, ErrInvalidPassword
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}
	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidPassword
	}
	token, expiresAt, err := s.GenerateJWT(user, s.cfg.AdminJWT)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// GenerateJWT 按指定密钥配置签发 token
func (s *AuthService) GenerateJWT(user *models.User, jwtCfg config.JWTConfig) (string, time.Time, error) {
	expireHours := jwtCfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := UserClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 token
func (s *AuthService) ParseUserJWT(tokenString string) (*UserClaims, error) {
	return parseClaims(tokenString, s.cfg.JWT.SecretKey)
}

// ParseAdminJWT 解析管理员 token
func (s *AuthService) ParseAdminJWT(tokenString string) (*UserClaims, error) {
	return parseClaims(tokenString, s.cfg.AdminJWT.SecretKey)
}

func parseClaims(tokenString, secret string) (*UserClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}
