package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"brigade-service/config"
	"brigade-service/internal/domain/user"
	"brigade-service/internal/repository"
	brigade_errors "brigade-service/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		audience:  cfg.JWTAudience,
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	User      UserInfo `json:"user"`
}

type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AccessClaims carries the subject, username and role. The subject is the
// decimal user id.
type AccessClaims struct {
	Username string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c AccessClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, brigade_errors.ErrUnauthorized
	}
	return uint(id), nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return AuthResponse{}, brigade_errors.ErrAlreadyExists
	} else if !errors.Is(err, brigade_errors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := &user.User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         user.RoleUser,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.issue(*newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return AuthResponse{}, brigade_errors.ErrInvalidInput
	}

	u, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, brigade_errors.ErrNotFound) {
			return AuthResponse{}, brigade_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, brigade_errors.ErrUnauthorized
	}

	return s.issue(u)
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, brigade_errors.ErrUnauthorized
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, brigade_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return AccessClaims{}, brigade_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, brigade_errors.ErrUnauthorized
	}
	if _, err := claims.UserID(); err != nil {
		return AccessClaims{}, err
	}

	return *claims, nil
}

func (s *AuthService) issue(u user.User) (AuthResponse, error) {
	token, expiresIn, err := s.newAccessToken(u)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      toUserInfo(u),
	}, nil
}

func (s *AuthService) newAccessToken(u user.User) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	claims := AccessClaims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

type ctxKey string

var userIDKey ctxKey = "user_id"
var roleKey ctxKey = "role"

func WithUserContext(ctx context.Context, userID uint, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(roleKey)
	if value == nil {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

func validateRegister(in RegisterInput) error {
	if len(in.Username) < 3 || len(in.Username) > 32 {
		return brigade_errors.ErrInvalidInput
	}
	if len(in.Password) < 8 {
		return brigade_errors.ErrInvalidInput
	}
	var hasLetter, hasDigit bool
	for _, r := range in.Password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return brigade_errors.ErrInvalidInput
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func toUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
