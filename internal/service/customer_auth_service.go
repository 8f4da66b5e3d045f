package service

import (
	"context"
	"strings"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// CustomerJWTClaims 顾客 JWT 声明
type CustomerJWTClaims struct {
	CustomerID   uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// CustomerAuthService 顾客身份解析
// Token 由外部身份服务签发，这里只负责校验与状态检查。
type CustomerAuthService struct {
	secret       string
	issuer       string
	customerRepo repository.CustomerRepository
	store        *cache.Store
}

// NewCustomerAuthService 创建顾客身份服务
func NewCustomerAuthService(secret, issuer string, customerRepo repository.CustomerRepository, store *cache.Store) *CustomerAuthService {
	return &CustomerAuthService{
		secret:       secret,
		issuer:       strings.TrimSpace(issuer),
		customerRepo: customerRepo,
		store:        store,
	}
}

// GenerateCustomerJWT 签发顾客 Token（种子数据与测试使用）
func (s *CustomerAuthService) GenerateCustomerJWT(customer *models.Customer, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := CustomerJWTClaims{
		CustomerID:   customer.ID,
		Email:        customer.Email,
		TokenVersion: customer.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseCustomerJWT 解析顾客 Token
func (s *CustomerAuthService) ParseCustomerJWT(tokenString string) (*CustomerJWTClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	parser := jwt.NewParser(options...)
	claims := &CustomerJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.CustomerID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate 解析 Token 并确认顾客仍然有效
// 顾客状态优先从缓存读取，缓存未命中时回源数据库并回填。
func (s *CustomerAuthService) Authenticate(ctx context.Context, tokenString string) (*CustomerJWTClaims, error) {
	claims, err := s.ParseCustomerJWT(tokenString)
	if err != nil {
		return nil, err
	}
	state, err := s.loadAuthState(ctx, claims.CustomerID)
	if err != nil {
		return nil, err
	}
	if state.Status != constants.CustomerStatusActive {
		return nil, ErrCustomerDisabled
	}
	if state.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *CustomerAuthService) loadAuthState(ctx context.Context, customerID uint) (*cache.CustomerAuthState, error) {
	state, hit, err := s.store.GetCustomerAuthState(ctx, customerID)
	if err != nil {
		logger.Debugw("customer_auth_state_cache_get_failed", "customer_id", customerID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	state = cache.BuildCustomerAuthState(customer)
	if err := s.store.SetCustomerAuthState(ctx, state); err != nil {
		logger.Debugw("customer_auth_state_cache_set_failed", "customer_id", customerID, "error", err)
	}
	return state, nil
}
