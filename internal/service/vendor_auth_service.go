package service

import (
	"context"
	"strings"
	"time"

	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// VendorJWTClaims 商家 JWT 声明
type VendorJWTClaims struct {
	VendorID uint `json:"vendor_id"`
	jwt.RegisteredClaims
}

// VendorAuthService 商家身份解析
// 与顾客 Token 共用签名密钥，以 audience 区分。
type VendorAuthService struct {
	secret     string
	issuer     string
	vendorRepo repository.VendorRepository
}

// NewVendorAuthService 创建商家身份服务
func NewVendorAuthService(secret, issuer string, vendorRepo repository.VendorRepository) *VendorAuthService {
	return &VendorAuthService{
		secret:     secret,
		issuer:     strings.TrimSpace(issuer),
		vendorRepo: vendorRepo,
	}
}

// GenerateVendorJWT 签发商家 Token（种子数据与测试使用）
func (s *VendorAuthService) GenerateVendorJWT(vendor *models.VendorProfile, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := VendorJWTClaims{
		VendorID: vendor.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{constants.VendorTokenAudience},
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

// ParseVendorJWT 解析商家 Token，顾客 Token 没有商家 audience 会被拒绝
func (s *VendorAuthService) ParseVendorJWT(tokenString string) (*VendorJWTClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(constants.VendorTokenAudience),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	parser := jwt.NewParser(options...)
	claims := &VendorJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.VendorID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate 解析 Token 并确认商家资料存在
func (s *VendorAuthService) Authenticate(ctx context.Context, tokenString string) (*VendorJWTClaims, error) {
	claims, err := s.ParseVendorJWT(tokenString)
	if err != nil {
		return nil, err
	}
	vendor, err := s.vendorRepo.GetByID(ctx, claims.VendorID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	return claims, nil
}
