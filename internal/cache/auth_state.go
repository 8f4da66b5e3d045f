package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/nextchow/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// CustomerAuthState 顾客鉴权快照
// 仅用于服务端 Redis 缓存，避免每个请求都查询数据库
type CustomerAuthState struct {
	CustomerID   uint   `json:"customer_id"`
	Status       string `json:"status"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

func customerAuthStateKey(customerID uint) string {
	return fmt.Sprintf("auth:customer:%d", customerID)
}

// BuildCustomerAuthState 从顾客模型构建鉴权快照
func BuildCustomerAuthState(customer *models.Customer) *CustomerAuthState {
	if customer == nil {
		return nil
	}
	return &CustomerAuthState{
		CustomerID:   customer.ID,
		Status:       customer.Status,
		TokenVersion: customer.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetCustomerAuthState 获取顾客鉴权快照
func (s *Store) GetCustomerAuthState(ctx context.Context, customerID uint) (*CustomerAuthState, bool, error) {
	if customerID == 0 {
		return nil, false, nil
	}
	var state CustomerAuthState
	hit, err := s.GetJSON(ctx, customerAuthStateKey(customerID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetCustomerAuthState 写入顾客鉴权快照
func (s *Store) SetCustomerAuthState(ctx context.Context, state *CustomerAuthState) error {
	if state == nil || state.CustomerID == 0 {
		return nil
	}
	return s.SetJSON(ctx, customerAuthStateKey(state.CustomerID), state, authStateCacheTTL)
}

// DelCustomerAuthState 删除顾客鉴权快照
func (s *Store) DelCustomerAuthState(ctx context.Context, customerID uint) error {
	if customerID == 0 {
		return nil
	}
	return s.Del(ctx, customerAuthStateKey(customerID))
}
