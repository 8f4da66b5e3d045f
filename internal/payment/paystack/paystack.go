package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("paystack config invalid")
	ErrRequestFailed    = errors.New("paystack request failed")
	ErrResponseInvalid  = errors.New("paystack response invalid")
	ErrSignatureInvalid = errors.New("paystack signature invalid")
)

const (
	defaultAPIBaseURL = "https://api.paystack.co"
	defaultTimeout    = 10 * time.Second
	signatureHeader   = "X-Paystack-Signature"
)

// Config Paystack 网关配置。
type Config struct {
	SecretKey   string
	APIBaseURL  string
	CallbackURL string
	Timeout     time.Duration
}

// InitializeInput 发起交易输入。
type InitializeInput struct {
	Email      string
	Amount     decimal.Decimal
	Currency   string
	OrderID    uint
	CustomerID uint
	// CallbackURL 为空时使用配置中的回调地址
	CallbackURL string
}

// InitializeResult 发起交易返回。
type InitializeResult struct {
	Reference        string
	AccessCode       string
	AuthorizationURL string
	Raw              map[string]interface{}
}

// VerifyResult 查询交易返回。
type VerifyResult struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// WebhookResult Webhook 解析结果。
type WebhookResult struct {
	Event     string
	Reference string
	Status    string
	Amount    decimal.Decimal
	OrderID   uint
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// Normalize 补齐默认值。
func (c *Config) Normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.CallbackURL = strings.TrimSpace(c.CallbackURL)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.APIBaseURL)); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	if cb := strings.TrimSpace(cfg.CallbackURL); cb != "" {
		if _, err := url.ParseRequestURI(cb); err != nil {
			return fmt.Errorf("%w: callback_url is invalid", ErrConfigInvalid)
		}
	}
	return nil
}

// InitializeTransaction 发起交易，返回跳转地址与流水号。
// 非 2xx、status=false 或缺少必需字段均视为失败。
func InitializeTransaction(ctx context.Context, cfg *Config, input InitializeInput) (*InitializeResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrConfigInvalid)
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	callbackURL := strings.TrimSpace(input.CallbackURL)
	if callbackURL == "" {
		callbackURL = cfg.CallbackURL
	}
	amount := input.Amount.Round(2)

	payload := map[string]interface{}{
		"email":        email,
		"amount":       strconv.FormatInt(amount.Shift(2).IntPart(), 10),
		"callback_url": callbackURL,
		"metadata": map[string]interface{}{
			"order_id": input.OrderID,
			"user_id":  input.CustomerID,
			"amount":   amount.StringFixed(2),
		},
	}
	if currency := strings.ToUpper(strings.TrimSpace(input.Currency)); currency != "" {
		payload["currency"] = currency
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: initialize status %d", ErrResponseInvalid, statusCode)
	}
	raw, data, err := decodeEnvelope(respBody)
	if err != nil {
		return nil, err
	}
	result := &InitializeResult{
		Reference:        readString(data, "reference"),
		AccessCode:       readString(data, "access_code"),
		AuthorizationURL: readString(data, "authorization_url"),
		Raw:              raw,
	}
	if result.Reference == "" || result.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing reference or authorization_url", ErrResponseInvalid)
	}
	return result, nil
}

// VerifyTransaction 按流水号查询交易状态。
func VerifyTransaction(ctx context.Context, cfg *Config, reference string) (*VerifyResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrConfigInvalid)
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: verify status %d", ErrResponseInvalid, statusCode)
	}
	raw, data, err := decodeEnvelope(respBody)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{
		Reference: readString(data, "reference"),
		Status:    MapTransactionStatus(readString(data, "status")),
		Amount:    fromMinorAmount(readInt64(data, "amount")),
		Currency:  strings.ToUpper(readString(data, "currency")),
		PaidAt:    readTime(data, "paid_at"),
		Raw:       raw,
	}
	if result.Reference == "" {
		result.Reference = reference
	}
	return result, nil
}

// VerifyAndParseWebhook 校验 HMAC-SHA512 签名并解析事件。
func VerifyAndParseWebhook(cfg *Config, headers map[string]string, body []byte) (*WebhookResult, error) {
	if cfg == nil || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	signature := strings.ToLower(getHeaderValue(headers, signatureHeader))
	if signature == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrSignatureInvalid, signatureHeader)
	}
	expected := ComputeSignature(cfg.SecretKey, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	event := readString(raw, "event")
	if event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrResponseInvalid)
	}
	data := readMap(raw, "data")
	if data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}
	result := &WebhookResult{
		Event:     event,
		Reference: readString(data, "reference"),
		Status:    MapTransactionStatus(readString(data, "status")),
		Amount:    fromMinorAmount(readInt64(data, "amount")),
		PaidAt:    readTime(data, "paid_at"),
		Raw:       raw,
	}
	if metadata := readMap(data, "metadata"); metadata != nil {
		if id := readInt64(metadata, "order_id"); id > 0 {
			result.OrderID = uint(id)
		}
	}
	if result.Reference == "" {
		return nil, fmt.Errorf("%w: missing reference", ErrResponseInvalid)
	}
	return result, nil
}

// ComputeSignature 计算 webhook 签名。
func ComputeSignature(secret string, body []byte) string {
	h := hmac.New(sha512.New, []byte(secret))
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// MapTransactionStatus 将网关交易状态映射为本地支付状态。
func MapTransactionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return "success"
	case "failed", "reversed", "abandoned":
		return "failed"
	default:
		return "pending"
	}
}

func doJSONRequest(ctx context.Context, cfg *Config, method, path string, payload interface{}) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
		}
		reader = bytes.NewReader(body)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

// decodeEnvelope 解析 {status, message, data} 外层结构
func decodeEnvelope(body []byte) (map[string]interface{}, map[string]interface{}, error) {
	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, nil, err
	}
	if ok, _ := raw["status"].(bool); !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrResponseInvalid, readString(raw, "message"))
	}
	data := readMap(raw, "data")
	if data == nil {
		return nil, nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}
	return raw, data, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func fromMinorAmount(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}

func getHeaderValue(headers map[string]string, key string) string {
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readString(raw map[string]interface{}, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, _ := value.(map[string]interface{})
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed
		}
		floatVal, err := typed.Float64()
		if err != nil {
			return 0
		}
		return int64(floatVal)
	case float64:
		return int64(typed)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func readTime(raw map[string]interface{}, key string) *time.Time {
	text := readString(raw, key)
	if text == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil
	}
	return &parsed
}
