package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 通用 JSON 字段（网关原始报文等）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil || raw == nil {
		*j = make(JSON)
		return err
	}
	return json.Unmarshal(raw, j)
}

// PackItem 包内的菜品行
type PackItem struct {
	MenuID   uint `json:"menu_id" bson:"menu_id"`
	Quantity int  `json:"quantity" bson:"quantity"`
}

// Pack 一个包装选择加若干菜品行
type Pack struct {
	PackagingID *uint      `json:"packaging_id" bson:"packaging_id,omitempty"`
	Items       []PackItem `json:"items" bson:"items"`
}

// Clone 深拷贝
func (p Pack) Clone() Pack {
	out := Pack{Items: make([]PackItem, len(p.Items))}
	copy(out.Items, p.Items)
	if p.PackagingID != nil {
		id := *p.PackagingID
		out.PackagingID = &id
	}
	return out
}

// PackList 购物车/订单中的包列表，以 JSON 存储
type PackList []Pack

// Clone 深拷贝，订单快照不与购物车共享任何切片或指针
func (l PackList) Clone() PackList {
	out := make(PackList, len(l))
	for i := range l {
		out[i] = l[i].Clone()
	}
	return out
}

// Equal 判断两个包列表内容是否一致
func (l PackList) Equal(other PackList) bool {
	a, errA := json.Marshal(l.normalized())
	b, errB := json.Marshal(other.normalized())
	return errA == nil && errB == nil && string(a) == string(b)
}

func (l PackList) normalized() PackList {
	if l == nil {
		return PackList{}
	}
	return l
}

// Value 实现 driver.Valuer 接口
func (l PackList) Value() (driver.Value, error) {
	b, err := json.Marshal(l.normalized())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (l *PackList) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil {
		return err
	}
	if raw == nil {
		*l = PackList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// GeoPoint GeoJSON 点，坐标顺序为 [经度, 纬度]
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint 按经度、纬度创建点
func NewGeoPoint(lon, lat float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Lon 经度
func (p GeoPoint) Lon() float64 { return p.Coordinates[0] }

// Lat 纬度
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Valid 校验坐标范围，未设置类型的点视为缺失
func (p GeoPoint) Valid() bool {
	if p.Type == "" {
		return false
	}
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}

// Value 实现 driver.Valuer 接口
func (p GeoPoint) Value() (driver.Value, error) {
	if p.Type == "" {
		p.Type = "Point"
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (p *GeoPoint) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil || raw == nil {
		return err
	}
	return json.Unmarshal(raw, p)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}
