package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 类型定义，用于存储自由格式配置
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}

// UintList 无符号整数数组类型，用于存储商品ID集合等
type UintList []uint

// Value 实现 driver.Valuer 接口
func (u UintList) Value() (driver.Value, error) {
	if u == nil {
		return json.Marshal([]uint{})
	}
	return json.Marshal([]uint(u))
}

// Scan 实现 sql.Scanner 接口
func (u *UintList) Scan(value interface{}) error {
	if value == nil {
		*u = UintList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			*u = UintList{}
			return nil
		}
	}
	if len(bytes) == 0 {
		*u = UintList{}
		return nil
	}
	return json.Unmarshal(bytes, u)
}

// Contains 判断是否包含指定ID
func (u UintList) Contains(id uint) bool {
	for _, v := range u {
		if v == id {
			return true
		}
	}
	return false
}
