package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// CMIDocument SCORM CMI 数据模型的有序 key->value 文档。
// 课件通过 SetValue 写入的所有元素原样保存在这里，与 ScormAttempt
// 上的强类型字段并存；入库时按写入顺序序列化为 JSON 文本列。
type CMIDocument struct {
	keys   []string
	values map[string]string
}

func NewCMIDocument() *CMIDocument {
	return &CMIDocument{values: make(map[string]string)}
}

func (d *CMIDocument) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *CMIDocument) Get(key string) (string, bool) {
	if d == nil || d.values == nil {
		return "", false
	}
	v, ok := d.values[key]
	return v, ok
}

func (d *CMIDocument) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Keys 返回写入顺序的元素路径副本
func (d *CMIDocument) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// MarshalJSON 按插入顺序输出，保证同一文档序列化结果稳定
func (d CMIDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *CMIDocument) UnmarshalJSON(data []byte) error {
	d.keys = nil
	d.values = make(map[string]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("cmi document: expected JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("cmi document: non-string key")
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		val, ok := valTok.(string)
		if !ok {
			// 历史数据里偶有数字型值，统一转为字符串
			val = fmt.Sprintf("%v", valTok)
		}
		d.Set(key, val)
	}

	_, err = dec.Token() // 消费结尾的 '}'
	return err
}

// Value 实现 driver.Valuer，gorm 以 JSON 文本列存储
func (d CMIDocument) Value() (driver.Value, error) {
	if len(d.keys) == 0 {
		return "{}", nil
	}
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (d *CMIDocument) Scan(src interface{}) error {
	if src == nil {
		d.keys = nil
		d.values = make(map[string]string)
		return nil
	}
	switch v := src.(type) {
	case []byte:
		if len(v) == 0 {
			d.keys = nil
			d.values = make(map[string]string)
			return nil
		}
		return d.UnmarshalJSON(v)
	case string:
		if v == "" {
			d.keys = nil
			d.values = make(map[string]string)
			return nil
		}
		return d.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cmi document: unsupported scan type %T", src)
	}
}
