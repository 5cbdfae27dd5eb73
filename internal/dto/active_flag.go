package dto

import (
	"bytes"
	"fmt"
)

// ActiveFlag 严格的启用状态解析：只接受固定的字面量集合，不做任意真值转换
type ActiveFlag bool

var activeLiterals = map[string]bool{
	`true`:    true,
	`false`:   false,
	`1`:       true,
	`0`:       false,
	`"true"`:  true,
	`"false"`: false,
	`"1"`:     true,
	`"0"`:     false,
}

func (f *ActiveFlag) UnmarshalJSON(data []byte) error {
	v, ok := activeLiterals[string(bytes.TrimSpace(data))]
	if !ok {
		return fmt.Errorf("invalid active flag %s", data)
	}
	*f = ActiveFlag(v)
	return nil
}

func (f ActiveFlag) Bool() bool {
	return bool(f)
}
