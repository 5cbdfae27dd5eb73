// Package shortcode 负责短码的生成与唯一性分配。
package shortcode

import (
	"errors"
	"math/big"

	"github.com/google/uuid"
)

// Alphabet 打乱顺序的 base62 字母表（0-9、a-z、A-Z）。
// 所有实例必须使用同一顺序，已生成的短码才保持一致。
const Alphabet = "0GTWYahl4C1Dq2evKiNPJdwfLxAsH9t8E5Z3RISyUuzQVk7rjFn6mpgbBXOcoM"

// DefaultLength 生成短码的默认长度
const DefaultLength = 7

var (
	ErrNonPositiveID = errors.New("shortcode: id must be a positive integer")
	ErrNilID         = errors.New("shortcode: id is not an integer")
)

var base = big.NewInt(int64(len(Alphabet)))

// Generator 把随机大整数映射为固定长度的短码
type Generator struct {
	length  int
	entropy func() (*big.Int, error)
}

// NewGenerator 创建生成器，length <= 0 时使用 DefaultLength
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length, entropy: uuidEntropy}
}

// NewGeneratorWithEntropy 使用自定义的随机源，主要用于测试中构造碰撞
func NewGeneratorWithEntropy(length int, entropy func() (*big.Int, error)) *Generator {
	g := NewGenerator(length)
	g.entropy = entropy
	return g
}

// Length 返回短码长度
func (g *Generator) Length() int {
	return g.length
}

// Encode 把正整数转换为短码：反复除以 62，余数映射到字母表，
// 反转后截断（或用字母表的零符号左侧补齐）到固定长度。
// 同一输入永远得到同一输出。
func (g *Generator) Encode(id *big.Int) (string, error) {
	if id == nil {
		return "", ErrNilID
	}
	if id.Sign() <= 0 {
		return "", ErrNonPositiveID
	}

	n := new(big.Int).Set(id)
	rem := new(big.Int)
	digits := make([]byte, 0, 24)
	for n.Sign() > 0 {
		n.QuoRem(n, base, rem)
		digits = append(digits, Alphabet[rem.Int64()])
	}

	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	if len(digits) >= g.length {
		return string(digits[:g.length]), nil
	}

	code := make([]byte, g.length)
	pad := g.length - len(digits)
	for i := 0; i < pad; i++ {
		code[i] = Alphabet[0]
	}
	copy(code[pad:], digits)
	return string(code), nil
}

// Generate 用新的随机 128 位整数生成一个短码
func (g *Generator) Generate() (string, error) {
	id, err := g.entropy()
	if err != nil {
		return "", err
	}
	return g.Encode(id)
}

func uuidEntropy() (*big.Int, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(u[:]), nil
}
