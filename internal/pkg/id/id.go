package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// ReturnPrefix 退货单号前缀
const ReturnPrefix = "RET-"

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// IsValid 验证UUID格式是否有效
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var returnRange = big.NewInt(90000)

// NewReturnID 生成退货单号，格式 RET-##### (10000-99999)
// 不保证唯一，调用方负责冲突重试
func NewReturnID() string {
	n, err := rand.Int(rand.Reader, returnRange)
	if err != nil {
		// crypto/rand 失败时退化为 uuid 派生
		n = new(big.Int).SetUint64(uint64(uuid.New().ID()) % returnRange.Uint64())
	}
	return fmt.Sprintf("%s%05d", ReturnPrefix, n.Int64()+10000)
}

// IsReturnID 检查是否为合法的退货单号
func IsReturnID(s string) bool {
	if !strings.HasPrefix(s, ReturnPrefix) {
		return false
	}
	digits := strings.TrimPrefix(s, ReturnPrefix)
	if len(digits) != 5 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
