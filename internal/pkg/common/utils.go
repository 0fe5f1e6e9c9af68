package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeQuery 正規化查詢字串：轉小寫、去除首尾空白、壓縮連續空白
// 快取鍵與索引查詢都以正規化後的字串為準，確保重複查詢冪等
func NormalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.Join(strings.Fields(q), " ")
}

// HashKey 計算字串的 SHA-256 哈希值（十六進位）
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
