package server

import (
	"fmt"
	"math/rand/v2"
)

// GenerateGuestName 生成访客昵称
func GenerateGuestName() string {
	return fmt.Sprintf("Guest%04d", rand.IntN(10000))
}

// GeneratePlayerName 为未提供昵称的注册用户生成兜底昵称
func GeneratePlayerName() string {
	return fmt.Sprintf("Player%04d", rand.IntN(10000))
}
