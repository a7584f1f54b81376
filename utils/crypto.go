package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword создает bcrypt-хеш пароля
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword проверяет пароль по хешу
func VerifyPassword(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPIN хеширует PIN-код счета; в базе хранится только хеш
func HashPIN(pin string) (string, error) {
	return HashPassword(pin)
}

// VerifyPIN проверяет PIN-код по хешу
func VerifyPIN(pin, hashedPIN string) bool {
	return VerifyPassword(pin, hashedPIN)
}

// RandomDigits возвращает строку из n криптографически случайных цифр
func RandomDigits(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("digit count must be positive")
	}
	var sb strings.Builder
	sb.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
