package util

import (
	"fmt"
	"math/rand"
)

// RandomNickname generates a fallback nickname for social accounts that
// provide no usable display name (e.g. Apple without email scope).
func RandomNickname() string {
	return fmt.Sprintf("한입유저%04d", rand.Intn(10000))
}
