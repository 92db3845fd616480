package utils

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

type jwtClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Company  uint   `json:"company"`
	jwt.RegisteredClaims
}

func GenerateJWT(email string, userId uint, companyId uint, role string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		Username: email,
		Role:     role,
		Company:  companyId,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userId)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// NewOpaqueToken returns an unguessable hex token for approval links,
// invitations and visit QR payloads.
func NewOpaqueToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}
