package usecase

import (
	"errors"
	"time"

	authdomain "chatsaid-backend/internal/auth/domain"

	"github.com/golang-jwt/jwt/v5"
)

// AuthUsecase verifies HS256 access tokens issued by the ChatSaid app
type AuthUsecase interface {
	ValidateToken(tokenString string) (*authdomain.User, error)
	// GenerateAccessToken signs a token for userID; used by tooling and tests
	GenerateAccessToken(userID, email string, ttl time.Duration) (string, error)
}

type authUsecase struct {
	secret []byte
}

func NewAuthUsecase(jwtSecret string) AuthUsecase {
	return &authUsecase{secret: []byte(jwtSecret)}
}

func (u *authUsecase) GenerateAccessToken(userID, email string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	// Supabase style tokens carry the user in "sub"
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, errors.New("invalid token claims")
	}

	email, _ := claims["email"].(string)
	return &authdomain.User{ID: userID, Email: email}, nil
}
