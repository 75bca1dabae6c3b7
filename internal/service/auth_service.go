package service

import (
	"errors"

	"github.com/pulsechat/internal/models"
	"github.com/pulsechat/pkg/jwt"
)

type AuthService interface {
	ValidateToken(tokenString string) (models.Identity, error)
}

type authService struct {
	jwtService jwt.Service
}

func NewAuthService(jwtService jwt.Service) AuthService {
	return &authService{jwtService: jwtService}
}

func (s *authService) ValidateToken(tokenString string) (models.Identity, error) {
	if tokenString == "" {
		return models.Identity{}, errors.New("empty token")
	}

	claims, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return models.Identity{}, errors.New("invalid user ID in token")
	}

	displayName, _ := claims["name"].(string)
	isBot, _ := claims["bot"].(bool)

	return models.Identity{
		UserID:      userID,
		DisplayName: displayName,
		IsBot:       isBot,
	}, nil
}
