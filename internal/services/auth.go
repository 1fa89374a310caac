package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/ctxutil"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

// AuthService only verifies bearer tokens; issuing them belongs to the
// identity provider in front of this service.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	CurrentActor(ctx context.Context) (uuid.UUID, error)
}

type JWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey []byte
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: []byte(jwtSecretKey),
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "Auth.SetContextFromToken"
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, types.Unauthenticated(op)
	}
	if len(as.jwtSecretKey) == 0 {
		return ctx, types.NewError(types.CodeUnavailable, op, "jwt secret not configured", nil)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return ctx, types.NewError(types.CodeUnauthenticated, op, "invalid token", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, types.NewError(types.CodeUnauthenticated, op, "invalid or expired token", nil)
	}
	raw := claims.UserID
	if raw == "" {
		raw = claims.Subject
	}
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return ctx, types.NewError(types.CodeUnauthenticated, op, "token carries no user", err)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: userID, TokenString: tokenString}), nil
}

func (as *authService) CurrentActor(ctx context.Context) (uuid.UUID, error) {
	return actorFrom(ctx, "Auth.CurrentActor")
}

// SignToken mints an HS256 token for userID. Used by tests and local tooling.
func SignToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
