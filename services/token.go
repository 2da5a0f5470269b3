package services

import (
	"fmt"
	"time"

	"rentflow/constants"
	"rentflow/errors"
	"rentflow/models"

	"github.com/dgrijalva/jwt-go"
)

// TokenClaims thông tin người dùng trong token
type TokenClaims struct {
	UserID uint
	Role   int
}

// ParseToken xác thực chữ ký HS256 và lấy userID, role từ claim "userinfo"
func ParseToken(tokenString string, secret []byte) (*TokenClaims, error) {
	if len(secret) == 0 {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "Chưa cấu hình khóa xác thực", nil)
	}

	claimsMap := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claimsMap, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("thuật toán ký không hợp lệ: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "Token không hợp lệ", err)
	}

	userInfo, ok := claimsMap["userinfo"].(map[string]interface{})
	if !ok {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "Không tìm thấy thông tin user trong token", nil)
	}

	userID, okID := userInfo["userid"].(float64)
	if !okID {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "Không tìm thấy ID user trong token", nil)
	}

	role, okRole := userInfo["role"].(float64)
	if !okRole {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "Không tìm thấy role trong token", nil)
	}

	return &TokenClaims{UserID: uint(userID), Role: int(role)}, nil
}

// GenerateToken tạo token HS256, dùng cho công cụ nội bộ và test
func GenerateToken(userID uint, role int, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userinfo": map[string]interface{}{
			"userid": userID,
			"role":   role,
		},
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// ActorFromClaims chuyển role số trong token sang vai trò đặt chỗ
func ActorFromClaims(claims *TokenClaims) (Actor, error) {
	var role models.ActorRole
	switch claims.Role {
	case constants.RoleTenant:
		role = models.ActorTenant
	case constants.RoleAdvertiser:
		role = models.ActorAdvertiser
	case constants.RoleAdmin:
		role = models.ActorAdmin
	default:
		return Actor{}, errors.ErrForbiddenActor
	}
	return Actor{ID: claims.UserID, Role: role}, nil
}
