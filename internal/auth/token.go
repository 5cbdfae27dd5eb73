package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims sub 为用户标识，staff 标记管理员
type Claims struct {
	jwt.RegisteredClaims
	Staff bool `json:"staff,omitempty"`
}

// GenerateToken 签发 HS256 token。签发不属于本服务的职责，用于测试和运维脚本
func GenerateToken(r Requester, expire time.Duration, key []byte) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   r.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
		},
		Staff: r.IsStaff,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("generating jwt token: %w", err)
	}
	return token, nil
}

// ParseToken 校验签名与有效期并返回请求者
func ParseToken(tokenString string, key []byte) (Requester, error) {
	if len(key) == 0 {
		return Anonymous, ErrTokenInvalid
	}
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous, ErrTokenExpired
		}
		return Anonymous, errors.Wrap(ErrTokenInvalid, err.Error())
	}
	if !token.Valid || claims.Subject == "" {
		return Anonymous, ErrTokenInvalid
	}
	return Requester{UserID: claims.Subject, IsStaff: claims.Staff}, nil
}
