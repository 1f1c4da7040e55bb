package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingAgent = errors.New("agent id is required")
)

// Issuer 签发方
const Issuer = "helpdesk"

// 校验时容忍的时钟偏差
const clockSkew = 5 * time.Second

// Claims 坐席 Token 的 Claims
type Claims struct {
	AgentID string `json:"agent_id"`
	jwt.RegisteredClaims
}

// JWT 坐席 Token 的签发和校验，HS256
type JWT struct {
	secret     []byte
	expiration time.Duration
	parser     *jwt.Parser
}

// NewJWT 创建实例
func NewJWT(secret string, expiration time.Duration) *JWT {
	return &JWT{
		secret:     []byte(secret),
		expiration: expiration,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateToken 为坐席签发 Token
func (j *JWT) GenerateToken(agentID string) (string, error) {
	if agentID == "" {
		return "", ErrMissingAgent
	}
	now := time.Now()
	claims := &Claims{
		AgentID: agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   agentID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// ValidateToken 校验签名、签发方和有效期，返回 Claims
// 过期返回 ErrExpiredToken，其他失败一律返回 ErrInvalidToken
func (j *JWT) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := j.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.AgentID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
