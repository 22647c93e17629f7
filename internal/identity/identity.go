package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	jw "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity - кто выполняет операцию и с какими правами.
type Identity struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// ErrInvalidToken - подпись, срок или claims токена не прошли проверку.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Role domain.Role `json:"role"`
	jw.RegisteredClaims
}

// Issuer выпускает и проверяет HS256-токены сессий.
// Роль передаётся отдельным подписанным claim'ом и никогда не выводится из id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer создаёт Issuer. Нулевой ttl означает бессрочные токены.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("identity: empty signing secret")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// IssueAnonymous создаёт клиентскую сессию со свежим id.
func (i *Issuer) IssueAnonymous() (string, Identity, error) {
	id := Identity{UserID: uuid.NewString(), Role: domain.RoleClient}
	tok, err := i.Issue(id.UserID, id.Role)
	if err != nil {
		return "", Identity{}, err
	}
	return tok, id, nil
}

// Issue подписывает токен для заданного пользователя и роли.
func (i *Issuer) Issue(userID string, role domain.Role) (string, error) {
	if userID == "" {
		return "", errors.New("identity: empty user id")
	}
	if !role.Valid() {
		return "", fmt.Errorf("identity: unknown role %q", role)
	}
	now := i.now()
	c := claims{
		Role: role,
		RegisteredClaims: jw.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jw.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		c.ExpiresAt = jw.NewNumericDate(now.Add(i.ttl))
	}
	return jw.NewWithClaims(jw.SigningMethodHS256, c).SignedString(i.secret)
}

// Parse проверяет HS256-токен и возвращает личность из полей "sub" и "role".
func (i *Issuer) Parse(tok string) (Identity, error) {
	var c claims
	t, err := jw.ParseWithClaims(tok, &c, func(t *jw.Token) (any, error) {
		return i.secret, nil
	},
		jw.WithValidMethods([]string{jw.SigningMethodHS256.Alg()}),
		jw.WithTimeFunc(i.now),
	)
	if err != nil || !t.Valid {
		return Identity{}, ErrInvalidToken
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	if !c.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: bad role claim", ErrInvalidToken)
	}
	return Identity{UserID: c.Subject, Role: c.Role}, nil
}
