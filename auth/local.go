package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pricepulse/store"
)

const credentialCollection = "auth_users"

// LocalProvider is the default Provider: bcrypt password hashes persisted
// in the document store, HS256 ID tokens.
type LocalProvider struct {
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewLocalProvider(st store.Store, secret string, tokenTTL time.Duration, logger *zap.Logger) *LocalProvider {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalProvider{
		store:    st,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (p *LocalProvider) CreateUser(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}

	existing, err := p.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error("failed to hash password", zap.Error(err))
		return "", err
	}

	uid := uuid.NewString()
	doc := store.Document{
		"uid":           uid,
		"email":         email,
		"password_hash": string(hash),
		"created_at":    time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.store.Put(ctx, credentialCollection, uid, doc); err != nil {
		return "", err
	}
	return uid, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Token, error) {
	cred, err := p.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrInvalidCredentials
	}

	hash, _ := cred.doc["password_hash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	expires := time.Now().Add(p.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   cred.uid,
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "pricepulse",
	}
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		p.logger.Error("failed to sign token", zap.Error(err))
		return nil, err
	}

	return &Token{
		UID:          cred.uid,
		IDToken:      idToken,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    expires,
	}, nil
}

type credential struct {
	uid string
	doc store.Document
}

func (p *LocalProvider) findByEmail(ctx context.Context, email string) (*credential, error) {
	docs, err := p.store.Query(ctx, credentialCollection)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc["email"] == email {
			uid, _ := doc["uid"].(string)
			return &credential{uid: uid, doc: doc}, nil
		}
	}
	return nil, nil
}
