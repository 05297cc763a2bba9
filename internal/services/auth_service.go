package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/repositories"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/utils"
)

var (
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenUsed     = errors.New("token already used")
	ErrAuthThrottled = errors.New("too many auth requests")
)

const (
	maxSendsPerWindow = 3
	sendWindow        = 10 * time.Minute
	defaultTokenTTL   = 5 * time.Minute
	accessTokenTTL    = 24 * time.Hour
)

// TextSender — outbound text channel (see utils.WhatsAppClient).
type TextSender interface {
	Configured() bool
	SendText(to, body string) error
}

// AuthService owns phone registration: issue a single-use token out of band,
// verify it exactly once, create the wallet idempotently.
type AuthService struct {
	Tokens  repositories.AuthTokenRepository
	Wallets repositories.WalletRepository
	Sender  TextSender

	VerifyURL string // public base for the verification link
	JWTSecret []byte
	TokenTTL  time.Duration
}

func NewAuthService(
	tokens repositories.AuthTokenRepository,
	wallets repositories.WalletRepository,
	sender TextSender,
	verifyURL string,
	jwtSecret string,
) *AuthService {
	return &AuthService{
		Tokens:    tokens,
		Wallets:   wallets,
		Sender:    sender,
		VerifyURL: verifyURL,
		JWTSecret: []byte(jwtSecret),
		TokenTTL:  defaultTokenTTL,
	}
}

// InitiateAuth — new token per send (append-only rows, hash only in the DB),
// throttled per phone, delivered over the text channel.
func (s *AuthService) InitiateAuth(phone string) (string, error) {
	since := time.Now().Add(-sendWindow)
	cnt, err := s.Tokens.CountRecentSends(phone, since)
	if err != nil {
		return "", err
	}
	if cnt >= maxSendsPerWindow {
		return "", ErrAuthThrottled
	}

	token, err := utils.NewAuthToken()
	if err != nil {
		return "", err
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	sentAt := time.Now()
	if _, err := s.Tokens.Create(phone, string(hashBytes), sentAt, sentAt.Add(ttl)); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/verify?token=%s", s.VerifyURL, token)
	if err := s.Sender.SendText(phone, "Verifique sua identidade: "+link); err != nil {
		return "", fmt.Errorf("whatsapp error: %w", err)
	}

	log.Printf("[auth][send] phone=%s", phone)
	return token, nil
}

// VerifyToken — compare against the latest issued hash, consume it exactly
// once, then create (or fetch) the wallet for the phone.
func (s *AuthService) VerifyToken(phone, token string) (*models.Wallet, error) {
	phone = utils.NormalizePhone(phone)

	rec, err := s.Tokens.GetLatestByPhone(phone)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrTokenInvalid
	}
	if rec.UsedAt != nil {
		return nil, ErrTokenUsed
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrTokenInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.TokenHash), []byte(token)); err != nil {
		return nil, ErrTokenInvalid
	}

	ok, err := s.Tokens.Consume(rec.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race with a concurrent verify of the same token.
		return nil, ErrTokenUsed
	}

	wallet, err := s.RegisterWallet(phone)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][verify] OK phone=%s user=%s", phone, wallet.UserID)
	return wallet, nil
}

// RegisterWallet — idempotent: one wallet per phone, stable user id.
func (s *AuthService) RegisterWallet(phone string) (*models.Wallet, error) {
	address, err := utils.NewHexAddress()
	if err != nil {
		return nil, err
	}
	return s.Wallets.CreateIfAbsent(&models.Wallet{
		UserID:  "user_" + phone,
		Address: address,
		Phone:   phone,
	})
}

// IssueAccessToken — HS256 API token handed out after a successful verify.
func (s *AuthService) IssueAccessToken(userID string) (string, error) {
	if len(s.JWTSecret) == 0 {
		return "", nil
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(accessTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}
