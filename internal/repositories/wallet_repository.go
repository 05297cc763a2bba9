package repositories

import (
	"database/sql"
	"fmt"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

type WalletRepository interface {
	// CreateIfAbsent inserts the wallet unless the phone is already
	// registered, and returns the row that is in the database afterwards.
	CreateIfAbsent(wallet *models.Wallet) (*models.Wallet, error)
	GetByPhone(phone string) (*models.Wallet, error)
	GetByUserID(userID string) (*models.Wallet, error)
	Count() (int, error)
}

type walletRepository struct {
	DB *sql.DB
}

func NewWalletRepository(db *sql.DB) WalletRepository {
	return &walletRepository{DB: db}
}

// CreateIfAbsent — idempotent registration: re-registering the same phone
// must not create a duplicate, so conflicts fall through to a re-read.
func (r *walletRepository) CreateIfAbsent(w *models.Wallet) (*models.Wallet, error) {
	const q = `
		INSERT INTO wallets (user_id, address, phone, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (phone) DO NOTHING
	`
	if _, err := r.DB.Exec(q, w.UserID, w.Address, w.Phone); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	existing, err := r.GetByPhone(w.Phone)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("create wallet: row missing after insert for phone %s", w.Phone)
	}
	return existing, nil
}

func (r *walletRepository) GetByPhone(phone string) (*models.Wallet, error) {
	const q = `
		SELECT user_id, address, phone, created_at
		FROM wallets
		WHERE phone = $1
		LIMIT 1
	`
	row := r.DB.QueryRow(q, phone)

	var w models.Wallet
	if err := row.Scan(&w.UserID, &w.Address, &w.Phone, &w.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by phone: %w", err)
	}
	return &w, nil
}

func (r *walletRepository) GetByUserID(userID string) (*models.Wallet, error) {
	const q = `
		SELECT user_id, address, phone, created_at
		FROM wallets
		WHERE user_id = $1
	`
	row := r.DB.QueryRow(q, userID)

	var w models.Wallet
	if err := row.Scan(&w.UserID, &w.Address, &w.Phone, &w.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user: %w", err)
	}
	return &w, nil
}

func (r *walletRepository) Count() (int, error) {
	var c int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM wallets`).Scan(&c); err != nil {
		return 0, fmt.Errorf("count wallets: %w", err)
	}
	return c, nil
}
