package portal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// CreateUserRequest representa a requisição para criar um usuário
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateUserRequest representa uma atualização parcial. Campos nulos não são alterados.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserUseCase contém a lógica de negócio dos usuários
type UserUseCase struct {
	repository Repository
}

// NewUserUseCase cria uma nova instância de UserUseCase
func NewUserUseCase(repository Repository) *UserUseCase {
	return &UserUseCase{repository: repository}
}

// CreateUser cria um usuário garantindo email único
func (uc *UserUseCase) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return nil, validationError("name and email are required")
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Verifica se o email já está cadastrado antes de inserir
	_, err = uc.repository.GetUserByEmail(ctx, tx, email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user := NewUser(name, email)
	if err := uc.repository.CreateUser(ctx, tx, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}

	log.Printf("✅ [USER] Created: UserID=%s", user.ID)
	return user, nil
}

// GetUser busca um usuário pelo ID
func (uc *UserUseCase) GetUser(ctx context.Context, userID string) (*User, error) {
	return uc.repository.GetUser(ctx, nil, userID)
}

// ListUsers lista usuários com paginação
func (uc *UserUseCase) ListUsers(ctx context.Context, page Page) ([]User, error) {
	return uc.repository.ListUsers(ctx, nil, page)
}

// UpdateUser aplica a atualização parcial
func (uc *UserUseCase) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*User, error) {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := uc.repository.GetUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, validationError("email must not be empty")
		}
		if email != user.Email {
			other, err := uc.repository.GetUserByEmail(ctx, tx, email)
			if err == nil && other.ID != user.ID {
				return nil, ErrDuplicateEmail
			}
			if err != nil && !errors.Is(err, ErrUserNotFound) {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.repository.UpdateUser(ctx, tx, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}

	return user, nil
}

// DeleteUser remove um usuário sem vendas
func (uc *UserUseCase) DeleteUser(ctx context.Context, userID string) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := uc.repository.GetUser(ctx, tx, userID); err != nil {
		return err
	}

	count, err := uc.repository.CountSales(ctx, tx, SaleFilter{UserID: userID})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("❌ [USER] Delete refused: UserID=%s has %d sales", userID, count)
		return ErrUserHasSales
	}

	if err := uc.repository.DeleteUser(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	log.Printf("🗑️ [USER] Deleted: UserID=%s", userID)
	return nil
}
