package portal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	// Arrange
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Act
	user, err := svc.Users.CreateUser(ctx, CreateUserRequest{Name: " Ana ", Email: "ana@example.com"})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.True(t, user.IsActive)

	stored, err := svc.Users.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, stored.Email)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustUser(t, svc, "dup@example.com")

	_, err := svc.Users.CreateUser(ctx, CreateUserRequest{Name: "Other", Email: "dup@example.com"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	users, err := svc.Users.ListUsers(ctx, Page{Limit: DefaultLimit})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Users.CreateUser(context.Background(), CreateUserRequest{Name: "", Email: "x@example.com"})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ana := mustUser(t, svc, "ana.u@example.com")
	mustUser(t, svc, "bia.u@example.com")

	t.Run("partial update", func(t *testing.T) {
		inactive := false
		updated, err := svc.Users.UpdateUser(ctx, ana.ID, UpdateUserRequest{IsActive: &inactive})

		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "ana.u@example.com", updated.Email)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		email := "bia.u@example.com"
		_, err := svc.Users.UpdateUser(ctx, ana.ID, UpdateUserRequest{Email: &email})

		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("same email is not a conflict", func(t *testing.T) {
		email := "ana.u@example.com"
		name := "Ana Maria"
		updated, err := svc.Users.UpdateUser(ctx, ana.ID, UpdateUserRequest{Email: &email, Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", updated.Name)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Users.UpdateUser(ctx, "missing", UpdateUserRequest{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	buyer := mustUser(t, svc, "buyer@example.com")
	idle := mustUser(t, svc, "idle@example.com")
	product := mustProduct(t, svc, "Lápis", "1.50", 10)
	_, err := svc.Sales.CreateSale(ctx, CreateSaleRequest{UserID: buyer.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	t.Run("user with sales is kept", func(t *testing.T) {
		err := svc.Users.DeleteUser(ctx, buyer.ID)

		assert.ErrorIs(t, err, ErrUserHasSales)
		_, err = svc.Users.GetUser(ctx, buyer.ID)
		assert.NoError(t, err)
	})

	t.Run("user without sales is removed", func(t *testing.T) {
		require.NoError(t, svc.Users.DeleteUser(ctx, idle.ID))

		_, err := svc.Users.GetUser(ctx, idle.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.Users.DeleteUser(ctx, "missing"), ErrUserNotFound)
	})
}

func TestListUsers_Pagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first := mustUser(t, svc, "1@example.com")
	second := mustUser(t, svc, "2@example.com")
	mustUser(t, svc, "3@example.com")

	page, err := svc.Users.ListUsers(ctx, Page{Skip: 0, Limit: 2})

	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, first.ID, page[0].ID)
	assert.Equal(t, second.ID, page[1].ID)
}
