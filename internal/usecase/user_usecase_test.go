package usecase

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradehub/internal/domain/entity"
	"tradehub/pkg/errors"
)

type mockClaims struct {
	mock.Mock
}

func (m *mockClaims) SetRoles(ctx context.Context, uid string, roles []string) error {
	return m.Called(uid, roles).Error(0)
}

func TestSetRolesGrantsMiddleman(t *testing.T) {
	h := newHarness(t)
	claims := &mockClaims{}
	claims.On("SetRoles", "eve", []string{entity.RoleMiddleman}).Return(nil).Once()
	users := NewUserUseCase(h.store, claims)

	user, err := users.SetRoles(h.ctx, admin, "eve", []string{entity.RoleMiddleman, entity.RoleMiddleman})
	require.NoError(t, err)
	assert.Equal(t, []string{entity.RoleMiddleman}, user.Roles)
	claims.AssertExpectations(t)

	stored, err := users.GetUser(h.ctx, "eve")
	require.NoError(t, err)
	assert.Equal(t, "Eve", stored.Username)
	assert.True(t, stored.Actor().IsMediator())

	queue, err := h.calls.ListPending(h.ctx, stored.Actor())
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestSetRolesCreatesMissingProfile(t *testing.T) {
	h := newHarness(t)
	users := NewUserUseCase(h.store, nil)

	user, err := users.SetRoles(h.ctx, admin, "newcomer", []string{entity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "newcomer", user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestSetRolesRejections(t *testing.T) {
	h := newHarness(t)
	claims := &mockClaims{}
	users := NewUserUseCase(h.store, claims)

	_, err := users.SetRoles(h.ctx, mmU2, "eve", []string{entity.RoleMiddleman})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = users.SetRoles(h.ctx, admin, "eve", []string{"superuser"})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = users.SetRoles(h.ctx, admin, "root", nil)
	assert.True(t, errors.Is(err, errors.CodeValidation), "admins keep their own role")

	claims.AssertNotCalled(t, "SetRoles", mock.Anything, mock.Anything)
	assert.Empty(t, h.chat(h.chatID).MiddlemanID)
}

func TestSetRolesReportsClaimFailure(t *testing.T) {
	h := newHarness(t)
	claims := &mockClaims{}
	claims.On("SetRoles", "bob", []string{entity.RoleMiddleman}).Return(stderrors.New("auth backend down"))
	users := NewUserUseCase(h.store, claims)

	_, err := users.SetRoles(h.ctx, admin, "bob", []string{entity.RoleMiddleman})
	assert.True(t, errors.Is(err, errors.CodeInternal))

	stored, err := users.GetUser(h.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.RoleMiddleman}, stored.Roles, "the document is the source a retry repairs from")
}
