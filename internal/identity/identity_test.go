package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dErrors "careergate/pkg/domain-errors"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) VerifyCredential(ctx context.Context, token string) (Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Identity), args.Error(1)
}

func TestFromAuthorizationHeader(t *testing.T) {
	cases := []struct {
		header  string
		present bool
		token   string
	}{
		{"", false, ""},
		{"Bearer abc.def.ghi", true, "abc.def.ghi"},
		{"Bearer   padded  ", true, "padded"},
		{"Bearer ", true, ""},
		{"Basic dXNlcjpwYXNz", true, ""},
		{"bearer lowercase", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			c := FromAuthorizationHeader(tc.header)
			assert.Equal(t, tc.present, c.Present())
			assert.Equal(t, tc.token, c.Token())
		})
	}
}

func TestCredentialNeverPrintsToken(t *testing.T) {
	c := FromToken("secret-token")
	assert.NotContains(t, fmt.Sprint(c), "secret-token")
	assert.NotContains(t, fmt.Sprintf("%v", c), "secret-token")
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("absent credential skips the provider", func(t *testing.T) {
		p := new(mockProvider)
		res := NewResolver(p).Resolve(ctx, Credential{})

		assert.Equal(t, StatusUnauthenticated, res.Status)
		assert.Equal(t, ReasonMissingCredential, res.Reason)
		p.AssertNotCalled(t, "VerifyCredential", mock.Anything, mock.Anything)
	})

	t.Run("non-bearer header is invalid without a provider call", func(t *testing.T) {
		p := new(mockProvider)
		res := NewResolver(p).Resolve(ctx, FromAuthorizationHeader("Token xyz"))

		assert.Equal(t, ReasonInvalidCredential, res.Reason)
		p.AssertNotCalled(t, "VerifyCredential", mock.Anything, mock.Anything)
	})

	t.Run("valid credential resolves", func(t *testing.T) {
		p := new(mockProvider)
		p.On("VerifyCredential", ctx, "good").Return(Identity{SubjectID: "sub-1"}, nil).Once()

		res := NewResolver(p).Resolve(ctx, FromToken("good"))
		require.True(t, res.Resolved())
		assert.Equal(t, "sub-1", res.Identity.SubjectID)
		p.AssertExpectations(t)
	})

	t.Run("provider rejection is unauthenticated and hides detail", func(t *testing.T) {
		p := new(mockProvider)
		p.On("VerifyCredential", ctx, "expired").
			Return(Identity{}, fmt.Errorf("%w: token is expired by 3m", ErrInvalidCredential))

		res := NewResolver(p).Resolve(ctx, FromToken("expired"))
		assert.Equal(t, StatusUnauthenticated, res.Status)
		assert.Equal(t, ReasonInvalidCredential, res.Reason)
		assert.NoError(t, res.Err)
	})

	t.Run("provider outage is a failure, not a denial", func(t *testing.T) {
		p := new(mockProvider)
		p.On("VerifyCredential", ctx, "good").Return(Identity{}, errors.New("dial tcp: i/o timeout"))

		res := NewResolver(p).Resolve(ctx, FromToken("good"))
		assert.Equal(t, StatusFailed, res.Status)
		assert.True(t, dErrors.HasCode(res.Err, dErrors.CodeUnavailable))
	})

	t.Run("empty subject is never resolved", func(t *testing.T) {
		p := new(mockProvider)
		p.On("VerifyCredential", ctx, "odd").Return(Identity{}, nil)

		res := NewResolver(p).Resolve(ctx, FromToken("odd"))
		assert.False(t, res.Resolved())
		assert.Equal(t, ReasonInvalidCredential, res.Reason)
	})

	t.Run("zero result is not resolved", func(t *testing.T) {
		assert.False(t, Result{}.Resolved())
	})
}
