package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the primitives every adapter boundary relies on:
// wrapped errors keep their original code and errors.Is matches by code.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeForbidden, Message: "role mismatch"}
		s.Equal("role mismatch", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeNotProvisioned}
		s.Equal("not_provisioned", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	s.Run("same code different message", func() {
		a := &Error{Code: CodeUnauthenticated, Message: "missing credential"}
		b := &Error{Code: CodeUnauthenticated, Message: "expired credential"}
		s.True(a.Is(b))
	})

	s.Run("different codes", func() {
		s.False((&Error{Code: CodeForbidden}).Is(&Error{Code: CodeNotProvisioned}))
	})

	s.Run("plain errors never match", func() {
		s.False((&Error{Code: CodeForbidden}).Is(errors.New("forbidden")))
	})

	s.Run("through fmt wrapping", func() {
		inner := New(CodeUnavailable, "profile store unreachable")
		wrapped := fmt.Errorf("lookup role: %w", inner)
		s.True(errors.Is(wrapped, &Error{Code: CodeUnavailable}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the original domain code", func() {
		wrapped := Wrap(New(CodeInvalidToken, "token expired"), CodeInternal, "resolve identity")

		var de *Error
		s.Require().True(errors.As(wrapped, &de))
		s.Equal(CodeInvalidToken, de.Code)
		s.Equal("resolve identity", de.Message)
	})

	s.Run("uses the given code for foreign errors", func() {
		root := errors.New("dial tcp: connection refused")
		wrapped := Wrap(root, CodeUnavailable, "provider unreachable")

		s.True(HasCode(wrapped, CodeUnavailable))
		s.True(errors.Is(wrapped, root))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.True(HasCode(New(CodeNotFound, "profile"), CodeNotFound))
	s.False(HasCode(New(CodeNotFound, "profile"), CodeForbidden))
	s.False(HasCode(errors.New("plain"), CodeNotFound))
	s.False(HasCode(nil, CodeNotFound))
}
