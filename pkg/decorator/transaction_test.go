package decorator

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/amirasaad/gamewallet/pkg/repository/repotest"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDecorator(uow repository.UnitOfWork) *UnitOfWorkTransactionDecorator {
	return NewUnitOfWorkTransactionDecorator(func() (repository.UnitOfWork, error) {
		return uow, nil
	}, testLogger())
}

func TestExecuteWithUnitOfWork_RunsOperation(t *testing.T) {
	d := newDecorator(repotest.New())
	called := false
	err := d.ExecuteWithUnitOfWork(func(repository.UnitOfWork) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestExecuteWithUnitOfWork_PropagatesOperationError(t *testing.T) {
	d := newDecorator(repotest.New())
	sentinel := errors.New("boom")
	err := d.ExecuteWithUnitOfWork(func(repository.UnitOfWork) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
}

func TestExecuteWithUnitOfWork_PassesUnitOfWork(t *testing.T) {
	fake := repotest.New()
	d := newDecorator(fake)
	var got repository.UnitOfWork
	err := d.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		got = uow
		return nil
	})
	require.NoError(t, err)
	require.Same(t, fake, got)
}

func TestExecuteWithUnitOfWork_FactoryErrorPropagates(t *testing.T) {
	factoryErr := errors.New("factory failed")
	d := NewUnitOfWorkTransactionDecorator(func() (repository.UnitOfWork, error) {
		return nil, factoryErr
	}, testLogger())

	err := d.ExecuteWithUnitOfWork(func(repository.UnitOfWork) error { return nil })
	require.Error(t, err)
}

func TestExecuteWithUnitOfWork_RecoversFromPanicAndRePanics(t *testing.T) {
	d := newDecorator(repotest.New())
	require.Panics(t, func() {
		_ = d.ExecuteWithUnitOfWork(func(repository.UnitOfWork) error {
			panic("kaboom")
		})
	})
}
