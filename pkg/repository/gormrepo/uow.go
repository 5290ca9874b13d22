package gormrepo

import (
	"github.com/amirasaad/gamewallet/pkg/repository"
	"gorm.io/gorm"
)

// UnitOfWork wraps a *gorm.DB transaction and lazily builds the typed
// repositories bound to it, following the teacher's pkg/repository/uow.go
// shape: Begin opens the transaction, the accessor methods hand out
// repositories scoped to it, Commit/Rollback close it.
type UnitOfWork struct {
	root *gorm.DB
	tx   *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{root: db}
}

func (u *UnitOfWork) Begin() error {
	u.tx = u.root.Begin()
	return u.tx.Error
}

func (u *UnitOfWork) Commit() error   { return u.tx.Commit().Error }
func (u *UnitOfWork) Rollback() error { return u.tx.Rollback().Error }

func (u *UnitOfWork) Wallets() repository.WalletRepository {
	return &WalletRepository{db: u.tx}
}

func (u *UnitOfWork) Transactions() repository.TransactionRepository {
	return &TransactionRepository{db: u.tx}
}

func (u *UnitOfWork) Partners() repository.PartnerRepository {
	return &PartnerRepository{db: u.tx}
}

func (u *UnitOfWork) ApiKeys() repository.ApiKeyRepository {
	return &ApiKeyRepository{db: u.tx}
}

func (u *UnitOfWork) AML() repository.AMLRepository {
	return &AMLRepository{db: u.tx}
}

func (u *UnitOfWork) DeadLetters() repository.DeadLetterRepository {
	return &DeadLetterRepository{db: u.tx}
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// Factory is the uowFactory signature pkg/decorator.TransactionDecorator
// expects: a fresh UnitOfWork per call, bound to the same underlying
// *gorm.DB pool.
func Factory(db *gorm.DB) func() (repository.UnitOfWork, error) {
	return func() (repository.UnitOfWork, error) {
		return NewUnitOfWork(db), nil
	}
}

// NewDeadLetterSink binds a DeadLetterRepository directly to the root
// *gorm.DB, outside any request transaction. The event bus writes its
// overflow here independently of whatever unit of work triggered it, so
// a dead letter survives even when the triggering transaction rolls back.
// The AML analyzer's exhausted-retry path records into the same table
// through its own unit of work (UnitOfWork.DeadLetters), not this sink.
func NewDeadLetterSink(db *gorm.DB) *DeadLetterRepository {
	return &DeadLetterRepository{db: db}
}

// NewTransactionRepository binds a TransactionRepository directly to the
// root *gorm.DB, for read paths that sit outside any write transaction.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &TransactionRepository{db: db}
}

// NewPartnerRepository binds a PartnerRepository directly to the root
// *gorm.DB, for read paths that sit outside any write transaction.
func NewPartnerRepository(db *gorm.DB) repository.PartnerRepository {
	return &PartnerRepository{db: db}
}
