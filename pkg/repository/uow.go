package repository

// UnitOfWork bounds a single transactional scope and hands out the typed
// repositories that operate within it. Callers Begin, do work through the
// accessors, then Commit or Rollback exactly once.
type UnitOfWork interface {
	Begin() error
	Commit() error
	Rollback() error

	Wallets() WalletRepository
	Transactions() TransactionRepository
	Partners() PartnerRepository
	ApiKeys() ApiKeyRepository
	AML() AMLRepository
	DeadLetters() DeadLetterRepository
}
