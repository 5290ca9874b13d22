// Package decorator provides decorator patterns for cross-cutting concerns in the application.
// It includes transaction management decorators that wrap business operations with
// automatic transaction handling, error recovery, and logging.
package decorator

import (
	"errors"
	"log/slog"

	"github.com/amirasaad/gamewallet/pkg/repository"
)

// TransactionDecorator wraps a business operation with the begin/commit/
// rollback lifecycle of a repository.UnitOfWork, including panic recovery
// and structured logging, so callers like the wallet engine and AML
// analyzer write only domain logic.
//
// Example usage:
//
//	type Engine struct {
//	    transaction decorator.TransactionDecorator
//	}
//
//	func (e *Engine) Deposit(ctx context.Context, req Request) (*Result, error) {
//	    var result *Result
//	    err := e.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
//	        wallet, err := uow.Wallets().FindForUpdate(ctx, req.PlayerID, req.PartnerID)
//	        if err != nil {
//	            return err
//	        }
//	        // business logic only — no transaction boilerplate
//	        return uow.Wallets().UpdateBalance(ctx, wallet.ID, wallet.Balance.Add(req.Amount))
//	    })
//	    return result, err
//	}
type TransactionDecorator interface {
	// ExecuteWithUnitOfWork runs operation within a transaction context,
	// handing it the UnitOfWork that transaction's lifecycle is managing
	// so it can reach the typed repositories bound to it. It automatically
	// handles:
	// - Beginning the transaction
	// - Executing the operation
	// - Committing on success or rolling back on error
	// - Panic recovery with rollback
	// - Structured logging of all events
	//
	// The operation function should contain only business logic and
	// return an error if the operation fails. The decorator handles all
	// transaction management automatically.
	//
	// Returns an error if:
	// - Unit of Work creation fails
	// - Transaction begin fails
	// - The operation function returns an error
	// - Transaction commit fails
	// - A panic occurs during execution
	ExecuteWithUnitOfWork(operation func(uow repository.UnitOfWork) error) error
}

// UnitOfWorkTransactionDecorator implements TransactionDecorator for the Unit of Work pattern.
// It provides transaction management using a UnitOfWork factory function and includes
// comprehensive logging and error handling.
//
// This decorator is designed to work with the repository pattern and provides:
// - Automatic transaction lifecycle management
// - Panic recovery with proper cleanup
// - Structured logging for observability
// - Graceful error handling for all failure scenarios
//
// The decorator ensures that transactions are properly managed even in edge cases
// like panics, commit failures, or rollback failures.
type UnitOfWorkTransactionDecorator struct {
	uowFactory func() (repository.UnitOfWork, error)
	logger     *slog.Logger
}

// NewUnitOfWorkTransactionDecorator creates a new UnitOfWorkTransactionDecorator instance.
//
// Parameters:
//   - uowFactory: A function that creates and returns a UnitOfWork instance. This function
//     should handle the creation of the unit of work and any associated resources.
//   - logger: A structured logger for recording transaction lifecycle events, errors,
//     and debugging information.
//
// Returns a configured TransactionDecorator that can be injected into services
// for automatic transaction management.
//
// Example:
//
//	uowFactory := gormrepo.Factory(db)
//	transaction := decorator.NewUnitOfWorkTransactionDecorator(uowFactory, logger)
//
//	engine := wallet.NewEngine(transaction, cipher, bus, cache, logger)
func NewUnitOfWorkTransactionDecorator(
	uowFactory func() (repository.UnitOfWork, error),
	logger *slog.Logger,
) *UnitOfWorkTransactionDecorator {
	return &UnitOfWorkTransactionDecorator{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// ExecuteWithUnitOfWork runs operation within a transaction context using the Unit of
// Work pattern. It provides comprehensive transaction lifecycle management with
// automatic error handling and recovery mechanisms.
//
// Transaction Lifecycle:
// 1. Creates a new UnitOfWork using the factory function
// 2. Begins the transaction
// 3. Executes the provided operation function, passing it the UnitOfWork
// 4. Commits the transaction on success
// 5. Rolls back the transaction on any error or panic
//
// Error Handling:
// - UnitOfWork creation failures are logged and replaced by a descriptive error
// - Transaction begin failures are logged and returned as errors
// - Operation failures trigger automatic rollback and return the original error
// - Commit failures trigger rollback and return a descriptive error
// - Panics are recovered, logged, and re-panicked after rollback
func (d *UnitOfWorkTransactionDecorator) ExecuteWithUnitOfWork(operation func(uow repository.UnitOfWork) error) error {
	// Create UnitOfWork
	uow, err := d.uowFactory()
	if err != nil {
		d.logger.Error("Failed to create unit of work", "error", err)
		return errors.New("failed to create unit of work")
	}

	// Begin transaction
	if err = uow.Begin(); err != nil {
		d.logger.Error("Failed to begin transaction", "error", err)
		return errors.New("failed to begin transaction")
	}

	// Defer panic recovery and cleanup
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Transaction panic recovered", "panic", r)
			_ = uow.Rollback() //nolint:errcheck
			panic(r)           // re-panic after rollback
		}
	}()

	// Execute the business operation
	if err = operation(uow); err != nil {
		// Rollback on operation failure
		if rbErr := uow.Rollback(); rbErr != nil {
			d.logger.Error("Failed to rollback transaction", "error", rbErr)
		}
		d.logger.Error("Transaction operation failed", "error", err)
		return err
	}

	// Commit transaction
	if err = uow.Commit(); err != nil {
		// Rollback when commit fails
		if rbErr := uow.Rollback(); rbErr != nil {
			d.logger.Error("Failed to rollback transaction after commit error", "error", rbErr)
		}
		d.logger.Error("Failed to commit transaction", "error", err)
		return errors.New("failed to commit transaction")
	}

	return nil
}
