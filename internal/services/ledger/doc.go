/*
Package ledger is the balance calculator and transaction state machine.

The transactions table is the source of truth. A wallet row caches the
owner's available balance: the signed sum of completed transactions plus the
amounts of pending withdrawals, which are held from the moment a withdrawal is
created until the provider settles it. Every mutation runs in one store
transaction that locks the wallet row, writes the ledger row and rewrites the
cached balance from the aggregate, so the cache can never drift from history
for longer than a single transaction.

State machine:

	pending ──► completed
	   │
	   └──────► failed

Terminal states are final. Transitioning a terminal transaction again is a
no-op reported as errors.ErrTransitionConflict, which callers treat as a
duplicate delivery. Failing a pending withdrawal releases its hold, which is
the compensating credit; because the hold can only be released by the single
pending→failed transition, the credit is applied exactly once.
*/
package ledger
