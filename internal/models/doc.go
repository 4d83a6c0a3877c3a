// Package models defines the core domain models for splitbill.
//
// # Models
//
//   - Bill: a shared expense container owned by a host user, joinable by code
//   - Participant: a registered user or an email-only guest attached to a bill
//   - Expense: an amount paid by one member, split equally or by a custom map
//   - User: a registered account, known from the caller's identity claims
//   - Member: a settleable identity resolved from a bill's host and participants
//
// # Design Principles
//
//  1. Relationships are explicit foreign-key strings (BillID, UserID, PayerID),
//     never pointers. Related rows are fetched through the storage interface.
//  2. Amounts are money.Cents. Decimal strings exist only in pkg/api.
//  3. Balances are never stored; they are derived on demand from expenses.
//
// # Identities
//
// Every member that can pay or owe has an identity string. The host and
// registered participants use their user ID; guests use their participant
// row ID. Payers and custom split keys reference identities.
package models
