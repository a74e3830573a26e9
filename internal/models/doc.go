// Package models defines the core domain models for splitkit.
//
// # Models
//
//   - Participant: someone taking part in a single split
//   - LineItem: a priced line on a receipt, or a cost bucket (room, ticket tier, expense)
//   - SplitRequest: everything needed to compute a split in one of the four modes
//   - Bill: the immutable record produced once a split is confirmed
//   - Share / PersonSplit: the per-participant settlement of a bill
//   - User / Friend: account and contact records owned by the host application
//
// # Design Principles
//
// 1. **Integer money**: every amount is a money.Money (cents), never a float
// 2. **IDs, not pointers**: relationships reference opaque string IDs
// 3. **Bills are immutable**: there is no update path once a Bill is built
// 4. **Storage shape is separate**: the legacy JSON blob lives in package metadata
package models
