// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sharedstring provides reference-counted string interning.
//
// All equal contents constructed through this package share one canonical
// backing allocation per element width, so copying an interned value costs
// one atomic increment and memory stays bounded by the number of distinct
// contents in use. This pays off for programs that churn through many
// short-lived values with high duplication: symbol tables, tag names,
// metric keys.
//
// A String[E] owns one counted reference to its canonical record. Clone
// acquires an additional reference, Release drops one; dropping the last
// reference removes the content from the pool. Plain Go assignment of a
// String copies the handle without acquiring a reference and must be
// treated as a borrow, never released independently.
//
// Zero-length values bind a shared empty record that lives outside the
// pool: constructing, copying and releasing empty values never touches the
// pool lock and never allocates.
package sharedstring
