// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sas

import "errors"

// Sentinel errors for the SAS+ data model.
var (
	// ErrArityMismatch is returned when an atom's term count does not match
	// its predicate's arity.
	ErrArityMismatch = errors.New("atom arity does not match predicate")

	// ErrUnknownObject is returned when a term references an object that is
	// not part of the catalog handed to the binding table.
	ErrUnknownObject = errors.New("object not in catalog")

	// ErrUnknownType is returned during problem assembly when a referenced
	// type was never declared.
	ErrUnknownType = errors.New("type not found")

	// ErrEmptyDomain is returned by MakeDomainEqualTo when asked to pin a
	// term to an empty candidate set.
	ErrEmptyDomain = errors.New("variable domain must not be empty")
)
