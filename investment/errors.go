// Copyright (C) 2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package investment

import "errors"

var (
	// ErrInvestorNameRequired is logged when an investor-scoped operation is called without an investor name.
	ErrInvestorNameRequired = errors.New("investor name required")

	// ErrSearcherRequired is returned by NewService when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrCacheRequired is returned by NewService when no cache is provided.
	ErrCacheRequired = errors.New("cache required")
)
