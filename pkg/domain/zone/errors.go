package zone

import "github.com/binsight/api/pkg/domain/shared"

// Domain errors for zones.
var (
	// ErrNotFound indicates the requested zone does not exist.
	ErrNotFound = shared.NewDomainError("ZONE_NOT_FOUND", "zone not found", shared.ErrNotFound)

	// ErrNoZoneForPoint indicates no zone on the campus contains the
	// queried coordinates. This is a data-quality condition, not a
	// system fault: jobs hitting it complete without a result.
	ErrNoZoneForPoint = shared.NewDomainError("NO_ZONE_FOR_POINT", "no zone contains the given coordinates", shared.ErrNotFound)
)
