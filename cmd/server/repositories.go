package main

import (
	"github.com/binsight/api/internal/infra/postgres"
	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/zone"
)

// Repositories holds all repository implementations.
type Repositories struct {
	Campus campus.Repository
	Zone   zone.Repository
	Scan   scan.Repository
}

// NewRepositories creates all Postgres-backed repositories.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Campus: postgres.NewCampusRepository(db),
		Zone:   postgres.NewZoneRepository(db),
		Scan:   postgres.NewScanRepository(db),
	}
}
