// Command seed loads campus and zone fixtures from a YAML file into
// the database. Used to provision a fresh environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/internal/infra/postgres"
	"github.com/binsight/api/migrations"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
	"github.com/binsight/api/pkg/migrate"
)

type fixture struct {
	Campuses []campusFixture `yaml:"campuses"`
}

type campusFixture struct {
	Name      string        `yaml:"name"`
	City      string        `yaml:"city"`
	State     string        `yaml:"state"`
	CenterLat float64       `yaml:"center_lat"`
	CenterLon float64       `yaml:"center_lon"`
	Zones     []zoneFixture `yaml:"zones"`
}

type zoneFixture struct {
	Code string `yaml:"code"`
	// Boundary is a closed ring of [lon, lat] pairs.
	Boundary [][]float64 `yaml:"boundary"`
}

func main() {
	var (
		file       = flag.String("file", "seed.yaml", "Path to the fixture file")
		runMigrate = flag.Bool("migrate", false, "Apply pending migrations first")
	)
	flag.Parse()

	log := logger.NewDefault()
	if err := run(*file, *runMigrate, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(file string, runMigrate bool, log *logger.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if runMigrate {
		n, err := migrate.NewRunner(db.DB, migrations.FS).Up(ctx)
		if err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		log.Info("migrations applied", "count", n)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading fixture file: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("parsing fixture file: %w", err)
	}

	campuses := app.NewCampusService(postgres.NewCampusRepository(db), log)
	zones := app.NewZoneService(postgres.NewZoneRepository(db), nil, nil, log)

	for _, cf := range fx.Campuses {
		c, err := campuses.Create(ctx, cf.Name, cf.City, cf.State, cf.CenterLat, cf.CenterLon)
		if err != nil {
			return fmt.Errorf("creating campus %q: %w", cf.Name, err)
		}
		log.Info("campus seeded", "name", cf.Name, "campus_id", c.ID)

		for _, zf := range cf.Zones {
			ring, err := toRing(zf.Boundary)
			if err != nil {
				return fmt.Errorf("zone %q: %w", zf.Code, err)
			}
			z, err := zones.Create(ctx, c.ID, zf.Code, ring)
			if err != nil {
				return fmt.Errorf("creating zone %q: %w", zf.Code, err)
			}
			log.Info("zone seeded", "code", zf.Code, "zone_id", z.ID)
		}
	}
	return nil
}

func toRing(pairs [][]float64) (zone.Ring, error) {
	ring := make(zone.Ring, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("boundary point %d: expected [lon, lat]", i)
		}
		ring = append(ring, zone.Point{Lon: p[0], Lat: p[1]})
	}
	return ring, nil
}
