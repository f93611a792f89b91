package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/slotboard"
)

const (
	driverMongo    = "mongo"
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type settings struct {
	Port              string
	Driver            string
	MongoURI          string
	MongoDatabase     string
	DatabaseURL       string
	Location          *time.Location
	Hours             slotboard.Hours
	SideEffectTimeout time.Duration
	CatalogCacheSize  int
	RepairSchedule    string
	RepairDays        int
}

// loadSettings reads the core settings. Each integration reads its own
// optional keys where it is built.
func loadSettings() (settings, error) {
	var s settings
	var err error

	if s.Port, err = config.Port("HTTP_PORT", "8080"); err != nil {
		return s, err
	}
	s.Driver = strings.ToLower(config.String("STORAGE_DRIVER", driverMongo))
	switch s.Driver {
	case driverMongo:
		s.MongoURI = config.String("MONGO_URI", "mongodb://localhost:27017")
		s.MongoDatabase = config.String("MONGO_DATABASE", "salon")
	case driverPostgres:
		if s.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return s, err
		}
	case driverMemory:
	default:
		return s, fmt.Errorf("STORAGE_DRIVER must be one of mongo, postgres, memory (got %q)", s.Driver)
	}

	if s.Location, err = config.Location("SALON_TIMEZONE", "UTC"); err != nil {
		return s, err
	}

	hours := slotboard.DefaultHours()
	if hours.OpenHour, err = config.Int("SLOT_OPEN_HOUR", hours.OpenHour); err != nil {
		return s, err
	}
	if hours.CloseHour, err = config.Int("SLOT_CLOSE_HOUR", hours.CloseHour); err != nil {
		return s, err
	}
	step, err := config.Int("SLOT_STEP_MINUTES", int(hours.Step/time.Minute))
	if err != nil {
		return s, err
	}
	hours.Step = time.Duration(step) * time.Minute
	if err := hours.Validate(); err != nil {
		return s, err
	}
	s.Hours = hours

	if s.SideEffectTimeout, err = config.Duration("SIDE_EFFECT_TIMEOUT", 5*time.Second); err != nil {
		return s, err
	}
	if s.CatalogCacheSize, err = config.Int("CATALOG_CACHE_SIZE", 128); err != nil {
		return s, err
	}
	s.RepairSchedule = config.String("SLOT_REPAIR_SCHEDULE", "15 2 * * *")
	if s.RepairDays, err = config.Int("SLOT_REPAIR_DAYS", 14); err != nil {
		return s, err
	}
	return s, nil
}
