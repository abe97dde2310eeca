package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/engine"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Policy turns the RESTAURANT_* settings into the engine's booking window.
func (c Config) Policy() (engine.Policy, error) {
	loc, err := time.LoadLocation(c.RestaurantTZ)
	if err != nil {
		return engine.Policy{}, fmt.Errorf("RESTAURANT_TZ: %w", err)
	}
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(c.RestaurantClosedDay))]
	if !ok {
		return engine.Policy{}, fmt.Errorf("RESTAURANT_CLOSED_DAY: unknown weekday %q", c.RestaurantClosedDay)
	}
	for key, v := range map[string]string{"RESTAURANT_OPENS": c.RestaurantOpens, "RESTAURANT_CLOSES": c.RestaurantCloses} {
		if !clockPattern.MatchString(v) {
			return engine.Policy{}, fmt.Errorf("%s: want HH:MM, got %q", key, v)
		}
	}
	if c.RestaurantOpens > c.RestaurantCloses {
		return engine.Policy{}, fmt.Errorf("RESTAURANT_OPENS %s is after RESTAURANT_CLOSES %s", c.RestaurantOpens, c.RestaurantCloses)
	}
	return engine.Policy{
		ClosedDay: day,
		Opens:     c.RestaurantOpens,
		Closes:    c.RestaurantCloses,
		Location:  loc,
	}, nil
}
