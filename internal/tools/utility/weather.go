package utility

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

var (
	weatherConditions = []string{"Sunny", "Cloudy", "Overcast", "Light rain", "Moderate rain", "Heavy rain", "Thunderstorms", "Snow"}
	windDirections    = []string{"East", "West", "South", "North", "Southeast", "Southwest", "Northeast", "Northwest"}
)

// weatherSim produces simulated weather reports. rand.Rand is not safe for
// concurrent use, so draws are serialised.
type weatherSim struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (w *weatherSim) report(city string) string {
	w.mu.Lock()
	temperature := w.rng.IntN(46) - 10
	condition := weatherConditions[w.rng.IntN(len(weatherConditions))]
	humidity := 30 + w.rng.IntN(61)
	wind := windDirections[w.rng.IntN(len(windDirections))]
	force := 1 + w.rng.IntN(8)
	w.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Weather for %s\n", city)
	fmt.Fprintf(&b, "Temperature: %d°C\n", temperature)
	fmt.Fprintf(&b, "Conditions: %s\n", condition)
	fmt.Fprintf(&b, "Humidity: %d%%\n", humidity)
	fmt.Fprintf(&b, "Wind: %s, force %d\n\n", wind, force)
	b.WriteString("Note: simulated data, no weather service is configured.")
	return b.String()
}

// NewWeatherTool creates the Weather tool. A nil rng draws from the global
// source.
func NewWeatherTool(rng *rand.Rand) engine.Tool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	sim := &weatherSim{rng: rng}
	return engine.NewTool(
		"Weather",
		"Get the weather for a city. Input: city name, e.g. 'Beijing', 'Shanghai', 'New York'",
		func(_ context.Context, query string) (string, error) {
			city := strings.TrimSpace(query)
			if city == "" {
				return "", errors.New("please provide a city name")
			}
			return sim.report(city), nil
		},
	)
}
