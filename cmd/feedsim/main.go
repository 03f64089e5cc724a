// Command feedsim is a synthetic transaction feed for local development. It
// generates transactions on a fixed interval and serves them in the wire
// shape the dashboard polls: a single newest transaction and a trailing
// window query.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"fraudwatch/pkg/logging"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var merchants = []string{
	"fraud_Rippin-Kub", "Heller-Gutmann", "Lind-Buckridge",
	"fraud_Kirlin_and_Sons", "Sporer-Keebler", "Kiehn-Emmerich",
}

var categories = []string{
	"grocery_pos", "gas_transport", "shopping_net", "entertainment",
	"misc_net", "food_dining",
}

var states = []string{"TX", "CA", "NY", "FL", "WA", "IL"}

var cities = map[string][]string{
	"TX": {"Houston", "Austin", "Dallas"},
	"CA": {"Los Angeles", "San Diego", "Oakland"},
	"NY": {"New York", "Buffalo", "Albany"},
	"FL": {"Miami", "Orlando", "Tampa"},
	"WA": {"Seattle", "Spokane", "Tacoma"},
	"IL": {"Chicago", "Springfield", "Peoria"},
}

// record is one generated transaction plus its generation time. The
// payload uses the raw feed field names, not the dashboard's canonical
// ones, so the simulator exercises the real normalization path.
type record struct {
	at         time.Time
	payload    map[string]any
	prediction bool
}

type generator struct {
	mu      sync.RWMutex
	history []record
	logger  *logging.Logger
}

func newGenerator(logger *logging.Logger) *generator {
	return &generator{logger: logger}
}

// generate appends one synthetic transaction and prunes history older
// than 12 hours, the widest window the dashboard asks for.
func (g *generator) generate(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := states[rand.Intn(len(states))]
	stateCities := cities[state]
	fraud := rand.Float64() < 0.15
	merchant := merchants[rand.Intn(len(merchants))]

	dob := now.AddDate(-(18 + rand.Intn(55)), 0, -rand.Intn(365))

	payload := map[string]any{
		"trans_num":  uuid.NewString(),
		"amt":        1 + rand.Float64()*499,
		"merchant":   merchant,
		"category":   categories[rand.Intn(len(categories))],
		"city":       stateCities[rand.Intn(len(stateCities))],
		"state":      state,
		"lat":        25 + rand.Float64()*22,
		"long":       -(70 + rand.Float64()*50),
		"dob":        dob.Format("2006-01-02"),
		"trans_date": now.Format("2006-01-02"),
		"trans_time": now.Format("15:04:05"),
	}

	g.history = append(g.history, record{at: now, payload: payload, prediction: fraud})

	cutoff := now.Add(-12 * time.Hour)
	for len(g.history) > 0 && g.history[0].at.Before(cutoff) {
		g.history = g.history[1:]
	}

	if fraud {
		g.logger.Info("generated fraud transaction",
			zap.String("merchant", merchant),
			zap.String("state", state))
	}
}

// envelope mirrors the feed's wire shape. The prediction rides beside the
// payload as a sibling field.
type envelope struct {
	Transaction     map[string]any `json:"transaction"`
	FraudPrediction any            `json:"fraudPrediction"`
}

// wirePrediction varies the encoding of the fraud flag across the three
// forms real feeds have been seen to emit.
func wirePrediction(fraud bool) any {
	if !fraud {
		return false
	}
	switch rand.Intn(3) {
	case 0:
		return true
	case 1:
		return 1
	default:
		return "1"
	}
}

func (g *generator) handleLast(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.history) == 0 {
		http.Error(w, "no transactions yet", http.StatusNotFound)
		return
	}
	last := g.history[len(g.history)-1]
	writeJSON(w, envelope{
		Transaction:     last.payload,
		FraudPrediction: wirePrediction(last.prediction),
	})
}

func (g *generator) handleWindow(w http.ResponseWriter, r *http.Request) {
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		http.Error(w, "minutes must be a positive integer", http.StatusBadRequest)
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	envelopes := make([]envelope, 0, len(g.history))
	for _, rec := range g.history {
		if rec.at.Before(cutoff) {
			continue
		}
		envelopes = append(envelopes, envelope{
			Transaction:     rec.payload,
			FraudPrediction: wirePrediction(rec.prediction),
		})
	}

	writeJSON(w, map[string]any{
		"success":      true,
		"transactions": envelopes,
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.L().Error("failed to encode response", zap.Error(err))
	}
}

func main() {
	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	interval := 2 * time.Second
	if v := os.Getenv("FEEDSIM_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}
	port := os.Getenv("FEEDSIM_PORT")
	if port == "" {
		port = "9090"
	}

	gen := newGenerator(logger.Named("feedsim"))
	gen.generate(time.Now())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			gen.generate(time.Now())
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/last_transaction", gen.handleLast).Methods(http.MethodGet)
	router.HandleFunc("/transactions", gen.handleWindow).Methods(http.MethodGet)

	logger.Info("feed simulator listening",
		zap.String("port", port),
		zap.Duration("interval", interval))
	if err := http.ListenAndServe(fmt.Sprintf(":%s", port), router); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
